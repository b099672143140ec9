package media

// VideoMatch pairs a primary-video range with the secondary-video range
// holding the same footage.
type VideoMatch struct {
	A TimeSegment `json:"a"`
	B TimeSegment `json:"b"`
}

// String renders the match as "a=b".
func (m VideoMatch) String() string {
	return m.A.String() + "=" + m.B.String()
}
