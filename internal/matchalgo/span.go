package matchalgo

import (
	"fmt"
)

// Span is a contiguous, non-owning view [first, first+count) into a Video.
// Spans are values: every operation returns a new span.
type Span struct {
	video *Video
	first int
	count int
}

// NewSpan builds a span, clamping offset and count to the catalog bounds.
func NewSpan(v *Video, offset, count int) Span {
	n := len(v.Frames)
	offset = min(max(offset, 0), n)
	count = min(max(count, 0), n-offset)
	return Span{video: v, first: offset, count: count}
}

// Merge returns the smallest span covering both a and b.
func Merge(a, b Span) Span {
	if b.first < a.first {
		a, b = b, a
	}
	return NewSpan(a.video, a.first, max(a.End(), b.End())-a.first)
}

// Video returns the catalog the span views.
func (s Span) Video() *Video { return s.video }

// Size returns the number of frames in the span.
func (s Span) Size() int { return s.count }

// Start returns the catalog index of the first frame.
func (s Span) Start() int { return s.first }

// End returns the catalog index one past the last frame.
func (s Span) End() int { return s.first + s.count }

// Empty reports whether the span has no frames.
func (s Span) Empty() bool { return s.count == 0 }

// At returns the i-th frame of the span.
func (s Span) At(i int) Frame {
	if i < 0 || i >= s.count {
		panic(fmt.Sprintf("matchalgo: span index %d out of range [0,%d)", i, s.count))
	}
	return s.video.Frames[s.first+i]
}

func (s Span) frames() []Frame {
	return s.video.Frames[s.first : s.first+s.count]
}

// Subspan returns the span starting offset frames in, clamped to the catalog.
func (s Span) Subspan(offset, count int) Span {
	return NewSpan(s.video, s.first+offset, count)
}

// Left returns the first n frames, or the whole span when it is shorter.
func (s Span) Left(n int) Span {
	if n >= s.count {
		return s
	}
	s.count = max(n, 0)
	return s
}

// Right returns the last n frames, or the whole span when it is shorter.
func (s Span) Right(n int) Span {
	if n >= s.count {
		return s
	}
	n = max(n, 0)
	s.first = s.End() - n
	s.count = n
	return s
}

// WidenLeft moves the start n frames earlier, stopping at frame 0.
func (s Span) WidenLeft(n int) Span {
	n = min(max(n, 0), s.first)
	s.first -= n
	s.count += n
	return s
}

// TrimLeft drops up to n frames from the start.
func (s Span) TrimLeft(n int) Span {
	n = min(max(n, 0), s.count)
	s.first += n
	s.count -= n
	return s
}

// Grow adds up to n frames at the end, stopping at the catalog end.
func (s Span) Grow(n int) Span {
	return NewSpan(s.video, s.first, s.count+max(n, 0))
}

// Shrink drops up to n frames from the end.
func (s Span) Shrink(n int) Span {
	s.count -= min(max(n, 0), s.count)
	return s
}

// MoveStartTo moves the start to dest, keeping the end.
func (s Span) MoveStartTo(dest int) Span {
	if dest < 0 || dest > s.End() {
		panic(fmt.Sprintf("matchalgo: cannot move start of [%d,%d) to %d", s.first, s.End(), dest))
	}
	s.count = s.End() - dest
	s.first = dest
	return s
}

// MoveEndTo moves the end to dest, keeping the start.
func (s Span) MoveEndTo(dest int) Span {
	if dest < s.first || dest > len(s.video.Frames) {
		panic(fmt.Sprintf("matchalgo: cannot move end of [%d,%d) to %d", s.first, s.End(), dest))
	}
	s.count = dest - s.first
	return s
}

// Contains reports whether other lies within s on the same catalog.
func (s Span) Contains(other Span) bool {
	return other.video == s.video && other.first >= s.first && other.End() <= s.End()
}

// Equal reports whether both spans view the same frames of the same catalog.
func (s Span) Equal(other Span) bool {
	return s.video == other.video && s.first == other.first && s.count == other.count
}

// String renders the span as name[start-end] in catalog time.
func (s Span) String() string {
	if s.video == nil {
		return "<nil>"
	}
	return s.video.Name + "[" + s.video.TimeSegment(s).String() + "]"
}

func frameCount(spans []Span) int {
	n := 0
	for _, s := range spans {
		n += s.count
	}
	return n
}
