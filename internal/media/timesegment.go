package media

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TimeSegment is a half-open interval [Start, End) in milliseconds.
type TimeSegment struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Between returns the segment [start, end).
func Between(start, end int64) TimeSegment {
	return TimeSegment{Start: start, End: end}
}

// Duration returns End - Start in milliseconds.
func (s TimeSegment) Duration() int64 {
	return s.End - s.Start
}

// Seconds returns the segment duration in seconds.
func (s TimeSegment) Seconds() float64 {
	return float64(s.Duration()) / 1000
}

// Contains reports whether t (milliseconds) lies inside the segment.
func (s TimeSegment) Contains(t int64) bool {
	return s.Start <= t && t < s.End
}

// IsZero reports whether the segment is the zero value.
func (s TimeSegment) IsZero() bool {
	return s.Start == 0 && s.End == 0
}

// String renders the segment as "start-end" using FormatDuration.
func (s TimeSegment) String() string {
	return FormatDuration(s.Start) + "-" + FormatDuration(s.End)
}

// ParseTimeSegment parses the "start-end" form produced by String.
func ParseTimeSegment(text string) (TimeSegment, error) {
	parts := strings.Split(strings.TrimSpace(text), "-")
	if len(parts) != 2 {
		return TimeSegment{}, fmt.Errorf("parse time segment %q: expected start-end", text)
	}
	start, err := ParseDuration(parts[0])
	if err != nil {
		return TimeSegment{}, fmt.Errorf("parse time segment %q: %w", text, err)
	}
	end, err := ParseDuration(parts[1])
	if err != nil {
		return TimeSegment{}, fmt.Errorf("parse time segment %q: %w", text, err)
	}
	if end < start {
		return TimeSegment{}, fmt.Errorf("parse time segment %q: end before start", text)
	}
	return Between(start, end), nil
}

// FormatDuration renders milliseconds as M:SS.zzz, or H:MM:SS.zzz when the
// value reaches one hour.
func FormatDuration(msecs int64) string {
	sign := ""
	if msecs < 0 {
		sign = "-"
		msecs = -msecs
	}
	h := msecs / 3_600_000
	msecs -= h * 3_600_000
	m := msecs / 60_000
	msecs -= m * 60_000
	s := msecs / 1000
	ms := msecs % 1000
	if h > 0 {
		return fmt.Sprintf("%s%d:%02d:%02d.%03d", sign, h, m, s, ms)
	}
	return fmt.Sprintf("%s%d:%02d.%03d", sign, m, s, ms)
}

// ParseDuration parses SS[.fff], M:SS[.fff] or H:MM:SS[.fff] into
// milliseconds. An empty string is zero.
func ParseDuration(text string) (int64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, nil
	}
	parts := strings.Split(text, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("parse duration %q: too many fields", text)
	}
	seconds, err := strconv.ParseFloat(parts[len(parts)-1], 64)
	if err != nil || seconds < 0 || math.IsInf(seconds, 0) {
		return 0, fmt.Errorf("parse duration %q: invalid seconds", text)
	}
	value := int64(math.Round(seconds * 1000))
	multiplier := int64(60_000)
	for i := len(parts) - 2; i >= 0; i-- {
		n, err := strconv.ParseInt(parts[i], 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("parse duration %q: invalid field %q", text, parts[i])
		}
		value += n * multiplier
		multiplier *= 60
	}
	return value, nil
}
