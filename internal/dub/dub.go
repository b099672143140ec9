package dub

import (
	"errors"
	"fmt"

	"digidub/internal/media"
)

// SourceID names the audio source of an output segment.
type SourceID int

const (
	// SourcePrimary reuses the primary audio as is.
	SourcePrimary SourceID = 0
	// SourceSecondary reuses the matched secondary audio, stretched to fit.
	SourceSecondary SourceID = 1
)

func (s SourceID) String() string {
	switch s {
	case SourcePrimary:
		return "primary"
	case SourceSecondary:
		return "secondary"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

var (
	// ErrUnsortedMatches is returned by CheckMatches for an inverted match or
	// for matches out of order on the primary timeline.
	ErrUnsortedMatches = errors.New("matches are not sorted and disjoint")
	// ErrNotTiled is returned by Validate when output segments do not cover
	// the primary duration end to end.
	ErrNotTiled = errors.New("output segments do not tile the timeline")
)

// OutputSegment is one piece of the assembled track.
type OutputSegment struct {
	Output   media.TimeSegment `json:"output"`
	SourceID SourceID          `json:"source_id"`
	Source   media.TimeSegment `json:"source"`
}

// Stretch returns the factor by which the source audio must be sped up to
// fill the output range: 1 for primary segments.
func (s OutputSegment) Stretch() float64 {
	if s.Output.Duration() <= 0 {
		return 1
	}
	return float64(s.Source.Duration()) / float64(s.Output.Duration())
}

// Compute walks the matches in order and fills every gap between them with
// primary audio. Zero-length matches are skipped. Matches reaching past
// duration are cut at duration.
func Compute(matches []media.VideoMatch, duration int64) []OutputSegment {
	result := make([]OutputSegment, 0, 2*len(matches)+1)
	cursor := int64(0)
	primary := func(start, end int64) OutputSegment {
		seg := media.Between(start, end)
		return OutputSegment{Output: seg, SourceID: SourcePrimary, Source: seg}
	}

	for _, m := range matches {
		if m.A.Start >= duration {
			break
		}
		if m.A.Start > cursor {
			result = append(result, primary(cursor, m.A.Start))
			cursor = m.A.Start
		}
		if m.A.Duration() <= 0 {
			continue
		}
		out := m.A
		out.End = min(out.End, duration)
		result = append(result, OutputSegment{Output: out, SourceID: SourceSecondary, Source: m.B})
		cursor = out.End
	}

	if cursor < duration {
		result = append(result, primary(cursor, duration))
	}
	return result
}

// CheckMatches verifies that matches are sorted by primary start and do not
// overlap on the primary timeline.
func CheckMatches(matches []media.VideoMatch) error {
	for i, m := range matches {
		if m.A.End < m.A.Start || m.B.End < m.B.Start {
			return fmt.Errorf("%w: match %d is inverted", ErrUnsortedMatches, i)
		}
		if i > 0 && matches[i-1].A.End > m.A.Start {
			return fmt.Errorf("%w: match %d starts at %s before previous end %s",
				ErrUnsortedMatches, i, media.FormatDuration(m.A.Start), media.FormatDuration(matches[i-1].A.End))
		}
	}
	return nil
}

// Validate checks that segments tile [0, duration) with no gap or overlap.
func Validate(segments []OutputSegment, duration int64) error {
	cursor := int64(0)
	for i, s := range segments {
		if s.Output.Start != cursor {
			return fmt.Errorf("%w: segment %d starts at %d, expected %d", ErrNotTiled, i, s.Output.Start, cursor)
		}
		if s.Output.Duration() <= 0 {
			return fmt.Errorf("%w: segment %d is empty", ErrNotTiled, i)
		}
		cursor = s.Output.End
	}
	if cursor != duration {
		return fmt.Errorf("%w: ends at %d, expected %d", ErrNotTiled, cursor, duration)
	}
	return nil
}
