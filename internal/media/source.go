package media

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Rational is a frame rate expressed as num/den frames per second.
type Rational struct {
	Num int64 `json:"num"`
	Den int64 `json:"den"`
}

// ParseRational parses "num/den" as emitted by ffprobe's r_frame_rate.
func ParseRational(text string) (Rational, error) {
	num, den, ok := strings.Cut(strings.TrimSpace(text), "/")
	if !ok {
		den = "1"
	}
	n, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return Rational{}, fmt.Errorf("parse rational %q: %w", text, err)
	}
	d, err := strconv.ParseInt(den, 10, 64)
	if err != nil {
		return Rational{}, fmt.Errorf("parse rational %q: %w", text, err)
	}
	return Rational{Num: n, Den: d}, nil
}

// Valid reports whether both terms are positive.
func (r Rational) Valid() bool {
	return r.Num > 0 && r.Den > 0
}

// FrameDelta returns the seconds represented by one pts tick, the inverse
// of the rate. Invalid rates return 0.
func (r Rational) FrameDelta() float64 {
	if !r.Valid() {
		return 0
	}
	return float64(r.Den) / float64(r.Num)
}

func (r Rational) String() string {
	return strconv.FormatInt(r.Num, 10) + "/" + strconv.FormatInt(r.Den, 10)
}

// FrameInfo is one extracted frame: its pts and 64-bit perceptual hash.
type FrameInfo struct {
	PTS   int64  `json:"pts"`
	PHash uint64 `json:"phash"`
}

// Interval is a half-open detector window [Start, End) in seconds.
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Milliseconds converts the interval to a TimeSegment. An open end
// (+Inf, emitted when a detector window runs to EOF) maps to MaxInt64.
func (i Interval) Milliseconds() TimeSegment {
	end := int64(math.MaxInt64)
	if !math.IsInf(i.End, 1) {
		end = int64(math.Round(i.End * 1000))
	}
	return Between(int64(math.Round(i.Start*1000)), end)
}

// SceneChange is a scored scene-change event at Time seconds.
type SceneChange struct {
	Time  float64 `json:"time"`
	Score float64 `json:"score"`
}

// Source gathers everything known about one video file. A nil result slice
// means the detector has not run; an empty non-nil slice means it ran and
// found nothing.
type Source struct {
	Path      string
	Duration  int64 // milliseconds
	FrameRate Rational
	Packets   int64

	Frames       []FrameInfo
	Silences     []Interval
	BlackFrames  []Interval
	SceneChanges []SceneChange
}

// HasFrames reports whether frame extraction has run.
func (s *Source) HasFrames() bool { return s != nil && s.Frames != nil }

// HasSilences reports whether silence detection has run.
func (s *Source) HasSilences() bool { return s != nil && s.Silences != nil }

// HasBlackFrames reports whether black-frame detection has run.
func (s *Source) HasBlackFrames() bool { return s != nil && s.BlackFrames != nil }

// HasSceneChanges reports whether scene-change detection has run.
func (s *Source) HasSceneChanges() bool { return s != nil && s.SceneChanges != nil }

// FrameDelta returns seconds per pts tick.
func (s *Source) FrameDelta() float64 {
	return s.FrameRate.FrameDelta()
}
