package matchalgo

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"digidub/internal/media"
)

var (
	// ErrMissingInputData reports detector or frame data absent at the start of a run.
	ErrMissingInputData = errors.New("missing input data")
	// ErrInvalidCatalog reports a frame catalog that breaks its structural invariants.
	ErrInvalidCatalog = errors.New("invalid frame catalog")
)

// Frame is one catalog entry. Boundary flags are only stamped on the
// primary video.
type Frame struct {
	PTS  int64
	Hash uint64

	Silence  bool
	Black    bool
	Excluded bool

	// SceneChange marks the first frame of a scene; SceneScore is only
	// meaningful when it is set.
	SceneChange bool
	SceneScore  float64
}

func (f *Frame) clearSceneChange() {
	f.SceneChange = false
	f.SceneScore = 0
}

// Video is a frame catalog: frames sorted by strictly increasing pts and the
// number of seconds represented by one pts tick.
type Video struct {
	Name       string
	FrameDelta float64
	Frames     []Frame
}

// NewVideo builds a catalog from extracted frames. Frames are copied so that
// boundary marking never touches the caller's data.
func NewVideo(name string, frameDelta float64, frames []media.FrameInfo) (*Video, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: %s: no frames", ErrInvalidCatalog, name)
	}
	if !(frameDelta > 0) || math.IsInf(frameDelta, 0) {
		return nil, fmt.Errorf("%w: %s: frame delta %v", ErrInvalidCatalog, name, frameDelta)
	}
	v := &Video{
		Name:       name,
		FrameDelta: frameDelta,
		Frames:     make([]Frame, len(frames)),
	}
	for i, f := range frames {
		if i > 0 && f.PTS <= frames[i-1].PTS {
			return nil, fmt.Errorf("%w: %s: pts %d at frame %d does not follow %d", ErrInvalidCatalog, name, f.PTS, i, frames[i-1].PTS)
		}
		v.Frames[i] = Frame{PTS: f.PTS, Hash: f.PHash}
	}
	return v, nil
}

// Len returns the number of frames.
func (v *Video) Len() int { return len(v.Frames) }

// All returns the span covering the whole catalog.
func (v *Video) All() Span { return NewSpan(v, 0, len(v.Frames)) }

// Seconds returns the timestamp of frame i in seconds.
func (v *Video) Seconds(i int) float64 {
	return float64(v.Frames[i].PTS) * v.FrameDelta
}

// nthPTS returns the pts of frame n, or one tick past the last frame when n
// is the catalog length.
func (v *Video) nthPTS(n int) int64 {
	if n < len(v.Frames) {
		return v.Frames[n].PTS
	}
	return v.Frames[len(v.Frames)-1].PTS + 1
}

func (v *Video) millis(n int) int64 {
	return int64(math.Round(float64(v.nthPTS(n)) * v.FrameDelta * 1000))
}

// TimeSegment converts a span to milliseconds. The end of a span reaching the
// last frame is one pts tick past that frame.
func (v *Video) TimeSegment(s Span) media.TimeSegment {
	return media.Between(v.millis(s.Start()), v.millis(s.End()))
}

// SpanOf returns the frames whose rounded millisecond timestamp lies in seg.
func (v *Video) SpanOf(seg media.TimeSegment) Span {
	lower := func(ms int64) int {
		return sort.Search(len(v.Frames), func(i int) bool { return v.millis(i) >= ms })
	}
	first := lower(seg.Start)
	last := lower(seg.End)
	return NewSpan(v, first, last-first)
}
