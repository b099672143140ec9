package matchalgo

import (
	"fmt"
	"log/slog"

	"digidub/internal/logging"
	"digidub/internal/media"
)

// SegmentResult classifies how a segment was handled.
type SegmentResult int

const (
	SegmentMatched SegmentResult = iota
	SegmentUnmatched
	SegmentExcluded
)

func (r SegmentResult) String() string {
	switch r {
	case SegmentMatched:
		return "matched"
	case SegmentUnmatched:
		return "unmatched"
	case SegmentExcluded:
		return "excluded"
	default:
		return "unknown"
	}
}

// Observer receives per-segment and per-refinement events of a run.
type Observer interface {
	ObserveSegment(result SegmentResult)
	ObserveRefinement(outcome RefineOutcome)
}

type nopObserver struct{}

func (nopObserver) ObserveSegment(SegmentResult)    {}
func (nopObserver) ObserveRefinement(RefineOutcome) {}

// Detector finds the matches between a primary and a secondary video.
type Detector struct {
	// Params tunes the run. NewDetector fills in the defaults.
	Params Parameters
	// SegmentA and SegmentB restrict the search, in milliseconds. The zero
	// value means the whole video.
	SegmentA media.TimeSegment
	SegmentB media.TimeSegment
	// Exclusions are primary-video ranges that must not be matched.
	Exclusions []media.TimeSegment

	primary   *media.Source
	secondary *media.Source
	logger    *slog.Logger
	observer  Observer
}

// Option customizes a Detector.
type Option func(*Detector)

// WithLogger sets the logger used for per-segment tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) { d.logger = logger }
}

// WithObserver registers run event callbacks.
func WithObserver(o Observer) Option {
	return func(d *Detector) {
		if o != nil {
			d.observer = o
		}
	}
}

// WithParameters replaces the default parameters.
func WithParameters(p Parameters) Option {
	return func(d *Detector) { d.Params = p }
}

// WithSearchRanges restricts the search to the given ranges.
func WithSearchRanges(a, b media.TimeSegment) Option {
	return func(d *Detector) {
		d.SegmentA = a
		d.SegmentB = b
	}
}

// WithExclusions marks primary ranges that must not be matched.
func WithExclusions(ranges []media.TimeSegment) Option {
	return func(d *Detector) { d.Exclusions = append([]media.TimeSegment(nil), ranges...) }
}

// NewDetector checks that every input the run needs has been computed: frames
// for both videos, and silences, black frames and scene changes for the
// primary one.
func NewDetector(primary, secondary *media.Source, opts ...Option) (*Detector, error) {
	missing := func(what string) error {
		return fmt.Errorf("%w: %s", ErrMissingInputData, what)
	}
	switch {
	case primary == nil:
		return nil, missing("primary video")
	case secondary == nil:
		return nil, missing("secondary video")
	case !primary.HasFrames():
		return nil, missing("primary frames")
	case !primary.HasSilences():
		return nil, missing("primary silences")
	case !primary.HasBlackFrames():
		return nil, missing("primary black frames")
	case !primary.HasSceneChanges():
		return nil, missing("primary scene changes")
	case !secondary.HasFrames():
		return nil, missing("secondary frames")
	}

	d := &Detector{
		Params:    DefaultParameters(),
		primary:   primary,
		secondary: secondary,
		observer:  nopObserver{},
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.NewComponentLogger(d.logger, "matcher")
	return d, nil
}

// Run performs a full match. Inputs are copied into fresh catalogs on every
// call, so repeated runs over the same sources return identical results.
func (d *Detector) Run() ([]media.VideoMatch, error) {
	if err := d.Params.Validate(); err != nil {
		return nil, fmt.Errorf("matching parameters: %w", err)
	}
	a, err := NewVideo(d.primary.Path, d.primary.FrameDelta(), d.primary.Frames)
	if err != nil {
		return nil, err
	}
	b, err := NewVideo(d.secondary.Path, d.secondary.FrameDelta(), d.secondary.Frames)
	if err != nil {
		return nil, err
	}

	MarkSilences(a, toSegments(d.primary.Silences))
	MarkSilenceBorders(a, d.Params.BorderSilenceFrames)
	MarkBlackFrames(a, toSegments(d.primary.BlackFrames))
	MarkExcluded(a, d.Exclusions)
	MarkSceneChanges(a, d.primary.SceneChanges, d.Params.SceneChangeScoreThreshold)
	MergeSmallScenes(a, d.Params.MinSceneFrameCount)

	m := &matcher{params: d.Params, logger: d.logger, observer: d.observer}
	return m.findMatches(rangeSpan(a, d.SegmentA), rangeSpan(b, d.SegmentB)), nil
}

func rangeSpan(v *Video, seg media.TimeSegment) Span {
	if seg.IsZero() {
		return v.All()
	}
	return v.SpanOf(seg)
}

func toSegments(intervals []media.Interval) []media.TimeSegment {
	out := make([]media.TimeSegment, 0, len(intervals))
	for _, iv := range intervals {
		out = append(out, iv.Milliseconds())
	}
	return out
}

type matcher struct {
	params   Parameters
	logger   *slog.Logger
	observer Observer
}

// findMatches matches every segment of a in order. The search window in b
// starts right after the previous match and never leaves b.
func (m *matcher) findMatches(a, b Span) []media.VideoMatch {
	var matches []media.VideoMatch
	search := b
	for _, seg := range ExtractSegments(a) {
		if seg.Excluded {
			m.logger.Debug("segment excluded", logging.String(logging.FieldSegment, seg.Span.String()))
			m.observer.ObserveSegment(SegmentExcluded)
			continue
		}
		pattern, match, ok := m.findBestSubspanMatch(seg.Span, search)
		if !ok {
			m.observer.ObserveSegment(SegmentUnmatched)
			continue
		}
		m.observer.ObserveSegment(SegmentMatched)
		matches = append(matches, media.VideoMatch{
			A: pattern.Video().TimeSegment(pattern),
			B: match.Video().TimeSegment(match),
		})
		search = NewSpan(b.Video(), match.End(), b.End()-match.End())
	}
	return matches
}

// findBestSubspanMatch returns the longest refined match of any scene chain
// of pattern inside search. Chains are tried left to right; each starts at
// the first scene that matches on its own and extends as far as possible.
func (m *matcher) findBestSubspanMatch(pattern, search Span) (Span, Span, bool) {
	m.logger.Debug("matching segment",
		logging.String(logging.FieldSegment, pattern.String()),
		logging.String("search_area", search.String()),
	)

	scenes := SplitAtSceneChanges(pattern)
	var bestPattern, bestMatch Span
	found := false

	for i := 0; i < len(scenes); {
		if frameCount(scenes[i:]) < bestPattern.Size() {
			break
		}

		var start AreaMatch
		if i+1 < len(scenes) {
			// Matching two scenes at once makes a wrong first hit less likely;
			// the second scene is then re-matched by the extension.
			start = FindBestMatchingArea(Merge(scenes[i], scenes[i+1]), search)
			extra := scenes[i+1].Size()
			start.Pattern = start.Pattern.Shrink(extra)
			start.Match = start.Match.Shrink(extra)
		} else {
			start = FindBestMatchingArea(scenes[i], search)
		}

		if start.Score > m.params.AreaMatchThreshold {
			m.logger.Debug("scene not matched",
				logging.String("scene", scenes[i].String()),
				logging.Float64("score", start.Score),
			)
			i++
			continue
		}

		end, last := m.extendMatch(start, scenes, i+1, search.End())
		coarse := NewSpan(last.Video(), start.Match.Start(), last.End()-start.Match.Start())
		m.logger.Debug("scene chain matched",
			logging.String("pattern", Merge(scenes[i], scenes[end-1]).String()),
			logging.String("match", coarse.String()),
			logging.Int("scenes", end-i),
		)

		r := m.refine(scenes, i, end, coarse, search)
		m.observer.ObserveRefinement(r.outcome)
		m.logger.Debug("scene chain refined",
			logging.String("pattern", r.pattern.String()),
			logging.String("match", r.match.String()),
			logging.String("outcome", r.outcome.String()),
		)

		if r.pattern.Size() > bestPattern.Size() {
			bestPattern, bestMatch, found = r.pattern, r.match, true
		}
		i = end
	}
	return bestPattern, bestMatch, found
}
