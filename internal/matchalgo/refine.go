package matchalgo

import (
	"math"
	"slices"

	"digidub/internal/logging"
)

// RefineOutcome records how a coarse match was turned into the final one.
type RefineOutcome int

const (
	// RefineAnchored: speed estimated between the first and last scene
	// changes, both ends walked frame by frame.
	RefineAnchored RefineOutcome = iota
	// RefineTwoScenes: speed estimated on the side not bounded by black.
	RefineTwoScenes
	// RefineSingleScene: one scene, nothing to anchor on; coarse match kept.
	RefineSingleScene
	// RefineDegenerate: no usable speed estimate; coarse match kept.
	RefineDegenerate
)

func (o RefineOutcome) String() string {
	switch o {
	case RefineAnchored:
		return "anchored"
	case RefineTwoScenes:
		return "two_scenes"
	case RefineSingleScene:
		return "single_scene"
	case RefineDegenerate:
		return "degenerate"
	default:
		return "unknown"
	}
}

// refinement is a refined pattern/match pair.
type refinement struct {
	pattern Span
	match   Span
	outcome RefineOutcome
}

// refine snaps the coarse match of scenes[begin:end] to frame accuracy.
// fullSearch bounds how far the secondary side may move.
func (m *matcher) refine(scenes []Span, begin, end int, coarse, fullSearch Span) refinement {
	pattern := Merge(scenes[begin], scenes[end-1])
	switch n := end - begin; {
	case n >= 3:
		return m.refineAnchored(scenes[begin:end], pattern, coarse, fullSearch)
	case n == 2:
		return m.refineTwoScenes(scenes[begin], scenes[begin+1], coarse, fullSearch)
	default:
		// Approximate on purpose: a lone scene has no scene change to anchor
		// on, so the coarse area match is returned as is.
		return refinement{pattern: pattern, match: coarse, outcome: RefineSingleScene}
	}
}

func (m *matcher) refineAnchored(scenes []Span, pattern, coarse, fullSearch Span) refinement {
	fallback := refinement{pattern: pattern, match: coarse, outcome: RefineDegenerate}
	k := min(m.params.AnchorSceneCount, len(scenes))

	first := m.locateAnchor(scenes[0], scenes[1], coarse.Left(frameCount(scenes[:k])))
	last := m.locateAnchor(scenes[len(scenes)-2], scenes[len(scenes)-1], coarse.Right(frameCount(scenes[len(scenes)-k:])))
	if last.a <= first.a || last.b <= first.b {
		return fallback
	}

	a, b := pattern.Video(), coarse.Video()
	speed, ok := speedRatio(last.b-first.b, b.FrameDelta, last.a-first.a, a.FrameDelta)
	if !ok || last.b >= fullSearch.End() || first.b-1 < fullSearch.Start() {
		return fallback
	}

	endA, endB := m.findMatchEnd(a, last.a, b, last.b, speed, pattern.End(), fullSearch.End())
	refinedPattern := pattern.MoveEndTo(endA)
	refinedMatch := coarse.MoveEndTo(endB)

	startA, startB := m.findMatchStart(a, first.a-1, b, first.b-1, speed, refinedPattern.Start(), fullSearch.Start())
	return refinement{
		pattern: refinedPattern.MoveStartTo(startA),
		match:   refinedMatch.MoveStartTo(startB),
		outcome: RefineAnchored,
	}
}

func (m *matcher) refineTwoScenes(s0, s1, coarse, fullSearch Span) refinement {
	pattern := Merge(s0, s1)
	startsBlack, endsBlack := startsWithBlack(pattern), endsWithBlack(pattern)
	if startsBlack && endsBlack {
		// Both ends fade to black: there is no scene edge to measure a speed
		// on, so the coarse match is kept unrefined. Known approximation.
		m.logger.Debug("refinement skipped, match bounded by black frames",
			logging.String("pattern", pattern.String()),
			logging.String("match", coarse.String()),
		)
		return refinement{pattern: pattern, match: coarse, outcome: RefineDegenerate}
	}

	anchor := m.locateAnchor(s0, s1, coarse)
	a, b := pattern.Video(), coarse.Video()
	refinedMatch := coarse

	var speed float64
	haveSpeed := false

	if !endsBlack {
		lo, hi := m.params.speedFrameRange(s1.Size())
		window := clipToSearch(b, anchor.b+lo, anchor.b+hi, fullSearch)
		for _, scene := range SplitAtSceneChanges(window) {
			if !likelySameScene(s1, scene, m.params.AreaMatchThreshold) {
				break
			}
			refinedMatch = refinedMatch.MoveEndTo(scene.End())
		}
		if s, ok := speedRatio(refinedMatch.End()-anchor.b, b.FrameDelta, pattern.End()-anchor.a, a.FrameDelta); ok {
			speed, haveSpeed = s, true
		}
	}

	if !startsBlack {
		lo, hi := m.params.speedFrameRange(s0.Size())
		window := clipToSearch(b, anchor.b-1-hi, anchor.b-1-lo, fullSearch)
		scenes := SplitAtSceneChanges(window)
		slices.Reverse(scenes)
		for _, scene := range scenes {
			if !likelySameScene(s0, scene, m.params.AreaMatchThreshold) {
				break
			}
			refinedMatch = refinedMatch.MoveStartTo(scene.Start())
		}
		if s, ok := speedRatio(anchor.b-refinedMatch.Start(), b.FrameDelta, anchor.a-pattern.Start(), a.FrameDelta); ok {
			speed, haveSpeed = s, true
		}
	}

	if !haveSpeed {
		return refinement{pattern: pattern, match: coarse, outcome: RefineDegenerate}
	}

	refinedPattern := pattern
	if startsBlack && anchor.b-1 >= fullSearch.Start() {
		startA, startB := m.findMatchStart(a, anchor.a-1, b, anchor.b-1, speed, refinedPattern.Start(), fullSearch.Start())
		refinedPattern = refinedPattern.MoveStartTo(startA)
		refinedMatch = refinedMatch.MoveStartTo(startB)
	}
	if endsBlack && anchor.b < fullSearch.End() {
		endA, endB := m.findMatchEnd(a, anchor.a, b, anchor.b, speed, refinedPattern.End(), fullSearch.End())
		refinedPattern = refinedPattern.MoveEndTo(endA)
		refinedMatch = refinedMatch.MoveEndTo(endB)
	}
	return refinement{pattern: refinedPattern, match: refinedMatch, outcome: RefineTwoScenes}
}

// anchor is a pair of corresponding frame indices in the two catalogs.
type anchor struct {
	a, b int
}

// locateAnchor finds where the transition between adjacent scenes x and y
// lands inside area, using a window straddling the scene change.
func (m *matcher) locateAnchor(x, y, area Span) anchor {
	window := symmetricSpanAround(x, y, m.params.AnchorWindowFrames)
	found := FindBestMatchingArea(window, area)
	if found.Score > m.params.AreaMatchThreshold {
		logging.WarnWithContext(m.logger, "please verify the match near scene change", "anchor_uncertain",
			logging.String("pattern", found.Pattern.String()),
			logging.String("match", found.Match.String()),
			logging.Float64("score", found.Score),
			logging.String(logging.FieldImpact, "match boundaries may be off by a few frames"),
			logging.String(logging.FieldErrorHint, "review the match in an editor"),
		)
	}
	return anchor{
		a: found.Pattern.Start() + found.Pattern.Size()/2,
		b: found.Match.Start() + found.Match.Size()/2,
	}
}

// findMatchEnd walks forward from the matching pair (i, j), advancing one
// frame in a and speed frames in b. On a mismatch it looks for the closest
// pair within the lookahead on both sides and resyncs there; it stops when
// none is close enough. It returns the exclusive ends reached.
func (m *matcher) findMatchEnd(a *Video, i int, b *Video, j int, speed float64, iEnd, jEnd int) (int, int) {
	jReal := float64(j)
	for i+1 < iEnd {
		nextB := int(math.Round(jReal + speed))
		if nextB >= jEnd {
			break
		}
		nextA := i + 1
		if HashDistance(a.Frames[nextA].Hash, b.Frames[nextB].Hash) < m.params.FrameUnmatchThreshold {
			i, j = nextA, nextB
			jReal += speed
			continue
		}
		x, y, ok := findBestPair(
			NewSpan(a, nextA, iEnd-nextA).Left(m.params.LookaheadFrames),
			NewSpan(b, nextB, jEnd-nextB).Left(m.params.LookaheadFrames),
			m.params.FrameRematchThreshold,
		)
		if !ok {
			break
		}
		i, j = x, y
		jReal = float64(j)
	}

	// A single dangling frame of a is taken if it still resembles b[j].
	if i+2 == iEnd && HashDistance(a.Frames[i+1].Hash, b.Frames[j].Hash) < m.params.FrameUnmatchThreshold {
		i++
	}
	return i + 1, j + 1
}

// findMatchStart is findMatchEnd walking backward. It returns the inclusive
// starts reached, never below iMin and jMin.
func (m *matcher) findMatchStart(a *Video, i int, b *Video, j int, speed float64, iMin, jMin int) (int, int) {
	jReal := float64(j)
	for i > iMin {
		prevB := int(math.Round(jReal - speed))
		if prevB < jMin {
			break
		}
		prevA := i - 1
		if HashDistance(a.Frames[prevA].Hash, b.Frames[prevB].Hash) < m.params.FrameUnmatchThreshold {
			i, j = prevA, prevB
			jReal -= speed
			continue
		}
		x, y, ok := findBestPair(
			NewSpan(a, iMin, i-iMin).Right(m.params.LookaheadFrames),
			NewSpan(b, jMin, j-jMin).Right(m.params.LookaheadFrames),
			m.params.FrameRematchThreshold,
		)
		if !ok {
			break
		}
		i, j = x, y
		jReal = float64(j)
	}

	if i == iMin+1 && HashDistance(a.Frames[iMin].Hash, b.Frames[j].Hash) < m.params.FrameUnmatchThreshold {
		i = iMin
	}
	return i, j
}

// clipToSearch returns the frames [from, to) of v that lie inside search.
func clipToSearch(v *Video, from, to int, search Span) Span {
	from = max(from, search.Start())
	to = min(to, search.End())
	if to <= from {
		return NewSpan(v, from, 0)
	}
	return NewSpan(v, from, to-from)
}

// symmetricSpanAround returns up to n frames on each side of the boundary
// between adjacent spans x and y.
func symmetricSpanAround(x, y Span, n int) Span {
	n = min(n, x.Size(), y.Size())
	return NewSpan(y.Video(), y.Start()-n, 2*n)
}

func startsWithBlack(s Span) bool {
	if s.Empty() {
		return false
	}
	if s.At(0).Black {
		return true
	}
	return s.Start() > 0 && s.video.Frames[s.Start()-1].Black
}

func endsWithBlack(s Span) bool {
	if s.Empty() {
		return false
	}
	if s.At(s.Size() - 1).Black {
		return true
	}
	return s.End() < s.video.Len() && s.video.Frames[s.End()].Black
}

// speedRatio returns the playback speed of b relative to a given matching
// frame counts on both sides.
func speedRatio(framesB int, deltaB float64, framesA int, deltaA float64) (float64, bool) {
	if framesA <= 0 || framesB <= 0 {
		return 0, false
	}
	speed := (float64(framesB) * deltaB) / (float64(framesA) * deltaA)
	if math.IsNaN(speed) || math.IsInf(speed, 0) || speed <= 0 {
		return 0, false
	}
	return speed, true
}
