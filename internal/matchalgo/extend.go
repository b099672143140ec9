package matchalgo

import "digidub/internal/logging"

// extendMatch grows an accepted scene match through scenes[from:], one scene
// at a time. Each scene is searched right after the previous match, in a
// window padded with slack to absorb dropped or duplicated frames, and never
// past searchEnd. The chain stops at the first scene that fails to match.
//
// It returns the index of the first unmatched scene and the match of the
// last accepted one.
func (m *matcher) extendMatch(start AreaMatch, scenes []Span, from int, searchEnd int) (int, Span) {
	prevPattern, prevMatch := start.Pattern, start.Match
	b := prevMatch.Video()

	i := from
	for ; i < len(scenes); i++ {
		cur := scenes[i]

		ideal := NewSpan(b, prevMatch.End(), cur.Size())
		prevSlack := m.params.slack(prevPattern.Size())
		first := ideal.Start() - min(prevSlack, ideal.Start())
		count := ideal.Size() + 2*prevSlack + m.params.slack(cur.Size())
		if first+count > searchEnd {
			count = searchEnd - first
		}
		area := NewSpan(b, first, count)
		if area.Size() < cur.Size() {
			break
		}

		found := FindBestMatchingArea(cur, area)
		if found.Score > m.params.AreaMatchThreshold {
			break
		}

		if found.Match.Start() != prevMatch.End() {
			found.Match = m.correctDrift(prevPattern, prevMatch, cur, found.Match)
		}

		prevPattern, prevMatch = cur, found.Match
	}
	return i, prevMatch
}

// correctDrift re-matches the tail of the previous scene together with the
// head of the current one against the union of their matches. A scene
// matched on its own can slide by a few frames; anchoring it to its
// predecessor keeps the chain contiguous.
func (m *matcher) correctDrift(prevPattern, prevMatch, cur, proposed Span) Span {
	area := Merge(prevMatch, proposed)
	if proposed.Start() < prevMatch.End() {
		overlap := prevMatch.End() - proposed.Start()
		area = area.WidenLeft(overlap).Grow(overlap)
	}

	var pattern Span
	fromPrev, removed := 0, 0
	if cur.Size() >= prevPattern.Size() {
		removed = cur.Size() - prevPattern.Size()
		pattern = Merge(prevPattern, cur.Shrink(removed))
		fromPrev = prevPattern.Size()
	} else {
		tail := prevPattern.TrimLeft(prevPattern.Size() - cur.Size())
		fromPrev = tail.Size()
		pattern = Merge(tail, cur)
	}

	refined := FindBestMatchingArea(pattern, area)
	corrected := refined.Match.TrimLeft(fromPrev).Grow(removed)
	if corrected.Size() != proposed.Size() || corrected.Start() == proposed.Start() {
		return proposed
	}
	m.logger.Debug("scene match corrected",
		logging.String("from", proposed.String()),
		logging.String("to", corrected.String()),
	)
	return corrected
}
