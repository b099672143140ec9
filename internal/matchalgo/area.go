package matchalgo

import "math/bits"

// HashDistance is the Hamming distance between two perceptual hashes.
func HashDistance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// AreaMatch is the best alignment of Pattern inside a search area.
type AreaMatch struct {
	Pattern Span
	Match   Span
	Score   float64
}

// FindBestMatchingArea slides pattern over searchArea and returns the
// alignment with the lowest mean hash distance, the first one on ties.
//
// A search area shorter than the pattern (or an empty pattern) cannot
// match: the result then has score MaxHashDistance and an empty match at the
// end of the search area.
func FindBestMatchingArea(pattern, searchArea Span) AreaMatch {
	result := AreaMatch{
		Pattern: pattern,
		Match:   NewSpan(searchArea.video, searchArea.End(), 0),
		Score:   MaxHashDistance,
	}
	if pattern.Size() == 0 || searchArea.Size() < pattern.Size() {
		return result
	}

	p := pattern.frames()
	area := searchArea.frames()
	best := float64(MaxHashDistance)
	for i := 0; i+len(p) <= len(area); i++ {
		acc := 0
		for j := range p {
			acc += HashDistance(p[j].Hash, area[i+j].Hash)
		}
		avg := float64(acc) / float64(len(p))
		if avg < best {
			best = avg
			result.Match = searchArea.Subspan(i, len(p))
			result.Score = avg
		}
	}
	return result
}

// likelySameScene reports whether the shorter span matches somewhere inside
// the longer one.
func likelySameScene(a, b Span, threshold float64) bool {
	if b.Size() < a.Size() {
		a, b = b, a
	}
	if a.Empty() {
		return false
	}
	return FindBestMatchingArea(a, b).Score <= threshold
}

// findBestPair returns the catalog indices of the closest frame pair across
// a and b, preferring pairs on the diagonal on ties. The pair is rejected
// when its distance exceeds threshold.
func findBestPair(a, b Span, threshold int) (int, int, bool) {
	bestD := MaxHashDistance + 1
	bestX, bestY := -1, -1
	for x := 0; x < a.Size(); x++ {
		for y := 0; y < b.Size(); y++ {
			d := HashDistance(a.At(x).Hash, b.At(y).Hash)
			if d < bestD || (d == bestD && abs(x-y) < abs(bestX-bestY)) {
				bestD, bestX, bestY = d, x, y
			}
		}
	}
	if bestX < 0 || bestD > threshold {
		return 0, 0, false
	}
	return a.Start() + bestX, b.Start() + bestY, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
