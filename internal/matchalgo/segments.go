package matchalgo

// Segment is a unit of independent matching. Excluded segments are carried
// so the output still tiles the range but are never matched.
type Segment struct {
	Span     Span
	Excluded bool
}

// ExtractSegments cuts frames into ordered, contiguous segments covering the
// whole span. Runs of excluded frames become their own segments; the rest is
// cut by extractRun.
func ExtractSegments(frames Span) []Segment {
	var result []Segment
	i := 0
	for i < frames.Size() {
		excluded := frames.At(i).Excluded
		j := i + 1
		for j < frames.Size() && frames.At(j).Excluded == excluded {
			j++
		}
		run := frames.Subspan(i, j-i)
		if excluded {
			result = append(result, Segment{Span: run, Excluded: true})
		} else {
			for _, s := range extractRun(run) {
				result = append(result, Segment{Span: s})
			}
		}
		i = j
	}
	return result
}

// extractRun cuts at silence. A segment ends where the next silence starts,
// unless no scene change or black frame follows before that silence ends; in
// that case the silence is absorbed and the search moves to the next one.
func extractRun(frames Span) []Span {
	var result []Span
	i := 0
	for i < frames.Size() {
		end := findSegmentEnd(frames, i)
		result = append(result, frames.Subspan(i, end-i))
		i = end
	}
	return result
}

func findSegmentEnd(frames Span, start int) int {
	end := findNextSilence(frames, start)
	for end != frames.Size() {
		sc := findNextSceneFrame(frames, end)
		bf := findNextBlackFrame(frames, end)
		silenceEnd := findSilenceEnd(frames, end)
		if min(sc, bf) <= silenceEnd {
			if sc <= silenceEnd {
				return sc
			}
			return bf
		}
		end = findNextSilence(frames, end)
	}
	return end
}

func findSilenceEnd(frames Span, i int) int {
	for i < frames.Size() && frames.At(i).Silence {
		i++
	}
	return i
}

func findNextSilence(frames Span, from int) int {
	i := findSilenceEnd(frames, from)
	for i < frames.Size() && !frames.At(i).Silence {
		i++
	}
	return i
}

func findNextBlackFrame(frames Span, from int) int {
	i := from + 1
	for i < frames.Size() && !frames.At(i).Black {
		i++
	}
	return min(i, frames.Size())
}

func findNextSceneFrame(frames Span, from int) int {
	i := from + 1
	for i < frames.Size() && !frames.At(i).SceneChange {
		i++
	}
	return min(i, frames.Size())
}

// SplitAtSceneChanges splits span into scenes, each starting at a scene
// change except possibly the first.
func SplitAtSceneChanges(span Span) []Span {
	var result []Span
	i := 0
	for i < span.Size() {
		j := findNextSceneFrame(span, i)
		result = append(result, span.Subspan(i, j-i))
		i = j
	}
	return result
}
