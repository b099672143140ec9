package matchalgo

import (
	"math"
	"sort"

	"digidub/internal/media"
)

// markWindows applies mark to every frame whose timestamp falls inside one
// of the windows. Windows are half-open millisecond intervals.
func markWindows(v *Video, windows []media.TimeSegment, mark func(*Frame)) {
	for _, w := range windows {
		startSeconds := float64(w.Start) / 1000
		i := sort.Search(len(v.Frames), func(i int) bool { return v.Seconds(i) >= startSeconds })
		for ; i < len(v.Frames); i++ {
			if !w.Contains(int64(math.Round(v.Seconds(i) * 1000))) {
				break
			}
			mark(&v.Frames[i])
		}
	}
}

// MarkSilences flags frames inside silence windows.
func MarkSilences(v *Video, windows []media.TimeSegment) {
	markWindows(v, windows, func(f *Frame) { f.Silence = true })
}

// MarkBlackFrames flags frames inside black-frame windows.
func MarkBlackFrames(v *Video, windows []media.TimeSegment) {
	markWindows(v, windows, func(f *Frame) { f.Black = true })
}

// MarkExcluded flags frames the caller does not want matched.
func MarkExcluded(v *Video, windows []media.TimeSegment) {
	markWindows(v, windows, func(f *Frame) { f.Excluded = true })
}

// MarkSilenceBorders extends silence to the first and last frame when a
// silent frame exists within n frames of that end, so files do not start or
// finish with a sliver of non-silent segment.
func MarkSilenceBorders(v *Video, n int) {
	n = min(n, len(v.Frames))
	for i := 0; i < n; i++ {
		if v.Frames[i].Silence {
			for j := 0; j < i; j++ {
				v.Frames[j].Silence = true
			}
			break
		}
	}
	last := len(v.Frames) - 1
	for i := 0; i < n; i++ {
		if v.Frames[last-i].Silence {
			for j := 0; j < i; j++ {
				v.Frames[last-j].Silence = true
			}
			break
		}
	}
}

// MarkSceneChanges stores each event scoring at least threshold on the frame
// starting the new scene: the first frame at or after the event time, or its
// predecessor when the two timestamps do not coincide.
func MarkSceneChanges(v *Video, events []media.SceneChange, threshold float64) {
	for _, e := range events {
		if e.Score < threshold {
			continue
		}
		i := sort.Search(len(v.Frames), func(i int) bool { return v.Seconds(i) >= e.Time })
		if i == len(v.Frames) {
			continue
		}
		if !fuzzyEqual(v.Seconds(i), e.Time) && i > 0 {
			i--
		}
		v.Frames[i].SceneChange = true
		v.Frames[i].SceneScore = e.Score
	}
}

// MergeSmallScenes removes scene changes closer than minSize frames to the
// next one. Of two close scene changes the lower score is dropped, the
// earlier one on ties. A scene change closer than minSize to the catalog end
// is dropped.
func MergeSmallScenes(v *Video, minSize int) {
	frames := v.Frames
	nextScene := func(from int) int {
		if frames[from].SceneChange {
			from++
		}
		for from < len(frames) && !frames[from].SceneChange {
			from++
		}
		return from
	}

	i := 0
	for i < len(frames) {
		next := nextScene(i)
		if next-i >= minSize {
			i = next
			continue
		}
		if next == len(frames) {
			frames[i].clearSceneChange()
			break
		}
		if frames[i].SceneChange && frames[next].SceneScore < frames[i].SceneScore {
			frames[next].clearSceneChange()
		} else {
			frames[i].clearSceneChange()
			i = next
		}
	}
}

func fuzzyEqual(a, b float64) bool {
	return math.Abs(a-b)*1e12 <= math.Min(math.Abs(a), math.Abs(b))
}
