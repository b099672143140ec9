package cache

import (
	"fmt"
	"strconv"
	"strings"

	"digidub/internal/media"
)

// Detector payloads are "a,b" lines in seconds. strconv round-trips +Inf,
// which marks a window left open at the end of the file.

func encodeIntervals(windows []media.Interval) string {
	var b strings.Builder
	for _, w := range windows {
		b.WriteString(formatFloat(w.Start))
		b.WriteByte(',')
		b.WriteString(formatFloat(w.End))
		b.WriteByte('\n')
	}
	return b.String()
}

func decodeIntervals(payload string) ([]media.Interval, error) {
	windows := []media.Interval{}
	err := eachPair(payload, func(a, b float64) {
		windows = append(windows, media.Interval{Start: a, End: b})
	})
	return windows, err
}

func encodeSceneChanges(changes []media.SceneChange) string {
	var b strings.Builder
	for _, c := range changes {
		b.WriteString(formatFloat(c.Time))
		b.WriteByte(',')
		b.WriteString(formatFloat(c.Score))
		b.WriteByte('\n')
	}
	return b.String()
}

func decodeSceneChanges(payload string) ([]media.SceneChange, error) {
	changes := []media.SceneChange{}
	err := eachPair(payload, func(a, b float64) {
		changes = append(changes, media.SceneChange{Time: a, Score: b})
	})
	return changes, err
}

func eachPair(payload string, fn func(a, b float64)) error {
	for i, line := range strings.Split(payload, "\n") {
		if line == "" {
			continue
		}
		left, right, ok := strings.Cut(line, ",")
		if !ok {
			return fmt.Errorf("line %d: missing comma", i+1)
		}
		a, err := strconv.ParseFloat(left, 64)
		if err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
		b, err := strconv.ParseFloat(right, 64)
		if err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
		fn(a, b)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
