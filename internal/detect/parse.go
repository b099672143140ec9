package detect

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"digidub/internal/media"
)

var (
	silenceStartRe = regexp.MustCompile(`silence_start:\s*(-?[0-9]+(?:\.[0-9]*)?(?:e[-+]?[0-9]+)?)`)
	silenceEndRe   = regexp.MustCompile(`silence_end:\s*(-?[0-9]+(?:\.[0-9]*)?(?:e[-+]?[0-9]+)?)`)
	blackRe        = regexp.MustCompile(`black_start:\s*([0-9.]+)\s+black_end:\s*([0-9.]+)`)
	sceneRe        = regexp.MustCompile(`lavfi\.scd\.score:\s*([0-9.]+),\s*lavfi\.scd\.time:\s*([0-9.]+)`)
)

// ParseSilences reads silencedetect output. A silence still open when the
// output ends runs to the end of the file and is reported with End=+Inf.
// Negative starts, which ffmpeg emits for leading silence, are clamped to 0.
func ParseSilences(r io.Reader) ([]media.Interval, error) {
	silences := []media.Interval{}
	open := false
	var start float64
	err := scanLines(r, "silencedetect", func(line string) error {
		if m := silenceStartRe.FindStringSubmatch(line); m != nil {
			v, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return fmt.Errorf("silence_start %q: %w", m[1], err)
			}
			start = max(v, 0)
			open = true
			return nil
		}
		if m := silenceEndRe.FindStringSubmatch(line); m != nil && open {
			end, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return fmt.Errorf("silence_end %q: %w", m[1], err)
			}
			silences = append(silences, media.Interval{Start: start, End: end})
			open = false
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if open {
		silences = append(silences, media.Interval{Start: start, End: math.Inf(1)})
	}
	return silences, nil
}

// ParseBlackFrames reads blackdetect output lines of the form
// "black_start:12.5 black_end:13.1 black_duration:0.6".
func ParseBlackFrames(r io.Reader) ([]media.Interval, error) {
	windows := []media.Interval{}
	err := scanLines(r, "blackdetect", func(line string) error {
		m := blackRe.FindStringSubmatch(line)
		if m == nil {
			return nil
		}
		start, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return fmt.Errorf("black_start %q: %w", m[1], err)
		}
		end, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return fmt.Errorf("black_end %q: %w", m[2], err)
		}
		windows = append(windows, media.Interval{Start: start, End: end})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return windows, nil
}

// ParseSceneChanges reads scdet output lines of the form
// "lavfi.scd.score: 10.525, lavfi.scd.time: 45.167".
func ParseSceneChanges(r io.Reader) ([]media.SceneChange, error) {
	changes := []media.SceneChange{}
	err := scanLines(r, "scdet", func(line string) error {
		m := sceneRe.FindStringSubmatch(line)
		if m == nil {
			return nil
		}
		score, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return fmt.Errorf("lavfi.scd.score %q: %w", m[1], err)
		}
		at, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return fmt.Errorf("lavfi.scd.time %q: %w", m[2], err)
		}
		changes = append(changes, media.SceneChange{Time: at, Score: score})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return changes, nil
}

// scanLines feeds fn every line mentioning the filter tag.
func scanLines(r io.Reader, filter string, fn func(string) error) error {
	tag := "[" + filter + " @"
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, tag) {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s output: %w", filter, err)
	}
	return nil
}
