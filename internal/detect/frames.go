package detect

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"digidub/internal/fileutil"
	"digidub/internal/media"
)

// FramesHeader is the first line of a frame-hash file.
const FramesHeader = "frames"

// ErrBadFramesFile reports a frame-hash file that cannot be decoded.
var ErrBadFramesFile = errors.New("invalid frames file")

// ReadFrames decodes a frame-hash file: a "frames" header line followed by
// "pts,hash" lines where hash is 16 hex digits. Blank lines are ignored and
// the result is sorted by pts.
func ReadFrames(r io.Reader) ([]media.FrameInfo, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read frames header: %w", err)
		}
		return nil, fmt.Errorf("%w: empty input", ErrBadFramesFile)
	}
	if strings.TrimSpace(scanner.Text()) != FramesHeader {
		return nil, fmt.Errorf("%w: missing %q header", ErrBadFramesFile, FramesHeader)
	}

	frames := []media.FrameInfo{}
	lineNo := 1
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ptsText, hashText, ok := strings.Cut(line, ",")
		if !ok {
			return nil, fmt.Errorf("%w: line %d: expected pts,hash", ErrBadFramesFile, lineNo)
		}
		pts, err := strconv.ParseInt(strings.TrimSpace(ptsText), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: pts: %v", ErrBadFramesFile, lineNo, err)
		}
		hash, err := strconv.ParseUint(strings.TrimSpace(hashText), 16, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: hash: %v", ErrBadFramesFile, lineNo, err)
		}
		frames = append(frames, media.FrameInfo{PTS: pts, PHash: hash})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read frames: %w", err)
	}
	slices.SortStableFunc(frames, func(a, b media.FrameInfo) int {
		switch {
		case a.PTS < b.PTS:
			return -1
		case a.PTS > b.PTS:
			return 1
		}
		return 0
	})
	return frames, nil
}

// WriteFrames encodes frames in the format read by ReadFrames.
func WriteFrames(w io.Writer, frames []media.FrameInfo) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(FramesHeader + "\n"); err != nil {
		return err
	}
	for _, f := range frames {
		if _, err := fmt.Fprintf(bw, "%d,%016x\n", f.PTS, f.PHash); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// LoadFramesFile reads a frame-hash file from disk.
func LoadFramesFile(path string) ([]media.FrameInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frames file: %w", err)
	}
	defer file.Close()
	frames, err := ReadFrames(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return frames, nil
}

// SaveFramesFile writes frames to path, replacing it atomically.
func SaveFramesFile(path string, frames []media.FrameInfo) error {
	if err := fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return WriteFrames(w, frames)
	}); err != nil {
		return fmt.Errorf("save frames file: %w", err)
	}
	return nil
}
