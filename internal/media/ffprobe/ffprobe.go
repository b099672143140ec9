package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"digidub/internal/media"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index         int    `json:"index"`
	CodecName     string `json:"codec_name"`
	CodecType     string `json:"codec_type"`
	Duration      string `json:"duration"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	SampleRate    string `json:"sample_rate"`
	Channels      int    `json:"channels"`
	RFrameRate    string `json:"r_frame_rate"`
	AvgFrameRate  string `json:"avg_frame_rate"`
	NBReadPackets string `json:"nb_read_packets"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-count_packets", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return Result{}, fmt.Errorf("ffprobe inspect: %w", err)
	}
	return Parse(output)
}

// Parse decodes an ffprobe JSON payload.
func Parse(payload []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// VideoStream returns the first video stream.
func (r Result) VideoStream() (Stream, bool) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			return stream, true
		}
	}
	return Stream{}, false
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			count++
		}
	}
	return count
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

// DurationMillis returns the container duration rounded to milliseconds.
func (r Result) DurationMillis() int64 {
	seconds := r.DurationSeconds()
	if math.IsNaN(seconds) || seconds < 0 {
		return 0
	}
	return int64(math.Round(seconds * 1000))
}

// FrameRate returns the real base frame rate of the first video stream.
func (r Result) FrameRate() (media.Rational, error) {
	stream, ok := r.VideoStream()
	if !ok {
		return media.Rational{}, errors.New("ffprobe: no video stream")
	}
	rate, err := media.ParseRational(stream.RFrameRate)
	if err != nil {
		return media.Rational{}, err
	}
	if !rate.Valid() {
		return media.Rational{}, fmt.Errorf("ffprobe: bad r_frame_rate %q", stream.RFrameRate)
	}
	return rate, nil
}

// VideoPackets returns the packet count of the first video stream, or 0
// when ffprobe did not report it.
func (r Result) VideoPackets() int64 {
	stream, ok := r.VideoStream()
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(strings.TrimSpace(stream.NBReadPackets), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Describe converts the inspection into a media.Source skeleton with no
// detector results attached.
func (r Result) Describe(path string) (*media.Source, error) {
	rate, err := r.FrameRate()
	if err != nil {
		return nil, err
	}
	return &media.Source{
		Path:      path,
		Duration:  r.DurationMillis(),
		FrameRate: rate,
		Packets:   r.VideoPackets(),
	}, nil
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
