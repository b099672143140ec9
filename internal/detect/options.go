package detect

import "strconv"

// SceneFilter is the scdet filter graph. Its defaults are used unchanged.
const SceneFilter = "scdet"

// SilenceOptions configures ffmpeg's silencedetect filter.
type SilenceOptions struct {
	NoiseDB     float64
	MinDuration float64
}

// DefaultSilenceOptions matches the detection defaults.
func DefaultSilenceOptions() SilenceOptions {
	return SilenceOptions{NoiseDB: -35, MinDuration: 0.4}
}

// Filter renders the filter graph, e.g. silencedetect=n=-35dB:d=0.4. The
// string doubles as the cache parameter key.
func (o SilenceOptions) Filter() string {
	return "silencedetect=n=" + formatNumber(o.NoiseDB) + "dB:d=" + formatNumber(o.MinDuration)
}

// BlackOptions configures ffmpeg's blackdetect filter.
type BlackOptions struct {
	MinDuration    float64
	PixelThreshold float64
}

// DefaultBlackOptions matches the detection defaults.
func DefaultBlackOptions() BlackOptions {
	return BlackOptions{MinDuration: 0.4, PixelThreshold: 0.05}
}

// Filter renders the filter graph, e.g. blackdetect=d=0.4:pix_th=0.05.
func (o BlackOptions) Filter() string {
	return "blackdetect=d=" + formatNumber(o.MinDuration) + ":pix_th=" + formatNumber(o.PixelThreshold)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
