package main

import (
	"bytes"
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"digidub/internal/config"
	"digidub/internal/detect"
	"digidub/internal/media"
	"digidub/internal/testsupport"
)

// fakeFFmpeg lists the detector filters for `-filters` and otherwise
// reports nothing detected. Every call is counted next to the script.
const fakeFFmpeg = `echo call >> "$(dirname "$0")/calls"
case "$*" in
  *-filters*)
    cat <<'OUT'
 ... silencedetect     A->A       Detect silence.
 ..C blackdetect       V->V       Detect video intervals that are (almost) black.
 ... scdet             V->V       Detect video scene change
OUT
    ;;
esac
exit 0`

// fakeFFprobe describes an 8 second, 25 fps video of 200 packets.
const fakeFFprobe = `cat <<'OUT'
{
  "streams": [{"index": 0, "codec_type": "video", "r_frame_rate": "25/1", "nb_read_packets": "200"}],
  "format": {"duration": "8.000000"}
}
OUT`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	binDir     string
	primary    string
	secondary  string
	framesA    string
	framesB    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t,
		testsupport.WithStubbedBinaries(map[string]string{"ffmpeg": fakeFFmpeg, "ffprobe": fakeFFprobe}),
		testsupport.WithMetricsFile(filepath.Join("metrics", "digidub.prom")),
	)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	hashes := randomHashes(7, 200)
	env := &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
		binDir:     filepath.Join(base, "bin"),
		primary:    testsupport.WriteFile(t, filepath.Join(base, "media", "show.en.mkv"), "video"),
		secondary:  testsupport.WriteFile(t, filepath.Join(base, "media", "show.fr.mkv"), "video"),
		framesA:    writeFrames(t, filepath.Join(base, "media", "show.en.frames"), hashes),
		framesB:    writeFrames(t, filepath.Join(base, "media", "show.fr.frames"), hashes),
	}
	return env
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := execute(context.Background(), append([]string{"--config", e.configPath}, args...), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func (e *cliTestEnv) ffmpegCalls(t *testing.T) int {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(e.binDir, "calls"))
	if os.IsNotExist(err) {
		return 0
	}
	if err != nil {
		t.Fatalf("read calls: %v", err)
	}
	return strings.Count(string(data), "call")
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func randomHashes(seed uint64, n int) []uint64 {
	r := rand.New(rand.NewPCG(seed, seed*0x9e3779b97f4a7c15+1))
	out := make([]uint64, n)
	for i := range out {
		out[i] = r.Uint64()
	}
	return out
}

func writeFrames(t *testing.T, path string, hashes []uint64) string {
	t.Helper()
	frames := make([]media.FrameInfo, len(hashes))
	for i, h := range hashes {
		frames[i] = media.FrameInfo{PTS: int64(i), PHash: h}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir frames dir: %v", err)
	}
	if err := detect.SaveFramesFile(path, frames); err != nil {
		t.Fatalf("write frames: %v", err)
	}
	return path
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q to contain %q", haystack, needle)
	}
}
