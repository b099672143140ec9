package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"digidub/internal/testsupport"
)

const fakeFilters = `cat <<'OUT'
Filters:
  T.. = Timeline support
 ... silencedetect     A->A       Detect silence.
 ..C blackdetect       V->V       Detect video intervals that are (almost) black.
 ... scdet             V->V       Detect video scene change
OUT
`

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckInputs(t *testing.T) {
	dir := t.TempDir()
	video := testsupport.WriteFile(t, filepath.Join(dir, "a.mkv"), "x")

	if err := CheckInputs(map[string]string{"primary": video, "frames": ""}); err != nil {
		t.Fatalf("expected readable inputs to pass, got %v", err)
	}
	err := CheckInputs(map[string]string{"primary": video, "secondary": filepath.Join(dir, "b.mkv")})
	if err == nil || !strings.Contains(err.Error(), "secondary") {
		t.Fatalf("expected secondary failure, got %v", err)
	}
	if err := CheckInputs(map[string]string{"secondary": dir}); err == nil {
		t.Fatal("expected directory input to fail")
	}
}

func TestCheckCache(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	result := CheckCache(context.Background(), cfg.Paths.CacheDir)
	if !result.Passed {
		t.Fatalf("expected cache check to pass, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "0 entries") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckFilters(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries(map[string]string{"ffmpeg": fakeFilters}))
	result := CheckFilters(context.Background(), cfg.Detection.FFmpegBinary)
	if !result.Passed {
		t.Fatalf("expected filters to be found, got: %s", result.Detail)
	}

	partial := testsupport.WriteScript(t, t.TempDir(), "ffmpeg", "echo ' ... silencedetect A->A Detect silence.'")
	result = CheckFilters(context.Background(), partial)
	if result.Passed {
		t.Fatal("expected missing filters to fail")
	}
	if !strings.Contains(result.Detail, "blackdetect") || !strings.Contains(result.Detail, "scdet") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_StubbedConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries(map[string]string{
		"ffmpeg":  fakeFilters,
		"ffprobe": "exit 0",
	}), testsupport.WithMetricsFile("metrics/digidub.prom"))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Metrics.TextfilePath), 0o755); err != nil {
		t.Fatalf("mkdir metrics: %v", err)
	}

	results := RunAll(context.Background(), cfg)
	if Failed(results) {
		for _, r := range results {
			if !r.Passed {
				t.Errorf("check %q failed: %s", r.Name, r.Detail)
			}
		}
		t.FailNow()
	}
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}
	joined := strings.Join(names, ",")
	for _, want := range []string{"Cache directory", "Log directory", "Metrics directory", "Analysis cache", "FFmpeg", "FFprobe", "FFmpeg filters"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q check in %s", want, joined)
		}
	}
}
