package preflight

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"digidub/internal/cache"
	"digidub/internal/config"
	"digidub/internal/deps"
	"digidub/internal/detect"
)

// requiredFilters are the ffmpeg filters the detectors build on.
var requiredFilters = []string{"silencedetect", "blackdetect", detect.SceneFilter}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckReadableFile verifies that path is a readable regular file.
func CheckReadableFile(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckInputs verifies every named input file and joins the failures.
func CheckInputs(inputs map[string]string) error {
	var errs []error
	for name, path := range inputs {
		if path == "" {
			continue
		}
		if r := CheckReadableFile(name, path); !r.Passed {
			errs = append(errs, fmt.Errorf("%s: %s", r.Name, r.Detail))
		}
	}
	return errors.Join(errs...)
}

// CheckCache opens the analysis cache, which also verifies its schema.
func CheckCache(ctx context.Context, dir string) Result {
	const name = "Analysis cache"

	store, err := cache.Open(dir)
	if err != nil {
		if errors.Is(err, cache.ErrSchemaMismatch) {
			return Result{Name: name, Detail: "schema out of date (run 'digidub cache clear --reset')"}
		}
		return Result{Name: name, Detail: err.Error()}
	}
	defer store.Close()

	entries, err := store.List(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("list entries: %v", err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d entries)", store.Path(), len(entries))}
}

// CheckSystemDeps evaluates the ffmpeg and ffprobe binaries for the given config.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	ffprobe := cfg.Detection.FFprobeBinary
	if ffprobe == "" {
		if resolved := deps.ResolveFFprobe(cfg.Detection.FFmpegBinary); resolved.Available {
			ffprobe = resolved.Command
		}
	}
	return deps.CheckBinaries(deps.MediaRequirements(cfg.Detection.FFmpegBinary, ffprobe))
}

// CheckFilters asks ffmpeg for its filter list and verifies the detectors'
// filters were compiled in. It uses a 10-second timeout.
func CheckFilters(ctx context.Context, ffmpeg string) Result {
	const name = "FFmpeg filters"

	if strings.TrimSpace(ffmpeg) == "" {
		return Result{Name: name, Detail: "ffmpeg not configured"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	out, err := exec.CommandContext(checkCtx, ffmpeg, "-hide_banner", "-filters").Output()
	if err != nil {
		if errors.Is(checkCtx.Err(), context.DeadlineExceeded) {
			return Result{Name: name, Detail: "ffmpeg -filters timed out"}
		}
		return Result{Name: name, Detail: fmt.Sprintf("ffmpeg -filters failed (%v)", err)}
	}

	available := parseFilterNames(out)
	var missing []string
	for _, f := range requiredFilters {
		if !available[f] {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return Result{Name: name, Detail: "missing " + strings.Join(missing, ", ")}
	}
	return Result{Name: name, Passed: true, Detail: strings.Join(requiredFilters, ", ")}
}

// parseFilterNames reads the second column of `ffmpeg -filters`, whose rows
// look like " ... silencedetect     A->A       Detect silence.".
func parseFilterNames(out []byte) map[string]bool {
	names := make(map[string]bool)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 || !strings.Contains(fields[2], "->") {
			continue
		}
		names[fields[1]] = true
	}
	return names
}
