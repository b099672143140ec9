package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
)

type ntfyRecorder struct {
	mu       sync.Mutex
	titles   []string
	messages []string
}

func (r *ntfyRecorder) serve(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		r.mu.Lock()
		r.titles = append(r.titles, req.Header.Get("Title"))
		r.messages = append(r.messages, string(body))
		r.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server
}

func (r *ntfyRecorder) snapshot() ([]string, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.titles...), append([]string(nil), r.messages...)
}

func enableNotifications(t *testing.T, env *cliTestEnv) *ntfyRecorder {
	t.Helper()
	rec := &ntfyRecorder{}
	server := rec.serve(t)
	env.cfg.Notifications.NtfyTopic = server.URL
	env.cfg.Notifications.RequestTimeoutSeconds = 5
	writeTestConfig(t, env.configPath, env.cfg)
	return rec
}

func TestMatchSendsCompletionNotification(t *testing.T) {
	env := setupCLITestEnv(t)
	rec := enableNotifications(t, env)
	reportPath := filepath.Join(env.baseDir, "out", "report.json")

	if _, _, err := env.run(t, "match", env.primary, env.secondary,
		"--frames-a", env.framesA, "--frames-b", env.framesB, "--output", reportPath); err != nil {
		t.Fatalf("match: %v", err)
	}
	titles, messages := rec.snapshot()
	if len(titles) != 1 || titles[0] != "digidub - Match Completed" {
		t.Fatalf("unexpected notifications %q", titles)
	}
	requireContains(t, messages[0], "1 matches, 100.0% of the primary covered")
	requireContains(t, messages[0], "Report: "+reportPath)
}

func TestMatchFailureSendsErrorNotification(t *testing.T) {
	env := setupCLITestEnv(t)
	rec := enableNotifications(t, env)

	missing := filepath.Join(env.baseDir, "media", "missing.mkv")
	if _, _, err := env.run(t, "match", missing, env.secondary); err == nil {
		t.Fatal("expected match to fail for a missing primary")
	}
	titles, messages := rec.snapshot()
	if len(titles) != 1 || titles[0] != "digidub - Error" {
		t.Fatalf("unexpected notifications %q", titles)
	}
	requireContains(t, messages[0], "Error during match: ")
	requireContains(t, messages[0], "missing.mkv")
}

func TestTestNotifyCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "test-notify")
	if err != nil {
		t.Fatalf("test-notify without topic: %v", err)
	}
	requireContains(t, out, "Notifications disabled")

	rec := enableNotifications(t, env)
	out, _, err = env.run(t, "test-notify")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Test notification sent")
	if titles, _ := rec.snapshot(); len(titles) != 1 || titles[0] != "digidub - Test" {
		t.Fatalf("unexpected notifications %q", titles)
	}
}
