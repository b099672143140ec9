package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"digidub/internal/config"
	"digidub/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if notifications.Enabled(svc) {
		t.Fatal("expected noop notifier without a topic")
	}
	if err := svc.NotifyMatchCompleted(context.Background(), notifications.MatchSummary{Title: "Example"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if notifications.Enabled(notifications.NewService(nil)) {
		t.Fatal("nil config must yield a noop notifier")
	}
}

type captured struct {
	title    string
	tags     string
	priority string
	agent    string
	body     string
}

func newCaptureServer(t *testing.T, status int) (*httptest.Server, *captured) {
	t.Helper()
	var got captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		got.title = r.Header.Get("Title")
		got.tags = r.Header.Get("Tags")
		got.priority = r.Header.Get("Priority")
		got.agent = r.Header.Get("User-Agent")
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		got.body = string(body)
		w.WriteHeader(status)
		if status >= 300 {
			_, _ = io.WriteString(w, "topic unavailable")
		}
	}))
	t.Cleanup(server.Close)
	return server, &got
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		send           func(notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "match completed",
			send: func(svc notifications.Service) error {
				return svc.NotifyMatchCompleted(context.Background(), notifications.MatchSummary{
					Title:        "Episode 01",
					Matches:      3,
					MatchedRatio: 0.975,
					Elapsed:      1500 * time.Millisecond,
					ReportPath:   "/tmp/ep01.json",
				})
			},
			expectTitle:   "digidub - Match Completed",
			expectMessage: "Episode 01: 3 matches, 97.5% of the primary covered in 0:01.500\nReport: /tmp/ep01.json",
			expectTags:    "digidub,match,completed",
		},
		{
			name: "no matches",
			send: func(svc notifications.Service) error {
				return svc.NotifyMatchCompleted(context.Background(), notifications.MatchSummary{Title: " "})
			},
			expectTitle:    "digidub - No Matches",
			expectMessage:  "Untitled: 0 matches, 0.0% of the primary covered",
			expectTags:     "digidub,match,warning",
			expectPriority: "high",
		},
		{
			name: "error",
			send: func(svc notifications.Service) error {
				return svc.NotifyError(context.Background(), errors.New("ffmpeg exited with status 1"), "match")
			},
			expectTitle:    "digidub - Error",
			expectMessage:  "Error during match: ffmpeg exited with status 1",
			expectTags:     "digidub,error,alert",
			expectPriority: "high",
		},
		{
			name:           "test",
			send:           func(svc notifications.Service) error { return svc.TestNotification(context.Background()) },
			expectTitle:    "digidub - Test",
			expectMessage:  "Notification system test",
			expectTags:     "digidub,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, got := newCaptureServer(t, http.StatusOK)

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeoutSeconds = 5

			svc := notifications.NewService(&cfg)
			if !notifications.Enabled(svc) {
				t.Fatal("expected ntfy notifier")
			}
			if err := tc.send(svc); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if got.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, got.title)
			}
			if got.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, got.body)
			}
			if got.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, got.tags)
			}
			if got.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, got.priority)
			}
			if got.agent == "" {
				t.Fatal("expected a user agent header")
			}
		})
	}
}

func TestNtfyServiceNilErrorIsSkipped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected call for nil error: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyError(context.Background(), nil, "match"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestNtfyServiceReportsHTTPFailure(t *testing.T) {
	server, _ := newCaptureServer(t, http.StatusServiceUnavailable)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)
	err := svc.TestNotification(context.Background())
	if err == nil {
		t.Fatal("expected error for 503 response")
	}
	if want := "ntfy returned 503: topic unavailable"; err.Error() != want {
		t.Fatalf("unexpected error %q, want %q", err, want)
	}
}
