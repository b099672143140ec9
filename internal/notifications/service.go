package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"digidub/internal/config"
	"digidub/internal/media"
)

const userAgent = "digidub/0.1.0"

// MatchSummary describes a finished match run.
type MatchSummary struct {
	Title        string
	Matches      int
	MatchedRatio float64
	Elapsed      time.Duration
	ReportPath   string
}

// Service defines the notification surface exposed to commands.
type Service interface {
	NotifyMatchCompleted(ctx context.Context, summary MatchSummary) error
	NotifyError(ctx context.Context, err error, label string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether svc actually delivers messages.
func Enabled(svc Service) bool {
	_, noop := svc.(noopService)
	return svc != nil && !noop
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyMatchCompleted(ctx context.Context, summary MatchSummary) error {
	title := strings.TrimSpace(summary.Title)
	if title == "" {
		title = "Untitled"
	}
	var builder strings.Builder
	fmt.Fprintf(&builder, "%s: %d matches, %.1f%% of the primary covered", title, summary.Matches, summary.MatchedRatio*100)
	if summary.Elapsed > 0 {
		fmt.Fprintf(&builder, " in %s", media.FormatDuration(summary.Elapsed.Milliseconds()))
	}
	if path := strings.TrimSpace(summary.ReportPath); path != "" {
		fmt.Fprintf(&builder, "\nReport: %s", path)
	}

	data := payload{
		title:   "digidub - Match Completed",
		message: builder.String(),
		tags:    []string{"digidub", "match", "completed"},
	}
	if summary.Matches == 0 {
		data.title = "digidub - No Matches"
		data.tags = []string{"digidub", "match", "warning"}
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, label string) error {
	if err == nil {
		return nil
	}
	label = strings.TrimSpace(label)
	var builder strings.Builder
	builder.WriteString("Error")
	if label != "" {
		builder.WriteString(" during ")
		builder.WriteString(label)
	}
	builder.WriteString(": ")
	builder.WriteString(err.Error())

	data := payload{
		title:    "digidub - Error",
		message:  builder.String(),
		tags:     []string{"digidub", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "digidub - Test",
		message:  "Notification system test",
		tags:     []string{"digidub", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyMatchCompleted(context.Context, MatchSummary) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error          { return nil }
func (noopService) TestNotification(context.Context) error                    { return nil }
