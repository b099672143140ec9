package logs

import (
	"encoding/json"
	"log/slog"
	"strings"

	"digidub/internal/logging"
)

// Filter selects JSON log records. Zero fields match everything.
type Filter struct {
	RunID     string
	Component string
	// Level is the minimum level, as accepted by logging.ParseLevel.
	Level  string
	Search string
}

// Empty reports whether the filter accepts every line.
func (f Filter) Empty() bool {
	return strings.TrimSpace(f.RunID) == "" &&
		strings.TrimSpace(f.Component) == "" &&
		strings.TrimSpace(f.Level) == "" &&
		strings.TrimSpace(f.Search) == ""
}

// Matcher compiles the filter. It fails on an unknown level name.
func (f Filter) Matcher() (func(string) bool, error) {
	if f.Empty() {
		return func(string) bool { return true }, nil
	}
	minLevel := slog.LevelDebug
	if strings.TrimSpace(f.Level) != "" {
		lvl, err := logging.ParseLevel(f.Level)
		if err != nil {
			return nil, err
		}
		minLevel = lvl
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))

	return func(line string) bool {
		var rec struct {
			Level     string `json:"level"`
			RunID     string `json:"run_id"`
			Component string `json:"component"`
		}
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			// not a record written by the file handler
			return false
		}
		if f.RunID != "" && rec.RunID != f.RunID {
			return false
		}
		if f.Component != "" && rec.Component != f.Component {
			return false
		}
		if lvl, err := logging.ParseLevel(rec.Level); err == nil && lvl < minLevel {
			return false
		}
		return search == "" || strings.Contains(strings.ToLower(line), search)
	}, nil
}
