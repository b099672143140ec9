package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"digidub/internal/dub"
	"digidub/internal/fileutil"
	"digidub/internal/media"
)

// matchReport is the file written by `digidub match --output` and read
// back by `digidub dub`.
type matchReport struct {
	RunID           string             `json:"run_id"`
	Primary         string             `json:"primary"`
	Secondary       string             `json:"secondary"`
	PrimaryDuration int64              `json:"primary_duration_ms"`
	Matches         []media.VideoMatch `json:"matches"`
}

// dubPlan is the output of `digidub dub`.
type dubPlan struct {
	Primary   string              `json:"primary,omitempty"`
	Secondary string              `json:"secondary,omitempty"`
	Duration  int64               `json:"duration_ms"`
	Segments  []dub.OutputSegment `json:"segments"`
}

func readMatchReport(path string) (*matchReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read match report: %w", err)
	}
	var report matchReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decode match report %s: %w", path, err)
	}
	if report.Matches == nil {
		report.Matches = []media.VideoMatch{}
	}
	return &report, nil
}

// writeJSONFile writes v as indented JSON, replacing path atomically.
func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		_, err := w.Write(append(data, '\n'))
		return err
	})
}

func matchRows(matches []media.VideoMatch) [][]string {
	rows := make([][]string, 0, len(matches))
	for i, m := range matches {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			m.A.String(),
			m.B.String(),
			media.FormatDuration(m.A.Duration()),
			fmt.Sprintf("%.4f", speedOf(m)),
		})
	}
	return rows
}

// speedOf is the secondary/primary duration ratio of a match.
func speedOf(m media.VideoMatch) float64 {
	if m.A.Duration() <= 0 {
		return 1
	}
	return float64(m.B.Duration()) / float64(m.A.Duration())
}

func segmentRows(segments []dub.OutputSegment) [][]string {
	rows := make([][]string, 0, len(segments))
	for i, s := range segments {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			s.Output.String(),
			s.SourceID.String(),
			s.Source.String(),
			fmt.Sprintf("%.4f", s.Stretch()),
		})
	}
	return rows
}
