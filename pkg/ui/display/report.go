// Package display holds the view model shared by every renderer.
//
// Renderers never see expansion.Result directly: errors become strings and
// durations become milliseconds so the same value encodes cleanly as text,
// json or yaml.
package display

import (
	"time"

	"github.com/arthur-debert/unfold/pkg/expansion"
)

// Item is one processed input
type Item struct {
	Input       string `json:"input" yaml:"input"`
	Outcome     string `json:"outcome" yaml:"outcome"`
	Handler     string `json:"handler,omitempty" yaml:"handler,omitempty"`
	Destination string `json:"destination,omitempty" yaml:"destination,omitempty"`
	Code        string `json:"code,omitempty" yaml:"code,omitempty"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`
	DurationMS  int64  `json:"duration_ms" yaml:"duration_ms"`
}

// Summary counts items by outcome
type Summary struct {
	Total       int `json:"total" yaml:"total"`
	Expanded    int `json:"expanded" yaml:"expanded"`
	Quarantined int `json:"quarantined" yaml:"quarantined"`
	Failed      int `json:"failed" yaml:"failed"`
}

// Report is the rendered form of a batch
type Report struct {
	Command   string    `json:"command" yaml:"command"`
	DryRun    bool      `json:"dry_run" yaml:"dry_run"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Items     []Item    `json:"items" yaml:"items"`
	Summary   Summary   `json:"summary" yaml:"summary"`
}

// FromResults builds a Report from director results
func FromResults(command string, results []expansion.Result, dryRun bool) *Report {
	report := &Report{
		Command:   command,
		DryRun:    dryRun,
		Timestamp: time.Now(),
		Items:     make([]Item, 0, len(results)),
	}

	for _, r := range results {
		item := Item{
			Input:       r.Input,
			Outcome:     r.Outcome.String(),
			Handler:     r.Handler,
			Destination: r.Destination,
			DurationMS:  r.Duration.Milliseconds(),
		}
		if r.Reason != nil {
			item.Code = string(r.Code())
			item.Error = r.Reason.Error()
		}
		report.Items = append(report.Items, item)
	}

	s := expansion.Summarize(results)
	report.Summary = Summary{
		Total:       s.Total(),
		Expanded:    s.Expanded,
		Quarantined: s.Quarantined,
		Failed:      s.Failed,
	}

	return report
}

// HasFailures reports whether any item failed
func (r *Report) HasFailures() bool {
	return r.Summary.Failed > 0
}

// FormatInfo describes a registered archive format
type FormatInfo struct {
	Name       string   `json:"name" yaml:"name"`
	Extensions []string `json:"extensions" yaml:"extensions"`
	Sniffable  bool     `json:"sniffable" yaml:"sniffable"`
}
