// Package text provides plain text output without any styling
package text

import (
	"fmt"
	"io"
	"strings"

	"github.com/arthur-debert/unfold/pkg/ui/display"
)

// Renderer provides plain text output without colors or styling
type Renderer struct {
	output io.Writer
}

// New creates a new text renderer
func New(output io.Writer) (*Renderer, error) {
	return &Renderer{output: output}, nil
}

// RenderResult renders any result type as plain text
func (r *Renderer) RenderResult(result interface{}) error {
	switch v := result.(type) {
	case *display.Report:
		return r.renderReport(v)
	case []display.FormatInfo:
		return r.renderFormats(v)
	default:
		_, err := fmt.Fprintf(r.output, "%+v\n", result)
		return err
	}
}

func (r *Renderer) renderReport(report *display.Report) error {
	for _, item := range report.Items {
		if _, err := fmt.Fprintln(r.output, Line(item)); err != nil {
			return err
		}
	}

	if len(report.Items) > 0 {
		if _, err := fmt.Fprintln(r.output); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(r.output, SummaryLine(report))
	return err
}

func (r *Renderer) renderFormats(formats []display.FormatInfo) error {
	for _, f := range formats {
		line := fmt.Sprintf("%-12s %s", f.Name, strings.Join(f.Extensions, " "))
		if f.Sniffable {
			line += " (detected by content)"
		}
		if _, err := fmt.Fprintln(r.output, line); err != nil {
			return err
		}
	}
	return nil
}

// Line formats one item as "<outcome> <handler> <input> -> <destination>"
func Line(item display.Item) string {
	handler := item.Handler
	if handler == "" {
		handler = "-"
	}

	line := fmt.Sprintf("%-11s %-12s %s", item.Outcome, handler, item.Input)
	if item.Destination != "" {
		line += " -> " + item.Destination
	}
	if item.Error != "" {
		line += ": " + item.Error
	}
	return line
}

// SummaryLine counts outcomes, e.g. "3 inputs: 1 expanded, 1 quarantined, 1 failed"
func SummaryLine(report *display.Report) string {
	s := report.Summary
	noun := "inputs"
	if s.Total == 1 {
		noun = "input"
	}
	line := fmt.Sprintf("%d %s: %d expanded, %d quarantined, %d failed",
		s.Total, noun, s.Expanded, s.Quarantined, s.Failed)
	if report.DryRun {
		line = "Dry run, nothing changed. " + line
	}
	return line
}

// RenderError renders an error as plain text
func (r *Renderer) RenderError(err error) error {
	_, err2 := fmt.Fprintf(r.output, "Error: %v\n", err)
	return err2
}

// RenderMessage renders a simple message
func (r *Renderer) RenderMessage(msg string) error {
	_, err := fmt.Fprintln(r.output, msg)
	return err
}
