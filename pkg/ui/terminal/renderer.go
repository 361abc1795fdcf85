// Package terminal provides rich terminal output with colors and styling
package terminal

import (
	"fmt"
	"io"
	"strings"

	"github.com/arthur-debert/unfold/pkg/errors"
	"github.com/arthur-debert/unfold/pkg/ui/display"
	"github.com/arthur-debert/unfold/pkg/ui/text"
	"github.com/charmbracelet/lipgloss"
	"github.com/pterm/pterm"
)

// Adaptive colors follow the terminal's light or dark background
var (
	colorSuccess = lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#81C784"}
	colorWarning = lipgloss.AdaptiveColor{Light: "#B26A00", Dark: "#FFD54F"}
	colorError   = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#E57373"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#757575", Dark: "#9E9E9E"}
)

// Renderer provides rich terminal output
type Renderer struct {
	output io.Writer
	styles styles
}

type styles struct {
	outcome map[string]lipgloss.Style
	handler lipgloss.Style
	input   lipgloss.Style
	muted   lipgloss.Style
	header  lipgloss.Style
}

// New creates a new terminal renderer
func New(w io.Writer) (*Renderer, error) {
	lg := lipgloss.NewRenderer(w)

	return &Renderer{
		output: w,
		styles: styles{
			outcome: map[string]lipgloss.Style{
				"expanded":    lg.NewStyle().Foreground(colorSuccess).Bold(true).Width(12),
				"quarantined": lg.NewStyle().Foreground(colorWarning).Bold(true).Width(12),
				"failed":      lg.NewStyle().Foreground(colorError).Bold(true).Width(12),
			},
			handler: lg.NewStyle().Foreground(colorMuted).Width(13),
			input:   lg.NewStyle().Bold(true),
			muted:   lg.NewStyle().Foreground(colorMuted),
			header:  lg.NewStyle().Bold(true).MarginTop(1),
		},
	}, nil
}

// RenderResult renders any result type with rich terminal formatting
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
	var b strings.Builder

	for _, item := range report.Items {
		style, ok := r.styles.outcome[item.Outcome]
		if !ok {
			style = r.styles.muted
		}
		handler := item.Handler
		if handler == "" {
			handler = "-"
		}

		b.WriteString(style.Render(item.Outcome))
		b.WriteString(r.styles.handler.Render(handler))
		b.WriteString(r.styles.input.Render(item.Input))
		if item.Destination != "" {
			b.WriteString(r.styles.muted.Render(" → " + item.Destination))
		}
		b.WriteString("\n")
		if item.Error != "" {
			b.WriteString("  ")
			b.WriteString(pterm.Error.MessageStyle.Sprint(item.Error))
			b.WriteString("\n")
		}
	}

	b.WriteString(r.styles.header.Render(text.SummaryLine(report)))
	b.WriteString("\n")

	_, err := io.WriteString(r.output, b.String())
	return err
}

func (r *Renderer) renderFormats(formats []display.FormatInfo) error {
	for _, f := range formats {
		line := r.styles.input.Render(fmt.Sprintf("%-12s", f.Name)) + " " + strings.Join(f.Extensions, " ")
		if f.Sniffable {
			line += r.styles.muted.Render(" (detected by content)")
		}
		if _, err := fmt.Fprintln(r.output, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderError renders an error with its code when it has one
func (r *Renderer) RenderError(err error) error {
	msg := err.Error()
	if code := errors.GetErrorCode(err); code != errors.ErrUnknown {
		msg = fmt.Sprintf("%s %s", pterm.Error.MessageStyle.Sprint(string(code)), err.Error())
	}
	_, werr := fmt.Fprintf(r.output, "%s %s\n", pterm.Error.Prefix.Text, msg)
	return werr
}

// RenderMessage renders a simple message
func (r *Renderer) RenderMessage(msg string) error {
	_, err := fmt.Fprintf(r.output, "%s %s\n", pterm.Info.Prefix.Text, pterm.Info.MessageStyle.Sprint(msg))
	return err
}
