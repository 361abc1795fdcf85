package ui_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/arthur-debert/unfold/pkg/errors"
	"github.com/arthur-debert/unfold/pkg/ui"
	"github.com/arthur-debert/unfold/pkg/ui/display"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleReport() *display.Report {
	return &display.Report{
		Command:   "expand",
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Items: []display.Item{
			{Input: "/in/games.zip", Outcome: "expanded", Handler: "zip", Destination: "/out"},
			{Input: "/in/setup.exe", Outcome: "quarantined", Handler: "unrecognized", Destination: "/q/copied-setup/setup.exe"},
			{Input: "/in/broken.zip", Outcome: "failed", Handler: "zip", Code: "EXTRACTION", Error: "[EXTRACTION] bad archive"},
		},
		Summary: display.Summary{Total: 3, Expanded: 1, Quarantined: 1, Failed: 1},
	}
}

func TestNewRenderer(t *testing.T) {
	tests := []struct {
		name        string
		format      ui.Format
		expectError bool
	}{
		{name: "create terminal renderer", format: ui.FormatTerminal},
		{name: "create text renderer", format: ui.FormatText},
		{name: "create json renderer", format: ui.FormatJSON},
		{name: "create yaml renderer", format: ui.FormatYAML},
		{name: "create auto renderer with buffer", format: ui.FormatAuto},
		{name: "invalid format", format: ui.Format(999), expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			renderer, err := ui.NewRenderer(tt.format, buf)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, renderer)
				assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, renderer)
			}
		})
	}
}

func TestRendererInterface(t *testing.T) {
	formats := []ui.Format{
		ui.FormatTerminal,
		ui.FormatText,
		ui.FormatJSON,
		ui.FormatYAML,
	}

	for _, format := range formats {
		t.Run(format.String()+" renderer implements interface", func(t *testing.T) {
			buf := &bytes.Buffer{}
			renderer, err := ui.NewRenderer(format, buf)
			require.NoError(t, err)

			assert.NoError(t, renderer.RenderMessage("test message"))
			assert.NoError(t, renderer.RenderError(assert.AnError))
			assert.NoError(t, renderer.RenderResult(sampleReport()))
			assert.NoError(t, renderer.RenderResult([]display.FormatInfo{{Name: "zip", Extensions: []string{".zip"}}}))
			assert.NoError(t, renderer.RenderResult(map[string]string{"test": "data"}))
			assert.NotEmpty(t, buf.String())
		})
	}
}

func TestJSONRenderer(t *testing.T) {
	buf := &bytes.Buffer{}
	renderer, err := ui.NewRenderer(ui.FormatJSON, buf)
	require.NoError(t, err)

	t.Run("render message", func(t *testing.T) {
		buf.Reset()
		require.NoError(t, renderer.RenderMessage("hello world"))

		var result map[string]string
		require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
		assert.Equal(t, "hello world", result["message"])
	})

	t.Run("render coded error", func(t *testing.T) {
		buf.Reset()
		require.NoError(t, renderer.RenderError(errors.New(errors.ErrConfigValid, "bad roots")))

		var result map[string]string
		require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
		assert.Equal(t, "CONFIG_INVALID", result["code"])
		assert.Equal(t, "[CONFIG_INVALID] bad roots", result["error"])
	})

	t.Run("render plain error", func(t *testing.T) {
		buf.Reset()
		require.NoError(t, renderer.RenderError(assert.AnError))

		var result map[string]string
		require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
		assert.Equal(t, assert.AnError.Error(), result["error"])
		assert.NotContains(t, result, "code")
	})

	t.Run("render report", func(t *testing.T) {
		buf.Reset()
		require.NoError(t, renderer.RenderResult(sampleReport()))

		var result display.Report
		require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
		assert.Equal(t, "expand", result.Command)
		require.Len(t, result.Items, 3)
		assert.Equal(t, "failed", result.Items[2].Outcome)
		assert.Equal(t, "EXTRACTION", result.Items[2].Code)
		assert.Equal(t, 1, result.Summary.Failed)
	})
}

func TestYAMLRenderer(t *testing.T) {
	buf := &bytes.Buffer{}
	renderer, err := ui.NewRenderer(ui.FormatYAML, buf)
	require.NoError(t, err)

	require.NoError(t, renderer.RenderResult(sampleReport()))

	var result display.Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, "expand", result.Command)
	require.Len(t, result.Items, 3)
	assert.Equal(t, "/q/copied-setup/setup.exe", result.Items[1].Destination)
	assert.Equal(t, 3, result.Summary.Total)
	assert.Contains(t, buf.String(), "dry_run: false")
}

func TestTextRenderer(t *testing.T) {
	buf := &bytes.Buffer{}
	renderer, err := ui.NewRenderer(ui.FormatText, buf)
	require.NoError(t, err)

	t.Run("render message", func(t *testing.T) {
		buf.Reset()
		require.NoError(t, renderer.RenderMessage("hello world"))
		assert.Equal(t, "hello world\n", buf.String())
	})

	t.Run("render error", func(t *testing.T) {
		buf.Reset()
		require.NoError(t, renderer.RenderError(assert.AnError))
		assert.Equal(t, "Error: assert.AnError general error for testing\n", buf.String())
	})

	t.Run("render report", func(t *testing.T) {
		buf.Reset()
		require.NoError(t, renderer.RenderResult(sampleReport()))

		expected := "" +
			"expanded    zip          /in/games.zip -> /out\n" +
			"quarantined unrecognized /in/setup.exe -> /q/copied-setup/setup.exe\n" +
			"failed      zip          /in/broken.zip: [EXTRACTION] bad archive\n" +
			"\n" +
			"3 inputs: 1 expanded, 1 quarantined, 1 failed\n"
		assert.Equal(t, expected, buf.String())
	})

	t.Run("render dry run report", func(t *testing.T) {
		buf.Reset()
		report := &display.Report{DryRun: true, Summary: display.Summary{Total: 1, Expanded: 1}, Items: []display.Item{
			{Input: "/in/a.zip", Outcome: "expanded", Handler: "zip", Destination: "/out/a"},
		}}
		require.NoError(t, renderer.RenderResult(report))
		assert.Contains(t, buf.String(), "Dry run, nothing changed. 1 input: 1 expanded")
	})

	t.Run("render formats", func(t *testing.T) {
		buf.Reset()
		require.NoError(t, renderer.RenderResult([]display.FormatInfo{
			{Name: "zip", Extensions: []string{".zip"}, Sniffable: true},
		}))
		assert.Equal(t, "zip          .zip (detected by content)\n", buf.String())
	})

	t.Run("render unknown result type", func(t *testing.T) {
		buf.Reset()
		require.NoError(t, renderer.RenderResult(map[string]string{"foo": "bar"}))
		assert.Contains(t, buf.String(), "map[foo:bar]")
	})
}

func TestTerminalRenderer(t *testing.T) {
	buf := &bytes.Buffer{}
	renderer, err := ui.NewRenderer(ui.FormatTerminal, buf)
	require.NoError(t, err)

	t.Run("render message", func(t *testing.T) {
		buf.Reset()
		require.NoError(t, renderer.RenderMessage("hello world"))
		assert.Contains(t, buf.String(), "hello world")
	})

	t.Run("render error", func(t *testing.T) {
		buf.Reset()
		require.NoError(t, renderer.RenderError(errors.New(errors.ErrNotFound, "no such inbox")))
		assert.Contains(t, buf.String(), "NOT_FOUND")
		assert.Contains(t, buf.String(), "no such inbox")
	})

	t.Run("render report", func(t *testing.T) {
		buf.Reset()
		require.NoError(t, renderer.RenderResult(sampleReport()))
		out := buf.String()
		assert.Contains(t, out, "/in/games.zip")
		assert.Contains(t, out, "quarantined")
		assert.Contains(t, out, "[EXTRACTION] bad archive")
		assert.Contains(t, out, "3 inputs: 1 expanded, 1 quarantined, 1 failed")
	})
}
