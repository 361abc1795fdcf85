package display_test

import (
	"testing"
	"time"

	"github.com/arthur-debert/unfold/pkg/errors"
	"github.com/arthur-debert/unfold/pkg/expansion"
	"github.com/arthur-debert/unfold/pkg/ui/display"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromResults(t *testing.T) {
	results := []expansion.Result{
		{Input: "/in/a.zip", Outcome: expansion.Expanded, Handler: "zip", Destination: "/out", Duration: 1500 * time.Millisecond},
		{Input: "/in/b.exe", Outcome: expansion.Quarantined, Handler: "unrecognized", Destination: "/q/copied-b/b.exe"},
		{Input: "/in/c.zip", Outcome: expansion.Failed, Handler: "zip", Reason: errors.New(errors.ErrExtraction, "bad archive")},
	}

	report := display.FromResults("expand", results, true)

	assert.Equal(t, "expand", report.Command)
	assert.True(t, report.DryRun)
	require.Len(t, report.Items, 3)

	assert.Equal(t, display.Item{
		Input:       "/in/a.zip",
		Outcome:     "expanded",
		Handler:     "zip",
		Destination: "/out",
		DurationMS:  1500,
	}, report.Items[0])
	assert.Equal(t, "quarantined", report.Items[1].Outcome)
	assert.Equal(t, "EXTRACTION", report.Items[2].Code)
	assert.Equal(t, "[EXTRACTION] bad archive", report.Items[2].Error)

	assert.Equal(t, display.Summary{Total: 3, Expanded: 1, Quarantined: 1, Failed: 1}, report.Summary)
	assert.True(t, report.HasFailures())
}

func TestFromResultsEmpty(t *testing.T) {
	report := display.FromResults("expand", nil, false)
	assert.NotNil(t, report.Items)
	assert.Empty(t, report.Items)
	assert.False(t, report.HasFailures())
}
