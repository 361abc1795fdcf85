package expansion

import (
	"time"

	"github.com/arthur-debert/unfold/pkg/errors"
)

// Outcome is what happened to one input
type Outcome int

const (
	// Expanded inputs were extracted, flattened and deleted
	Expanded Outcome = iota
	// Quarantined inputs were moved, unchanged, to a copied-<stem> directory
	Quarantined
	// Failed inputs are left in place, or moved to the failure root when
	// failure evasion is enabled
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Expanded:
		return "expanded"
	case Quarantined:
		return "quarantined"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the outcome name in json and yaml output
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Result reports the processing of one input
type Result struct {
	Input   string
	Outcome Outcome
	// Reason is set for Failed results
	Reason error
	// Handler is the name of the handler that ran, empty if none was chosen
	Handler string
	// Destination is the umbrella for expanded inputs, the quarantined file
	// for quarantined inputs, and the evaded file for failed inputs that
	// were moved to the failure root
	Destination string
	// DryRun results describe what would have happened
	DryRun   bool
	Started  time.Time
	Duration time.Duration
}

// Code returns the error code of a failed result
func (r Result) Code() errors.ErrorCode {
	if r.Reason == nil {
		return ""
	}
	return errors.GetErrorCode(r.Reason)
}

// Summary counts results by outcome
type Summary struct {
	Expanded    int
	Quarantined int
	Failed      int
}

// Total is the number of results summarized
func (s Summary) Total() int {
	return s.Expanded + s.Quarantined + s.Failed
}

// Summarize counts results by outcome
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.Outcome {
		case Expanded:
			s.Expanded++
		case Quarantined:
			s.Quarantined++
		case Failed:
			s.Failed++
		}
	}
	return s
}
