package expansion

import (
	"context"

	"github.com/arthur-debert/unfold/pkg/logging"
	"golang.org/x/sync/errgroup"
)

// ProcessAll processes a batch of inputs and returns one Result per input,
// in input order. A failed input never stops the rest; a canceled context
// marks every input not yet started as Failed.
func (d *Director) ProcessAll(ctx context.Context, inputs []string) []Result {
	done := logging.LogOperationStart(d.logger, "process batch")
	defer done()

	results := make([]Result, len(inputs))

	if !d.Concurrent() {
		for i, input := range inputs {
			results[i] = d.Process(ctx, input)
		}
		d.logSummary(results)
		return results
	}

	// Inputs that map to the same umbrella must never run at the same time,
	// so each group runs sequentially inside one worker.
	var g errgroup.Group
	g.SetLimit(d.opts.Workers)

	for _, group := range d.groupByUmbrella(inputs) {
		g.Go(func() error {
			for _, i := range group {
				results[i] = d.Process(ctx, inputs[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	d.logSummary(results)
	return results
}

// Concurrent reports whether batches are processed in parallel
func (d *Director) Concurrent() bool {
	return d.opts.PerArchiveUmbrella && d.opts.Workers > 1 && !d.opts.DryRun
}

// groupByUmbrella returns input indexes grouped by umbrella, groups ordered
// by first appearance
func (d *Director) groupByUmbrella(inputs []string) [][]int {
	index := make(map[string]int)
	var groups [][]int

	for i, input := range inputs {
		umbrella := d.umbrellaFor(input)
		g, ok := index[umbrella]
		if !ok {
			g = len(groups)
			index[umbrella] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}

	return groups
}

func (d *Director) logSummary(results []Result) {
	s := Summarize(results)
	d.logger.Info().
		Int("total", s.Total()).
		Int("expanded", s.Expanded).
		Int("quarantined", s.Quarantined).
		Int("failed", s.Failed).
		Msg("Batch complete")
}
