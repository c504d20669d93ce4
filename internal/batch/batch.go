// Package batch computes waveforms for many references with a bounded pool
// of workers.
package batch

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/satindergrewal/wavepeek/internal/waveform"
)

// Computer produces one waveform; *waveform.Extractor satisfies it.
type Computer interface {
	Compute(ctx context.Context, ref string, samples int) (waveform.Metadata, bool)
}

// Item is one line of batch output.
type Item struct {
	Src      string             `json:"src"`
	Waveform *waveform.Metadata `json:"waveform,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// OK reports whether a waveform was produced.
func (it Item) OK() bool { return it.Waveform != nil }

// Run computes every ref with at most workers in flight and returns the
// results in input order. References not started before ctx is cancelled
// are reported with the context error.
func Run(ctx context.Context, c Computer, refs []string, samples, workers int) []Item {
	if workers < 1 {
		workers = 1
	}
	items := make([]Item, len(refs))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, ref := range refs {
		g.Go(func() error {
			items[i] = Item{Src: ref}
			if err := ctx.Err(); err != nil {
				items[i].Error = err.Error()
				return nil
			}
			md, ok := c.Compute(ctx, ref, samples)
			if !ok {
				items[i].Error = "probe failed"
				return nil
			}
			items[i].Waveform = &md
			return nil
		})
	}
	_ = g.Wait()
	return items
}
