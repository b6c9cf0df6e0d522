package invertor

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/pofr/core"
)

// BatchItem is one data set of a batch.
type BatchItem struct {
	Name        string
	Measurement *core.Measurement
	Config      core.Config
}

// BatchResult is the outcome of one BatchItem. Err is set when the item
// failed; the other items are unaffected.
type BatchResult struct {
	Name        string
	Solution    *core.Solution
	Diagnostics core.Diagnostics
	Err         error
}

// RunBatch solves every item on its own Invertor, at most workers at a time
// (workers < 1 means one per item). Results are returned in item order.
// Only ctx cancellation fails the batch as a whole.
func RunBatch(ctx context.Context, items []BatchItem, workers int, opts ...Option) ([]BatchResult, error) {
	results := make([]BatchResult, len(items))
	if workers < 1 {
		workers = len(items)
	}
	if workers < 1 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range items {
		i := i
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = runItem(gctx, items[i], opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

func runItem(ctx context.Context, item BatchItem, opts []Option) BatchResult {
	res := BatchResult{Name: item.Name}
	inv := New(opts...)
	if err := inv.Configure(item.Measurement, item.Config); err != nil {
		res.Err = err
		return res
	}
	sol, err := inv.Solve(ctx)
	if err != nil {
		res.Err = err
		return res
	}
	res.Solution = sol
	res.Diagnostics, res.Err = inv.Diagnostics()

	return res
}
