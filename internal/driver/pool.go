package driver

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// runPool applies process to every path in paths across a bounded worker
// pool sized to the CPU count, and returns the results stably sorted by
// path so a run's report is reproducible regardless of
// scheduling order.
func runPool(ctx context.Context, paths []string, process func(ctx context.Context, path string) *FileResult) []*FileResult {
	results := make([]*FileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, path := range paths {
		g.Go(func() error {
			results[i] = process(gctx, path)
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(results, func(i, j int) bool {
		if results[i] == nil || results[j] == nil {
			return false
		}
		return results[i].Path < results[j].Path
	})
	return results
}
