package engine

import (
	"context"

	"github.com/gyaneshwarpardhi/trackstats/internal/metrics"
	"github.com/gyaneshwarpardhi/trackstats/internal/tracker"
)

// DefaultFetchWorkers bounds concurrent history fetches when no limit is given.
const DefaultFetchWorkers = 8

// HistorySource fetches one entity's change history.
type HistorySource interface {
	History(ctx context.Context, id int) (tracker.History, error)
}

// FetchResult is the outcome of fetching one id. Exactly one of History and
// Err is meaningful.
type FetchResult struct {
	ID      int
	History tracker.History
	Err     error
}

// Dispatch fetches the history of every distinct id with at most workers
// concurrent calls to src. Results arrive in completion order; the channel is
// closed after the last one and callers must drain it. A failed fetch does
// not stop the others.
func Dispatch(ctx context.Context, src HistorySource, ids []int, workers int) <-chan FetchResult {
	unique := dedupe(ids)
	if workers <= 0 {
		workers = DefaultFetchWorkers
	}
	if workers > len(unique) {
		workers = max(len(unique), 1)
	}

	pool := newWorkerPool(ctx, workers, max(len(unique), 1), func(ctx context.Context, id int) (tracker.History, error) {
		metrics.DispatchInFlight.Inc()
		defer metrics.DispatchInFlight.Dec()
		return src.History(ctx, id)
	})
	// The queue holds every id, so Submit never reports full.
	for _, id := range unique {
		pool.Submit(id)
	}
	pool.Close()

	out := make(chan FetchResult)
	go func() {
		defer close(out)
		for r := range pool.Results() {
			out <- FetchResult{ID: r.payload, History: r.result, Err: r.err}
		}
	}()
	return out
}

func dedupe(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
