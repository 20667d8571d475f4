package bugzilla

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gyaneshwarpardhi/trackstats/internal/metrics"
	"github.com/gyaneshwarpardhi/trackstats/internal/tracker"
)

type historyResponse struct {
	// Pointer so an absent key can be told apart from an empty list.
	Bugs *[]struct {
		ID      int                   `json:"id"`
		History []tracker.ChangeEvent `json:"history"`
	} `json:"bugs"`
}

// History returns the ordered change log of bug id.
//
// A response without the top-level "bugs" key is a known transient hiccup of
// the Bugzilla API: the request is repeated after the retry delay, up to the
// configured number of attempts, after which *tracker.RetryExhaustedError is
// returned. Status errors are returned immediately.
func (c *Client) History(ctx context.Context, id int) (tracker.History, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		events, err := c.fetchHistory(ctx, id)
		if err == nil {
			metrics.HistoriesFetched.Inc()
			return tracker.History{EntityID: id, Events: events, Retries: attempt - 1}, nil
		}
		if !errors.Is(err, tracker.ErrMalformedPayload) {
			metrics.HistoryFailures.WithLabelValues("fatal").Inc()
			return tracker.History{}, err
		}
		lastErr = err
		if attempt == c.maxAttempts {
			break
		}
		metrics.HistoryRetries.Inc()
		slog.Warn("bad history response, retrying", "bug_id", id, "attempt", attempt, "delay", c.retryDelay)
		if err := sleep(ctx, c.retryDelay); err != nil {
			return tracker.History{}, err
		}
	}
	metrics.HistoryFailures.WithLabelValues("retry_exhausted").Inc()
	return tracker.History{}, &tracker.RetryExhaustedError{EntityID: id, Attempts: c.maxAttempts, Last: lastErr}
}

func (c *Client) fetchHistory(ctx context.Context, id int) ([]tracker.ChangeEvent, error) {
	var resp historyResponse
	if err := c.api.GetJSON(ctx, fmt.Sprintf("/bug/%d/history", id), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Bugs == nil {
		return nil, fmt.Errorf("bug %d history: %w: no bugs key", id, tracker.ErrMalformedPayload)
	}
	if len(*resp.Bugs) == 0 {
		// Not retried: the id came from search, an empty list will not fix itself.
		return nil, fmt.Errorf("bug %d history: empty bugs list", id)
	}
	return (*resp.Bugs)[0].History, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
