// Package federation fans queries out across discovered endpoints and merges
// their answers into one feature info outcome.
package federation

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"evalgo.org/featureinfo/internal/client"
	"evalgo.org/featureinfo/internal/domain"
	"evalgo.org/featureinfo/internal/metrics"
)

// endpointResult is the answer of one endpoint, kept in endpoint order
type endpointResult struct {
	Endpoint domain.Endpoint
	Result   *client.ResultSet
	Err      error
}

// federator runs one query against many endpoints concurrently, each under its own timeout.
type federator struct {
	executor client.QueryExecutor
	timeout  time.Duration
	metrics  *metrics.Collector
	logger   logrus.FieldLogger
}

// query returns one result per endpoint in the order of endpoints.
// It waits for every endpoint; a failing endpoint only affects its own slot.
func (f *federator) query(ctx context.Context, endpoints []domain.Endpoint, query string) []endpointResult {
	results := make([]endpointResult, len(endpoints))

	var g errgroup.Group
	for i, ep := range endpoints {
		g.Go(func() error {
			epCtx, cancel := f.endpointContext(ctx)
			defer cancel()

			start := time.Now()
			rs, err := f.executor.Execute(epCtx, ep, query)
			f.metrics.ObserveQuery(ep.Kind, err, time.Since(start))

			if err == nil && rs == nil {
				rs = &client.ResultSet{}
			}
			if err != nil {
				f.logger.WithFields(logrus.Fields{
					"endpoint": ep.ID,
					"kind":     ep.Kind,
				}).WithError(err).Warn("Endpoint query failed")
			}
			results[i] = endpointResult{Endpoint: ep, Result: rs, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (f *federator) endpointContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, f.timeout)
}

// succeeded returns the number of endpoints that answered and the last failure
func succeeded(results []endpointResult) (int, error) {
	ok := 0
	var lastErr error
	for _, r := range results {
		if r.Err != nil {
			lastErr = r.Err
			continue
		}
		ok++
	}
	return ok, lastErr
}
