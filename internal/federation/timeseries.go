package federation

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"evalgo.org/featureinfo/internal/client"
	"evalgo.org/featureinfo/internal/config"
	"evalgo.org/featureinfo/internal/domain"
	"evalgo.org/featureinfo/internal/helpers"
	"evalgo.org/featureinfo/internal/metrics"
	"evalgo.org/featureinfo/internal/registry"
	"evalgo.org/featureinfo/internal/timeseries"
)

// StoreSource leases the time-series store of a relational endpoint.
// release must be called once the reads are done.
type StoreSource interface {
	Acquire(ep domain.Endpoint) (store timeseries.Store, release func(), err error)
}

// stream is one measurement discovered through the time-series template
type stream struct {
	id   string
	unit string
}

// TimeseriesAggregator discovers the streams of an identifier and reads their
// recent samples from the relational store.
type TimeseriesAggregator struct {
	fed     *federator
	stores  StoreSource
	metrics *metrics.Collector
	now     func() time.Time
}

func NewTimeseriesAggregator(executor client.QueryExecutor, stores StoreSource, timeout time.Duration, collector *metrics.Collector, logger logrus.FieldLogger) *TimeseriesAggregator {
	return &TimeseriesAggregator{
		fed:     &federator{executor: executor, timeout: timeout, metrics: collector, logger: logger},
		stores:  stores,
		metrics: collector,
		now:     time.Now,
	}
}

// Fetch returns the samples of every stream of identifier within the last
// lookbackHours. It returns domain.ErrTimeseriesUnavailable when no relational
// store has been discovered.
func (a *TimeseriesAggregator) Fetch(ctx context.Context, identifier, class string, templates *config.TemplateSet, snap *registry.Snapshot, lookbackHours int) (*domain.TimeseriesResult, error) {
	relational := snap.Endpoints(domain.KindRelationalStore)
	if len(relational) == 0 {
		return nil, domain.ErrTimeseriesUnavailable
	}

	tpl, ok := templates.Lookup(class)
	if !ok {
		return nil, domain.NewNotConfiguredError(class)
	}
	if strings.TrimSpace(tpl.TimeseriesQuery) == "" {
		return emptyTimeseries(), nil
	}

	streams, err := a.discoverStreams(ctx, identifier, tpl, snap)
	if err != nil {
		return nil, err
	}
	if len(streams) == 0 {
		return emptyTimeseries(), nil
	}

	store, release, err := a.stores.Acquire(relational[0])
	if err != nil {
		var storeErr *domain.TimeseriesStoreError
		if errors.As(err, &storeErr) {
			return nil, err
		}
		return nil, domain.NewTimeseriesStoreError("", err)
	}
	defer release()

	to := a.now().UTC()
	from := to.Add(-time.Duration(lookbackHours) * time.Hour)

	records := make([]domain.TimeseriesRecord, len(streams))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range streams {
		g.Go(func() error {
			samples, err := store.Samples(gctx, s.id, from, to)
			a.metrics.ObserveStoreRead(err)
			if err != nil {
				return err
			}
			records[i] = domain.TimeseriesRecord{StreamID: s.id, Unit: s.unit, Samples: samples}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &domain.TimeseriesResult{Streams: records, Merged: mergeSamples(records)}, nil
}

// discoverStreams runs the time-series template and returns the distinct
// streams in first-seen order.
func (a *TimeseriesAggregator) discoverStreams(ctx context.Context, identifier string, tpl config.Template, snap *registry.Snapshot) ([]stream, error) {
	endpoints, mappingURL := queryTargets(snap, tpl.Virtual)
	if len(endpoints) == 0 {
		return nil, domain.NewQueryError("", "no endpoints available for stream discovery", nil)
	}

	query := helpers.BindTemplate(tpl.TimeseriesQuery, identifier, mappingURL)
	results := a.fed.query(ctx, endpoints, query)

	answered, lastErr := succeeded(results)
	if answered == 0 {
		return nil, domain.NewQueryError("", "no endpoint answered the stream query", lastErr)
	}

	var streams []stream
	index := make(map[string]int)
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		for _, row := range res.Result.Rows() {
			id := firstBinding(row, helpers.StreamVariables)
			if id == "" {
				continue
			}
			unit := firstBinding(row, helpers.UnitVariables)
			if i, seen := index[id]; seen {
				if streams[i].unit == "" {
					streams[i].unit = unit
				}
				continue
			}
			index[id] = len(streams)
			streams = append(streams, stream{id: id, unit: unit})
		}
	}
	return streams, nil
}

func firstBinding(row map[string]client.Term, names []string) string {
	for _, name := range names {
		if term, ok := helpers.FindFieldFold(name, row); ok && term.Value != "" {
			return term.Value
		}
	}
	return ""
}

// mergeSamples interleaves all samples by time. The sort is stable, so equal
// timestamps keep stream discovery order.
func mergeSamples(records []domain.TimeseriesRecord) []domain.TaggedSample {
	total := 0
	for _, r := range records {
		total += len(r.Samples)
	}

	merged := make([]domain.TaggedSample, 0, total)
	for _, r := range records {
		for _, s := range r.Samples {
			merged = append(merged, domain.TaggedSample{
				Time:     s.Time,
				Value:    s.Value,
				StreamID: r.StreamID,
				Unit:     r.Unit,
			})
		}
	}

	slices.SortStableFunc(merged, func(x, y domain.TaggedSample) int {
		return x.Time.Compare(y.Time)
	})
	return merged
}

func emptyTimeseries() *domain.TimeseriesResult {
	return &domain.TimeseriesResult{
		Streams: []domain.TimeseriesRecord{},
		Merged:  []domain.TaggedSample{},
	}
}
