// Package registry discovers the graph-store, virtual-mapper and relational
// endpoints of the stack and publishes them as immutable snapshots.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"evalgo.org/featureinfo/internal/client"
	"evalgo.org/featureinfo/internal/domain"
	"evalgo.org/featureinfo/internal/helpers"
)

// Options control discovery
type Options struct {
	RootNamespace string // defaults to "kb"
	MappingQuery  string // SPARQL run through the root namespace to find extra mapping endpoints
	DatabaseName  string
	Timeout       time.Duration // bounds one discovery pass; defaults to DefaultDiscoveryTimeout
}

// DiscoveryObserver is notified after every discovery pass
type DiscoveryObserver interface {
	ObserveDiscovery(err error, elapsed time.Duration)
}

// Registry owns the current endpoint snapshot.
type Registry struct {
	describer StackDescriber
	lister    NamespaceLister
	executor  client.QueryExecutor
	opts      Options
	logger    logrus.FieldLogger
	observer  DiscoveryObserver

	group   singleflight.Group
	current atomic.Pointer[Snapshot]

	mu      sync.RWMutex
	lastErr error
}

// New creates a registry. No discovery happens until Discover or Snapshot is called.
func New(describer StackDescriber, lister NamespaceLister, executor client.QueryExecutor, opts Options, logger logrus.FieldLogger) *Registry {
	if opts.RootNamespace == "" {
		opts.RootNamespace = helpers.DefaultRootNamespace
	}
	if opts.Timeout <= 0 {
		opts.Timeout = helpers.DefaultDiscoveryTimeout
	}
	return &Registry{
		describer: describer,
		lister:    lister,
		executor:  executor,
		opts:      opts,
		logger:    logger,
	}
}

// SetObserver registers a discovery observer
func (r *Registry) SetObserver(o DiscoveryObserver) {
	r.observer = o
}

// Discover runs one discovery pass and publishes its snapshot.
// Concurrent callers share the in-flight pass.
func (r *Registry) Discover(ctx context.Context) error {
	return r.run(ctx, false)
}

// run executes discovery through the single-flight group. A lazy run is a
// no-op when a snapshot was published while the caller waited.
// The pass is detached from the caller's cancellation and bounded by
// opts.Timeout, so a caller giving up only stops its own wait.
func (r *Registry) run(ctx context.Context, lazy bool) error {
	passCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan("discover", func() (any, error) {
		if snap := r.current.Load(); lazy && snap != nil {
			return snap, nil
		}

		ctx, cancel := context.WithTimeout(passCtx, r.opts.Timeout)
		defer cancel()

		start := time.Now()
		snap, err := r.discover(ctx)
		if r.observer != nil {
			r.observer.ObserveDiscovery(err, time.Since(start))
		}

		r.mu.Lock()
		r.lastErr = err
		r.mu.Unlock()

		if err != nil {
			return nil, err
		}
		r.current.Store(snap)
		return snap, nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			r.logger.Debug("Joined in-flight endpoint discovery")
		}
		return res.Err
	case <-ctx.Done():
		return fmt.Errorf("waiting for endpoint discovery: %w", ctx.Err())
	}
}

// Snapshot returns the current snapshot, discovering first if none exists.
func (r *Registry) Snapshot(ctx context.Context) (*Snapshot, error) {
	if snap := r.current.Load(); snap != nil {
		return snap, nil
	}
	if err := r.run(ctx, true); err != nil {
		return nil, err
	}
	if snap := r.current.Load(); snap != nil {
		return snap, nil
	}
	return nil, domain.NewDiscoveryError(domain.KindGraphStore, "no snapshot published", true, nil)
}

// Ready reports whether a snapshot has been published
func (r *Registry) Ready() bool {
	return r.current.Load() != nil
}

// LastError returns the error of the most recent discovery pass
func (r *Registry) LastError() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastErr
}

func (r *Registry) discover(ctx context.Context) (*Snapshot, error) {
	r.logger.Info("Discovering stack endpoints")

	service, err := r.describer.GraphStore(ctx)
	if err != nil {
		return nil, domain.NewDiscoveryError(domain.KindGraphStore, "graph-store service not described", true, err)
	}

	graphStores, err := r.lister.Namespaces(ctx, service)
	if err != nil {
		return nil, domain.NewDiscoveryError(domain.KindGraphStore, "could not list namespaces", true, err)
	}

	root, ok := findNamespace(graphStores, r.opts.RootNamespace)
	if !ok {
		return nil, domain.NewDiscoveryError(domain.KindGraphStore,
			fmt.Sprintf("root namespace %q not found", r.opts.RootNamespace), true, nil)
	}
	r.logger.WithField("url", root.URL).Info("Discovered root namespace endpoint")

	mappers := r.discoverMappers(ctx, root)
	relational := r.discoverRelational(ctx)

	snap := newSnapshot(root, graphStores, mappers, relational, time.Now().UTC())
	r.logger.WithFields(logrus.Fields{
		"graph_stores":      len(graphStores),
		"virtual_mappers":   len(mappers),
		"relational_stores": len(relational),
	}).Info("Endpoint discovery complete")

	return snap, nil
}

// discoverMappers collects the default mapping endpoint plus any advertised
// in the root namespace. Failures leave the kind empty.
func (r *Registry) discoverMappers(ctx context.Context, root domain.Endpoint) []domain.Endpoint {
	var mappers []domain.Endpoint
	seen := make(map[string]bool)
	add := func(ep domain.Endpoint) {
		if ep.URL == "" || seen[ep.URL] {
			return
		}
		seen[ep.URL] = true
		mappers = append(mappers, ep)
	}

	if cfg, err := r.describer.VirtualMapper(ctx); err != nil {
		r.logWarn(domain.NewDiscoveryError(domain.KindVirtualMapper, "default mapping endpoint not described", false, err))
	} else {
		add(cfg.endpoint("ontop", domain.KindVirtualMapper))
	}

	if r.opts.MappingQuery == "" || r.executor == nil {
		return mappers
	}

	result, err := r.executor.Execute(ctx, root, r.opts.MappingQuery)
	if err != nil {
		r.logWarn(domain.NewDiscoveryError(domain.KindVirtualMapper, "mapping endpoint query failed", false, err))
		return mappers
	}
	for _, row := range result.Rows() {
		term, ok := helpers.FindFieldFold("ontop_url", row)
		if !ok {
			continue
		}
		add(domain.NewEndpoint(fmt.Sprintf("ontop-%d", len(mappers)), term.Value, "", "", domain.KindVirtualMapper))
		r.logger.WithField("url", term.Value).Info("Discovered mapping endpoint from root namespace")
	}
	return mappers
}

func (r *Registry) discoverRelational(ctx context.Context) []domain.Endpoint {
	cfg, err := r.describer.RelationalStore(ctx, r.opts.DatabaseName)
	if err != nil {
		r.logWarn(domain.NewDiscoveryError(domain.KindRelationalStore, "relational store not described", false, err))
		return nil
	}
	if cfg.URL == "" {
		return nil
	}
	return []domain.Endpoint{cfg.endpoint("postgres", domain.KindRelationalStore)}
}

func (r *Registry) logWarn(err error) {
	var de *domain.DiscoveryError
	fields := logrus.Fields{}
	if errors.As(err, &de) {
		fields["kind"] = de.Kind
	}
	r.logger.WithFields(fields).WithError(err).Warn("Endpoint discovery degraded")
}

func findNamespace(endpoints []domain.Endpoint, name string) (domain.Endpoint, bool) {
	for _, ep := range endpoints {
		if ep.ID == name {
			return ep, true
		}
	}
	return domain.Endpoint{}, false
}
