package federation

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"evalgo.org/featureinfo/internal/client"
	"evalgo.org/featureinfo/internal/config"
	"evalgo.org/featureinfo/internal/domain"
	"evalgo.org/featureinfo/internal/helpers"
	"evalgo.org/featureinfo/internal/metrics"
	"evalgo.org/featureinfo/internal/registry"
)

// Descriptions returned to callers. Error details are only logged.
const (
	DescriptionBadInput       = "Request is missing an 'iri' parameter or it is not a valid IRI."
	DescriptionNoEndpoints    = "Could not determine the available endpoints."
	DescriptionNoClass        = "Could not determine any classes for the input feature IRI."
	DescriptionResolveFailed  = "Could not determine the class of the input feature IRI."
	DescriptionNotConfigured  = "No configuration entry exists for the class of the input feature IRI."
	DescriptionFetchFailed    = "Could not retrieve metadata or time-series data for the input feature IRI."
	DescriptionUnavailable    = "Could not initialise the service."
	WarningMetadataDegraded   = "metadata could not be retrieved"
	WarningTimeseriesDegraded = "time-series data could not be retrieved"
	WarningOverrideIgnored    = "endpoint parameter is not a namespace SPARQL URL and was ignored"
)

// Registry is the part of the endpoint registry the service depends on.
type Registry interface {
	Snapshot(ctx context.Context) (*registry.Snapshot, error)
	Discover(ctx context.Context) error
	Ready() bool
	LastError() error
}

// Options tune the service
type Options struct {
	EndpointTimeout time.Duration
	RequestTimeout  time.Duration
}

// Service handles feature info requests. It is built once at startup and
// shared by all request handlers.
type Service struct {
	registry   Registry
	cfg        *config.Config
	resolver   *ClassResolver
	metadata   *MetadataAggregator
	timeseries *TimeseriesAggregator
	opts       Options
	metrics    *metrics.Collector
	logger     logrus.FieldLogger
}

// NewService wires the pipeline stages around a registry and a loaded configuration.
func NewService(reg Registry, cfg *config.Config, executor client.QueryExecutor, stores StoreSource, opts Options, collector *metrics.Collector, logger logrus.FieldLogger) *Service {
	return &Service{
		registry:   reg,
		cfg:        cfg,
		resolver:   NewClassResolver(executor, opts.EndpointTimeout, collector, logger),
		metadata:   NewMetadataAggregator(executor, opts.EndpointTimeout, collector, logger),
		timeseries: NewTimeseriesAggregator(executor, stores, opts.EndpointTimeout, collector, logger),
		opts:       opts,
		metrics:    collector,
		logger:     logger,
	}
}

// Handle runs one request through class resolution and the metadata and
// time-series stages.
func (s *Service) Handle(ctx context.Context, req domain.Request) domain.Outcome {
	outcome := s.handle(ctx, req)
	s.metrics.ObserveRequest(outcome.Code())
	return outcome
}

func (s *Service) handle(ctx context.Context, req domain.Request) domain.Outcome {
	log := s.logger.WithField("iri", req.Identifier)

	if err := helpers.ValidateIRI("iri", req.Identifier); err != nil {
		log.WithError(err).Info("Rejected request")
		return fail(domain.OutcomeBadInput, DescriptionBadInput)
	}

	if s.cfg == nil || s.cfg.Templates.Len() == 0 {
		log.Error("Request received without a loaded query configuration")
		return fail(domain.OutcomeFailed, DescriptionUnavailable)
	}

	if s.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RequestTimeout)
		defer cancel()
	}

	snap, err := s.registry.Snapshot(ctx)
	if err != nil {
		log.WithError(err).Error("Could not acquire endpoint snapshot")
		return fail(domain.OutcomeFailed, DescriptionNoEndpoints)
	}

	var warnings []string
	if req.EndpointOverride != "" {
		ep, err := snap.ParseOverride(req.EndpointOverride)
		if err != nil {
			log.WithField("endpoint", req.EndpointOverride).Warn("Ignoring endpoint override")
			warnings = append(warnings, WarningOverrideIgnored)
		} else {
			snap = snap.WithOverride(ep)
			log = log.WithField("namespace", ep.ID)
		}
	}

	resolution := s.resolver.Resolve(ctx, req.Identifier, snap.Endpoints(domain.KindGraphStore))
	switch resolution.State {
	case domain.ResolutionError:
		log.WithField("reason", resolution.Reason).Error("Class resolution failed")
		return fail(domain.OutcomeFailed, DescriptionResolveFailed)
	case domain.ResolutionNoMatch:
		log.Info("No class found")
		return fail(domain.OutcomeNoClassFound, DescriptionNoClass)
	}

	class := resolution.Class
	log = log.WithField("class", class)

	templates := s.cfg.Templates
	if _, ok := templates.Lookup(class); !ok {
		log.WithError(domain.NewNotConfiguredError(class)).Error("Class has no query templates")
		outcome := fail(domain.OutcomeConfigInvalid, DescriptionNotConfigured)
		outcome.Class = class
		return outcome
	}

	var (
		meta    domain.MetadataRecord
		metaErr error
		ts      *domain.TimeseriesResult
		tsErr   error
	)
	var g errgroup.Group
	g.Go(func() error {
		meta, metaErr = s.metadata.Fetch(ctx, req.Identifier, class, templates, snap)
		return nil
	})
	g.Go(func() error {
		ts, tsErr = s.timeseries.Fetch(ctx, req.Identifier, class, templates, snap, s.cfg.Hours())
		return nil
	})
	_ = g.Wait()

	tsUnavailable := errors.Is(tsErr, domain.ErrTimeseriesUnavailable)
	if metaErr != nil {
		log.WithError(metaErr).Warn("Metadata stage failed")
	}
	if tsErr != nil && !tsUnavailable {
		log.WithError(tsErr).Warn("Time-series stage failed")
	}
	if tsUnavailable {
		log.Debug("No relational store discovered, omitting time-series data")
	}

	if metaErr != nil && tsErr != nil {
		outcome := fail(domain.OutcomeFailed, DescriptionFetchFailed)
		outcome.Class = class
		return outcome
	}

	outcome := domain.Outcome{
		Kind:     domain.OutcomeSuccess,
		Class:    class,
		Meta:     meta,
		Warnings: warnings,
	}
	if outcome.Meta == nil {
		outcome.Meta = domain.MetadataRecord{}
	}
	if metaErr != nil {
		outcome.Warnings = append(outcome.Warnings, WarningMetadataDegraded)
	}
	switch {
	case tsErr == nil:
		outcome.Time = ts.Merged
		outcome.HasTime = true
	case !tsUnavailable:
		outcome.Warnings = append(outcome.Warnings, WarningTimeseriesDegraded)
	}

	log.WithFields(logrus.Fields{
		"groups":   len(outcome.Meta),
		"samples":  len(outcome.Time),
		"degraded": len(outcome.Warnings),
	}).Info("Request complete")

	return outcome
}

// Status reports whether the service can serve requests.
func (s *Service) Status(ctx context.Context) error {
	if s.cfg == nil || s.cfg.Templates.Len() == 0 {
		return domain.NewConfigError("", "no query templates loaded", nil)
	}
	snap, err := s.registry.Snapshot(ctx)
	if err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"discovered_at": snap.DiscoveredAt(),
		"endpoints":     snap.Counts(),
	}).Debug("Service ready")
	return nil
}

// Refresh re-runs endpoint discovery.
func (s *Service) Refresh(ctx context.Context) error {
	return s.registry.Discover(ctx)
}

func fail(kind domain.OutcomeKind, description string) domain.Outcome {
	return domain.Outcome{Kind: kind, Description: description}
}
