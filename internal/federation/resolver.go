package federation

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"evalgo.org/featureinfo/internal/client"
	"evalgo.org/featureinfo/internal/domain"
	"evalgo.org/featureinfo/internal/helpers"
	"evalgo.org/featureinfo/internal/metrics"
)

// classQuery finds the asserted classes of an identifier
const classQuery = "SELECT DISTINCT ?class WHERE { " + helpers.PlaceholderIRI + " a ?class }"

// ClassResolver determines the semantic class of an identifier across graph stores.
type ClassResolver struct {
	fed *federator
}

// NewClassResolver creates a resolver querying each endpoint under timeout
func NewClassResolver(executor client.QueryExecutor, timeout time.Duration, collector *metrics.Collector, logger logrus.FieldLogger) *ClassResolver {
	return &ClassResolver{fed: &federator{executor: executor, timeout: timeout, metrics: collector, logger: logger}}
}

// Resolve asks every endpoint for the classes of identifier.
// When endpoints disagree the lexicographically smallest class wins, so the
// result does not depend on endpoint order or arrival order.
func (r *ClassResolver) Resolve(ctx context.Context, identifier string, endpoints []domain.Endpoint) domain.ResolutionResult {
	if len(endpoints) == 0 {
		return domain.ResolutionFailed("no graph-store endpoints available")
	}

	query := helpers.BindTemplate(classQuery, identifier, "")
	results := r.fed.query(ctx, endpoints, query)

	answered, lastErr := succeeded(results)
	if answered == 0 {
		reason := "no endpoint answered the class query"
		if lastErr != nil {
			reason = reason + ": " + lastErr.Error()
		}
		return domain.ResolutionFailed(reason)
	}

	var (
		best  string
		found bool
	)
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		for _, class := range res.Result.Column("class") {
			if class == "" {
				continue
			}
			if !found || class < best {
				best, found = class, true
			}
		}
	}

	if !found {
		return domain.NoMatch()
	}
	return domain.Matched(best)
}
