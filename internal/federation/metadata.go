package federation

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"evalgo.org/featureinfo/internal/client"
	"evalgo.org/featureinfo/internal/config"
	"evalgo.org/featureinfo/internal/domain"
	"evalgo.org/featureinfo/internal/helpers"
	"evalgo.org/featureinfo/internal/metrics"
	"evalgo.org/featureinfo/internal/registry"
)

// MetadataAggregator runs a class's metadata template across endpoints and merges the answers.
type MetadataAggregator struct {
	fed *federator
}

func NewMetadataAggregator(executor client.QueryExecutor, timeout time.Duration, collector *metrics.Collector, logger logrus.FieldLogger) *MetadataAggregator {
	return &MetadataAggregator{fed: &federator{executor: executor, timeout: timeout, metrics: collector, logger: logger}}
}

// pair is one property/value contribution, used for cross-endpoint dedupe
type pair struct {
	name, value string
}

// Fetch returns the metadata of identifier for class.
// Zero groups is a valid result; an error is returned only when no endpoint answered.
func (a *MetadataAggregator) Fetch(ctx context.Context, identifier, class string, templates *config.TemplateSet, snap *registry.Snapshot) (domain.MetadataRecord, error) {
	tpl, ok := templates.Lookup(class)
	if !ok {
		return nil, domain.NewNotConfiguredError(class)
	}

	endpoints, mappingURL := queryTargets(snap, tpl.Virtual)
	if len(endpoints) == 0 {
		return nil, domain.NewQueryError("", "no endpoints available for metadata", nil)
	}

	query := helpers.BindTemplate(tpl.MetadataQuery, identifier, mappingURL)
	results := a.fed.query(ctx, endpoints, query)

	answered, lastErr := succeeded(results)
	if answered == 0 {
		return nil, domain.NewQueryError("", "no endpoint answered the metadata query", lastErr)
	}

	record := domain.MetadataRecord{}
	owner := make(map[pair]int)

	for i, res := range results {
		if res.Err != nil {
			continue
		}
		for _, group := range normaliseGroups(res.Result) {
			var kept domain.PropertyGroup
			for _, p := range group.Properties {
				for _, v := range p.Values {
					key := pair{p.Name, v}
					if first, seen := owner[key]; seen && first != i {
						continue
					}
					owner[key] = i
					kept.Add(p.Name, v)
				}
			}
			if kept.Len() > 0 {
				record = append(record, kept)
			}
		}
	}

	return record, nil
}

// queryTargets returns the graph stores, plus the mapping endpoints for virtual
// classes, and the mapping URL bound into templates.
func queryTargets(snap *registry.Snapshot, virtual bool) ([]domain.Endpoint, string) {
	endpoints := snap.Endpoints(domain.KindGraphStore)
	mappers := snap.Endpoints(domain.KindVirtualMapper)

	mappingURL := ""
	if len(mappers) > 0 {
		mappingURL = mappers[0].URL
	}
	if virtual {
		endpoints = append(endpoints, mappers...)
	}
	return endpoints, mappingURL
}

// normaliseGroups converts one result set into property groups.
// Property/Value shaped results collapse into a single group with the unit
// appended to the value; any other shape yields one group per row.
func normaliseGroups(rs *client.ResultSet) []domain.PropertyGroup {
	vars := rs.Vars()
	propVar, hasProp := findVar(vars, "property")
	valueVar, hasValue := findVar(vars, "value")

	if hasProp && hasValue {
		unitVar, hasUnit := findVar(vars, "unit")

		var group domain.PropertyGroup
		for _, row := range rs.Rows() {
			name := strings.TrimSpace(row[propVar].Value)
			if name == "" {
				continue
			}
			value := row[valueVar].Value
			if hasUnit {
				if unit := strings.TrimSpace(row[unitVar].Value); unit != "" {
					value = value + " " + unit
				}
			}
			group.Add(name, value)
		}
		if group.Len() == 0 {
			return nil
		}
		return []domain.PropertyGroup{group}
	}

	groups := make([]domain.PropertyGroup, 0, len(rs.Rows()))
	for _, row := range rs.Rows() {
		var group domain.PropertyGroup
		for _, name := range vars {
			term, ok := row[name]
			if !ok || term.Value == "" {
				continue
			}
			group.Add(name, term.Value)
		}
		if group.Len() > 0 {
			groups = append(groups, group)
		}
	}
	return groups
}

// findVar returns the projected variable matching name regardless of case
func findVar(vars []string, name string) (string, bool) {
	for _, v := range vars {
		if strings.EqualFold(v, name) {
			return v, true
		}
	}
	return "", false
}
