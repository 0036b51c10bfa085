package registry

import (
	"time"

	"evalgo.org/featureinfo/internal/domain"
	"evalgo.org/featureinfo/internal/helpers"
)

// Snapshot is an immutable view of the discovered endpoints.
type Snapshot struct {
	endpoints    map[domain.Kind][]domain.Endpoint
	root         domain.Endpoint
	discoveredAt time.Time
	override     bool
}

func newSnapshot(root domain.Endpoint, graphStores, mappers, relational []domain.Endpoint, at time.Time) *Snapshot {
	return &Snapshot{
		endpoints: map[domain.Kind][]domain.Endpoint{
			domain.KindGraphStore:      graphStores,
			domain.KindVirtualMapper:   mappers,
			domain.KindRelationalStore: relational,
		},
		root:         root,
		discoveredAt: at,
	}
}

// NewStaticSnapshot builds a snapshot from fixed endpoint lists.
// The first graph store is used as the root namespace.
func NewStaticSnapshot(endpoints ...domain.Endpoint) *Snapshot {
	var graphStores, mappers, relational []domain.Endpoint
	for _, ep := range endpoints {
		switch ep.Kind {
		case domain.KindGraphStore:
			graphStores = append(graphStores, ep)
		case domain.KindVirtualMapper:
			mappers = append(mappers, ep)
		case domain.KindRelationalStore:
			relational = append(relational, ep)
		}
	}
	var root domain.Endpoint
	if len(graphStores) > 0 {
		root = graphStores[0]
	}
	return newSnapshot(root, graphStores, mappers, relational, time.Now().UTC())
}

// Endpoints returns a copy of the endpoints of one kind in discovery order.
func (s *Snapshot) Endpoints(kind domain.Kind) []domain.Endpoint {
	eps := s.endpoints[kind]
	out := make([]domain.Endpoint, len(eps))
	copy(out, eps)
	return out
}

// Root returns the canonical root namespace endpoint
func (s *Snapshot) Root() domain.Endpoint { return s.root }

// DiscoveredAt returns when the discovery pass that built the snapshot finished
func (s *Snapshot) DiscoveredAt() time.Time { return s.discoveredAt }

// Overridden reports whether this is a per-request override view
func (s *Snapshot) Overridden() bool { return s.override }

// Counts returns the number of endpoints per kind
func (s *Snapshot) Counts() map[domain.Kind]int {
	counts := make(map[domain.Kind]int, len(domain.Kinds))
	for _, kind := range domain.Kinds {
		counts[kind] = len(s.endpoints[kind])
	}
	return counts
}

// WithOverride returns a view whose graph-store set is exactly ep.
// The receiver is not modified.
func (s *Snapshot) WithOverride(ep domain.Endpoint) *Snapshot {
	endpoints := make(map[domain.Kind][]domain.Endpoint, len(s.endpoints))
	for kind, eps := range s.endpoints {
		endpoints[kind] = eps
	}
	endpoints[domain.KindGraphStore] = []domain.Endpoint{ep}

	return &Snapshot{
		endpoints:    endpoints,
		root:         s.root,
		discoveredAt: s.discoveredAt,
		override:     true,
	}
}

// ParseOverride turns a request-supplied SPARQL URL into a graph-store endpoint.
// Credentials of the root namespace are reused when the override targets the same service.
func (s *Snapshot) ParseOverride(raw string) (domain.Endpoint, error) {
	name, ok := helpers.NamespaceFromURL(raw)
	if !ok {
		return domain.Endpoint{}, domain.NewValidationError("endpoint", "not a namespace SPARQL endpoint")
	}

	ep := domain.Endpoint{ID: name, URL: raw, Kind: domain.KindGraphStore}
	if s.root.Credentials != nil && sameHost(raw, s.root.URL) {
		creds := *s.root.Credentials
		ep.Credentials = &creds
	}
	return ep, nil
}

func sameHost(a, b string) bool {
	ha, errA := helpers.URL2ServiceRobust(a)
	hb, errB := helpers.URL2ServiceRobust(b)
	return errA == nil && errB == nil && ha == hb
}
