package domain

// Kind classifies a backend endpoint.
type Kind string

const (
	KindGraphStore      Kind = "GRAPH_STORE"      // One namespace of the graph store
	KindVirtualMapper   Kind = "VIRTUAL_MAPPER"   // Relational-to-graph mapping service
	KindRelationalStore Kind = "RELATIONAL_STORE" // Time-series database
)

// Kinds lists every endpoint kind in discovery order.
var Kinds = []Kind{KindGraphStore, KindVirtualMapper, KindRelationalStore}

// Credentials holds optional basic authentication details for an endpoint.
type Credentials struct {
	User   string `json:"user"`
	Secret string `json:"-"`
}

// Endpoint is one queryable backend. Endpoints are immutable values; copies are
// handed out by the registry and must not be modified.
type Endpoint struct {
	ID          string       `json:"id"`                    // Namespace name or service name
	URL         string       `json:"url"`                   // SPARQL endpoint URL or database connection URL
	Credentials *Credentials `json:"credentials,omitempty"` // nil when the endpoint is unauthenticated
	Kind        Kind         `json:"kind"`
}

// NewEndpoint creates an endpoint, attaching credentials only when a user is given.
func NewEndpoint(id, url, user, secret string, kind Kind) Endpoint {
	ep := Endpoint{ID: id, URL: url, Kind: kind}
	if user != "" {
		ep.Credentials = &Credentials{User: user, Secret: secret}
	}
	return ep
}

// BasicAuth returns the endpoint credentials, if any.
func (e Endpoint) BasicAuth() (user, secret string, ok bool) {
	if e.Credentials == nil {
		return "", "", false
	}
	return e.Credentials.User, e.Credentials.Secret, true
}
