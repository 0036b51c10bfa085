package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"evalgo.org/featureinfo/internal/domain"
	"evalgo.org/featureinfo/internal/helpers"
)

// maxErrorBody limits how much of an error response is kept for diagnostics
const maxErrorBody = 2048

// QueryExecutor executes a SPARQL SELECT query against one endpoint.
type QueryExecutor interface {
	Execute(ctx context.Context, endpoint domain.Endpoint, query string) (*ResultSet, error)
}

// Term is one RDF term of a SPARQL JSON result binding.
type Term struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

// ResultSet is a decoded SPARQL 1.1 JSON result.
type ResultSet struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []map[string]Term `json:"bindings"`
	} `json:"results"`
}

// Vars returns the projected variables in query order.
func (r *ResultSet) Vars() []string {
	return r.Head.Vars
}

// Rows returns the result bindings in endpoint order.
func (r *ResultSet) Rows() []map[string]Term {
	return r.Results.Bindings
}

// Column returns the value bound to name in every row that binds it.
func (r *ResultSet) Column(name string) []string {
	values := make([]string, 0, len(r.Results.Bindings))
	for _, row := range r.Results.Bindings {
		if term, ok := helpers.FindField(name, row); ok {
			values = append(values, term.Value)
		}
	}
	return values
}

// SPARQLClient executes queries over the SPARQL 1.1 protocol using managed HTTP clients.
type SPARQLClient struct {
	clients *Manager
}

// NewSPARQLClient creates a SPARQL client backed by the given client manager
func NewSPARQLClient(clients *Manager) *SPARQLClient {
	return &SPARQLClient{clients: clients}
}

// Execute posts the query as a form and decodes the JSON result.
func (c *SPARQLClient) Execute(ctx context.Context, endpoint domain.Endpoint, query string) (*ResultSet, error) {
	httpClient, err := c.clients.GetClient(endpoint.URL)
	if err != nil {
		return nil, domain.NewQueryError(endpoint.ID, "invalid endpoint URL", err)
	}

	form := url.Values{"query": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, domain.NewQueryError(endpoint.ID, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", helpers.MediaSPARQLResultsJSON)
	if user, secret, ok := endpoint.BasicAuth(); ok {
		req.SetBasicAuth(user, secret)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, domain.NewQueryError(endpoint.ID, "endpoint unreachable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, domain.NewQueryError(endpoint.ID,
			fmt.Sprintf("endpoint returned status %d", resp.StatusCode),
			fmt.Errorf("%s", strings.TrimSpace(string(body))))
	}

	var result ResultSet
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, domain.NewQueryError(endpoint.ID, "malformed query result", err)
	}

	return &result, nil
}

var _ QueryExecutor = (*SPARQLClient)(nil)
