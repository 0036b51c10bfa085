package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"evalgo.org/featureinfo/internal/domain"
)

// setupMockSPARQLServer returns a server answering every query with the given JSON body
func setupMockSPARQLServer(t *testing.T, status int, body string) (*httptest.Server, *http.Request) {
	t.Helper()
	captured := &http.Request{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		*captured = *r.Clone(context.Background())
		captured.Form = r.Form

		w.Header().Set("Content-Type", "application/sparql-results+json")
		w.WriteHeader(status)
		_, _ = fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)

	return server, captured
}

func newTestClient() *SPARQLClient {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewSPARQLClient(NewManager(5*time.Second, false, logger))
}

func TestSPARQLClientExecute(t *testing.T) {
	body := `{
		"head": {"vars": ["class"]},
		"results": {"bindings": [
			{"class": {"type": "uri", "value": "https://example.org/Sensor"}},
			{"class": {"type": "uri", "value": "https://example.org/Device"}}
		]}
	}`
	server, captured := setupMockSPARQLServer(t, http.StatusOK, body)

	ep := domain.NewEndpoint("kb", server.URL+"/namespace/kb/sparql", "admin", "secret", domain.KindGraphStore)
	result, err := newTestClient().Execute(context.Background(), ep, "SELECT ?class WHERE { <urn:a> a ?class }")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := result.Column("class"); len(got) != 2 || got[0] != "https://example.org/Sensor" {
		t.Errorf("unexpected class column %v", got)
	}
	if vars := result.Vars(); len(vars) != 1 || vars[0] != "class" {
		t.Errorf("unexpected vars %v", vars)
	}
	if captured.Form.Get("query") != "SELECT ?class WHERE { <urn:a> a ?class }" {
		t.Errorf("query not sent as form field, got %q", captured.Form.Get("query"))
	}
	if user, pass, ok := captured.BasicAuth(); !ok || user != "admin" || pass != "secret" {
		t.Errorf("expected basic auth admin/secret, got %q/%q", user, pass)
	}
	if captured.Header.Get("Accept") != "application/sparql-results+json" {
		t.Errorf("unexpected Accept header %q", captured.Header.Get("Accept"))
	}
}

func TestSPARQLClientErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   "MalformedQueryException",
			want:   "endpoint returned status 500",
		},
		{
			name:   "malformed json",
			status: http.StatusOK,
			body:   "<html>not json</html>",
			want:   "malformed query result",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := setupMockSPARQLServer(t, tt.status, tt.body)
			ep := domain.NewEndpoint("kb", server.URL, "", "", domain.KindGraphStore)

			_, err := newTestClient().Execute(context.Background(), ep, "SELECT * WHERE {}")
			var qe *domain.QueryError
			if !errors.As(err, &qe) {
				t.Fatalf("expected QueryError, got %v", err)
			}
			if qe.Endpoint != "kb" || qe.Message != tt.want {
				t.Errorf("unexpected error %+v", qe)
			}
		})
	}
}

func TestSPARQLClientHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	ep := domain.NewEndpoint("slow", server.URL, "", "", domain.KindGraphStore)
	start := time.Now()
	_, err := newTestClient().Execute(ctx, ep, "SELECT * WHERE {}")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > time.Second {
		t.Errorf("execute did not return at the context deadline")
	}
}

func TestManagerCachesClientsPerHost(t *testing.T) {
	m := NewManager(time.Second, false, logrus.New())

	a, err := m.GetClient("http://blazegraph:8080/blazegraph/namespace/kb/sparql")
	if err != nil {
		t.Fatalf("get client: %v", err)
	}
	b, _ := m.GetClient("http://blazegraph:8080/blazegraph/namespace/other/sparql")
	if a != b {
		t.Errorf("expected the same client for one host")
	}

	c, _ := m.GetClient("http://ontop:8080/sparql")
	if c == a {
		t.Errorf("expected a separate client for another host")
	}
}
