package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"evalgo.org/featureinfo/auth"
	"evalgo.org/featureinfo/internal/domain"
)

const namespaceDocument = `<?xml version="1.0" encoding="UTF-8"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:sd="http://www.w3.org/ns/sparql-service-description#">
  <rdf:Description rdf:nodeID="kb"><sd:endpoint rdf:resource="%s/blazegraph/namespace/kb/sparql"/></rdf:Description>
</rdf:RDF>`

// setupMockBlazegraph serves the namespace listing and answers class and metadata queries
func setupMockBlazegraph(t *testing.T) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/blazegraph/namespace":
			w.Header().Set("Content-Type", "application/rdf+xml")
			_, _ = fmt.Fprintf(w, namespaceDocument, server.URL)
		case r.Method == http.MethodPost && r.URL.Path == "/blazegraph/namespace/kb/sparql":
			query := r.FormValue("query")
			w.Header().Set("Content-Type", "application/sparql-results+json")
			if strings.Contains(query, "?class") {
				_, _ = fmt.Fprint(w, `{"head":{"vars":["class"]},"results":{"bindings":[{"class":{"type":"uri","value":"https://example.org/ontology#Sensor"}}]}}`)
				return
			}
			_, _ = fmt.Fprint(w, `{"head":{"vars":["Property","Value"]},"results":{"bindings":[{"Property":{"type":"literal","value":"Name"},"Value":{"type":"literal","value":"Sensor 1"}}]}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func writeQueryConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"fia-config.json":            `{"queries":[{"class":"https://example.org/ontology#Sensor","metaFile":"queries/sensor-meta.sparql"}],"hours":12}`,
		"queries/sensor-meta.sparql": "SELECT ?Property ?Value WHERE { [IRI] ?p ?o }",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return filepath.Join(dir, "fia-config.json")
}

func TestBuildAppEndToEnd(t *testing.T) {
	blazegraph := setupMockBlazegraph(t)

	s, err := loadSettings(newTestViper())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.ConfigFile = writeQueryConfig(t)
	s.StackDir = t.TempDir()
	s.BlazegraphURL = blazegraph.URL + "/blazegraph"

	a, err := buildApp(s, quietLogger())
	if err != nil {
		t.Fatalf("buildApp: %v", err)
	}
	defer func() { _ = a.stores.Close() }()

	if err := a.registry.Discover(context.Background()); err != nil {
		t.Fatalf("discovery: %v", err)
	}

	e := newServer(a.ops, authConfig{Mode: auth.AuthModeNone}, a.metrics, quietLogger())

	rec := serve(e, http.MethodGet, "/status", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected ready service, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = serve(e, http.MethodGet, "/get?iri=https://example.org/sensor/1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Meta []map[string]any `json:"meta"`
		Time []any            `json:"time"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(body.Meta) != 1 || body.Meta[0]["Name"] != "Sensor 1" {
		t.Errorf("unexpected metadata %v", body.Meta)
	}
	if body.Time != nil {
		t.Error("time section must be omitted without a relational store")
	}

	snap, _ := a.registry.Snapshot(context.Background())
	if n := len(snap.Endpoints(domain.KindRelationalStore)); n != 0 {
		t.Errorf("expected no relational store, got %d", n)
	}
}

func TestBuildAppWithoutConfiguration(t *testing.T) {
	s, err := loadSettings(newTestViper())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.ConfigFile = filepath.Join(t.TempDir(), "missing.json")

	a, err := buildApp(s, quietLogger())
	if err != nil {
		t.Fatalf("a configuration error must not prevent startup: %v", err)
	}

	e := newServer(a.ops, authConfig{Mode: auth.AuthModeNone}, a.metrics, quietLogger())
	if rec := serve(e, http.MethodGet, "/status", "", nil); rec.Code != http.StatusInternalServerError {
		t.Errorf("expected not ready, got %d", rec.Code)
	}
	if rec := serve(e, http.MethodGet, "/get?iri=urn:x", "", nil); rec.Code != http.StatusInternalServerError {
		t.Errorf("expected INTERNAL_ERROR, got %d", rec.Code)
	}
}
