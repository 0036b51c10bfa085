package registry

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"

	"evalgo.org/featureinfo/internal/client"
	"evalgo.org/featureinfo/internal/domain"
	"evalgo.org/featureinfo/internal/helpers"
)

// NamespaceLister lists the SPARQL endpoints of a graph-store service.
type NamespaceLister interface {
	Namespaces(ctx context.Context, service ServiceConfig) ([]domain.Endpoint, error)
}

// BlazegraphLister asks a Blazegraph service for its namespaces through the
// multi-tenancy API and reads the sd:endpoint of every namespace.
type BlazegraphLister struct {
	clients *client.Manager
}

func NewBlazegraphLister(clients *client.Manager) *BlazegraphLister {
	return &BlazegraphLister{clients: clients}
}

func (l *BlazegraphLister) Namespaces(ctx context.Context, service ServiceConfig) ([]domain.Endpoint, error) {
	httpClient, err := l.clients.GetClient(service.URL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, helpers.NormalizeURL(service.URL)+"/namespace", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/rdf+xml")
	if service.Username != "" {
		req.SetBasicAuth(service.Username, service.Password)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list namespaces: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list namespaces: status %d", resp.StatusCode)
	}

	urls, err := parseNamespaceEndpoints(resp.Body)
	if err != nil {
		return nil, err
	}

	endpoints := make([]domain.Endpoint, 0, len(urls))
	for _, u := range urls {
		name, ok := helpers.NamespaceFromURL(u)
		if !ok {
			continue
		}
		endpoints = append(endpoints, domain.NewEndpoint(name, u, service.Username, service.Password, domain.KindGraphStore))
	}
	return endpoints, nil
}

// parseNamespaceEndpoints returns the distinct rdf:resource values of every
// sd:endpoint element in document order.
func parseNamespaceEndpoints(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	seen := make(map[string]bool)
	var urls []string

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse namespace document: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "endpoint" {
			continue
		}
		for _, attr := range start.Attr {
			if attr.Name.Local == "resource" && attr.Value != "" && !seen[attr.Value] {
				seen[attr.Value] = true
				urls = append(urls, attr.Value)
			}
		}
	}
	return urls, nil
}

var _ NamespaceLister = (*BlazegraphLister)(nil)
