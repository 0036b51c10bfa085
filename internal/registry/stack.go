package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"evalgo.org/featureinfo/internal/domain"
	"evalgo.org/featureinfo/internal/helpers"
)

// ServiceConfig is the connection description of one stack service.
type ServiceConfig struct {
	URL      string `json:"url"`
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// StackDescriber describes the services deployed alongside this one.
type StackDescriber interface {
	GraphStore(ctx context.Context) (ServiceConfig, error)
	VirtualMapper(ctx context.Context) (ServiceConfig, error)
	RelationalStore(ctx context.Context, database string) (ServiceConfig, error)
}

// FileStackDescriber reads per-service endpoint documents from a directory.
// Explicit URLs take precedence over the documents.
type FileStackDescriber struct {
	Dir           string
	GraphStoreURL string
	MapperURL     string
	RelationalURL string
}

// stack service document names
const (
	graphStoreDocument = "blazegraph.json"
	mapperDocument     = "ontop.json"
	relationalDocument = "postgis.json"
)

// ErrNotDescribed is returned when a service has neither an explicit URL nor a document
var ErrNotDescribed = errors.New("service not described")

func (d *FileStackDescriber) GraphStore(ctx context.Context) (ServiceConfig, error) {
	cfg, err := d.describe(graphStoreDocument, d.GraphStoreURL)
	if err != nil {
		return cfg, err
	}
	cfg.URL = helpers.NormalizeURL(cfg.URL)
	return cfg, nil
}

func (d *FileStackDescriber) VirtualMapper(ctx context.Context) (ServiceConfig, error) {
	return d.describe(mapperDocument, d.MapperURL)
}

// RelationalStore returns the connection URL of the named database.
func (d *FileStackDescriber) RelationalStore(ctx context.Context, database string) (ServiceConfig, error) {
	cfg, err := d.describe(relationalDocument, d.RelationalURL)
	if err != nil {
		return cfg, err
	}
	if cfg.URL == "" {
		if cfg.Host == "" {
			return cfg, fmt.Errorf("%s: no url or host", relationalDocument)
		}
		port := cfg.Port
		if port == 0 {
			port = 5432
		}
		cfg.URL = (&url.URL{
			Scheme: "postgres",
			Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		}).String()
	}
	return withDatabase(cfg, database)
}

func (d *FileStackDescriber) describe(document, explicit string) (ServiceConfig, error) {
	if explicit != "" {
		u, err := url.Parse(explicit)
		if err != nil {
			return ServiceConfig{}, fmt.Errorf("parse %q: %w", explicit, err)
		}
		cfg := ServiceConfig{URL: explicit}
		if u.User != nil {
			cfg.Username = u.User.Username()
			cfg.Password, _ = u.User.Password()
		}
		return cfg, nil
	}
	if d.Dir == "" {
		return ServiceConfig{}, fmt.Errorf("%s: %w", document, ErrNotDescribed)
	}

	data, err := os.ReadFile(filepath.Join(d.Dir, document))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ServiceConfig{}, fmt.Errorf("%s: %w", document, ErrNotDescribed)
		}
		return ServiceConfig{}, err
	}

	var raw struct {
		ServiceConfig
		ServiceURL string `json:"serviceUrl"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return ServiceConfig{}, fmt.Errorf("decode %s: %w", document, err)
	}
	cfg := raw.ServiceConfig
	if cfg.URL == "" {
		cfg.URL = raw.ServiceURL
	}
	return cfg, nil
}

func withDatabase(cfg ServiceConfig, database string) (ServiceConfig, error) {
	if database == "" {
		return cfg, nil
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return cfg, fmt.Errorf("parse relational url: %w", err)
	}
	u.Path = "/" + database
	cfg.URL = u.String()
	return cfg, nil
}

// endpoint converts a service description into a registry endpoint
func (c ServiceConfig) endpoint(id string, kind domain.Kind) domain.Endpoint {
	return domain.NewEndpoint(id, c.URL, c.Username, c.Password, kind)
}

var _ StackDescriber = (*FileStackDescriber)(nil)
