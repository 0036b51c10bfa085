// Package client manages HTTP client creation and SPARQL query execution.
package client

import (
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"evalgo.org/featureinfo/internal/helpers"
)

// Manager handles HTTP client creation and caching
type Manager struct {
	timeout time.Duration
	debug   bool
	logger  logrus.FieldLogger
	cache   map[string]*http.Client
	mu      sync.RWMutex
}

// NewManager creates a new client manager. The timeout bounds every request
// made through a managed client; per-call deadlines come from the context.
func NewManager(timeout time.Duration, debug bool, logger logrus.FieldLogger) *Manager {
	return &Manager{
		timeout: timeout,
		debug:   debug,
		logger:  logger,
		cache:   make(map[string]*http.Client),
	}
}

// GetClient returns an HTTP client for the given server URL.
// Clients are cached per host so connections are reused across requests.
func (m *Manager) GetClient(serverURL string) (*http.Client, error) {
	hostname, err := helpers.URL2ServiceRobust(serverURL)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	if cachedClient, exists := m.cache[hostname]; exists {
		m.mu.RUnlock()
		return cachedClient, nil
	}
	m.mu.RUnlock()

	client := &http.Client{
		Timeout:   m.timeout,
		Transport: http.DefaultTransport.(*http.Transport).Clone(),
	}
	if m.debug {
		client = helpers.EnableHTTPDebugLogging(client, m.logger)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if cachedClient, exists := m.cache[hostname]; exists {
		return cachedClient, nil
	}
	m.cache[hostname] = client

	return client, nil
}
