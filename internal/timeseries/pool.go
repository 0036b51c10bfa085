package timeseries

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"

	"evalgo.org/featureinfo/internal/domain"
)

// PoolOptions size the connection pool shared by all requests
type PoolOptions struct {
	Table           string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// OpenFunc opens a database handle for a relational endpoint
type OpenFunc func(ep domain.Endpoint) (*sql.DB, error)

// OpenPostgres opens a pgx-backed database/sql pool for the endpoint.
// Endpoint credentials override any user information in the URL.
func OpenPostgres(ep domain.Endpoint) (*sql.DB, error) {
	cfg, err := pgx.ParseConfig(ep.URL)
	if err != nil {
		return nil, fmt.Errorf("parse connection url: %w", err)
	}
	if user, secret, ok := ep.BasicAuth(); ok {
		cfg.User = user
		cfg.Password = secret
	}
	return stdlib.OpenDB(*cfg), nil
}

// Provider lazily opens one pool per relational endpoint and leases stores
// over it. The pool is replaced only when the endpoint URL changes; a replaced
// pool stays open until its last lease is released.
type Provider struct {
	open   OpenFunc
	opts   PoolOptions
	logger logrus.FieldLogger

	mu      sync.Mutex
	current *pool
}

// pool is one database handle and the leases held on it
type pool struct {
	endpoint string
	url      string
	db       *sql.DB
	store    *SQLStore
	leases   int
	retired  bool
}

// NewProvider creates a provider. A nil open function selects OpenPostgres.
func NewProvider(open OpenFunc, opts PoolOptions, logger logrus.FieldLogger) *Provider {
	if open == nil {
		open = OpenPostgres
	}
	return &Provider{open: open, opts: opts, logger: logger}
}

// Acquire leases the store of the endpoint, opening the pool on first use.
// The caller must call release once it has finished reading.
func (p *Provider) Acquire(ep domain.Endpoint) (Store, func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil || p.current.url != ep.URL {
		next, err := p.openPool(ep)
		if err != nil {
			return nil, nil, err
		}
		if old := p.current; old != nil {
			p.logger.WithField("endpoint", ep.ID).Info("Relational endpoint changed, replacing connection pool")
			p.retire(old)
		}
		p.current = next
	}

	leased := p.current
	leased.leases++
	return leased.store, sync.OnceFunc(func() { p.release(leased) }), nil
}

func (p *Provider) openPool(ep domain.Endpoint) (*pool, error) {
	db, err := p.open(ep)
	if err != nil {
		return nil, domain.NewTimeseriesStoreError("", err)
	}
	if p.opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(p.opts.MaxOpenConns)
	}
	if p.opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(p.opts.MaxIdleConns)
	}
	if p.opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(p.opts.ConnMaxLifetime)
	}

	store, err := NewSQLStore(db, p.opts.Table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	p.logger.WithFields(logrus.Fields{
		"endpoint":       ep.ID,
		"max_open_conns": p.opts.MaxOpenConns,
	}).Info("Opened time-series connection pool")

	return &pool{endpoint: ep.ID, url: ep.URL, db: db, store: store}, nil
}

func (p *Provider) release(leased *pool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	leased.leases--
	if leased.retired && leased.leases == 0 {
		p.closePool(leased)
	}
}

// retire marks a pool as replaced and closes it once no lease is held.
// Callers hold p.mu.
func (p *Provider) retire(old *pool) error {
	old.retired = true
	if old.leases > 0 {
		return nil
	}
	return p.closePool(old)
}

func (p *Provider) closePool(old *pool) error {
	err := old.db.Close()
	if err != nil {
		p.logger.WithField("endpoint", old.endpoint).WithError(err).Warn("Closing time-series connection pool failed")
	}
	return err
}

// Close releases the current pool. Leased pools close when their last lease ends.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return nil
	}
	err := p.retire(p.current)
	p.current = nil
	return err
}
