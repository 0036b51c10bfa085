// Package timeseries reads historical samples from the relational time-series store.
package timeseries

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"evalgo.org/featureinfo/internal/domain"
	"evalgo.org/featureinfo/internal/helpers"
)

// DefaultTable is the table holding samples when none is configured
const DefaultTable = "timeseries_samples"

// Store reads samples of one stream within a time window.
type Store interface {
	Samples(ctx context.Context, streamID string, from, to time.Time) ([]domain.Sample, error)
	Name() string
}

// SQLStore reads samples from a table of (stream_id, ts, value) rows.
type SQLStore struct {
	db        *sql.DB
	tableName string
	query     string
}

// NewSQLStore creates a store over a pooled database handle.
func NewSQLStore(db *sql.DB, table string) (*SQLStore, error) {
	if table == "" {
		table = DefaultTable
	}
	if err := helpers.ValidateSQLIdentifier("timeseries.table", table); err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("SELECT ts, value FROM ")
	b.WriteString(table)
	b.WriteString(" WHERE stream_id = $1 AND ts >= $2 AND ts <= $3 ORDER BY ts ASC")

	return &SQLStore{db: db, tableName: table, query: b.String()}, nil
}

func (s *SQLStore) Name() string { return "postgres:" + s.tableName }

// Samples returns the samples of streamID in [from, to], oldest first.
func (s *SQLStore) Samples(ctx context.Context, streamID string, from, to time.Time) ([]domain.Sample, error) {
	rows, err := s.db.QueryContext(ctx, s.query, streamID, from, to)
	if err != nil {
		return nil, domain.NewTimeseriesStoreError(streamID, err)
	}
	defer func() { _ = rows.Close() }()

	samples := make([]domain.Sample, 0)
	for rows.Next() {
		var (
			ts    time.Time
			value sql.NullFloat64
		)
		if err := rows.Scan(&ts, &value); err != nil {
			return nil, domain.NewTimeseriesStoreError(streamID, fmt.Errorf("scan sample: %w", err))
		}
		if !value.Valid {
			continue
		}
		samples = append(samples, domain.Sample{Time: ts.UTC(), Value: value.Float64})
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewTimeseriesStoreError(streamID, err)
	}

	return samples, nil
}

var _ Store = (*SQLStore)(nil)
