package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pharmadesk/go-rxcore/internal/domain/alert"
	"github.com/pharmadesk/go-rxcore/internal/domain/rx"
)

const (
	collectionPrescriptions = "prescriptions"
	collectionAlerts        = "prescription_alerts"
)

// PostgresStore persists each collection as one JSONB document row in the
// rx_collections table, keeping the whole-collection load/save contract of
// the store boundary.
//
// Schema:
//
//	CREATE TABLE rx_collections (
//	    name       TEXT PRIMARY KEY,
//	    document   JSONB NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an already-connected pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// LoadPrescriptions returns the stored prescription collection.
func (s *PostgresStore) LoadPrescriptions(ctx context.Context) ([]*rx.Prescription, error) {
	var out []*rx.Prescription
	if err := s.load(ctx, collectionPrescriptions, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []*rx.Prescription{}
	}
	return out, nil
}

// SavePrescriptions replaces the stored prescription collection.
func (s *PostgresStore) SavePrescriptions(ctx context.Context, prescriptions []*rx.Prescription) error {
	return s.save(ctx, collectionPrescriptions, prescriptions)
}

// LoadAlerts returns the stored alert collection.
func (s *PostgresStore) LoadAlerts(ctx context.Context) ([]alert.Alert, error) {
	var out []alert.Alert
	if err := s.load(ctx, collectionAlerts, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []alert.Alert{}
	}
	return out, nil
}

// SaveAlerts replaces the stored alert collection.
func (s *PostgresStore) SaveAlerts(ctx context.Context, alerts []alert.Alert) error {
	return s.save(ctx, collectionAlerts, alerts)
}

func (s *PostgresStore) load(ctx context.Context, name string, v interface{}) error {
	var doc []byte
	err := s.pool.QueryRow(ctx,
		`SELECT document FROM rx_collections WHERE name = $1`, name,
	).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: select %s: %v", ErrStorage, name, err)
	}
	if err := json.Unmarshal(doc, v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrStorage, name, err)
	}
	return nil
}

func (s *PostgresStore) save(ctx context.Context, name string, v interface{}) error {
	doc, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrStorage, name, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO rx_collections (name, document, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE
		SET document = EXCLUDED.document, updated_at = NOW()
	`, name, doc)
	if err != nil {
		return fmt.Errorf("%w: upsert %s: %v", ErrStorage, name, err)
	}
	return nil
}
