// Package idempotency provides an inbox for deduplicating prescription
// create requests. Clients retrying a create send the same Idempotency-Key;
// the inbox replays the stored first result instead of creating twice.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Config holds inbox configuration.
type Config struct {
	// TTL is how long a stored result remains replayable.
	TTL time.Duration
}

// DefaultConfig returns the standard retention window.
func DefaultConfig() Config {
	return Config{TTL: 24 * time.Hour}
}

// Inbox stores create results keyed by idempotency key.
//
// Schema:
//
//	CREATE TABLE rx_inbox (
//	    idempotency_key TEXT PRIMARY KEY,
//	    result          JSONB NOT NULL,
//	    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    expires_at      TIMESTAMPTZ NOT NULL
//	);
type Inbox struct {
	pool   *pgxpool.Pool
	cfg    Config
	logger *zap.Logger
}

// New creates an inbox over an existing pool.
func New(pool *pgxpool.Pool, cfg Config, logger *zap.Logger) *Inbox {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	return &Inbox{pool: pool, cfg: cfg, logger: logger}
}

// Process executes fn at most once per key. A repeat call with the same key
// returns the stored result and duplicate=true without invoking fn.
func (i *Inbox) Process(ctx context.Context, key string, fn func(ctx context.Context) ([]byte, error)) (result []byte, duplicate bool, err error) {
	var stored []byte
	err = i.pool.QueryRow(ctx,
		`SELECT result FROM rx_inbox WHERE idempotency_key = $1 AND expires_at > NOW()`, key,
	).Scan(&stored)
	if err == nil {
		return stored, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("inbox lookup: %w", err)
	}

	result, err = fn(ctx)
	if err != nil {
		return nil, false, err
	}

	_, insErr := i.pool.Exec(ctx, `
		INSERT INTO rx_inbox (idempotency_key, result, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (idempotency_key) DO NOTHING
	`, key, result, time.Now().Add(i.cfg.TTL))
	if insErr != nil {
		// fn succeeded; the miss only weakens dedupe for this key.
		i.logger.Warn("inbox record failed", zap.String("key", key), zap.Error(insErr))
	}

	return result, false, nil
}

// Cleanup deletes expired entries and returns how many were removed.
func (i *Inbox) Cleanup(ctx context.Context) (int64, error) {
	tag, err := i.pool.Exec(ctx, `DELETE FROM rx_inbox WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("inbox cleanup: %w", err)
	}
	return tag.RowsAffected(), nil
}

// GenerateKey derives a deterministic idempotency key from create request
// components. The timestamp is truncated to the minute so quick client
// retries hash identically.
func GenerateKey(patientID, doctorLicense, firstMedication string, timestamp time.Time) string {
	parts := []string{
		patientID,
		doctorLicense,
		firstMedication,
		timestamp.Truncate(time.Minute).Format(time.RFC3339),
	}
	hash := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(hash[:])
}
