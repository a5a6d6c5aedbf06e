// Package storage defines the durable record store boundary.
//
// Collections are loaded and saved whole: the core runs read-modify-write
// cycles over the full prescription and alert lists and expects the backend
// to make each load or save atomic. Backends: in-memory (tests), Redis
// (key-value), Postgres (document rows).
package storage

import (
	"context"
	"errors"

	"github.com/pharmadesk/go-rxcore/internal/domain/alert"
	"github.com/pharmadesk/go-rxcore/internal/domain/rx"
)

// ErrStorage wraps every backend failure (serialization, connectivity,
// quota) so callers can distinguish storage trouble from domain outcomes.
var ErrStorage = errors.New("record store failure")

// Store is the durable persistence boundary for prescription and alert
// collections.
type Store interface {
	LoadPrescriptions(ctx context.Context) ([]*rx.Prescription, error)
	SavePrescriptions(ctx context.Context, prescriptions []*rx.Prescription) error
	LoadAlerts(ctx context.Context) ([]alert.Alert, error)
	SaveAlerts(ctx context.Context, alerts []alert.Alert) error
}
