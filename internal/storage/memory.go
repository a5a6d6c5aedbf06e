package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pharmadesk/go-rxcore/internal/domain/alert"
	"github.com/pharmadesk/go-rxcore/internal/domain/rx"
)

// MemoryStore keeps both collections in process memory. Snapshots are
// deep-copied through JSON so callers never share mutable state with the
// store, matching the serialization behavior of the durable backends.
type MemoryStore struct {
	mu            sync.Mutex
	prescriptions []byte
	alerts        []byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// LoadPrescriptions returns the stored prescription collection.
func (s *MemoryStore) LoadPrescriptions(ctx context.Context) ([]*rx.Prescription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.prescriptions == nil {
		return []*rx.Prescription{}, nil
	}
	var out []*rx.Prescription
	if err := json.Unmarshal(s.prescriptions, &out); err != nil {
		return nil, fmt.Errorf("%w: decode prescriptions: %v", ErrStorage, err)
	}
	return out, nil
}

// SavePrescriptions replaces the stored prescription collection.
func (s *MemoryStore) SavePrescriptions(ctx context.Context, prescriptions []*rx.Prescription) error {
	data, err := json.Marshal(prescriptions)
	if err != nil {
		return fmt.Errorf("%w: encode prescriptions: %v", ErrStorage, err)
	}

	s.mu.Lock()
	s.prescriptions = data
	s.mu.Unlock()
	return nil
}

// LoadAlerts returns the stored alert collection.
func (s *MemoryStore) LoadAlerts(ctx context.Context) ([]alert.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.alerts == nil {
		return []alert.Alert{}, nil
	}
	var out []alert.Alert
	if err := json.Unmarshal(s.alerts, &out); err != nil {
		return nil, fmt.Errorf("%w: decode alerts: %v", ErrStorage, err)
	}
	return out, nil
}

// SaveAlerts replaces the stored alert collection.
func (s *MemoryStore) SaveAlerts(ctx context.Context, alerts []alert.Alert) error {
	data, err := json.Marshal(alerts)
	if err != nil {
		return fmt.Errorf("%w: encode alerts: %v", ErrStorage, err)
	}

	s.mu.Lock()
	s.alerts = data
	s.mu.Unlock()
	return nil
}
