package service

import (
	"context"
	"strings"

	"github.com/pharmadesk/go-rxcore/internal/domain/rx"
)

// Stats aggregates counts over the prescription collection.
type Stats struct {
	Total      int                 `json:"total"`
	ByStatus   map[rx.Status]int   `json:"by_status"`
	ByPriority map[rx.Priority]int `json:"by_priority"`
	ReadyCount int                 `json:"ready_count"`
}

// List returns the full prescription collection.
func (s *PrescriptionService) List(ctx context.Context) ([]*rx.Prescription, error) {
	return s.store.LoadPrescriptions(ctx)
}

// Get returns one prescription by id, or nil when unknown.
func (s *PrescriptionService) Get(ctx context.Context, id string) (*rx.Prescription, error) {
	prescriptions, err := s.store.LoadPrescriptions(ctx)
	if err != nil {
		return nil, err
	}
	return findByID(prescriptions, id), nil
}

// ListByStatus filters prescriptions by exact status match.
func (s *PrescriptionService) ListByStatus(ctx context.Context, status rx.Status) ([]*rx.Prescription, error) {
	prescriptions, err := s.store.LoadPrescriptions(ctx)
	if err != nil {
		return nil, err
	}

	out := []*rx.Prescription{}
	for _, p := range prescriptions {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListOverdue returns ready prescriptions waiting past the overdue
// threshold. Mirrors the monitor's threshold without mutating state.
func (s *PrescriptionService) ListOverdue(ctx context.Context) ([]*rx.Prescription, error) {
	prescriptions, err := s.store.LoadPrescriptions(ctx)
	if err != nil {
		return nil, err
	}

	now := s.cfg.Clock()
	out := []*rx.Prescription{}
	for _, p := range prescriptions {
		if p.Status != rx.StatusReady || p.Timestamps.DateReady == nil {
			continue
		}
		if now.Sub(*p.Timestamps.DateReady) > s.cfg.OverdueThreshold {
			out = append(out, p)
		}
	}
	return out, nil
}

// Search matches the query case-insensitively against patient name, doctor
// name and medication names.
func (s *PrescriptionService) Search(ctx context.Context, query string) ([]*rx.Prescription, error) {
	prescriptions, err := s.store.LoadPrescriptions(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []*rx.Prescription{}, nil
	}

	out := []*rx.Prescription{}
	for _, p := range prescriptions {
		if matchesQuery(p, q) {
			out = append(out, p)
		}
	}
	return out, nil
}

func matchesQuery(p *rx.Prescription, q string) bool {
	if strings.Contains(strings.ToLower(p.PatientInfo.PatientName), q) {
		return true
	}
	if strings.Contains(strings.ToLower(p.Details.DoctorName), q) {
		return true
	}
	for _, m := range p.Details.Medications {
		if strings.Contains(strings.ToLower(m.Name), q) {
			return true
		}
	}
	return false
}

// GetStats aggregates counts by status and priority over the full
// collection.
func (s *PrescriptionService) GetStats(ctx context.Context) (*Stats, error) {
	prescriptions, err := s.store.LoadPrescriptions(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Total:      len(prescriptions),
		ByStatus:   make(map[rx.Status]int),
		ByPriority: make(map[rx.Priority]int),
	}
	for _, p := range prescriptions {
		stats.ByStatus[p.Status]++
		stats.ByPriority[p.Metadata.Priority]++
	}
	stats.ReadyCount = stats.ByStatus[rx.StatusReady]
	return stats, nil
}
