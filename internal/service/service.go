// Package service implements the prescription lifecycle engine: creation,
// status transitions, validation, alerting, automated monitoring and
// read-only queries over a durable record store.
//
// Every operation is a synchronous read-modify-write cycle against the
// store. A single mutex serializes mutations so at most one is in flight at
// a time; the service owns no timers and no background work.
package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pharmadesk/go-rxcore/internal/domain/alert"
	"github.com/pharmadesk/go-rxcore/internal/domain/interaction"
	"github.com/pharmadesk/go-rxcore/internal/domain/rx"
	"github.com/pharmadesk/go-rxcore/internal/observability/metrics"
	"github.com/pharmadesk/go-rxcore/internal/storage"
)

// Config holds the tunable temporal rules of the lifecycle engine. The
// windows have no documented clinical basis; they are deployment policy and
// deliberately not hardcoded in the domain logic.
type Config struct {
	// DueWindow is how long after creation a prescription remains valid.
	DueWindow time.Duration
	// OverdueThreshold is how long a ready prescription may wait for
	// pickup before an overdue alert is raised.
	OverdueThreshold time.Duration
	// MaxPrescriptionAge flags prescriptions considered too old during
	// pharmacist validation.
	MaxPrescriptionAge time.Duration
	// ControlledSupplyDays caps the supply duration of a controlled
	// substance flagged during pharmacist validation.
	ControlledSupplyDays int
	// Clock supplies the current time; tests inject a fixed clock.
	Clock func() time.Time
}

// DefaultConfig returns the standard pharmacy policy windows.
func DefaultConfig() Config {
	return Config{
		DueWindow:            7 * 24 * time.Hour,
		OverdueThreshold:     3 * 24 * time.Hour,
		MaxPrescriptionAge:   30 * 24 * time.Hour,
		ControlledSupplyDays: 90,
		Clock:                time.Now,
	}
}

// PrescriptionService drives the prescription lifecycle against an injected
// record store.
type PrescriptionService struct {
	store     storage.Store
	cfg       Config
	logger    *zap.Logger
	metrics   *metrics.Metrics
	publisher Publisher

	mu sync.Mutex
}

// New creates a lifecycle service. Logger, metrics and publisher are
// optional; nil disables them.
func New(store storage.Store, cfg Config, logger *zap.Logger, m *metrics.Metrics, pub Publisher) *PrescriptionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.DueWindow <= 0 {
		cfg.DueWindow = DefaultConfig().DueWindow
	}
	if cfg.OverdueThreshold <= 0 {
		cfg.OverdueThreshold = DefaultConfig().OverdueThreshold
	}
	return &PrescriptionService{
		store:     store,
		cfg:       cfg,
		logger:    logger,
		metrics:   m,
		publisher: pub,
	}
}

// CreateInput mirrors rx.CreateInput at the service boundary.
type CreateInput = rx.CreateInput

// Create builds a new prescription: assigns id and a store-unique
// prescription number, computes the due date, runs the interaction engine,
// raises a controlled-substance alert per controlled medication, persists
// and returns the record.
//
// Input shape validation is the form validator's job upstream; only the
// empty medication list is rejected here, with rx.ErrNoMedications.
func (s *PrescriptionService) Create(ctx context.Context, in CreateInput) (*rx.Prescription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	now := s.cfg.Clock()

	prescriptions, err := s.store.LoadPrescriptions(ctx)
	if err != nil {
		return nil, err
	}

	number := s.uniqueNumber(prescriptions, now)
	p, err := rx.NewPrescription(in, number, now, s.cfg.DueWindow)
	if err != nil {
		return nil, err
	}

	p.Validation.DrugInteractions = interaction.Check(p.Details.Medications)

	prescriptions = append(prescriptions, p)
	if err := s.store.SavePrescriptions(ctx, prescriptions); err != nil {
		return nil, err
	}

	if err := s.raiseControlledAlerts(ctx, p, now); err != nil {
		// The prescription is persisted; surface the alert failure.
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.PrescriptionsCreated.Inc()
		for _, w := range p.Validation.DrugInteractions {
			s.metrics.InteractionWarnings.WithLabelValues(string(w.Severity)).Inc()
		}
		s.metrics.OperationDuration.Observe(time.Since(start).Seconds())
	}

	s.logger.Info("prescription created",
		zap.String("id", p.ID),
		zap.String("number", p.Details.PrescriptionNumber),
		zap.Int("medications", p.Metadata.TotalItems),
		zap.Int("interactions", len(p.Validation.DrugInteractions)),
		zap.Bool("controlled", p.ContainsControlled()),
	)

	s.publish(ctx, EventPrescriptionCreated, p.ID, createdPayload(p))
	return p, nil
}

// uniqueNumber generates a prescription number collision-checked against
// the stored collection.
func (s *PrescriptionService) uniqueNumber(existing []*rx.Prescription, now time.Time) string {
	taken := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		taken[p.Details.PrescriptionNumber] = struct{}{}
	}
	for {
		n := rx.NewNumber(now)
		if _, dup := taken[n]; !dup {
			return n
		}
	}
}

// raiseControlledAlerts emits one controlled_substance alert per controlled
// medication on the prescription.
func (s *PrescriptionService) raiseControlledAlerts(ctx context.Context, p *rx.Prescription, now time.Time) error {
	var names []string
	for _, m := range p.Details.Medications {
		if m.IsControlled {
			names = append(names, m.Name)
		}
	}
	if len(names) == 0 {
		return nil
	}

	alerts, err := s.store.LoadAlerts(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		msg := fmt.Sprintf("Controlled substance %s on prescription %s requires verification", name, p.Details.PrescriptionNumber)
		alerts = alert.Raise(alerts, alert.TypeControlledSubstance, alert.SeverityMedium, msg, p.ID, now)
		if s.metrics != nil {
			s.metrics.AlertsRaised.WithLabelValues(string(alert.TypeControlledSubstance)).Inc()
		}
		s.publish(ctx, EventAlertRaised, p.ID, alertPayload(alerts[len(alerts)-1]))
	}
	return s.store.SaveAlerts(ctx, alerts)
}

// UpdateStatus drives the status state machine for one prescription.
// Returns (false, nil) when the id is unknown or the transition is illegal;
// the record is left unchanged in both cases. Storage failures are returned
// as errors.
func (s *PrescriptionService) UpdateStatus(ctx context.Context, id string, newStatus rx.Status, actor, note string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.cfg.Clock()

	prescriptions, err := s.store.LoadPrescriptions(ctx)
	if err != nil {
		return false, err
	}

	p := findByID(prescriptions, id)
	if p == nil {
		return false, nil
	}

	if !p.Transition(newStatus, actor, note, now) {
		if s.metrics != nil {
			s.metrics.TransitionsRejected.Inc()
		}
		s.logger.Warn("status transition rejected",
			zap.String("id", id),
			zap.String("from", string(p.Status)),
			zap.String("to", string(newStatus)),
		)
		return false, nil
	}

	if err := s.store.SavePrescriptions(ctx, prescriptions); err != nil {
		return false, err
	}

	if err := s.applyTransitionAlerts(ctx, p, newStatus, now); err != nil {
		// The transition is persisted; surface the alert failure.
		return false, err
	}

	if s.metrics != nil {
		s.metrics.StatusTransitions.WithLabelValues(string(newStatus)).Inc()
	}
	s.logger.Info("prescription status updated",
		zap.String("id", id),
		zap.String("status", string(newStatus)),
		zap.String("actor", actor),
	)

	s.publish(ctx, EventStatusChanged, id, statusPayload(p, newStatus))
	return true, nil
}

// applyTransitionAlerts performs the alert side effects of a successful
// transition: ready raises a pickup notice (at most one unresolved per
// prescription), dispensed resolves it.
func (s *PrescriptionService) applyTransitionAlerts(ctx context.Context, p *rx.Prescription, to rx.Status, now time.Time) error {
	if to != rx.StatusReady && to != rx.StatusDispensed {
		return nil
	}

	alerts, err := s.store.LoadAlerts(ctx)
	if err != nil {
		return err
	}

	switch to {
	case rx.StatusReady:
		if !alert.HasUnresolved(alerts, p.ID, alert.TypeReadyForPickup) {
			msg := fmt.Sprintf("Prescription %s for %s is ready for pickup", p.Details.PrescriptionNumber, p.PatientInfo.PatientName)
			alerts = alert.Raise(alerts, alert.TypeReadyForPickup, alert.SeverityMedium, msg, p.ID, now)
			if s.metrics != nil {
				s.metrics.AlertsRaised.WithLabelValues(string(alert.TypeReadyForPickup)).Inc()
			}
			s.publish(ctx, EventAlertRaised, p.ID, alertPayload(alerts[len(alerts)-1]))
		}
	case rx.StatusDispensed:
		if alert.Resolve(alerts, p.ID, alert.TypeReadyForPickup, now) {
			if s.metrics != nil {
				s.metrics.AlertsResolved.WithLabelValues(string(alert.TypeReadyForPickup)).Inc()
			}
			s.publish(ctx, EventAlertResolved, p.ID, nil)
		}
	}

	return s.store.SaveAlerts(ctx, alerts)
}

// Validate records pharmacist validation on a prescription. Returns
// (false, nil) when the id is unknown. Policy checks append to the
// validation notes rather than blocking.
func (s *PrescriptionService) Validate(ctx context.Context, id, actor, notes string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.cfg.Clock()

	prescriptions, err := s.store.LoadPrescriptions(ctx)
	if err != nil {
		return false, err
	}

	p := findByID(prescriptions, id)
	if p == nil {
		return false, nil
	}

	flags := s.policyFlags(p, now)
	all := notes
	if len(flags) > 0 {
		if all != "" {
			all += "; "
		}
		all += strings.Join(flags, "; ")
	}

	p.Validation.IsValidated = true
	p.Validation.ValidatedBy = actor
	p.Validation.ValidationNotes = all
	p.Metadata.LastModifiedBy = actor
	p.Audit(actor, "validated", all, now)

	if err := s.store.SavePrescriptions(ctx, prescriptions); err != nil {
		return false, err
	}

	s.logger.Info("prescription validated",
		zap.String("id", id),
		zap.String("actor", actor),
		zap.Strings("policy_flags", flags),
	)
	return true, nil
}

// policyFlags evaluates the configured validation limits: maximum
// prescription age and controlled-substance supply duration.
func (s *PrescriptionService) policyFlags(p *rx.Prescription, now time.Time) []string {
	var flags []string
	if age := now.Sub(p.Timestamps.DateCreated); age > s.cfg.MaxPrescriptionAge {
		flags = append(flags, fmt.Sprintf("prescription is %d days old, exceeds maximum age of %d days",
			int(age.Hours()/24), int(s.cfg.MaxPrescriptionAge.Hours()/24)))
	}
	for _, m := range p.Details.Medications {
		if !m.IsControlled {
			continue
		}
		if days, ok := parseDurationDays(m.Duration); ok && days > s.cfg.ControlledSupplyDays {
			flags = append(flags, fmt.Sprintf("controlled substance %s supply of %d days exceeds %d day limit",
				m.Name, days, s.cfg.ControlledSupplyDays))
		}
	}
	return flags
}

// parseDurationDays extracts a day count from free-text durations like
// "30 days" or "90-day supply".
func parseDurationDays(duration string) (int, bool) {
	d := strings.ToLower(strings.TrimSpace(duration))
	if !strings.Contains(d, "day") {
		return 0, false
	}
	i := 0
	for i < len(d) && d[i] >= '0' && d[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(d[:i])
	if err != nil {
		return 0, false
	}
	return n, true
}

// CheckInteractions runs the interaction engine over an ad-hoc medication
// list without touching stored state.
func (s *PrescriptionService) CheckInteractions(medications []rx.Medication) []rx.InteractionWarning {
	return interaction.Check(medications)
}

// Alerts returns the full alert log, resolved and unresolved.
func (s *PrescriptionService) Alerts(ctx context.Context) ([]alert.Alert, error) {
	return s.store.LoadAlerts(ctx)
}

func findByID(prescriptions []*rx.Prescription, id string) *rx.Prescription {
	for _, p := range prescriptions {
		if p.ID == id {
			return p
		}
	}
	return nil
}
