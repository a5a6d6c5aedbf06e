package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pharmadesk/go-rxcore/internal/domain/alert"
	"github.com/pharmadesk/go-rxcore/internal/domain/rx"
)

// monitorActor is recorded as the modifying actor for automated changes.
const monitorActor = "automated-monitor"

// SweepReport summarizes one automated monitoring pass.
type SweepReport struct {
	Checked       int `json:"checked"`
	OverdueAlerts int `json:"overdue_alerts"`
	Expired       int `json:"expired"`
}

// RunMonitoring performs one reconciliation sweep over the full
// prescription collection:
//
//  1. Ready prescriptions waiting past the overdue threshold get an overdue
//     alert, at most one unresolved per prescription.
//  2. Non-terminal prescriptions past their due date are forced to expired.
//
// The sweep is idempotent: an immediate re-run raises no duplicate alerts
// and re-expires nothing. Scheduling is the caller's concern; the engine
// itself owns no timers.
func (s *PrescriptionService) RunMonitoring(ctx context.Context) (*SweepReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.cfg.Clock()

	prescriptions, err := s.store.LoadPrescriptions(ctx)
	if err != nil {
		return nil, err
	}
	alerts, err := s.store.LoadAlerts(ctx)
	if err != nil {
		return nil, err
	}

	report := &SweepReport{Checked: len(prescriptions)}
	alertsDirty := false
	rxDirty := false

	for _, p := range prescriptions {
		// Overdue pickup detection.
		if p.Status == rx.StatusReady && p.Timestamps.DateReady != nil &&
			!alert.HasUnresolved(alerts, p.ID, alert.TypeOverdue) {
			waiting := now.Sub(*p.Timestamps.DateReady)
			if waiting >= s.cfg.OverdueThreshold {
				days := int(waiting.Hours() / 24)
				msg := fmt.Sprintf("Prescription %s has been ready for pickup for %d days", p.Details.PrescriptionNumber, days)
				alerts = alert.Raise(alerts, alert.TypeOverdue, alert.SeverityMedium, msg, p.ID, now)
				alertsDirty = true
				report.OverdueAlerts++
				if s.metrics != nil {
					s.metrics.AlertsRaised.WithLabelValues(string(alert.TypeOverdue)).Inc()
				}
				s.publish(ctx, EventAlertRaised, p.ID, alertPayload(alerts[len(alerts)-1]))
			}
		}

		// Expiry enforcement.
		if !p.Status.IsTerminal() && now.After(p.Timestamps.DateDue) {
			if p.ForceExpire(monitorActor, now) {
				rxDirty = true
				report.Expired++
				if s.metrics != nil {
					s.metrics.PrescriptionsExpired.Inc()
					s.metrics.StatusTransitions.WithLabelValues(string(rx.StatusExpired)).Inc()
				}
				s.publish(ctx, EventPrescriptionExpired, p.ID, statusPayload(p, rx.StatusExpired))
			}
		}
	}

	if rxDirty {
		if err := s.store.SavePrescriptions(ctx, prescriptions); err != nil {
			return nil, err
		}
	}
	if alertsDirty {
		if err := s.store.SaveAlerts(ctx, alerts); err != nil {
			return nil, err
		}
	}

	if s.metrics != nil {
		s.metrics.MonitorSweeps.Inc()
		s.metrics.ActivePrescriptions.Set(float64(countActive(prescriptions)))
	}

	s.logger.Info("automated monitoring sweep complete",
		zap.Int("checked", report.Checked),
		zap.Int("overdue_alerts", report.OverdueAlerts),
		zap.Int("expired", report.Expired),
	)
	return report, nil
}

func countActive(prescriptions []*rx.Prescription) int {
	n := 0
	for _, p := range prescriptions {
		if !p.Status.IsTerminal() {
			n++
		}
	}
	return n
}
