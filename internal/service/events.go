package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/pharmadesk/go-rxcore/internal/domain/alert"
	"github.com/pharmadesk/go-rxcore/internal/domain/rx"
)

// Event types emitted by the lifecycle engine
const (
	EventPrescriptionCreated = "prescription.created"
	EventStatusChanged       = "prescription.status_changed"
	EventPrescriptionExpired = "prescription.expired"
	EventAlertRaised         = "alert.raised"
	EventAlertResolved       = "alert.resolved"
)

// Event is a lifecycle notification published after persistence.
type Event struct {
	Type           string          `json:"type"`
	PrescriptionID string          `json:"prescription_id"`
	OccurredAt     time.Time       `json:"occurred_at"`
	Payload        json.RawMessage `json:"payload,omitempty"`
}

// Publisher delivers lifecycle events to downstream consumers. Publishing
// is best-effort: the engine persists first and never fails an operation on
// a publish error.
type Publisher interface {
	PublishEvent(ctx context.Context, event Event) error
}

func (s *PrescriptionService) publish(ctx context.Context, eventType, prescriptionID string, payload interface{}) {
	if s.publisher == nil {
		return
	}

	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			s.logger.Error("event payload encode failed", zap.String("type", eventType), zap.Error(err))
			return
		}
		raw = data
	}

	event := Event{
		Type:           eventType,
		PrescriptionID: prescriptionID,
		OccurredAt:     s.cfg.Clock(),
		Payload:        raw,
	}
	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		s.logger.Warn("event publish failed",
			zap.String("type", eventType),
			zap.String("prescription_id", prescriptionID),
			zap.Error(err),
		)
	}
}

func createdPayload(p *rx.Prescription) map[string]interface{} {
	return map[string]interface{}{
		"prescription_number": p.Details.PrescriptionNumber,
		"patient_id":          p.PatientInfo.PatientID,
		"priority":            p.Metadata.Priority,
		"total_items":         p.Metadata.TotalItems,
		"controlled":          p.ContainsControlled(),
		"interaction_count":   len(p.Validation.DrugInteractions),
		"date_due":            p.Timestamps.DateDue,
	}
}

func statusPayload(p *rx.Prescription, to rx.Status) map[string]interface{} {
	return map[string]interface{}{
		"prescription_number": p.Details.PrescriptionNumber,
		"status":              to,
		"actor":               p.Metadata.LastModifiedBy,
	}
}

func alertPayload(a alert.Alert) map[string]interface{} {
	return map[string]interface{}{
		"alert_id": a.ID,
		"type":     a.Type,
		"severity": a.Severity,
		"message":  a.Message,
	}
}
