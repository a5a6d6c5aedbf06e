// Package alert implements operational alerts tied to prescriptions.
//
// Alerts form an append-only log: raising appends, resolving flips a flag.
// Callers filter by type and resolved state.
package alert

import (
	"time"

	"github.com/google/uuid"
)

// Type classifies an alert
type Type string

const (
	TypeControlledSubstance Type = "controlled_substance"
	TypeReadyForPickup      Type = "ready_for_pickup"
	TypeOverdue             Type = "overdue"
)

// Severity grades an alert
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Alert is an operational notification tied to a prescription, resolvable
// independently of the prescription's own lifecycle.
type Alert struct {
	ID                    string     `json:"id"`
	Type                  Type       `json:"type"`
	Severity              Severity   `json:"severity"`
	Message               string     `json:"message"`
	RelatedPrescriptionID string     `json:"related_prescription_id"`
	CreatedAt             time.Time  `json:"created_at"`
	IsResolved            bool       `json:"is_resolved"`
	ResolvedAt            *time.Time `json:"resolved_at,omitempty"`
}

// New builds an unresolved alert.
func New(t Type, severity Severity, message, prescriptionID string, now time.Time) Alert {
	return Alert{
		ID:                    "alert_" + uuid.NewString(),
		Type:                  t,
		Severity:              severity,
		Message:               message,
		RelatedPrescriptionID: prescriptionID,
		CreatedAt:             now,
		IsResolved:            false,
	}
}

// Raise appends a new unresolved alert to the log and returns the updated
// log.
func Raise(log []Alert, t Type, severity Severity, message, prescriptionID string, now time.Time) []Alert {
	return append(log, New(t, severity, message, prescriptionID, now))
}

// Resolve marks the most recent matching unresolved alert resolved.
// Reports whether an alert was resolved.
func Resolve(log []Alert, prescriptionID string, t Type, now time.Time) bool {
	for i := len(log) - 1; i >= 0; i-- {
		a := &log[i]
		if a.RelatedPrescriptionID == prescriptionID && a.Type == t && !a.IsResolved {
			a.IsResolved = true
			ts := now
			a.ResolvedAt = &ts
			return true
		}
	}
	return false
}

// HasUnresolved reports whether the log contains an unresolved alert of the
// given type for the prescription.
func HasUnresolved(log []Alert, prescriptionID string, t Type) bool {
	for i := range log {
		a := &log[i]
		if a.RelatedPrescriptionID == prescriptionID && a.Type == t && !a.IsResolved {
			return true
		}
	}
	return false
}
