// Package rx implements the prescription aggregate and its lifecycle rules.
package rx

import (
	"time"
)

// Status represents prescription workflow status
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusDispensed  Status = "dispensed"
	StatusExpired    Status = "expired"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusReady, StatusDispensed, StatusExpired:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are permitted from s.
func (s Status) IsTerminal() bool {
	return s == StatusDispensed || s == StatusExpired
}

// Priority represents dispensing priority
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// IsValid reports whether p is a known priority.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Medication is one prescribed drug line item within a prescription.
type Medication struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	GenericName  string `json:"generic_name,omitempty"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	Duration     string `json:"duration"`
	Quantity     int    `json:"quantity"`
	Unit         string `json:"unit"`
	Instructions string `json:"instructions,omitempty"`
	IsControlled bool   `json:"is_controlled"`
}

// PatientInfo is a point-in-time copy of patient contact details, not a live
// reference into a patient registry.
type PatientInfo struct {
	PatientID    string `json:"patient_id"`
	PatientName  string `json:"patient_name"`
	PatientPhone string `json:"patient_phone"`
	PatientEmail string `json:"patient_email,omitempty"`
}

// Details holds the prescriber-facing content of a prescription.
type Details struct {
	PrescriptionNumber string       `json:"prescription_number"`
	DoctorName         string       `json:"doctor_name"`
	DoctorLicense      string       `json:"doctor_license"`
	Medications        []Medication `json:"medications"`
	Instructions       string       `json:"instructions,omitempty"`
	Notes              string       `json:"notes,omitempty"`
}

// Validation carries pharmacist validation state and the interaction
// warnings computed at creation time.
type Validation struct {
	IsValidated      bool                 `json:"is_validated"`
	ValidatedBy      string               `json:"validated_by,omitempty"`
	ValidationNotes  string               `json:"validation_notes,omitempty"`
	DrugInteractions []InteractionWarning `json:"drug_interactions"`
}

// InteractionWarning flags a risk between two medications on the same
// prescription.
type InteractionWarning struct {
	Drug1          string              `json:"drug1"`
	Drug2          string              `json:"drug2"`
	Severity       InteractionSeverity `json:"severity"`
	Description    string              `json:"description"`
	Recommendation string              `json:"recommendation"`
}

// InteractionSeverity grades an interaction warning
type InteractionSeverity string

const (
	SeverityMinor    InteractionSeverity = "minor"
	SeverityModerate InteractionSeverity = "moderate"
	SeverityMajor    InteractionSeverity = "major"
	SeverityCritical InteractionSeverity = "critical"
)

// Metadata holds bookkeeping fields about the record itself.
type Metadata struct {
	CreatedBy      string   `json:"created_by"`
	LastModifiedBy string   `json:"last_modified_by"`
	Priority       Priority `json:"priority"`
	HasInsurance   bool     `json:"has_insurance"`
	TotalItems     int      `json:"total_items"`
}

// Timestamps records when each lifecycle status was first reached. Each
// pointer field is set exactly once.
type Timestamps struct {
	DateCreated   time.Time  `json:"date_created"`
	DateDue       time.Time  `json:"date_due"`
	DateProcessed *time.Time `json:"date_processed,omitempty"`
	DateReady     *time.Time `json:"date_ready,omitempty"`
	DateDispensed *time.Time `json:"date_dispensed,omitempty"`
	DateExpired   *time.Time `json:"date_expired,omitempty"`
}

// AuditEntry is one row of the structured per-prescription audit trail.
type AuditEntry struct {
	Actor     string    `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Message   string    `json:"message,omitempty"`
}

// Prescription is the aggregate root tracking a medication order through the
// pharmacy workflow. It is created by the factory, mutated only through the
// state machine or the automated monitor, and never physically deleted here.
type Prescription struct {
	ID          string       `json:"id"`
	PatientInfo PatientInfo  `json:"patient_info"`
	Details     Details      `json:"prescription_details"`
	Status      Status       `json:"status"`
	Validation  Validation   `json:"validation"`
	Metadata    Metadata     `json:"metadata"`
	Timestamps  Timestamps   `json:"timestamps"`
	AuditLog    []AuditEntry `json:"audit_log"`
}

// Audit appends a structured entry to the prescription's audit trail.
func (p *Prescription) Audit(actor, action, message string, at time.Time) {
	p.AuditLog = append(p.AuditLog, AuditEntry{
		Actor:     actor,
		Timestamp: at,
		Action:    action,
		Message:   message,
	})
}

// ContainsControlled reports whether any medication line is a controlled
// substance.
func (p *Prescription) ContainsControlled() bool {
	for _, m := range p.Details.Medications {
		if m.IsControlled {
			return true
		}
	}
	return false
}
