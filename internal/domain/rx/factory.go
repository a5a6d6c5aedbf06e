package rx

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNoMedications rejects creation input with an empty medication list.
// Input shape validation beyond this is the form validator's job; the
// factory only defends against the case that would produce a useless record.
var ErrNoMedications = errors.New("prescription requires at least one medication")

// CreateInput is the already-validated input to the prescription factory.
type CreateInput struct {
	Patient       PatientInfo
	DoctorName    string
	DoctorLicense string
	Medications   []Medication
	Instructions  string
	Notes         string
	Priority      Priority
	HasInsurance  bool
	CreatedBy     string
}

// NewPrescription builds a pending prescription aggregate from input.
// Interaction checking and persistence are the caller's concern; dueWindow
// determines how far past creation the pickup deadline falls.
func NewPrescription(in CreateInput, number string, now time.Time, dueWindow time.Duration) (*Prescription, error) {
	if len(in.Medications) == 0 {
		return nil, ErrNoMedications
	}

	priority := in.Priority
	if !priority.IsValid() {
		priority = PriorityMedium
	}

	meds := make([]Medication, len(in.Medications))
	copy(meds, in.Medications)
	for i := range meds {
		if meds[i].ID == "" {
			meds[i].ID = "med_" + uuid.NewString()
		}
	}

	p := &Prescription{
		ID:          NewID(),
		PatientInfo: in.Patient,
		Details: Details{
			PrescriptionNumber: number,
			DoctorName:         in.DoctorName,
			DoctorLicense:      in.DoctorLicense,
			Medications:        meds,
			Instructions:       in.Instructions,
			Notes:              in.Notes,
		},
		Status: StatusPending,
		Validation: Validation{
			DrugInteractions: []InteractionWarning{},
		},
		Metadata: Metadata{
			CreatedBy:      in.CreatedBy,
			LastModifiedBy: in.CreatedBy,
			Priority:       priority,
			HasInsurance:   in.HasInsurance,
			TotalItems:     len(meds),
		},
		Timestamps: Timestamps{
			DateCreated: now,
			DateDue:     now.Add(dueWindow),
		},
	}

	p.Audit(in.CreatedBy, "created", fmt.Sprintf("prescription %s created with %d medication(s)", number, len(meds)), now)
	return p, nil
}

// NewID returns a fresh prescription id.
func NewID() string {
	return "rx_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewNumber generates a candidate prescription number. Uniqueness against
// the store is the caller's responsibility; the random suffix makes
// collisions rare enough that one retry loop suffices.
func NewNumber(now time.Time) string {
	suffix := make([]byte, 4)
	rand.Read(suffix)
	return fmt.Sprintf("RX-%s-%s", now.Format("20060102"), strings.ToUpper(hex.EncodeToString(suffix)))
}
