package rx

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func testInput() CreateInput {
	return CreateInput{
		Patient: PatientInfo{
			PatientID:    "pat_001",
			PatientName:  "John Smith",
			PatientPhone: "555-0100",
		},
		DoctorName:    "Dr. Garcia",
		DoctorLicense: "MD-12345",
		Medications: []Medication{
			{Name: "Lisinopril 10mg", Dosage: "1 tablet", Frequency: "daily", Duration: "30 days", Quantity: 30, Unit: "tablets"},
		},
		Priority:  PriorityMedium,
		CreatedBy: "reception",
	}
}

func TestNewPrescription(t *testing.T) {
	p, err := NewPrescription(testInput(), "RX-20260315-ABCD1234", testNow, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("NewPrescription: %v", err)
	}

	if p.Status != StatusPending {
		t.Errorf("status = %q, want %q", p.Status, StatusPending)
	}
	if !strings.HasPrefix(p.ID, "rx_") {
		t.Errorf("id %q missing rx_ prefix", p.ID)
	}
	if p.Details.PrescriptionNumber != "RX-20260315-ABCD1234" {
		t.Errorf("number = %q", p.Details.PrescriptionNumber)
	}
	if !p.Timestamps.DateCreated.Equal(testNow) {
		t.Errorf("dateCreated = %v, want %v", p.Timestamps.DateCreated, testNow)
	}
	if due := p.Timestamps.DateDue.Sub(p.Timestamps.DateCreated); due != 7*24*time.Hour {
		t.Errorf("due window = %v, want 168h", due)
	}
	if p.Metadata.TotalItems != 1 {
		t.Errorf("totalItems = %d, want 1", p.Metadata.TotalItems)
	}
	if p.Details.Medications[0].ID == "" {
		t.Error("medication id not assigned")
	}
	if len(p.AuditLog) != 1 || p.AuditLog[0].Action != "created" {
		t.Errorf("expected single created audit entry, got %+v", p.AuditLog)
	}
}

func TestNewPrescriptionNoMedications(t *testing.T) {
	in := testInput()
	in.Medications = nil

	_, err := NewPrescription(in, "RX-1", testNow, 7*24*time.Hour)
	if !errors.Is(err, ErrNoMedications) {
		t.Fatalf("err = %v, want ErrNoMedications", err)
	}
}

func TestNewPrescriptionDefaultsPriority(t *testing.T) {
	in := testInput()
	in.Priority = ""

	p, err := NewPrescription(in, "RX-1", testNow, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("NewPrescription: %v", err)
	}
	if p.Metadata.Priority != PriorityMedium {
		t.Errorf("priority = %q, want %q", p.Metadata.Priority, PriorityMedium)
	}
}

func TestNewPrescriptionCopiesMedications(t *testing.T) {
	in := testInput()
	p, err := NewPrescription(in, "RX-1", testNow, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("NewPrescription: %v", err)
	}

	in.Medications[0].Name = "mutated"
	if p.Details.Medications[0].Name == "mutated" {
		t.Error("prescription shares medication slice with input")
	}
}

func TestNewNumberFormat(t *testing.T) {
	n := NewNumber(testNow)
	if !strings.HasPrefix(n, "RX-20260315-") {
		t.Errorf("number %q missing date component", n)
	}
	if len(n) != len("RX-20260315-")+8 {
		t.Errorf("number %q has unexpected suffix length", n)
	}
}

func TestContainsControlled(t *testing.T) {
	p := &Prescription{Details: Details{Medications: []Medication{
		{Name: "Lisinopril"},
	}}}
	if p.ContainsControlled() {
		t.Error("ContainsControlled = true for non-controlled meds")
	}

	p.Details.Medications = append(p.Details.Medications, Medication{Name: "Oxycodone", IsControlled: true})
	if !p.ContainsControlled() {
		t.Error("ContainsControlled = false with a controlled med present")
	}
}
