package alert

import (
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func TestRaise(t *testing.T) {
	log := Raise(nil, TypeReadyForPickup, SeverityMedium, "ready for pickup", "rx_1", testNow)

	if len(log) != 1 {
		t.Fatalf("log length = %d, want 1", len(log))
	}
	a := log[0]
	if a.Type != TypeReadyForPickup || a.Severity != SeverityMedium {
		t.Errorf("alert = %+v", a)
	}
	if a.IsResolved {
		t.Error("new alert is resolved")
	}
	if a.ID == "" {
		t.Error("alert id not assigned")
	}
	if !a.CreatedAt.Equal(testNow) {
		t.Errorf("createdAt = %v", a.CreatedAt)
	}
}

func TestResolveMostRecent(t *testing.T) {
	log := Raise(nil, TypeOverdue, SeverityMedium, "first", "rx_1", testNow)
	log = Raise(log, TypeOverdue, SeverityMedium, "second", "rx_1", testNow.Add(time.Hour))

	resolvedAt := testNow.Add(2 * time.Hour)
	if !Resolve(log, "rx_1", TypeOverdue, resolvedAt) {
		t.Fatal("Resolve returned false")
	}

	// Most recent entry resolved, the older one untouched.
	if !log[1].IsResolved {
		t.Error("most recent alert not resolved")
	}
	if log[1].ResolvedAt == nil || !log[1].ResolvedAt.Equal(resolvedAt) {
		t.Errorf("resolvedAt = %v", log[1].ResolvedAt)
	}
	if log[0].IsResolved {
		t.Error("older alert resolved instead")
	}
}

func TestResolveNoMatch(t *testing.T) {
	log := Raise(nil, TypeOverdue, SeverityMedium, "overdue", "rx_1", testNow)

	if Resolve(log, "rx_2", TypeOverdue, testNow) {
		t.Error("resolved alert for wrong prescription")
	}
	if Resolve(log, "rx_1", TypeReadyForPickup, testNow) {
		t.Error("resolved alert of wrong type")
	}

	// Already resolved alerts are not re-resolved.
	Resolve(log, "rx_1", TypeOverdue, testNow)
	if Resolve(log, "rx_1", TypeOverdue, testNow) {
		t.Error("resolved an already-resolved alert")
	}
}

func TestHasUnresolved(t *testing.T) {
	log := Raise(nil, TypeControlledSubstance, SeverityMedium, "verify", "rx_1", testNow)

	if !HasUnresolved(log, "rx_1", TypeControlledSubstance) {
		t.Error("HasUnresolved = false for fresh alert")
	}
	if HasUnresolved(log, "rx_1", TypeOverdue) {
		t.Error("HasUnresolved = true for absent type")
	}
	if HasUnresolved(log, "rx_2", TypeControlledSubstance) {
		t.Error("HasUnresolved = true for wrong prescription")
	}

	Resolve(log, "rx_1", TypeControlledSubstance, testNow)
	if HasUnresolved(log, "rx_1", TypeControlledSubstance) {
		t.Error("HasUnresolved = true after resolve")
	}
}
