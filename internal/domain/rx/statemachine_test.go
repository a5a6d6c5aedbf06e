package rx

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusExpired, true},
		{StatusPending, StatusReady, false},
		{StatusPending, StatusDispensed, false},
		{StatusProcessing, StatusReady, true},
		{StatusProcessing, StatusExpired, true},
		{StatusProcessing, StatusDispensed, false},
		{StatusProcessing, StatusPending, false},
		{StatusReady, StatusDispensed, true},
		{StatusReady, StatusExpired, true},
		{StatusReady, StatusProcessing, false},
		{StatusDispensed, StatusExpired, false},
		{StatusDispensed, StatusReady, false},
		{StatusExpired, StatusPending, false},
		{StatusExpired, StatusProcessing, false},
		{StatusPending, Status("bogus"), false},
	}

	for _, tc := range tests {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTransitionStampsTimestamp(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	p := &Prescription{Status: StatusPending, Timestamps: Timestamps{DateCreated: now}}

	if !p.Transition(StatusProcessing, "pharmacist", "", now) {
		t.Fatal("pending -> processing rejected")
	}
	if p.Timestamps.DateProcessed == nil || !p.Timestamps.DateProcessed.Equal(now) {
		t.Fatalf("dateProcessed = %v, want %v", p.Timestamps.DateProcessed, now)
	}
	if p.Metadata.LastModifiedBy != "pharmacist" {
		t.Errorf("lastModifiedBy = %q", p.Metadata.LastModifiedBy)
	}
	if len(p.AuditLog) != 1 || p.AuditLog[0].Action != "status_change" {
		t.Errorf("audit log = %+v", p.AuditLog)
	}

	later := now.Add(time.Hour)
	if !p.Transition(StatusReady, "pharmacist", "shelf 4", later) {
		t.Fatal("processing -> ready rejected")
	}
	if p.Timestamps.DateReady == nil || !p.Timestamps.DateReady.Equal(later) {
		t.Fatalf("dateReady = %v, want %v", p.Timestamps.DateReady, later)
	}
	// Earlier stamp untouched.
	if !p.Timestamps.DateProcessed.Equal(now) {
		t.Errorf("dateProcessed changed to %v", p.Timestamps.DateProcessed)
	}
}

func TestTransitionRejectedLeavesRecordUntouched(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	p := &Prescription{Status: StatusPending}

	if p.Transition(StatusDispensed, "pharmacist", "", now) {
		t.Fatal("pending -> dispensed allowed")
	}
	if p.Status != StatusPending {
		t.Errorf("status = %q after rejected transition", p.Status)
	}
	if len(p.AuditLog) != 0 {
		t.Errorf("audit log appended on rejected transition: %+v", p.AuditLog)
	}
	if p.Timestamps.DateDispensed != nil {
		t.Error("timestamp stamped on rejected transition")
	}
}

func TestForceExpire(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	for _, from := range []Status{StatusPending, StatusProcessing, StatusReady} {
		p := &Prescription{Status: from}
		if !p.ForceExpire("automated-monitor", now) {
			t.Errorf("ForceExpire from %s rejected", from)
			continue
		}
		if p.Status != StatusExpired {
			t.Errorf("status = %q after ForceExpire from %s", p.Status, from)
		}
		if p.Timestamps.DateExpired == nil {
			t.Errorf("dateExpired not stamped from %s", from)
		}
	}
}

func TestForceExpireTerminal(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	for _, from := range []Status{StatusDispensed, StatusExpired} {
		p := &Prescription{Status: from}
		if p.ForceExpire("automated-monitor", now) {
			t.Errorf("ForceExpire from terminal %s allowed", from)
		}
		if p.Status != from {
			t.Errorf("status changed from %s to %s", from, p.Status)
		}
	}
}
