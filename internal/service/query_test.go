package service

import (
	"context"
	"testing"
	"time"

	"github.com/pharmadesk/go-rxcore/internal/domain/rx"
)

func TestGetStats(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, _ := svc.Create(ctx, sampleInput())

	in := sampleInput()
	in.Priority = rx.PriorityUrgent
	second, _ := svc.Create(ctx, in)

	svc.UpdateStatus(ctx, first.ID, rx.StatusProcessing, "pharmacist", "")
	svc.UpdateStatus(ctx, first.ID, rx.StatusReady, "pharmacist", "")
	svc.UpdateStatus(ctx, second.ID, rx.StatusProcessing, "pharmacist", "")
	svc.UpdateStatus(ctx, second.ID, rx.StatusReady, "pharmacist", "")
	svc.UpdateStatus(ctx, second.ID, rx.StatusDispensed, "pharmacist", "")

	stats, err := svc.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.Total != 2 {
		t.Errorf("total = %d, want 2", stats.Total)
	}
	if stats.ByStatus[rx.StatusReady] != 1 || stats.ByStatus[rx.StatusDispensed] != 1 {
		t.Errorf("byStatus = %v", stats.ByStatus)
	}
	if stats.ByPriority[rx.PriorityMedium] != 1 || stats.ByPriority[rx.PriorityUrgent] != 1 {
		t.Errorf("byPriority = %v", stats.ByPriority)
	}
	if stats.ReadyCount != 1 {
		t.Errorf("readyCount = %d, want 1", stats.ReadyCount)
	}
}

func TestGetStatsEmpty(t *testing.T) {
	svc, _, _ := newTestService(t)

	stats, err := svc.GetStats(context.Background())
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.Total != 0 || stats.ReadyCount != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestListByStatus(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, _ := svc.Create(ctx, sampleInput())
	svc.Create(ctx, sampleInput())
	svc.UpdateStatus(ctx, p.ID, rx.StatusProcessing, "pharmacist", "")

	processing, err := svc.ListByStatus(ctx, rx.StatusProcessing)
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	if len(processing) != 1 || processing[0].ID != p.ID {
		t.Errorf("processing = %+v", processing)
	}

	dispensed, _ := svc.ListByStatus(ctx, rx.StatusDispensed)
	if dispensed == nil || len(dispensed) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", dispensed)
	}
}

func TestListOverdue(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()

	readyID := createReady(t, svc)
	svc.Create(ctx, sampleInput())

	// Exactly at the threshold is not yet overdue; past it is.
	clock.Advance(3 * 24 * time.Hour)
	overdue, err := svc.ListOverdue(ctx)
	if err != nil {
		t.Fatalf("ListOverdue: %v", err)
	}
	if len(overdue) != 0 {
		t.Errorf("overdue at exact threshold: %+v", overdue)
	}

	clock.Advance(time.Hour)
	overdue, err = svc.ListOverdue(ctx)
	if err != nil {
		t.Fatalf("ListOverdue: %v", err)
	}
	if len(overdue) != 1 || overdue[0].ID != readyID {
		t.Errorf("overdue = %+v, want the ready record", overdue)
	}
}

func TestSearch(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	svc.Create(ctx, sampleInput())

	other := sampleInput()
	other.Patient.PatientName = "Maria Lopez"
	other.DoctorName = "Dr. Chen"
	other.Medications = []rx.Medication{{Name: "Metformin 500mg", Dosage: "1 tablet", Frequency: "twice daily"}}
	svc.Create(ctx, other)

	tests := []struct {
		query string
		want  int
	}{
		{"smith", 1},
		{"SMITH", 1},
		{"garcia", 1},
		{"metformin", 1},
		{"lopez", 1},
		{"dr.", 2},
		{"nonexistent", 0},
		{"", 0},
		{"   ", 0},
	}
	for _, tc := range tests {
		got, err := svc.Search(ctx, tc.query)
		if err != nil {
			t.Fatalf("Search(%q): %v", tc.query, err)
		}
		if len(got) != tc.want {
			t.Errorf("Search(%q) = %d results, want %d", tc.query, len(got), tc.want)
		}
	}
}

func TestGetUnknownID(t *testing.T) {
	svc, _, _ := newTestService(t)

	got, err := svc.Get(context.Background(), "rx_missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Errorf("Get returned %+v for unknown id", got)
	}
}
