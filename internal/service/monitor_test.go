package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pharmadesk/go-rxcore/internal/domain/alert"
	"github.com/pharmadesk/go-rxcore/internal/domain/rx"
)

// createReady walks a fresh prescription to ready and returns its id.
func createReady(t *testing.T, svc *PrescriptionService) string {
	t.Helper()
	ctx := context.Background()

	p, err := svc.Create(ctx, sampleInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ok, err := svc.UpdateStatus(ctx, p.ID, rx.StatusProcessing, "pharmacist", ""); err != nil || !ok {
		t.Fatalf("to processing: ok=%v err=%v", ok, err)
	}
	if ok, err := svc.UpdateStatus(ctx, p.ID, rx.StatusReady, "pharmacist", ""); err != nil || !ok {
		t.Fatalf("to ready: ok=%v err=%v", ok, err)
	}
	return p.ID
}

func TestMonitoringRaisesOverdueAlert(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()

	id := createReady(t, svc)

	// Four days past ready, still inside the due window.
	clock.Advance(4 * 24 * time.Hour)

	report, err := svc.RunMonitoring(ctx)
	if err != nil {
		t.Fatalf("RunMonitoring: %v", err)
	}
	if report.Checked != 1 || report.OverdueAlerts != 1 || report.Expired != 0 {
		t.Fatalf("report = %+v", report)
	}

	alerts, _ := svc.Alerts(ctx)
	var overdue *alert.Alert
	for i := range alerts {
		if alerts[i].Type == alert.TypeOverdue {
			overdue = &alerts[i]
		}
	}
	if overdue == nil {
		t.Fatalf("no overdue alert in %+v", alerts)
	}
	if overdue.RelatedPrescriptionID != id {
		t.Errorf("relatedPrescriptionID = %q", overdue.RelatedPrescriptionID)
	}
	if !strings.Contains(overdue.Message, "4 days") {
		t.Errorf("message %q missing elapsed day count", overdue.Message)
	}
}

func TestMonitoringSweepIsIdempotent(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()

	createReady(t, svc)
	clock.Advance(4 * 24 * time.Hour)

	if _, err := svc.RunMonitoring(ctx); err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	second, err := svc.RunMonitoring(ctx)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if second.OverdueAlerts != 0 {
		t.Errorf("second sweep raised %d overdue alerts", second.OverdueAlerts)
	}

	alerts, _ := svc.Alerts(ctx)
	count := 0
	for _, a := range alerts {
		if a.Type == alert.TypeOverdue {
			count++
		}
	}
	if count != 1 {
		t.Errorf("overdue alerts in log = %d, want 1", count)
	}
}

func TestMonitoringBelowThreshold(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()

	createReady(t, svc)
	clock.Advance(2 * 24 * time.Hour)

	report, err := svc.RunMonitoring(ctx)
	if err != nil {
		t.Fatalf("RunMonitoring: %v", err)
	}
	if report.OverdueAlerts != 0 {
		t.Errorf("alert raised below threshold: %+v", report)
	}
}

func TestMonitoringExpiresPastDue(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, sampleInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Past the seven day due window.
	clock.Advance(8 * 24 * time.Hour)

	report, err := svc.RunMonitoring(ctx)
	if err != nil {
		t.Fatalf("RunMonitoring: %v", err)
	}
	if report.Expired != 1 {
		t.Fatalf("report = %+v, want 1 expired", report)
	}

	got, _ := svc.Get(ctx, p.ID)
	if got.Status != rx.StatusExpired {
		t.Errorf("status = %q, want expired", got.Status)
	}
	if got.Timestamps.DateExpired == nil {
		t.Error("dateExpired not stamped")
	}

	// Re-running does not re-expire.
	again, err := svc.RunMonitoring(ctx)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if again.Expired != 0 {
		t.Errorf("second sweep expired %d records", again.Expired)
	}
}

func TestMonitoringLeavesDispensedAlone(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()

	id := createReady(t, svc)
	if ok, err := svc.UpdateStatus(ctx, id, rx.StatusDispensed, "pharmacist", ""); err != nil || !ok {
		t.Fatalf("to dispensed: ok=%v err=%v", ok, err)
	}

	clock.Advance(10 * 24 * time.Hour)

	report, err := svc.RunMonitoring(ctx)
	if err != nil {
		t.Fatalf("RunMonitoring: %v", err)
	}
	if report.Expired != 0 || report.OverdueAlerts != 0 {
		t.Errorf("dispensed record touched: %+v", report)
	}

	got, _ := svc.Get(ctx, id)
	if got.Status != rx.StatusDispensed {
		t.Errorf("status = %q", got.Status)
	}
}

func TestMonitoringEmptyStore(t *testing.T) {
	svc, _, _ := newTestService(t)

	report, err := svc.RunMonitoring(context.Background())
	if err != nil {
		t.Fatalf("RunMonitoring: %v", err)
	}
	if report.Checked != 0 || report.OverdueAlerts != 0 || report.Expired != 0 {
		t.Errorf("report = %+v", report)
	}
}
