package idempotency

import (
	"testing"
	"time"
)

func TestGenerateKeyStableWithinMinute(t *testing.T) {
	base := time.Date(2026, 3, 15, 10, 30, 5, 0, time.UTC)
	retry := base.Add(40 * time.Second)

	a := GenerateKey("pat_001", "MD-12345", "Lisinopril 10mg", base)
	b := GenerateKey("pat_001", "MD-12345", "Lisinopril 10mg", retry)
	if a != b {
		t.Errorf("keys differ within the same minute: %q vs %q", a, b)
	}

	next := GenerateKey("pat_001", "MD-12345", "Lisinopril 10mg", base.Add(time.Minute))
	if a == next {
		t.Error("key unchanged across minute boundary")
	}
}

func TestGenerateKeyDistinguishesInputs(t *testing.T) {
	at := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	base := GenerateKey("pat_001", "MD-12345", "Lisinopril 10mg", at)

	if GenerateKey("pat_002", "MD-12345", "Lisinopril 10mg", at) == base {
		t.Error("key ignores patient id")
	}
	if GenerateKey("pat_001", "MD-99999", "Lisinopril 10mg", at) == base {
		t.Error("key ignores doctor license")
	}
	if GenerateKey("pat_001", "MD-12345", "Metformin 500mg", at) == base {
		t.Error("key ignores medication")
	}
	if len(base) != 64 {
		t.Errorf("key length = %d, want 64 hex chars", len(base))
	}
}
