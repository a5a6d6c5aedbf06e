package interaction

import (
	"testing"

	"github.com/pharmadesk/go-rxcore/internal/domain/rx"
)

func med(name string) rx.Medication {
	return rx.Medication{Name: name, Dosage: "1 tablet", Frequency: "daily"}
}

func TestCheckWarfarinAspirin(t *testing.T) {
	warnings := Check([]rx.Medication{med("Warfarin 5mg"), med("Aspirin 81mg")})

	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d: %+v", len(warnings), warnings)
	}

	w := warnings[0]
	if w.Severity != rx.SeverityMajor {
		t.Errorf("severity = %q, want %q", w.Severity, rx.SeverityMajor)
	}
	if w.Drug1 != "Warfarin 5mg" && w.Drug2 != "Warfarin 5mg" {
		t.Errorf("warning does not reference warfarin: %+v", w)
	}
	if w.Drug1 != "Aspirin 81mg" && w.Drug2 != "Aspirin 81mg" {
		t.Errorf("warning does not reference aspirin: %+v", w)
	}
	if w.Description == "" || w.Recommendation == "" {
		t.Errorf("warning missing description or recommendation: %+v", w)
	}
}

func TestCheckNoInteraction(t *testing.T) {
	warnings := Check([]rx.Medication{med("Lisinopril 10mg")})
	if warnings == nil {
		t.Fatal("expected non-nil empty slice")
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %+v", warnings)
	}

	warnings = Check(nil)
	if len(warnings) != 0 {
		t.Errorf("expected no warnings for empty list, got %+v", warnings)
	}
}

func TestCheckCaseInsensitive(t *testing.T) {
	warnings := Check([]rx.Medication{med("WARFARIN"), med("aspirin")})
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warnings))
	}
}

func TestCheckGenericNameMatch(t *testing.T) {
	meds := []rx.Medication{
		{Name: "Coumadin 5mg", GenericName: "warfarin sodium"},
		{Name: "Aspirin 81mg"},
	}
	warnings := Check(meds)
	if len(warnings) != 1 {
		t.Fatalf("expected generic name to match, got %d warnings", len(warnings))
	}
}

func TestCheckOneWarningPerPattern(t *testing.T) {
	// Two aspirin lines against one warfarin line still yield a single
	// report for the pair.
	meds := []rx.Medication{
		med("Warfarin 5mg"),
		med("Aspirin 81mg"),
		med("Aspirin 325mg"),
	}
	warnings := Check(meds)
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning for duplicated pair, got %d: %+v", len(warnings), warnings)
	}
}

func TestCheckMultiplePatterns(t *testing.T) {
	meds := []rx.Medication{
		med("Warfarin 5mg"),
		med("Aspirin 81mg"),
		med("Ibuprofen 400mg"),
	}
	warnings := Check(meds)

	// warfarin+aspirin and warfarin+ibuprofen both fire.
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %d: %+v", len(warnings), warnings)
	}
}

func TestCheckCriticalPair(t *testing.T) {
	warnings := Check([]rx.Medication{med("Sildenafil 50mg"), med("Nitroglycerin 0.4mg")})
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warnings))
	}
	if warnings[0].Severity != rx.SeverityCritical {
		t.Errorf("severity = %q, want %q", warnings[0].Severity, rx.SeverityCritical)
	}
}

func TestPatternsReturnsCopy(t *testing.T) {
	ps := Patterns()
	if len(ps) == 0 {
		t.Fatal("expected non-empty pattern table")
	}
	ps[0].Drug1 = "mutated"

	if Patterns()[0].Drug1 == "mutated" {
		t.Error("Patterns exposed internal table")
	}
}
