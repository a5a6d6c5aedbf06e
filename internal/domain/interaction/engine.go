// Package interaction implements the drug interaction rules engine.
//
// The engine is a pure function over a static pattern table. Each pattern
// names two drug tokens; a warning is emitted when two distinct medications
// on the prescription match the two tokens by case-insensitive substring.
// The table is illustrative, not clinically authoritative.
package interaction

import (
	"strings"

	"github.com/pharmadesk/go-rxcore/internal/domain/rx"
)

// Pattern is one known interacting pair.
type Pattern struct {
	Drug1          string
	Drug2          string
	Severity       rx.InteractionSeverity
	Description    string
	Recommendation string
}

// patterns is the static interaction table. Matching is O(patterns ×
// medications²), fine at prescription scale.
var patterns = []Pattern{
	{
		Drug1:          "warfarin",
		Drug2:          "aspirin",
		Severity:       rx.SeverityMajor,
		Description:    "Increased risk of bleeding when anticoagulants are combined with antiplatelet agents",
		Recommendation: "Avoid combination unless specifically directed; monitor INR closely",
	},
	{
		Drug1:          "warfarin",
		Drug2:          "ibuprofen",
		Severity:       rx.SeverityMajor,
		Description:    "NSAIDs potentiate warfarin and increase gastrointestinal bleeding risk",
		Recommendation: "Prefer acetaminophen for analgesia; monitor for signs of bleeding",
	},
	{
		Drug1:          "sildenafil",
		Drug2:          "nitroglycerin",
		Severity:       rx.SeverityCritical,
		Description:    "PDE5 inhibitors with nitrates can cause severe, refractory hypotension",
		Recommendation: "Combination is contraindicated; separate administration by at least 24 hours",
	},
	{
		Drug1:          "methotrexate",
		Drug2:          "trimethoprim",
		Severity:       rx.SeverityCritical,
		Description:    "Additive antifolate effect may cause bone marrow suppression",
		Recommendation: "Avoid combination; if unavoidable monitor complete blood count weekly",
	},
	{
		Drug1:          "simvastatin",
		Drug2:          "clarithromycin",
		Severity:       rx.SeverityMajor,
		Description:    "CYP3A4 inhibition raises statin levels and the risk of rhabdomyolysis",
		Recommendation: "Suspend the statin during the macrolide course or switch antibiotics",
	},
	{
		Drug1:          "lisinopril",
		Drug2:          "spironolactone",
		Severity:       rx.SeverityModerate,
		Description:    "ACE inhibitors with potassium-sparing diuretics can cause hyperkalemia",
		Recommendation: "Monitor serum potassium and renal function",
	},
	{
		Drug1:          "lisinopril",
		Drug2:          "ibuprofen",
		Severity:       rx.SeverityModerate,
		Description:    "NSAIDs blunt the antihypertensive effect and may impair renal function",
		Recommendation: "Limit NSAID duration; monitor blood pressure and creatinine",
	},
	{
		Drug1:          "digoxin",
		Drug2:          "amiodarone",
		Severity:       rx.SeverityMajor,
		Description:    "Amiodarone raises digoxin levels and can precipitate toxicity",
		Recommendation: "Reduce digoxin dose by half and monitor serum levels",
	},
	{
		Drug1:          "oxycodone",
		Drug2:          "alprazolam",
		Severity:       rx.SeverityMajor,
		Description:    "Opioids with benzodiazepines cause additive CNS and respiratory depression",
		Recommendation: "Avoid concurrent use; if required, use lowest effective doses",
	},
	{
		Drug1:          "tramadol",
		Drug2:          "fluoxetine",
		Severity:       rx.SeverityModerate,
		Description:    "Serotonergic opioids with SSRIs raise the risk of serotonin syndrome",
		Recommendation: "Watch for agitation, hyperthermia and clonus; consider alternatives",
	},
	{
		Drug1:          "ciprofloxacin",
		Drug2:          "tizanidine",
		Severity:       rx.SeverityCritical,
		Description:    "CYP1A2 inhibition multiplies tizanidine exposure causing profound hypotension",
		Recommendation: "Combination is contraindicated",
	},
	{
		Drug1:          "metformin",
		Drug2:          "prednisone",
		Severity:       rx.SeverityMinor,
		Description:    "Corticosteroids raise blood glucose and oppose metformin",
		Recommendation: "Increase glucose monitoring during the steroid course",
	},
}

// Check maps a medication list to the interaction warnings it triggers.
// Pure: no side effects, no ordering guarantee, one warning per matched
// pattern.
func Check(medications []rx.Medication) []rx.InteractionWarning {
	warnings := []rx.InteractionWarning{}

	for _, p := range patterns {
		d1, d2, ok := matchPair(medications, p.Drug1, p.Drug2)
		if !ok {
			continue
		}
		warnings = append(warnings, rx.InteractionWarning{
			Drug1:          d1,
			Drug2:          d2,
			Severity:       p.Severity,
			Description:    p.Description,
			Recommendation: p.Recommendation,
		})
	}

	return warnings
}

// matchPair finds two distinct medications whose names contain the two
// pattern tokens, returning the matched medication names.
func matchPair(medications []rx.Medication, token1, token2 string) (string, string, bool) {
	for i, m1 := range medications {
		if !nameContains(m1, token1) {
			continue
		}
		for j, m2 := range medications {
			if i == j {
				continue
			}
			if nameContains(m2, token2) {
				return m1.Name, m2.Name, true
			}
		}
	}
	return "", "", false
}

func nameContains(m rx.Medication, token string) bool {
	t := strings.ToLower(token)
	if strings.Contains(strings.ToLower(m.Name), t) {
		return true
	}
	return m.GenericName != "" && strings.Contains(strings.ToLower(m.GenericName), t)
}

// Patterns exposes a copy of the static table for reporting surfaces.
func Patterns() []Pattern {
	out := make([]Pattern, len(patterns))
	copy(out, patterns)
	return out
}
