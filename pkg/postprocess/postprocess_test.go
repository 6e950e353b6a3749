package postprocess

import (
	"testing"

	"github.com/narayan-clinic/rx-pipeline/pkg/kb"
	"github.com/narayan-clinic/rx-pipeline/pkg/model"
)

func newTestPostProcessor(t *testing.T) *PostProcessor {
	t.Helper()
	base, err := kb.New()
	if err != nil {
		t.Fatalf("kb.New() error = %v", err)
	}
	return New(base)
}

func TestProcessCorrectsIllegalFrequency(t *testing.T) {
	pp := newTestPostProcessor(t)
	p := model.Prescription{Medicines: []model.Medicine{{Name: "paracetamol", Frequency: "5 times a day"}}}

	got := pp.Process(p, "patient has fever, take paracetamol")
	if got.Medicines[0].Frequency == "5 times a day" {
		t.Errorf("Frequency was not corrected: %+v", got.Medicines[0])
	}
	found := false
	for _, w := range got.Warnings {
		if w == "frequency corrected for paracetamol" {
			found = true
		}
	}
	if !found {
		t.Errorf("Warnings = %v, want frequency-corrected warning", got.Warnings)
	}
}

func TestProcessAppliesRouteOverride(t *testing.T) {
	pp := newTestPostProcessor(t)
	p := model.Prescription{Medicines: []model.Medicine{{Name: "nasal spray", Route: model.RouteOral}}}

	got := pp.Process(p, "apply nasal spray")
	if got.Medicines[0].Route != model.RouteNasal {
		t.Errorf("Route = %q, want nasal", got.Medicines[0].Route)
	}
}

func TestProcessIgnoresFormTermInsideWord(t *testing.T) {
	pp := newTestPostProcessor(t)
	p := model.Prescription{Medicines: []model.Medicine{{Name: "paracetamol", Instruction: "give after food"}}}

	got := pp.Process(p, "give paracetamol after food")
	if got.Medicines[0].Route != model.RouteOral {
		t.Errorf("Route = %q, want oral ('iv' inside 'give' must not match)", got.Medicines[0].Route)
	}
}

func TestProcessDefaultsRouteToOral(t *testing.T) {
	pp := newTestPostProcessor(t)
	p := model.Prescription{Medicines: []model.Medicine{{Name: "erythromycin"}}}

	got := pp.Process(p, "take erythromycin 500 mg")
	if got.Medicines[0].Route != model.RouteOral {
		t.Errorf("Route = %q, want oral default", got.Medicines[0].Route)
	}
}

func TestProcessGatesUnsupportedAdvice(t *testing.T) {
	pp := newTestPostProcessor(t)
	p := model.Prescription{Advice: []string{"exercise vigorously at the gym"}}

	got := pp.Process(p, "patient has fever, take paracetamol twice daily")
	if len(got.Advice) != 0 {
		t.Errorf("Advice = %v, want empty (no evidence in transcript)", got.Advice)
	}
	found := false
	for _, w := range got.Warnings {
		if w == "advice dropped: exercise vigorously at the gym" {
			found = true
		}
	}
	if !found {
		t.Errorf("Warnings = %v, want advice-dropped warning", got.Warnings)
	}
}

func TestProcessKeepsEvidenceAnchoredAdvice(t *testing.T) {
	pp := newTestPostProcessor(t)
	p := model.Prescription{Advice: []string{"drink plenty fluids"}}

	got := pp.Process(p, "Patient should drink plenty fluids and rest well.")
	if len(got.Advice) != 1 {
		t.Errorf("Advice = %v, want evidence-anchored advice kept", got.Advice)
	}
}

func TestProcessIsIdempotent(t *testing.T) {
	pp := newTestPostProcessor(t)
	transcript := "Hello John, you have sinusitis. Take paracetamol 500 mg, rest and drink plenty fluids."
	p := model.Prescription{
		Diagnosis: []string{"sinusitis"},
		Medicines: []model.Medicine{{Name: "paracetamol", Frequency: "5 times a day"}},
		Advice:    []string{"drink plenty fluids"},
	}

	once := pp.Process(p, transcript)
	twice := pp.Process(once, transcript)
	if len(twice.Warnings) != len(once.Warnings) {
		t.Errorf("second pass added warnings: once=%v twice=%v", once.Warnings, twice.Warnings)
	}
	if twice.Medicines[0].Frequency != once.Medicines[0].Frequency {
		t.Errorf("second pass changed frequency: %q -> %q", once.Medicines[0].Frequency, twice.Medicines[0].Frequency)
	}
	if len(twice.Advice) != len(once.Advice) {
		t.Errorf("second pass changed advice: once=%v twice=%v", once.Advice, twice.Advice)
	}
}

func TestProcessRepairsEmptyPatientName(t *testing.T) {
	pp := newTestPostProcessor(t)
	p := model.Prescription{}

	got := pp.Process(p, "Hello Maria Rodriguez, how are you feeling today")
	if got.PatientName != "Maria Rodriguez" {
		t.Errorf("PatientName = %q, want Maria Rodriguez", got.PatientName)
	}
}
