package ensemble

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/narayan-clinic/rx-pipeline/pkg/model"
)

func TestMergePrefersRuleName(t *testing.T) {
	llm := model.Prescription{PatientName: "Uncertain Guess"}
	rule := model.Prescription{PatientName: "John Carter"}

	got := Merge(llm, rule)
	if got.PatientName != "John Carter" {
		t.Errorf("PatientName = %q, want John Carter", got.PatientName)
	}
}

func TestMergeFillsMissingMedicineFields(t *testing.T) {
	dose := "500 mg"
	llm := model.Prescription{Medicines: []model.Medicine{{Name: "paracetamol"}}}
	rule := model.Prescription{Medicines: []model.Medicine{{Name: "paracetamol", Dose: &dose, Frequency: "twice daily"}}}

	got := Merge(llm, rule)
	if len(got.Medicines) != 1 {
		t.Fatalf("Medicines = %+v, want 1 entry", got.Medicines)
	}
	m := got.Medicines[0]
	if m.Dose == nil || *m.Dose != "500 mg" || m.Frequency != "twice daily" {
		t.Errorf("Medicines[0] = %+v, want dose/frequency filled from rule", m)
	}
}

func TestMergeUnionsComplaintsDeduped(t *testing.T) {
	llm := model.Prescription{Complaints: []string{"the fever", "cough"}}
	rule := model.Prescription{Complaints: []string{"Fever", "headache"}}

	got := Merge(llm, rule)
	want := []string{"the fever", "cough", "headache"}
	if diff := cmp.Diff(want, got.Complaints); diff != "" {
		t.Errorf("Complaints mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeConfidenceIsMin(t *testing.T) {
	llm := model.Prescription{Confidence: 0.9}
	rule := model.Prescription{Confidence: 0.5}

	got := Merge(llm, rule)
	if got.Confidence != 0.5 {
		t.Errorf("Confidence = %v, want 0.5", got.Confidence)
	}
}

func TestMergeMethodIsAlwaysEnsemble(t *testing.T) {
	got := Merge(model.Prescription{}, model.Prescription{})
	if got.ExtractionMethod != model.MethodEnsemble {
		t.Errorf("ExtractionMethod = %q, want ensemble", got.ExtractionMethod)
	}
}
