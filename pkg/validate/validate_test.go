package validate

import (
	"testing"

	"github.com/narayan-clinic/rx-pipeline/pkg/kb"
	"github.com/narayan-clinic/rx-pipeline/pkg/model"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	base, err := kb.New()
	if err != nil {
		t.Fatalf("kb.New() error = %v", err)
	}
	return New(base)
}

func TestValidateRequiresAtLeastOneMedicine(t *testing.T) {
	v := newTestValidator(t)
	report := v.Validate(model.Prescription{})
	if report.Valid {
		t.Error("expected invalid report for empty medicines")
	}
	if !contains(report.Errors, "at-least-one-medicine-required") {
		t.Errorf("Errors = %v, want at-least-one-medicine-required", report.Errors)
	}
}

func TestValidateRejectsBadDoseFormat(t *testing.T) {
	v := newTestValidator(t)
	dose := "a lot"
	report := v.Validate(model.Prescription{Medicines: []model.Medicine{{Name: "paracetamol", Dose: &dose}}})
	if report.Valid {
		t.Error("expected invalid report for bad dose format")
	}
}

func TestValidateAcceptsGoodDoseFormat(t *testing.T) {
	v := newTestValidator(t)
	dose := "500 mg"
	report := v.Validate(model.Prescription{
		Diagnosis: []string{"pharyngitis"},
		Medicines: []model.Medicine{{Name: "paracetamol", Dose: &dose}},
	})
	if !report.Valid {
		t.Errorf("expected valid report, got errors=%v", report.Errors)
	}
}

func TestValidateFlagsDuplicateMedicines(t *testing.T) {
	v := newTestValidator(t)
	report := v.Validate(model.Prescription{
		Medicines: []model.Medicine{{Name: "paracetamol"}, {Name: "Paracetamol"}},
	})
	if report.Valid {
		t.Error("expected invalid report for duplicate medicines")
	}
}

func TestValidateWarnsOnDangerousCombination(t *testing.T) {
	v := newTestValidator(t)
	report := v.Validate(model.Prescription{
		Medicines: []model.Medicine{{Name: "aspirin"}, {Name: "warfarin"}},
	})
	if !report.Valid {
		t.Errorf("dangerous combination should warn, not invalidate: %v", report.Errors)
	}
	if len(report.Warnings) == 0 {
		t.Error("expected a dangerous-combination warning")
	}
}

func contains(list []string, target string) bool {
	for _, item := range list {
		if item == target {
			return true
		}
	}
	return false
}
