// Package validate implements the Validator: required-field,
// dose-format, duplicate-medicine, and dangerous-combination checks that
// produce a ValidationReport without discarding the record under review.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/narayan-clinic/rx-pipeline/pkg/kb"
	"github.com/narayan-clinic/rx-pipeline/pkg/model"
)

// Validator runs the checks against a Knowledge Base for dangerous-pair
// lookups.
type Validator struct {
	kb *kb.KnowledgeBase
}

// New builds a Validator bound to a Knowledge Base.
func New(base *kb.KnowledgeBase) *Validator {
	return &Validator{kb: base}
}

var doseFormat = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?\s*(mg|ml|g|mcg)$`)

// Validate runs every check and returns the combined report. A failing
// report still describes a usable Prescription; callers surface it
// rather than discarding the record.
func (v *Validator) Validate(p model.Prescription) model.ValidationReport {
	var errs, warnings []string

	if len(p.Medicines) == 0 {
		errs = append(errs, "at-least-one-medicine-required")
	}
	if len(p.Diagnosis) == 0 {
		warnings = append(warnings, "no-diagnosis-extracted")
	}

	seen := map[string]bool{}
	for _, m := range p.Medicines {
		if m.Dose != nil && strings.TrimSpace(*m.Dose) != "" {
			if !doseFormat.MatchString(strings.ToLower(strings.TrimSpace(*m.Dose))) {
				errs = append(errs, fmt.Sprintf("invalid-dose-format: %s", m.Name))
			}
		}
		key := strings.ToLower(m.Name)
		if seen[key] {
			errs = append(errs, fmt.Sprintf("duplicate-medicine: %s", m.Name))
		}
		seen[key] = true
	}

	warnings = append(warnings, v.dangerousCombinations(p.Medicines)...)

	return model.ValidationReport{
		Valid:    len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
	}
}

func (v *Validator) dangerousCombinations(meds []model.Medicine) []string {
	var warnings []string
	for i := 0; i < len(meds); i++ {
		for j := i + 1; j < len(meds); j++ {
			if v.kb.IsDangerousPair(meds[i].Name, meds[j].Name) {
				warnings = append(warnings, fmt.Sprintf("dangerous-combination: %s + %s", meds[i].Name, meds[j].Name))
			}
		}
	}
	return warnings
}
