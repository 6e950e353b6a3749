package ruleextract

import (
	"testing"

	"github.com/narayan-clinic/rx-pipeline/pkg/kb"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	base, err := kb.New()
	if err != nil {
		t.Fatalf("kb.New() error = %v", err)
	}
	return New(base)
}

func TestExtractNeverFailsOnEmptyInput(t *testing.T) {
	e := newTestExtractor(t)
	p := e.Extract("")
	if p.Medicines == nil && p.PatientName != "" {
		t.Errorf("expected empty shell, got %+v", p)
	}
}

func TestExtractName(t *testing.T) {
	e := newTestExtractor(t)
	p := e.Extract("Hello John Carter, you have a fever.")
	if p.PatientName != "John Carter" {
		t.Errorf("PatientName = %q, want John Carter", p.PatientName)
	}
}

func TestExtractNameFromNormalizedThanglish(t *testing.T) {
	e := newTestExtractor(t)
	p := e.Extract("patient பெயர் Karuppan காய்ச்சல் இருக்கு paracetamol 500 mg")
	if p.PatientName != "Karuppan" {
		t.Errorf("PatientName = %q, want Karuppan", p.PatientName)
	}
}

func TestExtractNameRequiresCapitalizedName(t *testing.T) {
	e := newTestExtractor(t)
	p := e.Extract("Hi, you are feeling unwell today.")
	if p.PatientName != "" {
		t.Errorf("PatientName = %q, want empty (lowercase tokens are not a name)", p.PatientName)
	}
}

func TestExtractRejectsSymptomAsName(t *testing.T) {
	e := newTestExtractor(t)
	p := e.Extract("Hello Fever, how are you feeling today")
	if p.PatientName != "" {
		t.Errorf("PatientName = %q, want empty (symptom word rejected)", p.PatientName)
	}
}

func TestExtractMedicine(t *testing.T) {
	e := newTestExtractor(t)
	p := e.Extract("Take paracetamol 500 mg twice daily for 5 days after food")
	if len(p.Medicines) != 1 {
		t.Fatalf("Medicines = %+v, want 1 entry", p.Medicines)
	}
	med := p.Medicines[0]
	if med.Name != "paracetamol" {
		t.Errorf("Name = %q, want paracetamol", med.Name)
	}
	if med.Dose == nil || *med.Dose != "500 mg" {
		t.Errorf("Dose = %v, want 500 mg", med.Dose)
	}
}

func TestExtractComplaintAlternates(t *testing.T) {
	e := newTestExtractor(t)

	p := e.Extract("patient peru Karuppan, kaichel for two days")
	if len(p.Complaints) != 1 || p.Complaints[0] != "fever" {
		t.Errorf("Complaints = %v, want [fever]", p.Complaints)
	}

	p = e.Extract("مرحبا فاطمة، لديها التهاب الجيوب الأنفية")
	if len(p.Diagnosis) != 1 || p.Diagnosis[0] != "sinusitis" {
		t.Errorf("Diagnosis = %v, want [sinusitis]", p.Diagnosis)
	}
}

func TestExtractTestsAndAdvice(t *testing.T) {
	e := newTestExtractor(t)
	p := e.Extract("Get an x-ray done and rest well, drink plenty of water.")
	foundXray := false
	for _, tst := range p.Tests {
		if tst.Name == "x-ray" {
			foundXray = true
		}
	}
	if !foundXray {
		t.Errorf("Tests = %+v, want x-ray", p.Tests)
	}
	if len(p.Advice) == 0 {
		t.Error("expected non-empty advice")
	}
}
