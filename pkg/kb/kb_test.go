package kb

import "testing"

func TestDrugGazetteerIsNonEmpty(t *testing.T) {
	drugs := buildDrugGazetteer()
	if len(drugs) == 0 {
		t.Fatal("expected non-empty gazetteer fixture for this test to be meaningful")
	}
}

func TestLookupExact(t *testing.T) {
	base, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		alias string
		want  string
	}{
		{"tylenol", "paracetamol"},
		{"Crocin", "paracetamol"},
		{"stayhappi", "nitrofurantoin"},
		{"AUGMENTIN", "amoxiclav"},
	}
	for _, tt := range tests {
		got, ok := base.LookupExact(tt.alias)
		if !ok {
			t.Errorf("LookupExact(%q): not found", tt.alias)
			continue
		}
		if got != tt.want {
			t.Errorf("LookupExact(%q) = %q, want %q", tt.alias, got, tt.want)
		}
	}
}

func TestFuzzyMatchDrugFloor(t *testing.T) {
	base, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	canonical, score, ok := base.FuzzyMatchDrug("paracetamal", 0.4)
	if !ok {
		t.Fatalf("expected a fuzzy match above floor, got score %v", score)
	}
	if canonical != "paracetamol" {
		t.Errorf("FuzzyMatchDrug = %q, want paracetamol", canonical)
	}

	if _, _, ok := base.FuzzyMatchDrug("xyzxyzxyz", 0.4); ok {
		t.Errorf("expected no match above floor for gibberish token")
	}
}

func TestAllowedFrequencies(t *testing.T) {
	base, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	freqs := base.AllowedFrequencies("levocetirizine")
	found := false
	for _, f := range freqs {
		if f == "once at night" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected 'once at night' to be allowed for levocetirizine, got %v", freqs)
	}
}

func TestIsDangerousPair(t *testing.T) {
	base, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !base.IsDangerousPair("aspirin", "warfarin") {
		t.Error("expected aspirin+warfarin to be flagged dangerous")
	}
	if !base.IsDangerousPair("warfarin", "aspirin") {
		t.Error("expected dangerous-pair check to be order independent")
	}
	if base.IsDangerousPair("paracetamol", "azithromycin") {
		t.Error("did not expect paracetamol+azithromycin to be flagged dangerous")
	}
}

func TestKeywordDensity(t *testing.T) {
	base, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	density := base.KeywordDensity("patient has fever and cough")
	if density <= 0 {
		t.Errorf("expected positive keyword density, got %v", density)
	}
}
