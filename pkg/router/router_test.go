package router

import (
	"testing"

	"github.com/narayan-clinic/rx-pipeline/pkg/kb"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	base, err := kb.New()
	if err != nil {
		t.Fatalf("kb.New() error = %v", err)
	}
	return New(base)
}

func TestDecideRulesOnlyForShortText(t *testing.T) {
	r := newTestRouter(t)
	d := r.Decide("ok", 0.9)
	if d.Route != RouteRulesOnly {
		t.Errorf("Route = %q, want rules_only", d.Route)
	}
}

func TestDecideLLMOnlyForLongRichText(t *testing.T) {
	r := newTestRouter(t)
	text := "Patient John Doe presents with fever and cough for three days. " +
		"Diagnosis is acute pharyngitis. Prescribed paracetamol 500 mg twice daily for 5 days after food. " +
		"Also prescribed azithromycin 500 mg once daily for 3 days to cover the throat infection. " +
		"Advised to drink plenty of fluids and rest. Follow up in 5 days if symptoms persist. " +
		"Recommended a throat swab if the fever does not settle within two days of starting treatment. " +
		"No known drug allergies reported by the patient during this consultation today."
	d := r.Decide(text, 0.95)
	if d.Route != RouteLLMOnly {
		t.Errorf("Route = %q, want llm_only (score=%.2f)", d.Route, d.Score)
	}
}

func TestDecideEnsembleForModerateText(t *testing.T) {
	r := newTestRouter(t)
	text := "patient has fever and cough, prescribed paracetamol tablet"
	d := r.Decide(text, 0.5)
	if d.Route != RouteEnsemble && d.Route != RouteLLMOnly {
		t.Errorf("Route = %q, want ensemble or llm_only (score=%.2f)", d.Route, d.Score)
	}
}

func TestEndToEndConfidenceIsMin(t *testing.T) {
	if got := EndToEndConfidence(0.9, 0.4); got != 0.4 {
		t.Errorf("EndToEndConfidence() = %v, want 0.4", got)
	}
	if got := EndToEndConfidence(0.3, 0.8); got != 0.3 {
		t.Errorf("EndToEndConfidence() = %v, want 0.3", got)
	}
}
