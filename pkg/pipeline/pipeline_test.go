package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/narayan-clinic/rx-pipeline/pkg/failure"
	"github.com/narayan-clinic/rx-pipeline/pkg/kb"
	"github.com/narayan-clinic/rx-pipeline/pkg/llmclient"
	"github.com/narayan-clinic/rx-pipeline/pkg/metrics"
	"github.com/narayan-clinic/rx-pipeline/pkg/model"
	"github.com/narayan-clinic/rx-pipeline/pkg/transcriber/asr"
)

type fakeASRBackend struct {
	text         string
	audioSeconds float64
	confidence   float64
}

func (f *fakeASRBackend) Transcribe(ctx context.Context, audioPath string, opts asr.Options) (asr.Result, error) {
	confidence := f.confidence
	if confidence == 0 {
		confidence = 0.9
	}
	return asr.Result{Text: f.text, Language: "en", Confidence: confidence, NoSpeechProb: 0.1, AudioSeconds: f.audioSeconds}, nil
}

type fakeLLMClient struct {
	response string
}

func (f *fakeLLMClient) Name() string { return "fake" }

func (f *fakeLLMClient) Generate(ctx context.Context, prompts ...llmclient.Prompt) (string, error) {
	return f.response, nil
}

func newTestPipeline(t *testing.T, transcript, llmJSON string) *Pipeline {
	t.Helper()
	base, err := kb.New()
	if err != nil {
		t.Fatalf("kb.New() error = %v", err)
	}
	asrBackend := &fakeASRBackend{text: transcript, audioSeconds: 30}
	llm := &fakeLLMClient{response: llmJSON}
	return New(asrBackend, asrBackend, llm, base, pipelineNoopPublisher{}, metrics.New())
}

type failingLLMClient struct{}

func (failingLLMClient) Name() string { return "failing" }

func (failingLLMClient) Generate(ctx context.Context, prompts ...llmclient.Prompt) (string, error) {
	return "", errors.New("model unavailable")
}

type pipelineNoopPublisher struct{}

func (pipelineNoopPublisher) Publish(model.Prescription) error { return nil }

func TestProcessEndToEndLLMRoute(t *testing.T) {
	transcript := "Hello John Carter, you have acute pharyngitis with fever and cough for three days. " +
		"Prescribed paracetamol 500 mg twice daily for 5 days after food. Advised to rest and drink plenty of fluids. " +
		"Please follow up in 5 days if symptoms persist. No known allergies reported during this visit today."
	llmJSON := `{"patient_name":"John Carter","complaints":["fever","cough"],"diagnosis":["pharyngitis"],"medicines":[{"name":"paracetamol","dose":"500 mg","frequency":"twice daily","duration":"5 days","instruction":"after food"}],"tests":[],"advice":["rest and drink plenty of fluids"]}`

	p := newTestPipeline(t, transcript, llmJSON)
	rx, report, record, err := p.Process(context.Background(), model.AudioInput{Path: "consult.wav"}, Options{MaxTier: 3, LLMEnabled: true})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if rx.PatientName != "John Carter" {
		t.Errorf("PatientName = %q", rx.PatientName)
	}
	if len(rx.Medicines) != 1 {
		t.Fatalf("Medicines = %+v", rx.Medicines)
	}
	if rx.RunID == "" {
		t.Error("expected a non-empty RunID")
	}
	if record.MedicineCount != 1 {
		t.Errorf("record.MedicineCount = %d, want 1", record.MedicineCount)
	}
	_ = report
}

func TestProcessFallsBackToRulesWhenLLMDisabled(t *testing.T) {
	transcript := "Hello Maria, you have a fever. Take paracetamol 500 mg twice daily for 5 days."
	p := newTestPipeline(t, transcript, `{}`)

	rx, _, _, err := p.Process(context.Background(), model.AudioInput{Path: "consult.wav"}, Options{MaxTier: 1, LLMEnabled: false})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if rx.ExtractionMethod != model.MethodRules {
		t.Errorf("ExtractionMethod = %q, want rules", rx.ExtractionMethod)
	}
}

func TestProcessRulesOnlyKeepsThanglishPatientName(t *testing.T) {
	transcript := "patient peru Karuppan, kaichel iruku, paracetamol 500 mg twice daily"
	p := newTestPipeline(t, transcript, `{}`)

	rx, _, _, err := p.Process(context.Background(), model.AudioInput{Path: "consult.wav"}, Options{MaxTier: 1, LLMEnabled: false})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if rx.Language != model.LanguageThanglish {
		t.Errorf("Language = %q, want thanglish", rx.Language)
	}
	if rx.PatientName != "Karuppan" {
		t.Errorf("PatientName = %q, want Karuppan (survives thanglish normalization)", rx.PatientName)
	}
	if len(rx.Complaints) != 1 || rx.Complaints[0] != "fever" {
		t.Errorf("Complaints = %v, want [fever]", rx.Complaints)
	}
	if len(rx.Medicines) != 1 || rx.Medicines[0].Name != "paracetamol" {
		t.Errorf("Medicines = %+v, want paracetamol", rx.Medicines)
	}
}

func TestProcessSurfacesExtractionErrorWhenBothExtractorsAreEmpty(t *testing.T) {
	base, err := kb.New()
	if err != nil {
		t.Fatalf("kb.New() error = %v", err)
	}
	transcript := "The weather today is quite pleasant and the traffic was light on the way in. " +
		"I took the scenic route along the river and stopped for coffee near the old bridge. " +
		"Several shops were closed for the holiday but the bakery on the corner was open. " +
		"We talked for a while about the upcoming festival and the new community hall. " +
		"Afterward I walked back through the park where children were flying kites in the breeze."
	asrBackend := &fakeASRBackend{text: transcript, audioSeconds: 30, confidence: 1.0}
	p := New(asrBackend, asrBackend, failingLLMClient{}, base, pipelineNoopPublisher{}, metrics.New())

	_, _, _, err = p.Process(context.Background(), model.AudioInput{Path: "consult.wav"}, Options{MaxTier: 3, LLMEnabled: true})
	if err == nil {
		t.Fatal("expected an ExtractionError")
	}
	var f *failure.Failure
	if !errors.As(err, &f) {
		t.Fatalf("expected a *failure.Failure, got %T: %v", err, err)
	}
	if f.Kind != failure.KindExtraction {
		t.Errorf("Kind = %q, want %q", f.Kind, failure.KindExtraction)
	}
}

func TestProcessHonoursCancelledContext(t *testing.T) {
	p := newTestPipeline(t, "hello", `{}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, _, err := p.Process(ctx, model.AudioInput{Path: "consult.wav"}, Options{MaxTier: 1})
	if err == nil {
		t.Fatal("expected a cancellation error")
	}
}
