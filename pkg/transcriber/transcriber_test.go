package transcriber

import (
	"context"
	"errors"
	"testing"

	"github.com/narayan-clinic/rx-pipeline/pkg/kb"
	"github.com/narayan-clinic/rx-pipeline/pkg/model"
	"github.com/narayan-clinic/rx-pipeline/pkg/transcriber/asr"
)

type fakeBackend struct {
	results []asr.Result
	errs    []error
	calls   int
}

func (f *fakeBackend) Transcribe(ctx context.Context, audioPath string, opts asr.Options) (asr.Result, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return asr.Result{}, f.errs[i]
	}
	if i < len(f.results) {
		return f.results[i], nil
	}
	return asr.Result{}, errors.New("no more fake results")
}

func newKB(t *testing.T) *kb.KnowledgeBase {
	t.Helper()
	base, err := kb.New()
	if err != nil {
		t.Fatalf("kb.New() error = %v", err)
	}
	return base
}

func TestTranscribeTier1Passes(t *testing.T) {
	base := newKB(t)
	tier12 := &fakeBackend{results: []asr.Result{
		{Text: "patient has fever and cough for three days", Language: "en", AudioSeconds: 6, NoSpeechProb: 0.1},
	}}
	tr := New(tier12, nil, base)

	res, err := tr.Transcribe(context.Background(), model.AudioInput{Path: "x.flac"})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if res.Tier != 1 {
		t.Errorf("Tier = %d, want 1", res.Tier)
	}
	if tier12.calls != 1 {
		t.Errorf("expected exactly one tier12 call, got %d", tier12.calls)
	}
}

func TestTranscribeEscalatesToTier2(t *testing.T) {
	base := newKB(t)
	tier12 := &fakeBackend{results: []asr.Result{
		{Text: "fever", Language: "ta", AudioSeconds: 30, NoSpeechProb: 0.1}, // fails wpm/keyword gate
		{Text: "patient has fever and cough", Language: "ta", AudioSeconds: 6, NoSpeechProb: 0.1},
	}}
	tr := New(tier12, nil, base)

	res, err := tr.Transcribe(context.Background(), model.AudioInput{Path: "x.flac"})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if res.Tier != 2 {
		t.Errorf("Tier = %d, want 2", res.Tier)
	}
	if tier12.calls != 2 {
		t.Errorf("expected two tier12 calls, got %d", tier12.calls)
	}
}

func TestTranscribeDegradesOnTier3Failure(t *testing.T) {
	base := newKB(t)
	tier12 := &fakeBackend{results: []asr.Result{
		{Text: "fever", Language: "ta", AudioSeconds: 30, NoSpeechProb: 0.1},
		{Text: "fever", Language: "ta", AudioSeconds: 30, NoSpeechProb: 0.1},
	}}
	tier3 := &fakeBackend{errs: []error{errors.New("allocation failed")}}
	tr := New(tier12, tier3, base)

	res, err := tr.Transcribe(context.Background(), model.AudioInput{Path: "x.flac"})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if res.Tier != -1 {
		t.Errorf("Tier = %d, want -1 (degraded)", res.Tier)
	}
}

func TestTranscribeEmptyTextIsTranscriptionError(t *testing.T) {
	base := newKB(t)
	tier12 := &fakeBackend{results: []asr.Result{{Text: "", Language: "en", AudioSeconds: 1}}}
	tr := New(tier12, nil, base).WithMaxTier(1)

	_, err := tr.Transcribe(context.Background(), model.AudioInput{Path: "x.flac"})
	if err == nil {
		t.Fatal("expected TranscriptionError for empty text, got nil")
	}
}
