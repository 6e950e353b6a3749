package asr

import (
	"context"
	"fmt"
	"os"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

// HighCapBackend is the Tier 3 "medium model" backend: a
// higher-capacity, higher-latency ASR call reserved for transcripts that
// failed the Tier 1/2 quality gates. The underlying OpenAI client is
// expensive enough to construct (TLS setup, credential validation) that
// concurrent invocations should share one instance; readiness is gated by
// a sync.Once: "first caller pays the load cost,
// others wait on a one-shot readiness signal."
type HighCapBackend struct {
	apiKey string
	model  string

	once    sync.Once
	client  *openai.Client
	loadErr error
}

// NewHighCapBackend returns a backend that defers client construction
// until the first Transcribe call.
func NewHighCapBackend(apiKey, model string) *HighCapBackend {
	if model == "" {
		model = openai.Whisper1
	}
	return &HighCapBackend{apiKey: apiKey, model: model}
}

func (b *HighCapBackend) ensureLoaded() (*openai.Client, error) {
	b.once.Do(func() {
		if b.apiKey == "" {
			b.loadErr = fmt.Errorf("highcap backend: no API key configured")
			return
		}
		b.client = openai.NewClient(b.apiKey)
	})
	return b.client, b.loadErr
}

// Transcribe runs the lazily-loaded high-capacity model. If allocation
// fails (no client could be constructed), the caller (the Transcriber) is
// expected to fall back to the best prior tier result and mark the
// transcription degraded (transcription_tier = -1).
func (b *HighCapBackend) Transcribe(ctx context.Context, audioPath string, opts Options) (Result, error) {
	client, err := b.ensureLoaded()
	if err != nil {
		return Result{}, err
	}

	f, err := os.Open(audioPath)
	if err != nil {
		return Result{}, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	req := openai.AudioRequest{
		Model:    b.model,
		FilePath: audioPath,
		Reader:   f,
		Language: opts.LanguageHint,
	}

	resp, err := client.CreateTranscription(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("highcap transcription call: %w", err)
	}

	return Result{
		Text:         resp.Text,
		Language:     opts.LanguageHint,
		Confidence:   0.85, // Whisper does not report a scalar confidence; assume high for a successful call.
		NoSpeechProb: 0,
		AudioSeconds: 0,
	}, nil
}
