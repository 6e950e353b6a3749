// Package llmclient wraps the three LLM backends (Volcengine Ark, Gemini,
// OpenAI-compatible) behind one interface, each guarded by its own circuit
// breaker, and provides the sequential-fallback client the LLM Extractor
// drives through a shared rate limiter.
package llmclient

import (
	"context"
	"fmt"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Prompt is a unit of input sent to a backend. Only TextPrompt is
// supported today; the interface leaves room for future multimodal
// prompts without changing Client's signature.
type Prompt interface {
	isPrompt()
}

// TextPrompt is plain-text prompt content.
type TextPrompt string

func (TextPrompt) isPrompt() {}

// Client generates text from a sequence of prompts.
type Client interface {
	Name() string
	Generate(ctx context.Context, prompts ...Prompt) (string, error)
}

// WithBreaker wraps a Client with a circuit breaker so repeated backend
// failures stop being retried immediately and instead fail fast until the
// breaker's cooldown elapses.
func WithBreaker(c Client) Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        c.Name(),
		MaxRequests: 1,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 3 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
	})
	return &breakerClient{inner: c, breaker: breaker}
}

type breakerClient struct {
	inner   Client
	breaker *gobreaker.CircuitBreaker
}

func (b *breakerClient) Name() string { return b.inner.Name() }

func (b *breakerClient) Generate(ctx context.Context, prompts ...Prompt) (string, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		return b.inner.Generate(ctx, prompts...)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			return "", fmt.Errorf("%s: circuit breaker open: %w", b.inner.Name(), err)
		}
		return "", err
	}
	return result.(string), nil
}

// Fallback tries each backend in order, rate-limited, stopping at the
// first success. It models the LLM Extractor's "sequential model
// fallback" requirement as a single composed Client.
type Fallback struct {
	backends []Client
	limiter  *rate.Limiter
}

// NewFallback builds a sequential-fallback Client over backends, each call
// gated by a shared limiter so a burst of retries across backends cannot
// exceed the configured rate.
func NewFallback(limiter *rate.Limiter, backends ...Client) *Fallback {
	return &Fallback{backends: backends, limiter: limiter}
}

func (f *Fallback) Name() string { return "fallback" }

// Generate attempts each backend in order. It returns the first success;
// if all backends fail it returns the last error, wrapped with the names
// of every backend that was tried.
func (f *Fallback) Generate(ctx context.Context, prompts ...Prompt) (string, error) {
	var lastErr error
	var tried []string
	for _, backend := range f.backends {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter: %w", err)
		}
		text, err := backend.Generate(ctx, prompts...)
		if err == nil {
			return text, nil
		}
		tried = append(tried, backend.Name())
		lastErr = err
	}
	if lastErr == nil {
		return "", fmt.Errorf("llmclient: no backends configured")
	}
	return "", fmt.Errorf("llmclient: all backends failed (tried %v): %w", tried, lastErr)
}
