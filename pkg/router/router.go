// Package router implements the Router: a composite quality score
// over the normalized transcript that selects one of LLM-only, Ensemble,
// or Rules-only extraction, and attaches the retry/timeout budget for
// whichever path is chosen.
package router

import (
	"strings"
	"time"

	"github.com/narayan-clinic/rx-pipeline/pkg/kb"
)

// Route names the extraction path selected for an invocation.
type Route string

const (
	RouteLLMOnly   Route = "llm_only"
	RouteEnsemble  Route = "ensemble"
	RouteRulesOnly Route = "rules_only"
)

// Config carries the retry budget and timeout attached to the chosen
// route, used by the extractor stage that the Router selects.
type Config struct {
	RetryBudget int
	Timeout     time.Duration
}

// Decision is the Router's output.
type Decision struct {
	Route      Route
	Config     Config
	Score      float64
	HasKeyword bool
}

// Router scores normalized text and picks an extraction path.
type Router struct {
	kb *kb.KnowledgeBase
}

// New builds a Router bound to a Knowledge Base (for keyword density).
func New(base *kb.KnowledgeBase) *Router {
	return &Router{kb: base}
}

// Decide scores text against transcription quality and returns a routing
// Decision.
func (r *Router) Decide(text string, asrConfidence float64) Decision {
	score := r.score(text, asrConfidence)
	hasKeyword := r.kb.KeywordDensity(text) > 0

	switch {
	case score >= 0.75:
		return Decision{Route: RouteLLMOnly, Config: Config{RetryBudget: 2, Timeout: 20 * time.Second}, Score: score, HasKeyword: hasKeyword}
	case score >= 0.45 && hasKeyword:
		return Decision{Route: RouteEnsemble, Config: Config{RetryBudget: 2, Timeout: 25 * time.Second}, Score: score, HasKeyword: hasKeyword}
	default:
		return Decision{Route: RouteRulesOnly, Config: Config{RetryBudget: 0, Timeout: 5 * time.Second}, Score: score, HasKeyword: hasKeyword}
	}
}

func (r *Router) score(text string, asrConfidence float64) float64 {
	length := lengthBucket(text)
	uniqueness := uniqueSentenceRatio(text)
	density := r.kb.KeywordDensity(text)
	if density > 1 {
		density = 1
	}

	return 0.3*length + 0.25*uniqueness + 0.25*density + 0.2*clamp01(asrConfidence)
}

func lengthBucket(text string) float64 {
	n := len(strings.TrimSpace(text))
	switch {
	case n < 50:
		return 0
	case n < 150:
		return 0.3
	case n < 400:
		return 0.6
	default:
		return 1.0
	}
}

func uniqueSentenceRatio(text string) float64 {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return 0
	}
	seen := make(map[string]bool, len(sentences))
	for _, s := range sentences {
		seen[strings.ToLower(strings.TrimSpace(s))] = true
	}
	return float64(len(seen)) / float64(len(sentences))
}

func splitSentences(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(text[start:i]); s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// EndToEndConfidence implements the min-rule for the single confidence
// value published into the final Prescription.
func EndToEndConfidence(transcriptionConfidence, extractorConfidence float64) float64 {
	if transcriptionConfidence < extractorConfidence {
		return transcriptionConfidence
	}
	return extractorConfidence
}
