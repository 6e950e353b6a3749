// Package config collects the environment-variable driven settings needed
// to construct the pipeline's external collaborators (ASR backend, LLM
// backends, and the canonical-JSON handoff path): thin getters over
// os.Getenv, loaded once at process start via godotenv.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Load reads a local .env file if present. A missing file is not an
// error; the process may have its environment set some other way.
func Load() {
	_ = godotenv.Load()
}

// VolcAppID returns the Volcengine/Ark application ID used by the ASR
// backend and the Volcengine LLM backend.
func VolcAppID() string {
	return os.Getenv("VOLC_APPID")
}

// VolcToken returns the Volcengine/Ark access token.
func VolcToken() string {
	return os.Getenv("VOLC_TOKEN")
}

// ArkAPIKey returns the API key for the Volcengine Ark Responses API.
func ArkAPIKey() string {
	return os.Getenv("ARK_API_KEY")
}

// GeminiAPIKey returns the Google Gemini API key.
func GeminiAPIKey() string {
	return os.Getenv("GEMINI_API_KEY")
}

// OpenAIAPIKey returns the OpenAI API key, used both for the LLM fallback
// backend and the Whisper-compatible Tier-3 ASR backend.
func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

// ModelPreference returns the ordered list of model identifiers the LLM
// Extractor should attempt, read from RX_MODEL_PREFERENCE as a
// comma-separated list. Falls back to a sane default chain when unset.
func ModelPreference() []string {
	raw := os.Getenv("RX_MODEL_PREFERENCE")
	if raw == "" {
		return []string{"doubao-seed-1-8-251228", "gemini-2.5-flash", "gpt-4o-mini"}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// HandoffPath returns the rendezvous file path that the pipeline publishes
// the final Prescription JSON document to, for external UIs to auto-fill
// from. Defaults to "./rx-handoff.json".
func HandoffPath() string {
	if p := os.Getenv("RX_HANDOFF_PATH"); p != "" {
		return p
	}
	return "./rx-handoff.json"
}

// MetricsPath returns the path that ndjson metrics records are appended to.
func MetricsPath() string {
	if p := os.Getenv("RX_METRICS_PATH"); p != "" {
		return p
	}
	return "./rx-metrics.ndjson"
}

// LLMEnabled returns whether the LLM Extractor and Ensemble routes may be
// selected at all, read from RX_LLM_ENABLED (default true).
func LLMEnabled() bool {
	v := os.Getenv("RX_LLM_ENABLED")
	if v == "" {
		return true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return true
	}
	return b
}
