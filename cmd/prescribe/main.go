// Command prescribe runs one consultation recording through the full
// extraction pipeline: ASR, cleaning, language detection, normalization,
// routing, extraction, post-processing, and validation, then writes the
// canonical Prescription JSON document to -out (or stdout) and appends one
// ndjson metrics record to the configured metrics path.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/narayan-clinic/rx-pipeline/pkg/config"
	"github.com/narayan-clinic/rx-pipeline/pkg/kb"
	"github.com/narayan-clinic/rx-pipeline/pkg/llmclient"
	"github.com/narayan-clinic/rx-pipeline/pkg/metrics"
	"github.com/narayan-clinic/rx-pipeline/pkg/model"
	"github.com/narayan-clinic/rx-pipeline/pkg/pipeline"
	"github.com/narayan-clinic/rx-pipeline/pkg/transcriber/asr"
)

func main() {
	audioFlag := flag.String("audio", "", "Path to the consultation audio file (required)")
	hintLangFlag := flag.String("hint-lang", "", "ISO language hint (en, ta, ar); empty lets detection decide")
	maxTierFlag := flag.Int("max-tier", 3, "Highest ASR tier allowed (1-3)")
	llmEnabledFlag := flag.Bool("llm-enabled", true, "Allow LLM-only and Ensemble routes")
	timeoutMSFlag := flag.Int("timeout-ms", 30000, "Overall per-invocation timeout in milliseconds (0 disables)")
	outFlag := flag.String("out", "", "Path to write the canonical Prescription JSON document; defaults to stdout")
	volcModelFlag := flag.String("volc-model", "v2", "Volcengine ASR model version: v1 (bigasr) or v2 (seedasr)")
	flag.Parse()

	if *audioFlag == "" {
		log.Fatal("prescribe: -audio is required")
	}

	config.Load()

	appID := config.VolcAppID()
	token := config.VolcToken()
	if appID == "" || token == "" {
		log.Fatal("prescribe: VOLC_APPID and VOLC_TOKEN must be set")
	}

	volcURL := os.Getenv("VOLC_URL")
	if volcURL == "" {
		volcURL = "wss://openspeech.bytedance.com/api/v3/sauc/bigmodel"
	}

	tier12 := asr.NewVolcBackend(volcURL, appID, token)
	tier12.ModelVersion = *volcModelFlag
	tier3 := asr.NewHighCapBackend(config.OpenAIAPIKey(), "")

	llm, err := buildLLMClient()
	if err != nil {
		log.Fatalf("prescribe: building LLM client: %v", err)
	}

	base, err := kb.New()
	if err != nil {
		log.Fatalf("prescribe: loading knowledge base: %v", err)
	}

	collector := metrics.New()
	publisher := pipeline.NewFilePublisher(config.HandoffPath())

	p := pipeline.New(tier12, tier3, llm, base, publisher, collector)

	ctx := context.Background()
	opts := pipeline.Options{
		HintLanguage: *hintLangFlag,
		MaxTier:      *maxTierFlag,
		LLMEnabled:   *llmEnabledFlag && config.LLMEnabled(),
		Timeout:      time.Duration(*timeoutMSFlag) * time.Millisecond,
	}

	rx, report, record, err := p.Process(ctx, model.AudioInput{Path: *audioFlag}, opts)
	if err != nil {
		log.Fatalf("prescribe: pipeline error: %v", err)
	}

	if !report.Valid {
		log.Printf("prescribe: validation reported %d error(s), %d warning(s)", len(report.Errors), len(report.Warnings))
	}

	if err := writeResult(rx, *outFlag); err != nil {
		log.Fatalf("prescribe: writing result: %v", err)
	}

	if err := appendMetrics(collector, config.MetricsPath()); err != nil {
		log.Printf("prescribe: appending metrics: %v", err)
	}

	log.Printf("prescribe: run %s complete in %v (route=%s method=%s)", rx.RunID, record.WallTime, record.Route, record.ExtractionMethod)
}

// buildLLMClient composes the three LLM backends, each circuit-breaker
// wrapped, into a single rate-limited Fallback client, always in the order
// Volcengine, Gemini, OpenAI; config.ModelPreference() supplies the model
// ID for each of those positions, not the order. Backends whose
// credentials are absent are skipped rather than failing the whole process, since a single missing
// key should not prevent the remaining backends from being tried.
func buildLLMClient() (llmclient.Client, error) {
	var backends []llmclient.Client

	if key := config.ArkAPIKey(); key != "" {
		backend, err := llmclient.NewVolcengineBackend(firstOrDefault(config.ModelPreference(), 0, "doubao-seed-1-8-251228"), key)
		if err == nil {
			backends = append(backends, llmclient.WithBreaker(backend))
		}
	}
	if key := config.GeminiAPIKey(); key != "" {
		backend, err := llmclient.NewGeminiBackend(context.Background(), firstOrDefault(config.ModelPreference(), 1, "gemini-2.5-flash"), key)
		if err == nil {
			backends = append(backends, llmclient.WithBreaker(backend))
		}
	}
	if key := config.OpenAIAPIKey(); key != "" {
		backend, err := llmclient.NewOpenAIBackend(firstOrDefault(config.ModelPreference(), 2, "gpt-4o-mini"), key)
		if err == nil {
			backends = append(backends, llmclient.WithBreaker(backend))
		}
	}

	if len(backends) == 0 {
		return nil, fmt.Errorf("no LLM backend credentials configured (set ARK_API_KEY, GEMINI_API_KEY, or OPENAI_API_KEY)")
	}

	limiter := rate.NewLimiter(rate.Limit(2), 4)
	return llmclient.NewFallback(limiter, backends...), nil
}

func firstOrDefault(preference []string, idx int, fallback string) string {
	if idx < len(preference) {
		return preference[idx]
	}
	return fallback
}

func writeResult(rx model.Prescription, outPath string) error {
	data, err := json.MarshalIndent(rx, "", "  ")
	if err != nil {
		return err
	}
	if outPath == "" {
		_, err := os.Stdout.Write(append(data, '\n'))
		return err
	}
	return os.WriteFile(outPath, data, 0o644)
}

func appendMetrics(collector *metrics.Collector, path string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	return collector.ExportNDJSON(f)
}
