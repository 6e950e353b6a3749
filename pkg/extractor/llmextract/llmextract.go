// Package llmextract implements the LLM Extractor: a
// prompt-driven structured extractor with deterministic decoding, a
// four-level JSON recovery strategy with one retry, sequential model
// fallback (delegated to pkg/llmclient.Fallback), and post-extraction
// cleanup (name dedup/validity filtering, fuzzy drug correction with a
// no-undo guard, and dose nulling when no numeric token is present).
package llmextract

import (
	"context"
	"regexp"
	"strings"

	"github.com/narayan-clinic/rx-pipeline/pkg/failure"
	"github.com/narayan-clinic/rx-pipeline/pkg/kb"
	"github.com/narayan-clinic/rx-pipeline/pkg/llmclient"
	"github.com/narayan-clinic/rx-pipeline/pkg/model"
)

const fuzzyFloor = 0.4

// Extractor drives a Client through prompting, JSON recovery, and
// post-extraction cleanup.
type Extractor struct {
	client llmclient.Client
	kb     *kb.KnowledgeBase
}

// New builds an LLM Extractor over a (possibly Fallback-wrapped) Client.
func New(client llmclient.Client, base *kb.KnowledgeBase) *Extractor {
	return &Extractor{client: client, kb: base}
}

// Extract prompts the backend, recovers a JSON Prescription payload, and
// applies post-extraction cleanup. It returns an ExtractionError only
// when the backend itself fails (every configured model exhausted);
// a JSON recovery failure after the retry instead yields a best-effort,
// mostly-empty Prescription with a warning.
func (e *Extractor) Extract(ctx context.Context, text string) (model.Prescription, error) {
	raw, err := e.client.Generate(ctx, llmclient.TextPrompt(buildPrompt(text)))
	if err != nil {
		return model.Prescription{}, failure.Extraction("llmextract", "all configured models failed", err)
	}

	payload, ok := recoverJSON(raw)
	if !ok {
		raw, err = e.client.Generate(ctx, llmclient.TextPrompt(buildRetryPrompt(text)))
		if err != nil {
			return model.Prescription{}, failure.Extraction("llmextract", "all configured models failed on retry", err)
		}
		payload, ok = recoverJSON(raw)
	}

	if !ok {
		return model.Prescription{
			ExtractionMethod: model.MethodLLM,
			Warnings:         []string{"llm-json-recovery-failed"},
		}, nil
	}

	p := e.toPrescription(payload, text)
	return p, nil
}

func (e *Extractor) toPrescription(payload rawPayload, sourceText string) model.Prescription {
	p := model.Prescription{
		PatientName:      e.cleanName(payload.PatientName),
		Age:              payload.Age,
		Gender:           payload.Gender,
		Complaints:       dedupStrings(payload.Complaints),
		Diagnosis:        dedupStrings(payload.Diagnosis),
		Medicines:        e.cleanMedicines(payload.Medicines),
		Tests:            toTaggedTests(payload.Tests),
		Advice:           dedupStrings(payload.Advice),
		FollowUpDays:     payload.FollowUpDays,
		Language:         model.LanguageEnglish,
		Confidence:       0.85,
		ExtractionMethod: model.MethodLLM,
	}
	return p
}

// collapseRepeatedTokens collapses immediately-repeated whitespace-
// separated tokens ("John John Carter" -> "John Carter"), matching
// case-insensitively like the (?i)\b(\w+)(\s+\1\b)+ pattern this
// replaces (Go's RE2 engine does not support backreferences).
func collapseRepeatedTokens(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return s
	}
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(out) > 0 && strings.EqualFold(out[len(out)-1], f) {
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}

// cleanName collapses repeated name tokens ("John John Carter" -> "John
// Carter") and rejects a candidate that matches a known symptom/drug
// word.
func (e *Extractor) cleanName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = collapseRepeatedTokens(name)
	if e.kb.IsMedicalKeyword(strings.ToLower(name)) {
		return ""
	}
	if _, ok := e.kb.LookupExact(name); ok {
		return ""
	}
	return name
}

// cleanMedicines applies fuzzy drug-name correction with a no-undo guard
// (skip correction if the name already exactly matches a canonical or
// alias, since that means a correction already happened upstream in the
// Normalizer) and nulls any dose lacking a numeric token.
func (e *Extractor) cleanMedicines(raw []rawMedicine) []model.Medicine {
	if len(raw) == 0 {
		return nil
	}
	out := make([]model.Medicine, 0, len(raw))
	seen := map[string]bool{}
	for _, rm := range raw {
		name := strings.TrimSpace(rm.Name)
		if name == "" {
			continue
		}

		if canonical, ok := e.kb.LookupExact(name); ok {
			name = canonical
		} else if corrected, _, ok := e.kb.FuzzyMatchDrug(name, fuzzyFloor); ok {
			name = corrected
		}

		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true

		med := model.Medicine{
			Name:        name,
			Frequency:   strings.TrimSpace(rm.Frequency),
			Duration:    strings.TrimSpace(rm.Duration),
			Instruction: strings.TrimSpace(rm.Instruction),
			Route:       model.Route(rm.Route),
		}
		if hasDigit(rm.Dose) {
			dose := strings.TrimSpace(rm.Dose)
			med.Dose = &dose
		}
		out = append(out, med)
	}
	return out
}

var digitPattern = regexp.MustCompile(`[0-9]`)

func hasDigit(s string) bool {
	return digitPattern.MatchString(s)
}

func toTaggedTests(raw []rawTaggedTest) []model.TaggedTest {
	if len(raw) == 0 {
		return nil
	}
	out := make([]model.TaggedTest, 0, len(raw))
	for _, t := range raw {
		if t.Name == "" {
			continue
		}
		out = append(out, model.TaggedTest{Name: t.Name, Kind: model.TestKind(t.Kind)})
	}
	return out
}

func dedupStrings(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := map[string]bool{}
	out := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		key := strings.ToLower(trimmed)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, trimmed)
	}
	return out
}
