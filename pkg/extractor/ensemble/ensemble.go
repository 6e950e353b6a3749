// Package ensemble implements the Ensemble Merger: a field-wise
// merge of the LLM and Rule Extractor outputs under fixed precedence
// rules, with case-insensitive, article-stripped deduplication.
package ensemble

import (
	"regexp"
	"strings"

	"github.com/narayan-clinic/rx-pipeline/pkg/model"
)

// Merge combines an LLM-extracted and a rule-extracted Prescription into
// one precedence table. The returned Prescription's
// ExtractionMethod is always model.MethodEnsemble.
func Merge(llm, rule model.Prescription) model.Prescription {
	merged := model.Prescription{
		PatientName:      mergeName(llm.PatientName, rule.PatientName),
		Age:              firstNonEmpty(llm.Age, rule.Age),
		Gender:           firstNonEmpty(llm.Gender, rule.Gender),
		Complaints:       mergeLists(llm.Complaints, rule.Complaints),
		Diagnosis:        mergeLists(llm.Diagnosis, rule.Diagnosis),
		Medicines:        mergeMedicines(llm.Medicines, rule.Medicines),
		Tests:            mergeTests(llm.Tests, rule.Tests),
		Advice:           mergeLists(llm.Advice, rule.Advice),
		FollowUpDays:     firstNonNilInt(llm.FollowUpDays, rule.FollowUpDays),
		Language:         llm.Language,
		Confidence:       minFloat(llm.Confidence, rule.Confidence),
		ExtractionMethod: model.MethodEnsemble,
	}
	return merged
}

// mergeName prefers the Rule Extractor's name when present (greeting
// patterns are structurally reliable), falling back to the LLM's.
func mergeName(llmName, ruleName string) string {
	if strings.TrimSpace(ruleName) != "" {
		return ruleName
	}
	return llmName
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func firstNonNilInt(a, b *int) *int {
	if a != nil {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a == 0 {
		return b
	}
	if b == 0 {
		return a
	}
	if a < b {
		return a
	}
	return b
}

var leadingArticle = regexp.MustCompile(`(?i)^(a|an|the)\s+`)

func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return leadingArticle.ReplaceAllString(s, "")
}

// mergeLists union-deduplicates two ordered lists, LLM entries first,
// comparing case-insensitively after stripping a leading article.
func mergeLists(llmItems, ruleItems []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, item := range llmItems {
		key := normalizeKey(item)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	for _, item := range ruleItems {
		key := normalizeKey(item)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}

func mergeTests(llmTests, ruleTests []model.TaggedTest) []model.TaggedTest {
	seen := map[string]bool{}
	var out []model.TaggedTest
	for _, t := range append(append([]model.TaggedTest{}, llmTests...), ruleTests...) {
		key := normalizeKey(t.Name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

// mergeMedicines prefers the LLM record per drug, filling any non-null
// field the LLM left empty from the Rule Extractor's record for the same
// canonical name, and unions in Rule-only drugs the LLM missed.
func mergeMedicines(llmMeds, ruleMeds []model.Medicine) []model.Medicine {
	ruleByName := map[string]model.Medicine{}
	for _, m := range ruleMeds {
		ruleByName[strings.ToLower(m.Name)] = m
	}

	seen := map[string]bool{}
	var out []model.Medicine
	for _, m := range llmMeds {
		key := strings.ToLower(m.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		if rm, ok := ruleByName[key]; ok {
			m = fillMissing(m, rm)
		}
		out = append(out, m)
	}
	for _, m := range ruleMeds {
		key := strings.ToLower(m.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m)
	}
	return out
}

func fillMissing(llm, rule model.Medicine) model.Medicine {
	if llm.Dose == nil {
		llm.Dose = rule.Dose
	}
	if llm.Frequency == "" {
		llm.Frequency = rule.Frequency
	}
	if llm.Duration == "" {
		llm.Duration = rule.Duration
	}
	if llm.Instruction == "" {
		llm.Instruction = rule.Instruction
	}
	if llm.Route == "" {
		llm.Route = rule.Route
	}
	return llm
}
