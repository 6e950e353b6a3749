// Package normalize implements the Dosage/Term Normalizer:
// canonicalizing dosage units and frequency phrasing, applying
// brand->generic substitution ahead of the extractors' own fuzzy
// matching, and flagging diagnosis/anatomy mismatches for the
// Post-Processor's organ-context repair step.
package normalize

import (
	"regexp"
	"strings"

	"github.com/narayan-clinic/rx-pipeline/pkg/kb"
)

// AnatomyFlag records that a sentence mentions both a diagnosis and an
// anatomical term the Knowledge Base disallows for that diagnosis, for
// the Post-Processor to repair.
type AnatomyFlag struct {
	Diagnosis      string
	DisallowedTerm string
	Sentence       string
}

// Result is the Normalizer's output.
type Result struct {
	Text         string
	AnatomyFlags []AnatomyFlag
}

// Normalizer canonicalizes units, frequencies, and brand names.
type Normalizer struct {
	kb *kb.KnowledgeBase
}

// New builds a Normalizer bound to a Knowledge Base.
func New(base *kb.KnowledgeBase) *Normalizer {
	return &Normalizer{kb: base}
}

var unitRules = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)\bmilli\s*grams?\b`), "mg"},
	{regexp.MustCompile(`(?i)\bmgs\b`), "mg"},
	{regexp.MustCompile(`(?i)\bmilli\s*litres?\b`), "ml"},
	{regexp.MustCompile(`(?i)\bmilliliters?\b`), "ml"},
	{regexp.MustCompile(`(?i)\bmicro\s*grams?\b`), "mcg"},
	{regexp.MustCompile(`(?i)\bmcgs\b`), "mcg"},
	{regexp.MustCompile(`(?i)\bgrams?\b`), "g"},
}

var frequencyRules = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)\bonce\s+a\s+day\b`), "once daily"},
	{regexp.MustCompile(`(?i)\bod\b`), "once daily"},
	{regexp.MustCompile(`(?i)\btwice\s+a\s+day\b`), "twice daily"},
	{regexp.MustCompile(`(?i)\btwo\s+times\s+a\s+day\b`), "twice daily"},
	{regexp.MustCompile(`(?i)\bmorning\s+and\s+night\b`), "twice daily"},
	{regexp.MustCompile(`(?i)\bbd\b`), "twice daily"},
	{regexp.MustCompile(`(?i)\bthree\s+times\s+a\s+day\b`), "3 times a day"},
	{regexp.MustCompile(`(?i)\bthrice\s+daily\b`), "3 times a day"},
	{regexp.MustCompile(`(?i)\btds\b`), "3 times a day"},
	{regexp.MustCompile(`(?i)\bevery\s+(\d+)\s+hours?\b`), "every $1 hours"},
	{regexp.MustCompile(`(?i)\bat\s+night\s+only\b`), "once at night"},
	{regexp.MustCompile(`(?i)\bonly\s+at\s+night\b`), "once at night"},
	{regexp.MustCompile(`(?i)\bbefore\s+bed\b`), "once at night"},
	{regexp.MustCompile(`(?i)\bwhen\s+needed\b`), "as needed"},
	{regexp.MustCompile(`(?i)\bprn\b`), "as needed"},
	{regexp.MustCompile(`(?i)\bif\s+required\b`), "as needed"},
}

var sentenceSplit = regexp.MustCompile(`[.!?]+\s*`)
var wordSplit = regexp.MustCompile(`[^a-zA-Z]+`)

// Normalize applies unit/frequency canonicalization and brand->generic
// substitution, then flags any sentence whose diagnosis+anatomy
// combination the Knowledge Base disallows.
func (n *Normalizer) Normalize(text string) Result {
	for _, r := range unitRules {
		text = r.pattern.ReplaceAllString(text, r.replacement)
	}
	for _, r := range frequencyRules {
		text = r.pattern.ReplaceAllString(text, r.replacement)
	}
	text = n.substituteBrands(text)

	return Result{Text: text, AnatomyFlags: n.flagAnatomy(text)}
}

// substituteBrands walks whitespace-delimited tokens and replaces any
// exact brand/alias match with its canonical generic name, ahead of the
// extractors' own fuzzy matching.
func (n *Normalizer) substituteBrands(text string) string {
	words := strings.Fields(text)
	for i, w := range words {
		trimmed := strings.Trim(w, ".,;:!?")
		if trimmed == "" {
			continue
		}
		if canonical, ok := n.kb.LookupExact(trimmed); ok {
			words[i] = strings.Replace(w, trimmed, canonical, 1)
		}
	}
	return strings.Join(words, " ")
}

// flagAnatomy scans each sentence for a known diagnosis term appearing
// alongside an anatomical term its rule disallows.
func (n *Normalizer) flagAnatomy(text string) []AnatomyFlag {
	var flags []AnatomyFlag
	for _, sentence := range sentenceSplit.Split(text, -1) {
		lower := strings.ToLower(sentence)
		if lower == "" {
			continue
		}
		for diagnosis := range diagnosisTermsUsedIn(lower) {
			rule, ok := n.kb.DiagnosisAnatomy(diagnosis)
			if !ok {
				continue
			}
			for _, forbidden := range rule.Forbidden {
				if containsWord(lower, forbidden) {
					flags = append(flags, AnatomyFlag{Diagnosis: diagnosis, DisallowedTerm: forbidden, Sentence: sentence})
				}
			}
		}
	}
	return flags
}

// knownDiagnosisTerms is the fixed set of diagnosis names the anatomy
// table covers; scanning against this small set avoids needing a full
// NER pass inside the Normalizer.
var knownDiagnosisTerms = []string{"sinusitis", "rhinitis", "pharyngitis", "bronchitis", "gastritis"}

func diagnosisTermsUsedIn(lowerSentence string) map[string]bool {
	found := map[string]bool{}
	for _, d := range knownDiagnosisTerms {
		if containsWord(lowerSentence, d) {
			found[d] = true
		}
	}
	return found
}

func containsWord(haystack, word string) bool {
	for _, w := range wordSplit.Split(haystack, -1) {
		if w == word {
			return true
		}
	}
	return false
}
