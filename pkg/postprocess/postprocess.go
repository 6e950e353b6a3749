// Package postprocess implements the Post-Processor: five ordered
// repair passes over a merged Prescription: frequency legality, the
// form->route override, organ-context repair, evidence-gated advice, and
// a last-resort patient-name repair, run against the cleaned transcript
// that produced it.
package postprocess

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/narayan-clinic/rx-pipeline/pkg/kb"
	"github.com/narayan-clinic/rx-pipeline/pkg/model"
)

// PostProcessor applies the repair passes.
type PostProcessor struct {
	kb *kb.KnowledgeBase
}

// New builds a Post-Processor bound to a Knowledge Base.
func New(base *kb.KnowledgeBase) *PostProcessor {
	return &PostProcessor{kb: base}
}

// Process runs all five passes in order and returns the repaired
// Prescription, with the warnings accumulated along the way appended to
// its Warnings.
func (pp *PostProcessor) Process(p model.Prescription, transcript string) model.Prescription {
	var warnings []string

	p.Medicines, warnings = pp.fixFrequencies(p.Medicines, warnings)
	p.Medicines = pp.applyRouteOverride(p.Medicines)
	p.Diagnosis, warnings = pp.repairOrganContext(p.Diagnosis, transcript, warnings)
	p.Advice, warnings = pp.gateAdvice(p.Advice, transcript, warnings)
	if p.PatientName == "" {
		p.PatientName = repairPatientName(transcript)
	}

	p.Warnings = append(p.Warnings, warnings...)
	return p
}

// fixFrequencies replaces any frequency outside the drug's allowed set
// with the nearest allowed frequency by token overlap, breaking ties
// with the drug's default schedule.
func (pp *PostProcessor) fixFrequencies(meds []model.Medicine, warnings []string) ([]model.Medicine, []string) {
	for i := range meds {
		allowed := pp.kb.AllowedFrequencies(meds[i].Name)
		if len(allowed) == 0 || meds[i].Frequency == "" {
			continue
		}
		if containsFold(allowed, meds[i].Frequency) {
			continue
		}
		nearest := nearestByTokenOverlap(meds[i].Frequency, allowed, pp.kb.DefaultFrequency(meds[i].Name))
		meds[i].Frequency = nearest
		warnings = append(warnings, fmt.Sprintf("frequency corrected for %s", meds[i].Name))
	}
	return meds, warnings
}

func containsFold(list []string, target string) bool {
	for _, item := range list {
		if strings.EqualFold(item, target) {
			return true
		}
	}
	return false
}

func nearestByTokenOverlap(frequency string, allowed []string, defaultFreq string) string {
	want := tokenSet(frequency)
	best := ""
	bestScore := -1
	for _, candidate := range allowed {
		score := overlapCount(want, tokenSet(candidate))
		if score > bestScore {
			bestScore = score
			best = candidate
		} else if score == bestScore && strings.EqualFold(candidate, defaultFreq) {
			best = candidate
		}
	}
	if best == "" && defaultFreq != "" {
		return defaultFreq
	}
	return best
}

func tokenSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = true
	}
	return set
}

func overlapCount(a, b map[string]bool) int {
	n := 0
	for w := range a {
		if b[w] {
			n++
		}
	}
	return n
}

// applyRouteOverride sets the route from any dosage-form term found in
// the medicine name or instruction, overriding an inconsistent
// extractor-provided route. Medicines with no form term and no route
// default to oral.
func (pp *PostProcessor) applyRouteOverride(meds []model.Medicine) []model.Medicine {
	for i := range meds {
		haystack := strings.ToLower(meds[i].Name + " " + meds[i].Instruction)
		// Longest matching term wins, so "ear drops" beats "drops".
		best := ""
		for _, term := range pp.kb.FormTerms() {
			if containsFormTerm(haystack, term) && len(term) > len(best) {
				best = term
			}
		}
		if best != "" {
			if route, ok := pp.kb.FormToRoute(best); ok {
				meds[i].Route = route
			}
		} else if meds[i].Route == "" {
			meds[i].Route = model.RouteOral
		}
	}
	return meds
}

// containsFormTerm requires a whole-word match for single-word form terms
// so "iv" does not fire inside "give"; multi-word terms ("nasal spray")
// use plain substring matching.
func containsFormTerm(haystack, term string) bool {
	if strings.Contains(term, " ") {
		return strings.Contains(haystack, term)
	}
	return containsWord(haystack, term)
}

var sentenceSplit = regexp.MustCompile(`[.!?]+\s*`)
var wordSplit = regexp.MustCompile(`[^a-zA-Z]+`)

// repairOrganContext replaces a disallowed organ word in a diagnosis
// entry with the first allowed one, when a transcript sentence confirms
// the mismatch, and records a warning.
func (pp *PostProcessor) repairOrganContext(diagnoses []string, transcript string, warnings []string) ([]string, []string) {
	lowerSentences := sentenceSplit.Split(strings.ToLower(transcript), -1)

	for i, d := range diagnoses {
		lowerD := strings.ToLower(d)
		for term := range diagnosisTermsIn(lowerD) {
			rule, ok := pp.kb.DiagnosisAnatomy(term)
			if !ok || len(rule.Allowed) == 0 {
				continue
			}
			for _, forbidden := range rule.Forbidden {
				if !containsWord(lowerD, forbidden) {
					continue
				}
				if !sentenceConfirms(lowerSentences, term, forbidden) {
					continue
				}
				diagnoses[i] = replaceWord(d, forbidden, rule.Allowed[0])
				warnings = append(warnings, fmt.Sprintf("organ context corrected for %s", term))
			}
		}
	}
	return diagnoses, warnings
}

var knownDiagnosisTerms = []string{"sinusitis", "rhinitis", "pharyngitis", "bronchitis", "gastritis"}

func diagnosisTermsIn(lower string) map[string]bool {
	found := map[string]bool{}
	for _, d := range knownDiagnosisTerms {
		if containsWord(lower, d) {
			found[d] = true
		}
	}
	return found
}

func sentenceConfirms(sentences []string, diagnosis, forbidden string) bool {
	for _, s := range sentences {
		if containsWord(s, diagnosis) && containsWord(s, forbidden) {
			return true
		}
	}
	return false
}

func containsWord(haystack, word string) bool {
	for _, w := range wordSplit.Split(haystack, -1) {
		if w == word {
			return true
		}
	}
	return false
}

func replaceWord(text, from, to string) string {
	pattern := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(from) + `\b`)
	return pattern.ReplaceAllString(text, to)
}

var adviceIndicator = regexp.MustCompile(`(?i)\b(rest|avoid|drink|take|follow|wait|continue|complete)\b`)

// gateAdvice drops any advice item whose content words (length > 3) are
// not at least 70% present in the transcript, or whose supporting
// sentence lacks an explicit advice indicator. Each dropped item is
// recorded as a warning so the caller can see what the extractor
// hallucinated.
func (pp *PostProcessor) gateAdvice(advice []string, transcript string, warnings []string) ([]string, []string) {
	lower := strings.ToLower(transcript)
	transcriptWords := map[string]bool{}
	for _, w := range strings.Fields(lower) {
		transcriptWords[strings.Trim(w, ".,;:!?")] = true
	}
	sentences := sentenceSplit.Split(lower, -1)

	var kept []string
	for _, item := range advice {
		words := contentWords(item)
		if len(words) == 0 {
			warnings = append(warnings, fmt.Sprintf("advice dropped: %s", item))
			continue
		}
		hits := 0
		for _, w := range words {
			if transcriptWords[w] {
				hits++
			}
		}
		if float64(hits)/float64(len(words)) < 0.7 {
			warnings = append(warnings, fmt.Sprintf("advice dropped: %s", item))
			continue
		}
		if !anySentenceHasIndicator(sentences, words) {
			warnings = append(warnings, fmt.Sprintf("advice dropped: %s", item))
			continue
		}
		kept = append(kept, item)
	}
	return kept, warnings
}

func contentWords(s string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,;:!?")
		if len(w) > 3 {
			words = append(words, w)
		}
	}
	return words
}

func anySentenceHasIndicator(sentences []string, words []string) bool {
	for _, s := range sentences {
		if !adviceIndicator.MatchString(s) {
			continue
		}
		for _, w := range words {
			if strings.Contains(s, w) {
				return true
			}
		}
	}
	return false
}

// repairGreetingPatterns mirror the Rule Extractor's: explicit case
// alternation on the greeting so the [A-Z] name anchor stays strict, and
// the பெயர் alternate so the scan also works on thanglish-normalized text.
var repairGreetingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:[Hh]ello|[Hh]i|[Gg]ood morning|[Gg]ood evening)[, ]+([A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+)?)\b`),
	regexp.MustCompile(`[Pp]atient (?:peru|peyar|பெயர்)\s+([A-Za-z]+(?:\s+[A-Za-z]+)?)`),
	regexp.MustCompile(`(?:مرحبا|اهلا)[\x{064B}-\x{0652}]*[,، ]+([A-Za-z\x{0621}-\x{064A}]+)`),
}

// repairPatientName is the last-pass multilingual greeting scan, run
// when every upstream stage left the name empty.
func repairPatientName(transcript string) string {
	for _, pattern := range repairGreetingPatterns {
		if m := pattern.FindStringSubmatch(transcript); len(m) >= 2 {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
