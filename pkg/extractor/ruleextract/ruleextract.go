// Package ruleextract implements the Rule Extractor: a
// gazetteer-and-regex extractor that runs over the same Prescription
// schema as the LLM Extractor and is always available as a fallback. It
// never raises; every extraction path returns a (possibly empty)
// Prescription.
package ruleextract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/narayan-clinic/rx-pipeline/pkg/kb"
	"github.com/narayan-clinic/rx-pipeline/pkg/model"
)

// Extractor is the pattern-based extractor.
type Extractor struct {
	kb *kb.KnowledgeBase
}

// New builds a Rule Extractor bound to a Knowledge Base.
func New(base *kb.KnowledgeBase) *Extractor {
	return &Extractor{kb: base}
}

var nameGreetingPatterns = []*regexp.Regexp{
	// Greeting words use an explicit case alternation; (?i) would also
	// relax the [A-Z] anchor that keeps the capture a proper noun.
	regexp.MustCompile(`\b(?:[Hh]ello|[Hh]i|[Gg]ood morning|[Gg]ood evening)[, ]+([A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+)?)\b`),
	// பெயர் is what the Thanglish Normalizer rewrites peru/peyar into, so
	// the pattern works on both raw and normalized text.
	regexp.MustCompile(`[Pp]atient (?:peru|peyar|பெயர்)\s+([A-Za-z]+(?:\s+[A-Za-z]+)?)`),
	// Greeting may carry a tanween diacritic; the name capture is Arabic
	// letters only (U+0621-U+064A) so trailing punctuation is not
	// swallowed into it.
	regexp.MustCompile(`(?:مرحبا|اهلا)[\x{064B}-\x{0652}]*[,، ]+([A-Za-z\x{0621}-\x{064A}]+)`),
}

var medicineWindow = regexp.MustCompile(
	`(?i)\b([A-Za-z]+)\b(?:\s+(\d+(?:\.\d+)?\s*(?:mg|ml|g|mcg)))?(?:\s+(once daily|twice daily|3 times a day|every \d+ hours|once at night|as needed))?(?:\s+for\s+(\d+\s*days?))?(?:\s+(after food|before food|with food|at bedtime))?`)

var testsGazetteer = map[string]model.TestKind{
	"blood test": model.TestLab, "cbc": model.TestLab, "urine test": model.TestLab,
	"x-ray": model.TestImaging, "ultrasound": model.TestImaging, "ct scan": model.TestImaging,
	"throat swab": model.TestHome, "temperature check": model.TestHome,
}

// Extract runs the pattern-based pipeline over normalized text. It never
// errors; a low-signal transcript simply yields a mostly-empty
// Prescription for the Router's chosen downstream (Ensemble or
// Validator) to act on.
func (e *Extractor) Extract(text string) model.Prescription {
	lower := strings.ToLower(text)

	p := model.Prescription{
		PatientName:      e.extractName(text),
		Complaints:       dedup(append(e.extractGazetteerHits(lower, complaintTerms), extractAlternates(lower, complaintAlternates)...)),
		Diagnosis:        dedup(append(e.extractGazetteerHits(lower, diagnosisTerms), extractAlternates(lower, diagnosisAlternates)...)),
		Medicines:        e.extractMedicines(text),
		Tests:            e.extractTests(lower),
		Advice:           dedup(e.extractAdvice(lower)),
		Language:         model.LanguageEnglish,
		Confidence:       0.5,
		ExtractionMethod: model.MethodRules,
	}
	return p
}

func (e *Extractor) extractName(text string) string {
	for _, pattern := range nameGreetingPatterns {
		m := pattern.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		candidate := strings.TrimSpace(m[1])
		if e.looksLikeSymptomOrDrug(candidate) {
			continue
		}
		return candidate
	}
	return ""
}

func (e *Extractor) looksLikeSymptomOrDrug(candidate string) bool {
	lower := strings.ToLower(candidate)
	if e.kb.IsMedicalKeyword(lower) {
		return true
	}
	if _, ok := e.kb.LookupExact(lower); ok {
		return true
	}
	return false
}

var complaintTerms = []string{"fever", "cough", "pain", "headache", "sore throat", "cold", "vomiting", "diarrhea", "rash"}
var diagnosisTerms = []string{"sinusitis", "rhinitis", "pharyngitis", "bronchitis", "gastritis", "infection", "flu"}

// complaintAlternates maps Tamil, Thanglish, and Arabic complaint terms
// to their canonical English form, so a natively-transcribed phrase still
// lands in the same output vocabulary.
var complaintAlternates = map[string]string{
	"kaichel":   "fever",
	"காய்ச்சல்": "fever",
	"حمى":       "fever",
	"سخونة":     "fever",
	"vali":      "pain",
	"வலி":       "pain",
	"الم":       "pain",
	"irumal":    "cough",
	"இருமல்":    "cough",
	"سعال":      "cough",
}

var diagnosisAlternates = map[string]string{
	"التهاب الجيوب الأنفية": "sinusitis",
	"التهاب الحلق":          "pharyngitis",
}

func (e *Extractor) extractGazetteerHits(lower string, terms []string) []string {
	var hits []string
	for _, t := range terms {
		if strings.Contains(lower, t) {
			hits = append(hits, t)
		}
	}
	return hits
}

func extractAlternates(lower string, alternates map[string]string) []string {
	var hits []string
	for term, canonical := range alternates {
		if strings.Contains(lower, term) {
			hits = append(hits, canonical)
		}
	}
	sort.Strings(hits)
	return hits
}

func (e *Extractor) extractMedicines(text string) []model.Medicine {
	var meds []model.Medicine
	seen := map[string]bool{}
	for _, drug := range e.kb.AllDrugs() {
		pattern := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(drug) + `\b`)
		loc := pattern.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if seen[strings.ToLower(drug)] {
			continue
		}
		window := text[loc[0]:]
		if len(window) > 120 {
			window = window[:120]
		}
		m := medicineWindow.FindStringSubmatch(window)

		med := model.Medicine{Name: drug, Route: model.RouteOral}
		if len(m) >= 6 {
			if m[2] != "" {
				dose := strings.TrimSpace(m[2])
				med.Dose = &dose
			}
			med.Frequency = m[3]
			med.Duration = m[4]
			med.Instruction = m[5]
		}
		meds = append(meds, med)
		seen[strings.ToLower(drug)] = true
	}
	return meds
}

func (e *Extractor) extractTests(lower string) []model.TaggedTest {
	var tests []model.TaggedTest
	for name, kind := range testsGazetteer {
		if strings.Contains(lower, name) {
			tests = append(tests, model.TaggedTest{Name: name, Kind: kind})
		}
	}
	sort.Slice(tests, func(i, j int) bool { return tests[i].Name < tests[j].Name })
	return tests
}

func (e *Extractor) extractAdvice(lower string) []string {
	var advice []string
	for keyword, canonical := range e.kb.AdviceTemplates() {
		if strings.Contains(lower, keyword) {
			advice = append(advice, canonical)
		}
	}
	sort.Strings(advice)
	return advice
}

func dedup(items []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(items))
	for _, item := range items {
		key := strings.ToLower(strings.TrimSpace(item))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}
