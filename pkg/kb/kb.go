// Package kb is the Medical Knowledge Base: a static, process-lifetime
// set of reference tables (drug gazetteer, phonetic corrections, dosage
// form/route mapping, diagnosis/anatomy constraints, advice templates,
// and dangerous drug combinations). It is read-only after construction
// and safe for concurrent use by every pipeline stage.
package kb

import (
	"regexp"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/narayan-clinic/rx-pipeline/pkg/failure"
	"github.com/narayan-clinic/rx-pipeline/pkg/model"
)

// DrugEntry is one canonical generic drug and everything the gazetteer
// knows about it.
type DrugEntry struct {
	Canonical          string
	Aliases            []string
	Brands             []string
	TamilForms         []string
	ArabicForms        []string
	AllowedFrequencies []string
	// DefaultFrequency is preferred when a tie must be broken while
	// correcting an illegal frequency.
	DefaultFrequency string
}

// PhoneticCorrection is one ordered regex->replacement rule. First match
// wins.
type PhoneticCorrection struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// AnatomyRule constrains which organ/anatomical terms are compatible with
// a diagnosis.
type AnatomyRule struct {
	Allowed   []string
	Forbidden []string
}

// KnowledgeBase holds every static reference table used downstream.
type KnowledgeBase struct {
	drugsByCanonical map[string]*DrugEntry
	aliasIndex       map[string]string // lowercase alias/brand/translit -> canonical
	phonetic         []PhoneticCorrection
	formToRoute      map[string]model.Route
	diagnosisAnatomy map[string]AnatomyRule
	adviceTemplates  map[string]string // trigger keyword -> canonical advice
	dangerousPairs   map[string]bool   // "a|b" sorted canonical pair
	medicalKeywords  map[string]bool

	fuzzyCache *lru.Cache[string, fuzzyResult]
}

type fuzzyResult struct {
	canonical string
	score     float64
}

// New constructs the Knowledge Base from the embedded static tables. It
// returns a ConfigurationError if the drug gazetteer is empty; every other
// table is allowed to be empty and defaults to a no-op.
func New() (*KnowledgeBase, error) {
	drugs := buildDrugGazetteer()
	if len(drugs) == 0 {
		return nil, failure.Configuration("kb", "drug gazetteer is empty", nil)
	}

	kb := &KnowledgeBase{
		drugsByCanonical: map[string]*DrugEntry{},
		aliasIndex:       map[string]string{},
		formToRoute:      buildFormToRoute(),
		diagnosisAnatomy: buildDiagnosisAnatomy(),
		adviceTemplates:  buildAdviceTemplates(),
		dangerousPairs:   map[string]bool{},
		medicalKeywords:  map[string]bool{},
	}

	cache, err := lru.New[string, fuzzyResult](2048)
	if err != nil {
		return nil, failure.Configuration("kb", "failed to allocate fuzzy-match cache", err)
	}
	kb.fuzzyCache = cache

	for i := range drugs {
		d := &drugs[i]
		kb.drugsByCanonical[d.Canonical] = d
		kb.indexAlias(d.Canonical, d.Canonical)
		for _, a := range d.Aliases {
			kb.indexAlias(a, d.Canonical)
		}
		for _, b := range d.Brands {
			kb.indexAlias(b, d.Canonical)
		}
		for _, t := range d.TamilForms {
			kb.indexAlias(t, d.Canonical)
		}
		for _, a := range d.ArabicForms {
			kb.indexAlias(a, d.Canonical)
		}
		kb.medicalKeywords[strings.ToLower(d.Canonical)] = true
	}

	for _, kw := range extraMedicalKeywords() {
		kb.medicalKeywords[strings.ToLower(kw)] = true
	}

	kb.phonetic = buildPhoneticCorrections()

	for _, pair := range buildDangerousPairs() {
		kb.dangerousPairs[pairKey(pair[0], pair[1])] = true
	}

	return kb, nil
}

func (kb *KnowledgeBase) indexAlias(alias, canonical string) {
	key := strings.ToLower(strings.TrimSpace(alias))
	if key == "" {
		return
	}
	kb.aliasIndex[key] = canonical
}

func pairKey(a, b string) string {
	a, b = strings.ToLower(a), strings.ToLower(b)
	pair := []string{a, b}
	sort.Strings(pair)
	return pair[0] + "|" + pair[1]
}

// LookupExact returns the canonical generic name for an exact alias/brand
// match, case-insensitively.
func (kb *KnowledgeBase) LookupExact(token string) (string, bool) {
	canonical, ok := kb.aliasIndex[strings.ToLower(strings.TrimSpace(token))]
	return canonical, ok
}

// PhoneticCorrections returns the ordered correction list.
func (kb *KnowledgeBase) PhoneticCorrections() []PhoneticCorrection {
	return kb.phonetic
}

// AllowedFrequencies returns the legal frequency phrases for a canonical
// drug name, or nil if the drug has no restriction on record.
func (kb *KnowledgeBase) AllowedFrequencies(canonical string) []string {
	d, ok := kb.drugsByCanonical[strings.ToLower(canonical)]
	if !ok {
		// Try case-sensitive canonical keys too, since gazetteer keys are
		// stored as their natural-case canonical string.
		for k, v := range kb.drugsByCanonical {
			if strings.EqualFold(k, canonical) {
				d = v
				ok = true
				break
			}
		}
	}
	if !ok {
		return nil
	}
	return d.AllowedFrequencies
}

// DefaultFrequency returns the most common schedule for a drug, used to
// break ties when correcting an illegal frequency.
func (kb *KnowledgeBase) DefaultFrequency(canonical string) string {
	for k, v := range kb.drugsByCanonical {
		if strings.EqualFold(k, canonical) {
			return v.DefaultFrequency
		}
	}
	return ""
}

// FormToRoute maps a dosage-form term (e.g. "tablet", "drops") to its
// administration route.
func (kb *KnowledgeBase) FormToRoute(term string) (model.Route, bool) {
	r, ok := kb.formToRoute[strings.ToLower(term)]
	return r, ok
}

// FormTerms returns every known dosage-form term, for scanning a medicine
// name/instruction string.
func (kb *KnowledgeBase) FormTerms() []string {
	terms := make([]string, 0, len(kb.formToRoute))
	for t := range kb.formToRoute {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}

// DiagnosisAnatomy returns the anatomy constraint for a diagnosis term.
func (kb *KnowledgeBase) DiagnosisAnatomy(diagnosis string) (AnatomyRule, bool) {
	rule, ok := kb.diagnosisAnatomy[strings.ToLower(diagnosis)]
	return rule, ok
}

// AdviceTemplates returns the trigger-keyword -> canonical-advice map.
func (kb *KnowledgeBase) AdviceTemplates() map[string]string {
	return kb.adviceTemplates
}

// IsDangerousPair reports whether two canonical drug names form a
// dangerous combination.
func (kb *KnowledgeBase) IsDangerousPair(a, b string) bool {
	return kb.dangerousPairs[pairKey(a, b)]
}

// IsMedicalKeyword reports whether word (case-insensitive) is a known
// complaint/medicine/diagnosis/test term, used by the ASR quality gate and
// the Router's keyword-density score.
func (kb *KnowledgeBase) IsMedicalKeyword(word string) bool {
	return kb.medicalKeywords[strings.ToLower(strings.TrimSpace(word))]
}

// KeywordDensity returns the fraction of whitespace-delimited tokens in
// text that are known medical keywords.
func (kb *KnowledgeBase) KeywordDensity(text string) float64 {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0
	}
	hits := 0
	for _, f := range fields {
		f = strings.Trim(strings.ToLower(f), ".,;:!?")
		if kb.medicalKeywords[f] {
			hits++
		}
	}
	return float64(hits) / float64(len(fields))
}

// AllDrugs returns every canonical drug name, sorted.
func (kb *KnowledgeBase) AllDrugs() []string {
	out := make([]string, 0, len(kb.drugsByCanonical))
	for k := range kb.drugsByCanonical {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
