// Package cleaner implements the Transcript Cleaner: an ordered,
// idempotent regex correction pass over raw ASR text, fixing systematic
// phonetic, brand-name, and transliterated-drug distortions before any
// downstream stage sees the transcript.
package cleaner

import (
	"github.com/narayan-clinic/rx-pipeline/pkg/kb"
)

// Result is the Cleaner's output: the corrected text plus a count of
// corrections applied, fed into the Metrics Collector.
type Result struct {
	Text               string
	CorrectionsApplied int
}

// Cleaner applies the Knowledge Base's ordered phonetic-correction list.
type Cleaner struct {
	kb *kb.KnowledgeBase
}

// New builds a Cleaner bound to a Knowledge Base.
func New(base *kb.KnowledgeBase) *Cleaner {
	return &Cleaner{kb: base}
}

// Clean runs every correction rule in order, each rule replacing all of
// its matches, and is idempotent: Clean(Clean(x)) == Clean(x), since every rule
// replaces a source-only spelling with its already-canonical form.
func (c *Cleaner) Clean(text string) Result {
	corrections := 0
	for _, rule := range c.kb.PhoneticCorrections() {
		matches := rule.Pattern.FindAllStringIndex(text, -1)
		if len(matches) == 0 {
			continue
		}
		corrections += len(matches)
		text = rule.Pattern.ReplaceAllString(text, rule.Replacement)
	}
	return Result{Text: text, CorrectionsApplied: corrections}
}
