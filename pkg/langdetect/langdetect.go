// Package langdetect implements the Language Detector: script
// classification, lexical Thanglish/English cue scoring, and a weighted
// merge of the acoustic hint from the Transcriber with the lexical
// evidence, classifying text as en|ta|thanglish|ar|mixed.
package langdetect

import (
	"regexp"
	"strings"

	"github.com/narayan-clinic/rx-pipeline/pkg/model"
)

var (
	arabicScript = regexp.MustCompile(`[\x{0600}-\x{06FF}]`)
	tamilScript  = regexp.MustCompile(`[\x{0B80}-\x{0BFF}]`)
)

// thanglishCues are romanized Tamil function/medical words commonly seen
// in code-mixed transcripts.
var thanglishCues = []string{
	"iruku", "irukku", "vali", "kaichel", "sapadu", "maathiri", "marundhu",
	"peru", "peyar", "illa", "irukka", "nalla", "seri", "romba", "konjam",
	"udambu", "vayiru", "thalai",
}

var englishCues = []string{
	"the", "and", "patient", "have", "has", "take", "days", "for", "with",
}

// Decide merges the acoustic hint with lexical evidence from cleaned text.
func Decide(text string, acousticHint model.Language) model.LanguageDecision {
	if arabicScript.MatchString(text) {
		return model.LanguageDecision{Primary: model.LanguageArabic, Confidence: 1.0, AcousticHint: acousticHint, LexicalHint: model.LanguageArabic}
	}
	if tamilScript.MatchString(text) {
		return model.LanguageDecision{Primary: model.LanguageTamil, Confidence: 1.0, AcousticHint: acousticHint, LexicalHint: model.LanguageTamil}
	}

	lower := strings.ToLower(text)
	words := strings.Fields(lower)

	thanglishHits := countHits(words, thanglishCues)
	englishHits := countHits(words, englishCues)

	lexical, lexConf := lexicalClassification(thanglishHits, englishHits, len(words))

	return merge(acousticHint, lexical, lexConf)
}

func countHits(words []string, cues []string) int {
	cueSet := make(map[string]bool, len(cues))
	for _, c := range cues {
		cueSet[c] = true
	}
	hits := 0
	for _, w := range words {
		w = strings.Trim(w, ".,;:!?")
		if cueSet[w] {
			hits++
		}
	}
	return hits
}

// lexicalClassification applies the resolved Thanglish threshold:
// classify as thanglish if >= 2 romanized-Tamil cue tokens AND no Tamil
// script (already excluded above) AND the text is not predominantly
// English.
func lexicalClassification(thanglishHits, englishHits, total int) (model.Language, float64) {
	if total == 0 {
		return model.LanguageMixed, 0
	}
	predominantlyEnglish := englishHits > 0 && float64(englishHits)/float64(total) > 0.4 && thanglishHits < 2
	if thanglishHits >= 2 && !predominantlyEnglish {
		conf := float64(thanglishHits) / float64(total)
		if conf > 1 {
			conf = 1
		}
		return model.LanguageThanglish, 0.5 + conf/2
	}
	if englishHits > 0 {
		conf := float64(englishHits) / float64(total)
		if conf > 1 {
			conf = 1
		}
		return model.LanguageEnglish, 0.5 + conf/2
	}
	return model.LanguageMixed, 0.3
}

// merge combines the acoustic and lexical signals with a weighted
// decision. Confidence is max(acoustic, lexical) adjusted by agreement;
// disagreement at low confidence on both sides yields "mixed".
func merge(acoustic model.Language, lexical model.Language, lexConf float64) model.LanguageDecision {
	acousticConf := 0.0
	if acoustic != "" {
		acousticConf = 0.6
	}

	if acoustic == "" || acoustic == lexical {
		primary := lexical
		if primary == "" {
			primary = acoustic
		}
		conf := lexConf
		if acousticConf > conf {
			conf = acousticConf
		}
		if acoustic == lexical && acoustic != "" {
			conf = agreementBoost(conf)
		}
		return model.LanguageDecision{Primary: primary, Confidence: conf, AcousticHint: acoustic, LexicalHint: lexical}
	}

	if acousticConf < 0.5 && lexConf < 0.5 {
		return model.LanguageDecision{Primary: model.LanguageMixed, Confidence: maxFloat(acousticConf, lexConf), AcousticHint: acoustic, LexicalHint: lexical}
	}

	if acousticConf >= lexConf {
		return model.LanguageDecision{Primary: acoustic, Confidence: acousticConf, AcousticHint: acoustic, LexicalHint: lexical}
	}
	return model.LanguageDecision{Primary: lexical, Confidence: lexConf, AcousticHint: acoustic, LexicalHint: lexical}
}

func agreementBoost(conf float64) float64 {
	boosted := conf + 0.15
	if boosted > 1 {
		return 1
	}
	return boosted
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
