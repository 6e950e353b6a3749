// Package thanglish implements the Thanglish Normalizer: mapping a
// phrase from Latin-script Tamil into Tamil script via a longest-prefix
// tokenizer over a romanized->Tamil-script lookup table. Out-of-vocabulary
// tokens pass through unchanged; the transform is deterministic.
package thanglish

import "strings"

// table maps romanized Tamil tokens to Tamil script. This is a curated
// subset covering the medical-consultation vocabulary the pipeline cares
// about (greetings, symptom words, frequency words), not a general
// transliterator.
var table = map[string]string{
	"vanakkam": "வணக்கம்",
	"peru":     "பெயர்",
	"peyar":    "பெயர்",
	"kaichel":  "காய்ச்சல்",
	"iruku":    "இருக்கு",
	"irukku":   "இருக்கு",
	"vali":     "வலி",
	"maathiri": "மாத்திரை",
	"marundhu": "மருந்து",
	"naal":     "நாள்",
	"naatkal":  "நாட்கள்",
	"kaalai":   "காலை",
	"iravu":    "இரவு",
	"tinam":    "தினம்",
	"udambu":   "உடம்பு",
	"vayiru":   "வயிறு",
	"thalai":   "தலை",
	"sapadu":   "சாப்பாடு",
	"illa":     "இல்லை",
	"seri":     "சரி",
}

// longestPrefixes is `table`'s keys sorted longest-first, so the
// tokenizer prefers the longest romanized match at a position (e.g.
// "irukku" over "iru").
var longestPrefixes []string

func init() {
	longestPrefixes = make([]string, 0, len(table))
	for k := range table {
		longestPrefixes = append(longestPrefixes, k)
	}
	for i := 0; i < len(longestPrefixes); i++ {
		for j := i + 1; j < len(longestPrefixes); j++ {
			if len(longestPrefixes[j]) > len(longestPrefixes[i]) {
				longestPrefixes[i], longestPrefixes[j] = longestPrefixes[j], longestPrefixes[i]
			}
		}
	}
}

// Normalize tokenizes text on whitespace and maps each whole token through
// the lookup table (case-insensitively). A token with no whole-token entry
// that starts with a known root has that root mapped and the rest kept;
// any other token is left unchanged. It is invoked only when the Language Detector has classified
// the text as thanglish or Tamil-leaning mixed.
func Normalize(text string) string {
	words := strings.Fields(text)
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = normalizeToken(w)
	}
	return strings.Join(out, " ")
}

func normalizeToken(token string) string {
	lower := strings.ToLower(token)
	trimmed := strings.TrimFunc(lower, func(r rune) bool {
		return r == '.' || r == ',' || r == ';' || r == ':' || r == '!' || r == '?'
	})
	if tamil, ok := table[trimmed]; ok {
		return tamil
	}
	// No exact match: try the longest known root as a prefix, so a
	// colloquially suffixed token (e.g. "irukkuma") still maps its
	// recognized root and carries the unrecognized remainder through
	// unchanged rather than falling back to the whole original token.
	for _, prefix := range longestPrefixes {
		if strings.HasPrefix(trimmed, prefix) && len(trimmed) > len(prefix) {
			return table[prefix] + trimmed[len(prefix):]
		}
	}
	return token
}
