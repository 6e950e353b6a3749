package llmextract

import (
	"encoding/json"
	"strings"
)

// rawPayload mirrors the JSON schema in the system prompt.
type rawPayload struct {
	PatientName  string          `json:"patient_name"`
	Age          string          `json:"age"`
	Gender       string          `json:"gender"`
	Complaints   []string        `json:"complaints"`
	Diagnosis    []string        `json:"diagnosis"`
	Medicines    []rawMedicine   `json:"medicines"`
	Tests        []rawTaggedTest `json:"tests"`
	Advice       []string        `json:"advice"`
	FollowUpDays *int            `json:"follow_up_days"`
}

type rawMedicine struct {
	Name        string `json:"name"`
	Dose        string `json:"dose"`
	Frequency   string `json:"frequency"`
	Duration    string `json:"duration"`
	Instruction string `json:"instruction"`
	Route       string `json:"route"`
}

type rawTaggedTest struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// recoverJSON implements the four-level JSON recovery contract:
// direct parse -> strip code fences -> extract first balanced {...} ->
// fail. The caller is responsible for the single retry with a reminder
// prompt; this function never retries on its own.
func recoverJSON(raw string) (rawPayload, bool) {
	if payload, ok := tryParse(raw); ok {
		return payload, true
	}
	if payload, ok := tryParse(stripFences(raw)); ok {
		return payload, true
	}
	if balanced, ok := firstBalancedObject(raw); ok {
		if payload, ok := tryParse(balanced); ok {
			return payload, true
		}
	}
	return rawPayload{}, false
}

func tryParse(s string) (rawPayload, bool) {
	var payload rawPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &payload); err != nil {
		return rawPayload{}, false
	}
	return payload, true
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func firstBalancedObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
