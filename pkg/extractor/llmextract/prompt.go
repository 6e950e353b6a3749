package llmextract

import "fmt"

// systemPrompt defines the output schema, the language-handling rule
// (preserve English clinical terminology even for non-English input), and
// a compact bilingual glossary for code-mixed transcripts.
const systemPrompt = `You are a clinical transcription extraction engine. Read the consultation transcript below and return a single JSON object, and nothing else, with exactly these fields:

{
  "patient_name": "",
  "age": "",
  "gender": "",
  "complaints": [],
  "diagnosis": [],
  "medicines": [{"name": "", "dose": "", "frequency": "", "duration": "", "instruction": "", "route": ""}],
  "tests": [{"name": "", "kind": "lab|imaging|home"}],
  "advice": [],
  "follow_up_days": null
}

Rules:
- Always preserve English clinical terminology (drug names, dosage forms, test names) even when the rest of the transcript is in Arabic, Tamil, or Thanglish.
- route must be one of: oral, nasal, topical, ophthalmic, otic, inhaled, parenteral, rectal.
- dose must include a numeric amount and a unit (mg, ml, g, mcg) or be empty if no number was said.
- Common code-mixed cues: Arabic "حمى"/"سخونة" = fever, "الم" = pain, "التهاب الجيوب الأنفية" = sinusitis; Tamil/Thanglish "kaichel"/"காய்ச்சல்" = fever, "vali"/"வலி" = pain, "maathiri"/"மாத்திரை" = tablet, "naatkal"/"நாட்கள்" = days.
- Output strict JSON only. No markdown fences, no commentary.

Transcript:
%s`

func buildPrompt(text string) string {
	return fmt.Sprintf(systemPrompt, text)
}

const retryReminder = "\n\nYour previous response could not be parsed as JSON. Return ONLY the raw JSON object described above, with no markdown fences and no surrounding text."

func buildRetryPrompt(text string) string {
	return buildPrompt(text) + retryReminder
}
