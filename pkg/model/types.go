// Package model defines the data types shared across every pipeline stage:
// the transcription result, the language decision, and the prescription
// schema itself. Every stage publishes one of these as an immutable view
// for the next stage to consume, the fixed contract between each pair of
// stages.
package model

import "time"

// Language is the primary language classification for a transcript.
type Language string

const (
	LanguageEnglish   Language = "en"
	LanguageTamil     Language = "ta"
	LanguageThanglish Language = "thanglish"
	LanguageArabic    Language = "ar"
	LanguageMixed     Language = "mixed"
)

// Route is the administration route for a medicine.
type Route string

const (
	RouteOral       Route = "oral"
	RouteNasal      Route = "nasal"
	RouteTopical    Route = "topical"
	RouteOphthalmic Route = "ophthalmic"
	RouteOtic       Route = "otic"
	RouteInhaled    Route = "inhaled"
	RouteParenteral Route = "parenteral"
	RouteRectal     Route = "rectal"
)

// ExtractionMethod records which extractor produced a Prescription.
type ExtractionMethod string

const (
	MethodLLM      ExtractionMethod = "llm"
	MethodRules    ExtractionMethod = "rules"
	MethodEnsemble ExtractionMethod = "ensemble"
)

// TestKind tags an entry of Prescription.Tests.
type TestKind string

const (
	TestLab     TestKind = "lab"
	TestImaging TestKind = "imaging"
	TestHome    TestKind = "home"
)

// AudioInput is a reference to the consultation recording: either a local
// path or an in-memory byte buffer with a MIME hint. Exactly one of Path or
// Bytes should be set.
type AudioInput struct {
	Path         string
	Bytes        []byte
	MIMEType     string
	HintLanguage Language
}

// Segment is one raw ASR segment, kept optionally for diagnostics.
type Segment struct {
	StartMS int64
	EndMS   int64
	Text    string
}

// TranscriptionResult is the immutable output of the Transcriber. Tier is
// -1 when the high-capacity Tier 3 model could not be allocated and the
// Transcriber degraded to the best prior result.
type TranscriptionResult struct {
	RunID           string
	Text            string
	WhisperLanguage string
	Tier            int
	Confidence      float64
	NoSpeechProb    float64
	AudioSeconds    float64
	Segments        []Segment
}

// LanguageDecision is the Language Detector's output.
type LanguageDecision struct {
	Primary      Language
	Confidence   float64
	AcousticHint Language
	LexicalHint  Language
}

// Medicine is a single prescribed drug entry.
type Medicine struct {
	Name        string  `json:"name"`
	Dose        *string `json:"dose"`
	Frequency   string  `json:"frequency"`
	Duration    string  `json:"duration"`
	Instruction string  `json:"instruction"`
	Route       Route   `json:"route"`
}

// Prescription is the canonical, schema-enforced output record.
type Prescription struct {
	PatientName       string           `json:"patient_name"`
	Age               string           `json:"age,omitempty"`
	Gender            string           `json:"gender,omitempty"`
	Complaints        []string         `json:"complaints"`
	Diagnosis         []string         `json:"diagnosis"`
	Medicines         []Medicine       `json:"medicines"`
	Tests             []TaggedTest     `json:"tests"`
	Advice            []string         `json:"advice"`
	FollowUpDays      *int             `json:"follow_up_days"`
	Language          Language         `json:"language"`
	Confidence        float64          `json:"confidence"`
	ExtractionMethod  ExtractionMethod `json:"extraction_method"`
	TranscriptionTier int              `json:"transcription_tier"`
	Timestamp         time.Time        `json:"timestamp"`
	Warnings          []string         `json:"warnings"`
	RunID             string           `json:"run_id,omitempty"`
}

// TaggedTest is a single recommended test, tagged with its kind.
type TaggedTest struct {
	Name string   `json:"name"`
	Kind TestKind `json:"kind"`
}

// IsEmptyShell reports whether p carries none of the fields an extractor
// is meant to populate. Used to detect the "both LLM and Rule Extractor
// produced nothing" condition that surfaces as an ExtractionError.
func (p Prescription) IsEmptyShell() bool {
	return p.PatientName == "" &&
		len(p.Complaints) == 0 &&
		len(p.Diagnosis) == 0 &&
		len(p.Medicines) == 0 &&
		len(p.Tests) == 0 &&
		len(p.Advice) == 0
}

// ValidationReport is the Validator's output.
type ValidationReport struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}
