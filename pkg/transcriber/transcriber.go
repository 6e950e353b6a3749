// Package transcriber implements the three-tier ASR policy: Tier 1
// (fast default, no hint), Tier 2 (with a language hint, attempted only if
// Tier 1 detected a non-English language but failed the quality gates;
// Tier 1's confidence is not consulted for this), and Tier 3 (a lazily-loaded, higher-capacity model, attempted only
// if Tiers 1-2 fail the quality gates). Each attempt is logged with its
// quality score.
package transcriber

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/narayan-clinic/rx-pipeline/pkg/failure"
	"github.com/narayan-clinic/rx-pipeline/pkg/kb"
	"github.com/narayan-clinic/rx-pipeline/pkg/model"
	"github.com/narayan-clinic/rx-pipeline/pkg/obs"
	"github.com/narayan-clinic/rx-pipeline/pkg/transcriber/asr"
)

const (
	minWordsPerMinute = 20
	maxNoSpeechProb   = 0.60
)

// Transcriber runs the tiered ASR policy over one audio file.
type Transcriber struct {
	tier12  asr.Backend
	tier3   asr.Backend
	kb      *kb.KnowledgeBase
	log     *obs.Logger
	maxTier int
}

// New builds a Transcriber. tier12 serves Tier 1 and Tier 2 (same backend,
// invoked with/without a language hint); tier3 serves the lazily-loaded
// high-capacity model.
func New(tier12, tier3 asr.Backend, base *kb.KnowledgeBase) *Transcriber {
	return &Transcriber{tier12: tier12, tier3: tier3, kb: base, log: obs.New("transcriber"), maxTier: 3}
}

// WithMaxTier caps escalation at the given tier.
func (t *Transcriber) WithMaxTier(maxTier int) *Transcriber {
	if maxTier < 1 {
		maxTier = 1
	}
	if maxTier > 3 {
		maxTier = 3
	}
	cp := *t
	cp.maxTier = maxTier
	return &cp
}

type tierAttempt struct {
	tier   int
	result asr.Result
	score  qualityScore
}

type qualityScore struct {
	wpm          float64
	hasKeyword   bool
	noSpeechProb float64
}

func (q qualityScore) passes() bool {
	return q.wpm >= minWordsPerMinute && q.hasKeyword && q.noSpeechProb < maxNoSpeechProb
}

func (t *Transcriber) score(res asr.Result) qualityScore {
	words := len(strings.Fields(res.Text))
	wpm := 0.0
	if res.AudioSeconds > 0 {
		wpm = float64(words) / (res.AudioSeconds / 60)
	}
	hasKeyword := false
	for _, w := range strings.Fields(res.Text) {
		if t.kb.IsMedicalKeyword(strings.Trim(w, ".,;:!?")) {
			hasKeyword = true
			break
		}
	}
	return qualityScore{wpm: wpm, hasKeyword: hasKeyword, noSpeechProb: res.NoSpeechProb}
}

// Transcribe runs Tier 1, escalating to Tier 2 and Tier 3 only when the
// quality gates fail, with the Arabic special case applied at Tier 1.
func (t *Transcriber) Transcribe(ctx context.Context, audio model.AudioInput) (model.TranscriptionResult, error) {
	runID := uuid.New().String()
	log := t.log.WithRun(runID)

	var attempts []tierAttempt

	// Tier 1 never takes a language hint; a caller-supplied hint
	// is only consulted for Tier 3 escalation below. Tier 2 uses the
	// language Tier 1 detected.
	res1, err := t.tier12.Transcribe(ctx, audio.Path, asr.Options{Mode: asr.ModeTranscribe})
	if err != nil {
		log.Warnf("tier 1 failed: %v", err)
	} else {
		attempts = append(attempts, tierAttempt{tier: 1, result: res1, score: t.score(res1)})
		log.Printf("tier 1 score: wpm=%.1f keyword=%v no_speech=%.2f", attempts[0].score.wpm, attempts[0].score.hasKeyword, attempts[0].score.noSpeechProb)

		if res1.Language == string(model.LanguageArabic) {
			// Arabic special case: native transcription already happened,
			// no automatic translation; downstream stages handle
			// cross-language extraction. Tier 1 result stands unless it
			// fails the quality gate.
			if attempts[0].score.passes() || t.maxTier < 2 {
				return t.finalize(runID, attempts[len(attempts)-1])
			}
		} else if attempts[0].score.passes() {
			return t.finalize(runID, attempts[0])
		}
	}

	if t.maxTier >= 2 && len(attempts) > 0 && !attempts[len(attempts)-1].score.passes() {
		hint := attempts[len(attempts)-1].result.Language
		if hint != "" && hint != string(model.LanguageEnglish) {
			res2, err := t.tier12.Transcribe(ctx, audio.Path, asr.Options{Mode: asr.ModeTranscribe, LanguageHint: hint})
			if err != nil {
				log.Warnf("tier 2 failed: %v", err)
			} else {
				attempt := tierAttempt{tier: 2, result: res2, score: t.score(res2)}
				attempts = append(attempts, attempt)
				log.Printf("tier 2 score: wpm=%.1f keyword=%v no_speech=%.2f", attempt.score.wpm, attempt.score.hasKeyword, attempt.score.noSpeechProb)
				if attempt.score.passes() {
					return t.finalize(runID, attempt)
				}
			}
		}
	}

	if t.maxTier >= 3 && t.tier3 != nil {
		res3, err := t.tier3.Transcribe(ctx, audio.Path, asr.Options{Mode: asr.ModeTranscribe, LanguageHint: langHint(audio.HintLanguage, attempts)})
		if err != nil {
			log.Warnf("tier 3 allocation/transcription failed, degrading: %v", err)
			if len(attempts) == 0 {
				return model.TranscriptionResult{}, failure.Transcription("transcriber", "no tier produced any text", err)
			}
			return t.degrade(runID, attempts[len(attempts)-1])
		}
		attempt := tierAttempt{tier: 3, result: res3, score: t.score(res3)}
		attempts = append(attempts, attempt)
		log.Printf("tier 3 score: wpm=%.1f keyword=%v no_speech=%.2f", attempt.score.wpm, attempt.score.hasKeyword, attempt.score.noSpeechProb)
		return t.finalize(runID, attempt)
	}

	if len(attempts) == 0 {
		return model.TranscriptionResult{}, failure.Transcription("transcriber", "no tier produced any text", nil)
	}
	return t.finalize(runID, attempts[len(attempts)-1])
}

// finalize builds the TranscriptionResult for a successful (possibly
// gate-failing but non-empty) attempt. An empty text at every tier is the
// only TranscriptionError condition.
func (t *Transcriber) finalize(runID string, a tierAttempt) (model.TranscriptionResult, error) {
	if strings.TrimSpace(a.result.Text) == "" {
		return model.TranscriptionResult{}, failure.Transcription("transcriber", "tier produced no text", nil)
	}
	return model.TranscriptionResult{
		RunID:           runID,
		Text:            a.result.Text,
		WhisperLanguage: a.result.Language,
		Tier:            a.tier,
		Confidence:      a.result.Confidence,
		NoSpeechProb:    a.result.NoSpeechProb,
		AudioSeconds:    a.result.AudioSeconds,
	}, nil
}

// degrade returns the best prior result with the tier marked -1, the
// Tier 3 allocation-failure contract.
func (t *Transcriber) degrade(runID string, a tierAttempt) (model.TranscriptionResult, error) {
	res, err := t.finalize(runID, a)
	if err != nil {
		return res, err
	}
	res.Tier = -1
	return res, nil
}

// langHint resolves a language hint preference: an explicit caller-supplied
// hint wins; otherwise fall back to whatever the last attempt detected.
func langHint(explicit model.Language, attempts []tierAttempt) string {
	if explicit != "" {
		return string(explicit)
	}
	if len(attempts) == 0 {
		return ""
	}
	return attempts[len(attempts)-1].result.Language
}
