// Package pipeline wires the twelve extraction stages behind a single
// Process entry point, owning cancellation-checkpointing and the
// canonical-JSON publish step.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/narayan-clinic/rx-pipeline/pkg/cleaner"
	"github.com/narayan-clinic/rx-pipeline/pkg/extractor/ensemble"
	"github.com/narayan-clinic/rx-pipeline/pkg/extractor/llmextract"
	"github.com/narayan-clinic/rx-pipeline/pkg/extractor/ruleextract"
	"github.com/narayan-clinic/rx-pipeline/pkg/failure"
	"github.com/narayan-clinic/rx-pipeline/pkg/kb"
	"github.com/narayan-clinic/rx-pipeline/pkg/langdetect"
	"github.com/narayan-clinic/rx-pipeline/pkg/llmclient"
	"github.com/narayan-clinic/rx-pipeline/pkg/metrics"
	"github.com/narayan-clinic/rx-pipeline/pkg/model"
	"github.com/narayan-clinic/rx-pipeline/pkg/normalize"
	"github.com/narayan-clinic/rx-pipeline/pkg/obs"
	"github.com/narayan-clinic/rx-pipeline/pkg/postprocess"
	"github.com/narayan-clinic/rx-pipeline/pkg/router"
	"github.com/narayan-clinic/rx-pipeline/pkg/thanglish"
	"github.com/narayan-clinic/rx-pipeline/pkg/transcriber"
	"github.com/narayan-clinic/rx-pipeline/pkg/transcriber/asr"
	"github.com/narayan-clinic/rx-pipeline/pkg/validate"
)

// Options configures one invocation.
type Options struct {
	HintLanguage string
	MaxTier      int
	LLMEnabled   bool
	Timeout      time.Duration
}

// Pipeline wires every stage behind Process. Every collaborator is
// constructed once at process start and passed in by constructor
// injection, so the Pipeline itself holds no mutable shared state beyond
// what each stage already guards.
type Pipeline struct {
	kb            *kb.KnowledgeBase
	transcriber   *transcriber.Transcriber
	cleaner       *cleaner.Cleaner
	normalizer    *normalize.Normalizer
	router        *router.Router
	llmExtractor  *llmextract.Extractor
	ruleExtractor *ruleextract.Extractor
	postProcessor *postprocess.PostProcessor
	validator     *validate.Validator
	metrics       *metrics.Collector
	publisher     Publisher
	log           *obs.Logger
}

// New builds a Pipeline. tier12/tier3 are the ASR collaborators; llm is
// the (Fallback- and breaker-wrapped) LLM collaborator; publisher is
// where the canonical JSON document is handed off.
func New(tier12, tier3 asr.Backend, llm llmclient.Client, base *kb.KnowledgeBase, publisher Publisher, collector *metrics.Collector) *Pipeline {
	return &Pipeline{
		kb:            base,
		transcriber:   transcriber.New(tier12, tier3, base),
		cleaner:       cleaner.New(base),
		normalizer:    normalize.New(base),
		router:        router.New(base),
		llmExtractor:  llmextract.New(llm, base),
		ruleExtractor: ruleextract.New(base),
		postProcessor: postprocess.New(base),
		validator:     validate.New(base),
		metrics:       collector,
		publisher:     publisher,
		log:           obs.New("pipeline"),
	}
}

// Process runs all twelve stages in order: Transcriber, Cleaner, Language
// Detector, (Thanglish Normalizer), Dosage/Term Normalizer, Router,
// extractor(s), Post-Processor, Validator, Output + Metrics.
func (p *Pipeline) Process(ctx context.Context, audio model.AudioInput, opts Options) (model.Prescription, model.ValidationReport, metrics.Record, error) {
	start := time.Now()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	if audio.HintLanguage == "" {
		audio.HintLanguage = model.Language(opts.HintLanguage)
	}

	if err := checkCancelled(ctx, "pipeline"); err != nil {
		return model.Prescription{}, model.ValidationReport{}, metrics.Record{}, err
	}

	transcription, err := p.transcriber.WithMaxTier(opts.MaxTier).Transcribe(ctx, audio)
	if err != nil {
		return model.Prescription{}, model.ValidationReport{}, metrics.Record{}, err
	}

	cleaned := p.cleaner.Clean(transcription.Text)

	langDecision := langdetect.Decide(cleaned.Text, isoToLanguage(transcription.WhisperLanguage))
	text := cleaned.Text
	if langDecision.Primary == model.LanguageThanglish ||
		(langDecision.Primary == model.LanguageMixed && langDecision.LexicalHint == model.LanguageThanglish) {
		text = thanglish.Normalize(text)
	}

	normResult := p.normalizer.Normalize(text)
	if len(normResult.AnatomyFlags) > 0 {
		p.log.Warnf("normalizer flagged %d diagnosis/anatomy mismatch(es) ahead of extraction", len(normResult.AnatomyFlags))
	}

	if err := checkCancelled(ctx, "pipeline"); err != nil {
		return model.Prescription{}, model.ValidationReport{}, metrics.Record{}, err
	}

	decision := p.router.Decide(normResult.Text, transcription.Confidence)
	route := decision.Route
	if !opts.LLMEnabled && route != router.RouteRulesOnly {
		route = router.RouteRulesOnly
	}

	extracted, extractionWarning, extractErr := p.extract(ctx, route, decision, normResult.Text)
	if extractErr != nil {
		return model.Prescription{}, model.ValidationReport{}, metrics.Record{}, extractErr
	}

	final := p.postProcessor.Process(extracted, normResult.Text)
	if extractionWarning != "" {
		final.Warnings = append(final.Warnings, extractionWarning)
	}
	final.Language = langDecision.Primary
	final.Confidence = router.EndToEndConfidence(transcription.Confidence, final.Confidence)
	final.TranscriptionTier = transcription.Tier
	final.Timestamp = time.Now().UTC()
	final.RunID = transcription.RunID
	if final.RunID == "" {
		final.RunID = uuid.New().String()
	}

	report := p.validator.Validate(final)

	record := metrics.Record{
		RunID:              final.RunID,
		AudioRef:           audio.Path,
		Timestamp:          final.Timestamp,
		TranscriptionTier:  transcription.Tier,
		NoSpeechProb:       transcription.NoSpeechProb,
		TextLength:         len(cleaned.Text),
		Language:           langDecision.Primary,
		LanguageConfidence: langDecision.Confidence,
		RouterScore:        decision.Score,
		Route:              string(route),
		ExtractionMethod:   final.ExtractionMethod,
		MedicineCount:      len(final.Medicines),
		DiagnosisCount:     len(final.Diagnosis),
		TestCount:          len(final.Tests),
		AdviceCount:        len(final.Advice),
		Valid:              report.Valid,
		ErrorCount:         len(report.Errors),
		WarningCount:       len(report.Warnings),
		WallTime:           time.Since(start),
	}
	if p.metrics != nil {
		p.metrics.Record(record)
	}

	if p.publisher != nil {
		if err := p.publisher.Publish(final); err != nil {
			p.log.Warnf("publish failed: %v", err)
		}
	}

	return final, report, record, nil
}

// extract dispatches to the route's extractor(s). It returns a non-nil
// error only for the ExtractionError condition in the design: the LLM
// (all configured models) failed AND the Rule Extractor fallback also
// produced an empty shell. A Rules-only route is never a candidate for
// this error; an empty rule result there is a validation concern (see
// the short-transcript boundary case), not an extraction failure.
func (p *Pipeline) extract(ctx context.Context, route router.Route, decision router.Decision, text string) (model.Prescription, string, error) {
	ctx, cancel := context.WithTimeout(ctx, decision.Config.Timeout)
	defer cancel()

	switch route {
	case router.RouteLLMOnly:
		llmResult, err := p.llmExtractor.Extract(ctx, text)
		if err != nil {
			p.log.Warnf("llm extraction failed, falling back to rules: %v", err)
			ruleResult := p.ruleExtractor.Extract(text)
			if ruleResult.IsEmptyShell() {
				return model.Prescription{}, "", failure.Extraction("pipeline", "llm and rule extractor both produced an empty shell", err)
			}
			return ruleResult, "llm-extraction-failed-fallback-to-rules", nil
		}
		return llmResult, "", nil
	case router.RouteEnsemble:
		llmResult, err := p.llmExtractor.Extract(ctx, text)
		ruleResult := p.ruleExtractor.Extract(text)
		if err != nil {
			p.log.Warnf("llm extraction failed during ensemble, using rules only: %v", err)
			if ruleResult.IsEmptyShell() {
				return model.Prescription{}, "", failure.Extraction("pipeline", "llm and rule extractor both produced an empty shell", err)
			}
			return ruleResult, "llm-extraction-failed-fallback-to-rules", nil
		}
		return ensemble.Merge(llmResult, ruleResult), "", nil
	default:
		return p.ruleExtractor.Extract(text), "", nil
	}
}

func checkCancelled(ctx context.Context, stage string) error {
	select {
	case <-ctx.Done():
		return failure.Cancelled(stage)
	default:
		return nil
	}
}

func isoToLanguage(code string) model.Language {
	switch code {
	case "en":
		return model.LanguageEnglish
	case "ta":
		return model.LanguageTamil
	case "ar":
		return model.LanguageArabic
	case "":
		return ""
	default:
		return model.LanguageMixed
	}
}
