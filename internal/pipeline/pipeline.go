// Package pipeline wires the six processing stages into one request
// flow: classify, extract, score, select, generate, validate.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mklemmingen/ComBadge-sub001/internal/catalog"
	"github.com/mklemmingen/ComBadge-sub001/internal/common/config"
	"github.com/mklemmingen/ComBadge-sub001/internal/common/errors"
	"github.com/mklemmingen/ComBadge-sub001/internal/common/logger"
	"github.com/mklemmingen/ComBadge-sub001/internal/common/metrics"
	"github.com/mklemmingen/ComBadge-sub001/internal/common/observability"
	"github.com/mklemmingen/ComBadge-sub001/internal/confidence"
	"github.com/mklemmingen/ComBadge-sub001/internal/entity"
	"github.com/mklemmingen/ComBadge-sub001/internal/generator"
	"github.com/mklemmingen/ComBadge-sub001/internal/intent"
	"github.com/mklemmingen/ComBadge-sub001/internal/selector"
	"github.com/mklemmingen/ComBadge-sub001/internal/validator"
)

// Result carries everything the pipeline learned about one request.
type Result struct {
	RequestID      string                `json:"requestId"`
	Input          string                `json:"input"`
	Classification *intent.Result        `json:"classification"`
	Entities       *entity.Result        `json:"entities"`
	Confidence     *confidence.Score     `json:"confidence"`
	Selection      *selector.Selection   `json:"selection,omitempty"`
	Generation     *generator.Generation `json:"generation,omitempty"`
	Validation     *validator.Report     `json:"validation,omitempty"`
	ElapsedMS      int64                 `json:"elapsedMs"`
}

// Pipeline owns the stage instances and the template catalog.
type Pipeline struct {
	cfg        *config.Config
	log        logger.Logger
	errs       *errors.ErrorHandler
	registry   *catalog.Registry
	classifier *intent.Classifier
	extractor  *entity.Extractor
	calculator *confidence.Calculator
	selector   *selector.Selector
	generator  *generator.Generator
	validator  *validator.Validator
}

func New(cfg *config.Config, registry *catalog.Registry, log logger.Logger) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		log:        log,
		errs:       errors.NewErrorHandler(log),
		registry:   registry,
		classifier: intent.NewClassifier(cfg.Intent, log),
		extractor:  entity.NewExtractor(cfg.Entity, log),
		calculator: confidence.NewCalculator(cfg.Confidence, log),
		selector:   selector.NewSelector(cfg.Selector, registry, log),
		generator:  generator.New(cfg.Generator, log),
		validator:  validator.New(cfg.Validator, log),
	}
}

// WithClock pins the time source of every stage. Tests use this to get
// reproducible relative dates and timestamps.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.extractor.Now = now
	p.generator.Now = now
	p.validator.Now = now
	return p
}

// Process runs one request through all six stages. A request no
// template can serve still succeeds with a partial result; errors mean
// a stage itself failed.
func (p *Pipeline) Process(ctx context.Context, text string) (*Result, error) {
	requestID := uuid.New().String()
	log := p.log.With(map[string]interface{}{"request_id": requestID})
	start := time.Now()

	metrics.RequestsActive.Inc()
	defer metrics.RequestsActive.Dec()

	ctx, span := observability.StartStage(ctx, "pipeline.process", requestID)
	defer span.End()

	result := &Result{RequestID: requestID, Input: text}

	err := p.stage(ctx, "intent_classification", requestID, func(ctx context.Context) error {
		classification, err := p.classifier.Classify(ctx, text)
		if err != nil {
			return err
		}
		result.Classification = classification
		metrics.IntentsClassified.WithLabelValues(string(classification.Primary.Intent)).Inc()
		return nil
	})
	if err != nil {
		p.errs.Handle("intent_classification", err)
		metrics.RequestsProcessed.WithLabelValues("error").Inc()
		return nil, err
	}

	err = p.stage(ctx, "entity_extraction", requestID, func(ctx context.Context) error {
		extraction, err := p.extractor.Extract(ctx, text)
		if err != nil {
			return err
		}
		result.Entities = extraction
		for _, e := range extraction.Entities {
			metrics.EntitiesExtracted.WithLabelValues(string(e.Type)).Inc()
		}
		return nil
	})
	if err != nil {
		p.errs.Handle("entity_extraction", err)
		metrics.RequestsProcessed.WithLabelValues("error").Inc()
		return nil, err
	}

	err = p.stage(ctx, "confidence_scoring", requestID, func(ctx context.Context) error {
		score, err := p.calculator.Calculate(ctx, text, result.Classification, result.Entities)
		if err != nil {
			return err
		}
		result.Confidence = score
		return nil
	})
	if err != nil {
		p.errs.Handle("confidence_scoring", err)
		metrics.RequestsProcessed.WithLabelValues("error").Inc()
		return nil, err
	}

	err = p.stage(ctx, "template_selection", requestID, func(ctx context.Context) error {
		selection, err := p.selector.Select(ctx, text, result.Classification, result.Entities)
		if err != nil {
			return err
		}
		result.Selection = selection
		if selection.Template != nil {
			metrics.TemplatesSelected.WithLabelValues(selection.TemplateID, string(selection.Strategy)).Inc()
		}
		return nil
	})
	if err != nil {
		p.errs.Handle("template_selection", err)
		metrics.RequestsProcessed.WithLabelValues("error").Inc()
		result.ElapsedMS = time.Since(start).Milliseconds()
		return result, err
	}

	// An empty selection ends the request gracefully with everything
	// understood so far.
	if result.Selection.Template == nil {
		result.ElapsedMS = time.Since(start).Milliseconds()
		metrics.RequestsProcessed.WithLabelValues("no_match").Inc()
		log.Warn("no template matched", map[string]interface{}{
			"intent": string(result.Classification.Primary.Intent),
		})
		return result, nil
	}

	genStart := time.Now()
	err = p.stage(ctx, "payload_generation", requestID, func(ctx context.Context) error {
		generation, err := p.generator.Generate(ctx, result.Selection.Template, result.Entities)
		if err != nil {
			return err
		}
		result.Generation = generation
		return nil
	})
	genElapsed := time.Since(genStart)
	if err != nil {
		p.errs.Handle("payload_generation", err)
		metrics.RequestsProcessed.WithLabelValues("error").Inc()
		result.ElapsedMS = time.Since(start).Milliseconds()
		return result, err
	}

	err = p.stage(ctx, "payload_validation", requestID, func(ctx context.Context) error {
		report, err := p.validator.Validate(ctx, result.Selection.Template, result.Generation.Payload)
		if err != nil {
			return err
		}
		result.Validation = report
		metrics.ValidationOutcomes.WithLabelValues(boolLabel(report.Valid)).Inc()
		return nil
	})
	if err != nil {
		p.errs.Handle("payload_validation", err)
		metrics.RequestsProcessed.WithLabelValues("error").Inc()
		result.ElapsedMS = time.Since(start).Milliseconds()
		return result, err
	}

	p.recordUsage(ctx, log, result.Selection.TemplateID, result.Validation.Valid, genElapsed)

	result.ElapsedMS = time.Since(start).Milliseconds()
	outcome := "success"
	if !result.Validation.Valid {
		outcome = "invalid"
	}
	metrics.RequestsProcessed.WithLabelValues(outcome).Inc()

	log.Info("request processed", map[string]interface{}{
		"intent":     string(result.Classification.Primary.Intent),
		"template":   result.Selection.TemplateID,
		"strategy":   string(result.Selection.Strategy),
		"confidence": result.Confidence.Overall,
		"valid":      result.Validation.Valid,
		"elapsed_ms": result.ElapsedMS,
	})
	return result, nil
}

// stage wraps one step with a span and a duration observation.
func (p *Pipeline) stage(ctx context.Context, name, requestID string, fn func(context.Context) error) error {
	ctx, span := observability.StartStage(ctx, name, requestID)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	return err
}

// recordUsage updates template stats. Failures are logged, never fatal.
func (p *Pipeline) recordUsage(ctx context.Context, log logger.Logger, templateID string, success bool, genTime time.Duration) {
	if err := p.registry.Stats().Record(ctx, templateID, success, genTime); err != nil {
		log.Warn("usage stats update failed", map[string]interface{}{
			"template": templateID,
			"error":    err.Error(),
		})
	}
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
