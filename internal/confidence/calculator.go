package confidence

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/mklemmingen/ComBadge-sub001/internal/common/config"
	"github.com/mklemmingen/ComBadge-sub001/internal/common/logger"
	"github.com/mklemmingen/ComBadge-sub001/internal/entity"
	"github.com/mklemmingen/ComBadge-sub001/internal/intent"
)

// Calculator combines classification and extraction results into an
// overall confidence assessment.
type Calculator struct {
	cfg config.ConfidenceConfig
	log logger.Logger
}

func NewCalculator(cfg config.ConfidenceConfig, log logger.Logger) *Calculator {
	return &Calculator{
		cfg: cfg,
		log: log.With(map[string]interface{}{"component": "confidence"}),
	}
}

// Calculate produces the weighted factor score, risk penalties, and interval.
func (c *Calculator) Calculate(ctx context.Context, text string, classification *intent.Result, extraction *entity.Result) (*Score, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	factors := map[Factor]float64{
		FactorIntentClarity:      classification.Primary.Confidence,
		FactorEntityCompleteness: c.entityCompleteness(classification.Primary.Intent, extraction),
		FactorEntityQuality:      c.entityQuality(extraction),
		FactorPatternStrength:    c.patternStrength(extraction),
		FactorContextCoherence:   c.contextCoherence(classification.Primary.Intent, extraction),
		FactorTextQuality:        textQuality(text),
		FactorAmbiguityAbsence:   c.ambiguityAbsence(classification),
		FactorValidationSuccess:  c.validationSuccess(extraction),
	}

	weighted := factors[FactorIntentClarity]*c.cfg.IntentClarityWeight +
		factors[FactorEntityCompleteness]*c.cfg.EntityCompletenessWeight +
		factors[FactorEntityQuality]*c.cfg.EntityQualityWeight +
		factors[FactorPatternStrength]*c.cfg.PatternStrengthWeight +
		factors[FactorContextCoherence]*c.cfg.ContextCoherenceWeight +
		factors[FactorTextQuality]*c.cfg.TextQualityWeight +
		factors[FactorAmbiguityAbsence]*c.cfg.AmbiguityAbsenceWeight +
		factors[FactorValidationSuccess]*c.cfg.ValidationSuccessWeight

	risks := c.detectRisks(text, classification, extraction, factors)
	for _, r := range risks {
		weighted -= c.riskPenalty(r)
	}
	overall := clamp01(weighted)

	stdev := factorStdev(factors)
	interval := [2]float64{clamp01(overall - stdev), clamp01(overall + stdev)}

	level, action := levelForScore(overall)

	score := &Score{
		Overall:  overall,
		Factors:  factors,
		Risks:    risks,
		Interval: interval,
		Level:    level,
		Action:   action,
	}

	c.log.Debug("confidence calculated", map[string]interface{}{
		"overall": overall,
		"level":   string(level),
		"risks":   len(risks),
	})

	return score, nil
}

func (c *Calculator) entityCompleteness(in intent.Intent, extraction *entity.Result) float64 {
	required := requiredEntities[in]
	if len(required) == 0 {
		return 1.0
	}
	found := 0
	for _, t := range required {
		if len(extraction.ByType[t]) > 0 {
			found++
		}
	}
	return float64(found) / float64(len(required))
}

func (c *Calculator) entityQuality(extraction *entity.Result) float64 {
	if len(extraction.Entities) == 0 {
		return 0.3
	}
	sum := 0.0
	for _, e := range extraction.Entities {
		sum += e.Confidence
	}
	return sum / float64(len(extraction.Entities))
}

// patternStrength is the share of entities with solid match confidence.
func (c *Calculator) patternStrength(extraction *entity.Result) float64 {
	if len(extraction.Entities) == 0 {
		return 0.5
	}
	strong := 0
	for _, e := range extraction.Entities {
		if e.Confidence >= 0.5 {
			strong++
		}
	}
	return float64(strong) / float64(len(extraction.Entities))
}

// contextCoherence measures how much of the expected entity combination
// for the intent actually appeared.
func (c *Calculator) contextCoherence(in intent.Intent, extraction *entity.Result) float64 {
	expected := expectedEntities[in]
	if len(expected) == 0 {
		return 1.0
	}
	found := 0
	for _, t := range expected {
		if len(extraction.ByType[t]) > 0 {
			found++
		}
	}
	return float64(found) / float64(len(expected))
}

func (c *Calculator) ambiguityAbsence(classification *intent.Result) float64 {
	if len(classification.Secondary) == 0 {
		return 1.0
	}
	return clamp01(1.0 - classification.Secondary[0].Confidence)
}

// validationSuccess is the share of entities whose normalization and
// format checks passed, regardless of their match confidence.
func (c *Calculator) validationSuccess(extraction *entity.Result) float64 {
	if len(extraction.Entities) == 0 {
		return 1.0
	}
	passed := 0
	for _, e := range extraction.Entities {
		if e.ValidationPassed {
			passed++
		}
	}
	return float64(passed) / float64(len(extraction.Entities))
}

func (c *Calculator) detectRisks(text string, classification *intent.Result, extraction *entity.Result, factors map[Factor]float64) []Risk {
	var risks []Risk

	if len(classification.Secondary) > 0 && classification.Secondary[0].Confidence > 0.6 {
		risks = append(risks, RiskAmbiguousIntent)
	}
	if factors[FactorValidationSuccess] < 0.5 {
		risks = append(risks, RiskValidationFailures)
	}
	if len(strings.Fields(text)) < 3 {
		risks = append(risks, RiskLowTextQuality)
	}
	if len(extraction.Entities) > 0 {
		weak := 0
		for _, e := range extraction.Entities {
			if e.Confidence < 0.5 {
				weak++
			}
		}
		if weak*2 > len(extraction.Entities) {
			risks = append(risks, RiskWeakPatterns)
		}
	}

	return risks
}

func (c *Calculator) riskPenalty(r Risk) float64 {
	switch r {
	case RiskAmbiguousIntent:
		return c.cfg.AmbiguousIntentPenalty
	case RiskValidationFailures:
		return c.cfg.ValidationFailurePenalty
	case RiskLowTextQuality:
		return c.cfg.LowTextQualityPenalty
	case RiskWeakPatterns:
		return c.cfg.WeakPatternPenalty
	default:
		return 0
	}
}

// textQuality blends length, character mix, capitalization, and repetition.
func textQuality(text string) float64 {
	words := strings.Fields(text)
	wordCount := len(words)

	var lengthScore float64
	switch {
	case wordCount == 0:
		return 0
	case wordCount < 5:
		lengthScore = float64(wordCount) / 5.0
	case wordCount <= 30:
		lengthScore = 1.0
	default:
		lengthScore = 30.0 / float64(wordCount)
	}

	clean := 0
	letters := 0
	upper := 0
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			clean++
		}
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	charScore := float64(clean) / float64(len([]rune(text)))

	capsScore := 1.0
	if letters > 0 && float64(upper)/float64(letters) > 0.7 {
		capsScore = 0.2
	}

	unique := make(map[string]struct{}, wordCount)
	for _, w := range words {
		unique[strings.ToLower(w)] = struct{}{}
	}
	repetitionScore := float64(len(unique)) / float64(wordCount)

	return clamp01(lengthScore*0.4 + charScore*0.3 + capsScore*0.2 + repetitionScore*0.1)
}

// factorStdev is the population standard deviation of factor scores.
func factorStdev(factors map[Factor]float64) float64 {
	n := float64(len(factors))
	if n == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range factors {
		mean += v
	}
	mean /= n

	variance := 0.0
	for _, v := range factors {
		variance += (v - mean) * (v - mean)
	}
	return math.Sqrt(variance / n)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
