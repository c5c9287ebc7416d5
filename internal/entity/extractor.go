package entity

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	"github.com/mklemmingen/ComBadge-sub001/internal/common/config"
	"github.com/mklemmingen/ComBadge-sub001/internal/common/logger"
)

// Extractor finds and normalizes fleet entities in request text.
// Now is injectable so relative dates resolve deterministically in tests.
type Extractor struct {
	cfg config.EntityConfig
	log logger.Logger
	Now func() time.Time
}

func NewExtractor(cfg config.EntityConfig, log logger.Logger) *Extractor {
	return &Extractor{
		cfg: cfg,
		log: log.With(map[string]interface{}{"component": "entity"}),
		Now: time.Now,
	}
}

// Extract runs every pattern config over the text, normalizes and scores
// matches, and resolves overlapping spans by confidence.
func (e *Extractor) Extract(ctx context.Context, text string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := e.Now()
	lowerText := strings.ToLower(text)
	var candidates []Entity

	for _, pc := range patternConfigs {
		for _, idx := range pc.Pattern.FindAllStringSubmatchIndex(text, -1) {
			start, end := idx[2*pc.Group], idx[2*pc.Group+1]
			if start < 0 {
				continue
			}
			raw := text[start:end]

			value, ok := normalize(pc.Type, raw, now)
			conf := pc.Confidence
			passed, reason := true, ""
			switch {
			case !ok:
				passed, reason = false, "normalization failed"
			case !validateFormat(pc.Type, value):
				passed, reason = false, "format check failed"
			}
			if !passed {
				conf *= e.cfg.ValidationPenalty
			}

			method := "pattern"
			if e.hasNearbyCue(lowerText, pc.Type, start, end) {
				method = "pattern_context"
				conf += e.cfg.ContextBoost
				if conf > 1.0 {
					conf = 1.0
				}
			}

			if conf < e.cfg.MinConfidence {
				continue
			}

			candidates = append(candidates, Entity{
				Type:             pc.Type,
				Value:            value,
				Raw:              raw,
				Confidence:       conf,
				Start:            start,
				End:              end,
				Context:          e.contextWindow(text, start, end),
				Method:           method,
				ValidationPassed: passed,
				ValidationReason: reason,
			})
		}
	}

	kept := resolveOverlaps(candidates)

	result := &Result{
		Entities: kept,
		ByType:   make(map[Type][]Entity),
	}
	for _, ent := range kept {
		result.ByType[ent.Type] = append(result.ByType[ent.Type], ent)
	}
	result.OverallConfidence = weightedConfidence(kept)
	result.Notes = e.diagnoseUnrecognized(text, kept)

	e.log.Debug("extracted entities", map[string]interface{}{
		"count":      len(kept),
		"confidence": result.OverallConfidence,
	})

	return result, nil
}

// hasNearbyCue scans the configured radius around a match for the
// type's context cue words, ignoring the match span itself.
func (e *Extractor) hasNearbyCue(lowerText string, t Type, start, end int) bool {
	cues := contextCues[t]
	if len(cues) == 0 {
		return false
	}

	lo := start - e.cfg.ContextRadius
	if lo < 0 {
		lo = 0
	}
	hi := end + e.cfg.ContextRadius
	if hi > len(lowerText) {
		hi = len(lowerText)
	}
	surrounding := lowerText[lo:start] + " " + lowerText[end:hi]

	for _, cue := range cues {
		if containsWord(surrounding, cue) {
			return true
		}
	}
	return false
}

func containsWord(text, word string) bool {
	idx := 0
	for {
		pos := strings.Index(text[idx:], word)
		if pos < 0 {
			return false
		}
		pos += idx
		beforeOK := pos == 0 || !isWordChar(text[pos-1])
		afterOK := pos+len(word) >= len(text) || !isWordChar(text[pos+len(word)])
		if beforeOK && afterOK {
			return true
		}
		idx = pos + 1
	}
}

func isWordChar(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func (e *Extractor) contextWindow(text string, start, end int) string {
	lo := start - e.cfg.ContextWindow
	if lo < 0 {
		lo = 0
	}
	hi := end + e.cfg.ContextWindow
	if hi > len(text) {
		hi = len(text)
	}
	return text[lo:hi]
}

func validateFormat(t Type, value string) bool {
	switch t {
	case TypeEmail:
		return govalidator.IsEmail(value)
	case TypeVIN:
		return vinValidPattern.MatchString(value)
	case TypePhone:
		return phoneValidPattern.MatchString(value)
	default:
		return true
	}
}

// resolveOverlaps keeps the highest-confidence entity for each
// overlapping span region.
func resolveOverlaps(candidates []Entity) []Entity {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	var kept []Entity
	for _, c := range candidates {
		overlaps := false
		for _, k := range kept {
			if c.Start < k.End && k.Start < c.End {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, c)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Start < kept[j].Start
	})
	return kept
}

// weightedConfidence is the importance-weighted mean over kept entities.
func weightedConfidence(entities []Entity) float64 {
	if len(entities) == 0 {
		return 0
	}
	var sum, weightSum float64
	for _, ent := range entities {
		w := importanceWeights[ent.Type]
		sum += ent.Confidence * w
		weightSum += w
	}
	if weightSum == 0 {
		return 0
	}
	return sum / weightSum
}

// diagnoseUnrecognized notes identifier-like shapes no config matched.
func (e *Extractor) diagnoseUnrecognized(text string, kept []Entity) []string {
	var notes []string
	for _, shape := range unrecognizedShapes {
		for _, loc := range shape.FindAllStringIndex(text, -1) {
			covered := false
			for _, k := range kept {
				if loc[0] >= k.Start && loc[1] <= k.End {
					covered = true
					break
				}
			}
			if !covered {
				notes = append(notes, fmt.Sprintf("unrecognized identifier shape %q", text[loc[0]:loc[1]]))
			}
		}
	}
	return notes
}
