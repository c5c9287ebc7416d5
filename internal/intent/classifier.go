package intent

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/mklemmingen/ComBadge-sub001/internal/common/config"
	"github.com/mklemmingen/ComBadge-sub001/internal/common/logger"
)

// Classifier scores request text against the static intent profiles.
type Classifier struct {
	cfg    config.IntentConfig
	log    logger.Logger
	kwords map[Intent][]compiledKeyword
}

type compiledKeyword struct {
	word   string
	weight float64
	re     *regexp.Regexp
}

func NewClassifier(cfg config.IntentConfig, log logger.Logger) *Classifier {
	c := &Classifier{
		cfg:    cfg,
		log:    log.With(map[string]interface{}{"component": "intent"}),
		kwords: make(map[Intent][]compiledKeyword, len(profiles)),
	}
	for in, profile := range profiles {
		compiled := make([]compiledKeyword, 0, len(profile.Keywords))
		for _, kw := range profile.Keywords {
			compiled = append(compiled, compiledKeyword{
				word:   kw.Word,
				weight: kw.Weight,
				re:     regexp.MustCompile(`\b` + regexp.QuoteMeta(kw.Word) + `\b`),
			})
		}
		c.kwords[in] = compiled
	}
	return c
}

// Classify scores every intent and returns the ranked result. It is
// total over strings: empty input ranks Unknown at full confidence
// rather than failing.
func (c *Classifier) Classify(ctx context.Context, text string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	processed, notes := preprocess(text)

	clueBoost, clues := c.contextClues(processed)

	matches := make([]Match, 0, len(All))
	cancelBoost := 0.0
	cancelIdx := -1
	for i, in := range All {
		m, negPenalty := c.scoreIntent(in, processed, clueBoost, clues, &notes)
		if in == CancelOperation {
			cancelIdx = i
		} else {
			cancelBoost += negPenalty
		}
		matches = append(matches, m)
	}

	// Negated evidence shifts its weight onto the cancel intent.
	if cancelBoost > 0 && cancelIdx >= 0 {
		boosted := matches[cancelIdx].Confidence + cancelBoost
		if boosted > 1.0 {
			boosted = 1.0
		}
		matches[cancelIdx].Confidence = boosted
		notes = append(notes, "negated evidence credited to cancel_operation")
	}

	maxScore := 0.0
	for _, m := range matches {
		if m.Confidence > maxScore {
			maxScore = m.Confidence
		}
	}

	unknownScore := 1.0 - maxScore
	if unknownScore < c.cfg.UnknownFloor {
		unknownScore = c.cfg.UnknownFloor
	}
	matches = append(matches, Match{Intent: Unknown, Confidence: unknownScore})

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})

	primary := matches[0]
	var secondary []Match
	for _, m := range matches[1:] {
		if m.Intent == Unknown {
			continue
		}
		if m.Confidence >= c.cfg.SecondaryThreshold {
			secondary = append(secondary, m)
		}
	}

	overall := primary.Confidence
	for _, s := range secondary {
		overall -= c.cfg.CompetitionPenalty * s.Confidence
	}
	if overall < 0 {
		overall = 0
	}

	if primary.Intent == Unknown {
		notes = append(notes, "no intent profile produced sufficient evidence")
	}

	result := &Result{
		Primary:           primary,
		Secondary:         secondary,
		IsMultiIntent:     len(secondary) > 0,
		OverallConfidence: overall,
		ProcessingNotes:   notes,
	}

	c.log.Debug("classified request", map[string]interface{}{
		"primary":    string(primary.Intent),
		"confidence": primary.Confidence,
		"secondary":  len(secondary),
	})

	return result, nil
}

// ClassifyBatch classifies each text in order, stopping on context cancellation.
func (c *Classifier) ClassifyBatch(ctx context.Context, texts []string) ([]*Result, error) {
	results := make([]*Result, 0, len(texts))
	for _, text := range texts {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		r, err := c.Classify(ctx, text)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}

// scoreIntent returns the match plus the penalty subtracted for
// negated evidence, so the caller can credit it to the cancel intent.
func (c *Classifier) scoreIntent(in Intent, text string, clueBoost float64, clues []string, notes *[]string) (Match, float64) {
	profile := profiles[in]
	m := Match{Intent: in}

	score := 0.0
	evidenceIdx := [][]int{}
	for _, p := range profile.Patterns {
		if loc := p.FindStringIndex(text); loc != nil {
			score += c.cfg.PatternWeight
			m.MatchedPatterns = append(m.MatchedPatterns, p.String())
			evidenceIdx = append(evidenceIdx, loc)
		}
	}
	for _, kw := range c.kwords[in] {
		if loc := kw.re.FindStringIndex(text); loc != nil {
			score += kw.weight * c.cfg.KeywordScale
			m.MatchedKeywords = append(m.MatchedKeywords, kw.word)
			evidenceIdx = append(evidenceIdx, loc)
		}
	}

	if score == 0 {
		return m, 0
	}

	score += clueBoost
	m.ContextClues = clues

	negPenalty := 0.0
	if c.isNegated(text, evidenceIdx) {
		negPenalty = score
		if negPenalty > c.cfg.NegationPenaltyMax {
			negPenalty = c.cfg.NegationPenaltyMax
		}
		score -= negPenalty
		*notes = append(*notes, fmt.Sprintf("negation detected near %s evidence", in))
	}

	if score > 1.0 {
		score = 1.0
	}
	if score < 0 {
		score = 0
	}
	m.Confidence = score
	return m, negPenalty
}

// contextClues returns the intent-independent boost for the text.
func (c *Classifier) contextClues(text string) (float64, []string) {
	boost := 0.0
	var clues []string
	if temporalCluePattern.MatchString(text) {
		boost += c.cfg.TemporalClueBoost
		clues = append(clues, "temporal_reference")
	}
	if clockTimeCluePattern.MatchString(text) {
		boost += c.cfg.ClockTimeClueBoost
		clues = append(clues, "clock_time")
	}
	if fleetIDCluePattern.MatchString(text) {
		boost += c.cfg.FleetIDClueBoost
		clues = append(clues, "fleet_identifier")
	}
	return boost, clues
}

// isNegated reports whether a negation cue sits just before any evidence span.
func (c *Classifier) isNegated(text string, evidence [][]int) bool {
	for _, loc := range evidence {
		start := loc[0] - 20
		if start < 0 {
			start = 0
		}
		if negationCuePattern.MatchString(text[start:loc[0]]) {
			return true
		}
	}
	return false
}

var whitespacePattern = regexp.MustCompile(`\s+`)

// preprocess lowercases, collapses whitespace, and expands abbreviations.
func preprocess(text string) (string, []string) {
	var notes []string
	processed := strings.ToLower(strings.TrimSpace(text))
	processed = whitespacePattern.ReplaceAllString(processed, " ")

	words := strings.Split(processed, " ")
	for i, w := range words {
		trimmed := strings.Trim(w, ".,!?;:")
		if full, ok := abbreviations[trimmed]; ok {
			words[i] = strings.Replace(w, trimmed, full, 1)
			notes = append(notes, fmt.Sprintf("expanded abbreviation %q to %q", trimmed, full))
		}
	}
	return strings.Join(words, " "), notes
}
