// Package selector ranks catalog templates against a classified request.
package selector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/mklemmingen/ComBadge-sub001/internal/catalog"
	"github.com/mklemmingen/ComBadge-sub001/internal/common/config"
	"github.com/mklemmingen/ComBadge-sub001/internal/common/logger"
	"github.com/mklemmingen/ComBadge-sub001/internal/entity"
	"github.com/mklemmingen/ComBadge-sub001/internal/intent"
)

// Strategy names the selection path that produced a result.
type Strategy string

const (
	StrategyExactMatch    Strategy = "exact_match"
	StrategyBestFit       Strategy = "best_fit"
	StrategyMultiTemplate Strategy = "multi_template"
	StrategyFallback      Strategy = "fallback"
)

// Criterion names one scoring component.
type Criterion string

const (
	CriterionIntentAlignment Criterion = "intent_alignment"
	CriterionEntityCoverage  Criterion = "entity_coverage"
	CriterionKeywordMatch    Criterion = "keyword_match"
	CriterionCategoryFit     Criterion = "category_fit"
	CriterionPopularity      Criterion = "popularity"
	CriterionRecency         Criterion = "recency"
)

// TemplateScore is the weighted assessment of one candidate.
type TemplateScore struct {
	Template        *catalog.Template     `json:"-"`
	TemplateID      string                `json:"templateId"`
	Total           float64               `json:"total"`
	Criteria        map[Criterion]float64 `json:"criteria"`
	MissingEntities []string              `json:"missingEntities,omitempty"`
}

// Step is one entry of a multi-intent execution plan.
type Step struct {
	Intent     intent.Intent     `json:"intent"`
	TemplateID string            `json:"templateId"`
	Template   *catalog.Template `json:"-"`
	Priority   int               `json:"priority"`
}

// Selection is the final choice with its alternatives.
type Selection struct {
	Template        *catalog.Template `json:"-"`
	TemplateID      string            `json:"templateId"`
	Score           float64           `json:"score"`
	Strategy        Strategy          `json:"strategy"`
	Alternatives    []TemplateScore   `json:"alternatives,omitempty"`
	MissingEntities []string          `json:"missingEntities,omitempty"`
	Plan            []Step            `json:"plan,omitempty"`
	Notes           []string          `json:"notes,omitempty"`
}

// Selector scores templates with the six weighted criteria and applies
// the exact / best-fit / fallback cascade.
type Selector struct {
	cfg      config.SelectorConfig
	registry *catalog.Registry
	log      logger.Logger
}

func NewSelector(cfg config.SelectorConfig, registry *catalog.Registry, log logger.Logger) *Selector {
	return &Selector{
		cfg:      cfg,
		registry: registry,
		log:      log.With(map[string]interface{}{"component": "selector"}),
	}
}

// Select runs the hybrid cascade: exact match, then best fit over the
// intent's candidates, then fallback over the whole catalog in category
// priority order. Multi-intent requests additionally get a plan. When
// nothing qualifies the selection comes back empty with notes; errors
// are reserved for cancellation and catalog access.
func (s *Selector) Select(ctx context.Context, text string, classification *intent.Result, extraction *entity.Result) (*Selection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	primary := classification.Primary.Intent
	candidates := s.candidatesFor(primary)

	scores := s.scoreAll(ctx, candidates, text, classification, extraction)

	var selection *Selection
	if len(scores) > 0 {
		top := scores[0]
		switch {
		case top.Total >= s.cfg.ExactMatchThreshold && len(top.MissingEntities) == 0:
			selection = s.buildSelection(top, StrategyExactMatch, scores)
		case top.Total >= s.cfg.MinScoreThreshold:
			selection = s.buildSelection(top, StrategyBestFit, scores)
		}
	}

	if selection == nil {
		fb, err := s.fallback(ctx, text, classification, extraction)
		if err != nil {
			return nil, err
		}
		selection = fb
	}

	if classification.IsMultiIntent {
		selection.Plan = s.buildPlan(ctx, text, classification, extraction)
	}

	s.log.Debug("template selected", map[string]interface{}{
		"templateId": selection.TemplateID,
		"strategy":   string(selection.Strategy),
		"score":      selection.Score,
	})

	return selection, nil
}

// candidatesFor collects templates declaring the intent, falling back to
// the intent's mapped category.
func (s *Selector) candidatesFor(in intent.Intent) []*catalog.Template {
	candidates := s.registry.ByIntent(string(in))
	if len(candidates) == 0 {
		if category, ok := intentCategories[in]; ok {
			candidates = s.registry.ByCategory(category)
		}
	}
	return candidates
}

func (s *Selector) scoreAll(ctx context.Context, candidates []*catalog.Template, text string, classification *intent.Result, extraction *entity.Result) []TemplateScore {
	scores := make([]TemplateScore, 0, len(candidates))
	for _, tpl := range candidates {
		scores = append(scores, s.scoreTemplate(ctx, tpl, text, classification, extraction))
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Total > scores[j].Total
	})
	return scores
}

// scoreTemplate applies the six weighted criteria and the partial-match
// penalty for missing required entities.
func (s *Selector) scoreTemplate(ctx context.Context, tpl *catalog.Template, text string, classification *intent.Result, extraction *entity.Result) TemplateScore {
	criteria := map[Criterion]float64{
		CriterionIntentAlignment: s.intentAlignment(tpl, classification),
		CriterionKeywordMatch:    keywordMatch(tpl, text),
		CriterionCategoryFit:     s.categoryFit(tpl, classification),
		CriterionPopularity:      s.popularity(ctx, tpl),
		CriterionRecency:         s.recency(tpl),
	}

	coverage, missing := s.entityCoverage(tpl, extraction)
	criteria[CriterionEntityCoverage] = coverage

	total := criteria[CriterionIntentAlignment]*s.cfg.IntentAlignmentWeight +
		criteria[CriterionEntityCoverage]*s.cfg.EntityCoverageWeight +
		criteria[CriterionKeywordMatch]*s.cfg.KeywordMatchWeight +
		criteria[CriterionCategoryFit]*s.cfg.CategoryFitWeight +
		criteria[CriterionPopularity]*s.cfg.PopularityWeight +
		criteria[CriterionRecency]*s.cfg.RecencyWeight

	total -= s.cfg.PartialMatchPenalty * float64(len(missing))
	if total < 0 {
		total = 0
	}

	return TemplateScore{
		Template:        tpl,
		TemplateID:      tpl.Metadata.ID(),
		Total:           total,
		Criteria:        criteria,
		MissingEntities: missing,
	}
}

// intentAlignment scores declared-intent hits plus keyword-mapping overlap.
func (s *Selector) intentAlignment(tpl *catalog.Template, classification *intent.Result) float64 {
	score := 0.0
	if containsString(tpl.Metadata.Intents, string(classification.Primary.Intent)) {
		score += 0.8
	} else {
		for _, sec := range classification.Secondary {
			if containsString(tpl.Metadata.Intents, string(sec.Intent)) {
				score += 0.4
				break
			}
		}
	}

	mapped := intentKeywords[classification.Primary.Intent]
	if len(mapped) > 0 && len(tpl.Metadata.Keywords) > 0 {
		overlap := 0
		for _, kw := range mapped {
			if containsString(tpl.Metadata.Keywords, kw) {
				overlap++
			}
		}
		score += 0.2 * float64(overlap) / float64(len(mapped))
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// entityCoverage checks the template's required entities against what
// was extracted, honoring field aliases.
func (s *Selector) entityCoverage(tpl *catalog.Template, extraction *entity.Result) (float64, []string) {
	required := tpl.Metadata.RequiredEntities
	if len(required) == 0 {
		return 1.0, nil
	}

	found := 0
	var missing []string
	for _, name := range required {
		if entitySatisfies(name, extraction) {
			found++
		} else {
			missing = append(missing, name)
		}
	}
	return float64(found) / float64(len(required)), missing
}

func keywordMatch(tpl *catalog.Template, text string) float64 {
	if len(tpl.Metadata.Keywords) == 0 {
		return 0.5
	}
	lower := strings.ToLower(text)
	hits := 0
	for _, kw := range tpl.Metadata.Keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			hits++
		}
	}
	return float64(hits) / float64(len(tpl.Metadata.Keywords))
}

func (s *Selector) categoryFit(tpl *catalog.Template, classification *intent.Result) float64 {
	if intentCategories[classification.Primary.Intent] == tpl.Metadata.Category {
		return 1.0
	}
	for _, sec := range classification.Secondary {
		if intentCategories[sec.Intent] == tpl.Metadata.Category {
			return 0.5
		}
	}
	return 0
}

// popularity is log-scaled usage, saturating at 100 uses.
func (s *Selector) popularity(ctx context.Context, tpl *catalog.Template) float64 {
	stats, err := s.registry.Stats().Get(ctx, tpl.Metadata.ID())
	if err != nil {
		return 0
	}
	score := math.Log(float64(stats.Uses)+1) / math.Log(100)
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func (s *Selector) recency(tpl *catalog.Template) float64 {
	latest, err := s.registry.Latest(tpl.Metadata.Category, tpl.Metadata.Name)
	if err != nil {
		return 0.3
	}
	if latest.Metadata.Version == tpl.Metadata.Version {
		return 1.0
	}
	return 0.3
}

// fallback scans the whole catalog with a relaxed threshold, preferring
// categories in the configured priority order.
func (s *Selector) fallback(ctx context.Context, text string, classification *intent.Result, extraction *entity.Result) (*Selection, error) {
	threshold := s.cfg.MinScoreThreshold * s.cfg.FallbackScale

	scores := s.scoreAll(ctx, s.registry.All(), text, classification, extraction)

	for _, category := range s.cfg.CategoryPriority {
		for _, score := range scores {
			if score.Template.Metadata.Category != category {
				continue
			}
			if score.Total >= threshold {
				sel := s.buildSelection(score, StrategyFallback, scores)
				sel.Notes = append(sel.Notes, fmt.Sprintf("fallback selection from category %s", category))
				return sel, nil
			}
		}
	}

	return &Selection{
		Notes: []string{
			fmt.Sprintf("no template cleared the fallback threshold for intent %s", classification.Primary.Intent),
		},
	}, nil
}

// buildPlan picks the best template per detected intent, ordered by
// classification confidence.
func (s *Selector) buildPlan(ctx context.Context, text string, classification *intent.Result, extraction *entity.Result) []Step {
	intents := make([]intent.Match, 0, 1+len(classification.Secondary))
	intents = append(intents, classification.Primary)
	intents = append(intents, classification.Secondary...)

	var plan []Step
	for i, m := range intents {
		scores := s.scoreAll(ctx, s.candidatesFor(m.Intent), text, classification, extraction)
		if len(scores) == 0 || scores[0].Total < s.cfg.MinScoreThreshold*s.cfg.FallbackScale {
			continue
		}
		plan = append(plan, Step{
			Intent:     m.Intent,
			TemplateID: scores[0].TemplateID,
			Template:   scores[0].Template,
			Priority:   i + 1,
		})
	}
	return plan
}

func (s *Selector) buildSelection(top TemplateScore, strategy Strategy, scores []TemplateScore) *Selection {
	alternatives := make([]TemplateScore, 0, 3)
	for _, score := range scores {
		if score.TemplateID == top.TemplateID {
			continue
		}
		alternatives = append(alternatives, score)
		if len(alternatives) == 3 {
			break
		}
	}

	return &Selection{
		Template:        top.Template,
		TemplateID:      top.TemplateID,
		Score:           top.Total,
		Strategy:        strategy,
		Alternatives:    alternatives,
		MissingEntities: top.MissingEntities,
	}
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
