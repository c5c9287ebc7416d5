// Package generator renders template bodies into concrete API payloads.
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/mklemmingen/ComBadge-sub001/internal/catalog"
	"github.com/mklemmingen/ComBadge-sub001/internal/common/config"
	"github.com/mklemmingen/ComBadge-sub001/internal/common/logger"
	"github.com/mklemmingen/ComBadge-sub001/internal/entity"
)

// Generation is the rendered payload with its quality assessment.
type Generation struct {
	Payload        map[string]interface{} `json:"payload"`
	Confidence     float64                `json:"confidence"`
	ResolvedFields []string               `json:"resolvedFields,omitempty"`
	MissingFields  []string               `json:"missingFields,omitempty"`
	Errors         []string               `json:"errors,omitempty"`
}

// MarshalPayload serializes the payload with sorted keys, so identical
// inputs produce byte-identical output.
func (g *Generation) MarshalPayload() ([]byte, error) {
	return json.Marshal(g.Payload)
}

// Generator fills template placeholders from extracted entities.
// Parsed template trees are cached across calls; Now is injectable for
// deterministic timestamp tests.
type Generator struct {
	cfg   config.GeneratorConfig
	log   logger.Logger
	cache *gocache.Cache
	Now   func() time.Time

	mu       sync.Mutex
	counters map[string]int64
}

func New(cfg config.GeneratorConfig, log logger.Logger) *Generator {
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	return &Generator{
		cfg:      cfg,
		log:      log.With(map[string]interface{}{"component": "generator"}),
		cache:    gocache.New(ttl, 2*ttl),
		Now:      time.Now,
		counters: make(map[string]int64),
	}
}

// Generate renders the template body against the extraction result.
func (g *Generator) Generate(ctx context.Context, tpl *catalog.Template, extraction *entity.Result) (*Generation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root := g.parsedTemplate(tpl)

	state := &renderState{extraction: extraction}
	payload := g.renderObject(root, state)

	gen := &Generation{
		Payload:        payload,
		ResolvedFields: state.resolved,
		MissingFields:  state.missing,
		Errors:         state.errors,
	}
	gen.Confidence = g.confidence(tpl, root, state, extraction)

	g.log.Debug("payload generated", map[string]interface{}{
		"templateId": tpl.Metadata.ID(),
		"confidence": gen.Confidence,
		"missing":    len(state.missing),
	})

	return gen, nil
}

// parsedTemplate returns the cached node tree, parsing on first use.
func (g *Generator) parsedTemplate(tpl *catalog.Template) *objectNode {
	id := tpl.Metadata.ID()
	if cached, ok := g.cache.Get(id); ok {
		return cached.(*objectNode)
	}
	root := parseBody(tpl.Body)
	g.cache.Set(id, root, gocache.DefaultExpiration)
	return root
}

type renderState struct {
	extraction *entity.Result
	resolved   []string
	missing    []string
	errors     []string
}

func (g *Generator) renderObject(n *objectNode, state *renderState) map[string]interface{} {
	out := make(map[string]interface{}, len(n.Keys))
	for _, key := range n.Keys {
		out[key] = g.renderNode(n.Fields[key], state)
	}
	return out
}

func (g *Generator) renderNode(n node, state *renderState) interface{} {
	switch v := n.(type) {
	case *objectNode:
		return g.renderObject(v, state)
	case *arrayNode:
		items := make([]interface{}, 0, len(v.Items))
		for _, item := range v.Items {
			items = append(items, g.renderNode(item, state))
		}
		return items
	case *literalNode:
		return v.Value
	case *stringNode:
		return g.renderString(v, state)
	default:
		return nil
	}
}

// renderString substitutes placeholders. A leaf that is exactly one
// placeholder keeps its resolved JSON type instead of stringifying.
func (g *Generator) renderString(n *stringNode, state *renderState) interface{} {
	if len(n.Segments) == 1 && n.Segments[0].Placeholder != nil {
		value, _ := g.resolve(n.Segments[0].Placeholder, state)
		return value
	}

	var sb strings.Builder
	for _, seg := range n.Segments {
		if seg.Placeholder == nil {
			sb.WriteString(seg.Text)
			continue
		}
		value, ok := g.resolve(seg.Placeholder, state)
		if !ok || value == nil {
			state.errors = append(state.errors, fmt.Sprintf("unresolved placeholder %q inside composite string", seg.Placeholder.Name))
			continue
		}
		sb.WriteString(fmt.Sprintf("%v", value))
	}
	return sb.String()
}

// resolve walks the fallback chain for one placeholder: extracted
// entity, declared default, then field-name conventions.
func (g *Generator) resolve(ph *placeholder, state *renderState) (interface{}, bool) {
	if e, ok := lookupEntity(ph.Name, state.extraction); ok {
		state.resolved = append(state.resolved, ph.Name)
		return e.Value, true
	}

	if ph.HasDefault {
		return g.resolveDefault(ph), true
	}

	if value, ok := g.nameFallback(ph.Name); ok {
		return value, true
	}

	state.missing = append(state.missing, ph.Name)
	return nil, false
}

// resolveDefault interprets sentinel defaults; anything else is literal.
func (g *Generator) resolveDefault(ph *placeholder) interface{} {
	switch ph.Default {
	case "null":
		return nil
	case "current_timestamp":
		return g.Now().UTC().Format(time.RFC3339)
	case "auto_generate":
		return g.autoIncrement(ph.Name)
	case "[]":
		return []interface{}{}
	case "{}":
		return map[string]interface{}{}
	default:
		return ph.Default
	}
}

// nameFallback fills well-known field shapes that carry safe defaults.
func (g *Generator) nameFallback(name string) (interface{}, bool) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, "_id"):
		return g.autoIncrement(name), true
	case lower == "status" || strings.HasSuffix(lower, "_status"):
		return "pending", true
	case isBoolField(lower):
		return false, true
	case strings.Contains(lower, "count"):
		return 0, true
	case isTimestampField(lower):
		return g.Now().UTC().Format(time.RFC3339), true
	default:
		return nil, false
	}
}

// autoIncrement issues sequential identifiers per field prefix.
func (g *Generator) autoIncrement(name string) string {
	prefix := strings.ToUpper(strings.ReplaceAll(name, "_", ""))
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}

	g.mu.Lock()
	g.counters[prefix]++
	n := g.counters[prefix]
	g.mu.Unlock()

	return fmt.Sprintf("%s-%04d", prefix, n)
}

// confidence blends entity coverage, generation errors, missing
// required fields, and entity quality.
func (g *Generator) confidence(tpl *catalog.Template, root *objectNode, state *renderState, extraction *entity.Result) float64 {
	total := placeholderCount(root)
	coverage := 1.0
	if total > 0 {
		coverage = float64(len(state.resolved)) / float64(total)
	}

	errPenalty := g.cfg.ErrorPenalty * float64(len(state.errors))
	if errPenalty > g.cfg.ErrorPenaltyCap {
		errPenalty = g.cfg.ErrorPenaltyCap
	}

	missingRequired := 0
	for _, m := range state.missing {
		if containsString(tpl.Rules.RequiredFields, m) {
			missingRequired++
		}
	}

	score := coverage - errPenalty - g.cfg.MissingFieldPenalty*float64(missingRequired)

	if len(extraction.Entities) > 0 {
		sum := 0.0
		for _, e := range extraction.Entities {
			sum += e.Confidence
		}
		avg := sum / float64(len(extraction.Entities))
		score += g.cfg.EntityQualityScale * (avg - 0.5)
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
