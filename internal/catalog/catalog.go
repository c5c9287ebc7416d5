// Package catalog loads, indexes, and tracks usage of payload templates.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/mklemmingen/ComBadge-sub001/internal/common/errors"
)

// Metadata describes one template independent of its body.
type Metadata struct {
	Name             string    `json:"name"`
	Category         string    `json:"category"`
	Version          string    `json:"version"`
	Description      string    `json:"description,omitempty"`
	Intents          []string  `json:"intents"`
	RequiredEntities []string  `json:"required_entities,omitempty"`
	OptionalEntities []string  `json:"optional_entities,omitempty"`
	Keywords         []string  `json:"keywords,omitempty"`
	Priority         int       `json:"priority,omitempty"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
	UpdatedAt        time.Time `json:"updated_at,omitempty"`
}

// ID is the canonical template identifier.
func (m Metadata) ID() string {
	return fmt.Sprintf("%s.%s.%s", m.Category, m.Name, m.Version)
}

// Validate checks the metadata fields a catalog entry must carry.
func (m Metadata) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Name, validation.Required, validation.Length(1, 64)),
		validation.Field(&m.Category, validation.Required, validation.Length(1, 64)),
		validation.Field(&m.Version, validation.Required, validation.Match(versionPattern)),
		validation.Field(&m.Intents, validation.Required),
	)
}

// FieldConstraint bounds one payload field in a template's own rules.
type FieldConstraint struct {
	MinLength *int     `json:"min_length,omitempty"`
	MaxLength *int     `json:"max_length,omitempty"`
	Minimum   *float64 `json:"minimum,omitempty"`
	Maximum   *float64 `json:"maximum,omitempty"`
	Enum      []string `json:"enum,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
}

// ValidationRules are the per-template payload rules.
type ValidationRules struct {
	RequiredFields []string                   `json:"required_fields,omitempty"`
	FieldTypes     map[string]string          `json:"field_types,omitempty"`
	Constraints    map[string]FieldConstraint `json:"constraints,omitempty"`
}

// Template is one loaded catalog entry.
type Template struct {
	Metadata Metadata               `json:"template_metadata"`
	Body     map[string]interface{} `json:"template"`
	Rules    ValidationRules        `json:"validation_rules"`
}

// Summary aggregates catalog shape for diagnostics.
type Summary struct {
	TemplateCount int            `json:"templateCount"`
	Categories    map[string]int `json:"categories"`
	Intents       map[string]int `json:"intents"`
}

// Registry indexes loaded templates by id, category, intent, and version.
type Registry struct {
	templates  map[string]*Template
	byCategory map[string][]*Template
	byIntent   map[string][]*Template
	versions   map[string][]*Template // category.name, newest first
	stats      StatsStore
}

func newRegistry(stats StatsStore) *Registry {
	return &Registry{
		templates:  make(map[string]*Template),
		byCategory: make(map[string][]*Template),
		byIntent:   make(map[string][]*Template),
		versions:   make(map[string][]*Template),
		stats:      stats,
	}
}

func (r *Registry) add(t *Template) {
	id := t.Metadata.ID()
	r.templates[id] = t
	r.byCategory[t.Metadata.Category] = append(r.byCategory[t.Metadata.Category], t)
	for _, in := range t.Metadata.Intents {
		r.byIntent[in] = append(r.byIntent[in], t)
	}

	key := t.Metadata.Category + "." + t.Metadata.Name
	r.versions[key] = append(r.versions[key], t)
	sort.SliceStable(r.versions[key], func(i, j int) bool {
		return compareVersions(r.versions[key][i].Metadata.Version, r.versions[key][j].Metadata.Version) > 0
	})
}

// Get returns the template with the exact id.
func (r *Registry) Get(id string) (*Template, error) {
	t, ok := r.templates[id]
	if !ok {
		return nil, errors.NewTemplateNotFoundError(id)
	}
	return t, nil
}

// Latest returns the newest version of a named template.
func (r *Registry) Latest(category, name string) (*Template, error) {
	versions := r.versions[category+"."+name]
	if len(versions) == 0 {
		return nil, errors.NewTemplateNotFoundError(category + "." + name)
	}
	return versions[0], nil
}

// ByCategory returns all templates in a category.
func (r *Registry) ByCategory(category string) []*Template {
	return r.byCategory[category]
}

// ByIntent returns all templates declaring the given intent.
func (r *Registry) ByIntent(intent string) []*Template {
	return r.byIntent[intent]
}

// All returns every loaded template in stable id order.
func (r *Registry) All() []*Template {
	ids := make([]string, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]*Template, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.templates[id])
	}
	return out
}

// Len reports the number of loaded templates.
func (r *Registry) Len() int {
	return len(r.templates)
}

// Stats exposes the usage store.
func (r *Registry) Stats() StatsStore {
	return r.stats
}

// Summarize reports catalog shape per category and intent.
func (r *Registry) Summarize() Summary {
	s := Summary{
		TemplateCount: len(r.templates),
		Categories:    make(map[string]int),
		Intents:       make(map[string]int),
	}
	for _, t := range r.templates {
		s.Categories[t.Metadata.Category]++
		for _, in := range t.Metadata.Intents {
			s.Intents[in]++
		}
	}
	return s
}

// ExportCatalog writes the metadata of every template as a JSON array.
func (r *Registry) ExportCatalog(w io.Writer) error {
	all := r.All()
	metas := make([]Metadata, 0, len(all))
	for _, t := range all {
		metas = append(metas, t.Metadata)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(metas)
}

// compareVersions orders dotted numeric versions; unparsable segments
// fall back to string comparison.
func compareVersions(a, b string) int {
	aParts := strings.Split(a, ".")
	bParts := strings.Split(b, ".")
	for i := 0; i < len(aParts) || i < len(bParts); i++ {
		var aSeg, bSeg string
		if i < len(aParts) {
			aSeg = aParts[i]
		}
		if i < len(bParts) {
			bSeg = bParts[i]
		}
		aNum, aErr := strconv.Atoi(aSeg)
		bNum, bErr := strconv.Atoi(bSeg)
		if aErr == nil && bErr == nil {
			if aNum != bNum {
				if aNum > bNum {
					return 1
				}
				return -1
			}
			continue
		}
		if c := strings.Compare(aSeg, bSeg); c != 0 {
			return c
		}
	}
	return 0
}
