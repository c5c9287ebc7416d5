package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/mklemmingen/ComBadge-sub001/internal/common/errors"
	"github.com/mklemmingen/ComBadge-sub001/internal/common/logger"
)

var versionPattern = regexp.MustCompile(`^\d+\.\d+(\.\d+)?$`)

// templateSchema is the structural contract every template file must meet
// before its metadata is inspected.
const templateSchema = `{
	"type": "object",
	"required": ["template_metadata", "template"],
	"properties": {
		"template_metadata": {
			"type": "object",
			"required": ["name", "category", "version", "intents"],
			"properties": {
				"name": {"type": "string", "minLength": 1},
				"category": {"type": "string", "minLength": 1},
				"version": {"type": "string", "pattern": "^\\d+\\.\\d+(\\.\\d+)?$"},
				"description": {"type": "string"},
				"intents": {"type": "array", "items": {"type": "string"}, "minItems": 1},
				"required_entities": {"type": "array", "items": {"type": "string"}},
				"optional_entities": {"type": "array", "items": {"type": "string"}},
				"keywords": {"type": "array", "items": {"type": "string"}},
				"priority": {"type": "integer"}
			}
		},
		"template": {"type": "object"},
		"validation_rules": {
			"type": "object",
			"properties": {
				"required_fields": {"type": "array", "items": {"type": "string"}},
				"field_types": {"type": "object"},
				"constraints": {"type": "object"}
			}
		}
	}
}`

var compiledTemplateSchema = gojsonschema.NewStringLoader(templateSchema)

// Load reads every *.json template under dir into a Registry. A missing
// or empty directory makes the catalog unavailable, which aborts the
// pipeline; a single malformed file only skips that file.
func Load(dir string, stats StatsStore, log logger.Logger) (*Registry, error) {
	log = log.With(map[string]interface{}{"component": "catalog"})

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewCatalogLoadFailedError(dir, err)
	}

	registry := newRegistry(stats)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		t, err := loadTemplateFile(path)
		if err != nil {
			log.Warn("skipping invalid template file", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
			continue
		}

		registry.add(t)
		log.Debug("loaded template", map[string]interface{}{
			"id": t.Metadata.ID(),
		})
	}

	if registry.Len() == 0 {
		return nil, errors.NewCatalogUnavailableError(fmt.Errorf("no valid templates in %s", dir))
	}

	log.Info("catalog loaded", map[string]interface{}{
		"dir":       dir,
		"templates": registry.Len(),
	})

	return registry, nil
}

func loadTemplateFile(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}

	result, err := gojsonschema.Validate(compiledTemplateSchema, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("schema check: %w", err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return nil, fmt.Errorf("schema violations: %s", strings.Join(details, "; "))
	}

	var t Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode template: %w", err)
	}

	if err := t.Metadata.Validate(); err != nil {
		return nil, fmt.Errorf("invalid metadata: %w", err)
	}

	return &t, nil
}
