package selector

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklemmingen/ComBadge-sub001/internal/catalog"
	"github.com/mklemmingen/ComBadge-sub001/internal/common/config"
	"github.com/mklemmingen/ComBadge-sub001/internal/common/logger"
	"github.com/mklemmingen/ComBadge-sub001/internal/entity"
	"github.com/mklemmingen/ComBadge-sub001/internal/intent"
)

const maintenanceTemplate = `{
	"template_metadata": {
		"name": "schedule_maintenance",
		"category": "maintenance",
		"version": "1.0",
		"intents": ["schedule_task"],
		"required_entities": ["vehicle_id", "date"],
		"keywords": ["maintenance", "service", "oil", "repair"]
	},
	"template": {
		"vehicle_id": "{vehicle_id}",
		"scheduled_date": "{date}"
	},
	"validation_rules": {
		"required_fields": ["vehicle_id", "scheduled_date"]
	}
}`

const reservationTemplate = `{
	"template_metadata": {
		"name": "reserve_vehicle",
		"category": "reservations",
		"version": "1.0",
		"intents": ["make_reservation"],
		"required_entities": ["date"],
		"keywords": ["reserve", "booking"]
	},
	"template": {
		"reservation_date": "{date}"
	},
	"validation_rules": {
		"required_fields": ["reservation_date"]
	}
}`

func buildTestRegistry(t *testing.T) *catalog.Registry {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "maintenance.json"), []byte(maintenanceTemplate), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reservation.json"), []byte(reservationTemplate), 0o644))

	registry, err := catalog.Load(dir, catalog.NewMemoryStatsStore(), logger.NewTestLogger(t))
	require.NoError(t, err)
	return registry
}

func createTestSelector(t *testing.T, registry *catalog.Registry) *Selector {
	cfg := config.Default()
	return NewSelector(cfg.Selector, registry, logger.NewTestLogger(t))
}

func extractionWith(entities ...entity.Entity) *entity.Result {
	r := &entity.Result{
		Entities: entities,
		ByType:   make(map[entity.Type][]entity.Entity),
	}
	for _, e := range entities {
		r.ByType[e.Type] = append(r.ByType[e.Type], e)
	}
	return r
}

func fullExtraction() *entity.Result {
	return extractionWith(
		entity.Entity{Type: entity.TypeVehicleID, Value: "FL-1234", Confidence: 0.95},
		entity.Entity{Type: entity.TypeDate, Value: "2025-03-11", Confidence: 0.9},
	)
}

func TestSelect_BestFit(t *testing.T) {
	registry := buildTestRegistry(t)
	s := createTestSelector(t, registry)

	classification := &intent.Result{
		Primary: intent.Match{Intent: intent.ScheduleTask, Confidence: 0.8},
	}

	selection, err := s.Select(context.Background(), "Schedule oil change for vehicle FL-1234 tomorrow", classification, fullExtraction())
	require.NoError(t, err)

	assert.Equal(t, "maintenance.schedule_maintenance.1.0", selection.TemplateID)
	assert.Equal(t, StrategyBestFit, selection.Strategy)
	assert.Empty(t, selection.MissingEntities)
}

func TestSelect_ExactMatchWithPopularity(t *testing.T) {
	registry := buildTestRegistry(t)
	s := createTestSelector(t, registry)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, registry.Stats().Record(ctx, "maintenance.schedule_maintenance.1.0", true, time.Millisecond))
	}

	classification := &intent.Result{
		Primary: intent.Match{Intent: intent.ScheduleTask, Confidence: 0.9},
	}

	selection, err := s.Select(ctx, "Schedule oil change maintenance service repair for FL-1234 tomorrow", classification, fullExtraction())
	require.NoError(t, err)

	assert.Equal(t, StrategyExactMatch, selection.Strategy)
	assert.GreaterOrEqual(t, selection.Score, 0.9)
}

func TestSelect_MissingEntityPenalty(t *testing.T) {
	registry := buildTestRegistry(t)
	s := createTestSelector(t, registry)

	classification := &intent.Result{
		Primary: intent.Match{Intent: intent.ScheduleTask, Confidence: 0.8},
	}
	partial := extractionWith(
		entity.Entity{Type: entity.TypeVehicleID, Value: "FL-1234", Confidence: 0.95},
	)

	selection, err := s.Select(context.Background(), "Schedule oil change service for FL-1234", classification, partial)
	require.NoError(t, err)

	assert.Equal(t, StrategyBestFit, selection.Strategy)
	assert.Contains(t, selection.MissingEntities, "date")
}

func TestSelect_FallbackCategoryPriority(t *testing.T) {
	registry := buildTestRegistry(t)
	s := createTestSelector(t, registry)

	// Unknown primary intent has no candidates, forcing the fallback
	// scan; maintenance outranks reservations in the priority order.
	classification := &intent.Result{
		Primary: intent.Match{Intent: intent.Unknown, Confidence: 0.6},
	}

	selection, err := s.Select(context.Background(), "something about maintenance and booking", classification, fullExtraction())
	require.NoError(t, err)

	assert.Equal(t, StrategyFallback, selection.Strategy)
	assert.Equal(t, "maintenance", selection.Template.Metadata.Category)
	assert.NotEmpty(t, selection.Notes)
}

func TestSelect_NoMatch(t *testing.T) {
	registry := buildTestRegistry(t)
	s := createTestSelector(t, registry)

	classification := &intent.Result{
		Primary: intent.Match{Intent: intent.Unknown, Confidence: 0.9},
	}

	selection, err := s.Select(context.Background(), "completely unrelated text", classification, extractionWith())
	require.NoError(t, err)

	assert.Nil(t, selection.Template)
	assert.Empty(t, selection.TemplateID)
	assert.Zero(t, selection.Score)
	assert.NotEmpty(t, selection.Notes)
}

func TestSelect_MultiIntentPlan(t *testing.T) {
	registry := buildTestRegistry(t)
	s := createTestSelector(t, registry)

	classification := &intent.Result{
		Primary: intent.Match{Intent: intent.ScheduleTask, Confidence: 0.85},
		Secondary: []intent.Match{
			{Intent: intent.MakeReservation, Confidence: 0.6},
		},
		IsMultiIntent: true,
	}

	selection, err := s.Select(context.Background(), "Schedule maintenance service and reserve a booking for FL-1234 tomorrow", classification, fullExtraction())
	require.NoError(t, err)

	require.Len(t, selection.Plan, 2)
	assert.Equal(t, intent.ScheduleTask, selection.Plan[0].Intent)
	assert.Equal(t, 1, selection.Plan[0].Priority)
	assert.Equal(t, intent.MakeReservation, selection.Plan[1].Intent)
	assert.Equal(t, 2, selection.Plan[1].Priority)
}

func TestEntitySatisfies_Aliases(t *testing.T) {
	extraction := extractionWith(
		entity.Entity{Type: entity.TypeVIN, Value: "1HGBH41JXMN109186", Confidence: 0.95},
	)

	assert.True(t, entitySatisfies("vehicle", extraction))
	assert.True(t, entitySatisfies("vehicle_id", extraction))
	assert.False(t, entitySatisfies("person", extraction))
	assert.False(t, entitySatisfies("made_up_field", extraction))
}
