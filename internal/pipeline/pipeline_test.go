package pipeline

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
	"github.com/mklemmingen/ComBadge-sub001/internal/intent"
	"github.com/mklemmingen/ComBadge-sub001/internal/selector"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

const maintenanceTemplate = `{
	"template_metadata": {
		"name": "schedule_maintenance",
		"category": "maintenance",
		"version": "1.0",
		"intents": ["schedule_task"],
		"required_entities": ["vehicle_id", "date"],
		"optional_entities": ["time", "maintenance_type"],
		"keywords": ["maintenance", "service", "oil", "repair"]
	},
	"template": {
		"vehicle_id": "{vehicle_id}",
		"service_type": "{maintenance_type|general_service}",
		"scheduled_date": "{date}",
		"scheduled_time": "{time|09:00}",
		"status": "pending"
	},
	"validation_rules": {
		"required_fields": ["vehicle_id", "scheduled_date"],
		"field_types": {
			"vehicle_id": "string",
			"service_type": "string",
			"scheduled_date": "string",
			"scheduled_time": "string",
			"status": "string"
		}
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
		"reservation_date": "{date}",
		"requested_by": "{person|null}"
	},
	"validation_rules": {
		"required_fields": ["reservation_date"]
	}
}`

func createTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "maintenance.json"), []byte(maintenanceTemplate), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reservation.json"), []byte(reservationTemplate), 0o644))

	log := logger.NewTestLogger(t)
	registry, err := catalog.Load(dir, catalog.NewMemoryStatsStore(), log)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Catalog.TemplateDir = dir

	return New(cfg, registry, log).WithClock(func() time.Time { return testNow })
}

func TestProcess_EndToEnd(t *testing.T) {
	p := createTestPipeline(t)

	result, err := p.Process(context.Background(), "Schedule oil change for vehicle FL-1234 tomorrow at 10am")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.NotEmpty(t, result.RequestID)
	assert.GreaterOrEqual(t, result.ElapsedMS, int64(0))

	require.NotNil(t, result.Classification)
	assert.Equal(t, intent.ScheduleTask, result.Classification.Primary.Intent)
	assert.GreaterOrEqual(t, result.Classification.Primary.Confidence, 0.6)

	require.NotNil(t, result.Entities)
	vehicle, ok := result.Entities.Best("vehicle_id")
	require.True(t, ok)
	assert.Equal(t, "FL-1234", vehicle.Value)
	_, ok = result.Entities.Best("date")
	assert.True(t, ok)

	require.NotNil(t, result.Confidence)
	assert.Greater(t, result.Confidence.Overall, 0.0)

	require.NotNil(t, result.Selection)
	assert.Equal(t, "maintenance.schedule_maintenance.1.0", result.Selection.TemplateID)
	assert.Equal(t, selector.StrategyBestFit, result.Selection.Strategy)

	require.NotNil(t, result.Generation)
	assert.Equal(t, "FL-1234", result.Generation.Payload["vehicle_id"])
	assert.Equal(t, "2025-03-11", result.Generation.Payload["scheduled_date"])
	assert.Equal(t, "10:00", result.Generation.Payload["scheduled_time"])
	assert.Equal(t, "oil change", result.Generation.Payload["service_type"])

	require.NotNil(t, result.Validation)
	assert.True(t, result.Validation.Valid)
}

func TestProcess_RecordsUsageStats(t *testing.T) {
	p := createTestPipeline(t)

	_, err := p.Process(context.Background(), "Schedule oil change for vehicle FL-1234 tomorrow at 10am")
	require.NoError(t, err)

	stats, err := p.registry.Stats().Get(context.Background(), "maintenance.schedule_maintenance.1.0")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Uses)
	assert.Equal(t, int64(1), stats.Successes)
}

func TestProcess_EmptyInput(t *testing.T) {
	p := createTestPipeline(t)

	result, err := p.Process(context.Background(), "   ")
	require.NoError(t, err)

	require.NotNil(t, result)
	assert.Equal(t, intent.Unknown, result.Classification.Primary.Intent)
	assert.InDelta(t, 1.0, result.Classification.Primary.Confidence, 0.001)
	require.NotNil(t, result.Selection)
	assert.Nil(t, result.Selection.Template)
	assert.NotEmpty(t, result.Selection.Notes)
	assert.Nil(t, result.Generation)
}

func TestProcess_NoTemplateMatchKeepsPartialResult(t *testing.T) {
	p := createTestPipeline(t)

	result, err := p.Process(context.Background(), "blorp fizzle wibble")
	require.NoError(t, err)

	require.NotNil(t, result)
	assert.Equal(t, intent.Unknown, result.Classification.Primary.Intent)
	require.NotNil(t, result.Selection)
	assert.Nil(t, result.Selection.Template)
	assert.Empty(t, result.Selection.TemplateID)
	assert.NotEmpty(t, result.Selection.Notes)
	assert.Nil(t, result.Generation)
	assert.Nil(t, result.Validation)
}

func TestProcess_CancelledContext(t *testing.T) {
	p := createTestPipeline(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Process(ctx, "Schedule oil change for vehicle FL-1234 tomorrow")
	assert.Error(t, err)
}
