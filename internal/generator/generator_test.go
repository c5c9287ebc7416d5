package generator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklemmingen/ComBadge-sub001/internal/catalog"
	"github.com/mklemmingen/ComBadge-sub001/internal/common/config"
	"github.com/mklemmingen/ComBadge-sub001/internal/common/logger"
	"github.com/mklemmingen/ComBadge-sub001/internal/entity"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func createTestGenerator(t *testing.T) *Generator {
	cfg := config.Default()
	g := New(cfg.Generator, logger.NewTestLogger(t))
	g.Now = func() time.Time { return testNow }
	return g
}

func maintenanceTemplate() *catalog.Template {
	return &catalog.Template{
		Metadata: catalog.Metadata{
			Name:     "schedule_maintenance",
			Category: "maintenance",
			Version:  "1.0",
			Intents:  []string{"schedule_task"},
		},
		Body: map[string]interface{}{
			"vehicle_id":     "{vehicle_id}",
			"service_type":   "{maintenance_type|general_service}",
			"scheduled_date": "{date}",
			"scheduled_time": "{time|09:00}",
			"status":         "pending",
			"created_at":     "{created_at|current_timestamp}",
			"notes":          "{notes|null}",
			"attachments":    "{attachments|[]}",
			"summary":        "Service for {vehicle_id} on {date}",
		},
		Rules: catalog.ValidationRules{
			RequiredFields: []string{"vehicle_id", "scheduled_date"},
		},
	}
}

func fullExtraction() *entity.Result {
	r := &entity.Result{ByType: make(map[entity.Type][]entity.Entity)}
	for _, e := range []entity.Entity{
		{Type: entity.TypeVehicleID, Value: "FL-1234", Confidence: 0.95},
		{Type: entity.TypeDate, Value: "2025-03-11", Confidence: 0.9},
		{Type: entity.TypeTime, Value: "10:00", Confidence: 0.9},
		{Type: entity.TypeMaintenanceType, Value: "oil change", Confidence: 0.85},
	} {
		r.Entities = append(r.Entities, e)
		r.ByType[e.Type] = append(r.ByType[e.Type], e)
	}
	return r
}

func emptyExtraction() *entity.Result {
	return &entity.Result{ByType: make(map[entity.Type][]entity.Entity)}
}

func TestGenerate_FullExtraction(t *testing.T) {
	g := createTestGenerator(t)

	gen, err := g.Generate(context.Background(), maintenanceTemplate(), fullExtraction())
	require.NoError(t, err)

	assert.Equal(t, "FL-1234", gen.Payload["vehicle_id"])
	assert.Equal(t, "oil change", gen.Payload["service_type"])
	assert.Equal(t, "2025-03-11", gen.Payload["scheduled_date"])
	assert.Equal(t, "10:00", gen.Payload["scheduled_time"])
	assert.Equal(t, "pending", gen.Payload["status"])
	assert.Equal(t, "Service for FL-1234 on 2025-03-11", gen.Payload["summary"])
	assert.Empty(t, gen.MissingFields)
	assert.Greater(t, gen.Confidence, 0.7)
}

func TestGenerate_SentinelDefaults(t *testing.T) {
	g := createTestGenerator(t)

	gen, err := g.Generate(context.Background(), maintenanceTemplate(), emptyExtraction())
	require.NoError(t, err)

	assert.Equal(t, "general_service", gen.Payload["service_type"])
	assert.Equal(t, "09:00", gen.Payload["scheduled_time"])
	assert.Equal(t, testNow.Format(time.RFC3339), gen.Payload["created_at"])
	assert.Nil(t, gen.Payload["notes"])
	assert.Equal(t, []interface{}{}, gen.Payload["attachments"])
}

func TestGenerate_FieldNameFallbacks(t *testing.T) {
	g := createTestGenerator(t)

	tpl := &catalog.Template{
		Metadata: catalog.Metadata{Name: "fallbacks", Category: "test", Version: "1.0", Intents: []string{"x"}},
		Body: map[string]interface{}{
			"request_id":     "{request_id}",
			"order_status":   "{order_status}",
			"is_urgent":      "{is_urgent}",
			"passenger_count": "{passenger_count}",
			"updated_at":     "{updated_at}",
		},
	}

	gen, err := g.Generate(context.Background(), tpl, emptyExtraction())
	require.NoError(t, err)

	assert.Regexp(t, `^REQ-\d{4}$`, gen.Payload["request_id"])
	assert.Equal(t, "pending", gen.Payload["order_status"])
	assert.Equal(t, false, gen.Payload["is_urgent"])
	assert.Equal(t, 0, gen.Payload["passenger_count"])
	assert.Equal(t, testNow.Format(time.RFC3339), gen.Payload["updated_at"])
	assert.Empty(t, gen.MissingFields)
}

func TestGenerate_AutoIncrementSequence(t *testing.T) {
	g := createTestGenerator(t)

	tpl := &catalog.Template{
		Metadata: catalog.Metadata{Name: "seq", Category: "test", Version: "1.0", Intents: []string{"x"}},
		Body:     map[string]interface{}{"booking_id": "{booking_id}"},
	}

	first, err := g.Generate(context.Background(), tpl, emptyExtraction())
	require.NoError(t, err)
	second, err := g.Generate(context.Background(), tpl, emptyExtraction())
	require.NoError(t, err)

	assert.Equal(t, "BOO-0001", first.Payload["booking_id"])
	assert.Equal(t, "BOO-0002", second.Payload["booking_id"])
}

func TestGenerate_MissingRequiredLowersConfidence(t *testing.T) {
	g := createTestGenerator(t)

	tpl := &catalog.Template{
		Metadata: catalog.Metadata{Name: "strict", Category: "test", Version: "1.0", Intents: []string{"x"}},
		Body: map[string]interface{}{
			"vehicle_id": "{vehicle}",
			"reason":     "{reason}",
		},
		Rules: catalog.ValidationRules{RequiredFields: []string{"reason"}},
	}

	gen, err := g.Generate(context.Background(), tpl, emptyExtraction())
	require.NoError(t, err)

	assert.Contains(t, gen.MissingFields, "reason")
	assert.Nil(t, gen.Payload["reason"])
	assert.Less(t, gen.Confidence, 0.5)
}

func TestGenerate_Deterministic(t *testing.T) {
	run := func() []byte {
		cfg := config.Default()
		g := New(cfg.Generator, logger.NewNoOpLogger())
		g.Now = func() time.Time { return testNow }

		gen, err := g.Generate(context.Background(), maintenanceTemplate(), fullExtraction())
		require.NoError(t, err)
		data, err := gen.MarshalPayload()
		require.NoError(t, err)
		return data
	}

	assert.Equal(t, string(run()), string(run()))
}

func TestGenerate_CachesParsedTemplate(t *testing.T) {
	g := createTestGenerator(t)
	tpl := maintenanceTemplate()

	_, err := g.Generate(context.Background(), tpl, fullExtraction())
	require.NoError(t, err)

	_, cached := g.cache.Get(tpl.Metadata.ID())
	assert.True(t, cached)
}

func TestParseString_Segments(t *testing.T) {
	n := parseString("Service for {vehicle_id} on {date|today}")
	sn, ok := n.(*stringNode)
	require.True(t, ok)
	require.Len(t, sn.Segments, 4)

	assert.Equal(t, "Service for ", sn.Segments[0].Text)
	assert.Equal(t, "vehicle_id", sn.Segments[1].Placeholder.Name)
	assert.False(t, sn.Segments[1].Placeholder.HasDefault)
	assert.Equal(t, " on ", sn.Segments[2].Text)
	assert.Equal(t, "date", sn.Segments[3].Placeholder.Name)
	assert.Equal(t, "today", sn.Segments[3].Placeholder.Default)
}

func TestParseString_PlainLiteral(t *testing.T) {
	n := parseString("pending")
	_, ok := n.(*literalNode)
	assert.True(t, ok)
}
