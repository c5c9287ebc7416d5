package entity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklemmingen/ComBadge-sub001/internal/common/config"
	"github.com/mklemmingen/ComBadge-sub001/internal/common/logger"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) // a Monday

func createTestExtractor(t *testing.T) *Extractor {
	cfg := config.Default()
	e := NewExtractor(cfg.Entity, logger.NewTestLogger(t))
	e.Now = func() time.Time { return testNow }
	return e
}

func TestExtract_MaintenanceRequest(t *testing.T) {
	e := createTestExtractor(t)

	result, err := e.Extract(context.Background(), "Schedule oil change for vehicle FL-1234 tomorrow at 10am")
	require.NoError(t, err)

	vehicle, ok := result.Best(TypeVehicleID)
	require.True(t, ok)
	assert.Equal(t, "FL-1234", vehicle.Value)
	assert.Greater(t, vehicle.Confidence, 0.85, "nearby vehicle cue should boost confidence")

	date, ok := result.Best(TypeDate)
	require.True(t, ok)
	assert.Equal(t, "2025-03-11", date.Value)

	clock, ok := result.Best(TypeTime)
	require.True(t, ok)
	assert.Equal(t, "10:00", clock.Value)

	maint, ok := result.Best(TypeMaintenanceType)
	require.True(t, ok)
	assert.Equal(t, "oil change", maint.Value)

	assert.Greater(t, result.OverallConfidence, 0.8)
}

func TestExtract_Normalization(t *testing.T) {
	e := createTestExtractor(t)

	tests := []struct {
		name string
		text string
		typ  Type
		want string
	}{
		{"email lowercased", "Notify John.Smith@Example.COM when done", TypeEmail, "john.smith@example.com"},
		{"phone formatted", "Call 555-123-4567 to confirm", TypePhone, "(555) 123-4567"},
		{"vin uppercased", "VIN 1hgbh41jxmn109186 needs service", TypeVIN, "1HGBH41JXMN109186"},
		{"person titled", "Assign the van to John Smith", TypePerson, "John Smith"},
		{"slash date", "Reserve a car on 3/15/2025", TypeDate, "2025-03-15"},
		{"weekday resolved", "Book an inspection for Friday", TypeDate, "2025-03-14"},
		{"next weekday", "Book an inspection for next Monday", TypeDate, "2025-03-17"},
		{"pm time", "Pick up at 3:30pm", TypeTime, "15:30"},
		{"maintenance type", "It needs a tire rotation soon", TypeMaintenanceType, "tire rotation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := e.Extract(context.Background(), tt.text)
			require.NoError(t, err)
			got, ok := result.Best(tt.typ)
			require.True(t, ok, "expected a %s entity", tt.typ)
			assert.Equal(t, tt.want, got.Value)
		})
	}
}

func TestExtract_ValidationPenalty(t *testing.T) {
	e := createTestExtractor(t)

	// Matches the slash-date shape but cannot be parsed as a real date.
	result, err := e.Extract(context.Background(), "Reserve a car on 13/45/2025")
	require.NoError(t, err)

	date, ok := result.Best(TypeDate)
	require.True(t, ok)
	assert.Equal(t, "13/45/2025", date.Value)
	assert.Less(t, date.Confidence, 0.85)
	assert.False(t, date.ValidationPassed)
	assert.Equal(t, "normalization failed", date.ValidationReason)
}

func TestExtract_RecordsValidationOutcome(t *testing.T) {
	e := createTestExtractor(t)

	result, err := e.Extract(context.Background(), "reach john@example..com about vehicle FL-1234")
	require.NoError(t, err)

	email, ok := result.Best(TypeEmail)
	require.True(t, ok)
	assert.False(t, email.ValidationPassed)
	assert.Equal(t, "format check failed", email.ValidationReason)
	assert.Equal(t, "pattern", email.Method)

	vehicle, ok := result.Best(TypeVehicleID)
	require.True(t, ok)
	assert.True(t, vehicle.ValidationPassed)
	assert.Empty(t, vehicle.ValidationReason)
	assert.Equal(t, "pattern_context", vehicle.Method)
}

func TestExtract_ContextWindow(t *testing.T) {
	e := createTestExtractor(t)

	result, err := e.Extract(context.Background(), "Schedule service for vehicle FL-1234 next week")
	require.NoError(t, err)

	vehicle, ok := result.Best(TypeVehicleID)
	require.True(t, ok)
	assert.Contains(t, vehicle.Context, "FL-1234")
	assert.LessOrEqual(t, len(vehicle.Context), len("FL-1234")+2*40)
}

func TestExtract_OverlapResolution(t *testing.T) {
	e := createTestExtractor(t)

	// "3:30pm" matches both the meridiem and the bare HH:MM patterns;
	// only the higher-confidence meridiem match survives.
	result, err := e.Extract(context.Background(), "Pick up the van at 3:30pm")
	require.NoError(t, err)

	assert.Len(t, result.ByType[TypeTime], 1)
	assert.Equal(t, "15:30", result.ByType[TypeTime][0].Value)
}

func TestExtract_UnrecognizedShapes(t *testing.T) {
	e := createTestExtractor(t)

	result, err := e.Extract(context.Background(), "Reference ticket 9912345 for the claim")
	require.NoError(t, err)

	assert.NotEmpty(t, result.Notes)
}

func TestExtract_NoEntities(t *testing.T) {
	e := createTestExtractor(t)

	result, err := e.Extract(context.Background(), "hello there general conversation")
	require.NoError(t, err)

	assert.Empty(t, result.Entities)
	assert.Zero(t, result.OverallConfidence)
}
