package intent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklemmingen/ComBadge-sub001/internal/common/config"
	"github.com/mklemmingen/ComBadge-sub001/internal/common/logger"
)

func createTestClassifier(t *testing.T) *Classifier {
	cfg := config.Default()
	return NewClassifier(cfg.Intent, logger.NewTestLogger(t))
}

func TestClassify_MaintenanceRequest(t *testing.T) {
	c := createTestClassifier(t)

	result, err := c.Classify(context.Background(), "Schedule oil change for vehicle FL-1234 tomorrow at 10am")
	require.NoError(t, err)

	assert.Equal(t, ScheduleTask, result.Primary.Intent)
	assert.GreaterOrEqual(t, result.Primary.Confidence, 0.6)
	assert.Contains(t, result.Primary.MatchedKeywords, "schedule")
	assert.Contains(t, result.Primary.ContextClues, "temporal_reference")
	assert.Contains(t, result.Primary.ContextClues, "fleet_identifier")
}

func TestClassify_IntentTable(t *testing.T) {
	c := createTestClassifier(t)

	tests := []struct {
		name string
		text string
		want Intent
	}{
		{"reservation", "Reserve a vehicle for the sales team next week", MakeReservation},
		{"creation", "Register a new vehicle VIN-1029 to the fleet today", CreateResource},
		{"assignment", "Assign vehicle VAN-201 to John Smith", AssignResource},
		{"status update", "Mark FL-1234 as out of service", UpdateStatus},
		{"query", "Show me all reservations for Friday", QueryInformation},
		{"transfer", "Transfer truck T-88 to the north depot", TransferResource},
		{"cancellation", "Cancel the maintenance appointment for FL-1234", CancelOperation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := c.Classify(context.Background(), tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Primary.Intent)
		})
	}
}

func TestClassify_NegationFlipsAway(t *testing.T) {
	c := createTestClassifier(t)

	positive, err := c.Classify(context.Background(), "Schedule a maintenance appointment for FL-1234")
	require.NoError(t, err)
	require.Equal(t, ScheduleTask, positive.Primary.Intent)

	negated, err := c.Classify(context.Background(), "Do not schedule a maintenance appointment for FL-1234")
	require.NoError(t, err)
	assert.NotEqual(t, ScheduleTask, negated.Primary.Intent)
}

func TestClassify_UnknownDominatesWithoutEvidence(t *testing.T) {
	c := createTestClassifier(t)

	result, err := c.Classify(context.Background(), "the quick brown fox jumps over the lazy dog")
	require.NoError(t, err)

	assert.Equal(t, Unknown, result.Primary.Intent)
	assert.GreaterOrEqual(t, result.Primary.Confidence, 0.1)
}

func TestClassify_UnknownFloor(t *testing.T) {
	c := createTestClassifier(t)

	// Strong evidence pushes unknown down to its floor.
	result, err := c.Classify(context.Background(), "Cancel the reservation booking for FL-1234 tomorrow at 9am")
	require.NoError(t, err)

	require.Equal(t, CancelOperation, result.Primary.Intent)
	for _, s := range result.Secondary {
		assert.NotEqual(t, Unknown, s.Intent)
	}
}

func TestClassify_AbbreviationExpansion(t *testing.T) {
	c := createTestClassifier(t)

	result, err := c.Classify(context.Background(), "sched maint appt for veh FL-1234 tomorrow")
	require.NoError(t, err)

	assert.Equal(t, ScheduleTask, result.Primary.Intent)
	assert.NotEmpty(t, result.ProcessingNotes)
}

func TestClassify_MultiIntentPenalty(t *testing.T) {
	c := createTestClassifier(t)

	result, err := c.Classify(context.Background(), "Reserve a vehicle and schedule a maintenance appointment for FL-1234")
	require.NoError(t, err)

	assert.True(t, result.IsMultiIntent)
	assert.NotEmpty(t, result.Secondary)
	assert.Less(t, result.OverallConfidence, result.Primary.Confidence)
}

func TestClassify_NegationBoostsCancelIntent(t *testing.T) {
	c := createTestClassifier(t)

	plain, err := c.Classify(context.Background(), "schedule the maintenance appointment for FL-1234")
	require.NoError(t, err)

	negated, err := c.Classify(context.Background(), "don't schedule the maintenance appointment for FL-1234")
	require.NoError(t, err)

	assert.Greater(t, confidenceFor(negated, CancelOperation), confidenceFor(plain, CancelOperation))
	assert.Greater(t, confidenceFor(negated, CancelOperation), 0.0)
	assert.Less(t, confidenceFor(negated, ScheduleTask), confidenceFor(plain, ScheduleTask))
}

// confidenceFor finds an intent's ranked confidence, zero when unranked.
func confidenceFor(r *Result, in Intent) float64 {
	if r.Primary.Intent == in {
		return r.Primary.Confidence
	}
	for _, s := range r.Secondary {
		if s.Intent == in {
			return s.Confidence
		}
	}
	return 0
}

func TestClassify_EmptyInput(t *testing.T) {
	c := createTestClassifier(t)

	for _, text := range []string{"", "   "} {
		result, err := c.Classify(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, Unknown, result.Primary.Intent)
		assert.InDelta(t, 1.0, result.Primary.Confidence, 0.001)
		assert.Empty(t, result.Secondary)
	}
}

func TestClassifyBatch(t *testing.T) {
	c := createTestClassifier(t)

	results, err := c.ClassifyBatch(context.Background(), []string{
		"Reserve a vehicle for Monday",
		"Cancel my reservation for tomorrow",
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, MakeReservation, results[0].Primary.Intent)
	assert.Equal(t, CancelOperation, results[1].Primary.Intent)
}

func TestClassifyBatch_Cancelled(t *testing.T) {
	c := createTestClassifier(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ClassifyBatch(ctx, []string{"Reserve a vehicle"})
	assert.Error(t, err)
}
