// Package confidence scores how reliably a request was understood.
package confidence

import (
	"github.com/mklemmingen/ComBadge-sub001/internal/entity"
	"github.com/mklemmingen/ComBadge-sub001/internal/intent"
)

// Factor identifies one component of the overall confidence score.
type Factor string

const (
	FactorIntentClarity      Factor = "intent_clarity"
	FactorEntityCompleteness Factor = "entity_completeness"
	FactorEntityQuality      Factor = "entity_quality"
	FactorPatternStrength    Factor = "pattern_strength"
	FactorContextCoherence   Factor = "context_coherence"
	FactorTextQuality        Factor = "text_quality"
	FactorAmbiguityAbsence   Factor = "ambiguity_absence"
	FactorValidationSuccess  Factor = "validation_success"
)

// Risk names a condition that reduced the overall score.
type Risk string

const (
	RiskAmbiguousIntent    Risk = "ambiguous_intent"
	RiskValidationFailures Risk = "validation_failures"
	RiskLowTextQuality     Risk = "low_text_quality"
	RiskWeakPatterns       Risk = "weak_patterns"
)

// Level buckets the overall score for downstream handling.
type Level string

const (
	LevelVeryHigh Level = "very_high"
	LevelHigh     Level = "high"
	LevelMedium   Level = "medium"
	LevelLow      Level = "low"
	LevelVeryLow  Level = "very_low"
)

// Action is the recommended handling for a score level.
type Action string

const (
	ActionAutoExecute    Action = "auto_execute"
	ActionQuickConfirm   Action = "quick_confirm"
	ActionDetailedReview Action = "detailed_review"
	ActionManualReview   Action = "manual_review"
	ActionClarify        Action = "request_clarification"
)

// levelForScore maps an overall score onto its level and action.
func levelForScore(score float64) (Level, Action) {
	switch {
	case score >= 0.9:
		return LevelVeryHigh, ActionAutoExecute
	case score >= 0.75:
		return LevelHigh, ActionQuickConfirm
	case score >= 0.5:
		return LevelMedium, ActionDetailedReview
	case score >= 0.25:
		return LevelLow, ActionManualReview
	default:
		return LevelVeryLow, ActionClarify
	}
}

// Score is the full confidence assessment for one request.
type Score struct {
	Overall  float64            `json:"overall"`
	Factors  map[Factor]float64 `json:"factors"`
	Risks    []Risk             `json:"risks,omitempty"`
	Interval [2]float64         `json:"interval"`
	Level    Level              `json:"level"`
	Action   Action             `json:"action"`
}

// requiredEntities lists the entity types an intent needs to be actionable.
var requiredEntities = map[intent.Intent][]entity.Type{
	intent.CreateResource:   {entity.TypeVehicleID},
	intent.ScheduleTask:     {entity.TypeVehicleID, entity.TypeDate},
	intent.MakeReservation:  {entity.TypeDate},
	intent.AssignResource:   {entity.TypeVehicleID, entity.TypePerson},
	intent.UpdateStatus:     {entity.TypeVehicleID},
	intent.TransferResource: {entity.TypeVehicleID, entity.TypeLocation},
}

// expectedEntities lists the full combination a well-formed request of
// each intent usually carries.
var expectedEntities = map[intent.Intent][]entity.Type{
	intent.CreateResource:   {entity.TypeVehicleID, entity.TypeVIN, entity.TypeLicensePlate},
	intent.ScheduleTask:     {entity.TypeVehicleID, entity.TypeDate, entity.TypeTime, entity.TypeMaintenanceType},
	intent.MakeReservation:  {entity.TypeVehicleID, entity.TypeDate, entity.TypeTime, entity.TypePerson},
	intent.AssignResource:   {entity.TypeVehicleID, entity.TypePerson, entity.TypeDepartment},
	intent.UpdateStatus:     {entity.TypeVehicleID, entity.TypeDate},
	intent.QueryInformation: {entity.TypeVehicleID, entity.TypeDate},
	intent.TransferResource: {entity.TypeVehicleID, entity.TypeLocation, entity.TypeDate},
	intent.CancelOperation:  {entity.TypeVehicleID, entity.TypeDate},
}
