// Package intent classifies natural-language fleet requests into API intents.
package intent

// Intent identifies the API operation category a request maps to.
type Intent string

const (
	CreateResource   Intent = "create_resource"
	ScheduleTask     Intent = "schedule_task"
	MakeReservation  Intent = "make_reservation"
	AssignResource   Intent = "assign_resource"
	UpdateStatus     Intent = "update_status"
	QueryInformation Intent = "query_information"
	TransferResource Intent = "transfer_resource"
	CancelOperation  Intent = "cancel_operation"
	Unknown          Intent = "unknown"
)

// All lists every classifiable intent except Unknown, in scoring order.
var All = []Intent{
	CreateResource,
	ScheduleTask,
	MakeReservation,
	AssignResource,
	UpdateStatus,
	QueryInformation,
	TransferResource,
	CancelOperation,
}

// Match is the score detail for a single intent.
type Match struct {
	Intent          Intent   `json:"intent"`
	Confidence      float64  `json:"confidence"`
	MatchedPatterns []string `json:"matchedPatterns,omitempty"`
	MatchedKeywords []string `json:"matchedKeywords,omitempty"`
	ContextClues    []string `json:"contextClues,omitempty"`
}

// Result is the full classification outcome for one request.
type Result struct {
	Primary           Match    `json:"primary"`
	Secondary         []Match  `json:"secondary,omitempty"`
	IsMultiIntent     bool     `json:"isMultiIntent"`
	OverallConfidence float64  `json:"overallConfidence"`
	ProcessingNotes   []string `json:"processingNotes,omitempty"`
}
