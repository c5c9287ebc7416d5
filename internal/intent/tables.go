package intent

import "regexp"

// keyword carries a per-word evidence weight within one intent.
type keyword struct {
	Word   string
	Weight float64
}

// intentProfile is the static matching table for one intent.
type intentProfile struct {
	Patterns []*regexp.Regexp
	Keywords []keyword
}

// profiles drives classification. Iteration follows the All slice so
// scoring order stays stable.
var profiles = map[Intent]intentProfile{
	CreateResource: {
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?:add|create|register)\s+(?:a\s+)?(?:new\s+)?(?:vehicle|car|truck|van)`),
			regexp.MustCompile(`new\s+(?:vehicle|fleet)\s+(?:record|entry)`),
			regexp.MustCompile(`enroll\s+\S+\s+(?:into|in)\s+(?:the\s+)?fleet`),
		},
		Keywords: []keyword{
			{"create", 0.7}, {"register", 0.7}, {"add", 0.6}, {"enroll", 0.6},
			{"onboard", 0.5}, {"new", 0.4}, {"vehicle", 0.3},
		},
	},
	ScheduleTask: {
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`schedule\s+(?:a\s+|an\s+)?(?:maintenance|service|inspection|repair)`),
			regexp.MustCompile(`book\s+(?:a\s+)?(?:service|maintenance)\s+appointment`),
			regexp.MustCompile(`(?:maintenance|service|inspection)\s+(?:appointment|visit|slot)\s+for`),
			regexp.MustCompile(`(?:needs?|due\s+for)\s+(?:a\s+|an\s+)?(?:service|oil\s+change|inspection|tune-?up)`),
		},
		Keywords: []keyword{
			{"schedule", 0.7}, {"maintenance", 0.7}, {"repair", 0.6},
			{"inspection", 0.6}, {"oil", 0.6}, {"service", 0.5},
			{"appointment", 0.5}, {"tire", 0.5}, {"brake", 0.5},
		},
	},
	MakeReservation: {
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`reserve\s+(?:a\s+)?(?:vehicle|car|truck|van)`),
			regexp.MustCompile(`book\s+(?:a\s+)?(?:vehicle|car|truck|van)\s+for`),
			regexp.MustCompile(`(?:make|place)\s+(?:a\s+)?reservation`),
			regexp.MustCompile(`need\s+(?:a\s+)?(?:vehicle|car|truck|van)\s+(?:for|from|on)`),
		},
		Keywords: []keyword{
			{"reserve", 0.8}, {"reservation", 0.7}, {"book", 0.5},
			{"rent", 0.5}, {"borrow", 0.4}, {"pickup", 0.4},
		},
	},
	AssignResource: {
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`assign\s+(?:vehicle\s+|car\s+|truck\s+)?\S+\s+to`),
			regexp.MustCompile(`allocate\s+(?:a\s+)?(?:vehicle|car|truck|van)`),
			regexp.MustCompile(`give\s+\S+\s+(?:a\s+)?(?:vehicle|car|truck|van)`),
		},
		Keywords: []keyword{
			{"assign", 0.8}, {"allocate", 0.7}, {"dedicate", 0.5},
			{"driver", 0.5}, {"give", 0.3},
		},
	},
	UpdateStatus: {
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?:mark|set|update)\s+\S+\s+(?:as|to)\s+(?:active|inactive|available|unavailable|retired|out\s+of\s+service)`),
			regexp.MustCompile(`change\s+(?:the\s+)?status`),
			regexp.MustCompile(`update\s+(?:the\s+)?(?:mileage|odometer)`),
		},
		Keywords: []keyword{
			{"status", 0.7}, {"update", 0.6}, {"mark", 0.5}, {"change", 0.5},
			{"mileage", 0.5}, {"odometer", 0.5}, {"set", 0.4},
		},
	},
	QueryInformation: {
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`^(?:what|which|when|where|who|how)\b`),
			regexp.MustCompile(`show\s+me`),
			regexp.MustCompile(`list\s+(?:all\s+)?(?:vehicles|reservations|appointments|drivers)`),
			regexp.MustCompile(`(?:look\s+up|check\s+on)\s+`),
		},
		Keywords: []keyword{
			{"query", 0.6}, {"show", 0.5}, {"list", 0.5}, {"find", 0.5},
			{"history", 0.5}, {"check", 0.4}, {"report", 0.4}, {"what", 0.4},
		},
	},
	TransferResource: {
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`transfer\s+(?:vehicle\s+|car\s+|truck\s+)?\S+\s+(?:to|from)`),
			regexp.MustCompile(`move\s+(?:vehicle|car|truck|van)\s+`),
			regexp.MustCompile(`relocate\s+`),
		},
		Keywords: []keyword{
			{"transfer", 0.8}, {"relocate", 0.7}, {"move", 0.5},
			{"depot", 0.4}, {"site", 0.3},
		},
	},
	CancelOperation: {
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`cancel\s+(?:the\s+|my\s+)?(?:reservation|appointment|maintenance|service|booking)`),
			regexp.MustCompile(`call\s+off`),
			regexp.MustCompile(`(?:delete|remove)\s+(?:the\s+|my\s+)?(?:reservation|booking|appointment)`),
		},
		Keywords: []keyword{
			{"cancel", 0.9}, {"cancellation", 0.8}, {"abort", 0.6},
			{"delete", 0.4}, {"remove", 0.3},
		},
	},
}

// Intent-independent context clues. A hit boosts every intent that
// already carries direct evidence.
var (
	temporalCluePattern  = regexp.MustCompile(`\b(?:today|tomorrow|tonight|yesterday|monday|tuesday|wednesday|thursday|friday|saturday|sunday|next\s+week|this\s+week|as\s+soon\s+as\s+possible)\b`)
	clockTimeCluePattern = regexp.MustCompile(`\b\d{1,2}(?::\d{2})?\s*(?:am|pm)\b`)
	fleetIDCluePattern   = regexp.MustCompile(`\b[a-z]{1,4}-\d{2,6}\b`)
)

// negationCuePattern flags negated phrasing near intent evidence.
var negationCuePattern = regexp.MustCompile(`\b(?:don'?t|do\s+not|no\s+need\s+to|never|not|without|stop)\b`)

// abbreviations expanded during preprocessing, as whole words.
var abbreviations = map[string]string{
	"veh":   "vehicle",
	"maint": "maintenance",
	"resv":  "reservation",
	"appt":  "appointment",
	"sched": "schedule",
	"pkg":   "parking",
	"asap":  "as soon as possible",
}
