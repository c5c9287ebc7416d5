package entity

import "regexp"

// patternConfig binds one regex to an entity type with its base confidence.
type patternConfig struct {
	Type       Type
	Pattern    *regexp.Regexp
	Confidence float64
	Group      int
}

// patternConfigs drives extraction. Order matters only for diagnostics;
// overlap resolution is confidence-based.
var patternConfigs = []patternConfig{
	{TypeVIN, regexp.MustCompile(`\b[A-HJ-NPR-Za-hj-npr-z0-9]{17}\b`), 0.95, 0},
	{TypeVehicleID, regexp.MustCompile(`\b([A-Za-z]{1,4}-\d{2,6})\b`), 0.85, 1},
	{TypeLicensePlate, regexp.MustCompile(`(?i)\b(?:plate|license)\s*#?\s*([A-Za-z0-9]{2,8})\b`), 0.8, 1},
	{TypeEmail, regexp.MustCompile(`\b[\w.+-]+@[\w-]+\.[\w.-]+\b`), 0.95, 0},
	{TypePhone, regexp.MustCompile(`\(?\d{3}\)?[-.\s]\d{3}[-.\s]?\d{4}\b`), 0.9, 0},
	{TypePerson, regexp.MustCompile(`\b(?:for|to|by|with)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)\b`), 0.7, 1},

	{TypeDate, regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`), 0.95, 1},
	{TypeDate, regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{4})\b`), 0.85, 1},
	{TypeDate, regexp.MustCompile(`(?i)\b(today|tomorrow|yesterday)\b`), 0.9, 1},
	{TypeDate, regexp.MustCompile(`(?i)\b(?:next\s+|this\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`), 0.8, 0},

	{TypeTime, regexp.MustCompile(`(?i)\b(\d{1,2}(?::\d{2})?\s*(?:am|pm))\b`), 0.9, 1},
	{TypeTime, regexp.MustCompile(`\b(\d{1,2}:\d{2})\b`), 0.85, 1},

	{TypeLocation, regexp.MustCompile(`(?i)\b(?:at|in|near)\s+(?:the\s+)?([a-z][a-z ]*?(?:depot|garage|office|lot|facility|center|branch|hq))\b`), 0.7, 1},
	{TypeMaintenanceType, regexp.MustCompile(`(?i)\b(oil change|tire rotation|brake (?:service|inspection|repair)|tune-?up|alignment|battery replacement|inspection|detailing|car wash)\b`), 0.85, 1},
	{TypeBuilding, regexp.MustCompile(`(?i)\b(?:building|bldg)\s*#?\s*([A-Za-z0-9]+)\b`), 0.8, 1},
	{TypeDepartment, regexp.MustCompile(`(?i)\b(sales|marketing|engineering|operations|logistics|finance|it|hr)\s+(?:department|team|dept)\b`), 0.75, 1},
	{TypeRole, regexp.MustCompile(`(?i)\b(driver|technician|mechanic|manager|supervisor|dispatcher)\b`), 0.6, 1},
}

// contextCues boost a match when one appears within the context radius.
var contextCues = map[Type][]string{
	TypeVehicleID:       {"vehicle", "truck", "van", "car", "unit", "veh"},
	TypeVIN:             {"vin"},
	TypeLicensePlate:    {"plate", "license"},
	TypePerson:          {"driver", "for", "assign"},
	TypeEmail:           {"email", "contact", "notify"},
	TypePhone:           {"phone", "call", "contact"},
	TypeDate:            {"on", "scheduled", "due", "starting"},
	TypeTime:            {"at", "by", "before", "after"},
	TypeLocation:        {"at", "in", "located"},
	TypeMaintenanceType: {"schedule", "service", "needs", "perform"},
	TypeBuilding:        {"building", "parking"},
	TypeDepartment:      {"department", "team"},
	TypeRole:            {"as", "the"},
}

// validation patterns applied after normalization; failures reduce
// confidence instead of dropping the match outright.
var (
	vinValidPattern   = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)
	phoneValidPattern = regexp.MustCompile(`^\(\d{3}\) \d{3}-\d{4}$`)
)

// diagnostic shapes for likely entities that matched no config.
var unrecognizedShapes = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{6,}\b`),
	regexp.MustCompile(`\b[A-Z]{3,}\d{3,}\b`),
}
