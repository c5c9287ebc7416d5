package validator

import (
	"regexp"
	"strings"
)

// sensitiveFieldFragments flag payload fields that must never appear
// in an outbound request body.
var sensitiveFieldFragments = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"apikey",
	"private_key",
	"ssn",
	"credit_card",
}

// injectionPatterns catch common injection shapes in string values.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:drop|delete|insert|truncate|alter)\b\s+\b(?:table|from|into|database)\b`),
	regexp.MustCompile(`(?i)\bunion\b\s+(?:all\s+)?\bselect\b`),
	regexp.MustCompile(`(?i)<\s*script\b`),
	regexp.MustCompile(`(?i)\bjavascript\s*:`),
	regexp.MustCompile(`\.\./`),
	regexp.MustCompile(`['"]\s*;?\s*--`),
}

var (
	vehicleIDPattern = regexp.MustCompile(`^[A-Z0-9-]{3,15}$`)
	vinPattern       = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)
	phonePattern     = regexp.MustCompile(`^\(\d{3}\) \d{3}-\d{4}$`)
)

func isVehicleField(name string) bool {
	return name == "vehicle" || name == "vehicle_id"
}

func isDateField(name string) bool {
	return strings.Contains(name, "date")
}

func isTimeField(name string) bool {
	return strings.Contains(name, "time") && !strings.Contains(name, "timestamp")
}

func isTimestampField(name string) bool {
	return strings.Contains(name, "timestamp") || strings.HasSuffix(name, "_at")
}

func isLocationField(name string) bool {
	return strings.Contains(name, "location") || strings.Contains(name, "destination") || name == "address"
}
