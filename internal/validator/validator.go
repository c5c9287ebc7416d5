// Package validator checks generated payloads against template rules,
// format conventions, security filters, and fleet business rules.
package validator

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/mklemmingen/ComBadge-sub001/internal/catalog"
	"github.com/mklemmingen/ComBadge-sub001/internal/common/config"
	"github.com/mklemmingen/ComBadge-sub001/internal/common/logger"
)

// Severity ranks how serious an issue is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityError    Severity = "error"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// IssueType names the check family that raised an issue.
type IssueType string

const (
	IssueStructure    IssueType = "structure"
	IssueTypeMismatch IssueType = "type"
	IssueFormat       IssueType = "format"
	IssueConstraint   IssueType = "constraint"
	IssueBusinessRule IssueType = "business_rule"
	IssueSecurity     IssueType = "security"
	IssueConsistency  IssueType = "consistency"
)

// Issue is one validation finding.
type Issue struct {
	Type       IssueType `json:"type"`
	Severity   Severity  `json:"severity"`
	Field      string    `json:"field,omitempty"`
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion,omitempty"`
}

// Report is the outcome of validating one payload.
type Report struct {
	Valid       bool             `json:"valid"`
	Issues      []Issue          `json:"issues,omitempty"`
	Counts      map[Severity]int `json:"counts"`
	Suggestions []string         `json:"suggestions,omitempty"`
}

// Options control how issue severities map to the validity decision.
type Options struct {
	Strict         bool
	FailOnWarnings bool
}

// Validator runs every check family over a payload.
type Validator struct {
	cfg config.ValidatorConfig
	log logger.Logger

	// Now is injectable for tests.
	Now func() time.Time
}

func New(cfg config.ValidatorConfig, log logger.Logger) *Validator {
	return &Validator{cfg: cfg, log: log, Now: time.Now}
}

// Validate checks payload against tpl's rules plus the global format,
// security, business, and consistency checks. Options default from
// configuration.
func (v *Validator) Validate(ctx context.Context, tpl *catalog.Template, payload map[string]interface{}) (*Report, error) {
	return v.ValidateWithOptions(ctx, tpl, payload, Options{
		Strict:         v.cfg.Strict,
		FailOnWarnings: v.cfg.FailOnWarnings,
	})
}

func (v *Validator) ValidateWithOptions(ctx context.Context, tpl *catalog.Template, payload map[string]interface{}, opts Options) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var issues []Issue
	issues = append(issues, v.checkStructure(tpl.Rules, payload)...)
	issues = append(issues, v.checkTypes(tpl.Rules, payload)...)
	issues = append(issues, v.checkFormats(payload)...)
	issues = append(issues, v.checkConstraints(tpl.Rules, payload)...)
	issues = append(issues, v.checkSecurity(payload)...)
	issues = append(issues, v.checkBusinessRules(tpl.Metadata.Category, payload)...)
	issues = append(issues, v.checkConsistency(payload)...)

	counts := make(map[Severity]int)
	for _, issue := range issues {
		counts[issue.Severity]++
	}

	report := &Report{
		Valid:       decideValidity(counts, opts),
		Issues:      issues,
		Counts:      counts,
		Suggestions: collectSuggestions(issues),
	}

	v.log.Debug("payload validated", map[string]interface{}{
		"template": tpl.Metadata.ID(),
		"valid":    report.Valid,
		"issues":   len(issues),
	})
	return report, nil
}

// decideValidity is a pure function of the severity counts: criticals
// always invalidate, errors invalidate in strict mode, warnings
// invalidate when FailOnWarnings is set.
func decideValidity(counts map[Severity]int, opts Options) bool {
	if counts[SeverityCritical] > 0 {
		return false
	}
	if opts.Strict && counts[SeverityError] > 0 {
		return false
	}
	if opts.FailOnWarnings && counts[SeverityWarning] > 0 {
		return false
	}
	return true
}

func (v *Validator) checkStructure(rules catalog.ValidationRules, payload map[string]interface{}) []Issue {
	var issues []Issue

	for _, field := range rules.RequiredFields {
		value, present := payload[field]
		if !present || value == nil {
			issues = append(issues, Issue{
				Type:       IssueStructure,
				Severity:   SeverityError,
				Field:      field,
				Message:    fmt.Sprintf("required field %q is missing", field),
				Suggestion: fmt.Sprintf("provide a value for %q", field),
			})
		}
	}

	if len(rules.FieldTypes) == 0 {
		return issues
	}

	known := make(map[string]bool, len(rules.FieldTypes)+len(rules.RequiredFields))
	for field := range rules.FieldTypes {
		known[field] = true
	}
	for _, field := range rules.RequiredFields {
		known[field] = true
	}

	fields := make([]string, 0, len(payload))
	for field := range payload {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		if !known[field] {
			issues = append(issues, Issue{
				Type:     IssueStructure,
				Severity: SeverityWarning,
				Field:    field,
				Message:  fmt.Sprintf("field %q is not declared by the template", field),
			})
		}
	}
	return issues
}

func (v *Validator) checkTypes(rules catalog.ValidationRules, payload map[string]interface{}) []Issue {
	var issues []Issue

	fields := sortedKeys(rules.FieldTypes)
	for _, field := range fields {
		want := rules.FieldTypes[field]
		value, present := payload[field]
		if !present || value == nil {
			continue
		}
		if !matchesType(want, value) {
			issues = append(issues, Issue{
				Type:       IssueTypeMismatch,
				Severity:   SeverityError,
				Field:      field,
				Message:    fmt.Sprintf("field %q should be %s, got %T", field, want, value),
				Suggestion: fmt.Sprintf("convert %q to %s", field, want),
			})
		}
	}
	return issues
}

func matchesType(want string, value interface{}) bool {
	switch want {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "number":
		switch value.(type) {
		case float64, float32, int, int64:
			return true
		}
		return false
	case "integer":
		switch n := value.(type) {
		case int, int64:
			return true
		case float64:
			return n == float64(int64(n))
		}
		return false
	case "array":
		_, ok := value.([]interface{})
		return ok
	case "object":
		_, ok := value.(map[string]interface{})
		return ok
	default:
		return true
	}
}

func (v *Validator) checkFormats(payload map[string]interface{}) []Issue {
	var issues []Issue

	for _, field := range sortedKeys(payload) {
		s, ok := payload[field].(string)
		if !ok || s == "" {
			continue
		}

		var bad string
		switch {
		case strings.Contains(field, "email"):
			if !govalidator.IsEmail(s) {
				bad = "email address"
			}
		case strings.Contains(field, "url") || strings.Contains(field, "link"):
			if !govalidator.IsURL(s) {
				bad = "URL"
			}
		case strings.Contains(field, "vin"):
			if !vinPattern.MatchString(strings.ToUpper(s)) {
				bad = "17-character VIN"
			}
		case strings.Contains(field, "phone"):
			if !phonePattern.MatchString(s) {
				bad = "phone number like (555) 123-4567"
			}
		case isTimestampField(field):
			if _, err := time.Parse(time.RFC3339, s); err != nil {
				bad = "RFC 3339 timestamp"
			}
		case isDateField(field):
			if _, err := time.Parse("2006-01-02", s); err != nil {
				bad = "ISO date (YYYY-MM-DD)"
			}
		case isTimeField(field):
			if _, err := time.Parse("15:04", s); err != nil {
				bad = "24-hour time (HH:MM)"
			}
		}

		if bad != "" {
			issues = append(issues, Issue{
				Type:       IssueFormat,
				Severity:   SeverityError,
				Field:      field,
				Message:    fmt.Sprintf("field %q is not a valid %s: %q", field, bad, s),
				Suggestion: fmt.Sprintf("format %q as a %s", field, bad),
			})
		}
	}
	return issues
}

func (v *Validator) checkConstraints(rules catalog.ValidationRules, payload map[string]interface{}) []Issue {
	var issues []Issue

	for _, field := range sortedKeys(rules.Constraints) {
		c := rules.Constraints[field]
		value, present := payload[field]
		if !present || value == nil {
			continue
		}

		var ozzoRules []validation.Rule
		if s, ok := value.(string); ok {
			if c.MinLength != nil || c.MaxLength != nil {
				min, max := 0, 0
				if c.MinLength != nil {
					min = *c.MinLength
				}
				if c.MaxLength != nil {
					max = *c.MaxLength
				}
				ozzoRules = append(ozzoRules, validation.Length(min, max))
			}
			if c.Pattern != "" {
				re, err := regexp.Compile(c.Pattern)
				if err != nil {
					issues = append(issues, Issue{
						Type:     IssueConstraint,
						Severity: SeverityWarning,
						Field:    field,
						Message:  fmt.Sprintf("template pattern for %q does not compile: %v", field, err),
					})
				} else {
					ozzoRules = append(ozzoRules, validation.Match(re))
				}
			}
			if len(c.Enum) > 0 {
				allowed := make([]interface{}, len(c.Enum))
				for i, e := range c.Enum {
					allowed[i] = e
				}
				ozzoRules = append(ozzoRules, validation.In(allowed...))
			}
			if err := validation.Validate(s, ozzoRules...); err != nil {
				issues = append(issues, constraintIssue(field, err))
			}
			continue
		}

		n, ok := asFloat(value)
		if !ok {
			continue
		}
		if c.Minimum != nil {
			ozzoRules = append(ozzoRules, validation.Min(*c.Minimum))
		}
		if c.Maximum != nil {
			ozzoRules = append(ozzoRules, validation.Max(*c.Maximum))
		}
		if err := validation.Validate(n, ozzoRules...); err != nil {
			issues = append(issues, constraintIssue(field, err))
		}
	}
	return issues
}

func constraintIssue(field string, err error) Issue {
	return Issue{
		Type:       IssueConstraint,
		Severity:   SeverityError,
		Field:      field,
		Message:    fmt.Sprintf("field %q violates a template constraint: %v", field, err),
		Suggestion: fmt.Sprintf("adjust %q to satisfy the template constraints", field),
	}
}

func (v *Validator) checkSecurity(payload map[string]interface{}) []Issue {
	var issues []Issue

	for _, field := range sortedKeys(payload) {
		lower := strings.ToLower(field)
		for _, fragment := range sensitiveFieldFragments {
			if strings.Contains(lower, fragment) {
				issues = append(issues, Issue{
					Type:       IssueSecurity,
					Severity:   SeverityWarning,
					Field:      field,
					Message:    fmt.Sprintf("field %q looks like a credential and should not be sent", field),
					Suggestion: fmt.Sprintf("remove %q from the payload", field),
				})
				break
			}
		}

		s, ok := payload[field].(string)
		if !ok {
			continue
		}
		for _, pattern := range injectionPatterns {
			if pattern.MatchString(s) {
				issues = append(issues, Issue{
					Type:       IssueSecurity,
					Severity:   SeverityError,
					Field:      field,
					Message:    fmt.Sprintf("field %q contains a suspected injection pattern", field),
					Suggestion: fmt.Sprintf("sanitize the value of %q", field),
				})
				break
			}
		}
	}
	return issues
}

func (v *Validator) checkBusinessRules(category string, payload map[string]interface{}) []Issue {
	var issues []Issue
	now := v.Now()

	for _, field := range sortedKeys(payload) {
		s, ok := payload[field].(string)
		if !ok || s == "" {
			continue
		}

		if isVehicleField(field) && !vehicleIDPattern.MatchString(s) {
			issues = append(issues, Issue{
				Type:       IssueBusinessRule,
				Severity:   SeverityError,
				Field:      field,
				Message:    fmt.Sprintf("vehicle identifier %q is not in fleet format", s),
				Suggestion: "use 3-15 uppercase letters, digits, or dashes",
			})
		}

		if isDateField(field) && !isTimestampField(field) {
			date, err := time.Parse("2006-01-02", s)
			if err != nil {
				continue
			}
			earliest := now.AddDate(-v.cfg.DatePastYears, 0, 0)
			latest := now.AddDate(v.cfg.DateFutureYears, 0, 0)
			if date.Before(earliest) || date.After(latest) {
				issues = append(issues, Issue{
					Type:     IssueBusinessRule,
					Severity: SeverityError,
					Field:    field,
					Message:  fmt.Sprintf("date %q is outside the plausible range", s),
				})
			} else if category == "reservations" && date.After(now.AddDate(1, 0, 0)) {
				issues = append(issues, Issue{
					Type:       IssueBusinessRule,
					Severity:   SeverityWarning,
					Field:      field,
					Message:    fmt.Sprintf("reservation date %q is more than a year out", s),
					Suggestion: "confirm the reservation year with the requester",
				})
			}
			if category == "maintenance" {
				if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
					issues = append(issues, Issue{
						Type:       IssueBusinessRule,
						Severity:   SeverityWarning,
						Field:      field,
						Message:    fmt.Sprintf("maintenance date %q falls on a weekend", s),
						Suggestion: "move the appointment to a weekday",
					})
				}
			}
		}

		if category == "maintenance" && isTimeField(field) {
			parsed, err := time.Parse("15:04", s)
			if err != nil {
				continue
			}
			if parsed.Hour() < v.cfg.BusinessHourStart || parsed.Hour() >= v.cfg.BusinessHourEnd {
				issues = append(issues, Issue{
					Type:       IssueBusinessRule,
					Severity:   SeverityWarning,
					Field:      field,
					Message:    fmt.Sprintf("time %q is outside service hours (%02d:00-%02d:00)", s, v.cfg.BusinessHourStart, v.cfg.BusinessHourEnd),
					Suggestion: "pick a time during service hours",
				})
			}
		}

		if isLocationField(field) {
			if len(s) < v.cfg.LocationNameMin || len(s) > v.cfg.LocationNameMax {
				issues = append(issues, Issue{
					Type:     IssueBusinessRule,
					Severity: SeverityWarning,
					Field:    field,
					Message:  fmt.Sprintf("location name %q has an implausible length", s),
				})
			}
		}
	}
	return issues
}

// checkConsistency validates start/end field pairs chronologically.
func (v *Validator) checkConsistency(payload map[string]interface{}) []Issue {
	var issues []Issue

	for _, field := range sortedKeys(payload) {
		if !strings.HasPrefix(field, "start") {
			continue
		}
		endField := "end" + strings.TrimPrefix(field, "start")
		start, okStart := payload[field].(string)
		end, okEnd := payload[endField].(string)
		if !okStart || !okEnd {
			continue
		}

		startT, endT, ok := parsePair(field, start, end)
		if !ok {
			continue
		}
		if !endT.After(startT) {
			issues = append(issues, Issue{
				Type:       IssueConsistency,
				Severity:   SeverityError,
				Field:      endField,
				Message:    fmt.Sprintf("%q (%s) is not after %q (%s)", endField, end, field, start),
				Suggestion: fmt.Sprintf("swap or correct %q and %q", field, endField),
			})
		}
	}
	return issues
}

func parsePair(field, start, end string) (time.Time, time.Time, bool) {
	layouts := []string{"2006-01-02"}
	switch {
	case isTimestampField(field):
		layouts = []string{time.RFC3339}
	case isTimeField(field):
		layouts = []string{"15:04"}
	}

	for _, layout := range layouts {
		startT, err1 := time.Parse(layout, start)
		endT, err2 := time.Parse(layout, end)
		if err1 == nil && err2 == nil {
			return startT, endT, true
		}
	}
	return time.Time{}, time.Time{}, false
}

func collectSuggestions(issues []Issue) []string {
	seen := make(map[string]bool)
	var out []string
	for _, issue := range issues {
		if issue.Suggestion == "" || seen[issue.Suggestion] {
			continue
		}
		seen[issue.Suggestion] = true
		out = append(out, issue.Suggestion)
	}
	return out
}

func asFloat(value interface{}) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
