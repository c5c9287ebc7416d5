// Package errors provides standardized error handling for the request pipeline.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeCatalogUnavailable   ErrorCode = "CATALOG_UNAVAILABLE"
	ErrCodeCatalogLoadFailed    ErrorCode = "CATALOG_LOAD_FAILED"
	ErrCodeTemplateNotFound     ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrCodeTemplateInvalid      ErrorCode = "TEMPLATE_INVALID"
	ErrCodeTemplateParseFailed  ErrorCode = "TEMPLATE_PARSE_FAILED"
	ErrCodeNoTemplateMatch      ErrorCode = "NO_TEMPLATE_MATCH"
	ErrCodeGenerationFailed     ErrorCode = "GENERATION_FAILED"
	ErrCodeValidationFailed     ErrorCode = "VALIDATION_FAILED"
	ErrCodeEmptyInput           ErrorCode = "EMPTY_INPUT"
	ErrCodeStatsStoreFailed     ErrorCode = "STATS_STORE_FAILED"
	ErrCodeConfigurationInvalid ErrorCode = "CONFIGURATION_INVALID"
)

// PipelineError represents a structured application error.
type PipelineError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("PipelineError[%s]: %s", e.Code, e.Message)
}

// NewCatalogUnavailableError creates a retryable catalog availability error.
// This is the only error that aborts pipeline processing.
func NewCatalogUnavailableError(err error) *PipelineError {
	return &PipelineError{
		Code:      ErrCodeCatalogUnavailable,
		Message:   "Template catalog is unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogLoadFailedError creates a retryable catalog load error.
func NewCatalogLoadFailedError(dir string, err error) *PipelineError {
	return &PipelineError{
		Code:      ErrCodeCatalogLoadFailed,
		Message:   "Template catalog load failed",
		Details:   fmt.Sprintf("dir: %s, error: %s", dir, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateNotFoundError creates a non-retryable template lookup error.
func NewTemplateNotFoundError(templateID string) *PipelineError {
	return &PipelineError{
		Code:      ErrCodeTemplateNotFound,
		Message:   "Template not found in catalog",
		Details:   fmt.Sprintf("templateId: %s", templateID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateInvalidError creates a non-retryable template structure error.
func NewTemplateInvalidError(templateID, details string) *PipelineError {
	return &PipelineError{
		Code:      ErrCodeTemplateInvalid,
		Message:   "Template failed structural validation",
		Details:   fmt.Sprintf("templateId: %s, %s", templateID, details),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateParseFailedError creates a non-retryable template parse error.
func NewTemplateParseFailedError(templateID string, err error) *PipelineError {
	return &PipelineError{
		Code:      ErrCodeTemplateParseFailed,
		Message:   "Template body could not be parsed",
		Details:   fmt.Sprintf("templateId: %s, error: %s", templateID, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoTemplateMatchError creates a non-retryable selection error.
func NewNoTemplateMatchError(intent string) *PipelineError {
	return &PipelineError{
		Code:      ErrCodeNoTemplateMatch,
		Message:   "No template matched the classified intent",
		Details:   fmt.Sprintf("intent: %s", intent),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewGenerationFailedError creates a non-retryable payload generation error.
func NewGenerationFailedError(templateID string, err error) *PipelineError {
	return &PipelineError{
		Code:      ErrCodeGenerationFailed,
		Message:   "Payload generation failed",
		Details:   fmt.Sprintf("templateId: %s, error: %s", templateID, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationFailedError creates a non-retryable payload validation error.
func NewValidationFailedError(details string) *PipelineError {
	return &PipelineError{
		Code:      ErrCodeValidationFailed,
		Message:   "Generated payload failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmptyInputError creates a non-retryable input error.
func NewEmptyInputError() *PipelineError {
	return &PipelineError{
		Code:      ErrCodeEmptyInput,
		Message:   "Request text is empty",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStatsStoreFailedError creates a retryable stats persistence error.
func NewStatsStoreFailedError(err error) *PipelineError {
	return &PipelineError{
		Code:      ErrCodeStatsStoreFailed,
		Message:   "Usage stats store operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewConfigurationInvalidError creates a non-retryable configuration error.
func NewConfigurationInvalidError(details string) *PipelineError {
	return &PipelineError{
		Code:      ErrCodeConfigurationInvalid,
		Message:   "Configuration validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// IsFatal reports whether the error must abort pipeline processing.
// Only catalog availability is fatal; every other outcome is surfaced
// in the stage results.
func IsFatal(err error) bool {
	pe, ok := err.(*PipelineError)
	if !ok {
		return false
	}
	return pe.Code == ErrCodeCatalogUnavailable || pe.Code == ErrCodeCatalogLoadFailed
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CATALOG"):
		return "CATALOG"
	case strings.Contains(codeStr, "TEMPLATE"):
		return "TEMPLATE"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "STATS"):
		return "STATS"
	case strings.Contains(codeStr, "CONFIG"):
		return "CONFIG"
	default:
		return "OTHER"
	}
}
