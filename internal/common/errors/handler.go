// internal/common/errors/handler.go
package errors

import (
	"time"
)

// ErrorHandler normalizes and logs stage errors with consistent fields.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle normalizes any error into a PipelineError and logs it with
// the stage it came from.
func (h *ErrorHandler) Handle(stage string, err error) *PipelineError {
	pe := Normalize(err)
	h.logger.Error("stage failed", map[string]interface{}{
		"stage":     stage,
		"code":      string(pe.Code),
		"message":   pe.Message,
		"details":   pe.Details,
		"retryable": pe.Retryable,
		"category":  GetErrorCategory(pe.Code),
	})
	return pe
}

// Normalize ensures we always have a PipelineError.
func Normalize(err error) *PipelineError {
	if pe, ok := err.(*PipelineError); ok {
		return pe
	}
	return &PipelineError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
