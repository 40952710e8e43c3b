package schema

import "fmt"

// Error codes for structured error reporting.
const (
	ErrCodeMalformedRecord = "MALFORMED_RECORD"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeStore           = "STORE_ERROR"
	ErrCodeExecution       = "EXECUTION_ERROR"
)

// SchemaError is the structured error type for all flowschema operations.
type SchemaError struct {
	Code        string         `json:"code"`
	Message     string         `json:"message"`
	Details     map[string]any `json:"details,omitempty"`
	RecordIndex int            `json:"record_index,omitempty"`
	Cause       error          `json:"-"`
}

func (e *SchemaError) Error() string {
	if e.RecordIndex != 0 {
		return fmt.Sprintf("[%s] record %d: %s", e.Code, e.RecordIndex, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// NewError creates a new SchemaError.
func NewError(code, message string) *SchemaError {
	return &SchemaError{Code: code, Message: message}
}

// NewErrorf creates a new SchemaError with a formatted message.
func NewErrorf(code, format string, args ...any) *SchemaError {
	return &SchemaError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithRecord attaches the record's file index to the error.
func (e *SchemaError) WithRecord(fileIndex int) *SchemaError {
	e.RecordIndex = fileIndex
	return e
}

// WithCause attaches an underlying cause.
func (e *SchemaError) WithCause(err error) *SchemaError {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *SchemaError) WithDetails(details map[string]any) *SchemaError {
	e.Details = details
	return e
}
