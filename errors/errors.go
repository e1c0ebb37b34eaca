package errors

import (
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Common Error Constructors ---

// ConfigRead creates a new AppError for a layer file that exists but could not be read.
func ConfigRead(path string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeConfigRead, Message: fmt.Sprintf("Unable to read configuration file %s.", path),
		Retryable: true, Details: map[string]any{"path": path}, Cause: cause,
	}
}

// ConfigParse creates a new AppError for a layer file with malformed content.
func ConfigParse(path string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeConfigParse, Message: fmt.Sprintf("Malformed configuration file %s.", path),
		Retryable: false, Details: map[string]any{"path": path}, Cause: cause,
	}
}

// UnsupportedFormat creates a new AppError for a layer file nobody can decode.
func UnsupportedFormat(path, ext string) *AppError {
	return &AppError{
		Code: ErrCodeUnsupportedFormat, Message: fmt.Sprintf("No decoder for %q files.", ext),
		Retryable: false, Details: map[string]any{"path": path, "ext": ext},
	}
}

// LogDir creates a new AppError for a log directory that could not be created.
func LogDir(dir string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeLogDir, Message: fmt.Sprintf("Unable to create log directory %s.", dir),
		Retryable: true, Details: map[string]any{"dir": dir}, Cause: cause,
	}
}

// LogWrite creates a new AppError for entries that could not be appended to a log file.
func LogWrite(path string, entries int, cause error) *AppError {
	return &AppError{
		Code: ErrCodeLogWrite, Message: fmt.Sprintf("Unable to append %d entries to %s.", entries, path),
		Retryable: true, Details: map[string]any{"path": path, "entries": entries}, Cause: cause,
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		Retryable: false, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		Retryable: false,
	}
}

// Internal creates a new AppError for an unexpected internal failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		Retryable: false, Cause: cause,
	}
}
