package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Configuration errors
const (
	// ErrCodeConfigRead indicates a configuration layer could not be read.
	ErrCodeConfigRead ErrorCode = "CONFIG_READ"
	// ErrCodeConfigParse indicates a configuration layer has malformed content.
	ErrCodeConfigParse ErrorCode = "CONFIG_PARSE"
	// ErrCodeUnsupportedFormat indicates a layer file extension has no decoder.
	ErrCodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
)

// Log output errors (retryable)
const (
	// ErrCodeLogDir indicates the log directory could not be created.
	ErrCodeLogDir ErrorCode = "LOG_DIR"
	// ErrCodeLogWrite indicates buffered entries could not be appended.
	ErrCodeLogWrite ErrorCode = "LOG_WRITE"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeConfigRead: true,
	ErrCodeLogDir:     true,
	ErrCodeLogWrite:   true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
