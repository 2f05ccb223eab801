// Package ferr defines the stable error categories farmctl surfaces to
// callers, so the CLI layer can map them to guidance and exit codes.
package ferr

import "fmt"

// Code represents a stable error category that callers can switch on.
type Code string

const (
	CodeUnknown             Code = "unknown"
	CodeInvalidConfig       Code = "invalid_configuration"
	CodeNotFound            Code = "not_found"
	CodeAmbiguousMatch      Code = "ambiguous_match"
	CodeUnsupportedArtifact Code = "unsupported_artifact_type"
	CodeTransferFailed      Code = "transfer_failed"
	CodeUploadFailed        Code = "upload_failed"
	CodeProcessingTimeout   Code = "processing_timeout"
	CodeSubmissionFailed    Code = "submission_failed"
)

// Error is a simple value type that carries a Code plus the underlying error.
type Error struct {
	Code Code
	err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.err == nil {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// New wraps an error with the provided code. If err is nil a nil is returned.
func New(code Code, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, err: err}
}

// Newf wraps a freshly formatted error with the provided code.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, err: fmt.Errorf(format, args...)}
}

// IsCode helps callers compare codes without type assertions.
func IsCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	if e, ok := err.(*Error); ok {
		return e.Code == code
	}
	return false
}
