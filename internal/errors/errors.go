package errors

import (
	"fmt"

	stderrors "errors"
)

// IndexError is the structured error type used across the core pipeline.
// It carries enough context for logging, CLI presentation, and the MCP
// collaborator to map onto the taxonomy described in the error handling
// design: NotFound, Busy, ProviderMismatch, ModelLoad, Transport, Timeout,
// Extraction, StoreFailure, BadInput.
type IndexError struct {
	Code       string
	Message    string
	Category   Category
	Severity   Severity
	Details    map[string]string
	Cause      error
	Retryable  bool
	Suggestion string
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *IndexError) Unwrap() error {
	return e.Cause
}

// Is enables errors.Is() to match by code, ignoring message/cause.
func (e *IndexError) Is(target error) bool {
	t, ok := target.(*IndexError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *IndexError) WithDetail(key, value string) *IndexError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

func (e *IndexError) WithSuggestion(suggestion string) *IndexError {
	e.Suggestion = suggestion
	return e
}

// New creates an IndexError with category, severity, and retryable flag
// derived from the code.
func New(code string, message string, cause error) *IndexError {
	return &IndexError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

func Wrap(code string, err error) *IndexError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// NotFound builds an ERR_1xx not-found error for a path, container, or
// annotation id.
func NotFound(code, message string, cause error) *IndexError {
	return New(code, message, cause)
}

// Busy builds the ERR_201 concurrent-indexing-conflict error.
func Busy(container string) *IndexError {
	return New(ErrCodeBusy, fmt.Sprintf("container %q already has an indexing job in progress", container), nil).
		WithDetail("container", container)
}

// ProviderMismatch builds the ERR_301 error, with a rebuild suggestion.
func ProviderMismatch(message string, cause error) *IndexError {
	return New(ErrCodeProviderMismatch, message, cause).
		WithSuggestion("rebuild the container with reindex_all, or create a new container bound to the current provider")
}

func ModelLoad(message string, cause error) *IndexError {
	return New(ErrCodeModelLoad, message, cause)
}

func Transport(message string, cause error) *IndexError {
	return New(ErrCodeTransport, message, cause)
}

func Timeout(message string, cause error) *IndexError {
	return New(ErrCodeTimeout, message, cause)
}

// Extraction builds a per-file, non-fatal extraction error.
func Extraction(path string, cause error) *IndexError {
	return New(ErrCodeExtraction, fmt.Sprintf("failed to extract %s", path), cause).
		WithDetail("path", path)
}

func StoreFailure(message string, cause error) *IndexError {
	return New(ErrCodeStoreFailure, message, cause)
}

func BadInput(message string) *IndexError {
	return New(ErrCodeBadInput, message, nil)
}

// IsRetryable reports whether err is retryable at the indexer level.
func IsRetryable(err error) bool {
	var ie *IndexError
	if stderrors.As(err, &ie) {
		return ie.Retryable
	}
	return false
}

// IsFatal reports whether err has fatal severity.
func IsFatal(err error) bool {
	var ie *IndexError
	if stderrors.As(err, &ie) {
		return ie.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code, or "" if err is not an IndexError.
func GetCode(err error) string {
	var ie *IndexError
	if stderrors.As(err, &ie) {
		return ie.Code
	}
	return ""
}

// GetCategory extracts the category, or "" if err is not an IndexError.
func GetCategory(err error) Category {
	var ie *IndexError
	if stderrors.As(err, &ie) {
		return ie.Category
	}
	return ""
}
