package errs

import "fmt"

// Error is the structured error type for LocalFinderX. It carries the
// taxonomy category and severity needed by the Orchestrator and Search
// Engine to decide whether to downgrade, drop, retry, or abort.
type Error struct {
	Code     string
	Message  string
	Category Category
	Severity Severity
	Details  map[string]string
	Cause    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail attaches a key-value detail, e.g. file path or stage name.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates an Error with category/severity derived from the code.
func New(code, message string, cause error) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates an Error from an existing error, reusing its message.
func Wrap(code string, err error) *Error {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// IOError wraps a disk/file read failure.
func IOError(message string, cause error) *Error {
	return New(ErrCodeFileNotFound, message, cause)
}

// ExtractionError wraps a format-parsing failure; callers treat this as a
// signal to downgrade the file to metadata-only (§4.5).
func ExtractionError(message string, cause error) *Error {
	return New(ErrCodeExtractionFailed, message, cause)
}

// TokenizationWarning wraps a non-fatal tokenizer degradation (§4.7).
func TokenizationWarning(message string, cause error) *Error {
	return New(ErrCodeMorphAnalyzerUnavailable, message, cause)
}

// EmbeddingError wraps a per-chunk or model-load embedding failure (§4.8).
func EmbeddingError(message string, cause error) *Error {
	return New(ErrCodeEmbeddingFailed, message, cause)
}

// StoreWriteError wraps a fatal store-write failure (§7).
func StoreWriteError(message string, cause error) *Error {
	return New(ErrCodeStoreWriteFailed, message, cause)
}

// StoreReadError wraps a store-read failure that degrades a retriever (§7).
func StoreReadError(message string, cause error) *Error {
	return New(ErrCodeStoreReadFailed, message, cause)
}

// QueryError wraps an invalid query (empty/oversize input) (§4.10).
func QueryError(message string) *Error {
	return New(ErrCodeQueryEmpty, message, nil)
}

// SchemaMismatchError signals an on-disk schema version mismatch (§6).
func SchemaMismatchError(message string) *Error {
	return New(ErrCodeSchemaMismatch, message, nil)
}

// CancelledError wraps a cooperative-cancellation signal (§5).
func CancelledError() *Error {
	return New(ErrCodeCancelled, "operation cancelled", nil)
}

// IsFatal reports whether err has fatal severity and should abort the
// current operation, per the §7 propagation policy.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := err.(*Error); ok {
		return e.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code, or "" if err is not an *Error.
func GetCode(err error) string {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// GetCategory extracts the taxonomy category, or "" if err is not an *Error.
func GetCategory(err error) Category {
	if e, ok := err.(*Error); ok {
		return e.Category
	}
	return ""
}
