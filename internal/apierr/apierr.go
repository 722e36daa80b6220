// Package apierr defines the error taxonomy surfaced to users of the upload
// flow, with a display severity and remediation suggestions per type.
package apierr

import (
	"errors"
	"net/http"
)

// Type is an error taxonomy entry.
type Type string

const (
	FileTooLarge    Type = "file_too_large"
	InvalidFileType Type = "invalid_file_type"
	MissingFile     Type = "missing_file"
	ExtractionError Type = "extraction_error"
	FileReadError   Type = "file_read_error"
	Unknown         Type = "unknown"
)

// Severity is how prominently an error is displayed.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeverityError   Severity = "error"
)

// ParseType maps an error_type string to a Type. Anything outside the
// taxonomy, including empty, is Unknown.
func ParseType(s string) Type {
	switch t := Type(s); t {
	case FileTooLarge, InvalidFileType, MissingFile, ExtractionError, FileReadError:
		return t
	default:
		return Unknown
	}
}

// Severity returns the display severity of t.
func (t Type) Severity() Severity {
	switch t {
	case FileTooLarge, InvalidFileType, MissingFile:
		return SeverityWarning
	case ExtractionError, FileReadError:
		return SeverityInfo
	default:
		return SeverityError
	}
}

// HTTPStatus is the status code used when t is returned by this service.
// Extraction errors carry partial results and are not failures.
func (t Type) HTTPStatus() int {
	switch t {
	case FileTooLarge:
		return http.StatusRequestEntityTooLarge
	case InvalidFileType, MissingFile, FileReadError:
		return http.StatusBadRequest
	case ExtractionError:
		return http.StatusOK
	default:
		return http.StatusBadGateway
	}
}

// DefaultSuggestions returns the stock remediation hints for t.
func DefaultSuggestions(t Type) []string {
	switch t {
	case FileTooLarge:
		return []string{"Please upload a file smaller than 20MB", "Consider splitting large workbooks into smaller ones"}
	case InvalidFileType:
		return []string{"Please upload an Excel file (.xlsx, .xls) or CSV file"}
	case MissingFile:
		return []string{"Please select a file before uploading"}
	case ExtractionError:
		return []string{"Try simplifying the workbook structure", "Ensure data is in a tabular format"}
	case FileReadError:
		return []string{"Check if the file is password protected", "Ensure the file is not corrupted"}
	default:
		return []string{"Please try again", "Contact support if the problem persists"}
	}
}

// Error is a taxonomy error.
type Error struct {
	Type        Type           `json:"error_type"`
	Message     string         `json:"error"`
	Suggestions []string       `json:"suggestions,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	cause       error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return string(e.Type) + ": " + e.Message + ": " + e.cause.Error()
	}
	return string(e.Type) + ": " + e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error { return e.cause }

// Severity is e.Type.Severity().
func (e *Error) Severity() Severity { return e.Type.Severity() }

// New returns an Error of type t with the default suggestions.
func New(t Type, msg string) *Error {
	return &Error{Type: t, Message: msg, Suggestions: DefaultSuggestions(t)}
}

// FromEnvelope builds an Error from a service error envelope. Missing
// suggestions fall back to the defaults for the mapped type.
func FromEnvelope(errorType, msg string, suggestions []string, details map[string]any) *Error {
	t := ParseType(errorType)
	if len(suggestions) == 0 {
		suggestions = DefaultSuggestions(t)
	}
	if msg == "" {
		msg = "upload failed"
	}
	return &Error{Type: t, Message: msg, Suggestions: suggestions, Details: details}
}

// FromTransport converts a failed upload call into an Unknown error with a
// generic retry message. The cause is kept for logging only.
func FromTransport(err error) *Error {
	e := New(Unknown, "The upload could not be completed. Please try again.")
	e.cause = err
	return e
}

// As extracts an *Error from err. Errors outside the taxonomy are converted
// with FromTransport.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return FromTransport(err)
}
