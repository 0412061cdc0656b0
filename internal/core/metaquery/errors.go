package metaquery

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax matches any *SyntaxError via errors.Is.
	ErrSyntax = errors.New("metaquery: syntax error")

	// ErrMalformedDocument matches any *MalformedDocumentError via errors.Is.
	ErrMalformedDocument = errors.New("metaquery: malformed document")
)

// SyntaxError reports a query string that cannot be decomposed into clauses.
type SyntaxError struct {
	// Fragment is the offending part of the query, echoed back to the user.
	Fragment string

	// Reason describes what was expected.
	Reason string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("metaquery: syntax error: %s in %q", e.Reason, e.Fragment)
}

// Is reports whether target is ErrSyntax.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

func syntaxErr(fragment, reason string) *SyntaxError {
	return &SyntaxError{Fragment: fragment, Reason: reason}
}

// MalformedDocumentError reports a stored document that is not a JSON object.
type MalformedDocumentError struct {
	// Cause is the underlying parse error, if any.
	Cause error

	// Reason is set when the document parsed but has the wrong shape.
	Reason string
}

// Error implements the error interface.
func (e *MalformedDocumentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("metaquery: malformed document: %v", e.Cause)
	}
	return "metaquery: malformed document: " + e.Reason
}

// Unwrap returns the underlying cause.
func (e *MalformedDocumentError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrMalformedDocument.
func (e *MalformedDocumentError) Is(target error) bool {
	return target == ErrMalformedDocument
}

// IsSyntaxError returns true if err is, or wraps, a query syntax error.
func IsSyntaxError(err error) bool {
	return errors.Is(err, ErrSyntax)
}

// AsSyntaxError extracts the *SyntaxError from err's chain.
func AsSyntaxError(err error) (*SyntaxError, bool) {
	var se *SyntaxError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
