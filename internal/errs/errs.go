// Package errs defines the error taxonomy. It keeps kanso's
// code-range convention (internal/errors/codes.go grouped codes by
// subsystem in E0NNN bands) re-ranged over this system's eight error
// kinds instead of the Kanso DSL's semantic errors.
package errs

import "fmt"

// Kind is one of the eight error kinds, named E0NNN-style.
type Kind string

const (
	// E01xx: malformed input, non-recoverable at the CST level.
	ParseError Kind = "E0100"
	// E02xx: builder misuse — append after seal, unknown block,
	// unterminated function, duplicate qualified name.
	BuilderError Kind = "E0200"
	// E03xx: unresolved or invalid type expression.
	TypeError Kind = "E0300"
	// E04xx: identifier lookup miss outside known scopes.
	SymbolNotFound Kind = "E0400"
	// E05xx: a CST node kind the lowerer does not model.
	UnsupportedFeature Kind = "E0500"
	// E06xx: internal invariant violation — indicates a bug, fatal.
	InvariantViolation Kind = "E0600"
	// E07xx: a file exceeded a registered resource limit.
	ResourceLimit Kind = "E0700"
	// E08xx: a pass declared a required analysis that isn't registered.
	AnalysisUnavailable Kind = "E0800"
)

// Error is a typed, single-line error carrying its kind and a message;
// it carries no source span. Only BuilderError, InvariantViolation, AnalysisUnavailable
// and ResourceLimit are fatal at the pipeline boundary; the others are
// collected into diagnostics.
type Error struct {
	Kind    Kind
	Message string
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// IsFatal reports whether this kind aborts the current invocation
// rather than being collected as a diagnostic.
func (k Kind) IsFatal() bool {
	switch k {
	case BuilderError, InvariantViolation, AnalysisUnavailable, ResourceLimit:
		return true
	default:
		return false
	}
}
