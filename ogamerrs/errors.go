// Package ogamerrs defines the error kinds of spec §7 on top of
// github.com/cockroachdb/errors. Each kind is a sentinel that callers
// match with errors.Is; Wrap/Wrapf attach that kind plus context to an
// error at its origin site.
package ogamerrs

import "github.com/cockroachdb/errors"

// Kind is one of the error kinds enumerated in spec §7.
type Kind struct{ name string }

func (k Kind) String() string { return k.name }

var (
	Configuration       = Kind{"configuration"}
	Binding             = Kind{"binding"}
	Parsing             = Kind{"parsing"}
	ExpressionSecurity  = Kind{"expression_security"}
	Type                = Kind{"type"}
	Sql                 = Kind{"sql"} //nolint:revive,stylecheck
	Executor            = Kind{"executor"}
	Transaction         = Kind{"transaction"}
)

// kindError wraps an underlying error with its spec §7 kind. errors.Is
// matches by kind; errors.Unwrap exposes the wrapped cause.
type kindError struct {
	kind Kind
	err  error
}

func (e *kindError) Error() string { return e.kind.name + ": " + e.err.Error() }
func (e *kindError) Unwrap() error { return e.err }
func (e *kindError) Is(target error) bool {
	other, ok := target.(*kindError)
	return ok && other.kind == e.kind
}

// Sentinel returns a matcher error for kind, usable with errors.Is:
//
//	if errors.Is(err, ogamerrs.Sentinel(ogamerrs.Binding)) { ... }
func Sentinel(kind Kind) error { return &kindError{kind: kind, err: errors.New(kind.name)} }

// New creates a new error of the given kind.
func New(kind Kind, msg string) error {
	return &kindError{kind: kind, err: errors.New(msg)}
}

// Newf creates a new formatted error of the given kind.
func Newf(kind Kind, format string, args ...any) error {
	return &kindError{kind: kind, err: errors.Newf(format, args...)}
}

// Wrap attaches kind and a message to an existing error, preserving a
// stack trace via cockroachdb/errors. Returns nil if err is nil.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, err: errors.Wrap(err, msg)}
}

// Wrapf is the formatted variant of Wrap.
func Wrapf(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, err: errors.Wrapf(err, format, args...)}
}

// KindOf reports the spec §7 kind of err, if it (or something it wraps)
// carries one.
func KindOf(err error) (Kind, bool) {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind, true
	}
	return Kind{}, false
}

// Is reports whether err is of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
