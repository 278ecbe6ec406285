// Package errors defines typed errors with categories for user-friendly reporting.
// The CLI maps each Kind to a process exit status, so callers wrap failures
// from external tools and the filesystem with the kind that describes them.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// ToolNotFound indicates the external executable is not on the search path.
	ToolNotFound Kind = "tool_not_found"
	// LaunchFailed indicates the external executable exists but could not be started.
	LaunchFailed Kind = "launch_failed"
	// UnexpectedExitCode indicates an external tool exited with a code other than the expected one.
	UnexpectedExitCode Kind = "unexpected_exit_code"
	// FileRemoval indicates a database file could not be deleted.
	FileRemoval Kind = "file_removal"
	// InvalidArgument indicates bad command-line input, rejected before any side effect.
	InvalidArgument Kind = "invalid_argument"
	// Cancelled indicates the operation was refused at the approval prompt.
	Cancelled Kind = "cancelled"
	// ConnectionFailed indicates the SQL Server driver could not reach the instance.
	ConnectionFailed Kind = "connection_failed"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the kind of the first *E in err's chain, or "" when there is none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
