package ports

import (
	"context"

	"github.com/enunezf/zartdeploy/internal/core/domain"
)

// Status classifies the outcome of an external command
type Status int

const (
	// StatusSuccess means the command exited 0, or with the expected code.
	StatusSuccess Status = iota
	// StatusExitCode means a non-zero exit code that nobody asked to enforce.
	StatusExitCode
	// StatusToolNotFound means the executable could not be located.
	StatusToolNotFound
	// StatusUnexpectedExitCode means an expected exit code was set and not met.
	StatusUnexpectedExitCode
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusExitCode:
		return "exit-code"
	case StatusToolNotFound:
		return "tool-not-found"
	case StatusUnexpectedExitCode:
		return "unexpected-exit-code"
	default:
		return "unknown"
	}
}

// Invocation is an external command line plus an optional expected exit code
type Invocation struct {
	Args   []string
	Expect *int
}

// Expect returns a pointer to code, for Invocation.Expect.
func Expect(code int) *int {
	return &code
}

// Result is what an external command produced
type Result struct {
	Status   Status
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// ProcessRunner executes external commands one at a time
type ProcessRunner interface {
	// Run waits for the command to finish. A missing executable or a missed
	// expected exit code is returned as an error alongside the result.
	Run(ctx context.Context, inv Invocation) (Result, error)
}

// QueryExecutor sends a single query to a SQL Server instance (sqlcmd)
type QueryExecutor interface {
	Query(ctx context.Context, server, query string, expect *int) (Result, error)
}

// InstanceManager manages LocalDB instances (sqllocaldb)
type InstanceManager interface {
	Create(ctx context.Context, instance, version string, expect *int) (Result, error)
	Start(ctx context.Context, instance string, expect *int) (Result, error)
	Stop(ctx context.Context, instance string, expect *int) (Result, error)
	Delete(ctx context.Context, instance string, expect *int) (Result, error)
	Info(ctx context.Context, instance string) (domain.InstanceInfo, error)
}

// FileRemover deletes files that may not exist
type FileRemover interface {
	// Remove deletes path if it exists and reports whether it did.
	Remove(path string) (bool, error)
}
