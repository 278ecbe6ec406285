// Package localdb wraps the sqlcmd and sqllocaldb command-line tools.
//
// https://docs.microsoft.com/sql/tools/sqlcmd-utility
// https://docs.microsoft.com/sql/database-engine/configure-windows/sql-server-express-localdb
package localdb

import (
	"context"

	"github.com/enunezf/zartdeploy/internal/core/ports"
)

// DefaultSQLCmd is the query tool looked up on PATH
const DefaultSQLCmd = "sqlcmd"

// SQLCmd implements ports.QueryExecutor
type SQLCmd struct {
	runner ports.ProcessRunner
	exe    string
}

// NewSQLCmd creates a query executor running exe (DefaultSQLCmd when empty)
func NewSQLCmd(runner ports.ProcessRunner, exe string) *SQLCmd {
	if exe == "" {
		exe = DefaultSQLCmd
	}
	return &SQLCmd{runner: runner, exe: exe}
}

// Query runs `sqlcmd -S server -Q query`.
func (s *SQLCmd) Query(ctx context.Context, server, query string, expect *int) (ports.Result, error) {
	return s.runner.Run(ctx, ports.Invocation{
		Args:   []string{s.exe, "-S", server, "-Q", query},
		Expect: expect,
	})
}
