package localdb

import (
	"context"
	"fmt"

	"github.com/enunezf/zartdeploy/internal/core/domain"
	"github.com/enunezf/zartdeploy/internal/core/ports"
)

// DefaultSQLLocalDB is the instance manager looked up on PATH
const DefaultSQLLocalDB = "sqllocaldb"

// SQLLocalDB implements ports.InstanceManager.
//
// sqllocaldb tends to exit 0 even when it prints an error, so exit codes are a weak signal.
type SQLLocalDB struct {
	runner ports.ProcessRunner
	exe    string
}

// NewSQLLocalDB creates an instance manager running exe (DefaultSQLLocalDB when empty)
func NewSQLLocalDB(runner ports.ProcessRunner, exe string) *SQLLocalDB {
	if exe == "" {
		exe = DefaultSQLLocalDB
	}
	return &SQLLocalDB{runner: runner, exe: exe}
}

// Create runs `sqllocaldb create instance [version] -s`, which also starts it.
func (s *SQLLocalDB) Create(ctx context.Context, instance, version string, expect *int) (ports.Result, error) {
	args := []string{s.exe, string(domain.InstanceCreate), instance}
	if version != "" {
		args = append(args, version)
	}
	args = append(args, "-s")
	return s.run(ctx, expect, args...)
}

// Start runs `sqllocaldb start instance`
func (s *SQLLocalDB) Start(ctx context.Context, instance string, expect *int) (ports.Result, error) {
	return s.run(ctx, expect, s.exe, string(domain.InstanceStart), instance)
}

// Stop runs `sqllocaldb stop instance -i`, shutting down with NOWAIT.
func (s *SQLLocalDB) Stop(ctx context.Context, instance string, expect *int) (ports.Result, error) {
	return s.run(ctx, expect, s.exe, string(domain.InstanceStop), instance, "-i")
}

// Delete runs `sqllocaldb delete instance`
func (s *SQLLocalDB) Delete(ctx context.Context, instance string, expect *int) (ports.Result, error) {
	return s.run(ctx, expect, s.exe, string(domain.InstanceDelete), instance)
}

// Info runs `sqllocaldb info instance` and parses its output
func (s *SQLLocalDB) Info(ctx context.Context, instance string) (domain.InstanceInfo, error) {
	res, err := s.run(ctx, ports.Expect(0), s.exe, "info", instance)
	if err != nil {
		return domain.InstanceInfo{}, err
	}

	info := domain.ParseInstanceInfo(string(res.Stdout))
	if info.Name == "" {
		return domain.InstanceInfo{}, fmt.Errorf("instance %s: no info returned: %s", instance, res.Stderr)
	}
	return info, nil
}

func (s *SQLLocalDB) run(ctx context.Context, expect *int, args ...string) (ports.Result, error) {
	return s.runner.Run(ctx, ports.Invocation{Args: args, Expect: expect})
}
