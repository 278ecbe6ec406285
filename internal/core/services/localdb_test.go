package services

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/enunezf/zartdeploy/internal/core/domain"
	"github.com/enunezf/zartdeploy/internal/core/ports"
	apperrors "github.com/enunezf/zartdeploy/internal/errors"
	"github.com/enunezf/zartdeploy/internal/security"
)

// recorder fakes every external collaborator and logs calls in order.
type recorder struct {
	calls []string

	// exit codes and errors per call prefix, e.g. "query DROP" or "create"
	codes map[string]int
	errs  map[string]error

	info       domain.InstanceInfo
	infoCalls  int
	startState string
}

func newRecorder() *recorder {
	return &recorder{codes: map[string]int{}, errs: map[string]error{}}
}

func (r *recorder) result(call string, expect *int) (ports.Result, error) {
	r.calls = append(r.calls, call)
	for prefix, err := range r.errs {
		if strings.HasPrefix(call, prefix) {
			return ports.Result{ExitCode: -1}, err
		}
	}
	res := ports.Result{}
	for prefix, code := range r.codes {
		if strings.HasPrefix(call, prefix) {
			res.ExitCode = code
		}
	}
	if expect != nil && res.ExitCode != *expect {
		res.Status = ports.StatusUnexpectedExitCode
		return res, apperrors.New(apperrors.UnexpectedExitCode, call)
	}
	if res.ExitCode != 0 {
		res.Status = ports.StatusExitCode
	}
	return res, nil
}

func (r *recorder) Query(_ context.Context, server, query string, expect *int) (ports.Result, error) {
	return r.result("query "+server+" "+query, expect)
}

func (r *recorder) Create(_ context.Context, instance, version string, expect *int) (ports.Result, error) {
	return r.result(strings.TrimSpace("create "+instance+" "+version), expect)
}

func (r *recorder) Start(_ context.Context, instance string, expect *int) (ports.Result, error) {
	r.info.State = r.startState
	return r.result("start "+instance, expect)
}

func (r *recorder) Stop(_ context.Context, instance string, expect *int) (ports.Result, error) {
	return r.result("stop "+instance, expect)
}

func (r *recorder) Delete(_ context.Context, instance string, expect *int) (ports.Result, error) {
	return r.result("delete "+instance, expect)
}

func (r *recorder) Info(_ context.Context, instance string) (domain.InstanceInfo, error) {
	r.calls = append(r.calls, "info "+instance)
	r.infoCalls++
	if err := r.errs["info"]; err != nil {
		return domain.InstanceInfo{}, err
	}
	return r.info, nil
}

func (r *recorder) Remove(path string) (bool, error) {
	r.calls = append(r.calls, "remove "+path)
	if err := r.errs["remove"]; err != nil {
		return false, err
	}
	return true, nil
}

const home = "/home/dev"

func newService(r *recorder, approver security.Approver, out *bytes.Buffer) *LocalDB {
	return NewLocalDB(LocalDBParams{
		Queries:   r,
		Instances: r,
		Files:     r,
		Approver:  approver,
		Out:       out,
		HomeDir:   home,
	})
}

func mustOptions(t *testing.T, in domain.LocalDBInput) domain.LocalDBOptions {
	t.Helper()
	opts, err := domain.NewLocalDBOptions(in)
	require.NoError(t, err)
	return opts
}

const (
	dropMydb   = `query (localdb)\MSSQLLocalDB IF EXISTS (SELECT 1 FROM sys.databases WHERE [name] = N'mydb') DROP DATABASE [mydb]`
	createMydb = `query (localdb)\MSSQLLocalDB CREATE DATABASE [mydb]`
)

func TestExecuteSequences(t *testing.T) {
	homeMdf := "remove " + filepath.Join(home, "mydb.mdf")
	homeLdf := "remove " + filepath.Join(home, "mydb_log.ldf")

	tests := []struct {
		action string
		want   []string
	}{
		{
			action: "create",
			want:   []string{dropMydb, homeMdf, homeLdf, createMydb},
		},
		{
			action: "full-create",
			want: []string{
				dropMydb, homeMdf, homeLdf,
				"stop MSSQLLocalDB", "delete MSSQLLocalDB",
				"create MSSQLLocalDB",
				createMydb,
			},
		},
		{
			action: "only-create",
			want:   []string{"create MSSQLLocalDB", createMydb},
		},
		{
			action: "drop",
			want:   []string{dropMydb, homeMdf, homeLdf},
		},
		{
			action: "full-drop",
			want:   []string{dropMydb, homeMdf, homeLdf, "stop MSSQLLocalDB", "delete MSSQLLocalDB"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			r := newRecorder()
			rc, err := newService(r, nil, nil).Execute(context.Background(),
				mustOptions(t, domain.LocalDBInput{Action: tt.action, Database: "mydb"}))
			require.NoError(t, err)
			require.Equal(t, 0, rc)
			require.Equal(t, tt.want, r.calls)
		})
	}
}

func TestExecuteSystemDatabases(t *testing.T) {
	for _, db := range []string{"master", "MODEL", "TempDB", "msdb"} {
		for _, action := range []string{"create", "full-create", "only-create", "drop", "full-drop"} {
			t.Run(action+" "+db, func(t *testing.T) {
				r := newRecorder()
				_, err := newService(r, nil, nil).Execute(context.Background(),
					mustOptions(t, domain.LocalDBInput{Action: action, Database: db}))
				require.NoError(t, err)

				for _, call := range r.calls {
					require.False(t, strings.HasPrefix(call, "query"), call)
					require.False(t, strings.HasPrefix(call, "remove"), call)
				}
			})
		}
	}
}

func TestExecuteSystemDatabaseFullCreateStillRecreatesInstance(t *testing.T) {
	r := newRecorder()
	_, err := newService(r, nil, nil).Execute(context.Background(),
		mustOptions(t, domain.LocalDBInput{Action: "full-create", Instance: "Dev", SQLVersion: "13.0"}))
	require.NoError(t, err)
	require.Equal(t, []string{"stop Dev", "delete Dev", "create Dev 13.0"}, r.calls)
}

func TestExecuteURL(t *testing.T) {
	r := newRecorder()
	var out bytes.Buffer

	rc, err := newService(r, nil, &out).Execute(context.Background(),
		mustOptions(t, domain.LocalDBInput{Action: "url", Database: "mydb", Instance: "Dev"}))
	require.NoError(t, err)
	require.Equal(t, 0, rc)
	require.Equal(t, "mssql://(localdb)\\Dev/mydb\n", out.String())
	require.Empty(t, r.calls)
}

func TestExecuteWithPath(t *testing.T) {
	dir := t.TempDir()
	sep := string(os.PathSeparator)
	opts := mustOptions(t, domain.LocalDBInput{Action: "create", Database: "mydb", Instance: "MyInstance", Path: dir})

	r := newRecorder()
	_, err := newService(r, nil, nil).Execute(context.Background(), opts)
	require.NoError(t, err)

	createOn, err := domain.CreateDatabaseOn.Format(map[string]string{"database": "mydb", "path": dir + sep})
	require.NoError(t, err)

	require.Equal(t, []string{
		`query (localdb)\MyInstance IF EXISTS (SELECT 1 FROM sys.databases WHERE [name] = N'mydb') DROP DATABASE [mydb]`,
		"remove " + dir + sep + "mydb.mdf",
		"remove " + dir + sep + "mydb.ldf",
		`query (localdb)\MyInstance ` + createOn,
	}, r.calls)
	require.Contains(t, createOn, "FILENAME='"+dir+sep+"mydb.mdf'")
}

func TestExecuteIsRepeatable(t *testing.T) {
	opts := mustOptions(t, domain.LocalDBInput{Action: "create", Database: "mydb"})
	ctx := context.Background()

	single := newRecorder()
	_, err := newService(single, nil, nil).Execute(ctx, opts)
	require.NoError(t, err)

	r := newRecorder()
	svc := newService(r, nil, nil)
	_, err = svc.Execute(ctx, opts)
	require.NoError(t, err)
	_, err = svc.Execute(ctx, mustOptions(t, domain.LocalDBInput{Action: "drop", Database: "mydb"}))
	require.NoError(t, err)

	r.calls = nil
	_, err = svc.Execute(ctx, opts)
	require.NoError(t, err)
	require.Equal(t, single.calls, r.calls)
}

func TestExecuteExitCodes(t *testing.T) {
	ctx := context.Background()

	t.Run("drop records the query exit code", func(t *testing.T) {
		r := newRecorder()
		r.codes["query"] = 1
		rc, err := newService(r, nil, nil).Execute(ctx, mustOptions(t, domain.LocalDBInput{Action: "drop", Database: "mydb"}))
		require.NoError(t, err)
		require.Equal(t, 1, rc)
		require.Len(t, r.calls, 3)
	})

	t.Run("stop and delete failures are tolerated", func(t *testing.T) {
		r := newRecorder()
		r.codes["stop"] = 3
		r.codes["delete"] = 4
		rc, err := newService(r, nil, nil).Execute(ctx, mustOptions(t, domain.LocalDBInput{Action: "full-drop", Database: "mydb"}))
		require.NoError(t, err)
		require.Equal(t, 0, rc)
		require.Len(t, r.calls, 5)
	})

	t.Run("failed instance create aborts", func(t *testing.T) {
		r := newRecorder()
		r.codes["create"] = 1
		rc, err := newService(r, nil, nil).Execute(ctx, mustOptions(t, domain.LocalDBInput{Action: "only-create", Database: "mydb"}))
		require.Error(t, err)
		require.True(t, apperrors.Is(err, apperrors.UnexpectedExitCode))
		require.Equal(t, 1, rc)
		require.Equal(t, []string{"create MSSQLLocalDB"}, r.calls)
	})

	t.Run("missing tool aborts", func(t *testing.T) {
		r := newRecorder()
		r.errs["query"] = apperrors.New(apperrors.ToolNotFound, "sqlcmd")
		_, err := newService(r, nil, nil).Execute(ctx, mustOptions(t, domain.LocalDBInput{Action: "create", Database: "mydb"}))
		require.True(t, apperrors.Is(err, apperrors.ToolNotFound))
		require.Len(t, r.calls, 1)
	})

	t.Run("file removal error aborts", func(t *testing.T) {
		r := newRecorder()
		r.errs["remove"] = apperrors.Wrap(apperrors.FileRemoval, "mydb.mdf", os.ErrPermission)
		_, err := newService(r, nil, nil).Execute(ctx, mustOptions(t, domain.LocalDBInput{Action: "create", Database: "mydb"}))
		require.True(t, errors.Is(err, os.ErrPermission))
		require.Len(t, r.calls, 2)
	})
}

func TestExecuteApproval(t *testing.T) {
	ctx := context.Background()
	opts := mustOptions(t, domain.LocalDBInput{Action: "drop", Database: "mydb"})

	t.Run("refused", func(t *testing.T) {
		r := newRecorder()
		rc, err := newService(r, security.NewAutoApprover(false), nil).Execute(ctx, opts)
		require.True(t, apperrors.Is(err, apperrors.Cancelled))
		require.Equal(t, 1, rc)
		require.Empty(t, r.calls)
	})

	t.Run("dry run", func(t *testing.T) {
		r := newRecorder()
		var out bytes.Buffer
		rc, err := newService(r, security.NewDryRunApprover(&out), nil).Execute(ctx, opts)
		require.NoError(t, err)
		require.Equal(t, 0, rc)
		require.Empty(t, r.calls)
		require.Contains(t, out.String(), "DROP DATABASE [mydb]")
		require.Contains(t, out.String(), "Destructive")
	})

	t.Run("interactive", func(t *testing.T) {
		r := newRecorder()
		approver := security.NewInteractiveApprover(strings.NewReader("CONFIRM\n"), &bytes.Buffer{})
		_, err := newService(r, approver, nil).Execute(ctx, opts)
		require.NoError(t, err)
		require.Len(t, r.calls, 3)
	})
}

func TestApprovalLevel(t *testing.T) {
	svc := newService(newRecorder(), nil, nil)

	plan := func(action string) domain.Plan {
		p, err := svc.Plan(mustOptions(t, domain.LocalDBInput{Action: action, Database: "mydb"}))
		require.NoError(t, err)
		return p
	}

	require.Equal(t, security.Modification, approvalLevel(plan("only-create")))
	require.Equal(t, security.Destructive, approvalLevel(plan("create")))
	require.Equal(t, security.Destructive, approvalLevel(plan("full-drop")))
	require.Equal(t, security.ReadOnly, approvalLevel(domain.Plan{}))
}

func TestPlanDestructiveByTemplate(t *testing.T) {
	svc := newService(newRecorder(), nil, nil)
	plan, err := svc.Plan(mustOptions(t, domain.LocalDBInput{Action: "only-create", Database: "DROP DATABASE x"}))
	require.NoError(t, err)

	require.False(t, plan.Destructive())
	require.Equal(t, security.Modification, approvalLevel(plan))
}

func TestPlanPolicies(t *testing.T) {
	svc := newService(newRecorder(), nil, nil)
	plan, err := svc.Plan(mustOptions(t, domain.LocalDBInput{Action: "full-create", Database: "mydb"}))
	require.NoError(t, err)

	var policies []domain.FailurePolicy
	for _, s := range plan.Steps {
		policies = append(policies, s.Policy)
	}
	require.Equal(t, []domain.FailurePolicy{
		domain.Record,   // drop query
		domain.Tolerate, // remove mdf
		domain.Tolerate, // remove ldf
		domain.Tolerate, // stop
		domain.Tolerate, // delete
		domain.Require,  // create instance
		domain.Require,  // create database
	}, policies)
}

func TestPlanWithoutHome(t *testing.T) {
	svc := NewLocalDB(LocalDBParams{})
	_, err := svc.Plan(mustOptions(t, domain.LocalDBInput{Action: "drop", Database: "mydb"}))
	require.Error(t, err)
	require.Contains(t, err.Error(), "home directory")
}

type fakeDB struct {
	cfg        *domain.ConnectionConfig
	connectErr error
	closed     bool
}

func (f *fakeDB) Connect(context.Context) error { return f.connectErr }
func (f *fakeDB) Close() error                  { f.closed = true; return nil }
func (f *fakeDB) GetServerInfo(context.Context) (*domain.ServerInfo, error) {
	return &domain.ServerInfo{ServerName: "HOST\\LOCALDB#1A2B3C4D", Edition: "Express Edition (64-bit)"}, nil
}

func TestPing(t *testing.T) {
	pipe := `np:\\.\pipe\LOCALDB#1A2B3C4D\tsql\query`

	t.Run("starts a stopped instance", func(t *testing.T) {
		r := newRecorder()
		r.info = domain.InstanceInfo{Name: "MSSQLLocalDB", State: "Stopped", PipeName: pipe}
		r.startState = "Running"

		db := &fakeDB{}
		svc := NewLocalDB(LocalDBParams{
			Instances: r,
			Connect: func(cfg *domain.ConnectionConfig) ports.DatabasePort {
				db.cfg = cfg
				return db
			},
		})

		info, err := svc.Ping(context.Background(), mustOptions(t, domain.LocalDBInput{Action: "ping", Database: "mydb"}))
		require.NoError(t, err)
		require.Equal(t, "Express Edition (64-bit)", info.Edition)
		require.Equal(t, []string{"info MSSQLLocalDB", "start MSSQLLocalDB", "info MSSQLLocalDB"}, r.calls)
		require.Equal(t, pipe, db.cfg.Pipe)
		require.Equal(t, "mydb", db.cfg.Database)
		require.True(t, db.closed)
	})

	t.Run("dry run leaves a stopped instance alone", func(t *testing.T) {
		r := newRecorder()
		r.info = domain.InstanceInfo{Name: "MSSQLLocalDB", State: "Stopped", PipeName: pipe}
		r.startState = "Running"

		var out bytes.Buffer
		connected := false
		svc := NewLocalDB(LocalDBParams{
			Instances: r,
			Approver:  security.NewDryRunApprover(&out),
			Connect: func(*domain.ConnectionConfig) ports.DatabasePort {
				connected = true
				return &fakeDB{}
			},
		})

		info, err := svc.Ping(context.Background(), mustOptions(t, domain.LocalDBInput{Action: "ping", Database: "mydb"}))
		require.NoError(t, err)
		require.Nil(t, info)
		require.Equal(t, []string{"info MSSQLLocalDB"}, r.calls)
		require.False(t, connected)
		require.Contains(t, out.String(), "instance start MSSQLLocalDB")
		require.Contains(t, out.String(), "Modification")
	})

	t.Run("refused start", func(t *testing.T) {
		r := newRecorder()
		r.info = domain.InstanceInfo{Name: "MSSQLLocalDB", State: "Stopped", PipeName: pipe}

		svc := NewLocalDB(LocalDBParams{
			Instances: r,
			Approver:  security.NewInteractiveApprover(strings.NewReader("n\n"), &bytes.Buffer{}),
			Connect:   func(*domain.ConnectionConfig) ports.DatabasePort { return &fakeDB{} },
		})

		_, err := svc.Ping(context.Background(), mustOptions(t, domain.LocalDBInput{Action: "ping"}))
		require.True(t, apperrors.Is(err, apperrors.Cancelled))
		require.Equal(t, []string{"info MSSQLLocalDB"}, r.calls)
	})

	t.Run("running instance needs no approval", func(t *testing.T) {
		r := newRecorder()
		r.info = domain.InstanceInfo{Name: "MSSQLLocalDB", State: "Running", PipeName: pipe}

		svc := NewLocalDB(LocalDBParams{
			Instances: r,
			Approver:  security.NewAutoApprover(false),
			Connect:   func(*domain.ConnectionConfig) ports.DatabasePort { return &fakeDB{} },
		})

		info, err := svc.Ping(context.Background(), mustOptions(t, domain.LocalDBInput{Action: "ping"}))
		require.NoError(t, err)
		require.NotNil(t, info)
		require.Equal(t, []string{"info MSSQLLocalDB"}, r.calls)
	})

	t.Run("connection failure", func(t *testing.T) {
		r := newRecorder()
		r.info = domain.InstanceInfo{Name: "MSSQLLocalDB", State: "Running", PipeName: pipe}

		svc := NewLocalDB(LocalDBParams{
			Instances: r,
			Connect: func(*domain.ConnectionConfig) ports.DatabasePort {
				return &fakeDB{connectErr: errors.New("login failed")}
			},
		})

		_, err := svc.Ping(context.Background(), mustOptions(t, domain.LocalDBInput{Action: "ping"}))
		require.True(t, apperrors.Is(err, apperrors.ConnectionFailed))
		require.Contains(t, err.Error(), "login failed")
	})

	t.Run("no pipe", func(t *testing.T) {
		r := newRecorder()
		r.info = domain.InstanceInfo{Name: "MSSQLLocalDB", State: "Running"}

		svc := NewLocalDB(LocalDBParams{
			Instances: r,
			Connect:   func(*domain.ConnectionConfig) ports.DatabasePort { return &fakeDB{} },
		})

		_, err := svc.Ping(context.Background(), mustOptions(t, domain.LocalDBInput{Action: "ping"}))
		require.True(t, apperrors.Is(err, apperrors.ConnectionFailed))
	})
}
