// Package services contains the orchestration logic of zartdeploy.
package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/enunezf/zartdeploy/internal/core/domain"
	"github.com/enunezf/zartdeploy/internal/core/ports"
	apperrors "github.com/enunezf/zartdeploy/internal/errors"
	"github.com/enunezf/zartdeploy/internal/security"
)

// ConnectFunc opens a driver connection port for the given configuration
type ConnectFunc func(cfg *domain.ConnectionConfig) ports.DatabasePort

// LocalDBParams holds the collaborators of the LocalDB service.
type LocalDBParams struct {
	Queries   ports.QueryExecutor
	Instances ports.InstanceManager
	Files     ports.FileRemover
	Approver  security.Approver
	Connect   ConnectFunc
	Out       io.Writer
	Log       logrus.FieldLogger

	// HomeDir is where LocalDB puts database files when no path is given.
	HomeDir string
}

// LocalDB creates, drops and recreates LocalDB instances and databases
type LocalDB struct {
	queries   ports.QueryExecutor
	instances ports.InstanceManager
	files     ports.FileRemover
	approver  security.Approver
	connect   ConnectFunc
	out       io.Writer
	log       logrus.FieldLogger
	home      string
}

// NewLocalDB creates the service. A nil approver approves everything.
func NewLocalDB(p LocalDBParams) *LocalDB {
	approver := p.Approver
	if approver == nil {
		approver = security.NewAutoApprover(true)
	}
	log := p.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	out := p.Out
	if out == nil {
		out = io.Discard
	}

	return &LocalDB{
		queries:   p.Queries,
		instances: p.Instances,
		files:     p.Files,
		approver:  approver,
		connect:   p.Connect,
		out:       out,
		log:       log,
		home:      p.HomeDir,
	}
}

// Plan returns the steps opts.Action performs, in order.
//
//  1. drop the database and remove its files (create, full-create, drop, full-drop)
//  2. stop and delete the instance (full-create, full-drop)
//  3. create the instance (full-create, only-create)
//  4. create the database (create, full-create, only-create)
//
// System databases are never dropped or created.
func (s *LocalDB) Plan(opts domain.LocalDBOptions) (domain.Plan, error) {
	plan := domain.Plan{Action: opts.Action}
	server := opts.ServerName()
	params := opts.TemplateParams()
	sysdb := opts.IsSystemDatabase()

	if opts.Action.DropsDatabase() && !sysdb {
		query, err := domain.DropDatabase.Format(params)
		if err != nil {
			return plan, err
		}
		plan.Steps = append(plan.Steps, domain.Step{
			Kind:     domain.StepQuery,
			Policy:   domain.Record,
			Server:   server,
			Query:    query,
			Template: domain.DropDatabase.Name,
		})

		if opts.Path == "" && s.home == "" {
			return plan, fmt.Errorf("cannot guess the location of %s files: home directory unknown", opts.Database)
		}
		mdf, ldf := opts.DataFiles(s.home)
		for _, f := range []string{mdf, ldf} {
			plan.Steps = append(plan.Steps, domain.Step{Kind: domain.StepRemoveFile, Path: f})
		}
	}

	if opts.Action.ResetsInstance() {
		for _, op := range []domain.InstanceOp{domain.InstanceStop, domain.InstanceDelete} {
			plan.Steps = append(plan.Steps, domain.Step{
				Kind:     domain.StepInstance,
				Policy:   domain.Tolerate,
				Op:       op,
				Instance: opts.Instance,
			})
		}
	}

	if opts.Action.CreatesInstance() {
		plan.Steps = append(plan.Steps, domain.Step{
			Kind:     domain.StepInstance,
			Policy:   domain.Require,
			Op:       domain.InstanceCreate,
			Instance: opts.Instance,
			Version:  opts.SQLVersion,
		})
	}

	if opts.Action.CreatesDatabase() && !sysdb {
		tpl := domain.CreateDatabase
		if opts.Path != "" {
			tpl = domain.CreateDatabaseOn
		}
		query, err := tpl.Format(params)
		if err != nil {
			return plan, err
		}
		plan.Steps = append(plan.Steps, domain.Step{
			Kind:     domain.StepQuery,
			Policy:   domain.Require,
			Server:   server,
			Query:    query,
			Template: tpl.Name,
		})
	}

	return plan, nil
}

// Execute runs opts.Action and returns the exit code of the last external
// command whose result matters, or 0 when none ran.
func (s *LocalDB) Execute(ctx context.Context, opts domain.LocalDBOptions) (int, error) {
	if opts.Action == domain.ActionURL {
		fmt.Fprintln(s.out, opts.URL())
		return 0, nil
	}

	plan, err := s.Plan(opts)
	if err != nil {
		return 1, err
	}

	if plan.Empty() {
		s.log.WithField("database", opts.Database).Infof("nothing to %s for a system database", opts.Action)
		return 0, nil
	}

	approved, err := s.approve(opts, plan)
	if err != nil {
		return 1, err
	}
	if !approved {
		return 0, nil
	}

	return s.Apply(ctx, plan)
}

// approve asks the approver to run plan. It returns false without an error
// only in dry-run mode; a refusal is a Cancelled error.
func (s *LocalDB) approve(opts domain.LocalDBOptions, plan domain.Plan) (bool, error) {
	approved, err := s.approver.RequestApproval(security.ApprovalRequest{
		Operation:     fmt.Sprintf("localdb %s %s on %s", opts.Action, opts.Database, opts.ServerName()),
		Steps:         plan.String(),
		Level:         approvalLevel(plan),
		ImpactSummary: impactSummary(opts),
	})
	if err != nil {
		return false, fmt.Errorf("approval error: %w", err)
	}
	if !approved && !security.IsDryRun(s.approver) {
		return false, apperrors.New(apperrors.Cancelled, "operation cancelled by user")
	}
	return approved, nil
}

// Apply executes the steps of plan in order. A Require step that fails, a
// missing tool or a file that cannot be removed stops execution immediately.
func (s *LocalDB) Apply(ctx context.Context, plan domain.Plan) (int, error) {
	rc := 0
	for _, step := range plan.Steps {
		code, err := s.runStep(ctx, step)
		if err != nil {
			return 1, err
		}
		if step.Policy != domain.Tolerate {
			rc = code
		}
	}
	return rc, nil
}

func (s *LocalDB) runStep(ctx context.Context, step domain.Step) (int, error) {
	var expect *int
	if step.Policy == domain.Require {
		expect = ports.Expect(0)
	}

	s.log.WithField("policy", step.Policy).Debug(step.String())

	var (
		res ports.Result
		err error
	)
	switch step.Kind {
	case domain.StepQuery:
		res, err = s.queries.Query(ctx, step.Server, step.Query, expect)

	case domain.StepRemoveFile:
		_, err = s.files.Remove(step.Path)
		return 0, err

	case domain.StepInstance:
		switch step.Op {
		case domain.InstanceCreate:
			res, err = s.instances.Create(ctx, step.Instance, step.Version, expect)
		case domain.InstanceStart:
			res, err = s.instances.Start(ctx, step.Instance, expect)
		case domain.InstanceStop:
			res, err = s.instances.Stop(ctx, step.Instance, expect)
		case domain.InstanceDelete:
			res, err = s.instances.Delete(ctx, step.Instance, expect)
		default:
			return 1, fmt.Errorf("unknown instance operation %q", step.Op)
		}

	default:
		return 1, fmt.Errorf("unknown step kind %d", step.Kind)
	}

	if err != nil {
		return res.ExitCode, err
	}
	if res.Status == ports.StatusExitCode {
		s.log.WithField("exit_code", res.ExitCode).Debugf("ignoring failure of %s", step)
	}
	return res.ExitCode, nil
}

// Info returns the details of the instance
func (s *LocalDB) Info(ctx context.Context, opts domain.LocalDBOptions) (domain.InstanceInfo, error) {
	return s.instances.Info(ctx, opts.Instance)
}

// Ping starts the instance if needed and connects to the database through the driver.
// Starting the instance goes through the approver; in dry-run mode Ping
// returns nil info and no error without starting it.
func (s *LocalDB) Ping(ctx context.Context, opts domain.LocalDBOptions) (*domain.ServerInfo, error) {
	if s.connect == nil {
		return nil, fmt.Errorf("no database driver configured")
	}

	info, err := s.instances.Info(ctx, opts.Instance)
	if err != nil {
		return nil, err
	}

	if !info.Running() {
		plan := domain.Plan{Action: opts.Action, Steps: []domain.Step{{
			Kind:     domain.StepInstance,
			Policy:   domain.Require,
			Op:       domain.InstanceStart,
			Instance: opts.Instance,
		}}}
		approved, err := s.approve(opts, plan)
		if err != nil || !approved {
			return nil, err
		}

		s.log.WithField("instance", opts.Instance).Info("starting instance")
		if _, err := s.Apply(ctx, plan); err != nil {
			return nil, err
		}
		if info, err = s.instances.Info(ctx, opts.Instance); err != nil {
			return nil, err
		}
	}

	cfg := domain.NewConnectionConfig()
	cfg.Pipe = info.PipeName
	cfg.Database = opts.Database
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.ConnectionFailed, "configuration error", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db := s.connect(cfg)
	if err := db.Connect(ctx); err != nil {
		return nil, apperrors.Wrap(apperrors.ConnectionFailed, cfg.SafeString(), err)
	}
	defer db.Close()

	return db.GetServerInfo(ctx)
}

func approvalLevel(plan domain.Plan) security.ApprovalLevel {
	switch {
	case plan.Empty():
		return security.ReadOnly
	case plan.Destructive():
		return security.Destructive
	default:
		return security.Modification
	}
}

func impactSummary(opts domain.LocalDBOptions) string {
	switch opts.Action {
	case domain.ActionFullCreate:
		return fmt.Sprintf("instance %s is deleted and recreated", opts.Instance)
	case domain.ActionFullDrop:
		return fmt.Sprintf("instance %s is deleted", opts.Instance)
	case domain.ActionCreate, domain.ActionDrop:
		return fmt.Sprintf("existing database %s and its files are removed", opts.Database)
	case domain.ActionPing:
		return fmt.Sprintf("stopped instance %s is started", opts.Instance)
	}
	return ""
}
