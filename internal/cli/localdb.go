package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/enunezf/zartdeploy/internal/adapters/filesystem"
	"github.com/enunezf/zartdeploy/internal/adapters/localdb"
	"github.com/enunezf/zartdeploy/internal/adapters/process"
	"github.com/enunezf/zartdeploy/internal/adapters/sqlserver"
	"github.com/enunezf/zartdeploy/internal/core/domain"
	"github.com/enunezf/zartdeploy/internal/core/services"
	"github.com/enunezf/zartdeploy/internal/logging"
)

// Environment variables overriding the default tool executables
const (
	envSQLCmd     = "ZARTDEPLOY_SQLCMD"
	envSQLLocalDB = "ZARTDEPLOY_SQLLOCALDB"
)

// localdbFlags holds the flags of the localdb command
type localdbFlags struct {
	path       string
	sqlVersion string
	sqlcmd     string
	sqllocaldb string
}

func (a *app) newLocalDBCmd() *cobra.Command {
	var flags localdbFlags

	cmd := &cobra.Command{
		Use:   "localdb <action> [database] [instance]",
		Short: "Create, drop and recreate LocalDB instances and databases",
		Long: `Manage SQL Server LocalDB instances and databases with sqllocaldb and sqlcmd.

Actions:
  url          print the connection URL of the database
  create       drop the database if it exists, then create it
  full-create  recreate the instance, then create the database
  only-create  create the instance and the database, dropping nothing
  drop         drop the database and remove its files
  full-drop    drop the database, then stop and delete the instance
  info         show the details of an instance
  ping         connect to the database through the driver

The database defaults to master and the instance to MSSQLLocalDB.
System databases are never dropped or created.

Examples:
  # Recreate mydb from scratch on the default instance
  zartdeploy localdb create mydb

  # Recreate the instance with a given engine version and store files in C:\data
  zartdeploy localdb full-create mydb MyInstance -v 13.0 -p C:\data

  # Show what would be executed
  zartdeploy --dry-run localdb full-drop mydb MyInstance

  # Show instance details
  zartdeploy localdb info MyInstance`,
		Args: a.checkArgs(cobra.RangeArgs(1, 3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLocalDB(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.path, "path", "p", "", "directory for the database files (defaults to the user profile)")
	cmd.Flags().StringVarP(&flags.sqlVersion, "sql-version", "v", "", "SQL Server version of a created instance, e.g. 13.0")
	cmd.Flags().StringVar(&flags.sqlcmd, "sqlcmd", envOr(envSQLCmd, localdb.DefaultSQLCmd), "sqlcmd executable")
	cmd.Flags().StringVar(&flags.sqllocaldb, "sqllocaldb", envOr(envSQLLocalDB, localdb.DefaultSQLLocalDB), "sqllocaldb executable")

	return cmd
}

func (a *app) runLocalDB(cmd *cobra.Command, args []string, flags localdbFlags) error {
	in := domain.LocalDBInput{
		Action:     args[0],
		Path:       flags.path,
		SQLVersion: flags.sqlVersion,
	}
	rest := args[1:]
	if domain.Action(in.Action) == domain.ActionInfo {
		// info takes only an instance
		if len(rest) > 1 {
			return a.invalidArgs(cmd, "info accepts at most one instance argument")
		}
		rest = append([]string{""}, rest...)
	}
	if len(rest) > 0 {
		in.Database = rest[0]
	}
	if len(rest) > 1 {
		in.Instance = rest[1]
	}

	opts, err := domain.NewLocalDBOptions(in)
	if err != nil {
		a.usage = cmd
		return err
	}

	svc := a.newLocalDBService(flags)
	ctx := cmd.Context()

	switch opts.Action {
	case domain.ActionInfo:
		info, err := svc.Info(ctx, opts)
		if err != nil {
			return err
		}
		printInstanceInfo(a.stdout, info)
		return nil

	case domain.ActionPing:
		info, err := svc.Ping(ctx, opts)
		if err != nil || info == nil {
			return err
		}
		printServerInfo(a.stdout, opts, info)
		return nil
	}

	code, err := svc.Execute(ctx, opts)
	if err != nil {
		return err
	}
	a.exitCode = code
	return nil
}

// newLocalDBService wires the service to the real tools
func (a *app) newLocalDBService(flags localdbFlags) *services.LocalDB {
	verbosity := a.global.verbosity()
	log := logging.New(a.stderr, verbosity)
	runner := process.NewRunner(log, verbosity, a.stderr)

	var removed io.Writer = io.Discard
	if verbosity > 0 {
		removed = a.stdout
	}

	// LocalDB keeps database files in the user profile when no path is given
	home, err := os.UserHomeDir()
	if err != nil {
		log.WithError(err).Debug("home directory unknown")
	}

	return services.NewLocalDB(services.LocalDBParams{
		Queries:   localdb.NewSQLCmd(runner, flags.sqlcmd),
		Instances: localdb.NewSQLLocalDB(runner, flags.sqllocaldb),
		Files:     filesystem.NewOsRemover(removed),
		Approver:  a.approver(),
		Connect:   sqlserver.NewPort,
		Out:       a.stdout,
		Log:       log,
		HomeDir:   home,
	})
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
