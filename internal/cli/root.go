// Package cli provides the command-line interface for zartdeploy.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	apperrors "github.com/enunezf/zartdeploy/internal/errors"
	"github.com/enunezf/zartdeploy/internal/security"
)

// Version information, overridden at build time with -ldflags
var version = "0.1.0"

// globalOptions are the flags accepted before the subcommand
type globalOptions struct {
	verbose int
	quiet   bool
	dryRun  bool
	confirm bool
}

// verbosity is 1 by default, +1 per -v, and 0 with -q
func (g globalOptions) verbosity() int {
	if g.quiet {
		return 0
	}
	return 1 + g.verbose
}

// app holds the state of one CLI invocation
type app struct {
	global globalOptions

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// exitCode is set by commands that finish without error
	exitCode int
	// usage is the command whose usage accompanies an invalid-argument error
	usage *cobra.Command
}

// Execute runs the CLI with the process arguments and returns the exit status.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

// Run executes the command tree with args and returns the exit status.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}

	root := a.newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	return a.exitStatus(root.ExecuteContext(ctx))
}

func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "zartdeploy",
		Short: "zartdeploy - deployment helper for local development",
		Long: `zartdeploy automates local deployment chores.

It wraps Microsoft's sqllocaldb and sqlcmd tools to create, drop and recreate
SQL Server LocalDB instances and databases, and can launch IIS Express.

Global flags must be given before the command.

Example:
  zartdeploy -v localdb full-create mydb MyInstance -p C:\data`,
		Version:          version,
		SilenceUsage:     true,
		SilenceErrors:    true,
		TraverseChildren: true,
		Args:             a.checkArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No command: show help and fail
			cmd.SetOut(a.stderr)
			_ = cmd.Help()
			a.exitCode = 1
			return nil
		},
	}

	root.SetVersionTemplate("{{.Version}}\n")
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		a.usage = cmd
		return apperrors.Wrap(apperrors.InvalidArgument, cmd.CommandPath(), err)
	})

	root.Flags().BoolP("version", "V", false, "print the version and exit")
	root.Flags().CountVarP(&a.global.verbose, "verbose", "v", "increase verbosity (repeatable)")
	root.Flags().BoolVarP(&a.global.quiet, "quiet", "q", false, "quiet, only report errors")
	root.Flags().BoolVar(&a.global.dryRun, "dry-run", false, "Show what would be executed without making changes")
	root.Flags().BoolVar(&a.global.confirm, "confirm", false, "Ask for confirmation before modifying anything")

	root.AddCommand(
		a.newLocalDBCmd(),
		a.newIISExpressCmd(),
	)

	return root
}

// checkArgs marks positional argument errors as invalid arguments
func (a *app) checkArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			a.usage = cmd
			return apperrors.Wrap(apperrors.InvalidArgument, cmd.CommandPath(), err)
		}
		return nil
	}
}

// invalidArgs reports a usage error of cmd
func (a *app) invalidArgs(cmd *cobra.Command, msg string) error {
	a.usage = cmd
	return apperrors.New(apperrors.InvalidArgument, msg)
}

// approver picks the approval mode from the global flags
func (a *app) approver() security.Approver {
	switch {
	case a.global.dryRun:
		return security.NewDryRunApprover(a.stdout)
	case a.global.confirm:
		return security.NewInteractiveApprover(a.stdin, a.stderr)
	default:
		return security.NewAutoApprover(true)
	}
}

// exitStatus reports err and maps it to the process exit status
func (a *app) exitStatus(err error) int {
	if err == nil {
		return a.exitCode
	}

	errColor := color.New(color.FgRed, color.Bold)

	switch apperrors.KindOf(err) {
	case apperrors.InvalidArgument:
		errColor.Fprintf(a.stderr, "Error: %v\n", err)
		if a.usage != nil {
			fmt.Fprintln(a.stderr)
			fmt.Fprint(a.stderr, a.usage.UsageString())
		}
		return 2
	case apperrors.Cancelled:
		color.New(color.FgYellow).Fprintln(a.stderr, "Operation cancelled.")
		return 1
	default:
		errColor.Fprintf(a.stderr, "Error: %v\n", err)
		return 1
	}
}
