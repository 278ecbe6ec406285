package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/enunezf/zartdeploy/internal/adapters/process"
	"github.com/enunezf/zartdeploy/internal/core/ports"
	"github.com/enunezf/zartdeploy/internal/logging"
)

// iisExpressVerbosity echoes the command and streams the server output
const iisExpressVerbosity = 2

func (a *app) newIISExpressCmd() *cobra.Command {
	var exe string

	cmd := &cobra.Command{
		Use:   "iisexpress [-- args...]",
		Short: "Run the IIS Express debug server",
		Long: `Run IIS Express from %ProgramFiles%\IIS Express with its output shown on the terminal.

Extra arguments after -- are passed to iisexpress.exe unchanged.

Examples:
  zartdeploy iisexpress
  zartdeploy iisexpress -- /path:C:\site /port:8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New(a.stderr, iisExpressVerbosity)
			runner := process.NewRunner(log, iisExpressVerbosity, a.stderr)

			// The server's own exit code is not reported
			_, err := runner.Run(cmd.Context(), ports.Invocation{
				Args: append([]string{exe}, args...),
			})
			return err
		},
	}

	cmd.Flags().StringVar(&exe, "exe", defaultIISExpress(), "iisexpress executable")

	return cmd
}

func defaultIISExpress() string {
	return filepath.Join(os.Getenv("ProgramFiles"), "IIS Express", "iisexpress.exe")
}
