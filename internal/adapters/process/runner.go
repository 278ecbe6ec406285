// Package process runs external tools and classifies their exit status.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/exec"

	"github.com/sirupsen/logrus"

	"github.com/enunezf/zartdeploy/internal/core/ports"
	apperrors "github.com/enunezf/zartdeploy/internal/errors"
)

// Runner implements ports.ProcessRunner with os/exec
type Runner struct {
	log         logrus.FieldLogger
	verbosity   int
	passthrough io.Writer
}

// NewRunner creates a runner. At verbosity 1 the command line is logged before
// it runs; above 1 the child's output is also copied to passthrough as it arrives.
func NewRunner(log logrus.FieldLogger, verbosity int, passthrough io.Writer) *Runner {
	return &Runner{
		log:         log,
		verbosity:   verbosity,
		passthrough: passthrough,
	}
}

// Run executes the invocation and waits for it to exit
func (r *Runner) Run(ctx context.Context, inv ports.Invocation) (ports.Result, error) {
	if len(inv.Args) == 0 {
		return ports.Result{}, fmt.Errorf("empty command line")
	}

	name := inv.Args[0]
	if r.verbosity > 0 {
		r.log.Info(Quote(inv.Args))
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, inv.Args[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if r.verbosity > 1 && r.passthrough != nil {
		cmd.Stdout = io.MultiWriter(&stdout, r.passthrough)
		cmd.Stderr = io.MultiWriter(&stderr, r.passthrough)
	}

	err := cmd.Run()
	res := ports.Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr):
			res.ExitCode = exitErr.ExitCode()
		case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
			res.Status = ports.StatusToolNotFound
			res.ExitCode = -1
			return res, apperrors.Wrap(apperrors.ToolNotFound, name, err)
		default:
			res.ExitCode = -1
			return res, apperrors.Wrap(apperrors.LaunchFailed, name, err)
		}
	}

	r.log.WithFields(logrus.Fields{
		"command":   name,
		"exit_code": res.ExitCode,
	}).Debug("command finished")

	if inv.Expect != nil && res.ExitCode != *inv.Expect {
		res.Status = ports.StatusUnexpectedExitCode
		if r.verbosity == 1 {
			for _, out := range [][]byte{res.Stdout, res.Stderr} {
				if out = bytes.TrimSpace(out); len(out) > 0 {
					r.log.Warn(string(out))
				}
			}
		}
		return res, apperrors.New(apperrors.UnexpectedExitCode,
			fmt.Sprintf("%s exited with %d, expected %d", name, res.ExitCode, *inv.Expect))
	}

	if inv.Expect == nil && res.ExitCode != 0 {
		res.Status = ports.StatusExitCode
	}
	return res, nil
}
