package process_test

import (
	"bytes"
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	. "github.com/enunezf/zartdeploy/internal/adapters/process"
	"github.com/enunezf/zartdeploy/internal/core/ports"
	apperrors "github.com/enunezf/zartdeploy/internal/errors"
	"github.com/enunezf/zartdeploy/internal/logging"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("runner tests use /bin/sh")
	}
}

func TestRunnerCapturesOutput(t *testing.T) {
	requireShell(t)

	var log, passthrough bytes.Buffer
	r := NewRunner(logging.New(&log, 1), 1, &passthrough)

	res, err := r.Run(context.Background(), ports.Invocation{
		Args: []string{"sh", "-c", "echo out; echo err >&2"},
	})
	require.NoError(t, err)
	require.Equal(t, ports.StatusSuccess, res.Status)
	require.Equal(t, 0, res.ExitCode)
	require.Equal(t, "out\n", string(res.Stdout))
	require.Equal(t, "err\n", string(res.Stderr))

	require.Contains(t, log.String(), `sh -c "echo out; echo err >&2"`)
	require.Empty(t, passthrough.String())
}

func TestRunnerSilent(t *testing.T) {
	requireShell(t)

	var log bytes.Buffer
	r := NewRunner(logging.New(&log, 0), 0, nil)

	_, err := r.Run(context.Background(), ports.Invocation{Args: []string{"sh", "-c", "true"}})
	require.NoError(t, err)
	require.Empty(t, log.String())
}

func TestRunnerPassthrough(t *testing.T) {
	requireShell(t)

	var passthrough bytes.Buffer
	r := NewRunner(logging.Discard(), 2, &passthrough)

	res, err := r.Run(context.Background(), ports.Invocation{Args: []string{"sh", "-c", "echo hello"}})
	require.NoError(t, err)
	require.Equal(t, "hello\n", string(res.Stdout))
	require.Equal(t, "hello\n", passthrough.String())
}

func TestRunnerExitCodes(t *testing.T) {
	requireShell(t)

	r := NewRunner(logging.Discard(), 0, nil)
	ctx := context.Background()

	t.Run("non-zero without expectation", func(t *testing.T) {
		res, err := r.Run(ctx, ports.Invocation{Args: []string{"sh", "-c", "exit 3"}})
		require.NoError(t, err)
		require.Equal(t, ports.StatusExitCode, res.Status)
		require.Equal(t, 3, res.ExitCode)
	})

	t.Run("expected code met", func(t *testing.T) {
		res, err := r.Run(ctx, ports.Invocation{Args: []string{"sh", "-c", "exit 3"}, Expect: ports.Expect(3)})
		require.NoError(t, err)
		require.Equal(t, ports.StatusSuccess, res.Status)
	})

	t.Run("expected code missed", func(t *testing.T) {
		res, err := r.Run(ctx, ports.Invocation{Args: []string{"sh", "-c", "exit 1"}, Expect: ports.Expect(0)})
		require.Error(t, err)
		require.True(t, apperrors.Is(err, apperrors.UnexpectedExitCode))
		require.Equal(t, ports.StatusUnexpectedExitCode, res.Status)
		require.Equal(t, 1, res.ExitCode)
		require.Contains(t, err.Error(), "sh exited with 1, expected 0")
	})
}

func TestRunnerToolNotFound(t *testing.T) {
	r := NewRunner(logging.Discard(), 0, nil)

	res, err := r.Run(context.Background(), ports.Invocation{
		Args:   []string{"zartdeploy-no-such-tool", "-S", "x"},
		Expect: ports.Expect(0),
	})
	require.Error(t, err)
	require.True(t, apperrors.Is(err, apperrors.ToolNotFound))
	require.Equal(t, ports.StatusToolNotFound, res.Status)
}

func TestRunnerEmptyCommand(t *testing.T) {
	r := NewRunner(logging.Discard(), 0, nil)

	_, err := r.Run(context.Background(), ports.Invocation{})
	require.Error(t, err)
}

func TestQuote(t *testing.T) {
	require.Equal(t, `sqlcmd -S (localdb)\X -Q "CREATE DATABASE [a]"`,
		Quote([]string{"sqlcmd", "-S", `(localdb)\X`, "-Q", "CREATE DATABASE [a]"}))
	require.Equal(t, `"C:\My Data\db.mdf"`, QuoteArg(`C:\My Data\db.mdf`))
	require.Equal(t, "plain", QuoteArg("plain"))
}
