// Package logging configures the logrus logger shared by the CLI and the process runner.
package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

// LevelFor maps the CLI verbosity to a log level: 0 is quiet (warnings only),
// 1 announces every external command, 2 and above add debug detail.
func LevelFor(verbosity int) logrus.Level {
	switch {
	case verbosity <= 0:
		return logrus.WarnLevel
	case verbosity == 1:
		return logrus.InfoLevel
	default:
		return logrus.DebugLevel
	}
}

// New returns a logger writing to w at the level matching verbosity.
func New(w io.Writer, verbosity int) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(LevelFor(verbosity))
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp:       true,
		DisableQuote:           true,
		DisableLevelTruncation: true,
		PadLevelText:           true,
	})
	return logger
}

// Discard returns a logger that drops everything, for tests.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
