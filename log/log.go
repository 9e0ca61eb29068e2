// Package log configures the logger shared by the grammar pipeline.
package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logger writing to w whose level follows the number of -v flags.
//
//	0: warnings and errors only
//	1: informational messages of the generator
//	2 and more: debug messages including tokenizer and parser traces
func New(w io.Writer, verbosity int) *logrus.Logger {
	if w == nil {
		w = os.Stderr
	}
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableColors:    true,
	})
	l.SetLevel(Level(verbosity))
	return l
}

func Level(verbosity int) logrus.Level {
	switch {
	case verbosity <= 0:
		return logrus.WarnLevel
	case verbosity == 1:
		return logrus.InfoLevel
	default:
		return logrus.DebugLevel
	}
}

// Discard returns a logger that drops everything. It is the default of components that take an optional logger.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}
