// Package logger builds the process-wide logrus logger.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logger writing to stdout.  Development environments get
// the human-readable text formatter; everything else logs JSON so the
// lines can be shipped as-is.  Unknown level names fall back to info.
func New(level string, dev bool) *logrus.Logger {
	return newWithOutput(os.Stdout, level, dev)
}

func newWithOutput(out io.Writer, level string, dev bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	if dev {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}

// Discard returns a logger that drops everything.  Tests use it to keep
// output quiet.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
