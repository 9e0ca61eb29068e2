package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		verbosity int
		level     logrus.Level
	}{
		{verbosity: 0, level: logrus.WarnLevel},
		{verbosity: 1, level: logrus.InfoLevel},
		{verbosity: 2, level: logrus.DebugLevel},
		{verbosity: 5, level: logrus.DebugLevel},
	}
	for _, tt := range tests {
		if l := Level(tt.verbosity); l != tt.level {
			t.Errorf("verbosity %v: want: %v, got: %v", tt.verbosity, tt.level, l)
		}
	}
}

func TestNew(t *testing.T) {
	var b bytes.Buffer
	l := New(&b, 1)
	l.Debug("hidden")
	l.WithField("rule", "start").Info("generated")

	out := b.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug messages must be dropped at verbosity 1: %q", out)
	}
	if !strings.Contains(out, "msg=generated") || !strings.Contains(out, "rule=start") {
		t.Fatalf("unexpected output: %q", out)
	}
	if strings.Contains(out, "time=") {
		t.Fatalf("timestamps must be disabled: %q", out)
	}
}
