package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetDebug(t *testing.T) {
	prev := Log.GetLevel()
	defer Log.SetLevel(prev)

	Log.SetLevel(logrus.InfoLevel)
	SetDebug(false)
	if Log.GetLevel() != logrus.InfoLevel {
		t.Errorf("level = %s after SetDebug(false)", Log.GetLevel())
	}
	SetDebug(true)
	if Log.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %s after SetDebug(true)", Log.GetLevel())
	}
}

func TestScopedEntry(t *testing.T) {
	var buf bytes.Buffer
	out := Log.Out
	Log.SetOutput(&buf)
	defer Log.SetOutput(out)

	Log.WithField("scope", "capture").Info("saved 20240309_070504.png")
	line := buf.String()
	if !strings.Contains(line, "scope=capture") || !strings.Contains(line, "saved 20240309_070504.png") {
		t.Errorf("unexpected log line %q", line)
	}
}
