package internal

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"ERROR": LogLevelError,
		"WARN":  LogLevelWarn,
		"INFO":  LogLevelInfo,
		"DEBUG": LogLevelDebug,
		"TRACE": LogLevelTrace,
		"":      LogLevelInfo,
		"loud":  LogLevelInfo,
	}
	for in, want := range cases {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(LogLevelWarn)
	l.SetOutput(&buf)

	l.Info("hidden %d", 1)
	l.Debug("hidden %d", 2)
	l.Warn("shown %s", "warning")
	l.Error("shown %s", "error")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("messages below WARN were logged: %s", out)
	}
	if !strings.Contains(out, "shown warning") || !strings.Contains(out, "shown error") {
		t.Errorf("expected warn and error output, got: %s", out)
	}

	l.SetLevel(LogLevelDebug)
	l.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Error("debug message missing after SetLevel")
	}
	if l.GetLevel() != LogLevelDebug {
		t.Errorf("GetLevel = %d", l.GetLevel())
	}
}
