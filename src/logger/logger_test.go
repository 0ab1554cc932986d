package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", DebugLevel},
		{"INFO", InfoLevel},
		{"warn", WarningLevel},
		{"warning", WarningLevel},
		{"error", ErrorLevel},
		{"", InfoLevel},
		{"verbose", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoggerFiltersBelowLevel(t *testing.T) {
	SetLevel("warning")
	defer SetLevel("info")

	var buf bytes.Buffer
	l := NewLoggerTo(&buf, "Test")

	l.Debug("hidden %d", 1)
	l.Info("hidden %d", 2)
	l.Warning("shown %d", 3)
	l.Error("shown %d", 4)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("expected debug/info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "[Test] WARNING: shown 3") {
		t.Errorf("missing warning line in %q", out)
	}
	if !strings.Contains(out, "[Test] ERROR: shown 4") {
		t.Errorf("missing error line in %q", out)
	}
}

func TestCriticalExits(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf, "Test")

	code := -1
	l.exit = func(c int) { code = c }
	l.Critical("boom")

	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(buf.String(), "CRITICAL: boom") {
		t.Errorf("missing critical line in %q", buf.String())
	}
}
