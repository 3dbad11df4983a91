package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"trace", LevelTrace},
		{"TRACE", LevelTrace},
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestValidLevel(t *testing.T) {
	if !ValidLevel("") || !ValidLevel("debug") {
		t.Error("ValidLevel rejected a known level")
	}
	if ValidLevel("loud") {
		t.Error("ValidLevel(loud) = true, want false")
	}
}

func TestNewLogger_Filters(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("info", &buf)
	logger.Debug("hidden")
	logger.Info("day advanced", "day", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line written at info level:\n%s", out)
	}
	if !strings.Contains(out, "day advanced") || !strings.Contains(out, "day=3") {
		t.Errorf("info line missing:\n%s", out)
	}
}

func TestNewLogger_TraceLabel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("trace", &buf)
	logger.Log(context.Background(), LevelTrace, "prompt")

	if !strings.Contains(buf.String(), "level=TRACE") {
		t.Errorf("trace level not labeled:\n%s", buf.String())
	}
}
