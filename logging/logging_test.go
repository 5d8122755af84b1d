package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)
	logger.SetLevel(LevelInfo)

	logger.Debug("debug message")
	if buf.Len() > 0 {
		t.Error("debug message should be filtered at INFO level")
	}

	logger.Info("info message")
	output := buf.String()
	if !strings.Contains(output, "INFO") {
		t.Error("log should contain INFO level")
	}
	if !strings.Contains(output, "info message") {
		t.Error("log should contain the message")
	}
}

func TestLogger_WithComponent(t *testing.T) {
	var buf bytes.Buffer
	root := New()
	root.SetOutput(&buf)
	logger := root.WithComponent("stack")

	logger.Info("test message")

	output := buf.String()
	if !strings.Contains(output, "[stack]") {
		t.Errorf("expected component 'stack' in log, got: %s", output)
	}
}

func TestLogger_FieldsSorted(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)

	logger.Info("fields", map[string]interface{}{"b": 2, "a": 1, "c": "x"})

	if !strings.Contains(buf.String(), "fields a=1 b=2 c=x") {
		t.Errorf("fields should be sorted by key, got: %s", buf.String())
	}
}

func TestLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)
	logger = logger.WithComponent("relay")

	logger.Info("hello world", map[string]interface{}{"key": "value"})

	output := buf.String()
	if !strings.HasPrefix(output, "INFO ") {
		t.Errorf("expected line to start with 'INFO ', got: %s", output)
	}
	if !strings.Contains(output, "[relay] hello world key=value") {
		t.Errorf("unexpected format: %s", output)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":  LevelDebug,
		" WARN ": LevelWarn,
		"Error":  LevelError,
		"bogus":  LevelInfo,
		"":       LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	if logger.Enabled(LevelWarn) {
		t.Error("discard logger should only admit errors")
	}
	logger.Error("dropped")
}

func TestLogger_ModelEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)
	logger.SetLevel(LevelDebug)

	logger.StackReconciled(2, 1, 5, 3)
	logger.TaskRemoved(7, "active", true)
	logger.GroupsBuilt(4, 6, false)

	output := buf.String()
	for _, want := range []string{
		"stack_reconciled active=5 added=2 historical=3 removed=1",
		"task_removed front_most=true task=7 view=active",
		"groups_built groups=4 simulated=false tasks=6",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("missing %q in:\n%s", want, output)
		}
	}
}

func TestLogger_RelayEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)

	logger.CallbackFailed("cb-1", "value_changed", errors.New("broken pipe"), true)
	logger.DispatchComplete("font_scale", 3, 1, 5*time.Millisecond)
	logger.ServiceDied(2)

	output := buf.String()
	if !strings.Contains(output, "WARN ") || !strings.Contains(output, "error=broken pipe") {
		t.Errorf("callback failure should be a WARN with the error, got: %s", output)
	}
	if strings.Contains(output, "dispatch_complete") {
		t.Error("dispatch_complete is DEBUG and should be filtered at INFO")
	}
	if !strings.Contains(output, "service_died callbacks=2") {
		t.Errorf("expected service_died line, got: %s", output)
	}
}
