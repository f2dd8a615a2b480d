package logging

import (
	"bytes"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestConfigForVerbosity(t *testing.T) {
	tests := []struct {
		verbosity int
		enabled   bool
		level     slog.Level
	}{
		{0, false, 0},
		{1, true, LevelCritical},
		{2, true, LevelError},
		{3, true, LevelWarn},
		{4, true, LevelInfo},
		{5, true, LevelDebug},
	}

	for _, tt := range tests {
		cfg := ConfigForVerbosity(tt.verbosity, nil)
		if cfg.Enabled != tt.enabled {
			t.Errorf("verbosity %d: Enabled = %v, want %v", tt.verbosity, cfg.Enabled, tt.enabled)
		}
		if tt.enabled && cfg.Level != tt.level {
			t.Errorf("verbosity %d: Level = %v, want %v", tt.verbosity, cfg.Level, tt.level)
		}
	}
}

func TestInitFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(3, &buf)
	t.Cleanup(func() { SetGlobal(nil) })

	Info("hidden")
	Warn("shown", "content", "Foo")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message should be filtered at warning level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "content=Foo") {
		t.Errorf("warning message missing: %q", out)
	}
}

func TestCmdLog(t *testing.T) {
	var buf bytes.Buffer
	c := NewCmdLog(&buf)

	c.JobStart()
	c.Section("Downscaling")
	c.Command("HDRConvert", "-f", "a.cfg")
	c.JobEnd()

	want := "============== Job Start =================\n" +
		"::Downscaling\n" +
		"HDRConvert -f a.cfg\n" +
		"============== Job End ===================\n\n"
	if got := buf.String(); got != want {
		t.Errorf("command log = %q, want %q", got, want)
	}
}

func TestNilLogsAreSafe(t *testing.T) {
	var c *CmdLog
	c.Command("aomenc")
	c.Section("x")
	if err := c.Close(); err != nil {
		t.Errorf("nil Close() = %v", err)
	}

	var l *RunLog
	l.Info("x")
	if l.FilePath() != "" {
		t.Error("nil RunLog should have empty path")
	}
}

func TestSetupWritesFile(t *testing.T) {
	dir := t.TempDir()
	l, err := Setup(dir, 4)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	t.Cleanup(func() {
		_ = l.Close()
		SetGlobal(nil)
	})

	l.Info("encoding %s", "Foo")
	data, err := os.ReadFile(l.FilePath())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[INFO] encoding Foo") {
		t.Errorf("log file missing entry: %q", data)
	}
}

func TestSetupDisabled(t *testing.T) {
	l, err := Setup(t.TempDir(), 0)
	t.Cleanup(func() { SetGlobal(nil) })
	if err != nil || l != nil {
		t.Errorf("Setup(verbosity 0) = %v, %v; want nil, nil", l, err)
	}
}
