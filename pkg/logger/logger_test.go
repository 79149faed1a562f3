/*
Copyright © 2026 3 Leaps <info@3leaps.net>
*/
package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"testing"
	"time"
)

func newBufferLogger(cfg Config) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Logger{config: cfg, logger: log.New(&buf, "", 0)}, &buf
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{TraceLevel, "TRACE"},
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{Level(999), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("Level(%d).String() = %q, expected %q", tt.level, got, tt.expected)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		want  Level
		known bool
	}{
		{"trace", TraceLevel, true},
		{"DEBUG", DebugLevel, true},
		{"", InfoLevel, true},
		{"warning", WarnLevel, true},
		{" error ", ErrorLevel, true},
		{"loud", InfoLevel, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.name)
		if got != tt.want || ok != tt.known {
			t.Errorf("ParseLevel(%q) = (%v, %v), expected (%v, %v)", tt.name, got, ok, tt.want, tt.known)
		}
	}
}

func TestPrettyFormatting(t *testing.T) {
	l, _ := newBufferLogger(Config{Level: InfoLevel, Component: "pysbom"})
	entry := LogEntry{
		Time:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Level:     "INFO",
		Message:   "Resolved dependency graph",
		Component: "pysbom",
		Fields:    map[string]interface{}{"total": 3, "direct": 1, "package": "requests==2.31.0"},
	}

	got := l.formatPretty(entry, InfoLevel)
	want := "2026-03-01 12:00:00 [INFO] pysbom: Resolved dependency graph {direct=1, package=requests==2.31.0, total=3}"
	if got != want {
		t.Errorf("formatPretty() =\n%s\nexpected\n%s", got, want)
	}
}

func TestPrettyFormattingColorAndDryRun(t *testing.T) {
	l, _ := newBufferLogger(Config{Level: InfoLevel, UseColor: true, DryRun: true})
	got := l.formatPretty(LogEntry{Time: time.Now(), Level: "WARN", Message: "no uv.lock"}, WarnLevel)

	if !strings.Contains(got, "\033[33mWARN\033[0m") {
		t.Errorf("level not colored: %q", got)
	}
	if !strings.Contains(got, "\033[35m[DRY-RUN]\033[0m") {
		t.Errorf("dry-run marker missing: %q", got)
	}

	plain, _ := newBufferLogger(Config{Level: InfoLevel, DryRun: true})
	if got := plain.formatPretty(LogEntry{Time: time.Now(), Level: "INFO", Message: "x"}, InfoLevel); !strings.Contains(got, " [DRY-RUN] x") {
		t.Errorf("plain dry-run marker missing: %q", got)
	}
}

func TestJSONFormatting(t *testing.T) {
	l, buf := newBufferLogger(Config{Level: InfoLevel, JSON: true, Component: "pysbom"})
	l.Log(WarnLevel, "Dangling dependency reference", Package("ghost", "1.0"), Int("count", 2))

	var parsed LogEntry
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &parsed); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	if parsed.Level != "WARN" || parsed.Component != "pysbom" || parsed.Message != "Dangling dependency reference" {
		t.Errorf("unexpected entry: %+v", parsed)
	}
	if parsed.Fields["package"] != "ghost==1.0" {
		t.Errorf("package field = %v", parsed.Fields["package"])
	}
	// JSON numbers decode as float64.
	if parsed.Fields["count"] != float64(2) {
		t.Errorf("count field = %v", parsed.Fields["count"])
	}
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newBufferLogger(Config{Level: WarnLevel})
	l.Log(InfoLevel, "hidden")
	l.Log(DebugLevel, "hidden too")
	l.Log(ErrorLevel, "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("entries below threshold leaked: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("error entry missing: %q", out)
	}
}

func TestDebugEntriesCarryCaller(t *testing.T) {
	l, buf := newBufferLogger(Config{Level: DebugLevel})
	l.Log(DebugLevel, "resolving graph")
	if !strings.Contains(buf.String(), "logger_test.go:") {
		t.Errorf("caller location missing: %q", buf.String())
	}
}

func TestFieldConstructors(t *testing.T) {
	tests := []struct {
		field Field
		key   string
		value interface{}
	}{
		{String("stage", "licenses"), "stage", "licenses"},
		{Int("count", 42), "count", 42},
		{Float("score", 7.5), "score", 7.5},
		{Bool("dry_run", true), "dry_run", true},
		{Duration("elapsed", 1500*time.Millisecond), "elapsed", "1.5s"},
		{Package("requests", "2.31.0"), "package", "requests==2.31.0"},
		{Package("requests", ""), "package", "requests"},
		{Err(errors.New("boom")), "error", "boom"},
		{Err(nil), "error", "<nil>"},
	}
	for _, tt := range tests {
		if tt.field.Key != tt.key || tt.field.Value != tt.value {
			t.Errorf("field = %+v, expected {%s %v}", tt.field, tt.key, tt.value)
		}
	}
}

func TestDefaultLoggerAndSetOutput(t *testing.T) {
	original := defaultLogger
	defer func() { defaultLogger = original }()

	if err := Initialize(Config{Level: InfoLevel, Component: "pysbom"}); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}
	var buf bytes.Buffer
	SetOutput(&buf)

	Info("wrote sbom.json")
	Debug("not shown")
	Warn("unmatched exclusion pattern", String("pattern", "foo*"))

	out := buf.String()
	if !strings.Contains(out, "pysbom: wrote sbom.json") {
		t.Errorf("info entry missing: %q", out)
	}
	if strings.Contains(out, "not shown") {
		t.Errorf("debug entry leaked: %q", out)
	}
	if !strings.Contains(out, "{pattern=foo*}") {
		t.Errorf("warn fields missing: %q", out)
	}
}

func TestUninitializedLoggerDoesNotPanic(t *testing.T) {
	original := defaultLogger
	defaultLogger = nil
	defer func() { defaultLogger = original }()

	Trace("dropped")
	Info("fallback")
	SetOutput(&bytes.Buffer{})
}

func TestShouldUseColorNonTerminal(t *testing.T) {
	if ShouldUseColor(&bytes.Buffer{}) {
		t.Error("a buffer is never a terminal")
	}
	t.Setenv("NO_COLOR", "1")
	if ShouldUseColor(os.Stderr) {
		t.Error("NO_COLOR must disable color")
	}
}
