package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestSetupFormats(t *testing.T) {
	cases := []struct {
		format string
		probe  string
	}{
		{"json", `"msg":"hello"`},
		{"text", `msg=hello`},
		{"pretty", "hello"},
	}
	for _, tc := range cases {
		t.Run(tc.format, func(t *testing.T) {
			var buf bytes.Buffer
			log := Setup(&buf, "info", tc.format)
			log.Info("hello", "k", "v")
			if !strings.Contains(buf.String(), tc.probe) {
				t.Fatalf("output %q missing %q", buf.String(), tc.probe)
			}
		})
	}
}

func TestSetupLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := Setup(&buf, "warn", "text")
	log.Info("quiet")
	log.Warn("loud")
	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Fatalf("info leaked through warn level: %q", out)
	}
	if !strings.Contains(out, "loud") {
		t.Fatalf("warn suppressed: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":    slog.LevelDebug,
		"info":     slog.LevelInfo,
		"warn":     slog.LevelWarn,
		"warning":  slog.LevelWarn,
		"error":    slog.LevelError,
		"nonsense": slog.LevelInfo,
		"":         slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWithAddsAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := Setup(&buf, "info", "text").With("session", "abc")
	log.Info("event")
	if !strings.Contains(buf.String(), "session=abc") {
		t.Fatalf("attribute missing: %q", buf.String())
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	log := Setup(&buf, "info", "text")
	ctx := WithContext(context.Background(), log)
	FromContext(ctx).Info("via context")
	if !strings.Contains(buf.String(), "via context") {
		t.Fatalf("context logger not used: %q", buf.String())
	}
}

func TestPrettyHandlerAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	log := New(h).With("a", 1)
	log.Debug("dbg", "b", 2)
	out := buf.String()
	for _, probe := range []string{"dbg", "a=1", "b=2"} {
		if !strings.Contains(out, probe) {
			t.Fatalf("output %q missing %q", out, probe)
		}
	}
}
