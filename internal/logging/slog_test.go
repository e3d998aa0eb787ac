package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(t *testing.T) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	return NewSlogLogger(slog.New(h)), &buf
}

func TestSlogLogger_Levels(t *testing.T) {
	log, buf := newTestLogger(t)
	ctx := context.Background()

	log.Debug(ctx, "sweep tick", "removed", 0)
	log.Info(ctx, "server started", "addr", ":8080")
	log.Warn(ctx, "replacement audit failed", "userID", 42)
	log.Error(ctx, "db down", "error", "timeout")

	out := buf.String()

	tests := []struct {
		level string
		msg   string
		attr  string
	}{
		{"DEBUG", "sweep tick", "removed=0"},
		{"INFO", "server started", "addr=:8080"},
		{"WARN", "replacement audit failed", "userID=42"},
		{"ERROR", "db down", "error=timeout"},
	}

	for _, tc := range tests {
		if !strings.Contains(out, "level="+tc.level) {
			t.Fatalf("expected line with level=%s in output:\n%s", tc.level, out)
		}
		if !strings.Contains(out, `msg="`+tc.msg+`"`) {
			t.Fatalf("expected line with msg=%q in output:\n%s", tc.msg, out)
		}
		if !strings.Contains(out, tc.attr) {
			t.Fatalf("expected attribute %s in output:\n%s", tc.attr, out)
		}
	}
}

func TestSlogLogger_With_AddsAttributes(t *testing.T) {
	log, buf := newTestLogger(t)

	child := log.With("module", "blacklist")
	child.Info(context.Background(), "sweep completed", "removed", 3)

	out := buf.String()
	for _, s := range []string{"level=INFO", `msg="sweep completed"`, "module=blacklist", "removed=3"} {
		if !strings.Contains(out, s) {
			t.Fatalf("expected %q in output, got:\n%s", s, out)
		}
	}
}
