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
		Level: slog.LevelDebug, // so Debug lines are captured too
	})
	l := slog.New(h)
	return NewSlogLogger(l), &buf
}

func TestSlogLogger_Levels_WriteExpectedOutput(t *testing.T) {
	log, buf := newTestLogger(t)
	ctx := context.Background()

	log.Debug(ctx, "probing storage", "object", "templates/ev1/a.pptx")
	log.Info(ctx, "template stored", "tier", "blob")
	log.Warn(ctx, "blob storage unavailable", "attempt", 2)
	log.Error(ctx, "render failed", "code", "CERT-AAAA2222")

	out := buf.String()

	tests := []struct {
		level string
		msg   string
		key   string
		val   string
	}{
		{"DEBUG", "probing storage", "object", "templates/ev1/a.pptx"},
		{"INFO", "template stored", "tier", "blob"},
		{"WARN", "blob storage unavailable", "attempt", "2"},
		{"ERROR", "render failed", "code", "CERT-AAAA2222"},
	}

	for _, tc := range tests {
		if !strings.Contains(out, "level="+tc.level) {
			t.Fatalf("expected line with level=%s in output:\n%s", tc.level, out)
		}
		if !strings.Contains(out, "msg="+strconvQuoteIfNeeded(tc.msg)) {
			t.Fatalf("expected line with msg=%q in output:\n%s", tc.msg, out)
		}
		if !strings.Contains(out, tc.key+"="+tc.val) {
			t.Fatalf("expected attribute %s=%s in output:\n%s", tc.key, tc.val, out)
		}
	}
}

// The text handler quotes values containing spaces.
func strconvQuoteIfNeeded(s string) string {
	if strings.ContainsAny(s, " \t") {
		return `"` + s + `"`
	}
	return s
}

func TestSlogLogger_With_AddsAttributes(t *testing.T) {
	log, buf := newTestLogger(t)
	ctx := context.Background()

	log2 := log.With("template_id", "tpl-1", "event_id", "ev1")
	log2.Info(ctx, "mapping", "field", "participant_name")

	out := buf.String()
	wantSubs := []string{
		"level=INFO",
		"msg=mapping",
		"template_id=tpl-1",
		"event_id=ev1",
		"field=participant_name",
	}
	for _, s := range wantSubs {
		if !strings.Contains(out, s) {
			t.Fatalf("expected %q in output, got:\n%s", s, out)
		}
	}
}

func TestNewJSONLogger_EmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLogger(&buf)

	log.Info(context.Background(), "certificate issued", "code", "CERT-BBBB3333")

	out := buf.String()
	for _, s := range []string{`"level":"INFO"`, `"msg":"certificate issued"`, `"code":"CERT-BBBB3333"`} {
		if !strings.Contains(out, s) {
			t.Fatalf("expected %q in JSON output, got:\n%s", s, out)
		}
	}
}

func TestNewTextLogger_EmitsKeyValues(t *testing.T) {
	var buf bytes.Buffer
	log := NewTextLogger(&buf)

	log.Warn(context.Background(), "falling_back", "tier", "local")

	out := buf.String()
	for _, s := range []string{"level=WARN", "msg=falling_back", "tier=local"} {
		if !strings.Contains(out, s) {
			t.Fatalf("expected %q in text output, got:\n%s", s, out)
		}
	}
}

func TestSlogLogger_ContextDoesNotPanic(t *testing.T) {
	log, _ := newTestLogger(t)

	ctx := context.TODO()
	log.Info(ctx, "ctx-ok")
	log.Debug(ctx, "ctx-ok")
	log.Warn(ctx, "ctx-ok")
	log.Error(ctx, "ctx-ok")
}
