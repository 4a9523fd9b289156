package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", Format: "json", Out: &buf})
	l.With("source", "indice.shp").Warn("crs unresolved", "count", 3, "err", errors.New("boom"))
	l.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if rec["level"] != "warn" || rec["message"] != "crs unresolved" {
		t.Errorf("unexpected record %v", rec)
	}
	if rec["source"] != "indice.shp" || rec["count"] != float64(3) || rec["err"] != "boom" {
		t.Errorf("missing attributes in %v", rec)
	}
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Level: "debug", Out: &buf}).Debug("opening", "path", "a.fgb")
	out := buf.String()
	if !strings.Contains(out, "opening") || !strings.Contains(out, "path=a.fgb") {
		t.Errorf("unexpected text output %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("expected no colour on a buffer, got %q", out)
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "json", Out: &buf})
	ctx := WithComponent(WithRequestID(context.Background(), "abc"), "server")
	FromContext(ctx, base).Info("done")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatal(err)
	}
	if rec["request_id"] != "abc" || rec["component"] != "server" {
		t.Errorf("context attributes missing: %v", rec)
	}
	if RequestID(ctx) != "abc" {
		t.Errorf("RequestID = %q", RequestID(ctx))
	}
}

func TestWithRequestID_Generates(t *testing.T) {
	id := RequestID(WithRequestID(context.Background(), ""))
	if len(id) != 16 {
		t.Errorf("expected a 16 hex digit id, got %q", id)
	}
}

func TestInit(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "error", Format: "json", Out: &buf})
	t.Cleanup(func() { Init(Config{Level: "info"}) })

	Warn("ignored")
	Error("kept")
	if !strings.Contains(buf.String(), "kept") || strings.Contains(buf.String(), "ignored") {
		t.Errorf("unexpected global output %q", buf.String())
	}
}
