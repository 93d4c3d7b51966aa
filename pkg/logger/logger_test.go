package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		" info ":  zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestGet_PanicsBeforeInit(t *testing.T) {
	Reset()
	defer Reset()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected Get to panic before Init")
		}
	}()
	Get()
}

func TestInit_WritesJSONAndIsSingleton(t *testing.T) {
	Reset()
	defer Reset()

	var buf bytes.Buffer
	log := Init(Options{Level: "warn", Output: &buf})
	// Later calls keep the first configuration.
	Init(Options{Level: "trace"})

	log.Info().Msg("dropped")
	got := Get()
	got.Warn().Str("console_id", "c1").Msg("kept")

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("expected exactly one JSON line, got %q: %v", buf.String(), err)
	}
	if line["message"] != "kept" || line["console_id"] != "c1" || line["level"] != "warn" {
		t.Fatalf("unexpected log line %v", line)
	}
	if line["service"] != "partner-console" {
		t.Fatalf("expected default service name, got %v", line["service"])
	}
}

func TestComponent_TagsLines(t *testing.T) {
	Reset()
	defer Reset()

	var buf bytes.Buffer
	Init(Options{Service: "console-test", Output: &buf})
	comp := Component("registry")
	comp.Info().Msg("evicted")

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	if line["component"] != "registry" || line["service"] != "console-test" {
		t.Fatalf("unexpected log line %v", line)
	}
}
