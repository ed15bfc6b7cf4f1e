package infra

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewLoggerWritesJSONInProduction(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("production", &buf)
	logger.Debug().Msg("hidden")
	logger.Info().Str("event", "profile.get.failed").Msg("boom")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %q (%v)", buf.String(), err)
	}
	if entry["service"] != "inksynth-api" || entry["event"] != "profile.get.failed" {
		t.Fatalf("unexpected entry: %#v", entry)
	}
}

func TestNewLoggerSilentUnderTest(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("test", &buf)
	logger.Error().Msg("nothing")
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}
