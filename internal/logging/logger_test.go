package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestLogger_FieldsRendered(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, zerolog.InfoLevel)

	logger.Info("flush complete", "device_id", "emon01", "documents", 3)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse log output: %v", err)
	}

	if entry["message"] != "flush complete" {
		t.Errorf("Expected message, got %v", entry["message"])
	}
	if entry["device_id"] != "emon01" {
		t.Errorf("Expected device_id field, got %v", entry["device_id"])
	}
	if entry["documents"] != float64(3) {
		t.Errorf("Expected documents field, got %v", entry["documents"])
	}
}

func TestLogger_ErrorFieldAsString(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, zerolog.InfoLevel)

	logger.Error("persist failed", "error", errTest{})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse log output: %v", err)
	}
	if entry["error"] != "test failure" {
		t.Errorf("Expected error rendered as message, got %v", entry["error"])
	}
}

type errTest struct{}

func (errTest) Error() string { return "test failure" }

func TestLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, zerolog.WarnLevel)

	logger.Info("suppressed")
	if buf.Len() != 0 {
		t.Error("Expected info to be suppressed at warn level")
	}

	logger.Warn("emitted")
	if buf.Len() == 0 {
		t.Error("Expected warn to be emitted")
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, zerolog.InfoLevel).With("device_id", "emon02")

	logger.Info("buffered")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse log output: %v", err)
	}
	if entry["device_id"] != "emon02" {
		t.Errorf("Expected inherited field, got %v", entry["device_id"])
	}
}

func TestFromContext_Fallback(t *testing.T) {
	if FromContext(context.Background()) != global {
		t.Error("Expected global logger fallback")
	}

	var buf bytes.Buffer
	logger := NewWithWriter(&buf, zerolog.InfoLevel)
	ctx := WithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Error("Expected context logger")
	}
}

func TestContextFields(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithDeviceID(ctx, "emon01")

	fields := contextFields(ctx)
	if len(fields) != 4 {
		t.Fatalf("Expected 4 field elements, got %d", len(fields))
	}
}
