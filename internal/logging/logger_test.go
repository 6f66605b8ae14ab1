package logging

import (
	"bytes"
	"testing"

	"github.com/gortps/rtps/internal/wire"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{name: "default config", config: nil},
		{name: "explicit config", config: &Config{Level: LevelDebug, Output: &bytes.Buffer{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(tt.config)
			if logger == nil {
				t.Error("NewLogger() returned nil")
			}
		})
	}
}

func TestLoggerWithGUIDField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelDebug, Output: &buf})

	writerGUID := wire.GUID{Prefix: wire.GuidPrefix{1}, Entity: wire.EntityIdSpdpBuiltinParticipantWriter}
	writerLogger := logger.With(GUIDField("writer", writerGUID))
	writerLogger.Info("pushed change")

	output := buf.String()
	if !containsAll(output, "writer="+writerGUID.String(), "pushed change") {
		t.Errorf("expected writer GUID and message in output, got: %s", output)
	}
}

func TestLoggerWithChainsContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelDebug, Output: &buf})

	readerGUID := wire.GUID{Prefix: wire.GuidPrefix{2}, Entity: wire.EntityIdSpdpBuiltinParticipantReader}
	chained := logger.With(GUIDField("reader", readerGUID)).With(SubmessageKindField(wire.KindHeartbeat))
	chained.Debug("received heartbeat")

	output := buf.String()
	if !containsAll(output, "reader="+readerGUID.String(), "submessage="+wire.KindHeartbeat.String()) {
		t.Errorf("expected both reader and submessage fields in output, got: %s", output)
	}

	// The original logger must be untouched by the derived one's context.
	buf.Reset()
	logger.Info("plain message")
	output = buf.String()
	if containsAll(output, "reader=") {
		t.Errorf("expected base logger to carry no context, got: %s", output)
	}
}

func TestGlobalLoggerFunctions(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(NewLogger(&Config{Level: LevelDebug, Output: &buf}))

	Debug("debug message", "key", "value")
	output := buf.String()
	if !containsAll(output, "debug message", "key=value") {
		t.Errorf("expected debug message, got: %s", output)
	}

	buf.Reset()
	Info("info message")
	if !containsAll(buf.String(), "info message") {
		t.Errorf("expected info message, got: %s", buf.String())
	}

	buf.Reset()
	Warn("warning message")
	if !containsAll(buf.String(), "warning message") {
		t.Errorf("expected warning message, got: %s", buf.String())
	}

	buf.Reset()
	Error("error message")
	if !containsAll(buf.String(), "error message") {
		t.Errorf("expected error message, got: %s", buf.String())
	}
}

func containsAll(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if !bytes.Contains([]byte(s), []byte(sub)) {
			return false
		}
	}
	return true
}
