package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"taskmanager/internal/config"
)

func TestNewWithWriter_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(config.Log{Level: "debug", Format: "json"}, "taskmanager", &buf)
	if err != nil {
		t.Fatalf("NewWithWriter: %v", err)
	}

	l.WithField("task_id", 7).Debug("task created")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if entry["message"] != "task created" {
		t.Errorf("message=%v", entry["message"])
	}
	if entry["service"] != "taskmanager" {
		t.Errorf("service=%v", entry["service"])
	}
	if entry["level"] != "debug" {
		t.Errorf("level=%v", entry["level"])
	}
	if _, ok := entry["ts"]; !ok {
		t.Errorf("missing ts field: %v", entry)
	}
}

func TestNewWithWriter_RejectsUnknownLevel(t *testing.T) {
	if _, err := NewWithWriter(config.Log{Level: "loud"}, "", &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
