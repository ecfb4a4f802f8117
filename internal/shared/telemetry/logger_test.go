package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestInfoWritesFlatJSON(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stdout) })

	Info("pipeline.job.submitted", map[string]any{
		"run_id":         "run-1",
		"invocation_arn": "arn:aws:bedrock:us-east-1:123:data-automation-invocation/abc",
	})

	var payload map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &payload); err != nil {
		t.Fatalf("decode log json: %v", err)
	}
	if payload["level"] != "info" {
		t.Fatalf("unexpected level: %v", payload["level"])
	}
	if payload["msg"] != "pipeline.job.submitted" {
		t.Fatalf("unexpected msg: %v", payload["msg"])
	}
	if payload["run_id"] != "run-1" {
		t.Fatalf("unexpected run_id: %v", payload["run_id"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("missing ts field")
	}
}

func TestErrorStringifiesErrors(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stdout) })

	Error("worker.run.failed", map[string]any{"error": errors.New("boom")})
	Warn("worker.run.slow", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("decode log json: %v", err)
	}
	if first["error"] != "boom" || first["level"] != "error" {
		t.Fatalf("unexpected payload: %v", first)
	}
	var second map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("decode log json: %v", err)
	}
	if second["level"] != "warn" {
		t.Fatalf("unexpected level: %v", second["level"])
	}
}
