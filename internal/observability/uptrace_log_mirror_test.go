package observability

import (
	"errors"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
)

func TestIsHealthCheckLog(t *testing.T) {
	if !isHealthCheckLog("http_request", []any{"http_method", "GET", "http_path", "/healthz"}) {
		t.Fatalf("expected health check log to be skipped")
	}
	if isHealthCheckLog("http_request", []any{"http_path", "/v1/fixtures"}) {
		t.Fatalf("did not expect fixture request log to be skipped")
	}
	if isHealthCheckLog("sync pass completed", []any{"http_path", "/healthz"}) {
		t.Fatalf("did not expect non-request event to be skipped")
	}
}

func TestBuildOTelLogAttributes_MapsKnownKeys(t *testing.T) {
	attrs := buildOTelLogAttributes([]any{
		"run_id", "20250908T060000Z-9f2c41ab",
		"http_status", 200,
		"error", errors.New("gotsport status=502"),
		"changes", 2,
		"payload",
	})
	if len(attrs) != 5 {
		t.Fatalf("expected 5 attributes, got %d", len(attrs))
	}

	want := []string{"mercury.sync.run_id", "http.response.status_code", "exception.message", "changes", "payload"}
	for i, key := range want {
		if attrs[i].Key != key {
			t.Fatalf("attribute %d: expected key %q, got %q", i, key, attrs[i].Key)
		}
	}
	if attrs[2].Value.AsString() != "gotsport status=502" {
		t.Fatalf("unexpected exception message: %q", attrs[2].Value.AsString())
	}
	if attrs[3].Value.AsInt64() != 2 {
		t.Fatalf("unexpected changes attribute")
	}
	if attrs[4].Value.Kind() != otellog.KindEmpty {
		t.Fatalf("expected trailing key without value to be empty")
	}
}

func TestToOTelLogValue_AmbiguityFields(t *testing.T) {
	ids := toOTelLogValue([]string{"g1", "g2"}, 0)
	if ids.Kind() != otellog.KindSlice || len(ids.AsSlice()) != 2 || ids.AsSlice()[1].AsString() != "g2" {
		t.Fatalf("unexpected fixture ids value: %v", ids)
	}

	duration := toOTelLogValue(1500*time.Millisecond, 0)
	if duration.Kind() != otellog.KindFloat64 || duration.AsFloat64() != 1500 {
		t.Fatalf("expected duration in milliseconds, got %v", duration)
	}

	record := toOTelLogValue(map[string]any{"won": 3, "lost": 0, "draw": 1}, 0)
	if record.Kind() != otellog.KindMap || len(record.AsMap()) != 3 || record.AsMap()[0].Key != "draw" {
		t.Fatalf("unexpected map value: %v", record)
	}
}
