package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestInitDisabled(t *testing.T) {
	shutdown, err := Init(context.Background(), DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer ShutdownWithTimeout(context.Background(), shutdown, testLogger())

	_, span := otel.Tracer("test").Start(context.Background(), "noop-span")
	if span.SpanContext().IsValid() {
		t.Error("disabled tracing should produce invalid (noop) span contexts")
	}
	span.End()
}

func TestInitStdoutExporter(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Writer = &buf

	shutdown, err := Init(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	_, span := otel.Tracer("test").Start(context.Background(), "passes.FindPasses")
	if !span.SpanContext().IsValid() {
		t.Error("expected a sampled span context")
	}
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if !strings.Contains(buf.String(), "passes.FindPasses") {
		t.Errorf("exported spans do not mention the span name:\n%s", buf.String())
	}

	// Leave the global provider in a neutral state for other tests.
	if _, err := Init(context.Background(), DefaultConfig(), testLogger()); err != nil {
		t.Fatalf("reset: %v", err)
	}
}

func TestInitRejectsBadRatio(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.SampleRatio = 2
	if _, err := Init(context.Background(), cfg, testLogger()); err == nil {
		t.Fatal("expected error for sample ratio > 1")
	}
}

func TestShutdownWithTimeoutNil(t *testing.T) {
	ShutdownWithTimeout(context.Background(), nil, nil)
}
