package tracer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"shellmate/internal/infra/config"
)

func TestSetupInstallsNoop(t *testing.T) {
	for _, cfg := range []config.TracerConfig{
		{Enabled: false, Exporter: "stdout"},
		{Enabled: true, Exporter: "noop"},
		{Enabled: true, Exporter: ""},
	} {
		shutdown, err := Setup(context.Background(), cfg)
		if err != nil {
			t.Fatalf("Setup(%+v): %v", cfg, err)
		}
		if _, ok := otel.GetTracerProvider().(noop.TracerProvider); !ok {
			t.Errorf("Setup(%+v) installed %T, want noop", cfg, otel.GetTracerProvider())
		}
		if err := shutdown(context.Background()); err != nil {
			t.Errorf("shutdown: %v", err)
		}
	}
}

func TestSetupStdout(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TracerConfig{Enabled: true, Exporter: "stdout"})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer shutdown(context.Background())

	if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
		t.Errorf("provider = %T", otel.GetTracerProvider())
	}
}

func TestSetupFileExportsSpans(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces", "spans.json")
	shutdown, err := Setup(context.Background(), config.TracerConfig{Enabled: true, Exporter: "file", File: path})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	_, span := StartSpan(context.Background(), "shell.execute")
	span.SetAttributes(IntAttr("shell.exit_code", 0))
	SetResult(span, nil)
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	otel.SetTracerProvider(noop.NewTracerProvider())

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	for _, want := range []string{`"Name": "shell.execute"`, "shell.exit_code", ServiceName} {
		if !strings.Contains(string(data), want) {
			t.Errorf("span output missing %q", want)
		}
	}
}

func TestSetupFileWithoutPath(t *testing.T) {
	if _, err := Setup(context.Background(), config.TracerConfig{Enabled: true, Exporter: "file"}); err == nil {
		t.Error("expected error for file exporter without a path")
	}
}

func TestSetupUnsupportedExporter(t *testing.T) {
	if _, err := Setup(context.Background(), config.TracerConfig{Enabled: true, Exporter: "jaeger"}); err == nil {
		t.Error("expected error for unsupported exporter")
	}
}

func TestSetResultDoesNotPanicOnNoop(t *testing.T) {
	otel.SetTracerProvider(noop.NewTracerProvider())

	_, span := StartSpan(context.Background(), "llm.generate")
	SetResult(span, errors.New("upstream 502"))
	SetResult(span, nil)
	span.End()
}

func TestAttrHelpers(t *testing.T) {
	if kv := StringAttr("request_id", "01ABC"); string(kv.Key) != "request_id" || kv.Value.AsString() != "01ABC" {
		t.Errorf("StringAttr = %v", kv)
	}
	if kv := IntAttr("shell.exit_code", 127); kv.Value.AsInt64() != 127 {
		t.Errorf("IntAttr = %v", kv)
	}
	if kv := BoolAttr("shell.launched", true); !kv.Value.AsBool() {
		t.Errorf("BoolAttr = %v", kv)
	}
	if kv := DurationAttr("shell.duration_ms", 1500*time.Millisecond); kv.Value.AsInt64() != 1500 {
		t.Errorf("DurationAttr = %v", kv)
	}
}
