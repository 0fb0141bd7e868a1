package observability

import (
	"bytes"
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInitOTel_Disabled(t *testing.T) {
	logger := NewLogger(InfoLevel, &bytes.Buffer{})

	providers, err := InitOTel(context.Background(), OTelConfig{Enabled: false}, logger)
	if err != nil {
		t.Fatalf("InitOTel() error = %v", err)
	}
	if providers != nil {
		t.Error("expected nil providers when disabled")
	}
}

func TestShutdownOTel_NilProviders(t *testing.T) {
	logger := NewLogger(InfoLevel, &bytes.Buffer{})

	if err := ShutdownOTel(context.Background(), nil, logger); err != nil {
		t.Errorf("ShutdownOTel(nil) error = %v", err)
	}
}

func TestShutdownOTel_TracerProvider(t *testing.T) {
	logger := NewLogger(InfoLevel, &bytes.Buffer{})
	providers := &OTelProviders{
		TracerProvider: sdktrace.NewTracerProvider(),
	}

	if err := ShutdownOTel(context.Background(), providers, logger); err != nil {
		t.Errorf("ShutdownOTel() error = %v", err)
	}
}

func TestUpdateLoggerWithTraceContext(t *testing.T) {
	t.Run("no active span returns logger unchanged", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(InfoLevel, &buf)

		got := UpdateLoggerWithTraceContext(context.Background(), logger)
		if got != logger {
			t.Error("expected the same logger when no span is recording")
		}
	})

	t.Run("recording span adds trace fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(InfoLevel, &buf)

		tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
		defer tp.Shutdown(context.Background())
		otel.SetTracerProvider(tp)

		ctx, span := tp.Tracer("test").Start(context.Background(), "operation")
		defer span.End()

		got := UpdateLoggerWithTraceContext(ctx, logger)
		if got == logger {
			t.Fatal("expected an annotated logger for a recording span")
		}

		got.Info("traced message")
		if !bytes.Contains(buf.Bytes(), []byte("trace_id")) {
			t.Error("expected trace_id field in log output")
		}
		if !bytes.Contains(buf.Bytes(), []byte("span_id")) {
			t.Error("expected span_id field in log output")
		}
	})
}
