// Package trace owns the process-wide OpenTelemetry tracer. Spans are
// exported as JSON lines, to stdout or to TRACE_OUTPUT when set, so the
// interactive chat REPL is not interleaved with span dumps.
package trace

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "fingreat"

// Settings are read from the environment by Init.
type Settings struct {
	Enabled     bool    // LOG_TRACING_ENABLED
	SampleRatio float64 // TRACE_SAMPLE_RATIO, 0..1
	Output      string  // TRACE_OUTPUT file path; stdout when empty
	Version     string  // FINGREAT_VERSION
}

var (
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	output   io.Closer
	enabled  bool
)

func SettingsFromEnv() Settings {
	s := Settings{
		Enabled:     os.Getenv("LOG_TRACING_ENABLED") == "true",
		SampleRatio: 1,
		Output:      os.Getenv("TRACE_OUTPUT"),
		Version:     os.Getenv("FINGREAT_VERSION"),
	}
	if v, err := strconv.ParseFloat(os.Getenv("TRACE_SAMPLE_RATIO"), 64); err == nil && v >= 0 && v <= 1 {
		s.SampleRatio = v
	}
	if s.Version == "" {
		s.Version = "dev"
	}
	return s
}

func Init() error {
	return Setup(SettingsFromEnv())
}

// Setup installs a tracer provider for s. Disabled settings leave spans as no-ops.
func Setup(s Settings) error {
	enabled = false
	if !s.Enabled {
		return nil
	}

	var w io.Writer = os.Stdout
	if s.Output != "" {
		f, err := os.OpenFile(s.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open trace output: %w", err)
		}
		w, output = f, f
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return err
	}
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(s.Version),
		),
	)
	if err != nil {
		return err
	}

	provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(s.SampleRatio))),
	)
	otel.SetTracerProvider(provider)
	tracer = provider.Tracer(serviceName)
	enabled = true
	return nil
}

// Shutdown flushes pending spans and closes the output file.
func Shutdown(ctx context.Context) error {
	var err error
	if provider != nil {
		err = provider.Shutdown(ctx)
		provider = nil
	}
	if output != nil {
		_ = output.Close()
		output = nil
	}
	enabled = false
	return err
}

func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if !enabled || tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func Enabled() bool {
	return enabled
}

// RecordError marks the span in ctx as failed.
func RecordError(ctx context.Context, err error) {
	if err == nil || !enabled {
		return
	}
	Fail(trace.SpanFromContext(ctx), err)
}

func Fail(span trace.Span, err error) {
	if !span.SpanContext().IsValid() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func GetTraceFields(ctx context.Context) (traceID, spanID string, ok bool) {
	if !enabled {
		return "", "", false
	}
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return "", "", false
	}
	return sc.TraceID().String(), sc.SpanID().String(), true
}
