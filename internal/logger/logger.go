// Package logger is the process-wide structured logger. Every call takes a
// context so trace and span ids follow the request into the log line.
package logger

import (
	"context"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"fingreat/internal/trace"
)

// A no-op until Init runs, so packages can log from tests without setup.
var sugar = zap.NewNop().Sugar()

type Config struct {
	Level    string // DEBUG, INFO, WARN, ERROR
	Format   string // json or console
	Detailed bool   // debug level plus caller and stack traces
	Output   string // stderr, stdout or a file path
}

func ConfigFromEnv() Config {
	c := Config{
		Level:    os.Getenv("LOG_LEVEL"),
		Format:   os.Getenv("LOG_FORMAT"),
		Detailed: os.Getenv("LOG_DETAILED") == "true",
		Output:   os.Getenv("LOG_OUTPUT"),
	}
	if c.Format == "" {
		c.Format = "json"
	}
	if c.Output == "" {
		c.Output = "stderr"
	}
	return c
}

func Init() error {
	return InitWithConfig(ConfigFromEnv())
}

func InitWithConfig(c Config) error {
	zcfg := zap.NewProductionConfig()
	if c.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	level := parseLevel(c.Level)
	if c.Detailed {
		level = zapcore.DebugLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig.TimeKey = "time"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.DisableCaller = !c.Detailed
	zcfg.DisableStacktrace = !c.Detailed
	zcfg.OutputPaths = []string{c.Output}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	// zap -> emit -> Info/Warn/... -> caller
	l, err := zcfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		return err
	}
	use(l)
	return nil
}

func use(l *zap.Logger) {
	sugar = l.Sugar()
}

func Sync() {
	_ = sugar.Sync()
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARN":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func Debug(ctx context.Context, msg string, kv ...any) {
	emit(ctx, sugar, zapcore.DebugLevel, msg, kv)
}

func Info(ctx context.Context, msg string, kv ...any) {
	emit(ctx, sugar, zapcore.InfoLevel, msg, kv)
}

func Warn(ctx context.Context, msg string, kv ...any) {
	emit(ctx, sugar, zapcore.WarnLevel, msg, kv)
}

func Error(ctx context.Context, msg string, kv ...any) {
	emit(ctx, sugar, zapcore.ErrorLevel, msg, kv)
}

// ErrorWithErr also marks the active span as failed.
func ErrorWithErr(ctx context.Context, msg string, err error, kv ...any) {
	trace.RecordError(ctx, err)
	emit(ctx, sugar, zapcore.ErrorLevel, msg, append([]any{"error", err}, kv...))
}

// The *Skip variants attribute the line to a caller further up the stack;
// observability wrappers use them so the log points at the real call site.

func DebugSkip(ctx context.Context, skip int, msg string, kv ...any) {
	emit(ctx, skipped(skip), zapcore.DebugLevel, msg, kv)
}

func InfoSkip(ctx context.Context, skip int, msg string, kv ...any) {
	emit(ctx, skipped(skip), zapcore.InfoLevel, msg, kv)
}

func WarnSkip(ctx context.Context, skip int, msg string, kv ...any) {
	emit(ctx, skipped(skip), zapcore.WarnLevel, msg, kv)
}

func ErrorWithErrSkip(ctx context.Context, skip int, msg string, err error, kv ...any) {
	trace.RecordError(ctx, err)
	emit(ctx, skipped(skip), zapcore.ErrorLevel, msg, append([]any{"error", err}, kv...))
}

func skipped(skip int) *zap.SugaredLogger {
	if skip <= 0 {
		return sugar
	}
	return sugar.WithOptions(zap.AddCallerSkip(skip))
}

func emit(ctx context.Context, l *zap.SugaredLogger, level zapcore.Level, msg string, kv []any) {
	if !l.Desugar().Core().Enabled(level) {
		return
	}
	if traceID, spanID, ok := trace.GetTraceFields(ctx); ok {
		kv = append([]any{"trace_id", traceID, "span_id", spanID}, kv...)
	}
	l.Logw(level, msg, kv...)
}

// OperationTimer pairs a span with start/finish log lines and a duration.
type OperationTimer struct {
	ctx    context.Context
	span   oteltrace.Span
	start  time.Time
	fields []any
}

func StartOperation(ctx context.Context, operation string, kv ...any) *OperationTimer {
	ctx, span := trace.StartSpan(ctx, operation, attributes(kv)...)
	fields := append([]any{"operation", operation}, kv...)
	Debug(ctx, "Operation started", fields...)
	return &OperationTimer{ctx: ctx, span: span, start: time.Now(), fields: fields}
}

func (ot *OperationTimer) finish(kv []any) []any {
	ms := time.Since(ot.start).Milliseconds()
	ot.span.SetAttributes(attribute.Int64("duration_ms", ms))
	ot.span.SetAttributes(attributes(kv)...)
	return append(append(append([]any{}, ot.fields...), "duration_ms", ms), kv...)
}

func (ot *OperationTimer) End(kv ...any) {
	fields := ot.finish(kv)
	ot.span.SetStatus(codes.Ok, "")
	ot.span.End()
	Debug(ot.ctx, "Operation completed", fields...)
}

func (ot *OperationTimer) EndWithError(err error, kv ...any) {
	fields := ot.finish(append(kv, "error", err.Error()))
	trace.Fail(ot.span, err)
	ot.span.End()
	Error(ot.ctx, "Operation failed", fields...)
}

func attributes(kv []any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		switch v := kv[i+1].(type) {
		case string:
			attrs = append(attrs, attribute.String(key, v))
		case int:
			attrs = append(attrs, attribute.Int(key, v))
		case int64:
			attrs = append(attrs, attribute.Int64(key, v))
		case float64:
			attrs = append(attrs, attribute.Float64(key, v))
		case bool:
			attrs = append(attrs, attribute.Bool(key, v))
		}
	}
	return attrs
}

// event adds a span event and logs the same fields at info.
func event(ctx context.Context, name, msg string, kv []any) {
	if span := oteltrace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		span.AddEvent(name, oteltrace.WithAttributes(attributes(kv)...))
	}
	emit(ctx, sugar, zapcore.InfoLevel, msg, kv)
}

// Trade records a placed order.
func Trade(ctx context.Context, symbol, side string, qty int, price, orderID string, kv ...any) {
	event(ctx, "order_placed", "Order placed", append([]any{
		"type", "TRADE",
		"symbol", symbol,
		"side", side,
		"quantity", qty,
		"price", price,
		"order_id", orderID,
	}, kv...))
}

// Agent records a routing decision, tool call or data load by one of the agents.
func Agent(ctx context.Context, agent, name string, kv ...any) {
	event(ctx, "agent_event", "Agent event", append([]any{
		"type", "AGENT",
		"agent", agent,
		"event", name,
	}, kv...))
}
