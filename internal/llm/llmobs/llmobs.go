package llmobs

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"fingreat/internal/breaker"
	"fingreat/internal/interfaces"
	"fingreat/internal/logger"
	"fingreat/internal/metrics"
	"fingreat/internal/trace"
	"fingreat/internal/types"
)

// observableCompleter wraps a Completer with tracing, logs, metrics and an optional breaker
type observableCompleter struct {
	completer interfaces.Completer
	cb        *gobreaker.CircuitBreaker
}

var _ interfaces.Completer = (*observableCompleter)(nil)

// Wrap wraps a completer with observability middleware. cb may be nil.
func Wrap(c interfaces.Completer, cb *gobreaker.CircuitBreaker) interfaces.Completer {
	return &observableCompleter{completer: c, cb: cb}
}

func (oc *observableCompleter) Complete(ctx context.Context, req types.CompletionRequest) (string, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Complete")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Requesting completion",
		"system_len", len(req.System),
		"prompt_len", len(req.Prompt),
	)

	start := time.Now()
	out, err := breaker.Do(oc.cb, func() (string, error) {
		return oc.completer.Complete(ctx, req)
	})
	metrics.LLMLatency.WithLabelValues("complete").Observe(time.Since(start).Seconds())
	metrics.LLMRequests.WithLabelValues("complete", metrics.Result(err)).Inc()

	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Completion failed", err, "duration_ms", time.Since(start).Milliseconds())
		return "", err
	}

	logger.DebugSkip(ctx, 1, "Completion received",
		"reply_len", len(out),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

type observableEmbedder struct {
	embedder interfaces.Embedder
	cb       *gobreaker.CircuitBreaker
}

var _ interfaces.Embedder = (*observableEmbedder)(nil)

// WrapEmbedder shares the completion breaker: both hit the same provider.
func WrapEmbedder(e interfaces.Embedder, cb *gobreaker.CircuitBreaker) interfaces.Embedder {
	return &observableEmbedder{embedder: e, cb: cb}
}

func (oe *observableEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Embed")
	defer span.End()

	start := time.Now()
	vec, err := breaker.Do(oe.cb, func() ([]float32, error) {
		return oe.embedder.Embed(ctx, text)
	})
	metrics.LLMLatency.WithLabelValues("embed").Observe(time.Since(start).Seconds())
	metrics.LLMRequests.WithLabelValues("embed", metrics.Result(err)).Inc()

	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Embedding failed", err, "text_len", len(text))
		return nil, err
	}
	return vec, nil
}
