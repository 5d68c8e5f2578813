package ai

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	invocationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ielts",
		Subsystem: "ai",
		Name:      "invocation_duration_seconds",
		Help:      "Duration of model invocation requests",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
	}, []string{"model"})

	invocationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ielts",
		Subsystem: "ai",
		Name:      "invocation_failures_total",
		Help:      "Number of model invocation failures by kind",
	}, []string{"model", "kind"})
)

type instrumented struct {
	inner  Invoker
	tracer trace.Tracer
	logger zerolog.Logger
}

// Instrument wraps an Invoker with latency metrics, failure counters and a trace span.
func Instrument(inner Invoker, logger zerolog.Logger) Invoker {
	if inner == nil {
		return nil
	}
	return &instrumented{
		inner:  inner,
		tracer: otel.Tracer("github.com/ieltsgenai/prep-api/pkg/ai"),
		logger: logger.With().Str("component", "ai_invoker").Str("model", inner.ModelID()).Logger(),
	}
}

func (i *instrumented) ModelID() string {
	return i.inner.ModelID()
}

func (i *instrumented) Invoke(parent context.Context, req Request) (Response, error) {
	model := i.inner.ModelID()
	ctx, span := i.tracer.Start(parent, "ai.invoke", trace.WithAttributes(
		attribute.String("model", model),
		attribute.Int("max_tokens", req.MaxTokens),
	))
	defer span.End()

	start := time.Now()
	resp, err := i.inner.Invoke(ctx, req)
	duration := time.Since(start)
	invocationDuration.WithLabelValues(model).Observe(duration.Seconds())

	if err != nil {
		kind := KindOf(err)
		invocationFailures.WithLabelValues(model, string(kind)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		i.logger.Warn().Err(err).Str("kind", string(kind)).Dur("duration", duration).Msg("model invocation failed")
		return Response{}, err
	}

	span.SetAttributes(
		attribute.Int("usage.input_tokens", resp.Usage.InputTokens),
		attribute.Int("usage.output_tokens", resp.Usage.OutputTokens),
	)
	i.logger.Debug().Dur("duration", duration).Int("output_tokens", resp.Usage.OutputTokens).Msg("model invocation completed")
	return resp, nil
}
