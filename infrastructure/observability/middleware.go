package observability

import (
	"context"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/agent-presence/domain/middleware"
	"github.com/felixgeelhaar/agent-presence/infrastructure/telemetry"
)

// TracingMiddleware creates middleware that traces each delivery.
func TracingMiddleware(tracer trace.Tracer) middleware.Middleware {
	return func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, d *middleware.Delivery) (middleware.Result, error) {
			ctx, span := tracer.Start(ctx, "presence.deliver",
				trace.WithAttributes(DeliveryAttributes(d)...),
				trace.WithSpanKind(trace.SpanKindConsumer),
			)
			defer span.End()

			result, err := next(ctx, d)

			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return result, err
			}

			span.SetAttributes(ResultAttributes(result)...)
			if result.Changed && !result.Canonical {
				span.AddEvent("out-of-order transition")
			}
			span.SetStatus(codes.Ok, "")

			return result, nil
		}
	}
}

// MetricsMiddleware creates middleware that records derivations and state
// changes.
func MetricsMiddleware(metrics telemetry.Metrics) middleware.Middleware {
	return func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, d *middleware.Delivery) (middleware.Result, error) {
			result, err := next(ctx, d)
			if err != nil {
				metrics.RecordError(ctx, "delivery", map[string]string{"feed.source": d.Source})
				return result, err
			}

			metrics.RecordDerivation(ctx, result.Profile.State, result.Fallback, d.Update.Activity)
			if result.Changed {
				metrics.RecordStateTransition(ctx, result.From, result.Profile.State, result.Canonical, result.Dwell)
			}

			return result, nil
		}
	}
}

// CombinedMiddleware creates middleware that combines tracing and metrics.
func CombinedMiddleware(tracer trace.Tracer, metrics telemetry.Metrics) middleware.Middleware {
	tracingMw := TracingMiddleware(tracer)
	metricsMw := MetricsMiddleware(metrics)

	return func(next middleware.Handler) middleware.Handler {
		// Chain: tracing wraps metrics wraps handler
		return tracingMw(metricsMw(next))
	}
}
