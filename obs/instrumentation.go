package obs

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shillcollin/reportgate/core"
)

// RequestRecorder encapsulates per-call tracing/metrics bookkeeping.
type RequestRecorder struct {
	start time.Time
	span  trace.Span
	attrs []attribute.KeyValue
}

// StartRequest starts a span and counts the request.
func StartRequest(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, *RequestRecorder) {
	ctx, span := Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
	recordRequest(attrs...)
	return ctx, &RequestRecorder{start: time.Now(), span: span, attrs: attrs}
}

// End finalizes span and metrics for the call.
func (r *RequestRecorder) End(err error, usage UsageTokens) {
	if r == nil {
		return
	}
	if err != nil {
		var ai *core.AIError
		if errors.As(err, &ai) {
			r.span.SetAttributes(attribute.String("ai.error.code", string(ai.Code)))
			recordError(string(ai.Code), r.attrs...)
		} else {
			recordError("unknown", r.attrs...)
		}
		r.span.RecordError(err)
		r.span.SetStatus(codes.Error, err.Error())
	}
	recordLatency(float64(time.Since(r.start).Microseconds())/1000, r.attrs...)
	if usage.TotalTokens > 0 || usage.InputTokens > 0 || usage.OutputTokens > 0 {
		RecordUsage(usage, r.attrs...)
	}
	r.span.End()
}

// AddAttributes appends attributes to both span and subsequent metrics.
func (r *RequestRecorder) AddAttributes(attrs ...attribute.KeyValue) {
	if r == nil {
		return
	}
	r.attrs = append(r.attrs, attrs...)
	r.span.SetAttributes(attrs...)
}

// Elapsed reports time since the recorder started.
func (r *RequestRecorder) Elapsed() time.Duration {
	if r == nil {
		return 0
	}
	return time.Since(r.start)
}
