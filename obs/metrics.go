package obs

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	metricsOnce      sync.Once
	requestCounter   metric.Int64Counter
	errorCounter     metric.Int64Counter
	retryCounter     metric.Int64Counter
	degradedCounter  metric.Int64Counter
	limitedCounter   metric.Int64Counter
	latencyHistogram metric.Float64Histogram
	inputTokensHist  metric.Int64Histogram
	outputTokensHist metric.Int64Histogram
	totalTokensHist  metric.Int64Histogram
)

func installMetrics(m meter) {
	metricsOnce.Do(func() {
		if m == nil {
			return
		}
		requestCounter, _ = m.Int64Counter("reportgate.llm.requests", metric.WithDescription("Backend completion calls"))
		errorCounter, _ = m.Int64Counter("reportgate.llm.errors", metric.WithDescription("Failed backend completion calls"))
		retryCounter, _ = m.Int64Counter("reportgate.llm.retries", metric.WithDescription("Attempts scheduled after a failure"))
		degradedCounter, _ = m.Int64Counter("reportgate.responses.degraded", metric.WithDescription("Responses served from a local fallback"))
		limitedCounter, _ = m.Int64Counter("reportgate.chat.limited", metric.WithDescription("Chat questions refused by the session quota"))
		latencyHistogram, _ = m.Float64Histogram("reportgate.llm.latency_ms", metric.WithDescription("Backend latency (ms)"))
		inputTokensHist, _ = m.Int64Histogram("reportgate.tokens.input", metric.WithDescription("Input tokens"))
		outputTokensHist, _ = m.Int64Histogram("reportgate.tokens.output", metric.WithDescription("Output tokens"))
		totalTokensHist, _ = m.Int64Histogram("reportgate.tokens.total", metric.WithDescription("Total tokens"))
	})
}

type meter interface {
	Int64Counter(string, ...metric.Int64CounterOption) (metric.Int64Counter, error)
	Float64Histogram(string, ...metric.Float64HistogramOption) (metric.Float64Histogram, error)
	Int64Histogram(string, ...metric.Int64HistogramOption) (metric.Int64Histogram, error)
}

// RecordRetry counts an attempt scheduled after a failure.
func RecordRetry(operation string, attrs ...attribute.KeyValue) {
	add(retryCounter, with(attrs, attribute.String("operation", operation))...)
}

// RecordDegraded counts a response served from a local fallback.
func RecordDegraded(operation string, attrs ...attribute.KeyValue) {
	add(degradedCounter, with(attrs, attribute.String("operation", operation))...)
}

// RecordLimited counts a chat question refused by the session quota.
func RecordLimited(attrs ...attribute.KeyValue) {
	add(limitedCounter, attrs...)
}

func recordRequest(attrs ...attribute.KeyValue) {
	add(requestCounter, attrs...)
}

func recordError(code string, attrs ...attribute.KeyValue) {
	add(errorCounter, with(attrs, attribute.String("error.code", code))...)
}

func with(attrs []attribute.KeyValue, extra ...attribute.KeyValue) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs)+len(extra))
	return append(append(out, attrs...), extra...)
}

func add(counter metric.Int64Counter, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

func recordLatency(ms float64, attrs ...attribute.KeyValue) {
	if latencyHistogram != nil {
		latencyHistogram.Record(context.Background(), ms, metric.WithAttributes(attrs...))
	}
}

func recordUsage(usage UsageTokens, attrs ...attribute.KeyValue) {
	ctx := context.Background()
	set := metric.WithAttributes(attrs...)
	if inputTokensHist != nil {
		inputTokensHist.Record(ctx, int64(usage.InputTokens), set)
	}
	if outputTokensHist != nil {
		outputTokensHist.Record(ctx, int64(usage.OutputTokens), set)
	}
	if totalTokensHist != nil {
		totalTokensHist.Record(ctx, int64(usage.TotalTokens), set)
	}
}
