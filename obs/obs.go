// Package obs wires OpenTelemetry tracing and metrics, the process logger and
// the completion sinks that receive one record per gateway operation.
package obs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/shillcollin/reportgate/obs"

var (
	stateMu sync.RWMutex
	state   *pipeline
)

// Sink receives completion records.
type Sink interface {
	LogCompletion(context.Context, Completion) error
	Shutdown(context.Context) error
}

type pipeline struct {
	tracer    trace.Tracer
	meter     metric.Meter
	logger    *slog.Logger
	sinks     []Sink
	providers []func(context.Context) error
}

// Init installs the global tracer and meter providers and starts the
// configured sinks. It fails when called again before shutdown.
func Init(ctx context.Context, opts Options) (func(context.Context) error, error) {
	stateMu.Lock()
	defer stateMu.Unlock()
	if state != nil {
		return nil, errors.New("obs: already initialized")
	}
	opts = opts.normalize()

	res, err := buildResource(opts)
	if err != nil {
		return nil, fmt.Errorf("obs: resource: %w", err)
	}
	exporter, err := newSpanExporter(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("obs: exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(opts.SampleRatio))),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	p := &pipeline{
		tracer:    tp.Tracer(instrumentationName),
		meter:     otel.Meter(instrumentationName),
		logger:    opts.Logger,
		providers: []func(context.Context) error{tp.Shutdown},
	}
	if !opts.DisableMetrics {
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res))
		otel.SetMeterProvider(mp)
		p.meter = mp.Meter(instrumentationName)
		p.providers = append(p.providers, mp.Shutdown)
	}

	if p.sinks, err = buildSinks(ctx, opts); err != nil {
		_ = p.shutdown(ctx)
		return nil, err
	}

	otel.SetTracerProvider(tp)
	installMetrics(p.meter)
	state = p
	return func(ctx context.Context) error {
		stateMu.Lock()
		if state == p {
			state = nil
		}
		stateMu.Unlock()
		return p.shutdown(ctx)
	}, nil
}

// shutdown drains sinks first so their final records are still traced.
func (p *pipeline) shutdown(ctx context.Context) error {
	var errs []error
	for _, s := range p.sinks {
		errs = append(errs, s.Shutdown(ctx))
	}
	for i := len(p.providers) - 1; i >= 0; i-- {
		errs = append(errs, p.providers[i](ctx))
	}
	return errors.Join(errs...)
}

func buildResource(opts Options) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceName(opts.ServiceName)}
	if opts.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironment(opts.Environment))
	}
	if opts.Version != "" {
		attrs = append(attrs, semconv.ServiceVersion(opts.Version))
	}
	return resource.Merge(resource.Default(), resource.NewSchemaless(attrs...))
}

func newSpanExporter(ctx context.Context, opts Options) (sdktrace.SpanExporter, error) {
	switch opts.Exporter {
	case ExporterNone:
		return discardExporter{}, nil
	case ExporterStdout:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case ExporterOTLP:
		return newOTLPExporter(ctx, opts)
	default:
		return nil, fmt.Errorf("unknown exporter %q", opts.Exporter)
	}
}

type discardExporter struct{}

func (discardExporter) ExportSpans(context.Context, []sdktrace.ReadOnlySpan) error { return nil }
func (discardExporter) Shutdown(context.Context) error                             { return nil }

func buildSinks(ctx context.Context, opts Options) ([]Sink, error) {
	var sinks []Sink
	if opts.LogCompletions {
		sinks = append(sinks, newLogSink(opts.Logger))
	}
	if opts.Braintrust.Enabled {
		bt, err := newBraintrustSink(ctx, opts.Braintrust, opts.Logger)
		if err != nil {
			return nil, fmt.Errorf("obs: braintrust: %w", err)
		}
		sinks = append(sinks, bt)
	}
	return sinks, nil
}

func current() *pipeline {
	stateMu.RLock()
	defer stateMu.RUnlock()
	return state
}

// Tracer returns the gateway tracer, or the global one before Init.
func Tracer() trace.Tracer {
	if p := current(); p != nil {
		return p.tracer
	}
	return otel.Tracer(instrumentationName)
}

// Meter returns the gateway meter, or the global one before Init.
func Meter() metric.Meter {
	if p := current(); p != nil {
		return p.meter
	}
	return otel.Meter(instrumentationName)
}

// RecordUsage records token histograms.
func RecordUsage(u UsageTokens, attrs ...attribute.KeyValue) {
	recordUsage(u, attrs...)
}

// LogCompletion hands c to every sink. Sink errors are logged, never returned.
func LogCompletion(ctx context.Context, c Completion) {
	p := current()
	if p == nil {
		return
	}
	for _, s := range p.sinks {
		if err := s.LogCompletion(ctx, c); err != nil {
			p.logger.Warn("completion sink rejected record",
				slog.String("operation", c.Operation),
				slog.String("request_id", c.RequestID),
				slog.Any("error", err))
		}
	}
}

// Completion is one gateway operation: the final prompt, the accepted text
// and how many backend attempts it took.
type Completion struct {
	Operation    string
	Provider     string
	Model        string
	RequestID    string
	Input        []Message
	Output       Message
	Usage        UsageTokens
	LatencyMS    int64
	Attempts     int
	Degraded     bool
	Metadata     map[string]any
	Error        string
	CreatedAtUTC int64
}

// Message is a prompt turn or answer as seen by sinks.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text,omitempty"`
}

// UsageTokens carries token counts for metrics and sinks.
type UsageTokens struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
