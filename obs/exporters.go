package obs

import (
	"context"
	"crypto/tls"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
)

const defaultOTLPEndpoint = "localhost:4317"

// newOTLPExporter dials the collector over gRPC, falling back to OTLP/HTTP.
// Endpoints written as http:// or https:// URLs go straight to OTLP/HTTP.
func newOTLPExporter(ctx context.Context, opts Options) (sdktrace.SpanExporter, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = defaultOTLPEndpoint
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return newOTLPHTTPExporter(ctx, opts, endpoint)
	}

	dialOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
	if opts.Insecure {
		dialOpts = append(dialOpts, otlptracegrpc.WithInsecure())
	} else {
		dialOpts = append(dialOpts, otlptracegrpc.WithTLSCredentials(credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})))
	}
	if len(opts.Headers) > 0 {
		dialOpts = append(dialOpts, otlptracegrpc.WithHeaders(opts.Headers))
	}
	dialOpts = append(dialOpts, otlptracegrpc.WithDialOption(grpc.WithBlock()))

	exporter, err := otlptracegrpc.New(ctx, dialOpts...)
	if err == nil {
		return exporter, nil
	}
	opts.Logger.Warn("otlp grpc exporter unavailable, trying http",
		slog.String("endpoint", endpoint), slog.Any("error", err))

	httpExporter, httpErr := newOTLPHTTPExporter(ctx, opts, endpoint)
	if httpErr != nil {
		return nil, err
	}
	return httpExporter, nil
}

func newOTLPHTTPExporter(ctx context.Context, opts Options, endpoint string) (sdktrace.SpanExporter, error) {
	var httpOpts []otlptracehttp.Option
	if strings.Contains(endpoint, "://") {
		httpOpts = append(httpOpts, otlptracehttp.WithEndpointURL(endpoint))
	} else {
		httpOpts = append(httpOpts, otlptracehttp.WithEndpoint(endpoint))
	}
	if opts.Insecure {
		httpOpts = append(httpOpts, otlptracehttp.WithInsecure())
	}
	if len(opts.Headers) > 0 {
		httpOpts = append(httpOpts, otlptracehttp.WithHeaders(opts.Headers))
	}
	return otlptracehttp.New(ctx, httpOpts...)
}
