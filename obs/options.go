package obs

import (
	"log/slog"
	"time"
)

// ExporterType selects where spans go.
type ExporterType string

const (
	ExporterNone   ExporterType = "none"
	ExporterStdout ExporterType = "stdout"
	ExporterOTLP   ExporterType = "otlp"
)

// Options configure Init. The zero value disables exporting and sinks but
// still installs tracer and meter providers.
type Options struct {
	ServiceName string
	Environment string
	Version     string

	Exporter    ExporterType
	Endpoint    string
	Insecure    bool
	Headers     map[string]string
	SampleRatio float64

	// DisableMetrics leaves the global meter provider untouched.
	DisableMetrics bool

	// LogCompletions mirrors each completion record into Logger.
	LogCompletions bool
	Braintrust     BraintrustOptions

	Logger *slog.Logger
}

// BraintrustOptions configure the Braintrust completion sink. Records go to
// the project log unless Dataset names a dataset.
type BraintrustOptions struct {
	Enabled   bool
	APIKey    string
	Project   string
	ProjectID string
	Dataset   string
	BaseURL   string

	BatchSize     int
	FlushInterval time.Duration
	HTTPTimeout   time.Duration
}

// DefaultOptions returns the settings used for anything left unset.
func DefaultOptions() Options {
	return Options{
		ServiceName: "reportgate",
		Exporter:    ExporterNone,
		SampleRatio: 1,
		Braintrust: BraintrustOptions{
			BatchSize:     32,
			FlushInterval: 3 * time.Second,
			HTTPTimeout:   10 * time.Second,
		},
	}
}

func (o Options) normalize() Options {
	def := DefaultOptions()
	if o.ServiceName == "" {
		o.ServiceName = def.ServiceName
	}
	if o.Exporter == "" {
		o.Exporter = def.Exporter
	}
	if o.SampleRatio <= 0 || o.SampleRatio > 1 {
		o.SampleRatio = def.SampleRatio
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}
