// Package tracing configures OpenTelemetry tracing for the answer service.
package tracing

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/sentinel-rag/pkg/options"
)

// Exporter names a span exporter.
type Exporter string

const (
	ExporterOTLPGRPC Exporter = "otlp_grpc"
	ExporterOTLPHTTP Exporter = "otlp_http"
	// ExporterStdout writes spans to stdout, for local debugging.
	ExporterStdout Exporter = "stdout"
)

// Options configures the tracer provider.
// Root spans are sampled with SampleRatio; child spans follow their parent.
type Options struct {
	Enabled       bool              `json:"enabled" mapstructure:"enabled"`
	ServiceName   string            `json:"service-name" mapstructure:"service-name"`
	Environment   string            `json:"environment" mapstructure:"environment"`
	Exporter      Exporter          `json:"exporter" mapstructure:"exporter"`
	Endpoint      string            `json:"endpoint" mapstructure:"endpoint"`
	Insecure      bool              `json:"insecure" mapstructure:"insecure"`
	Headers       map[string]string `json:"headers" mapstructure:"headers"`
	SampleRatio   float64           `json:"sample-ratio" mapstructure:"sample-ratio"`
	BatchTimeout  time.Duration     `json:"batch-timeout" mapstructure:"batch-timeout"`
	ExportTimeout time.Duration     `json:"export-timeout" mapstructure:"export-timeout"`
}

var _ options.IOptions = (*Options)(nil)

// NewOptions returns disabled tracing options exporting to a local collector.
func NewOptions() *Options {
	return &Options{
		Environment:   "development",
		Exporter:      ExporterOTLPGRPC,
		Endpoint:      "localhost:4317",
		Insecure:      true,
		Headers:       map[string]string{},
		SampleRatio:   1.0,
		BatchTimeout:  5 * time.Second,
		ExportTimeout: 30 * time.Second,
	}
}

// AddFlags adds tracing flags to fs.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "tracing."
	fs.BoolVar(&o.Enabled, p+"enabled", o.Enabled, "Enable OpenTelemetry tracing.")
	fs.StringVar(&o.ServiceName, p+"service-name", o.ServiceName, "Service name reported on spans.")
	fs.StringVar(&o.Environment, p+"environment", o.Environment, "Deployment environment reported on spans.")
	fs.StringVar((*string)(&o.Exporter), p+"exporter", string(o.Exporter), "Span exporter (otlp_grpc, otlp_http, stdout).")
	fs.StringVar(&o.Endpoint, p+"endpoint", o.Endpoint, "OTLP collector endpoint (host:port).")
	fs.BoolVar(&o.Insecure, p+"insecure", o.Insecure, "Disable TLS to the OTLP collector.")
	fs.StringToStringVar(&o.Headers, p+"headers", o.Headers, "Extra OTLP request headers.")
	fs.Float64Var(&o.SampleRatio, p+"sample-ratio", o.SampleRatio, "Fraction of root requests to trace (0.0 to 1.0).")
	fs.DurationVar(&o.BatchTimeout, p+"batch-timeout", o.BatchTimeout, "Maximum delay before a span batch is exported.")
	fs.DurationVar(&o.ExportTimeout, p+"export-timeout", o.ExportTimeout, "Timeout of a single export call.")
}

// Validate checks the options. Disabled tracing is always valid.
func (o *Options) Validate() []error {
	if o == nil || !o.Enabled {
		return nil
	}

	var errs []error
	if o.ServiceName == "" {
		errs = append(errs, fmt.Errorf("tracing: service name is required"))
	}
	switch o.Exporter {
	case ExporterOTLPGRPC, ExporterOTLPHTTP:
		if o.Endpoint == "" {
			errs = append(errs, fmt.Errorf("tracing: endpoint is required for exporter %s", o.Exporter))
		}
	case ExporterStdout:
	default:
		errs = append(errs, fmt.Errorf("tracing: unsupported exporter %q", o.Exporter))
	}
	if o.SampleRatio < 0 || o.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("tracing: sample ratio must be within [0, 1], got %g", o.SampleRatio))
	}
	if o.BatchTimeout <= 0 || o.ExportTimeout <= 0 {
		errs = append(errs, fmt.Errorf("tracing: batch and export timeouts must be positive"))
	}
	return errs
}

// Complete fills nil maps.
func (o *Options) Complete() error {
	if o.Headers == nil {
		o.Headers = map[string]string{}
	}
	return nil
}
