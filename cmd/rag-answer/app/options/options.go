// Package options contains flags and options for initializing the answer server.
package options

import (
	"fmt"
	"time"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	answersvc "github.com/kart-io/sentinel-rag/internal/answer"
	"github.com/kart-io/sentinel-rag/pkg/app/cliflag"
	"github.com/kart-io/sentinel-rag/pkg/infra/tracing"
	cacheopts "github.com/kart-io/sentinel-rag/pkg/options/cache"
	"github.com/kart-io/sentinel-rag/pkg/options/docstore"
	etcdopts "github.com/kart-io/sentinel-rag/pkg/options/etcd"
	llmopts "github.com/kart-io/sentinel-rag/pkg/options/llm"
	logopts "github.com/kart-io/sentinel-rag/pkg/options/logger"
	ragopts "github.com/kart-io/sentinel-rag/pkg/options/rag"
	httpopts "github.com/kart-io/sentinel-rag/pkg/options/server/http"
)

// ServerOptions contains the configuration options for the server.
type ServerOptions struct {
	// HTTPOptions contains HTTP server configuration.
	HTTPOptions *httpopts.Options `json:"http" mapstructure:"http"`

	// LogOptions contains logger configuration.
	LogOptions *logopts.Options `json:"log" mapstructure:"log"`

	// RAGOptions contains answer pipeline configuration.
	RAGOptions *ragopts.Options `json:"rag" mapstructure:"rag"`

	// LLMOptions contains remote generation backend configuration.
	LLMOptions *llmopts.Options `json:"llm" mapstructure:"llm"`

	// CacheOptions contains answer cache configuration.
	CacheOptions *cacheopts.Options `json:"cache" mapstructure:"cache"`

	// DocStoreOptions contains full-content document lookup configuration.
	DocStoreOptions *docstore.Options `json:"docstore" mapstructure:"docstore"`

	// TracingOptions contains OpenTelemetry configuration.
	TracingOptions *tracing.Options `json:"tracing" mapstructure:"tracing"`

	// EtcdOptions contains service registration configuration.
	EtcdOptions *etcdopts.Options `json:"etcd" mapstructure:"etcd"`

	// ShutdownTimeout is the timeout for graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// NewServerOptions creates a ServerOptions instance with default values.
func NewServerOptions() *ServerOptions {
	tracingOpts := tracing.NewOptions()
	tracingOpts.ServiceName = answersvc.Name

	return &ServerOptions{
		HTTPOptions:     httpopts.NewOptions(),
		LogOptions:      logopts.NewOptions(),
		RAGOptions:      ragopts.NewOptions(),
		LLMOptions:      llmopts.NewOptions(),
		CacheOptions:    cacheopts.NewOptions(),
		DocStoreOptions: docstore.NewOptions(),
		TracingOptions:  tracingOpts,
		EtcdOptions:     etcdopts.NewOptions(),
		ShutdownTimeout: 30 * time.Second,
	}
}

// Flags returns flags for a specific server by section name.
func (o *ServerOptions) Flags() (fss cliflag.NamedFlagSets) {
	o.HTTPOptions.AddFlags(fss.FlagSet("http"))
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	o.RAGOptions.AddFlags(fss.FlagSet("rag"))
	o.LLMOptions.AddFlags(fss.FlagSet("llm"))
	o.CacheOptions.AddFlags(fss.FlagSet("cache"))
	o.DocStoreOptions.AddFlags(fss.FlagSet("docstore"))
	o.TracingOptions.AddFlags(fss.FlagSet("tracing"))
	o.EtcdOptions.AddFlags(fss.FlagSet("etcd"))

	// misc flags
	fs := fss.FlagSet("misc")
	fs.DurationVar(&o.ShutdownTimeout, "shutdown-timeout", o.ShutdownTimeout, "Graceful shutdown timeout")

	return fss
}

// Complete completes all the required options.
func (o *ServerOptions) Complete() error {
	if err := o.HTTPOptions.Complete(); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	if err := o.LogOptions.Complete(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := o.RAGOptions.Complete(); err != nil {
		return fmt.Errorf("rag: %w", err)
	}
	if err := o.LLMOptions.Complete(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	if err := o.CacheOptions.Complete(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := o.DocStoreOptions.Complete(); err != nil {
		return fmt.Errorf("docstore: %w", err)
	}
	if err := o.TracingOptions.Complete(); err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	if err := o.EtcdOptions.Complete(); err != nil {
		return fmt.Errorf("etcd: %w", err)
	}
	return nil
}

// Validate checks whether the options in ServerOptions are valid.
func (o *ServerOptions) Validate() error {
	errs := []error{}

	errs = append(errs, o.HTTPOptions.Validate()...)
	errs = append(errs, o.LogOptions.Validate()...)
	errs = append(errs, o.RAGOptions.Validate()...)
	errs = append(errs, o.LLMOptions.Validate()...)
	errs = append(errs, o.CacheOptions.Validate()...)
	errs = append(errs, o.DocStoreOptions.Validate()...)
	errs = append(errs, o.TracingOptions.Validate()...)
	errs = append(errs, o.EtcdOptions.Validate()...)
	if o.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown-timeout must be positive"))
	}

	return utilerrors.NewAggregate(errs)
}

// Config builds an answersvc.Config based on ServerOptions.
func (o *ServerOptions) Config() (*answersvc.Config, error) {
	return &answersvc.Config{
		HTTPOptions:     o.HTTPOptions,
		LogOptions:      o.LogOptions,
		RAGOptions:      o.RAGOptions,
		LLMOptions:      o.LLMOptions,
		CacheOptions:    o.CacheOptions,
		DocStoreOptions: o.DocStoreOptions,
		TracingOptions:  o.TracingOptions,
		EtcdOptions:     o.EtcdOptions,
		ShutdownTimeout: o.ShutdownTimeout,
	}, nil
}
