// Package rag provides RAG answer pipeline configuration options.
package rag

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/sentinel-rag/pkg/options"
	"github.com/kart-io/sentinel-rag/pkg/validator"
)

var _ options.IOptions = (*Options)(nil)

// Options contains the answer pipeline configuration.
type Options struct {
	// Enabled is the bypass switch. When false every answer request returns
	// the fixed disabled message.
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// Provider selects the generation backend (stub, remote, or a remote
	// vendor alias such as deepseek/openai).
	Provider string `json:"provider" mapstructure:"provider" validate:"required"`

	// Model is the model name sent to the remote backend.
	Model string `json:"model" mapstructure:"model" validate:"required"`

	// MaxContextTokens is the token budget of the assembled context.
	MaxContextTokens int `json:"max-context-tokens" mapstructure:"max-context-tokens" validate:"gt=0"`

	// TopKDocs is the default number of documents passed to generation.
	TopKDocs int `json:"top-k-docs" mapstructure:"top-k-docs" validate:"gt=0"`

	// Temperature is the sampling temperature.
	Temperature float64 `json:"temperature" mapstructure:"temperature" validate:"gte=0,lte=2"`

	// MaxResponseTokens caps the completion length.
	MaxResponseTokens int `json:"max-response-tokens" mapstructure:"max-response-tokens" validate:"gt=0"`

	// BatchConcurrency bounds concurrent generations of a batch request.
	BatchConcurrency int `json:"batch-concurrency" mapstructure:"batch-concurrency" validate:"gt=0,lte=1024"`

	// BatchMaxItems is the largest accepted batch.
	BatchMaxItems int `json:"batch-max-items" mapstructure:"batch-max-items" validate:"gt=0"`
}

// NewOptions creates default answer pipeline options.
func NewOptions() *Options {
	return &Options{
		Enabled:           true,
		Provider:          "deepseek",
		Model:             "deepseek-reasoner",
		MaxContextTokens:  3000,
		TopKDocs:          3,
		Temperature:       0.7,
		MaxResponseTokens: 500,
		BatchConcurrency:  8,
		BatchMaxItems:     32,
	}
}

// AddFlags adds flags for answer pipeline options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "rag."
	fs.BoolVar(&o.Enabled, p+"enabled", o.Enabled, "Enable answer generation. When disabled every request gets the disabled message.")
	fs.StringVar(&o.Provider, p+"provider", o.Provider, "Generation backend (stub, remote, deepseek, openai).")
	fs.StringVar(&o.Model, p+"model", o.Model, "Model name used by the remote backend.")
	fs.IntVar(&o.MaxContextTokens, p+"max-context-tokens", o.MaxContextTokens, "Token budget of the assembled context.")
	fs.IntVar(&o.TopKDocs, p+"top-k-docs", o.TopKDocs, "Default number of retrieved documents used for generation.")
	fs.Float64Var(&o.Temperature, p+"temperature", o.Temperature, "Sampling temperature (0-2).")
	fs.IntVar(&o.MaxResponseTokens, p+"max-response-tokens", o.MaxResponseTokens, "Maximum tokens of a generated answer.")
	fs.IntVar(&o.BatchConcurrency, p+"batch-concurrency", o.BatchConcurrency, "Concurrent generations per batch request.")
	fs.IntVar(&o.BatchMaxItems, p+"batch-max-items", o.BatchMaxItems, "Maximum items accepted in one batch request.")
}

// Validate validates the answer pipeline options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	verrs := validator.New().ValidateWithLang(o, validator.LangEN)
	if !verrs.HasErrors() {
		return nil
	}

	errs := make([]error, 0, verrs.Count())
	for _, fe := range verrs.Errors {
		errs = append(errs, fmt.Errorf("rag.%s: %s", fe.Field, fe.Message))
	}
	return errs
}

// Complete completes the options with defaults.
func (o *Options) Complete() error {
	if o.BatchConcurrency <= 0 {
		o.BatchConcurrency = 8
	}
	if o.BatchMaxItems <= 0 {
		o.BatchMaxItems = 32
	}
	return nil
}
