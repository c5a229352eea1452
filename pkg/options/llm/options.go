// Package llm provides remote generation backend configuration options.
package llm

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/sentinel-rag/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options 定义远程生成后端配置。
type Options struct {
	// BaseURL OpenAI 兼容 API 基础地址。
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// APIKey API 密钥，优先于环境变量。
	APIKey string `json:"-" mapstructure:"api-key"`

	// APIKeyEnv 未配置 APIKey 时读取的环境变量名。
	APIKeyEnv string `json:"api-key-env" mapstructure:"api-key-env"`

	// Timeout 单次请求超时时间。
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries 5xx 与网络错误的最大重试次数。
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`
}

// NewOptions 创建默认远程后端配置。
func NewOptions() *Options {
	return &Options{
		BaseURL:    "https://api.deepseek.com/v1",
		APIKeyEnv:  "DEEPSEEK_API_KEY",
		Timeout:    30 * time.Second,
		MaxRetries: 0,
	}
}

// AddFlags adds flags for remote backend options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "llm."
	fs.StringVar(&o.BaseURL, p+"base-url", o.BaseURL, "OpenAI-compatible API base URL.")
	fs.StringVar(&o.APIKey, p+"api-key", o.APIKey, "API key (prefer the environment variable named by --llm.api-key-env).")
	fs.StringVar(&o.APIKeyEnv, p+"api-key-env", o.APIKeyEnv, "Environment variable holding the API key.")
	fs.DurationVar(&o.Timeout, p+"timeout", o.Timeout, "Per-request timeout of the remote backend.")
	fs.IntVar(&o.MaxRetries, p+"max-retries", o.MaxRetries, "Maximum retries on network errors and 5xx responses.")
}

// Validate validates the remote backend options.
// A missing API key is not an error: backend selection degrades to the stub.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if u, err := url.Parse(o.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("llm.base-url must be an absolute URL, got %q", o.BaseURL))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("llm.timeout must be positive"))
	}
	if o.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("llm.max-retries must not be negative"))
	}
	return errs
}

// Complete completes the options with defaults.
func (o *Options) Complete() error {
	if o.APIKeyEnv == "" {
		o.APIKeyEnv = "DEEPSEEK_API_KEY"
	}
	return nil
}

// ResolveAPIKey returns the configured key, or the value of the configured
// environment variable.
func (o *Options) ResolveAPIKey() string {
	if o.APIKey != "" {
		return o.APIKey
	}
	if o.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(o.APIKeyEnv)
}
