package app

import (
	"flag"

	dslog "github.com/grafana/dskit/log"

	"github.com/pagescout/pagescout/modules/frontend"
	"github.com/pagescout/pagescout/modules/scraper"
	"github.com/pagescout/pagescout/pkg/cache"
)

// Config is the root config for the scraper process.
type Config struct {
	LogLevel  dslog.Level `yaml:"log_level"`
	LogFormat string      `yaml:"log_format"`

	Frontend frontend.Config `yaml:"frontend,omitempty"`
	Scraper  scraper.Config  `yaml:"scraper,omitempty"`
	Cache    cache.Config    `yaml:"cache,omitempty"`
}

// RegisterFlagsAndApplyDefaults registers flags and sets defaults.
func (c *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	c.LogLevel.RegisterFlags(f)
	f.StringVar(&c.LogFormat, "log.format", "logfmt", "Log format: logfmt or json.")

	c.Frontend.RegisterFlagsAndApplyDefaults(prefix, f)
	c.Scraper.RegisterFlagsAndApplyDefaults(prefix, f)
	c.Cache.RegisterFlagsAndApplyDefaults(prefix, f)
}

// NewDefaultConfig returns a Config as if an empty command line had been
// parsed.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	cfg.RegisterFlagsAndApplyDefaults("", flag.NewFlagSet("", flag.PanicOnError))
	return cfg
}

// ConfigWarning bundles a warning message with an explanation of its impact.
type ConfigWarning struct {
	Message string
	Explain string
}

var (
	warnRateLimitDisabled = ConfigWarning{
		Message: "frontend rate limiting is disabled",
		Explain: "Any single domain can monopolize the scrape pipelines.",
	}
	warnCacheDisabled = ConfigWarning{
		Message: "cache ttl is not positive",
		Explain: "Every submission will scrape the target again.",
	}
	warnNoInflightBound = ConfigWarning{
		Message: "scraper max_inflight is not positive",
		Explain: "The pipeline bound falls back to 64.",
	}
)

// CheckConfig checks for suspect config values.
func (c *Config) CheckConfig() []ConfigWarning {
	var warnings []ConfigWarning

	if c.Frontend.RateLimitPerMinute <= 0 {
		warnings = append(warnings, warnRateLimitDisabled)
	}
	if c.Cache.TTLSeconds <= 0 {
		warnings = append(warnings, warnCacheDisabled)
	}
	if c.Scraper.MaxInflight <= 0 {
		warnings = append(warnings, warnNoInflightBound)
	}

	return warnings
}
