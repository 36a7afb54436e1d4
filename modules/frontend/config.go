package frontend

import (
	"flag"
	"time"
)

// Config configures the HTTP front-end.
type Config struct {
	ListenIP   string `yaml:"ip"`
	ListenPort int    `yaml:"port"`

	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(_ string, f *flag.FlagSet) {
	cfg.ReadTimeout = 30 * time.Second
	cfg.WriteTimeout = 30 * time.Second
	cfg.IdleTimeout = 2 * time.Minute
	cfg.ShutdownTimeout = 30 * time.Second

	f.StringVar(&cfg.ListenIP, "i", "0.0.0.0", "Address the HTTP front-end listens on.")
	f.IntVar(&cfg.ListenPort, "p", 8080, "Port the HTTP front-end listens on.")
	f.IntVar(&cfg.RateLimitPerMinute, "rate-limit", 5,
		"Maximum submissions per domain per minute. Non-positive disables limiting.")
}
