package processor

import (
	"flag"
	"time"

	"github.com/pagescout/pagescout/pkg/analyzer"
	"github.com/pagescout/pagescout/pkg/worker"
)

// Config configures the processing server.
type Config struct {
	ListenIP     string        `yaml:"ip"`
	ListenPort   int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	Workers  worker.Config   `yaml:"workers"`
	Analyzer analyzer.Config `yaml:"analyzer"`
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	cfg.ReadTimeout = 60 * time.Second
	cfg.WriteTimeout = 30 * time.Second
	f.StringVar(&cfg.ListenIP, "i", "0.0.0.0", "Address the processing server listens on.")
	f.IntVar(&cfg.ListenPort, "p", 9009, "Port the processing server listens on.")

	cfg.Workers.RegisterFlagsAndApplyDefaults(prefix, f)
	cfg.Analyzer.RegisterFlagsAndApplyDefaults(prefix, f)
}
