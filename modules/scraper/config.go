package scraper

import (
	"flag"

	"github.com/pagescout/pagescout/pkg/fetch"
	"github.com/pagescout/pagescout/pkg/wire"
)

// Config configures the scrape pipeline.
type Config struct {
	// MaxInflight bounds concurrently running pipelines. Submissions past
	// the bound queue on the semaphore, not in the HTTP handler.
	MaxInflight int `yaml:"max_inflight"`
	// ImageLimit caps how many image URLs are forwarded for thumbnailing.
	ImageLimit int `yaml:"image_limit"`

	Fetch      fetch.Config      `yaml:"fetch"`
	Processing wire.ClientConfig `yaml:"processing"`
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	cfg.MaxInflight = 64
	cfg.ImageLimit = 3

	cfg.Fetch.RegisterFlagsAndApplyDefaults(prefix, f)
	cfg.Processing.RegisterFlagsAndApplyDefaults(prefix, f)
}
