// Package analyzer runs the page analysis suite: screenshot, performance,
// thumbnails, technology detection, SEO, structured data and accessibility.
package analyzer

import (
	"context"
	"flag"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	jsoniter "github.com/json-iterator/go"

	"github.com/pagescout/pagescout/pkg/fetch"
	"github.com/pagescout/pagescout/pkg/model"
	"github.com/pagescout/pagescout/pkg/wire"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// Config tunes the analyzers.
type Config struct {
	MaxThumbnails int           `yaml:"max_thumbnails"`
	ThumbnailSize int           `yaml:"thumbnail_size"`
	ImageTimeout  time.Duration `yaml:"image_timeout"`

	Fetch fetch.Config `yaml:"fetch"`
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(_ string, _ *flag.FlagSet) {
	cfg.MaxThumbnails = 3
	cfg.ThumbnailSize = 160
	cfg.ImageTimeout = 20 * time.Second
	cfg.Fetch.ApplyDefaults()
}

// Analyzer executes analysis requests. Safe for concurrent use; the
// processing server shares one across its pool workers.
type Analyzer struct {
	cfg     Config
	fetcher *fetch.Fetcher
	logger  log.Logger
}

func New(cfg Config, logger log.Logger) *Analyzer {
	return &Analyzer{
		cfg:     cfg,
		fetcher: fetch.New(cfg.Fetch),
		logger:  logger,
	}
}

// Process runs every analyzer whose flag is set and whose input is present,
// and assembles the aggregate document. Analyzers are individually
// fault-isolated: an error or panic in one leaves its neutral default in
// place and never touches the others.
func (a *Analyzer) Process(ctx context.Context, req *wire.Request) *model.ProcessingData {
	out := model.NewProcessingData()

	var doc *goquery.Document
	if req.HTML != "" {
		var err error
		doc, err = goquery.NewDocumentFromReader(strings.NewReader(req.HTML))
		if err != nil {
			level.Warn(a.logger).Log("msg", "unparsable html, skipping document analyzers", "url", req.URL, "err", err)
			doc = nil
		}
	}

	if req.Tasks.Screenshot {
		a.run("screenshot", func() error {
			shot, err := Screenshot(req.URL)
			if err != nil {
				return err
			}
			out.Screenshot = &shot
			return nil
		})
	}

	if req.Tasks.Performance {
		a.run("performance", func() error {
			report, err := a.Performance(ctx, req.URL)
			if err != nil {
				return err
			}
			out.Performance = report
			return nil
		})
	}

	if req.Tasks.Thumbnails && len(req.ImageURLs) > 0 {
		a.run("thumbnails", func() error {
			out.Thumbnails = a.Thumbnails(ctx, req.ImageURLs)
			return nil
		})
	}

	if req.Tasks.TechStack && doc != nil {
		a.run("tech_stack", func() error {
			out.TechStack = DetectTechnologies(req.HTML, doc)
			return nil
		})
	}

	if req.Tasks.SEO && doc != nil {
		a.run("seo", func() error {
			buf, err := jsonCodec.Marshal(EvaluateSEO(doc, req.ScrapingData))
			if err != nil {
				return err
			}
			out.SEO = buf
			return nil
		})
	}

	if req.Tasks.StructuredData && doc != nil {
		a.run("structured_data", func() error {
			out.StructuredData = ExtractStructuredData(doc)
			return nil
		})
	}

	if req.Tasks.Accessibility && doc != nil {
		a.run("accessibility", func() error {
			buf, err := jsonCodec.Marshal(AnalyzeAccessibility(doc))
			if err != nil {
				return err
			}
			out.Accessibility = buf
			return nil
		})
	}

	return out
}

func (a *Analyzer) run(name string, f func() error) {
	start := time.Now()
	defer func() {
		metricAnalyzerDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		if r := recover(); r != nil {
			metricAnalyzerFailures.WithLabelValues(name).Inc()
			level.Error(a.logger).Log("msg", "analyzer panicked", "analyzer", name, "panic", r)
		}
	}()

	if err := f(); err != nil {
		metricAnalyzerFailures.WithLabelValues(name).Inc()
		level.Warn(a.logger).Log("msg", "analyzer failed", "analyzer", name, "err", err)
	}
}
