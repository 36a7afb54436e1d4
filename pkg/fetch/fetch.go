// Package fetch is the outbound HTTP client shared by the scrape pipeline
// and the analyzers: redirects followed, one total timeout, bounded per-host
// connections, charset-tolerant text decoding.
package fetch

import (
	"context"
	"flag"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/net/html/charset"
)

// Config tunes the fetcher.
type Config struct {
	Timeout         time.Duration `yaml:"timeout"`
	MaxConnsPerHost int           `yaml:"max_conns_per_host"`
	UserAgent       string        `yaml:"user_agent"`
}

// ApplyDefaults sets defaults without registering flags, for embedders whose
// command line does not expose the fetcher.
func (cfg *Config) ApplyDefaults() {
	cfg.Timeout = 30 * time.Second
	cfg.MaxConnsPerHost = 8
	cfg.UserAgent = "pagescout"
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(_ string, f *flag.FlagSet) {
	cfg.ApplyDefaults()
	f.IntVar(&cfg.MaxConnsPerHost, "w", 8, "Maximum concurrent connections per target host.")
	f.IntVar(&cfg.MaxConnsPerHost, "workers", 8, "Maximum concurrent connections per target host (same as -w).")
}

// Fetcher wraps an http.Client tuned per Config. Safe for concurrent use.
type Fetcher struct {
	cfg    Config
	client *http.Client
}

func New(cfg Config) *Fetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxConnsPerHost = cfg.MaxConnsPerHost
	transport.MaxIdleConnsPerHost = cfg.MaxConnsPerHost

	return &Fetcher{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}
}

func (f *Fetcher) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, errors.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}
	return resp, nil
}

// Text fetches url and decodes the body to UTF-8. The charset comes from the
// Content-Type header or a sniffed meta tag; undecodable bytes are replaced,
// never fatal.
func (f *Fetcher) Text(ctx context.Context, url string) (string, error) {
	resp, err := f.get(ctx, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", errors.Wrap(err, "detecting charset")
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return "", errors.Wrap(err, "reading body")
	}
	return string(body), nil
}

// Bytes fetches url and returns the raw body.
func (f *Fetcher) Bytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading body")
	}
	return body, nil
}

// IsTimeout reports whether err is a client timeout or deadline expiry, as
// opposed to cancellation or a hard failure.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
