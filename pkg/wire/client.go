package wire

import (
	"context"
	"flag"
	"net"
	"strconv"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("pkg/wire")

// ClientConfig configures the processing RPC client.
type ClientConfig struct {
	IP   string `yaml:"ip"`
	Port int    `yaml:"port"`

	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// BreakerMaxFailures consecutive failures open the breaker for
	// BreakerOpenInterval before a probe call is allowed through.
	BreakerMaxFailures  uint32        `yaml:"breaker_max_failures"`
	BreakerOpenInterval time.Duration `yaml:"breaker_open_interval"`
}

func (cfg *ClientConfig) RegisterFlagsAndApplyDefaults(_ string, f *flag.FlagSet) {
	f.StringVar(&cfg.IP, "proc-ip", "127.0.0.1", "Processing server IP.")
	f.IntVar(&cfg.Port, "proc-port", 9009, "Processing server port.")
	cfg.DialTimeout = 30 * time.Second
	cfg.ReadTimeout = 30 * time.Second
	cfg.WriteTimeout = 30 * time.Second
	cfg.BreakerMaxFailures = 5
	cfg.BreakerOpenInterval = 60 * time.Second
}

// Address renders the configured endpoint as host:port.
func (cfg *ClientConfig) Address() string {
	return net.JoinHostPort(cfg.IP, strconv.Itoa(cfg.Port))
}

// Client opens one TCP connection per call: write a framed Request, read a
// framed Response, close. A circuit breaker fails calls fast while the
// processing server is unreachable.
type Client struct {
	cfg     ClientConfig
	breaker *gobreaker.CircuitBreaker
	logger  log.Logger
}

func NewClient(cfg ClientConfig, logger log.Logger) *Client {
	c := &Client{
		cfg:    cfg,
		logger: logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "processing",
		Timeout: cfg.BreakerOpenInterval,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerMaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			level.Warn(logger).Log("msg", "circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return c
}

// Call performs one processing round trip. Every failure flavor, including a
// fast-fail from an open breaker, comes back as an error the caller treats as
// "processing unavailable".
func (c *Client) Call(ctx context.Context, req *Request) (*Response, error) {
	ctx, span := tracer.Start(ctx, "wire.Client.Call", trace.WithAttributes(
		attribute.String("url", req.URL),
	))
	defer span.End()

	start := time.Now()
	resp, err := c.breaker.Execute(func() (interface{}, error) {
		return c.call(ctx, req)
	})
	metricClientCallDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metricClientCalls.WithLabelValues("error").Inc()
		return nil, err
	}

	metricClientCalls.WithLabelValues("success").Inc()
	return resp.(*Response), nil
}

func (c *Client) call(ctx context.Context, req *Request) (*Response, error) {
	dialer := net.Dialer{Timeout: c.cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.cfg.Address())
	if err != nil {
		return nil, errors.Wrap(err, "dialing processing server")
	}
	defer conn.Close()

	if err := conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout)); err != nil {
		return nil, errors.Wrap(err, "setting write deadline")
	}
	if err := WriteMessage(conn, req); err != nil {
		return nil, errors.Wrap(err, "writing request")
	}

	if err := conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout)); err != nil {
		return nil, errors.Wrap(err, "setting read deadline")
	}
	resp := &Response{}
	if err := ReadMessage(conn, resp); err != nil {
		return nil, errors.Wrap(err, "reading response")
	}
	return resp, nil
}
