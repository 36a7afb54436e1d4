// Package httpclient is a Go client for the scraper front-end API. The
// command line tool and the prober are built on it.
package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/grafana/dskit/backoff"
	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/gzhttp"

	"github.com/pagescout/pagescout/pkg/api"
	"github.com/pagescout/pagescout/pkg/task"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrTaskNotFound is returned when the front-end does not know the task id.
	ErrTaskNotFound = errors.New("task not found")
	// ErrRateLimited is returned when the target's domain is over its
	// submission quota.
	ErrRateLimited = errors.New("rate limited")
	// ErrTaskPending is returned by Result while the task has not finished.
	ErrTaskPending = errors.New("task not finished")
)

const defaultPollInterval = 1500 * time.Millisecond

// Client talks to the scraper front-end.
type Client struct {
	BaseURL string

	// PollInterval is the delay between status polls in WaitForResult.
	PollInterval time.Duration

	client *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL:      baseURL,
		PollInterval: defaultPollInterval,
		client:       &http.Client{},
	}
}

// NewWithCompression returns a client that transparently asks for and
// decompresses gzipped responses.
func NewWithCompression(baseURL string) *Client {
	c := New(baseURL)
	c.WithTransport(gzhttp.Transport(http.DefaultTransport))
	return c
}

func (c *Client) WithTransport(t http.RoundTripper) {
	c.client.Transport = t
}

// Submit asks the front-end to scrape target. On a cache hit the returned
// submission is already completed and flagged cached.
func (c *Client) Submit(ctx context.Context, target string) (*api.SubmitResponse, error) {
	payload, err := jsonCodec.Marshal(&api.SubmitRequest{URL: target})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+api.PathScrape, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set(api.HeaderContentType, api.ContentTypeJSON)

	resp, body, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted:
		out := &api.SubmitResponse{}
		if err := jsonCodec.Unmarshal(body, out); err != nil {
			return nil, fmt.Errorf("error decoding submit response: %w body: %s", err, string(body))
		}
		return out, nil
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, errorMessage(body))
	default:
		return nil, unexpectedStatus(resp, body)
	}
}

// Status returns the lifecycle state of a task.
func (c *Client) Status(ctx context.Context, taskID string) (*api.StatusResponse, error) {
	resp, body, err := c.get(ctx, "/status/"+taskID)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		out := &api.StatusResponse{}
		if err := jsonCodec.Unmarshal(body, out); err != nil {
			return nil, fmt.Errorf("error decoding status response: %w body: %s", err, string(body))
		}
		return out, nil
	case http.StatusNotFound:
		return nil, ErrTaskNotFound
	default:
		return nil, unexpectedStatus(resp, body)
	}
}

// Result fetches the stored result document. ErrTaskPending is returned
// while the task is still running, and a failed task becomes an error
// carrying the task's error message.
func (c *Client) Result(ctx context.Context, taskID string) (*api.ResultResponse, error) {
	resp, body, err := c.get(ctx, "/result/"+taskID)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		out := &api.ResultResponse{}
		if err := jsonCodec.Unmarshal(body, out); err != nil {
			return nil, fmt.Errorf("error decoding result response: %w body: %s", err, string(body))
		}
		return out, nil
	case http.StatusAccepted:
		return nil, ErrTaskPending
	case http.StatusNotFound:
		return nil, ErrTaskNotFound
	case http.StatusInternalServerError:
		return nil, fmt.Errorf("task failed: %s", errorMessage(body))
	default:
		return nil, unexpectedStatus(resp, body)
	}
}

// Tasks lists every task the front-end holds in memory.
func (c *Client) Tasks(ctx context.Context) (*api.TasksResponse, error) {
	resp, body, err := c.get(ctx, api.PathTasks)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, unexpectedStatus(resp, body)
	}

	out := &api.TasksResponse{}
	if err := jsonCodec.Unmarshal(body, out); err != nil {
		return nil, fmt.Errorf("error decoding tasks response: %w body: %s", err, string(body))
	}
	return out, nil
}

// Ready reports whether the front-end answers its readiness probe.
func (c *Client) Ready(ctx context.Context) error {
	resp, body, err := c.get(ctx, api.PathReady)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return unexpectedStatus(resp, body)
	}
	return nil
}

// WaitForResult polls the task status until it completes and then fetches
// the result once. The context bounds the wait.
func (c *Client) WaitForResult(ctx context.Context, taskID string) (*api.ResultResponse, error) {
	bo := backoff.New(ctx, backoff.Config{
		MinBackoff: c.PollInterval,
		MaxBackoff: c.PollInterval,
	})

	for bo.Ongoing() {
		st, err := c.Status(ctx, taskID)
		if err != nil {
			return nil, err
		}

		switch task.Status(st.Status) {
		case task.StatusCompleted:
			return c.Result(ctx, taskID)
		case task.StatusFailed:
			msg := st.Error
			if msg == "" {
				msg = "tarea fallida"
			}
			return nil, fmt.Errorf("task failed: %s", msg)
		}

		bo.Wait()
	}
	return nil, bo.Err()
}

// ScrapeAndWait submits target and blocks until the result document is
// available, taking the short path when the submission was answered from
// cache.
func (c *Client) ScrapeAndWait(ctx context.Context, target string) (*api.ResultResponse, error) {
	sub, err := c.Submit(ctx, target)
	if err != nil {
		return nil, err
	}
	if sub.Cached {
		return c.Result(ctx, sub.TaskID)
	}
	return c.WaitForResult(ctx, sub.TaskID)
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, nil, err
	}
	return c.doRequest(req)
}

// doRequest sends the request and slurps the body. Status handling is left
// to the caller because several endpoints answer meaningful non-2xx bodies.
func (c *Client) doRequest(req *http.Request) (*http.Response, []byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("error calling front-end: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("error reading response body: %w", err)
	}
	return resp, body, nil
}

func unexpectedStatus(resp *http.Response, body []byte) error {
	return fmt.Errorf("%s request to %s failed with response: %d body: %s",
		resp.Request.Method, resp.Request.URL.String(), resp.StatusCode, string(body))
}

// errorMessage digs the server's error string out of a JSON error body,
// falling back to the raw body.
func errorMessage(body []byte) string {
	out := &api.ErrorResponse{}
	if err := jsonCodec.Unmarshal(body, out); err != nil || out.Error == "" {
		return string(body)
	}
	return out.Error
}