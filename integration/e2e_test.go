package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/pagescout/pagescout/pkg/httpclient"
	"github.com/pagescout/pagescout/pkg/model"
	"github.com/pagescout/pagescout/pkg/task"
)

const playgroundPage = `<!DOCTYPE html>
<html lang="en">
<head>
	<title>PageScout Playground</title>
	<meta name="description" content="A fixture page with enough surface to exercise every analyzer in the suite.">
	<meta property="og:title" content="PageScout Playground">
	<link rel="canonical" href="https://playground.test/">
	<link rel="stylesheet" href="/css/bootstrap.min.css">
	<script src="/js/jquery-3.7.1.min.js"></script>
	<script type="application/ld+json">{"@context": "https://schema.org", "@type": "WebSite", "name": "PageScout Playground"}</script>
</head>
<body>
	<h1>Playground</h1>
	<h2>Sections</h2>
	<a href="/next">next page</a>
	<a href="https://example.com/docs">docs</a>
	<img src="/logo.png" alt="logo">
	<img src="/banner.png">
</body>
</html>`

// testPage serves playgroundPage plus one decodable PNG, counting hits on
// the page itself.
type testPage struct {
	srv  *httptest.Server
	hits *atomic.Int32
}

func (p *testPage) url() string { return p.srv.URL + "/" }

func servePage(t *testing.T) *testPage {
	t.Helper()

	logo := &bytes.Buffer{}
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for x := 0; x < 32; x++ {
		for y := 0; y < 24; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 10), B: 120, A: 255})
		}
	}
	require.NoError(t, png.Encode(logo, img))

	page := &testPage{hits: atomic.NewInt32(0)}
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		page.hits.Inc()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(playgroundPage))
	})
	mux.HandleFunc("/logo.png", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(logo.Bytes())
	})
	mux.HandleFunc("/banner.png", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	page.srv = httptest.NewServer(mux)
	t.Cleanup(page.srv.Close)
	return page
}

func startStack(t *testing.T, cfg StackConfig) *Stack {
	t.Helper()
	stack, err := NewStack(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, stack.Stop()) })
	return stack
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// closedPortAddr returns a loopback address nothing listens on.
func closedPortAddr(t *testing.T) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())
	return addr
}

func TestScrapeEndToEnd(t *testing.T) {
	page := servePage(t)
	stack := startStack(t, DefaultStackConfig())
	client := stack.Client()
	ctx := testContext(t)

	require.NoError(t, client.Ready(ctx))

	res, err := client.ScrapeAndWait(ctx, page.url())
	require.NoError(t, err)

	require.Equal(t, model.ResultStatusSuccess, res.Status)
	require.Equal(t, page.url(), res.URL)
	require.Empty(t, res.ProcessingError)
	_, terr := time.Parse(model.TimestampFormat, res.Timestamp)
	require.NoError(t, terr)

	sd := res.ScrapingData
	require.NotNil(t, sd)
	require.Equal(t, "PageScout Playground", sd.Title)
	require.Len(t, sd.Links, 2)
	require.Contains(t, sd.Links, "https://example.com/docs")
	require.Contains(t, sd.MetaTags, "description")
	require.Contains(t, sd.MetaTags, "og:title")
	require.Equal(t, 1, sd.Structure["h1"])
	require.Equal(t, 1, sd.Structure["h2"])
	require.Equal(t, 2, sd.ImagesCount)

	var pd model.ProcessingData
	require.NoError(t, json.Unmarshal(res.ProcessingData, &pd))

	require.NotNil(t, pd.Screenshot)
	require.NotEmpty(t, *pd.Screenshot)

	require.NotNil(t, pd.Performance)
	require.Equal(t, 1, pd.Performance.NumRequests)
	require.Positive(t, pd.Performance.LoadTimeMs)

	// logo.png decodes, banner.png 404s
	require.Len(t, pd.Thumbnails, 1)

	require.Contains(t, pd.TechStack, "Bootstrap")
	require.Contains(t, pd.TechStack, "jQuery")

	var seo model.SEOReport
	require.NoError(t, json.Unmarshal(pd.SEO, &seo))
	require.Positive(t, seo.Score)
	require.True(t, seo.HasCanonical)
	require.True(t, seo.HasOpenGraph)
	require.Equal(t, 1, seo.H1Count)

	require.Len(t, pd.StructuredData, 1)
	require.Contains(t, string(pd.StructuredData[0]), "PageScout Playground")

	var a11y model.AccessibilityReport
	require.NoError(t, json.Unmarshal(pd.Accessibility, &a11y))
	require.Contains(t, a11y.ImagesMissingAlt, "/banner.png")
	require.NotContains(t, a11y.ImagesMissingAlt, "/logo.png")
}

func TestResubmissionIsServedFromCache(t *testing.T) {
	page := servePage(t)
	stack := startStack(t, DefaultStackConfig())
	client := stack.Client()
	ctx := testContext(t)

	first, err := client.ScrapeAndWait(ctx, page.url())
	require.NoError(t, err)
	fetches := page.hits.Load()

	sub, err := client.Submit(ctx, page.url())
	require.NoError(t, err)
	require.True(t, sub.Cached)
	require.Equal(t, string(task.StatusCompleted), sub.Status)

	second, err := client.Result(ctx, sub.TaskID)
	require.NoError(t, err)

	require.NotEqual(t, first.TaskID, second.TaskID)
	if diff := cmp.Diff(first.Result, second.Result); diff != "" {
		t.Fatalf("cached result differs from the original: %s", diff)
	}
	require.Equal(t, fetches, page.hits.Load(), "a cache hit must not touch the target")
}

func TestProcessingOutageYieldsPartialResult(t *testing.T) {
	page := servePage(t)

	cfg := DefaultStackConfig()
	cfg.StartProcessor = false
	cfg.ProcessorAddr = closedPortAddr(t)
	stack := startStack(t, cfg)
	client := stack.Client()
	ctx := testContext(t)

	res, err := client.ScrapeAndWait(ctx, page.url())
	require.NoError(t, err)

	require.Equal(t, model.ResultStatusPartial, res.Status)
	require.NotEmpty(t, res.ProcessingError)
	require.JSONEq(t, `{}`, string(res.ProcessingData))
	require.Equal(t, "PageScout Playground", res.ScrapingData.Title)

	// partial results are still cached
	sub, err := client.Submit(ctx, page.url())
	require.NoError(t, err)
	require.True(t, sub.Cached)
}

func TestUnreachableTargetFailsTask(t *testing.T) {
	stack := startStack(t, DefaultStackConfig())
	client := stack.Client()
	ctx := testContext(t)

	target := "http://" + closedPortAddr(t) + "/"

	sub, err := client.Submit(ctx, target)
	require.NoError(t, err)
	require.False(t, sub.Cached)

	_, err = client.WaitForResult(ctx, sub.TaskID)
	require.ErrorContains(t, err, "task failed")

	st, err := client.Status(ctx, sub.TaskID)
	require.NoError(t, err)
	require.Equal(t, string(task.StatusFailed), st.Status)
	require.NotEmpty(t, st.Error)
}

func TestDomainRateLimiting(t *testing.T) {
	page := servePage(t)

	cfg := DefaultStackConfig()
	cfg.RateLimitPerMinute = 2
	stack := startStack(t, cfg)
	client := stack.Client()
	ctx := testContext(t)

	// the page server answers every path, so distinct URLs share one domain
	_, err := client.Submit(ctx, page.url()+"one")
	require.NoError(t, err)
	_, err = client.Submit(ctx, page.url()+"two")
	require.NoError(t, err)

	_, err = client.Submit(ctx, page.url()+"three")
	require.ErrorIs(t, err, httpclient.ErrRateLimited)
}

func TestTasksEndpointTracksRuns(t *testing.T) {
	page := servePage(t)
	stack := startStack(t, DefaultStackConfig())
	client := stack.Client()
	ctx := testContext(t)

	first, err := client.ScrapeAndWait(ctx, page.url())
	require.NoError(t, err)
	second, err := client.ScrapeAndWait(ctx, page.url()+"deep/path")
	require.NoError(t, err)

	list, err := client.Tasks(ctx)
	require.NoError(t, err)
	require.Len(t, list.Tasks, 2)

	byID := map[string]string{}
	for _, row := range list.Tasks {
		require.Equal(t, string(task.StatusCompleted), row.Status)
		byID[row.TaskID] = row.URL
	}
	require.Equal(t, page.url(), byID[first.TaskID])
	require.Equal(t, page.url()+"deep/path", byID[second.TaskID])
}
