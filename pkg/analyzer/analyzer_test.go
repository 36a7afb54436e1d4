package analyzer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pagescout/pagescout/pkg/model"
	"github.com/pagescout/pagescout/pkg/wire"
)

const processTestPage = `<html><head>
	<title>Everything about mechanical keyboards</title>
	<meta name="description" content="In-depth switch comparisons, keycap profiles and build guides for every budget.">
	<link rel="stylesheet" href="/css/bootstrap.min.css">
	<script type="application/ld+json">{"@type": "Article"}</script>
</head><body>
	<h1>Keyboards</h1>
	<img src="/logo.png">
</body></html>`

func TestProcessNeutralDefaults(t *testing.T) {
	out := testAnalyzer(t).Process(context.Background(), &wire.Request{
		URL: "http://localhost:1",
	})

	buf, err := json.Marshal(out)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"screenshot": null,
		"performance": null,
		"thumbnails": [],
		"tech_stack": [],
		"seo": {},
		"structured_data": [],
		"accessibility": {}
	}`, string(buf))
}

func TestProcessFullPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/logo.png" {
			_, _ = w.Write(pngBytes(t, 320, 200))
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(processTestPage))
	}))
	defer srv.Close()

	req := &wire.Request{
		URL:       srv.URL,
		Tasks:     wire.AllTasks(),
		ImageURLs: []string{srv.URL + "/logo.png"},
		HTML:      processTestPage,
		ScrapingData: &model.ScrapingData{
			Title: "Everything about mechanical keyboards",
			MetaTags: map[string]string{
				"description": "In-depth switch comparisons, keycap profiles and build guides for every budget.",
			},
		},
	}

	out := testAnalyzer(t).Process(context.Background(), req)

	require.NotNil(t, out.Screenshot)
	require.NotEmpty(t, *out.Screenshot)

	require.NotNil(t, out.Performance)
	require.Equal(t, 1, out.Performance.NumRequests)
	require.GreaterOrEqual(t, out.Performance.LoadTimeMs, 1)

	require.Len(t, out.Thumbnails, 1)
	require.Equal(t, 160, decodeThumb(t, out.Thumbnails[0]).Bounds().Dx())

	require.Equal(t, []string{"Bootstrap"}, out.TechStack)

	var seo model.SEOReport
	require.NoError(t, json.Unmarshal(out.SEO, &seo))
	require.Equal(t, 75, seo.Score)

	require.Len(t, out.StructuredData, 1)
	require.JSONEq(t, `{"@type": "Article"}`, string(out.StructuredData[0]))

	var acc model.AccessibilityReport
	require.NoError(t, json.Unmarshal(out.Accessibility, &acc))
	require.Equal(t, []string{"/logo.png"}, acc.ImagesMissingAlt)
	require.Equal(t, 90, acc.Score)
}

func TestProcessWithoutHTMLSkipsDocumentAnalyzers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body>hi</body></html>"))
	}))
	defer srv.Close()

	out := testAnalyzer(t).Process(context.Background(), &wire.Request{
		URL:   srv.URL,
		Tasks: wire.AllTasks(),
	})

	require.NotNil(t, out.Screenshot)
	require.NotNil(t, out.Performance)
	require.Empty(t, out.Thumbnails)
	require.Empty(t, out.TechStack)
	require.Equal(t, "{}", string(out.SEO))
	require.Empty(t, out.StructuredData)
	require.Equal(t, "{}", string(out.Accessibility))
}

func TestProcessIsolatesFetchFailure(t *testing.T) {
	// nothing listens on the target, so performance fails while the
	// document analyzers keep working
	out := testAnalyzer(t).Process(context.Background(), &wire.Request{
		URL:   "http://127.0.0.1:1",
		Tasks: wire.AllTasks(),
		HTML:  processTestPage,
	})

	require.Nil(t, out.Performance)
	require.NotNil(t, out.Screenshot)
	require.Equal(t, []string{"Bootstrap"}, out.TechStack)

	var seo model.SEOReport
	require.NoError(t, json.Unmarshal(out.SEO, &seo))
	require.NotZero(t, seo.Score)
}

func TestProcessRespectsFlags(t *testing.T) {
	out := testAnalyzer(t).Process(context.Background(), &wire.Request{
		URL:   "http://127.0.0.1:1",
		Tasks: wire.TaskFlags{SEO: true},
		HTML:  processTestPage,
	})

	require.Nil(t, out.Screenshot)
	require.Nil(t, out.Performance)
	require.Empty(t, out.TechStack)
	require.Equal(t, "{}", string(out.Accessibility))

	var seo model.SEOReport
	require.NoError(t, json.Unmarshal(out.SEO, &seo))
	require.NotZero(t, seo.Score)
}
