// Package scrape extracts the structural summary of a fetched page: title,
// links, selected meta tags, heading counts and image URLs.
package scrape

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"

	"github.com/pagescout/pagescout/pkg/model"
)

var headingTags = []string{"h1", "h2", "h3", "h4", "h5", "h6"}

// Parse summarizes html. baseURL, when it parses, absolutizes link hrefs and
// image srcs. The returned image URLs are not part of the scraping data; they
// feed thumbnail generation.
func Parse(html, baseURL string) (*model.ScrapingData, []string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, nil, errors.Wrap(err, "parsing html")
	}

	var base *url.URL
	if baseURL != "" {
		// An unparsable base simply leaves references as found.
		base, _ = url.Parse(baseURL)
	}

	data := &model.ScrapingData{
		Title:     strings.TrimSpace(doc.Find("title").First().Text()),
		Links:     collectURLs(doc, "a", "href", base),
		MetaTags:  extractMetaTags(doc),
		Structure: make(map[string]int, len(headingTags)),
	}
	for _, tag := range headingTags {
		data.Structure[tag] = doc.Find(tag).Length()
	}
	data.ImagesCount = doc.Find("img").Length()

	return data, collectURLs(doc, "img", "src", base), nil
}

// collectURLs gathers the attr value of every matching element, in document
// order, skipping empty values and keeping duplicates.
func collectURLs(doc *goquery.Document, element, attr string, base *url.URL) []string {
	urls := make([]string, 0)
	doc.Find(element + "[" + attr + "]").Each(func(_ int, s *goquery.Selection) {
		val, _ := s.Attr(attr)
		if val == "" {
			return
		}
		urls = append(urls, absolutize(base, val))
	})
	return urls
}

func absolutize(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func extractMetaTags(doc *goquery.Document) map[string]string {
	meta := make(map[string]string)

	setIfPresent := func(key, value string) {
		if value != "" {
			meta[key] = value
		}
	}

	setIfPresent("description", metaContent(doc, `meta[name="description"]`))
	setIfPresent("keywords", metaContent(doc, `meta[name="keywords"]`))
	setIfPresent("og:title", metaContentWithNameFallback(doc, "og:title"))
	setIfPresent("og:description", metaContentWithNameFallback(doc, "og:description"))

	return meta
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return content
}

// metaContentWithNameFallback prefers the property attribute form and falls
// back to the name form only when no property element exists at all.
func metaContentWithNameFallback(doc *goquery.Document, key string) string {
	sel := doc.Find(`meta[property="` + key + `"]`)
	if sel.Length() == 0 {
		sel = doc.Find(`meta[name="` + key + `"]`)
	}
	content, _ := sel.First().Attr("content")
	return content
}
