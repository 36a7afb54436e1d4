package analyzer

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/pagescout/pagescout/pkg/model"
)

// EvaluateSEO scores basic on-page SEO signals. The title comes from the
// scrape data when available so the score matches what the page reported,
// falling back to the document title.
//
// Weights: title present 15, title length 10-70 runes 20, description
// present 15, description length 50-160 runes 15, exactly one h1 10,
// canonical link 10, robots meta 5, any Open Graph property 10. Capped
// at 100.
func EvaluateSEO(doc *goquery.Document, sd *model.ScrapingData) *model.SEOReport {
	title := ""
	if sd != nil {
		title = sd.Title
	}
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	description := sd.MetaDescription()

	titleLen := utf8.RuneCountInString(title)
	descriptionLen := utf8.RuneCountInString(description)
	h1Count := doc.Find("h1").Length()
	hasCanonical := hasCanonicalLink(doc)
	hasRobots := doc.Find(`meta[name="robots"]`).Length() > 0
	hasOpenGraph := hasOpenGraphMeta(doc)

	score := 0
	if title != "" {
		score += 15
	}
	if titleLen >= 10 && titleLen <= 70 {
		score += 20
	}
	if description != "" {
		score += 15
	}
	if descriptionLen >= 50 && descriptionLen <= 160 {
		score += 15
	}
	if h1Count == 1 {
		score += 10
	}
	if hasCanonical {
		score += 10
	}
	if hasRobots {
		score += 5
	}
	if hasOpenGraph {
		score += 10
	}
	if score > 100 {
		score = 100
	}

	return &model.SEOReport{
		TitleLength:           titleLen,
		MetaDescriptionLength: descriptionLen,
		H1Count:               h1Count,
		HasCanonical:          hasCanonical,
		HasRobots:             hasRobots,
		HasOpenGraph:          hasOpenGraph,
		Score:                 score,
	}
}

func hasCanonicalLink(doc *goquery.Document) bool {
	found := false
	doc.Find("link[rel]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		rel, _ := s.Attr("rel")
		for _, v := range strings.Fields(rel) {
			if v == "canonical" {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

func hasOpenGraphMeta(doc *goquery.Document) bool {
	found := false
	doc.Find("meta[property]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		prop, _ := s.Attr("property")
		if strings.Contains(prop, "og:") {
			found = true
			return false
		}
		return true
	})
	return found
}
