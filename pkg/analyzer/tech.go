package analyzer

import (
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// techMarkers maps a technology label to the substrings that reveal it in
// markup, script sources or stylesheet hrefs.
var techMarkers = map[string][]string{
	"React":       {"data-reactroot", "react"},
	"Angular":     {"ng-app", "ng-controller", "angular"},
	"Vue":         {"v-bind:", "vuejs", "vue.js", "vue"},
	"Svelte":      {"svelte"},
	"jQuery":      {"jquery"},
	"Bootstrap":   {"bootstrap"},
	"TailwindCSS": {"tailwind"},
	"WordPress":   {"wp-content", "wp-json"},
	"Drupal":      {"drupal"},
	"Django":      {"django"},
	"Laravel":     {"laravel"},
	"Next.js":     {"__next", "next/dist"},
	"Nuxt.js":     {"nuxt"},
}

// DetectTechnologies matches known framework markers against the lowercased
// page source plus every script src and link href. Returns the detected
// labels sorted.
func DetectTechnologies(html string, doc *goquery.Document) []string {
	var sb strings.Builder
	sb.WriteString(strings.ToLower(html))
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		sb.WriteString(" ")
		sb.WriteString(strings.ToLower(s.AttrOr("src", "")))
	})
	doc.Find("link").Each(func(_ int, s *goquery.Selection) {
		sb.WriteString(" ")
		sb.WriteString(strings.ToLower(s.AttrOr("href", "")))
	})
	haystack := sb.String()

	detected := make([]string, 0, len(techMarkers))
	for label, clues := range techMarkers {
		for _, clue := range clues {
			if strings.Contains(haystack, clue) {
				detected = append(detected, label)
				break
			}
		}
	}
	sort.Strings(detected)
	return detected
}
