package analyzer

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pagescout/pagescout/pkg/model"
)

var (
	inlineColorPattern      = regexp.MustCompile(`color:\s*#([0-9a-f]{3,6})`)
	inlineBackgroundPattern = regexp.MustCompile(`background(-color)?:\s*#([0-9a-f]{3,6})`)
)

// AnalyzeAccessibility collects common accessibility problems and derives a
// score of 100 minus 10 per finding, floored at zero.
//
// The contrast check is deliberately crude: it only flags elements whose
// inline style declares identical foreground and background hex colors.
func AnalyzeAccessibility(doc *goquery.Document) *model.AccessibilityReport {
	report := &model.AccessibilityReport{
		ImagesMissingAlt:   []string{},
		LinksWithoutText:   []string{},
		ButtonsWithoutText: []int{},
		ContrastWarnings:   []string{},
	}

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		if strings.TrimSpace(s.AttrOr("alt", "")) == "" {
			report.ImagesMissingAlt = append(report.ImagesMissingAlt, s.AttrOr("src", ""))
		}
	})

	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		if strings.TrimSpace(s.Text()) == "" {
			report.LinksWithoutText = append(report.LinksWithoutText, s.AttrOr("href", ""))
		}
	})

	doc.Find("button").Each(func(i int, s *goquery.Selection) {
		if strings.TrimSpace(s.Text()) == "" {
			report.ButtonsWithoutText = append(report.ButtonsWithoutText, i)
		}
	})

	doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		style := strings.ToLower(s.AttrOr("style", ""))
		fg := inlineColorPattern.FindStringSubmatch(style)
		bg := inlineBackgroundPattern.FindStringSubmatch(style)
		if fg == nil || bg == nil {
			return
		}
		if fg[1] == bg[2] {
			report.ContrastWarnings = append(report.ContrastWarnings,
				"Posible poco contraste en elemento: "+goquery.NodeName(s))
		}
	})

	issues := len(report.ImagesMissingAlt) +
		len(report.LinksWithoutText) +
		len(report.ButtonsWithoutText) +
		len(report.ContrastWarnings)

	report.Score = 100 - 10*issues
	if report.Score < 0 {
		report.Score = 0
	}
	return report
}
