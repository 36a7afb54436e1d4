package model

import "encoding/json"

// ProcessingData aggregates the output of all analyzers for one page. Every
// key is always present. Analyzers that were not requested, had nothing to
// work with or failed leave their neutral value in place: null for screenshot
// and performance, an empty list for thumbnails, tech_stack and
// structured_data, and an empty object for seo and accessibility.
type ProcessingData struct {
	Screenshot     *string            `json:"screenshot"`
	Performance    *PerformanceReport `json:"performance"`
	Thumbnails     []string           `json:"thumbnails"`
	TechStack      []string           `json:"tech_stack"`
	SEO            json.RawMessage    `json:"seo"`
	StructuredData []json.RawMessage  `json:"structured_data"`
	Accessibility  json.RawMessage    `json:"accessibility"`
}

// NewProcessingData returns a ProcessingData with every field set to its
// neutral value.
func NewProcessingData() *ProcessingData {
	return &ProcessingData{
		Screenshot:     nil,
		Performance:    nil,
		Thumbnails:     []string{},
		TechStack:      []string{},
		SEO:            json.RawMessage(`{}`),
		StructuredData: []json.RawMessage{},
		Accessibility:  json.RawMessage(`{}`),
	}
}

// PerformanceReport is a single-request timing and size measurement.
type PerformanceReport struct {
	LoadTimeMs  int `json:"load_time_ms"`
	TotalSizeKB int `json:"total_size_kb"`
	NumRequests int `json:"num_requests"`
}

// SEOReport scores a page against a fixed rubric. Score is 0 to 100.
type SEOReport struct {
	TitleLength           int  `json:"title_length"`
	MetaDescriptionLength int  `json:"meta_description_length"`
	H1Count               int  `json:"h1_count"`
	HasCanonical          bool `json:"has_canonical"`
	HasRobots             bool `json:"has_robots"`
	HasOpenGraph          bool `json:"has_open_graph"`
	Score                 int  `json:"score"`
}

// AccessibilityReport lists detected accessibility issues. Score starts at
// 100 and loses 10 points per issue, floored at 0.
type AccessibilityReport struct {
	ImagesMissingAlt   []string `json:"images_missing_alt"`
	LinksWithoutText   []string `json:"links_without_text"`
	ButtonsWithoutText []int    `json:"buttons_without_text"`
	ContrastWarnings   []string `json:"contrast_warnings"`
	Score              int      `json:"score"`
}
