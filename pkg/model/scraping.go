package model

// ScrapingData is the structural summary the scraper extracts from a fetched
// page. It travels to the processing tier inside the processing request and is
// embedded verbatim in the task result.
type ScrapingData struct {
	// Title is the text of the first <title> element, empty when the page
	// has none.
	Title string `json:"title"`
	// Links holds every anchor href, resolved against the page URL, in
	// document order. Duplicates are preserved.
	Links []string `json:"links"`
	// MetaTags carries description, keywords, og:title and og:description
	// when present with non-empty content.
	MetaTags map[string]string `json:"meta_tags"`
	// Structure counts heading elements h1 through h6.
	Structure map[string]int `json:"structure"`
	// ImagesCount counts every <img> element, with or without a src.
	ImagesCount int `json:"images_count"`
}

// MetaDescription returns the description meta tag, or empty.
func (s *ScrapingData) MetaDescription() string {
	if s == nil || s.MetaTags == nil {
		return ""
	}
	return s.MetaTags["description"]
}
