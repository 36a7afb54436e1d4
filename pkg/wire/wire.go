// Package wire implements the framed JSON protocol spoken between the
// scraping front-end and the processing server: a 4-byte unsigned big-endian
// length followed by exactly that many bytes of UTF-8 JSON.
package wire

import (
	"encoding/json"

	"github.com/pagescout/pagescout/pkg/model"
)

// Response status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// TaskFlags selects which analyzers run for one request.
type TaskFlags struct {
	Screenshot     bool `json:"screenshot"`
	Performance    bool `json:"performance"`
	Thumbnails     bool `json:"thumbnails"`
	TechStack      bool `json:"tech_stack"`
	SEO            bool `json:"seo"`
	StructuredData bool `json:"structured_data"`
	Accessibility  bool `json:"accessibility"`
}

// AllTasks returns flags with every analyzer enabled. The scrape pipeline
// always requests the full set.
func AllTasks() TaskFlags {
	return TaskFlags{
		Screenshot:     true,
		Performance:    true,
		Thumbnails:     true,
		TechStack:      true,
		SEO:            true,
		StructuredData: true,
		Accessibility:  true,
	}
}

// Request asks the processing server to analyze one scraped page.
type Request struct {
	URL          string              `json:"url"`
	Tasks        TaskFlags           `json:"tasks"`
	ImageURLs    []string            `json:"image_urls"`
	HTML         string              `json:"html"`
	ScrapingData *model.ScrapingData `json:"scraping_data"`
}

// Response carries either processing_data (status success) or error (status
// error), never both.
type Response struct {
	Status         string          `json:"status"`
	ProcessingData json.RawMessage `json:"processing_data,omitempty"`
	Error          string          `json:"error,omitempty"`
}
