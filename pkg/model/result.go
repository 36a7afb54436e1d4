package model

import "encoding/json"

// TimestampFormat is the layout of Result.Timestamp: UTC, second precision.
const TimestampFormat = "2006-01-02T15:04:05Z"

const (
	// ResultStatusSuccess means scraping and processing both finished.
	ResultStatusSuccess = "success"
	// ResultStatusPartial means scraping finished but processing did not,
	// so ProcessingData is empty and ProcessingError explains why.
	ResultStatusPartial = "partial"
)

// Result is the terminal payload of a completed task. ProcessingData is kept
// as raw JSON: the scraper embeds whatever object the processing tier
// returned, or {} when processing failed.
type Result struct {
	URL             string          `json:"url"`
	Timestamp       string          `json:"timestamp"`
	ScrapingData    *ScrapingData   `json:"scraping_data"`
	ProcessingData  json.RawMessage `json:"processing_data"`
	Status          string          `json:"status"`
	ProcessingError string          `json:"processing_error,omitempty"`
}
