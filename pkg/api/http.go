// Package api holds the HTTP surface shared by the frontend, the Go client
// and the command line tools: route templates, parameter names and the JSON
// bodies exchanged on each route.
package api

import (
	"github.com/pagescout/pagescout/pkg/model"
)

const (
	// URLParamTaskID is the mux variable naming a task in status and result paths.
	URLParamTaskID = "taskID"
	// URLParamURL is the query parameter carrying the target URL on GET /scrape.
	URLParamURL = "url"

	PathScrape = "/scrape"
	PathStatus = "/status/{" + URLParamTaskID + "}"
	PathResult = "/result/{" + URLParamTaskID + "}"
	PathTasks  = "/api/tasks"

	PathReady   = "/ready"
	PathMetrics = "/metrics"
	PathConfig  = "/config"

	HeaderContentType = "Content-Type"
	ContentTypeJSON   = "application/json; charset=utf-8"
)

// SubmitRequest is the JSON body of POST /scrape.
type SubmitRequest struct {
	URL string `json:"url"`
}

// SubmitResponse answers POST/GET /scrape. Cached is only emitted on cache
// hits, where Status is already completed.
type SubmitResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
	Cached bool   `json:"cached,omitempty"`
}

// ErrorResponse is the uniform error body. Status is always "error".
type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// PendingResponse answers GET /result for tasks that have not finished.
type PendingResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// StatusResponse answers GET /status. ResultStatus surfaces the result's
// success or partial verdict once the task completed.
type StatusResponse struct {
	TaskID       string `json:"task_id"`
	URL          string `json:"url"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
	Error        string `json:"error,omitempty"`
	ResultStatus string `json:"result_status,omitempty"`
}

// ResultResponse answers GET /result for completed tasks: the stored result
// plus the task id it was retrieved under.
type ResultResponse struct {
	model.Result
	TaskID string `json:"task_id"`
}

// TaskSummary is one row of GET /api/tasks.
type TaskSummary struct {
	TaskID    string `json:"task_id"`
	URL       string `json:"url"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// TasksResponse answers GET /api/tasks.
type TasksResponse struct {
	Tasks []TaskSummary `json:"tasks"`
}
