package analyzer

import (
	"context"
	"time"

	"github.com/pagescout/pagescout/pkg/model"
)

// Performance re-fetches url once and reports wall-clock load time and body
// size. load_time_ms is never below 1 so a cached localhost fetch still
// registers.
func (a *Analyzer) Performance(ctx context.Context, url string) (*model.PerformanceReport, error) {
	start := time.Now()
	body, err := a.fetcher.Bytes(ctx, url)
	if err != nil {
		return nil, err
	}

	elapsed := int(time.Since(start).Milliseconds())
	if elapsed < 1 {
		elapsed = 1
	}

	return &model.PerformanceReport{
		LoadTimeMs:  elapsed,
		TotalSizeKB: len(body) / 1024,
		NumRequests: 1,
	}, nil
}
