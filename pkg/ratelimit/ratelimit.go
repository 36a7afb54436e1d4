// Package ratelimit bounds scrape admissions per domain using a sliding
// 60 second window of admission timestamps.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter admits at most max requests per domain per trailing minute. The
// zero-or-negative max disables limiting entirely.
type Limiter struct {
	mtx    sync.Mutex
	max    int
	period time.Duration
	calls  map[string][]time.Time

	now func() time.Time
}

func New(maxPerMinute int) *Limiter {
	return &Limiter{
		max:    maxPerMinute,
		period: time.Minute,
		calls:  make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Allow reports whether domain has room in its window and, if so, records
// the admission. Denied calls consume no quota. Timestamps that have aged to
// the window boundary or past it are purged first.
func (l *Limiter) Allow(domain string) bool {
	if l.max <= 0 {
		return true
	}

	now := l.now()
	cutoff := now.Add(-l.period)

	l.mtx.Lock()
	defer l.mtx.Unlock()

	bucket := l.calls[domain]
	expired := 0
	for expired < len(bucket) && !bucket[expired].After(cutoff) {
		expired++
	}
	if expired > 0 {
		bucket = append(bucket[:0], bucket[expired:]...)
	}

	if len(bucket) >= l.max {
		l.calls[domain] = bucket
		return false
	}

	l.calls[domain] = append(bucket, now)
	return true
}
