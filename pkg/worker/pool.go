// Package worker provides the bounded goroutine pool the processing server
// runs analyzer jobs on.
package worker

import (
	"context"
	"flag"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// ErrStopped is the outcome of jobs still queued when the pool stops, and of
// submissions after Stop.
var ErrStopped = errors.New("worker pool stopped")

// Task is one unit of analyzer work. Execute runs on a worker goroutine; a
// panic inside it is recovered and surfaced as an error, the worker survives.
type Task interface {
	Execute(ctx context.Context) (interface{}, error)
}

// TaskFunc adapts a plain function to the Task interface.
type TaskFunc func(ctx context.Context) (interface{}, error)

func (f TaskFunc) Execute(ctx context.Context) (interface{}, error) { return f(ctx) }

// Config sizes the pool.
type Config struct {
	Workers    int `yaml:"workers"`
	QueueDepth int `yaml:"queue_depth"`
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(_ string, f *flag.FlagSet) {
	f.IntVar(&cfg.Workers, "n", 0, "Number of pool workers. Non-positive means one per CPU.")
	cfg.QueueDepth = 128
}

type job struct {
	ctx      context.Context
	task     Task
	resultCh chan jobResult
}

type jobResult struct {
	value interface{}
	err   error
}

// Pool runs submitted tasks on a fixed set of worker goroutines behind a
// bounded queue. Submit provides backpressure by blocking while the queue is
// full. Stop must not race Submit: callers drain their submitters first, the
// way the processing server waits for its connection handlers.
type Pool struct {
	workers    int
	queueDepth int

	workQueue chan *job
	wg        sync.WaitGroup
	stopped   atomic.Bool
}

func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers < 1 {
			workers = 1
		}
	}
	queueDepth := cfg.QueueDepth
	if queueDepth <= 0 {
		queueDepth = 128
	}

	metricWorkQueueMax.Set(float64(queueDepth))

	return &Pool{
		workers:    workers,
		queueDepth: queueDepth,
		workQueue:  make(chan *job, queueDepth),
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Workers returns the effective worker count.
func (p *Pool) Workers() int {
	return p.workers
}

// Submit enqueues task and waits for its outcome. It blocks while the queue
// is full and honors ctx both while queued and while awaiting the result.
func (p *Pool) Submit(ctx context.Context, task Task) (interface{}, error) {
	if p.stopped.Load() {
		return nil, ErrStopped
	}

	j := &job{
		ctx:      ctx,
		task:     task,
		resultCh: make(chan jobResult, 1),
	}

	select {
	case p.workQueue <- j:
		metricWorkQueueLength.Set(float64(len(p.workQueue)))
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-j.resultCh:
		return res.value, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stop drains the pool: running jobs finish, still-queued jobs fail with
// ErrStopped. Safe to call more than once.
func (p *Pool) Stop() {
	if !p.stopped.CompareAndSwap(false, true) {
		return
	}

	close(p.workQueue)
	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for j := range p.workQueue {
		metricWorkQueueLength.Set(float64(len(p.workQueue)))

		if p.stopped.Load() {
			j.resultCh <- jobResult{err: ErrStopped}
			metricJobs.WithLabelValues("stopped").Inc()
			continue
		}
		p.runJob(j)
	}
}

func (p *Pool) runJob(j *job) {
	defer func() {
		if r := recover(); r != nil {
			j.resultCh <- jobResult{err: errors.Errorf("recovered panic in worker: %v", r)}
			metricJobs.WithLabelValues("panic").Inc()
		}
	}()

	value, err := j.task.Execute(j.ctx)
	j.resultCh <- jobResult{value: value, err: err}

	if err != nil {
		metricJobs.WithLabelValues("error").Inc()
		return
	}
	metricJobs.WithLabelValues("success").Inc()
}
