package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aescanero/spellforge/pkg/domain"
	"github.com/aescanero/spellforge/pkg/node"
	"github.com/aescanero/spellforge/pkg/ports"
	"go.uber.org/zap"
)

// ErrPoolStopped is returned when a job is submitted to a stopped pool
var ErrPoolStopped = errors.New("worker pool stopped")

// Job is a single node execution
type Job struct {
	ExecutionID string
	Instance    *node.Instance
	Component   node.Component
	Inputs      node.Inputs
	Context     *node.Context
	// Timeout bounds the worker call; zero means no extra deadline
	Timeout time.Duration
}

// Result is the outcome of a Job
type Result struct {
	Outputs  node.Outputs
	Err      error
	Duration time.Duration
	WorkerID string
}

type request struct {
	ctx    context.Context
	job    Job
	result chan Result
}

// Pool manages a fixed set of worker goroutines executing node jobs
type Pool struct {
	size    int
	metrics ports.MetricsCollector
	logger  *zap.Logger
	health  *HealthMonitor

	jobs    chan request
	workers []*worker
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// worker represents a single worker goroutine
type worker struct {
	id      string
	pool    *Pool
	status  WorkerStatus
	mu      sync.RWMutex
	lastJob time.Time
}

// WorkerStatus represents worker status
type WorkerStatus string

const (
	WorkerStatusIdle    WorkerStatus = "idle"
	WorkerStatusBusy    WorkerStatus = "busy"
	WorkerStatusStopped WorkerStatus = "stopped"
)

// NewPool creates a new worker pool
func NewPool(
	size int,
	metrics ports.MetricsCollector,
	logger *zap.Logger,
	healthCheckInterval time.Duration,
) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	pool := &Pool{
		size:    size,
		metrics: metrics,
		logger:  logger,
		jobs:    make(chan request),
		workers: make([]*worker, size),
		ctx:     ctx,
		cancel:  cancel,
	}

	pool.health = NewHealthMonitor(pool, healthCheckInterval, logger)

	return pool
}

// Start starts the worker pool
func (p *Pool) Start() error {
	if p.size < 1 {
		return fmt.Errorf("worker pool size must be at least 1")
	}

	p.logger.Info("starting worker pool", zap.Int("size", p.size))

	for i := 0; i < p.size; i++ {
		w := &worker{
			id:      fmt.Sprintf("worker-%d", i),
			pool:    p,
			status:  WorkerStatusIdle,
			lastJob: time.Now(),
		}
		p.workers[i] = w

		p.wg.Add(1)
		go w.run(p.ctx)
	}

	p.health.Start()

	p.logger.Info("worker pool started", zap.Int("workers", p.size))
	return nil
}

// Shutdown stops accepting jobs and waits for running jobs to finish
func (p *Pool) Shutdown(ctx context.Context) error {
	p.logger.Info("shutting down worker pool")

	p.health.Stop()
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool shut down complete")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout")
	}
}

// Execute runs job on the next free worker and waits for its result.
// It returns early with ctx's error if ctx ends first.
func (p *Pool) Execute(ctx context.Context, job Job) Result {
	req := request{ctx: ctx, job: job, result: make(chan Result, 1)}

	select {
	case p.jobs <- req:
	case <-ctx.Done():
		return Result{Err: ctx.Err()}
	case <-p.ctx.Done():
		return Result{Err: ErrPoolStopped}
	}

	select {
	case res := <-req.result:
		return res
	case <-ctx.Done():
		return Result{Err: ctx.Err()}
	}
}

// GetStatus returns the status of all workers
func (p *Pool) GetStatus() map[string]WorkerStatus {
	status := make(map[string]WorkerStatus)
	for _, w := range p.workers {
		if w == nil {
			continue
		}
		w.mu.RLock()
		status[w.id] = w.status
		w.mu.RUnlock()
	}
	return status
}

// Health returns the pool health monitor
func (p *Pool) Health() *HealthMonitor {
	return p.health
}

// run is the main worker loop
func (w *worker) run(ctx context.Context) {
	defer w.pool.wg.Done()

	w.pool.logger.Debug("worker started", zap.String("worker_id", w.id))

	for {
		select {
		case <-ctx.Done():
			w.setStatus(WorkerStatusStopped)
			w.pool.logger.Debug("worker stopped", zap.String("worker_id", w.id))
			return
		case req := <-w.pool.jobs:
			req.result <- w.handle(req)
		}
	}
}

func (w *worker) setStatus(s WorkerStatus) {
	w.mu.Lock()
	w.status = s
	if s == WorkerStatusBusy {
		w.lastJob = time.Now()
	}
	w.mu.Unlock()
}

// handle executes one node job and checks its outputs against the definition
func (w *worker) handle(req request) (res Result) {
	w.setStatus(WorkerStatusBusy)
	defer w.setStatus(WorkerStatusIdle)

	job := req.job
	def := job.Component.Definition()
	start := time.Now()

	ctx := req.ctx
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			res = Result{Err: fmt.Errorf("worker panic in %s: %v", def.Name(), r)}
		}
		res.Duration = time.Since(start)
		res.WorkerID = w.id

		status := domain.ExecutionStatusCompleted
		if res.Err != nil {
			status = domain.ExecutionStatusFailed
		}
		w.pool.metrics.RecordNodeExecuted(def.Name(), string(status), res.Duration)
	}()

	w.pool.logger.Debug("executing node",
		zap.String("worker_id", w.id),
		zap.String("execution_id", job.ExecutionID),
		zap.String("node_id", job.Instance.ID),
		zap.String("component", def.Name()))

	out, err := job.Component.Work(ctx, job.Instance, job.Inputs, job.Context)
	if err != nil {
		return Result{Err: err}
	}

	if err := def.CheckOutputs(out); err != nil {
		return Result{Err: err}
	}

	return Result{Outputs: out}
}
