package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-monitor/internal/observability"
	"github.com/spec-kit/sla-monitor/internal/scanner"
)

// ErrScanInProgress is returned by RunNow when a pass is already
// executing; ticks hitting the same condition are coalesced silently.
var ErrScanInProgress = errors.New("sla scan already in progress")

// ScanJob is the unit of work the runtime drives.
type ScanJob interface {
	Run(ctx context.Context) (scanner.Summary, error)
}

// Status is the externally visible scheduler state.
type Status struct {
	Running     bool             `json:"running"`
	JobName     string           `json:"job_name"`
	NextRunAt   *time.Time       `json:"next_run_at,omitempty"`
	LastSummary *scanner.Summary `json:"last_summary,omitempty"`
}

// Runtime owns the recurring timer that drives the SLA scanner. It is
// an explicit service object constructed at process start; there is no
// package-level instance. At most one scan runs at a time: a tick that
// fires mid-scan is skipped, and the missed work folds into the next
// tick because the scanner is stateless over wall-clock time.
type Runtime struct {
	jobName  string
	interval time.Duration
	job      ScanJob
	now      func() time.Time
	logger   *zap.Logger
	metrics  *observability.Metrics

	mu          sync.Mutex
	running     bool
	cancel      context.CancelFunc
	loopDone    chan struct{}
	nextRun     time.Time
	lastSummary *scanner.Summary

	inFlight atomic.Bool
	scanWG   sync.WaitGroup
}

// New constructs the runtime. The clock is injectable for tests; nil
// means time.Now.
func New(jobName string, interval time.Duration, job ScanJob, now func() time.Time, logger *zap.Logger, metrics *observability.Metrics) *Runtime {
	if interval <= 0 {
		interval = time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &Runtime{
		jobName:  jobName,
		interval: interval,
		job:      job,
		now:      now,
		logger:   logger,
		metrics:  metrics,
	}
}

// Start launches the timer loop. Idempotent: calling Start on a running
// runtime is a no-op.
func (r *Runtime) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.loopDone = make(chan struct{})
	r.running = true
	r.nextRun = r.now().Add(r.interval)

	go r.loop(ctx)
	r.logger.Info("scheduler started",
		zap.String("job", r.jobName),
		zap.Duration("interval", r.interval))
}

func (r *Runtime) loop(ctx context.Context) {
	defer close(r.loopDone)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.mu.Lock()
			r.nextRun = r.now().Add(r.interval)
			r.mu.Unlock()
			// the pass must survive Stop: per-call timeouts bound it,
			// cancellation mid-write would leave the ledger half applied
			r.tick(context.WithoutCancel(ctx))
		}
	}
}

func (r *Runtime) tick(ctx context.Context) {
	if _, err := r.runGuarded(ctx); errors.Is(err, ErrScanInProgress) {
		if r.metrics != nil {
			r.metrics.RecordSkippedTick()
		}
		r.logger.Warn("tick skipped: scan still running", zap.String("job", r.jobName))
	}
}

// RunNow executes one pass outside the normal cadence, subject to the
// same overlap guard, and returns its summary synchronously.
func (r *Runtime) RunNow(ctx context.Context) (scanner.Summary, error) {
	return r.runGuarded(ctx)
}

func (r *Runtime) runGuarded(ctx context.Context) (scanner.Summary, error) {
	if !r.inFlight.CompareAndSwap(false, true) {
		return scanner.Summary{}, ErrScanInProgress
	}
	defer r.inFlight.Store(false)

	r.scanWG.Add(1)
	defer r.scanWG.Done()

	summary, err := r.runPass(ctx)

	r.mu.Lock()
	r.lastSummary = &summary
	r.mu.Unlock()
	return summary, err
}

// runPass contains the fault boundary: nothing escaping a scan may stop
// the scheduler itself.
func (r *Runtime) runPass(ctx context.Context) (summary scanner.Summary, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("scan pass panicked",
				zap.String("job", r.jobName),
				zap.Any("panic", rec))
			summary.Errors++
			err = nil
		}
	}()

	summary, err = r.job.Run(ctx)
	if err != nil {
		r.logger.Error("scan pass failed", zap.String("job", r.jobName), zap.Error(err))
	}
	return summary, err
}

// Stop halts the timer and waits for an in-flight scan to finish, up to
// the context deadline. A scan that cannot finish in time is logged and
// left to complete in the background rather than hard-killed mid-write.
func (r *Runtime) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	cancel := r.cancel
	loopDone := r.loopDone
	r.mu.Unlock()

	cancel()
	<-loopDone

	finished := make(chan struct{})
	go func() {
		r.scanWG.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		r.logger.Info("scheduler stopped", zap.String("job", r.jobName))
		return nil
	case <-ctx.Done():
		r.logger.Error("scan did not finish within shutdown grace period",
			zap.String("job", r.jobName))
		return ctx.Err()
	}
}

// Status reports the runtime state for the health surface.
func (r *Runtime) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := Status{
		Running:     r.running,
		JobName:     r.jobName,
		LastSummary: r.lastSummary,
	}
	if r.running {
		next := r.nextRun
		status.NextRunAt = &next
	}
	return status
}
