package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-monitor/internal/observability"
	"github.com/spec-kit/sla-monitor/internal/scanner"
)

type stubJob struct {
	mu      sync.Mutex
	runs    int
	summary scanner.Summary
	err     error
	block   chan struct{} // when non-nil, Run waits until closed
	started chan struct{} // signalled once per Run entry
	panics  bool
}

func (j *stubJob) Run(ctx context.Context) (scanner.Summary, error) {
	j.mu.Lock()
	j.runs++
	block := j.block
	j.mu.Unlock()

	if j.started != nil {
		j.started <- struct{}{}
	}
	if j.panics {
		panic("scan blew up")
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return scanner.Summary{}, ctx.Err()
		}
	}
	return j.summary, j.err
}

func (j *stubJob) runCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.runs
}

func newTestRuntime(job ScanJob, interval time.Duration) *Runtime {
	return New("test-scan", interval, job, nil, zap.NewNop(), observability.NewMetrics())
}

func TestRunNowReturnsSummary(t *testing.T) {
	job := &stubJob{summary: scanner.Summary{TicketsExamined: 7, WarningsSent: 2}}
	r := newTestRuntime(job, time.Hour)

	summary, err := r.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, summary.TicketsExamined)
	assert.Equal(t, 2, summary.WarningsSent)
	assert.Equal(t, 1, job.runCount())

	status := r.Status()
	require.NotNil(t, status.LastSummary)
	assert.Equal(t, 7, status.LastSummary.TicketsExamined)
}

func TestRunNowRejectsOverlap(t *testing.T) {
	job := &stubJob{
		block:   make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	r := newTestRuntime(job, time.Hour)

	done := make(chan error, 1)
	go func() {
		_, err := r.RunNow(context.Background())
		done <- err
	}()
	<-job.started

	_, err := r.RunNow(context.Background())
	assert.ErrorIs(t, err, ErrScanInProgress)

	close(job.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, job.runCount())

	// guard released: a fresh pass is allowed again
	_, err = r.RunNow(context.Background())
	require.NoError(t, err)
}

func TestStartIsIdempotent(t *testing.T) {
	job := &stubJob{}
	r := newTestRuntime(job, time.Hour)

	r.Start()
	r.Start()
	r.Start()

	status := r.Status()
	assert.True(t, status.Running)
	assert.Equal(t, "test-scan", status.JobName)
	require.NotNil(t, status.NextRunAt)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Stop(stopCtx))
}

func TestStopIsIdempotentAndClearsRunning(t *testing.T) {
	job := &stubJob{}
	r := newTestRuntime(job, time.Hour)
	r.Start()

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Stop(stopCtx))
	require.NoError(t, r.Stop(stopCtx))

	status := r.Status()
	assert.False(t, status.Running)
	assert.Nil(t, status.NextRunAt)
}

func TestTickerDrivesJob(t *testing.T) {
	job := &stubJob{summary: scanner.Summary{TicketsExamined: 1}}
	r := newTestRuntime(job, 10*time.Millisecond)

	r.Start()
	assert.Eventually(t, func() bool {
		return job.runCount() >= 2
	}, time.Second, 5*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Stop(stopCtx))
}

func TestOverlappingTicksCoalesce(t *testing.T) {
	job := &stubJob{
		block:   make(chan struct{}),
		started: make(chan struct{}, 16),
	}
	r := newTestRuntime(job, 10*time.Millisecond)

	r.Start()
	<-job.started
	// several intervals elapse while the first pass holds the guard
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, job.runCount())
	close(job.block)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Stop(stopCtx))
}

func TestStopWaitsForInFlightScan(t *testing.T) {
	job := &stubJob{
		block:   make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	r := newTestRuntime(job, time.Hour)

	done := make(chan struct{})
	go func() {
		_, _ = r.RunNow(context.Background())
		close(done)
	}()
	<-job.started

	r.Start()
	go func() {
		time.Sleep(20 * time.Millisecond)
		close(job.block)
	}()

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Stop(stopCtx))
	<-done
}

func TestStopReturnsErrorWhenGraceExceeded(t *testing.T) {
	job := &stubJob{
		block:   make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	r := newTestRuntime(job, time.Hour)
	r.Start()

	go func() {
		_, _ = r.RunNow(context.Background())
	}()
	<-job.started

	stopCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := r.Stop(stopCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(job.block)
}

func TestJobErrorDoesNotStopScheduler(t *testing.T) {
	job := &stubJob{err: errors.New("database unavailable")}
	r := newTestRuntime(job, 10*time.Millisecond)

	r.Start()
	assert.Eventually(t, func() bool {
		return job.runCount() >= 2
	}, time.Second, 5*time.Millisecond)
	assert.True(t, r.Status().Running)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Stop(stopCtx))
}

func TestJobPanicContained(t *testing.T) {
	job := &stubJob{panics: true, started: make(chan struct{}, 16)}
	r := newTestRuntime(job, 10*time.Millisecond)

	r.Start()
	<-job.started
	<-job.started
	assert.True(t, r.Status().Running)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Stop(stopCtx))

	summary, err := r.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Errors)
}
