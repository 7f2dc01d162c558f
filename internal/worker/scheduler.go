package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/salesdeck/crm-api/pkg/logger"
	"github.com/salesdeck/crm-api/pkg/metrics"
)

// JobFunc is one sweep execution.
type JobFunc func(ctx context.Context) error

// Job is a named periodic sweep. inFlight guards against a tick firing
// while the previous run is still going; overlapping runs of the same
// sweep are skipped, not queued.
type Job struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration
	Run      JobFunc

	inFlight atomic.Bool
	nextDue  atomic.Int64
}

// NextDue reports when the job will next fire.
func (j *Job) NextDue() time.Time {
	return time.Unix(0, j.nextDue.Load())
}

// Scheduler drives the automation sweeps. Each job gets its own ticker
// goroutine; jobs never block one another.
type Scheduler struct {
	jobs    []*Job
	logger  *logger.Logger
	metrics *metrics.Metrics
	wg      sync.WaitGroup
}

func NewScheduler(log *logger.Logger, m *metrics.Metrics) *Scheduler {
	return &Scheduler{
		logger:  log,
		metrics: m,
	}
}

// Register adds a job. Must be called before Start.
func (s *Scheduler) Register(name string, interval time.Duration, run JobFunc) *Job {
	job := &Job{
		Name:     name,
		Interval: interval,
		// A sweep must finish well inside its own interval; cap long
		// cadences so a hung query cannot stall a run for hours.
		Timeout: minDuration(interval, 5*time.Minute),
		Run:     run,
	}
	s.jobs = append(s.jobs, job)
	return job
}

// Start launches all registered jobs and blocks until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.runLoop(ctx, job)
	}
	s.wg.Wait()
}

func (s *Scheduler) runLoop(ctx context.Context, job *Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	s.logger.Info("job scheduled", "job", job.Name, "interval", job.Interval.String())
	job.nextDue.Store(time.Now().Add(job.Interval).UnixNano())

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("job stopped", "job", job.Name)
			return
		case <-ticker.C:
			job.nextDue.Store(time.Now().Add(job.Interval).UnixNano())
			s.RunNow(ctx, job)
		}
	}
}

// RunNow executes one sweep immediately, honoring the re-entrancy
// guard. Returns false if the job was skipped because a previous run is
// still in flight.
func (s *Scheduler) RunNow(ctx context.Context, job *Job) bool {
	if !job.inFlight.CompareAndSwap(false, true) {
		if s.metrics != nil {
			s.metrics.SweepSkips.WithLabelValues(job.Name).Inc()
		}
		s.logger.Warn("sweep still in flight, skipping tick", "job", job.Name)
		return false
	}
	defer job.inFlight.Store(false)

	runCtx, cancel := context.WithTimeout(ctx, job.Timeout)
	defer cancel()

	var timer *prometheus.Timer
	if s.metrics != nil {
		s.metrics.SweepRuns.WithLabelValues(job.Name).Inc()
		timer = prometheus.NewTimer(s.metrics.SweepDuration.WithLabelValues(job.Name))
	}

	if err := job.Run(runCtx); err != nil {
		if s.metrics != nil {
			s.metrics.SweepFailures.WithLabelValues(job.Name).Inc()
		}
		s.logger.Error(err, "sweep failed", "job", job.Name)
	}

	if timer != nil {
		timer.ObserveDuration()
	}
	return true
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
