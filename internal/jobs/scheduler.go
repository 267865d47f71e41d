package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type scheduledJob struct {
	job      Job
	interval time.Duration
	ticker   *time.Ticker
}

// Scheduler is responsible for running background jobs.
// Implements cartridge.BackgroundWorker.
type Scheduler struct {
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	enabled   bool
	isRunning bool
	jobs      []*scheduledJob
	wg        sync.WaitGroup

	// Mutex to prevent concurrent job executions
	processingMutex sync.Mutex
	isProcessing    bool
}

// NewScheduler creates an empty scheduler.
func NewScheduler(logger *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		enabled: true,
	}
}

// Register adds a job. Jobs with a non-positive interval are skipped.
func (s *Scheduler) Register(job Job, interval time.Duration) {
	if interval <= 0 {
		s.logger.Info("Background job disabled", slog.String("job", job.Name()))
		return
	}
	s.jobs = append(s.jobs, &scheduledJob{job: job, interval: interval})
}

// executeJobSafely runs a job only if no other job is currently executing
func (s *Scheduler) executeJobSafely(job Job) {
	s.processingMutex.Lock()
	if s.isProcessing {
		s.logger.Debug("Skipping job execution - previous job still running", slog.String("job", job.Name()))
		s.processingMutex.Unlock()
		return
	}
	s.isProcessing = true
	s.processingMutex.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic recovered in background job",
				slog.String("job", job.Name()),
				slog.Any("panic", r))
		}

		s.processingMutex.Lock()
		s.isProcessing = false
		s.processingMutex.Unlock()
	}()

	if err := job.Run(s.ctx); err != nil {
		s.logger.Error("Error executing job", slog.String("job", job.Name()), slog.Any("error", err))
	}
}

// Start begins all background jobs
func (s *Scheduler) Start() error {
	if !s.enabled {
		s.logger.Info("Background jobs are disabled.")
		return nil
	}

	if s.isRunning {
		s.logger.Info("Background jobs already running.")
		return nil
	}

	s.isRunning = true
	for _, sj := range s.jobs {
		s.startJob(sj)
	}

	s.logger.Info("Background jobs started", slog.Int("jobs", len(s.jobs)))
	return nil
}

func (s *Scheduler) startJob(sj *scheduledJob) {
	s.logger.Info("Starting background job",
		slog.String("job", sj.job.Name()),
		slog.Duration("interval", sj.interval))
	sj.ticker = time.NewTicker(sj.interval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.executeJobSafely(sj.job)

		for {
			select {
			case <-sj.ticker.C:
				s.executeJobSafely(sj.job)
			case <-s.ctx.Done():
				s.logger.Info("Background job stopped", slog.String("job", sj.job.Name()))
				return
			}
		}
	}()
}

// Stop halts all background jobs and waits for running ones to return.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background jobs...")
	s.enabled = false

	for _, sj := range s.jobs {
		if sj.ticker != nil {
			sj.ticker.Stop()
		}
	}

	s.cancel()
	s.wg.Wait()
	s.isRunning = false
	s.logger.Info("Background jobs stopped")
}

// IsRunning returns whether jobs are currently running
func (s *Scheduler) IsRunning() bool {
	return s.isRunning
}
