package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultBatchSize is the number of incidents retried per run
const DefaultBatchSize = 50

// GeocodeRetrier re-resolves incidents whose geocoding failed
type GeocodeRetrier interface {
	RetryGeocoding(ctx context.Context, limit int) (int, error)
}

// Scheduler runs periodic background jobs
type Scheduler struct {
	cron      *cron.Cron
	retrier   GeocodeRetrier
	spec      string
	batchSize int
	timeout   time.Duration
}

// NewScheduler creates a scheduler running the geocode retry on the given cron spec
func NewScheduler(retrier GeocodeRetrier, spec string) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		retrier:   retrier,
		spec:      spec,
		batchSize: DefaultBatchSize,
		timeout:   5 * time.Minute,
	}
}

// Start registers the jobs and starts the cron loop
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.retryGeocoding); err != nil {
		zap.S().Errorw("failed to register geocode retry job",
			"schedule", s.spec,
			"error", err)
		return err
	}
	s.cron.Start()
	zap.S().Infow("scheduler started", "schedule", s.spec)
	return nil
}

// Stop waits for running jobs and stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("scheduler stopped")
}

func (s *Scheduler) retryGeocoding() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.retrier.RetryGeocoding(ctx, s.batchSize)
	if err != nil {
		zap.S().Errorw("geocode retry job failed",
			"resolved", n,
			"error", err)
		return
	}
	if n > 0 {
		zap.S().Infow("geocode retry job resolved incidents", "resolved", n)
	}
}
