package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/hatchery-backend/pkg/logger"
)

const (
	defaultInterval   = 24 * time.Hour
	defaultJobTimeout = 10 * time.Minute
)

type runRecorder interface {
	ObserveRun(job string, took time.Duration, err error)
}

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  runRecorder
	Interval time.Duration
	// JobTimeout bounds a single job; the lease TTL should exceed the sum.
	JobTimeout time.Duration
}

// Service runs the retention sweeps on a fixed cadence, one replica at a time.
type Service struct {
	logg       *logger.Logger
	registry   *Registry
	lock       Lock
	metrics    runRecorder
	interval   time.Duration
	jobTimeout time.Duration
}

// NewService builds a cron service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	svc := &Service{
		logg:       params.Logger,
		registry:   params.Registry,
		lock:       params.Lock,
		metrics:    params.Metrics,
		interval:   params.Interval,
		jobTimeout: params.JobTimeout,
	}
	if svc.registry == nil {
		svc.registry = &Registry{}
	}
	if svc.interval <= 0 {
		svc.interval = defaultInterval
	}
	if svc.jobTimeout <= 0 {
		svc.jobTimeout = defaultJobTimeout
	}
	return svc, nil
}

// Run sweeps immediately and then every interval until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			s.logg.Error(ctx, "sweep cycle failed", err)
		}
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// CycleReport summarises one sweep cycle.
type CycleReport struct {
	Skipped bool
	Failed  []string
}

// RunOnce performs a single locked sweep cycle. Job failures are reported but
// do not stop later jobs; only lock errors and cancellation return an error.
func (s *Service) RunOnce(ctx context.Context) (CycleReport, error) {
	lease, ok, err := s.lock.Acquire(ctx)
	if err != nil {
		return CycleReport{}, fmt.Errorf("lock acquire: %w", err)
	}
	if !ok {
		s.logg.Info(ctx, "sweep lease held elsewhere; skipping cycle")
		return CycleReport{Skipped: true}, nil
	}
	defer func() {
		// release even when the cycle context was canceled mid-sweep
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if relErr := lease.Release(releaseCtx); relErr != nil {
			s.logg.Error(ctx, "release sweep lease", relErr)
		}
	}()

	var report CycleReport
	for _, job := range s.registry.Jobs() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := s.runJob(ctx, job); err != nil {
			report.Failed = append(report.Failed, job.Name())
		}
	}
	s.logg.Info(s.logg.WithField(ctx, "failed_jobs", len(report.Failed)), "sweep cycle complete")
	return report, nil
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	jobCtx, cancel := context.WithTimeout(s.logg.WithField(ctx, "job", job.Name()), s.jobTimeout)
	defer cancel()

	start := time.Now()
	err := job.Run(jobCtx)
	took := time.Since(start)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		err = fmt.Errorf("%s exceeded %s: %w", job.Name(), s.jobTimeout, err)
	}
	if s.metrics != nil {
		s.metrics.ObserveRun(job.Name(), took, err)
	}

	logCtx := s.logg.WithField(jobCtx, "duration_ms", took.Milliseconds())
	if err != nil {
		s.logg.Error(logCtx, "sweep job failed", err)
		return err
	}
	s.logg.Info(logCtx, "sweep job done")
	return nil
}
