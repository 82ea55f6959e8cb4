package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/hatchery-backend/pkg/logger"
)

const heartbeatInterval = time.Minute

type pinger interface {
	Ping(context.Context) error
}

type consumer interface {
	Run(ctx context.Context) error
}

type ServiceParams struct {
	Logger       *logger.Logger
	Dependencies map[string]pinger
	Consumers    map[string]consumer
}

// Service supervises the event consumers. The first consumer to fail stops
// the worker so the platform can restart it.
type Service struct {
	logg      *logger.Logger
	deps      map[string]pinger
	consumers map[string]consumer
	heartbeat time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if len(params.Consumers) == 0 {
		return nil, errors.New("at least one consumer is required")
	}
	for name, c := range params.Consumers {
		if c == nil {
			return nil, fmt.Errorf("consumer %s is nil", name)
		}
	}
	return &Service{
		logg:      params.Logger,
		deps:      params.Dependencies,
		consumers: params.Consumers,
		heartbeat: heartbeatInterval,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	for name, dep := range s.deps {
		if dep == nil {
			continue
		}
		if err := dep.Ping(ctx); err != nil {
			s.logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
			return fmt.Errorf("%s ping failed: %w", name, err)
		}
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		name string
		err  error
	}
	results := make(chan result, len(s.consumers))
	for name, c := range s.consumers {
		go func(name string, c consumer) {
			results <- result{name: name, err: c.Run(runCtx)}
		}(name, c)
	}

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "worker context canceled")
			return ctx.Err()
		case res := <-results:
			if res.err != nil && !errors.Is(res.err, context.Canceled) {
				s.logg.Error(s.logg.WithField(ctx, "consumer", res.name), "consumer stopped unexpectedly", res.err)
				return fmt.Errorf("consumer %s: %w", res.name, res.err)
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("consumer %s exited", res.name)
		case <-ticker.C:
			s.logg.Debug(ctx, "worker heartbeat")
		}
	}
}
