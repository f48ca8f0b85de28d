package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"github.com/botiga-dev/botiga-backend/pkg/config"
	"github.com/botiga-dev/botiga-backend/pkg/db/models"
	"github.com/botiga-dev/botiga-backend/pkg/logger"
	"github.com/botiga-dev/botiga-backend/pkg/outbox"
)

const (
	fallbackBatchSize   = 50
	fallbackPollMs      = 500
	fallbackMaxAttempts = 10
	maxIdleDelay        = 10 * time.Second
	jitterWindow        = 250 * time.Millisecond
)

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type outboxRepository interface {
	WithTx(tx *gorm.DB) *outbox.Repository
}

// Dispatcher delivers a committed outbox event to its consumers.
// Returning an error leaves the row unpublished for a later attempt.
type Dispatcher interface {
	Dispatch(ctx context.Context, event models.OutboxEvent, envelope outbox.PayloadEnvelope) error
}

type ServiceParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         dbClient
	Repository outboxRepository
	Dispatcher Dispatcher
}

// Service drains the outbox table, handing each committed event to the
// dispatcher and marking the row published on success.
type Service struct {
	logg         *logger.Logger
	db           dbClient
	repo         outboxRepository
	dispatcher   Dispatcher
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
	rng          *rand.Rand
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Config == nil:
		return nil, errors.New("config is required")
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	case params.DB == nil:
		return nil, errors.New("database client is required")
	case params.Repository == nil:
		return nil, errors.New("outbox repository is required")
	case params.Dispatcher == nil:
		return nil, errors.New("dispatcher is required")
	}

	opts := params.Config.Outbox
	s := &Service{
		logg:         params.Logger,
		db:           params.DB,
		repo:         params.Repository,
		dispatcher:   params.Dispatcher,
		batchSize:    opts.BatchSize,
		maxAttempts:  opts.MaxAttempts,
		pollInterval: time.Duration(opts.PollIntervalMS) * time.Millisecond,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if s.batchSize <= 0 {
		s.batchSize = fallbackBatchSize
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = fallbackMaxAttempts
	}
	if s.pollInterval <= 0 {
		s.pollInterval = fallbackPollMs * time.Millisecond
	}
	return s, nil
}

// Run polls until ctx is canceled, backing off after failed batches.
func (s *Service) Run(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	var failures int
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		drained, err := s.processBatch(ctx)
		if err != nil {
			failures++
			s.logg.Error(ctx, "outbox batch failed", err)
		} else {
			failures = 0
			if drained {
				// keep draining while there is work
				continue
			}
		}

		if err := s.idle(ctx, failures); err != nil {
			return err
		}
	}
}

// idle waits one poll interval, doubled per consecutive failure up to a
// cap, plus jitter so concurrent replicas spread out.
func (s *Service) idle(ctx context.Context, failures int) error {
	delay := s.pollInterval
	for i := 0; i < failures && delay < maxIdleDelay; i++ {
		delay *= 2
	}
	if delay > maxIdleDelay {
		delay = maxIdleDelay
	}
	delay += time.Duration(s.rng.Int63n(int64(jitterWindow)))

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Service) processBatch(ctx context.Context) (bool, error) {
	var sawWork bool
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		batch, err := repo.FetchForDispatch(s.batchSize, s.maxAttempts)
		if err != nil {
			return err
		}
		sawWork = len(batch) > 0

		for _, event := range batch {
			if err := s.handleEvent(ctx, repo, event); err != nil {
				return err
			}
		}
		return nil
	})
	return sawWork, err
}

func (s *Service) handleEvent(ctx context.Context, repo *outbox.Repository, event models.OutboxEvent) error {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType.String(),
		"aggregate_type": event.AggregateType.String(),
		"aggregate_id":   event.AggregateID.String(),
		"attempt_count":  event.AttemptCount,
	})

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		// a malformed payload never becomes dispatchable
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "outbox payload is not a valid envelope")
		return s.recordFailure(repo, event, err)
	}

	if err := s.dispatcher.Dispatch(ctx, event, envelope); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "outbox dispatch failed")
		return s.recordFailure(repo, event, err)
	}

	if err := repo.MarkPublished(event.ID); err != nil {
		return fmt.Errorf("mark published %s: %w", event.ID, err)
	}
	s.logg.Info(ctx, "outbox event published")
	return nil
}

func (s *Service) recordFailure(repo *outbox.Repository, event models.OutboxEvent, cause error) error {
	if err := repo.MarkFailed(event.ID, cause); err != nil {
		return fmt.Errorf("mark failed %s: %w", event.ID, err)
	}
	return nil
}
