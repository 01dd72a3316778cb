package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// ExpiredTokenPurger removes reset tokens that can no longer be redeemed
type ExpiredTokenPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// CronService runs periodic housekeeping jobs
type CronService struct {
	cron     *cron.Cron
	purger   ExpiredTokenPurger
	schedule string
	logger   *slog.Logger
}

// NewCronService creates a new cron service
func NewCronService(purger ExpiredTokenPurger, schedule string, logger *slog.Logger) *CronService {
	return &CronService{
		cron:     cron.New(),
		purger:   purger,
		schedule: schedule,
		logger:   logger.With("svc", "cron"),
	}
}

// Start registers the jobs and starts the scheduler
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.PurgeExpiredTokens); err != nil {
		return fmt.Errorf("invalid purge schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.logger.Info("cron started", "purge_schedule", s.schedule)
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("cron stopped")
}

// PurgeExpiredTokens deletes expired reset tokens
func (s *CronService) PurgeExpiredTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.purger.PurgeExpired(ctx)
	if err != nil {
		s.logger.Error("purge expired reset tokens failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("purged expired reset tokens", "count", n)
	}
}
