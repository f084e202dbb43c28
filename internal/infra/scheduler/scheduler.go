package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DigestSender is satisfied by app.NotificationService.
type DigestSender interface {
	SendPendingDigest(ctx context.Context) error
}

// DigestScheduler periodically pushes the pending-adjustment digest.
type DigestScheduler struct {
	cronEngine *cron.Cron
	sender     DigestSender
	logger     *logrus.Entry
	cronSpec   string
	jobTimeout time.Duration
}

func NewDigestScheduler(sender DigestSender, logger *logrus.Entry, cronSpec string) *DigestScheduler {
	return &DigestScheduler{
		cronEngine: cron.New(cron.WithLocation(time.Local)), // Use server's local time for cron
		sender:     sender,
		logger:     logger,
		cronSpec:   cronSpec,
		jobTimeout: 2 * time.Minute,
	}
}

// Start registers the digest job and starts the cron engine.
func (s *DigestScheduler) Start() error {
	s.logger.WithField("cron_spec", s.cronSpec).Info("Starting digest scheduler...")

	if _, err := s.cronEngine.AddFunc(s.cronSpec, s.runDigest); err != nil {
		return fmt.Errorf("could not add pending digest cron job: %w", err)
	}

	s.cronEngine.Start()
	s.logger.Info("Digest scheduler started.")
	return nil
}

func (s *DigestScheduler) runDigest() {
	s.logger.Info("Cron job triggered for pending adjustments digest.")
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()
	if err := s.sender.SendPendingDigest(ctx); err != nil {
		s.logger.WithError(err).Error("Error during pending digest")
	}
}

func (s *DigestScheduler) Stop() {
	s.logger.Info("Stopping digest scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Digest scheduler gracefully stopped.")
}
