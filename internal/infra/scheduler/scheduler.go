package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"seller_escalation_bot/internal/app" // For Dispatcher interface
)

type WeeklyScheduler struct {
	cronEngine *cron.Cron
	dispatcher app.Dispatcher // Using the interface
	logger     *logrus.Entry
	cronSpec   string        // e.g., "0 9 * * 1" (9:00 AM every Monday)
	runTimeout time.Duration // upper bound for one run
}

func NewWeeklyScheduler(dispatcher app.Dispatcher, logger *logrus.Entry, cronSpec string, runTimeout time.Duration) *WeeklyScheduler {
	logger = logger.WithField("component", "scheduler")
	return &WeeklyScheduler{
		// A run that outlasts its slot makes the next trigger a no-op instead of overlapping.
		cronEngine: cron.New(
			cron.WithLocation(time.Local), // Use server's local time for cron
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(logger))),
		),
		dispatcher: dispatcher,
		logger:     logger,
		cronSpec:   cronSpec,
		runTimeout: runTimeout,
	}
}

func (s *WeeklyScheduler) Start() error {
	s.logger.Info("Starting weekly scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		s.logger.Info("Cron job triggered for weekly run.")
		s.executeRun()
	})
	if err != nil {
		return fmt.Errorf("could not add weekly cron job %q: %w", s.cronSpec, err)
	}

	s.cronEngine.Start()
	s.logger.WithField("spec", s.cronSpec).Info("Weekly scheduler started.")
	return nil
}

// executeRun runs one weekly dispatch bounded by the run timeout.
func (s *WeeklyScheduler) executeRun() {
	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	report, err := s.dispatcher.RunWeekly(ctx)
	switch {
	case errors.Is(err, app.ErrRunInProgress):
		s.logger.Warn("Weekly run skipped, another run is in progress.")
	case err != nil:
		s.logger.WithError(err).Error("Error during weekly run")
	default:
		s.logger.WithFields(logrus.Fields{
			"notified":    report.Notified,
			"emails_sent": report.EmailsSent,
		}).Info("Weekly run completed successfully.")
	}
}

func (s *WeeklyScheduler) Stop() {
	s.logger.Info("Stopping weekly scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Info("Weekly scheduler gracefully stopped.")
}
