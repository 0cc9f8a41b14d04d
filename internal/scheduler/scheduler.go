package scheduler

import (
	"context"
	"fmt"

	"github.com/Dan9191/budget-ledger/internal/models"
	"github.com/Dan9191/budget-ledger/internal/service"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Processor materializes due recurring transactions.
type Processor interface {
	ProcessDue(ctx context.Context, asOf models.Date, mode models.Mode) (*service.ProcessReport, error)
}

// Notifier is told about templates that failed during a run.
type Notifier interface {
	SendRecurringFailures(report *service.ProcessReport) error
}

// Scheduler runs ProcessDue on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	proc     Processor
	notifier Notifier
	mode     models.Mode
	log      *logrus.Logger
	today    func() models.Date
}

// New creates a scheduler. notifier may be nil.
func New(proc Processor, notifier Notifier, mode models.Mode, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLogger(cron.PrintfLogger(log))),
		proc:     proc,
		notifier: notifier,
		mode:     mode,
		log:      log,
		today:    models.Today,
	}
}

// Start registers the job under schedule (e.g. "@daily" or "0 6 * * *") and starts the cron loop.
func (s *Scheduler) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, func() { s.RunOnce(context.Background()) }); err != nil {
		return fmt.Errorf("invalid recurring schedule %q: %w", schedule, err)
	}
	s.cron.Start()
	s.log.Infof("Recurring processor scheduled: %s", schedule)
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce processes everything due today.
func (s *Scheduler) RunOnce(ctx context.Context) *service.ProcessReport {
	report, err := s.proc.ProcessDue(ctx, s.today(), s.mode)
	if err != nil {
		s.log.Errorf("Recurring processing failed: %v", err)
		return nil
	}
	if len(report.Failures) > 0 && s.notifier != nil {
		if err := s.notifier.SendRecurringFailures(report); err != nil {
			s.log.Warnf("Failed to notify about recurring failures: %v", err)
		}
	}
	return report
}
