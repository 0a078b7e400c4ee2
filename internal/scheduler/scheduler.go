package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"equityDayBot/internal/domain"
	"equityDayBot/internal/ports"
)

// Scheduler triggers bot runs on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	invoker ports.RunInvoker
	logger  ports.Logger
	ctx     context.Context
	loc     *time.Location
	entry   cron.EntryID
}

// New creates a scheduler firing spec (six fields, seconds first) in loc.
// Overlapping runs are skipped. ctx bounds every triggered run.
func New(ctx context.Context, invoker ports.RunInvoker, spec string, loc *time.Location, logger ports.Logger) (*Scheduler, error) {
	if invoker == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for Scheduler")
	}
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		invoker: invoker,
		logger:  logger,
		ctx:     ctx,
		loc:     loc,
	}
	id, err := s.cron.AddFunc(spec, s.runScheduled)
	if err != nil {
		return nil, fmt.Errorf("register run schedule %q: %w: %w", spec, ports.ErrConfigurationError, err)
	}
	s.entry = id
	return s, nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info(s.ctx, "Scheduler started", map[string]interface{}{"nextRun": s.Next(time.Now()).Format(time.RFC3339)})
}

// Stop stops the scheduler and waits for a running job, up to ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info(ctx, "Scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn(ctx, "Scheduler stop timed out with a run in progress")
	}
}

// Next returns the first scheduled time after t, in the schedule's location.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.cron.Entry(s.entry).Schedule.Next(t.In(s.loc))
}

// RunNow performs a scheduled run immediately.
func (s *Scheduler) RunNow() domain.RunResult {
	return s.run()
}

func (s *Scheduler) runScheduled() {
	s.run()
}

func (s *Scheduler) run() domain.RunResult {
	s.logger.Info(s.ctx, "Running scheduled bot run")
	result := s.invoker.Invoke(s.ctx, domain.RunEvent{})
	if result.Failed() {
		s.logger.Error(s.ctx, fmt.Errorf("%s", result.Error), "Scheduled run failed", map[string]interface{}{
			"runID": result.RunID, "errorType": result.ErrorType,
		})
		return result
	}
	s.logger.Info(s.ctx, "Scheduled run complete", map[string]interface{}{
		"runID": result.RunID, "trades": result.Summary.Trades, "skips": result.Summary.Skips,
	})
	return result
}
