package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/keepsake/keepsake/internal/utils"
	"github.com/keepsake/keepsake/pkg/occurrence"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

type DailyDispatcher interface {
	RunDailyDispatch(ctx context.Context, today occurrence.Date) (Result, error)
}

// Scheduler triggers the daily dispatch on a cron schedule. "Today" is taken
// from the clock in the scheduler location when the job fires.
type Scheduler struct {
	cron       *cron.Cron
	dispatcher DailyDispatcher
	clock      utils.Clock
	location   *time.Location
	entry      cron.EntryID
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

func NewScheduler(dispatcher DailyDispatcher, clock utils.Clock, schedule string, location *time.Location) (*Scheduler, error) {
	if location == nil {
		location = time.UTC
	}
	logger := cron.PrintfLogger(log.StandardLogger())
	s := &Scheduler{
		dispatcher: dispatcher,
		clock:      clock,
		location:   location,
	}
	s.cron = cron.New(
		cron.WithParser(parser),
		cron.WithLocation(location),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	entry, err := s.cron.AddFunc(schedule, s.run)
	if err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", schedule, err)
	}
	s.entry = entry
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Infof("Reminder scheduler started, next run at %s", s.Next().Format(time.RFC3339))
}

// Stop halts the scheduler. The returned context is done once a running
// dispatch has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// Today is the current calendar date in the scheduler location.
func (s *Scheduler) Today() occurrence.Date {
	return occurrence.Today(s.clock.Now(), s.location)
}

// RunNow runs the daily dispatch immediately for today.
func (s *Scheduler) RunNow(ctx context.Context) (Result, error) {
	return s.dispatcher.RunDailyDispatch(ctx, s.Today())
}

func (s *Scheduler) run() {
	today := s.Today()
	log.Infof("Daily reminder check for %s", today)
	result, err := s.dispatcher.RunDailyDispatch(context.Background(), today)
	if err != nil {
		log.Errorf("Daily reminder run for %s failed: %v", today, err)
		return
	}
	if result.Count == 0 {
		log.Infof("No reminders sent for %s", today)
		return
	}
	log.Infof("Sent %d reminder(s) for %s: %v", result.Count, today, result.Events)
}
