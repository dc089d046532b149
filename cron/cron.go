package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/meinhoongagan/groomly/lifecycle"
	"github.com/meinhoongagan/groomly/models"
	"github.com/meinhoongagan/groomly/rating"
	"github.com/meinhoongagan/groomly/utils"
	"github.com/robfig/cron/v3"
)

type Sweeper interface {
	Run(ctx context.Context) (lifecycle.Result, error)
}

type RatingRefresher interface {
	RefreshAll(ctx context.Context) (rating.RefreshSummary, error)
}

type UpcomingAppointments interface {
	StartingBetween(ctx context.Context, from, to time.Time) ([]models.Appointment, error)
}

type Mailer interface {
	SendEmail(to, subject, body string) error
}

type Schedules struct {
	Sweep         string
	RatingRefresh string
	Reminder      string
}

// Scheduler owns the background jobs. Each job gets its own timeout so a
// slow run cannot pile up behind the next tick.
type Scheduler struct {
	cron     *cron.Cron
	ctx      context.Context
	cancel   context.CancelFunc
	sweeper  Sweeper
	ratings  RatingRefresher
	upcoming UpcomingAppointments
	mailer   Mailer
	loc      *time.Location
	log      *slog.Logger
	now      func() time.Time

	reminded map[uint]time.Time
}

func NewScheduler(sweeper Sweeper, ratings RatingRefresher, upcoming UpcomingAppointments, mailer Mailer, loc *time.Location, log *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger), cron.Recover(cron.DiscardLogger)),
		),
		ctx:      ctx,
		cancel:   cancel,
		sweeper:  sweeper,
		ratings:  ratings,
		upcoming: upcoming,
		mailer:   mailer,
		loc:      loc,
		log:      log,
		now:      time.Now,
		reminded: map[uint]time.Time{},
	}
}

// Register adds the sweep, rating refresh and reminder jobs.
func (s *Scheduler) Register(sched Schedules) error {
	jobs := []struct {
		name    string
		spec    string
		timeout time.Duration
		run     func(ctx context.Context)
	}{
		{"appointment-sweep", sched.Sweep, 50 * time.Second, s.sweep},
		{"rating-refresh", sched.RatingRefresh, 30 * time.Minute, s.refreshRatings},
		{"appointment-reminders", sched.Reminder, 50 * time.Second, func(ctx context.Context) { s.sendReminders(ctx) }},
	}
	for _, j := range jobs {
		j := j
		if j.spec == "" {
			s.log.Warn("cron job disabled", "job", j.name)
			continue
		}
		_, err := s.cron.AddFunc(j.spec, func() {
			ctx, cancel := context.WithTimeout(s.ctx, j.timeout)
			defer cancel()
			j.run(ctx)
		})
		if err != nil {
			return fmt.Errorf("schedule %s (%q): %w", j.name, j.spec, err)
		}
		s.log.Info("cron job scheduled", "job", j.name, "spec", j.spec)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("cron scheduler started")
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.log.Info("cron scheduler stopped")
}

func (s *Scheduler) sweep(ctx context.Context) {
	// Sweeper logs its own outcome.
	_, _ = s.sweeper.Run(ctx)
}

func (s *Scheduler) refreshRatings(ctx context.Context) {
	if _, err := s.ratings.RefreshAll(ctx); err != nil {
		s.log.Error("rating refresh failed", "err", err)
	}
}

// sendReminders emails customers whose appointment starts in 55 to 65
// minutes. The window overlaps consecutive ticks, so each appointment is
// remembered and mailed once.
func (s *Scheduler) sendReminders(ctx context.Context) int {
	if s.mailer == nil {
		return 0
	}
	now := s.now()
	appts, err := s.upcoming.StartingBetween(ctx, now.Add(55*time.Minute), now.Add(65*time.Minute))
	if err != nil {
		s.log.Error("load upcoming appointments failed", "err", err)
		return 0
	}

	for id, at := range s.reminded {
		if now.Sub(at) > 2*time.Hour {
			delete(s.reminded, id)
		}
	}

	sent := 0
	for i := range appts {
		appt := &appts[i]
		if _, done := s.reminded[appt.ID]; done {
			continue
		}
		if appt.Customer == nil || appt.Customer.Email == "" {
			continue
		}
		subject, body := utils.Reminder(appt, s.loc)
		if err := s.mailer.SendEmail(appt.Customer.Email, subject, body); err != nil {
			s.log.Warn("reminder email failed", "appointment_id", appt.ID, "err", err)
			continue
		}
		s.reminded[appt.ID] = now
		sent++
	}
	if sent > 0 {
		s.log.Info("appointment reminders sent", "found", len(appts), "sent", sent)
	}
	return sent
}
