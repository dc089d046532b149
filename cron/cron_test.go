package cron

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/meinhoongagan/groomly/lifecycle"
	"github.com/meinhoongagan/groomly/models"
	"github.com/meinhoongagan/groomly/rating"
	"gorm.io/gorm"
)

type stubSweeper struct{ runs int }

func (s *stubSweeper) Run(context.Context) (lifecycle.Result, error) {
	s.runs++
	return lifecycle.Result{}, nil
}

type stubRatings struct{ runs int }

func (s *stubRatings) RefreshAll(context.Context) (rating.RefreshSummary, error) {
	s.runs++
	return rating.RefreshSummary{}, nil
}

type stubUpcoming struct {
	appts []models.Appointment
	from  time.Time
	to    time.Time
}

func (s *stubUpcoming) StartingBetween(_ context.Context, from, to time.Time) ([]models.Appointment, error) {
	s.from, s.to = from, to
	return s.appts, nil
}

type recordingMailer struct {
	to []string
}

func (m *recordingMailer) SendEmail(to, subject, body string) error {
	m.to = append(m.to, to)
	return nil
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_RegisterRejectsBadSpec(t *testing.T) {
	s := NewScheduler(&stubSweeper{}, &stubRatings{}, &stubUpcoming{}, &recordingMailer{}, time.UTC, quiet())
	if err := s.Register(Schedules{Sweep: "not a spec"}); err == nil {
		t.Fatal("Register() accepted an invalid cron spec")
	}

	s = NewScheduler(&stubSweeper{}, &stubRatings{}, &stubUpcoming{}, &recordingMailer{}, time.UTC, quiet())
	if err := s.Register(Schedules{Sweep: "* * * * *", RatingRefresh: "0 0 * * *", Reminder: ""}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if got := len(s.cron.Entries()); got != 2 {
		t.Errorf("registered %d jobs, want 2", got)
	}
}

func TestScheduler_JobsDelegate(t *testing.T) {
	sw, rt := &stubSweeper{}, &stubRatings{}
	s := NewScheduler(sw, rt, &stubUpcoming{}, &recordingMailer{}, time.UTC, quiet())
	s.sweep(context.Background())
	s.refreshRatings(context.Background())
	if sw.runs != 1 || rt.runs != 1 {
		t.Errorf("sweep runs = %d, refresh runs = %d", sw.runs, rt.runs)
	}
}

func TestScheduler_SendRemindersOncePerAppointment(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	upcoming := &stubUpcoming{appts: []models.Appointment{
		{Model: gorm.Model{ID: 1}, Customer: &models.User{Email: "a@example.com"}, StartTime: now.Add(time.Hour), Duration: 30},
		{Model: gorm.Model{ID: 2}, Customer: &models.User{}, StartTime: now.Add(time.Hour), Duration: 30},
	}}
	mailer := &recordingMailer{}
	s := NewScheduler(&stubSweeper{}, &stubRatings{}, upcoming, mailer, time.UTC, quiet())
	s.now = func() time.Time { return now }

	if sent := s.sendReminders(context.Background()); sent != 1 {
		t.Fatalf("first tick sent %d, want 1", sent)
	}
	if !upcoming.from.Equal(now.Add(55*time.Minute)) || !upcoming.to.Equal(now.Add(65*time.Minute)) {
		t.Errorf("window = %s..%s", upcoming.from, upcoming.to)
	}

	now = now.Add(time.Minute)
	if sent := s.sendReminders(context.Background()); sent != 0 {
		t.Errorf("second tick sent %d, want 0", sent)
	}
	if len(mailer.to) != 1 || mailer.to[0] != "a@example.com" {
		t.Errorf("mailed %v", mailer.to)
	}
}
