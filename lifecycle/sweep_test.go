package lifecycle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/meinhoongagan/groomly/events"
	"github.com/meinhoongagan/groomly/models"
	"gorm.io/gorm"
)

type mockStore struct {
	rows      map[uint]*models.Appointment
	failOn    map[uint]bool
	expireLog []uint
}

func newMockStore(appts ...models.Appointment) *mockStore {
	m := &mockStore{rows: map[uint]*models.Appointment{}, failOn: map[uint]bool{}}
	for i := range appts {
		a := appts[i]
		m.rows[a.ID] = &a
	}
	return m
}

func (m *mockStore) Overdue(_ context.Context, now time.Time) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, a := range m.rows {
		if (a.Status == models.StatusPending || a.Status == models.StatusInProgress) && a.EndAt().Before(now) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockStore) Expire(_ context.Context, id uint, now time.Time) (bool, error) {
	m.expireLog = append(m.expireLog, id)
	if m.failOn[id] {
		return false, errors.New("write failed")
	}
	a := m.rows[id]
	if a.Status != models.StatusPending && a.Status != models.StatusInProgress {
		return false, nil
	}
	a.Status = models.StatusExpired
	a.UpdatedAt = now
	return true, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func appt(id uint, status models.AppointmentStatus, start time.Time, minutes int) models.Appointment {
	return models.Appointment{Model: gorm.Model{ID: id}, Status: status, StartTime: start, Duration: minutes}
}

func TestSweep(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	score := 4.5

	rated := appt(5, models.StatusInProgress, now.Add(-2*time.Hour), 30)
	rated.PaymentStatus = models.PaymentPaid
	rated.RatingScore = &score

	store := newMockStore(
		appt(1, models.StatusPending, now.Add(-time.Hour), 30),
		appt(2, models.StatusPending, now.Add(-30*time.Minute), 30),
		appt(3, models.StatusPending, now.Add(-10*time.Minute), 30),
		appt(4, models.StatusCompleted, now.Add(-3*time.Hour), 30),
		appt(6, models.StatusCancelled, now.Add(-3*time.Hour), 30),
		rated,
	)

	res, err := Sweep(context.Background(), store, now, discard())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if res.Expired != 2 || res.Failed != 0 {
		t.Errorf("Sweep() = %+v, want 2 expired", res)
	}

	want := map[uint]models.AppointmentStatus{
		1: models.StatusExpired,
		2: models.StatusPending,
		3: models.StatusPending,
		4: models.StatusCompleted,
		5: models.StatusExpired,
		6: models.StatusCancelled,
	}
	for id, status := range want {
		if got := store.rows[id].Status; got != status {
			t.Errorf("appointment %d status = %s, want %s", id, got, status)
		}
	}
	if r := store.rows[5]; r.PaymentStatus != models.PaymentPaid || r.RatingScore == nil || *r.RatingScore != score {
		t.Errorf("sweep touched fields other than status: %+v", r)
	}
}

func TestSweep_ContinuesAfterFailure(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newMockStore(
		appt(1, models.StatusPending, now.Add(-2*time.Hour), 30),
		appt(2, models.StatusPending, now.Add(-2*time.Hour), 30),
		appt(3, models.StatusInProgress, now.Add(-2*time.Hour), 30),
	)
	store.failOn[2] = true

	res, err := Sweep(context.Background(), store, now, discard())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if res.Scanned != 3 || res.Expired != 2 || res.Failed != 1 {
		t.Errorf("Sweep() = %+v, want 3 scanned, 2 expired, 1 failed", res)
	}
	if store.rows[1].Status != models.StatusExpired || store.rows[3].Status != models.StatusExpired {
		t.Errorf("records after the failing one were not expired")
	}
}

// raceStore reports an appointment as overdue but lets a provider complete it
// before the sweep writes.
type raceStore struct {
	*mockStore
}

func (r raceStore) Overdue(ctx context.Context, now time.Time) ([]models.Appointment, error) {
	out, err := r.mockStore.Overdue(ctx, now)
	for _, a := range out {
		r.rows[a.ID].Status = models.StatusCompleted
	}
	return out, err
}

func TestSweep_ConcurrentCompletionWins(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store := raceStore{newMockStore(appt(1, models.StatusInProgress, now.Add(-2*time.Hour), 30))}

	res, err := Sweep(context.Background(), store, now, discard())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if res.Skipped != 1 || res.Expired != 0 {
		t.Errorf("Sweep() = %+v, want 1 skipped", res)
	}
	if store.rows[1].Status != models.StatusCompleted {
		t.Errorf("status = %s, want completed", store.rows[1].Status)
	}
}

type recordingPublisher struct {
	types []string
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.types = append(p.types, e.Type)
	return nil
}

func TestSweeper_PublishesExpiries(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newMockStore(
		appt(1, models.StatusPending, now.Add(-2*time.Hour), 30),
		appt(2, models.StatusPending, now.Add(time.Hour), 30),
	)
	pub := &recordingPublisher{}
	s := NewSweeper(store, pub, discard())
	s.now = func() time.Time { return now }

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(pub.types) != 1 || pub.types[0] != events.AppointmentExpired {
		t.Errorf("published %v, want one appointment.expired", pub.types)
	}
}
