// Package lifecycle expires appointments whose time has passed without
// being completed or cancelled.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/meinhoongagan/groomly/events"
	"github.com/meinhoongagan/groomly/models"
)

type Store interface {
	Overdue(ctx context.Context, now time.Time) ([]models.Appointment, error)
	Expire(ctx context.Context, id uint, now time.Time) (bool, error)
}

type Result struct {
	Scanned int
	Expired int
	Skipped int
	Failed  int
}

// Sweep moves every pending or in-progress appointment whose end time is
// before now to expired. Each row is updated on its own and only if it is
// still active, so a provider action racing the sweep wins. A failing row
// is logged and the sweep moves on.
func Sweep(ctx context.Context, store Store, now time.Time, log *slog.Logger) (Result, error) {
	overdue, err := store.Overdue(ctx, now)
	if err != nil {
		return Result{}, fmt.Errorf("load overdue appointments: %w", err)
	}

	res := Result{Scanned: len(overdue)}
	for _, appt := range overdue {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		changed, err := store.Expire(ctx, appt.ID, now)
		if err != nil {
			res.Failed++
			log.Error("expire appointment failed", "appointment_id", appt.ID, "err", err)
			continue
		}
		if !changed {
			res.Skipped++
			continue
		}
		res.Expired++
	}
	return res, nil
}

// Sweeper runs Sweep on a clock and announces each expiry.
type Sweeper struct {
	store  Store
	events events.Publisher
	log    *slog.Logger
	now    func() time.Time
}

func NewSweeper(store Store, publisher events.Publisher, log *slog.Logger) *Sweeper {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Sweeper{store: store, events: publisher, log: log, now: time.Now}
}

func (s *Sweeper) Run(ctx context.Context) (Result, error) {
	now := s.now()
	res, err := Sweep(ctx, publishing{Store: s.store, sweeper: s}, now, s.log)
	if err != nil {
		s.log.Error("appointment sweep failed", "err", err)
		return res, err
	}
	if res.Scanned > 0 {
		s.log.Info("appointment sweep completed",
			"scanned", res.Scanned,
			"expired", res.Expired,
			"skipped", res.Skipped,
			"failed", res.Failed,
		)
	}
	return res, nil
}

// publishing decorates Store so every successful expiry emits an event.
type publishing struct {
	Store
	sweeper *Sweeper
}

func (p publishing) Expire(ctx context.Context, id uint, now time.Time) (bool, error) {
	changed, err := p.Store.Expire(ctx, id, now)
	if err != nil || !changed {
		return changed, err
	}
	payload := map[string]any{"appointmentId": id, "status": models.StatusExpired, "expiredAt": now}
	if err := p.sweeper.events.Publish(ctx, events.New(events.AppointmentExpired, id, payload)); err != nil {
		p.sweeper.log.Warn("expiry event publish failed", "appointment_id", id, "err", err)
	}
	return true, nil
}
