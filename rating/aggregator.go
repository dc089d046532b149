// Package rating recomputes a provider's derived average rating from
// completed-appointment ratings and standalone reviews.
package rating

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/meinhoongagan/groomly/events"
	"github.com/meinhoongagan/groomly/models"
)

// ErrInvalidScore rejects scores outside [0,5]; they are never clamped.
var ErrInvalidScore = models.ErrScoreOutOfRange

func ValidateScore(score float64) error {
	if err := models.ValidScore(score); err != nil {
		return fmt.Errorf("%w: got %v", ErrInvalidScore, score)
	}
	return nil
}

// Stats is the count and mean of one rating source.
type Stats struct {
	Count int64   `json:"count"`
	Mean  float64 `json:"mean"`
}

type Result struct {
	ProviderID uint    `json:"providerId"`
	Average    float64 `json:"averageRating"`
	Total      int64   `json:"totalRating"`
}

type AppointmentRatings interface {
	AppointmentRatingStats(ctx context.Context, providerID uint) (Stats, error)
}

type ReviewRatings interface {
	ReviewRatingStats(ctx context.Context, providerID uint) (Stats, error)
}

type ProviderRatings interface {
	UpdateProviderRating(ctx context.Context, providerID uint, average float64, total int64) error
	ProviderIDs(ctx context.Context) ([]uint, error)
}

// Store bundles the handles Recompute reads from and writes to.
type Store struct {
	Appointments AppointmentRatings
	Reviews      ReviewRatings
	Providers    ProviderRatings
}

// Combine returns the count-weighted mean of both sources, or 0 when
// neither has any rated item.
func Combine(a, b Stats) (float64, int64) {
	total := a.Count + b.Count
	if total == 0 {
		return 0, 0
	}
	sum := a.Mean*float64(a.Count) + b.Mean*float64(b.Count)
	return sum / float64(total), total
}

// Recompute reads both sources for one provider and stores the result. It is
// a pure function of the current rows, so repeated calls converge.
func Recompute(ctx context.Context, store Store, providerID uint) (Result, error) {
	apptStats, err := store.Appointments.AppointmentRatingStats(ctx, providerID)
	if err != nil {
		return Result{}, fmt.Errorf("appointment ratings for provider %d: %w", providerID, err)
	}
	reviewStats, err := store.Reviews.ReviewRatingStats(ctx, providerID)
	if err != nil {
		return Result{}, fmt.Errorf("review ratings for provider %d: %w", providerID, err)
	}

	avg, total := Combine(apptStats, reviewStats)
	if err := store.Providers.UpdateProviderRating(ctx, providerID, avg, total); err != nil {
		return Result{}, fmt.Errorf("store rating for provider %d: %w", providerID, err)
	}
	return Result{ProviderID: providerID, Average: avg, Total: total}, nil
}

type RefreshSummary struct {
	Providers int
	Updated   int
	Failed    int
	Duration  time.Duration
}

// RecomputeAll recomputes every provider independently. A failure for one
// provider is logged and counted; the rest still run.
func RecomputeAll(ctx context.Context, store Store, log *slog.Logger, each func(Result)) (RefreshSummary, error) {
	started := time.Now()
	ids, err := store.Providers.ProviderIDs(ctx)
	if err != nil {
		return RefreshSummary{}, fmt.Errorf("list providers: %w", err)
	}

	summary := RefreshSummary{Providers: len(ids)}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		res, err := Recompute(ctx, store, id)
		if err != nil {
			summary.Failed++
			log.Error("rating recompute failed", "provider_id", id, "err", err)
			continue
		}
		summary.Updated++
		if each != nil {
			each(res)
		}
	}
	summary.Duration = time.Since(started)
	return summary, nil
}

// Cache receives every freshly computed rating.
type Cache interface {
	SetRating(ctx context.Context, providerID uint, average float64, total int64) error
}

// Aggregator runs Recompute after writes and on schedule, then fans the
// result out to the cache and the event stream.
type Aggregator struct {
	store  Store
	cache  Cache
	events events.Publisher
	log    *slog.Logger
}

func NewAggregator(store Store, cache Cache, publisher events.Publisher, log *slog.Logger) *Aggregator {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Aggregator{store: store, cache: cache, events: publisher, log: log}
}

// Refresh recomputes one provider and returns the error to the caller.
func (a *Aggregator) Refresh(ctx context.Context, providerID uint) (Result, error) {
	res, err := Recompute(ctx, a.store, providerID)
	if err != nil {
		return Result{}, err
	}
	a.fanOut(ctx, res)
	return res, nil
}

// Trigger is called after a rating or review write has committed. The write
// already succeeded, so a failure here is only logged; the daily refresh
// repairs the drift.
func (a *Aggregator) Trigger(ctx context.Context, providerID uint, reason string) {
	if _, err := a.Refresh(ctx, providerID); err != nil {
		a.log.Error("rating trigger failed", "provider_id", providerID, "reason", reason, "err", err)
	}
}

// RefreshAll is the scheduled self-healing pass over every provider.
func (a *Aggregator) RefreshAll(ctx context.Context) (RefreshSummary, error) {
	summary, err := RecomputeAll(ctx, a.store, a.log, func(res Result) {
		a.fanOut(ctx, res)
	})
	if err != nil {
		return summary, err
	}
	a.log.Info("rating refresh completed",
		"providers", summary.Providers,
		"updated", summary.Updated,
		"failed", summary.Failed,
		"duration_ms", summary.Duration.Milliseconds(),
	)
	return summary, nil
}

func (a *Aggregator) fanOut(ctx context.Context, res Result) {
	if a.cache != nil {
		if err := a.cache.SetRating(ctx, res.ProviderID, res.Average, res.Total); err != nil {
			a.log.Warn("rating cache write failed", "provider_id", res.ProviderID, "err", err)
		}
	}
	if err := a.events.Publish(ctx, events.New(events.ProviderRatingUpdated, res.ProviderID, res)); err != nil {
		a.log.Warn("rating event publish failed", "provider_id", res.ProviderID, "err", err)
	}
}
