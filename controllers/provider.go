package controllers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/groomly/booking"
	"github.com/meinhoongagan/groomly/models"
	"github.com/meinhoongagan/groomly/repository"
)

// GetProviders returns providers, best rated first.
func (h *Handler) GetProviders(c *fiber.Ctx) error {
	page, limit := pagination(c)
	providers, total, err := h.Users.ListProviders(c.UserContext(), page, limit)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"providers": providers,
		"total":     total,
		"page":      page,
		"limit":     limit,
		"pages":     pages(total, limit),
	})
}

// GetProvider returns a provider with services, working hours and gallery.
func (h *Handler) GetProvider(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return h.writeError(c, err)
	}
	provider, err := h.Users.Provider(c.UserContext(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(provider)
}

// GetProviderRating serves the cached aggregate, falling back to the
// provider row on a miss.
func (h *Handler) GetProviderRating(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return h.writeError(c, err)
	}
	ctx := c.UserContext()
	if h.RatingCache != nil {
		avg, total, ok, err := h.RatingCache.Rating(ctx, id)
		if err != nil {
			h.Log.Warn("rating cache read failed", "provider_id", id, "err", err)
		}
		if ok {
			return c.JSON(fiber.Map{"providerId": id, "averageRating": avg, "totalRating": total, "cached": true})
		}
	}
	provider, err := h.Users.Provider(ctx, id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"providerId":    id,
		"averageRating": provider.AverageRating,
		"totalRating":   provider.TotalRating,
		"cached":        false,
	})
}

func (h *Handler) GetProviderServices(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return h.writeError(c, err)
	}
	services, err := h.Services.ByProvider(c.UserContext(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(services)
}

func (h *Handler) GetProviderReviews(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return h.writeError(c, err)
	}
	page, limit := pagination(c)
	reviews, total, err := h.Reviews.ListByProvider(c.UserContext(), id, page, limit)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"reviews": reviews,
		"total":   total,
		"page":    page,
		"limit":   limit,
		"pages":   pages(total, limit),
	})
}

// GetAvailableSlots lists free start times for ?date=YYYY-MM-DD and
// ?duration=minutes (default 30) stepping by ?step=minutes (default 15).
func (h *Handler) GetAvailableSlots(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return h.writeError(c, err)
	}
	day, err := time.ParseInLocation(booking.DateLayout, c.Query("date"), h.Location)
	if err != nil {
		return h.writeError(c, badRequest("date must be YYYY-MM-DD"))
	}
	duration := c.QueryInt("duration", 30)
	step := c.QueryInt("step", 15)
	if duration <= 0 || step <= 0 || duration > booking.MaxDuration || step > booking.MaxDuration {
		return h.writeError(c, badRequest(fmt.Sprintf("duration and step must be between 1 and %d minutes", booking.MaxDuration)))
	}

	ctx := c.UserContext()
	date := day.Format(booking.DateLayout)
	wh, err := h.Profiles.WorkingDay(ctx, id, models.DayOfWeek(day.Weekday()))
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(fiber.Map{"date": date, "slots": []string{}})
	}
	if err != nil {
		return h.writeError(c, err)
	}
	busy, err := h.Appointments.Busy(ctx, id, date)
	if err != nil {
		return h.writeError(c, err)
	}

	slots, err := booking.FreeSlots(day, *wh, time.Duration(duration)*time.Minute, time.Duration(step)*time.Minute, busy, h.now(), h.Location)
	if err != nil {
		return h.writeError(c, err)
	}
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Format(models.ClockLayout))
	}
	return c.JSON(fiber.Map{"date": date, "slots": out})
}
