package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/groomly/middleware"
)

// RefreshRatings recomputes every provider's rating now instead of waiting
// for the nightly job.
func (h *Handler) RefreshRatings(c *fiber.Ctx) error {
	summary, err := h.Ratings.RefreshAll(c.UserContext())
	if err != nil {
		return h.writeError(c, err)
	}
	h.Log.Info("manual rating refresh", "admin_id", middleware.UserID(c), "providers", summary.Providers)
	return c.JSON(fiber.Map{
		"providers":  summary.Providers,
		"updated":    summary.Updated,
		"failed":     summary.Failed,
		"durationMs": summary.Duration.Milliseconds(),
	})
}

// RunSweep expires overdue appointments now.
func (h *Handler) RunSweep(c *fiber.Ctx) error {
	res, err := h.Sweeper.Run(c.UserContext())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"scanned": res.Scanned,
		"expired": res.Expired,
		"skipped": res.Skipped,
		"failed":  res.Failed,
	})
}

func (h *Handler) GetAuditLog(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}
	logs, err := h.Audit.ListRecent(c.UserContext(), c.Query("entityType"), limit)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(logs)
}
