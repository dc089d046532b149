package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/groomly/controllers"
	"github.com/meinhoongagan/groomly/middleware"
	"github.com/meinhoongagan/groomly/models"
)

// SetupAdminRoutes configures maintenance endpoints
func SetupAdminRoutes(app *fiber.App, h *controllers.Handler, g Guards) {
	admin := app.Group("/admin", g.Auth, middleware.RequireRole(models.RoleAdmin))
	admin.Post("/ratings/refresh", h.RefreshRatings)
	admin.Post("/sweep", h.RunSweep)
	admin.Get("/audit", h.GetAuditLog)
}
