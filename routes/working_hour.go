package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/groomly/controllers"
	"github.com/meinhoongagan/groomly/middleware"
	"github.com/meinhoongagan/groomly/models"
)

// SetupWorkingHourRoutes configures the provider's weekly schedule
func SetupWorkingHourRoutes(app *fiber.App, h *controllers.Handler, g Guards) {
	wh := app.Group("/working-hours", g.Auth, middleware.RequireRole(models.RoleProvider))
	wh.Get("/", h.GetWorkingHours)
	wh.Put("/", h.SetWorkingHours)
	wh.Delete("/:day", h.DeleteWorkingDay)
}
