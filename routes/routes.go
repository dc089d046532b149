package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/groomly/controllers"
)

// Guards are the middlewares routes attach per group.
type Guards struct {
	Auth  fiber.Handler
	Limit func(scope string) fiber.Handler
}

// Setup registers every route group on app.
func Setup(app *fiber.App, h *controllers.Handler, g Guards) {
	app.Get("/healthz", h.Health)
	app.Get("/readyz", h.Ready)

	SetupAuthRoutes(app, h, g)
	SetupProviderRoutes(app, h)
	SetupServiceRoutes(app, h, g)
	SetupWorkingHourRoutes(app, h, g)
	SetupAppointmentRoutes(app, h, g)
	SetupRatingRoutes(app, h, g)
	SetupAdminRoutes(app, h, g)
}
