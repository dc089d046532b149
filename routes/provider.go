package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/groomly/controllers"
)

// SetupProviderRoutes configures the public provider catalogue
func SetupProviderRoutes(app *fiber.App, h *controllers.Handler) {
	providers := app.Group("/providers")
	providers.Get("/", h.GetProviders)
	providers.Get("/:id", h.GetProvider)
	providers.Get("/:id/rating", h.GetProviderRating)
	providers.Get("/:id/services", h.GetProviderServices)
	providers.Get("/:id/reviews", h.GetProviderReviews)
	providers.Get("/:id/slots", h.GetAvailableSlots)
}
