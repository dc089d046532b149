package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/groomly/controllers"
	"github.com/meinhoongagan/groomly/middleware"
	"github.com/meinhoongagan/groomly/models"
)

// SetupRatingRoutes configures appointment ratings and provider reviews
func SetupRatingRoutes(app *fiber.App, h *controllers.Handler, g Guards) {
	customer := middleware.RequireRole(models.RoleCustomer)
	customerOrAdmin := middleware.RequireRole(models.RoleCustomer, models.RoleAdmin)

	ratings := app.Group("/ratings", g.Auth)
	ratings.Post("/:appointment_id", customer, g.Limit("rating"), h.RateAppointment)
	ratings.Delete("/:appointment_id", customerOrAdmin, h.RemoveRating)

	reviews := app.Group("/reviews", g.Auth)
	reviews.Post("/:providerId", customer, g.Limit("review"), h.CreateReview)
	reviews.Patch("/:id", customerOrAdmin, h.UpdateReview)
	reviews.Delete("/:id", customerOrAdmin, h.DeleteReview)
}
