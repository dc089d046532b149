package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/groomly/controllers"
	"github.com/meinhoongagan/groomly/middleware"
	"github.com/meinhoongagan/groomly/models"
)

// SetupAppointmentRoutes configures all appointment related routes
func SetupAppointmentRoutes(app *fiber.App, h *controllers.Handler, g Guards) {
	appointment := app.Group("/appointments", g.Auth)
	appointment.Post("/", middleware.RequireRole(models.RoleCustomer), g.Limit("booking"), h.CreateAppointment)
	appointment.Get("/", h.GetAppointments)
	appointment.Get("/:id", h.GetAppointment)
	appointment.Patch("/:id", h.UpdateAppointment)
	appointment.Delete("/:id", middleware.RequireRole(models.RoleAdmin), h.DeleteAppointment)
}
