package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/groomly/controllers"
	"github.com/meinhoongagan/groomly/middleware"
	"github.com/meinhoongagan/groomly/models"
)

// SetupServiceRoutes configures provider-owned services and the gallery
func SetupServiceRoutes(app *fiber.App, h *controllers.Handler, g Guards) {
	provider := middleware.RequireRole(models.RoleProvider)

	services := app.Group("/services", g.Auth, provider)
	services.Post("/", h.CreateService)
	services.Patch("/:id", h.UpdateService)
	services.Delete("/:id", h.DeleteService)
	services.Post("/:id/image", g.Limit("upload"), h.UploadServiceImage)

	gallery := app.Group("/gallery", g.Auth, provider)
	gallery.Post("/", g.Limit("upload"), h.AddGalleryImage)
	gallery.Delete("/:id", h.DeleteGalleryImage)
}
