package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/groomly/controllers"
)

// SetupAuthRoutes configures registration, login and token refresh
func SetupAuthRoutes(app *fiber.App, h *controllers.Handler, g Guards) {
	auth := app.Group("/auth")
	auth.Post("/register", g.Limit("register"), h.Register)
	auth.Post("/login", g.Limit("login"), h.Login)
	auth.Post("/refresh", h.RefreshToken)
	auth.Get("/me", g.Auth, h.Me)
}
