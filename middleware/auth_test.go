package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/meinhoongagan/groomly/models"
)

const testSecret = "test-secret"

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func newAuthApp() *fiber.App {
	app := fiber.New()
	app.Get("/me", Protected(testSecret), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"id": UserID(c), "role": Role(c)})
	})
	app.Get("/admin", Protected(testSecret), RequireRole(models.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestProtected(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	tests := []struct {
		name   string
		path   string
		token  string
		status int
	}{
		{"no token", "/me", "", fiber.StatusUnauthorized},
		{"valid access token", "/me", sign(t, jwt.MapClaims{"id": 7, "role": "customer", "type": "access", "exp": exp}), fiber.StatusOK},
		{"refresh token rejected", "/me", sign(t, jwt.MapClaims{"id": 7, "role": "customer", "type": "refresh", "exp": exp}), fiber.StatusUnauthorized},
		{"expired", "/me", sign(t, jwt.MapClaims{"id": 7, "role": "customer", "exp": time.Now().Add(-time.Hour).Unix()}), fiber.StatusUnauthorized},
		{"unknown role", "/me", sign(t, jwt.MapClaims{"id": 7, "role": "root", "exp": exp}), fiber.StatusUnauthorized},
		{"wrong role", "/admin", sign(t, jwt.MapClaims{"id": 7, "role": "provider", "exp": exp}), fiber.StatusForbidden},
		{"admin", "/admin", sign(t, jwt.MapClaims{"id": 1, "role": "admin", "exp": exp}), fiber.StatusNoContent},
	}

	app := newAuthApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}
}

type countingLimiter struct {
	limit int
	hits  map[string]int64
}

func (l *countingLimiter) Allow(_ context.Context, key string) (bool, int64, error) {
	l.hits[key]++
	return l.hits[key] <= int64(l.limit), l.hits[key], nil
}

func (l *countingLimiter) Limit() int { return l.limit }

func TestRateLimit(t *testing.T) {
	limiter := &countingLimiter{limit: 2, hits: map[string]int64{}}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	app := fiber.New()
	app.Post("/book", RateLimit(limiter, "booking", log), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})

	want := []int{fiber.StatusCreated, fiber.StatusCreated, fiber.StatusTooManyRequests}
	for i, status := range want {
		resp, err := app.Test(httptest.NewRequest("POST", "/book", nil))
		if err != nil {
			t.Fatalf("app.Test() error = %v", err)
		}
		if resp.StatusCode != status {
			t.Errorf("request %d: status = %d, want %d", i+1, resp.StatusCode, status)
		}
	}
	if len(limiter.hits) != 1 {
		t.Errorf("expected a single ip key, got %v", limiter.hits)
	}
}
