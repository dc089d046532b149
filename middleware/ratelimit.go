package middleware

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/groomly/utils"
)

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, int64, error)
	Limit() int
}

// RateLimit throttles write endpoints per caller, falling back to the client
// IP for anonymous requests. Limiter errors let the request through.
func RateLimit(limiter Limiter, scope string, log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if limiter == nil {
			return c.Next()
		}
		key := scope + ":ip:" + c.IP()
		if id := UserID(c); id != 0 {
			key = scope + ":user:" + strconv.FormatUint(uint64(id), 10)
		}

		ok, count, err := limiter.Allow(c.UserContext(), key)
		if err != nil {
			log.Warn("rate limiter error", "scope", scope, "err", err)
			return c.Next()
		}
		remaining := int64(limiter.Limit()) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		if !ok {
			return c.Status(fiber.StatusTooManyRequests).JSON(utils.ErrorResponse{
				Message: "Rate limit exceeded, try again later",
				Error:   "rate_limited",
			})
		}
		return c.Next()
	}
}
