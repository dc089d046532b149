package middleware

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/meinhoongagan/groomly/models"
	"github.com/meinhoongagan/groomly/utils"
)

const (
	LocalUserID = "userID"
	LocalRole   = "role"
)

// Protected validates the bearer access token and stores the caller's id and
// role in fiber locals.
func Protected(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   []byte(secret),
		ErrorHandler: jwtError,
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals("user").(*jwt.Token)
			if !ok {
				return unauthorized(c, "Invalid token")
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return unauthorized(c, "Invalid token claims")
			}
			if typ, _ := claims["type"].(string); typ != "" && typ != "access" {
				return unauthorized(c, "Refresh tokens cannot be used for API access")
			}

			userID, err := extractUserID(claims)
			if err != nil {
				return unauthorized(c, "Invalid user ID in token")
			}
			role, err := extractRole(claims)
			if err != nil {
				return unauthorized(c, "Invalid role in token")
			}

			c.Locals(LocalUserID, userID)
			c.Locals(LocalRole, role)
			return c.Next()
		},
	})
}

// extractUserID handles multiple potential formats of user ID in token
func extractUserID(claims jwt.MapClaims) (uint, error) {
	idVal := claims["id"]
	if idVal == nil {
		return 0, fmt.Errorf("no ID found in claims")
	}

	switch v := idVal.(type) {
	case float64:
		if v <= 0 {
			return 0, fmt.Errorf("invalid ID %v", v)
		}
		return uint(v), nil
	case string:
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse ID string: %v", err)
		}
		return uint(parsed), nil
	default:
		return 0, fmt.Errorf("unsupported ID type: %T", v)
	}
}

func extractRole(claims jwt.MapClaims) (models.Role, error) {
	name, ok := claims["role"].(string)
	if !ok {
		return "", fmt.Errorf("no role found in claims")
	}
	role := models.Role(name)
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", name)
	}
	return role, nil
}

func jwtError(c *fiber.Ctx, err error) error {
	return unauthorized(c, "Invalid or expired token")
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(utils.ErrorResponse{
		Message: msg,
		Error:   "unauthorized",
	})
}

// UserID returns the caller id set by Protected.
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(LocalUserID).(uint)
	return id
}

// Role returns the caller role set by Protected.
func Role(c *fiber.Ctx) models.Role {
	role, _ := c.Locals(LocalRole).(models.Role)
	return role
}

// RequireRole lets the request through only for the listed roles.
func RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		current := Role(c)
		for _, r := range roles {
			if r == current {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(utils.ErrorResponse{
			Message: "You don't have the required role to perform this action",
			Error:   "forbidden",
		})
	}
}
