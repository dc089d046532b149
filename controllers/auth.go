package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/meinhoongagan/groomly/middleware"
	"github.com/meinhoongagan/groomly/models"
	"github.com/meinhoongagan/groomly/repository"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTTL  = 24 * time.Hour
	refreshTTL = 7 * 24 * time.Hour
)

type registerInput struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
	Phone    string      `json:"phone"`
	Bio      string      `json:"bio"`
}

// Register handles user registration. Admin accounts are seeded, never
// self-registered.
func (h *Handler) Register(c *fiber.Ctx) error {
	var in registerInput
	if err := c.BodyParser(&in); err != nil {
		return h.writeError(c, badRequest("Cannot parse JSON"))
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if in.Email == "" || in.Password == "" || in.Name == "" {
		return h.writeError(c, badRequest("Missing required fields"))
	}
	if !strings.Contains(in.Email, "@") {
		return h.writeError(c, badRequest("Invalid email address"))
	}
	if len(in.Password) < 8 {
		return h.writeError(c, badRequest("Password must be at least 8 characters"))
	}
	if in.Role == "" {
		in.Role = models.RoleCustomer
	}
	if in.Role != models.RoleCustomer && in.Role != models.RoleProvider {
		return h.writeError(c, badRequest("Role must be customer or provider"))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return h.writeError(c, err)
	}
	user := &models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: string(hashed),
		Role:     in.Role,
		Phone:    in.Phone,
		Bio:      in.Bio,
	}
	if err := h.Users.Create(c.UserContext(), user); err != nil {
		return h.writeError(c, err)
	}
	h.Log.Info("user registered", "user_id", user.ID, "role", user.Role)
	return c.Status(fiber.StatusCreated).JSON(user)
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles user authentication
func (h *Handler) Login(c *fiber.Ctx) error {
	var in loginInput
	if err := c.BodyParser(&in); err != nil {
		return h.writeError(c, badRequest("Cannot parse JSON"))
	}

	user, err := h.Users.ByEmail(c.UserContext(), in.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return h.writeError(c, fiber.NewError(fiber.StatusUnauthorized, "Invalid credentials"))
	}
	if err != nil {
		return h.writeError(c, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return h.writeError(c, fiber.NewError(fiber.StatusUnauthorized, "Invalid credentials"))
	}

	access, err := h.signToken(user, "access", accessTTL)
	if err != nil {
		return h.writeError(c, err)
	}
	refresh, err := h.signToken(user, "refresh", refreshTTL)
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"token":        access,
		"refreshToken": refresh,
		"user":         user,
	})
}

type refreshInput struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken issues a new access token. The role is re-read so a changed
// account is reflected immediately.
func (h *Handler) RefreshToken(c *fiber.Ctx) error {
	var in refreshInput
	if err := c.BodyParser(&in); err != nil {
		return h.writeError(c, badRequest("Cannot parse JSON"))
	}

	invalid := fiber.NewError(fiber.StatusUnauthorized, "Invalid refresh token")
	token, err := jwt.Parse(in.RefreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(h.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return h.writeError(c, invalid)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["type"] != "refresh" {
		return h.writeError(c, invalid)
	}
	id, ok := claims["id"].(float64)
	if !ok || id <= 0 {
		return h.writeError(c, invalid)
	}

	user, err := h.Users.ByID(c.UserContext(), uint(id))
	if errors.Is(err, repository.ErrNotFound) {
		return h.writeError(c, invalid)
	}
	if err != nil {
		return h.writeError(c, err)
	}
	access, err := h.signToken(user, "access", accessTTL)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{"token": access})
}

// Me returns the current user's profile
func (h *Handler) Me(c *fiber.Ctx) error {
	user, err := h.Users.ByID(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(user)
}

func (h *Handler) signToken(user *models.User, typ string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"id":    user.ID,
		"email": user.Email,
		"role":  string(user.Role),
		"type":  typ,
		"exp":   h.now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.JWTSecret))
}
