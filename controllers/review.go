package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/groomly/middleware"
	"github.com/meinhoongagan/groomly/models"
	"github.com/meinhoongagan/groomly/rating"
)

type reviewInput struct {
	Rating     *float64 `json:"rating"`
	ReviewText *string  `json:"reviewText"`
}

// CreateReview adds a standalone review for a provider.
func (h *Handler) CreateReview(c *fiber.Ctx) error {
	providerID, err := idParam(c, "providerId")
	if err != nil {
		return h.writeError(c, err)
	}
	var in reviewInput
	if err := c.BodyParser(&in); err != nil {
		return h.writeError(c, badRequest("Invalid review data"))
	}
	if in.Rating == nil {
		return h.writeError(c, badRequest("rating is required"))
	}
	if err := rating.ValidateScore(*in.Rating); err != nil {
		return h.writeError(c, err)
	}

	ctx := c.UserContext()
	if _, err := h.Users.Provider(ctx, providerID); err != nil {
		return h.writeError(c, err)
	}
	review := &models.Review{
		CustomerID: middleware.UserID(c),
		ProviderID: providerID,
		Rating:     *in.Rating,
	}
	if in.ReviewText != nil {
		review.ReviewText = strings.TrimSpace(*in.ReviewText)
	}
	if err := h.Reviews.Create(ctx, review); err != nil {
		return h.writeError(c, err)
	}
	h.Ratings.Trigger(ctx, providerID, "review created")
	return c.Status(fiber.StatusCreated).JSON(review)
}

// ownedReview loads :id and checks the caller wrote it or is an admin.
func (h *Handler) ownedReview(c *fiber.Ctx) (*models.Review, error) {
	id, err := idParam(c, "id")
	if err != nil {
		return nil, err
	}
	review, err := h.Reviews.ByID(c.UserContext(), id)
	if err != nil {
		return nil, err
	}
	if middleware.Role(c) != models.RoleAdmin && review.CustomerID != middleware.UserID(c) {
		return nil, errForbidden
	}
	return review, nil
}

func (h *Handler) UpdateReview(c *fiber.Ctx) error {
	review, err := h.ownedReview(c)
	if err != nil {
		return h.writeError(c, err)
	}
	var in reviewInput
	if err := c.BodyParser(&in); err != nil {
		return h.writeError(c, badRequest("Invalid review data"))
	}
	if in.Rating == nil && in.ReviewText == nil {
		return h.writeError(c, badRequest("Nothing to update"))
	}
	if in.Rating != nil {
		if err := rating.ValidateScore(*in.Rating); err != nil {
			return h.writeError(c, err)
		}
		review.Rating = *in.Rating
	}
	if in.ReviewText != nil {
		review.ReviewText = strings.TrimSpace(*in.ReviewText)
	}

	ctx := c.UserContext()
	if err := h.Reviews.Update(ctx, review); err != nil {
		return h.writeError(c, err)
	}
	h.Ratings.Trigger(ctx, review.ProviderID, "review updated")
	return c.JSON(review)
}

func (h *Handler) DeleteReview(c *fiber.Ctx) error {
	review, err := h.ownedReview(c)
	if err != nil {
		return h.writeError(c, err)
	}
	ctx := c.UserContext()
	if err := h.Reviews.Delete(ctx, review.ID); err != nil {
		return h.writeError(c, err)
	}
	h.Ratings.Trigger(ctx, review.ProviderID, "review deleted")
	return c.SendStatus(fiber.StatusNoContent)
}
