package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/groomly/middleware"
	"github.com/meinhoongagan/groomly/models"
)

type serviceInput struct {
	Name        *string  `json:"name"`
	Price       *float64 `json:"price"`
	Duration    *int     `json:"duration"`
	Description *string  `json:"description"`
	IsAvailable *bool    `json:"isAvailable"`
}

func (in serviceInput) validate() error {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return badRequest("name cannot be empty")
	}
	if in.Price != nil && *in.Price < 0 {
		return badRequest("price cannot be negative")
	}
	if in.Duration != nil && *in.Duration <= 0 {
		return badRequest("duration must be a positive number of minutes")
	}
	return nil
}

// CreateService adds a service owned by the calling provider.
func (h *Handler) CreateService(c *fiber.Ctx) error {
	var in serviceInput
	if err := c.BodyParser(&in); err != nil {
		return h.writeError(c, badRequest("Failed to parse request body"))
	}
	if in.Name == nil || in.Duration == nil {
		return h.writeError(c, badRequest("name and duration are required"))
	}
	if err := in.validate(); err != nil {
		return h.writeError(c, err)
	}

	svc := &models.ProviderService{
		Name:        strings.TrimSpace(*in.Name),
		ProviderID:  middleware.UserID(c),
		Duration:    *in.Duration,
		IsAvailable: true,
	}
	if in.Price != nil {
		svc.Price = *in.Price
	}
	if in.Description != nil {
		svc.Description = *in.Description
	}
	if in.IsAvailable != nil {
		svc.IsAvailable = *in.IsAvailable
	}
	if err := h.Services.Create(c.UserContext(), svc); err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(svc)
}

// ownedService loads the :id service and checks the caller owns it.
func (h *Handler) ownedService(c *fiber.Ctx) (*models.ProviderService, error) {
	id, err := idParam(c, "id")
	if err != nil {
		return nil, err
	}
	svc, err := h.Services.ByID(c.UserContext(), id)
	if err != nil {
		return nil, err
	}
	if svc.ProviderID != middleware.UserID(c) {
		return nil, errForbidden
	}
	return svc, nil
}

func (h *Handler) UpdateService(c *fiber.Ctx) error {
	svc, err := h.ownedService(c)
	if err != nil {
		return h.writeError(c, err)
	}
	var in serviceInput
	if err := c.BodyParser(&in); err != nil {
		return h.writeError(c, badRequest("Failed to parse request body"))
	}
	if err := in.validate(); err != nil {
		return h.writeError(c, err)
	}

	fields := map[string]any{}
	if in.Name != nil {
		fields["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Price != nil {
		fields["price"] = *in.Price
	}
	if in.Duration != nil {
		fields["duration"] = *in.Duration
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.IsAvailable != nil {
		fields["is_available"] = *in.IsAvailable
	}
	if len(fields) == 0 {
		return h.writeError(c, badRequest("Nothing to update"))
	}

	ctx := c.UserContext()
	if err := h.Services.Update(ctx, svc.ID, fields); err != nil {
		return h.writeError(c, err)
	}
	updated, err := h.Services.ByID(ctx, svc.ID)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(updated)
}

func (h *Handler) DeleteService(c *fiber.Ctx) error {
	svc, err := h.ownedService(c)
	if err != nil {
		return h.writeError(c, err)
	}
	if err := h.Services.Delete(c.UserContext(), svc.ID); err != nil {
		return h.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UploadServiceImage stores the multipart "image" field and links it to the
// service.
func (h *Handler) UploadServiceImage(c *fiber.Ctx) error {
	svc, err := h.ownedService(c)
	if err != nil {
		return h.writeError(c, err)
	}
	if h.Images == nil {
		return h.writeError(c, fiber.NewError(fiber.StatusServiceUnavailable, "image uploads are not configured"))
	}
	fh, err := c.FormFile("image")
	if err != nil {
		return h.writeError(c, badRequest("image file is required"))
	}
	file, err := openUpload(fh)
	if err != nil {
		return h.writeError(c, err)
	}
	defer file.Close()

	ctx := c.UserContext()
	url, _, err := h.Images.Upload(ctx, file, "services", "")
	if err != nil {
		return h.writeError(c, err)
	}
	if err := h.Services.Update(ctx, svc.ID, map[string]any{"image_url": url}); err != nil {
		return h.writeError(c, err)
	}
	svc.ImageURL = url
	return c.JSON(svc)
}
