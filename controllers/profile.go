package controllers

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/groomly/middleware"
	"github.com/meinhoongagan/groomly/models"
)

func (h *Handler) GetWorkingHours(c *fiber.Ctx) error {
	hours, err := h.Profiles.WorkingHours(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(hours)
}

type workingHoursInput struct {
	DayOfWeek  models.DayOfWeek `json:"dayOfWeek"`
	StartTime  string           `json:"startTime"`
	EndTime    string           `json:"endTime"`
	IsWorkDay  *bool            `json:"isWorkDay"`
	BreakStart *string          `json:"breakStart"`
	BreakEnd   *string          `json:"breakEnd"`
}

// SetWorkingHours replaces the caller's weekly schedule; at most one entry
// per day.
func (h *Handler) SetWorkingHours(c *fiber.Ctx) error {
	var in []workingHoursInput
	if err := c.BodyParser(&in); err != nil {
		return h.writeError(c, badRequest("Body must be a list of working days"))
	}

	seen := map[models.DayOfWeek]bool{}
	hours := make([]models.WorkingHours, 0, len(in))
	for _, d := range in {
		wh := models.WorkingHours{
			DayOfWeek:  d.DayOfWeek,
			StartTime:  d.StartTime,
			EndTime:    d.EndTime,
			IsWorkDay:  true,
			BreakStart: d.BreakStart,
			BreakEnd:   d.BreakEnd,
		}
		if d.IsWorkDay != nil {
			wh.IsWorkDay = *d.IsWorkDay
		}
		if err := wh.Validate(); err != nil {
			return h.writeError(c, fmt.Errorf("%w: day %d", err, d.DayOfWeek))
		}
		if seen[wh.DayOfWeek] {
			return h.writeError(c, badRequest(fmt.Sprintf("day %d listed twice", wh.DayOfWeek)))
		}
		seen[wh.DayOfWeek] = true
		hours = append(hours, wh)
	}

	uid := middleware.UserID(c)
	ctx := c.UserContext()
	if err := h.Profiles.ReplaceWorkingHours(ctx, uid, hours); err != nil {
		return h.writeError(c, err)
	}
	stored, err := h.Profiles.WorkingHours(ctx, uid)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(stored)
}

func (h *Handler) DeleteWorkingDay(c *fiber.Ctx) error {
	day, err := strconv.Atoi(c.Params("day"))
	if err != nil || day < int(models.Sunday) || day > int(models.Saturday) {
		return h.writeError(c, badRequest("day must be 0 (Sunday) to 6 (Saturday)"))
	}
	if err := h.Profiles.DeleteWorkingDay(c.UserContext(), middleware.UserID(c), models.DayOfWeek(day)); err != nil {
		return h.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddGalleryImage uploads the multipart "image" field to the caller's gallery.
func (h *Handler) AddGalleryImage(c *fiber.Ctx) error {
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
	uid := middleware.UserID(c)
	url, publicID, err := h.Images.Upload(ctx, file, fmt.Sprintf("gallery/%d", uid), "")
	if err != nil {
		return h.writeError(c, err)
	}
	img := &models.GalleryImage{
		ProviderID: uid,
		ImageURL:   url,
		PublicID:   publicID,
		Caption:    c.FormValue("caption"),
	}
	if err := h.Profiles.AddImage(ctx, img); err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(img)
}

// DeleteGalleryImage removes the row first; a failure to drop the stored
// asset is only logged.
func (h *Handler) DeleteGalleryImage(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return h.writeError(c, err)
	}
	ctx := c.UserContext()
	img, err := h.Profiles.DeleteImage(ctx, middleware.UserID(c), id)
	if err != nil {
		return h.writeError(c, err)
	}
	if h.Images != nil {
		if err := h.Images.Destroy(ctx, img.PublicID); err != nil {
			h.Log.Warn("gallery asset delete failed", "image_id", id, "public_id", img.PublicID, "err", err)
		}
	}
	return c.SendStatus(fiber.StatusNoContent)
}
