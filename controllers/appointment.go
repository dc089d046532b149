package controllers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/groomly/booking"
	"github.com/meinhoongagan/groomly/middleware"
	"github.com/meinhoongagan/groomly/models"
	"github.com/meinhoongagan/groomly/rating"
	"github.com/meinhoongagan/groomly/repository"
	"github.com/meinhoongagan/groomly/utils"
)

// CreateAppointment books an appointment for the calling customer.
func (h *Handler) CreateAppointment(c *fiber.Ctx) error {
	var req booking.Request
	if err := c.BodyParser(&req); err != nil {
		return h.writeError(c, badRequest("Failed to parse request body"))
	}

	appt, err := h.Booking.Book(c.UserContext(), middleware.UserID(c), req)
	if err != nil {
		return h.writeError(c, err)
	}
	h.sendConfirmation(appt)
	return c.Status(fiber.StatusCreated).JSON(appt)
}

// sendConfirmation emails the customer in the background; mail trouble never
// affects the booking response.
func (h *Handler) sendConfirmation(appt *models.Appointment) {
	if h.Mailer == nil {
		return
	}
	go func(appt models.Appointment) {
		ctx := context.Background()
		customer, err := h.Users.ByID(ctx, appt.CustomerID)
		if err != nil {
			h.Log.Warn("confirmation email skipped", "appointment_id", appt.ID, "err", err)
			return
		}
		provider, err := h.Users.ByID(ctx, appt.ProviderID)
		if err != nil {
			h.Log.Warn("confirmation email skipped", "appointment_id", appt.ID, "err", err)
			return
		}
		subject, body := utils.BookingConfirmation(&appt, customer, provider, h.Location)
		if err := h.Mailer.SendEmail(customer.Email, subject, body); err != nil {
			h.Log.Warn("confirmation email failed", "appointment_id", appt.ID, "err", err)
		}
	}(*appt)
}

// GetAppointments lists the caller's appointments. Admins see all of them.
func (h *Handler) GetAppointments(c *fiber.Ctx) error {
	page, limit := pagination(c)
	status := models.AppointmentStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		return h.writeError(c, badRequest("Unknown status filter"))
	}

	appts, total, err := h.Appointments.List(c.UserContext(), repository.AppointmentFilter{
		UserID: middleware.UserID(c),
		Role:   middleware.Role(c),
		Status: status,
		Date:   c.Query("date"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"appointments": appts,
		"total":        total,
		"page":         page,
		"limit":        limit,
		"pages":        pages(total, limit),
	})
}

// loadVisible returns the appointment if the caller takes part in it or is
// an admin. Anyone else gets a 404.
func (h *Handler) loadVisible(c *fiber.Ctx) (*models.Appointment, error) {
	id, err := idParam(c, "id")
	if err != nil {
		return nil, err
	}
	appt, err := h.Appointments.ByID(c.UserContext(), id)
	if err != nil {
		return nil, err
	}
	uid, role := middleware.UserID(c), middleware.Role(c)
	if role != models.RoleAdmin && appt.CustomerID != uid && appt.ProviderID != uid {
		return nil, repository.ErrNotFound
	}
	return appt, nil
}

func (h *Handler) GetAppointment(c *fiber.Ctx) error {
	appt, err := h.loadVisible(c)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(appt)
}

// appointmentPatch is the only shape PATCH accepts. Fields outside it are
// ignored by the decoder and never reach storage.
type appointmentPatch struct {
	Status             *models.AppointmentStatus  `json:"status"`
	PaymentStatus      *models.PaymentStatus      `json:"paymentStatus"`
	PaymentMethod      *models.PaymentMethod      `json:"paymentMethod"`
	NotificationStatus *models.NotificationStatus `json:"notificationStatus"`
}

// changes validates the patch against the caller's role and the status
// machine and returns the columns to write.
func (p appointmentPatch) changes(appt *models.Appointment, uid uint, role models.Role) (map[string]any, error) {
	switch role {
	case models.RoleCustomer:
		if appt.CustomerID != uid {
			return nil, errForbidden
		}
		if p.PaymentStatus != nil || p.PaymentMethod != nil {
			return nil, fiber.NewError(fiber.StatusForbidden, "Customers cannot change payment details")
		}
		if p.Status != nil && *p.Status != models.StatusCancelled {
			return nil, fiber.NewError(fiber.StatusForbidden, "Customers can only cancel appointments")
		}
	case models.RoleProvider:
		if appt.ProviderID != uid {
			return nil, errForbidden
		}
		if p.NotificationStatus != nil {
			return nil, fiber.NewError(fiber.StatusForbidden, "Providers cannot change the customer's notification status")
		}
	case models.RoleAdmin:
	default:
		return nil, errForbidden
	}

	fields := map[string]any{}
	if p.Status != nil {
		if !p.Status.Valid() {
			return nil, badRequest("Unknown status")
		}
		if *p.Status == models.StatusExpired {
			return nil, fmt.Errorf("%w: expired is set automatically", models.ErrInvalidTransition)
		}
		if err := appt.CanTransition(*p.Status); err != nil {
			return nil, err
		}
		fields["status"] = *p.Status
	}
	if p.PaymentStatus != nil {
		if !p.PaymentStatus.Valid() {
			return nil, badRequest("Unknown payment status")
		}
		fields["payment_status"] = *p.PaymentStatus
	}
	if p.PaymentMethod != nil {
		if !p.PaymentMethod.Valid() {
			return nil, badRequest("Unknown payment method")
		}
		fields["payment_method"] = *p.PaymentMethod
	}
	if p.NotificationStatus != nil {
		if !p.NotificationStatus.Valid() {
			return nil, badRequest("Unknown notification status")
		}
		fields["notification_status"] = *p.NotificationStatus
	}
	if len(fields) == 0 {
		return nil, badRequest("Nothing to update")
	}
	return fields, nil
}

// UpdateAppointment applies an allow-listed patch. The write only lands if
// the status is still the one the checks ran against.
func (h *Handler) UpdateAppointment(c *fiber.Ctx) error {
	appt, err := h.loadVisible(c)
	if err != nil {
		return h.writeError(c, err)
	}
	var patch appointmentPatch
	if err := c.BodyParser(&patch); err != nil {
		return h.writeError(c, badRequest("Failed to parse request body"))
	}

	uid, role := middleware.UserID(c), middleware.Role(c)
	fields, err := patch.changes(appt, uid, role)
	if err != nil {
		return h.writeError(c, err)
	}
	ctx := c.UserContext()
	if err := h.Appointments.UpdateFrom(ctx, appt.ID, appt.Status, fields); err != nil {
		return h.writeError(c, err)
	}

	if patch.Status != nil {
		desc := fmt.Sprintf("status %s -> %s by %s", appt.Status, *patch.Status, role)
		if err := h.Audit.Record(ctx, models.NewAuditLog(uid, "appointment", appt.ID, "status", desc)); err != nil {
			h.Log.Error("audit write failed", "appointment_id", appt.ID, "err", err)
		}
	}

	updated, err := h.Appointments.ByID(ctx, appt.ID)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(updated)
}

// DeleteAppointment permanently removes an appointment. Admin only.
func (h *Handler) DeleteAppointment(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return h.writeError(c, err)
	}
	ctx := c.UserContext()
	appt, err := h.Appointments.ByID(ctx, id)
	if err != nil {
		return h.writeError(c, err)
	}
	if err := h.Appointments.HardDelete(ctx, id); err != nil {
		return h.writeError(c, err)
	}
	desc := fmt.Sprintf("hard deleted appointment of provider %d on %s", appt.ProviderID, appt.Date)
	if err := h.Audit.Record(ctx, models.NewAuditLog(middleware.UserID(c), "appointment", id, "delete", desc)); err != nil {
		h.Log.Error("audit write failed", "appointment_id", id, "err", err)
	}
	if appt.RatingScore != nil {
		h.Ratings.Trigger(ctx, appt.ProviderID, "appointment deleted")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type ratingInput struct {
	Score   *float64 `json:"score"`
	Comment string   `json:"comment"`
}

// RateAppointment attaches the customer's rating to a completed appointment.
func (h *Handler) RateAppointment(c *fiber.Ctx) error {
	id, err := idParam(c, "appointment_id")
	if err != nil {
		return h.writeError(c, err)
	}
	var in ratingInput
	if err := c.BodyParser(&in); err != nil {
		return h.writeError(c, badRequest("Failed to parse request body"))
	}
	if in.Score == nil {
		return h.writeError(c, badRequest("score is required"))
	}
	if err := rating.ValidateScore(*in.Score); err != nil {
		return h.writeError(c, err)
	}

	ctx := c.UserContext()
	uid := middleware.UserID(c)
	appt, err := h.Appointments.ByID(ctx, id)
	if err != nil {
		return h.writeError(c, err)
	}
	if appt.CustomerID != uid {
		return h.writeError(c, fiber.NewError(fiber.StatusForbidden, "Only the customer of this appointment can rate it"))
	}
	if err := appt.Rateable(); err != nil {
		return h.writeError(c, err)
	}

	err = h.Appointments.SetRating(ctx, id, uid, *in.Score, strings.TrimSpace(in.Comment), h.now())
	if errors.Is(err, repository.ErrConflict) {
		// lost a race against another rating of the same appointment
		return h.writeError(c, models.ErrAlreadyRated)
	}
	if err != nil {
		return h.writeError(c, err)
	}
	h.Ratings.Trigger(ctx, appt.ProviderID, "rating attached")

	updated, err := h.Appointments.ByID(ctx, id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(updated)
}

// RemoveRating clears an appointment rating; it may be rated again later.
func (h *Handler) RemoveRating(c *fiber.Ctx) error {
	id, err := idParam(c, "appointment_id")
	if err != nil {
		return h.writeError(c, err)
	}
	ctx := c.UserContext()
	appt, err := h.Appointments.ByID(ctx, id)
	if err != nil {
		return h.writeError(c, err)
	}
	if middleware.Role(c) != models.RoleAdmin && appt.CustomerID != middleware.UserID(c) {
		return h.writeError(c, errForbidden)
	}
	if err := h.Appointments.ClearRating(ctx, id); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return h.writeError(c, fiber.NewError(fiber.StatusNotFound, "Appointment has no rating"))
		}
		return h.writeError(c, err)
	}
	h.Ratings.Trigger(ctx, appt.ProviderID, "rating removed")
	return c.SendStatus(fiber.StatusNoContent)
}
