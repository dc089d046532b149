package controllers

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/groomly/booking"
	"github.com/meinhoongagan/groomly/lifecycle"
	"github.com/meinhoongagan/groomly/models"
	"github.com/meinhoongagan/groomly/rating"
	"github.com/meinhoongagan/groomly/repository"
	"github.com/meinhoongagan/groomly/utils"
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	ByID(ctx context.Context, id uint) (*models.User, error)
	ByEmail(ctx context.Context, email string) (*models.User, error)
	Provider(ctx context.Context, id uint) (*models.User, error)
	ListProviders(ctx context.Context, page, limit int) ([]models.User, int64, error)
}

type ServiceStore interface {
	Create(ctx context.Context, svc *models.ProviderService) error
	ByID(ctx context.Context, id uint) (*models.ProviderService, error)
	ByProvider(ctx context.Context, providerID uint) ([]models.ProviderService, error)
	Update(ctx context.Context, id uint, fields map[string]any) error
	Delete(ctx context.Context, id uint) error
}

type AppointmentStore interface {
	ByID(ctx context.Context, id uint) (*models.Appointment, error)
	List(ctx context.Context, f repository.AppointmentFilter) ([]models.Appointment, int64, error)
	Busy(ctx context.Context, providerID uint, date string) ([]models.Appointment, error)
	UpdateFrom(ctx context.Context, id uint, from models.AppointmentStatus, fields map[string]any) error
	SetRating(ctx context.Context, id, customerID uint, score float64, comment string, at time.Time) error
	ClearRating(ctx context.Context, id uint) error
	HardDelete(ctx context.Context, id uint) error
}

type ReviewStore interface {
	Create(ctx context.Context, review *models.Review) error
	ByID(ctx context.Context, id uint) (*models.Review, error)
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id uint) error
	ListByProvider(ctx context.Context, providerID uint, page, limit int) ([]models.Review, int64, error)
}

type AuditStore interface {
	Record(ctx context.Context, entry *models.AuditLog) error
	ListRecent(ctx context.Context, entityType string, limit int) ([]models.AuditLog, error)
}

type ProfileStore interface {
	WorkingHours(ctx context.Context, providerID uint) ([]models.WorkingHours, error)
	WorkingDay(ctx context.Context, providerID uint, day models.DayOfWeek) (*models.WorkingHours, error)
	ReplaceWorkingHours(ctx context.Context, providerID uint, hours []models.WorkingHours) error
	DeleteWorkingDay(ctx context.Context, providerID uint, day models.DayOfWeek) error
	AddImage(ctx context.Context, img *models.GalleryImage) error
	DeleteImage(ctx context.Context, providerID, id uint) (*models.GalleryImage, error)
}

type Booker interface {
	Book(ctx context.Context, customerID uint, req booking.Request) (*models.Appointment, error)
}

type Ratings interface {
	Trigger(ctx context.Context, providerID uint, reason string)
	RefreshAll(ctx context.Context) (rating.RefreshSummary, error)
}

type RatingCache interface {
	Rating(ctx context.Context, providerID uint) (average float64, total int64, ok bool, err error)
}

type Sweeper interface {
	Run(ctx context.Context) (lifecycle.Result, error)
}

type ImageStore interface {
	Upload(ctx context.Context, file any, folder, publicID string) (string, string, error)
	Destroy(ctx context.Context, publicID string) error
}

type Mailer interface {
	SendEmail(to, subject, body string) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps lists everything the HTTP layer talks to. Cache, Images and Mailer
// may be nil.
type Deps struct {
	JWTSecret string
	Location  *time.Location
	Log       *slog.Logger

	DB           Pinger
	Users        UserStore
	Services     ServiceStore
	Appointments AppointmentStore
	Reviews      ReviewStore
	Audit        AuditStore
	Profiles     ProfileStore
	Booking      Booker
	Ratings      Ratings
	RatingCache  RatingCache
	Sweeper      Sweeper
	Images       ImageStore
	Mailer       Mailer
}

type Handler struct {
	Deps
	now func() time.Time
}

func New(d Deps) *Handler {
	if d.Location == nil {
		d.Location = time.UTC
	}
	return &Handler{Deps: d, now: time.Now}
}

var errForbidden = fiber.NewError(fiber.StatusForbidden, "You are not allowed to access this resource")

// writeError maps domain errors onto HTTP responses. Anything unrecognised is
// a 500 whose detail only goes to the log.
func (h *Handler) writeError(c *fiber.Ctx, err error) error {
	status, code, msg := fiber.StatusInternalServerError, "internal_error", "Internal server error"

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		status, code, msg = fe.Code, statusCode(fe.Code), fe.Message
	case errors.Is(err, booking.ErrServicesInvalid):
		status, code, msg = fiber.StatusBadRequest, "services_invalid", "services invalid"
	case errors.Is(err, booking.ErrProviderUnavailable):
		status, code, msg = fiber.StatusBadRequest, "provider_unavailable", "provider unavailable"
	case errors.Is(err, booking.ErrOutsideWorkingHours):
		status, code, msg = fiber.StatusBadRequest, "outside_working_hours", err.Error()
	case errors.Is(err, booking.ErrInvalidRequest),
		errors.Is(err, models.ErrInvalidWorkingHours):
		status, code, msg = fiber.StatusBadRequest, "invalid_request", err.Error()
	case errors.Is(err, rating.ErrInvalidScore):
		status, code, msg = fiber.StatusBadRequest, "invalid_score", err.Error()
	case errors.Is(err, models.ErrInvalidTransition):
		status, code, msg = fiber.StatusBadRequest, "invalid_transition", err.Error()
	case errors.Is(err, models.ErrNotCompleted):
		status, code, msg = fiber.StatusBadRequest, "not_completed", err.Error()
	case errors.Is(err, models.ErrAlreadyRated):
		status, code, msg = fiber.StatusConflict, "already_rated", err.Error()
	case errors.Is(err, repository.ErrEmailTaken):
		status, code, msg = fiber.StatusConflict, "email_taken", err.Error()
	case errors.Is(err, repository.ErrConflict):
		status, code, msg = fiber.StatusConflict, "conflict", "The record was changed by another request, reload and retry"
	case errors.Is(err, repository.ErrNotFound):
		status, code, msg = fiber.StatusNotFound, "not_found", "Resource not found"
	case errors.Is(err, utils.ErrUploadsDisabled):
		status, code, msg = fiber.StatusServiceUnavailable, "uploads_disabled", err.Error()
	}

	if status >= fiber.StatusInternalServerError {
		h.Log.Error("request failed",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
			"err", err,
		)
	}
	return c.Status(status).JSON(utils.ErrorResponse{Message: msg, Error: code})
}

// statusCode turns an HTTP status into the snake_case code used in error
// bodies, e.g. 403 -> "forbidden".
func statusCode(status int) string {
	return strings.ReplaceAll(strings.ToLower(http.StatusText(status)), " ", "_")
}

func badRequest(msg string) error {
	return fiber.NewError(fiber.StatusBadRequest, msg)
}

// idParam parses a positive numeric path id. Malformed ids read as unknown.
func idParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, repository.ErrNotFound
	}
	return uint(id), nil
}

func pagination(c *fiber.Ctx) (int, int) {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

func pages(total int64, limit int) int {
	return (int(total) + limit - 1) / limit
}

func openUpload(fh *multipart.FileHeader) (multipart.File, error) {
	if fh.Size > 5<<20 {
		return nil, badRequest("Image must be 5MB or smaller")
	}
	return fh.Open()
}

// Health is the liveness probe.
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready also checks the database.
func (h *Handler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	if err := h.DB.Ping(ctx); err != nil {
		h.Log.Warn("readiness check failed", "err", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(utils.ErrorResponse{Message: "database unavailable", Error: "database_unavailable"})
	}
	return c.JSON(fiber.Map{"status": "ready"})
}
