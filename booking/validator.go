// Package booking validates and creates appointments.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/meinhoongagan/groomly/events"
	"github.com/meinhoongagan/groomly/models"
)

const DateLayout = "2006-01-02"

// MaxDuration caps a booking at one day, in minutes.
const MaxDuration = 24 * 60

var (
	ErrInvalidRequest      = errors.New("invalid booking request")
	ErrServicesInvalid     = errors.New("services invalid")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrOutsideWorkingHours = fmt.Errorf("%w: outside the provider's working hours", ErrInvalidRequest)
)

type Request struct {
	ProviderID    uint                 `json:"providerId"`
	ServiceIDs    []uint               `json:"serviceIds"`
	Date          string               `json:"date"`      // YYYY-MM-DD, optional with an RFC 3339 start
	StartTime     string               `json:"startTime"` // RFC 3339 or HH:MM
	Duration      int                  `json:"duration"`  // minutes, 0 = sum of services
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
}

type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ServiceFinder interface {
	FindOwned(ctx context.Context, providerID uint, ids []uint) ([]models.ProviderService, error)
}

type Schedule interface {
	WorkingHours(ctx context.Context, providerID uint) ([]models.WorkingHours, error)
}

type AppointmentStore interface {
	LockProviderDay(ctx context.Context, providerID uint, date string) error
	CountOverlapping(ctx context.Context, providerID uint, date string, start, end time.Time) (int64, error)
	Create(ctx context.Context, appt *models.Appointment) error
}

type AuditRecorder interface {
	Record(ctx context.Context, entry *models.AuditLog) error
}

type Validator struct {
	tx           TxRunner
	services     ServiceFinder
	schedule     Schedule
	appointments AppointmentStore
	audit        AuditRecorder
	events       events.Publisher
	loc          *time.Location
	log          *slog.Logger
}

func NewValidator(tx TxRunner, services ServiceFinder, schedule Schedule, appointments AppointmentStore, audit AuditRecorder, publisher events.Publisher, loc *time.Location, log *slog.Logger) *Validator {
	if loc == nil {
		loc = time.UTC
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Validator{
		tx:           tx,
		services:     services,
		schedule:     schedule,
		appointments: appointments,
		audit:        audit,
		events:       publisher,
		loc:          loc,
		log:          log,
	}
}

// Book checks service ownership and the provider's calendar, then inserts a
// pending appointment for customerID. The overlap check and the insert run
// under a per provider-day lock, so two concurrent requests cannot both pass.
func (v *Validator) Book(ctx context.Context, customerID uint, req Request) (*models.Appointment, error) {
	if req.ProviderID == 0 || len(req.ServiceIDs) == 0 {
		return nil, fmt.Errorf("%w: provider and at least one service are required", ErrInvalidRequest)
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = models.PaymentCash
	}
	if !req.PaymentMethod.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrInvalidRequest, req.PaymentMethod)
	}
	start, date, err := ParseStart(req.Date, req.StartTime, v.loc)
	if err != nil {
		return nil, err
	}

	ids := distinct(req.ServiceIDs)
	services, err := v.services.FindOwned(ctx, req.ProviderID, ids)
	if err != nil {
		return nil, fmt.Errorf("load services: %w", err)
	}
	if len(services) != len(ids) {
		return nil, ErrServicesInvalid
	}

	duration := req.Duration
	if duration == 0 {
		duration = TotalDuration(services)
	}
	if duration <= 0 || duration > MaxDuration {
		return nil, fmt.Errorf("%w: duration must be between 1 and %d minutes", ErrInvalidRequest, MaxDuration)
	}

	appt := &models.Appointment{
		CustomerID:         customerID,
		ProviderID:         req.ProviderID,
		Services:           services,
		Date:               date,
		StartTime:          start,
		Duration:           duration,
		Status:             models.StatusPending,
		PaymentStatus:      models.PaymentPending,
		PaymentMethod:      req.PaymentMethod,
		NotificationStatus: models.NotificationUnread,
	}
	end := appt.EndAt()

	hours, err := v.schedule.WorkingHours(ctx, req.ProviderID)
	if err != nil {
		return nil, fmt.Errorf("load working hours: %w", err)
	}
	if err := WithinWorkingHours(hours, start, end, v.loc); err != nil {
		return nil, err
	}

	err = v.tx.InTx(ctx, func(ctx context.Context) error {
		if err := v.appointments.LockProviderDay(ctx, req.ProviderID, date); err != nil {
			return err
		}
		n, err := v.appointments.CountOverlapping(ctx, req.ProviderID, date, start, end)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrProviderUnavailable
		}
		return v.appointments.Create(ctx, appt)
	})
	if errors.Is(err, ErrProviderUnavailable) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("book appointment: %w", err)
	}

	v.afterCreate(ctx, customerID, appt)
	return appt, nil
}

// afterCreate records the audit entry and the domain event. The appointment
// is already committed, so failures here are only logged.
func (v *Validator) afterCreate(ctx context.Context, actorID uint, appt *models.Appointment) {
	entry := models.NewAuditLog(actorID, "appointment", appt.ID, "create", Describe(appt, v.loc))
	if err := v.audit.Record(ctx, entry); err != nil {
		v.log.Error("audit write failed", "appointment_id", appt.ID, "err", err)
	}

	payload := map[string]any{
		"appointmentId": appt.ID,
		"customerId":    appt.CustomerID,
		"providerId":    appt.ProviderID,
		"date":          appt.Date,
		"startTime":     appt.StartTime,
		"endTime":       appt.EndTime,
	}
	if err := v.events.Publish(ctx, events.New(events.AppointmentCreated, appt.ID, payload)); err != nil {
		v.log.Warn("appointment event publish failed", "appointment_id", appt.ID, "err", err)
	}
	v.log.Info("appointment booked",
		"appointment_id", appt.ID,
		"provider_id", appt.ProviderID,
		"customer_id", appt.CustomerID,
		"date", appt.Date,
	)
}

// WithinWorkingHours checks that [start, end) lies inside the working window
// of start's weekday and clear of its break. A day with no entry is closed.
func WithinWorkingHours(hours []models.WorkingHours, start, end time.Time, loc *time.Location) error {
	local := start.In(loc)
	day := models.DayOfWeek(local.Weekday())

	var wh *models.WorkingHours
	for i := range hours {
		if hours[i].DayOfWeek == day {
			wh = &hours[i]
			break
		}
	}
	if wh == nil || !wh.IsWorkDay {
		return fmt.Errorf("%w: closed on %s", ErrOutsideWorkingHours, local.Weekday())
	}

	open, err := models.On(local, wh.StartTime, loc)
	if err != nil {
		return fmt.Errorf("parse working hours: %w", err)
	}
	closing, err := models.On(local, wh.EndTime, loc)
	if err != nil {
		return fmt.Errorf("parse working hours: %w", err)
	}
	if start.Before(open) || end.After(closing) {
		return fmt.Errorf("%w: open %s to %s", ErrOutsideWorkingHours, wh.StartTime, wh.EndTime)
	}

	if wh.BreakStart != nil && wh.BreakEnd != nil {
		bs, err := models.On(local, *wh.BreakStart, loc)
		if err != nil {
			return fmt.Errorf("parse working hours: %w", err)
		}
		be, err := models.On(local, *wh.BreakEnd, loc)
		if err != nil {
			return fmt.Errorf("parse working hours: %w", err)
		}
		if overlapsAny(start, end, []Interval{{Start: bs, End: be}}) {
			return fmt.Errorf("%w: break from %s to %s", ErrOutsideWorkingHours, *wh.BreakStart, *wh.BreakEnd)
		}
	}
	return nil
}

// ParseStart resolves the request's start into an instant and its calendar
// date in loc. An RFC 3339 start may omit the date; an HH:MM start needs it.
func ParseStart(date, clock string, loc *time.Location) (time.Time, string, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if clock == "" {
		return time.Time{}, "", fmt.Errorf("%w: startTime is required", ErrInvalidRequest)
	}

	if start, err := time.Parse(time.RFC3339, clock); err == nil {
		local := start.In(loc)
		derived := local.Format(DateLayout)
		if date != "" && date != derived {
			return time.Time{}, "", fmt.Errorf("%w: date %s does not match startTime %s", ErrInvalidRequest, date, clock)
		}
		return local, derived, nil
	}

	if date == "" {
		return time.Time{}, "", fmt.Errorf("%w: date is required with an HH:MM startTime", ErrInvalidRequest)
	}
	day, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("%w: invalid date %q", ErrInvalidRequest, date)
	}
	start, err := models.On(day, clock, loc)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("%w: invalid startTime %q", ErrInvalidRequest, clock)
	}
	return start, date, nil
}

func TotalDuration(services []models.ProviderService) int {
	total := 0
	for _, s := range services {
		total += s.Duration
	}
	return total
}

// Describe renders the audit description for a new booking.
func Describe(appt *models.Appointment, loc *time.Location) string {
	names := make([]string, 0, len(appt.Services))
	for _, s := range appt.Services {
		names = append(names, s.Name)
	}
	return fmt.Sprintf("booked %s with provider %d on %s from %s to %s",
		strings.Join(names, ", "),
		appt.ProviderID,
		appt.Date,
		appt.StartTime.In(loc).Format(models.ClockLayout),
		appt.EndAt().In(loc).Format(models.ClockLayout),
	)
}

func distinct(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
