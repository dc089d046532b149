package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/meinhoongagan/groomly/models"
	"github.com/meinhoongagan/groomly/rating"
	"gorm.io/gorm"
)

type AppointmentRepository struct {
	db *DB
}

func NewAppointmentRepository(db *DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// LockProviderDay takes a transaction-scoped advisory lock on one provider's
// calendar day. Bookings for the same provider and date serialize on it.
func (r *AppointmentRepository) LockProviderDay(ctx context.Context, providerID uint, date string) error {
	if !inTx(ctx) {
		return ErrNoTx
	}
	key := fmt.Sprintf("appointment:%d:%s", providerID, date)
	if err := r.db.conn(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error; err != nil {
		return fmt.Errorf("lock provider day: %w", err)
	}
	return nil
}

// CountOverlapping counts non-cancelled appointments of the provider on date
// whose [start, end) intersects the given interval.
func (r *AppointmentRepository) CountOverlapping(ctx context.Context, providerID uint, date string, start, end time.Time) (int64, error) {
	var n int64
	err := r.db.conn(ctx).Model(&models.Appointment{}).
		Where("provider_id = ? AND date = ?", providerID, date).
		Where("status <> ?", models.StatusCancelled).
		Where("start_time < ? AND end_time > ?", end, start).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count overlapping appointments: %w", err)
	}
	return n, nil
}

// Create inserts the appointment and its service links. The linked services
// themselves are never written.
func (r *AppointmentRepository) Create(ctx context.Context, appt *models.Appointment) error {
	if err := r.db.conn(ctx).Omit("Services.*").Create(appt).Error; err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}
	return nil
}

func (r *AppointmentRepository) ByID(ctx context.Context, id uint) (*models.Appointment, error) {
	var appt models.Appointment
	err := r.db.conn(ctx).
		Preload("Services").
		Preload("Customer").
		Preload("Provider").
		First(&appt, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &appt, nil
}

type AppointmentFilter struct {
	UserID uint
	Role   models.Role
	Status models.AppointmentStatus
	Date   string
	Page   int
	Limit  int
}

// List returns appointments visible to the filter's user: customers see
// their bookings, providers their calendar, admins everything.
func (r *AppointmentRepository) List(ctx context.Context, f AppointmentFilter) ([]models.Appointment, int64, error) {
	q := r.db.conn(ctx).Model(&models.Appointment{})
	switch f.Role {
	case models.RoleCustomer:
		q = q.Where("customer_id = ?", f.UserID)
	case models.RoleProvider:
		q = q.Where("provider_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Date != "" {
		q = q.Where("date = ?", f.Date)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	var appts []models.Appointment
	err := q.Preload("Services").
		Order("start_time DESC").
		Offset(offset(f.Page, f.Limit)).Limit(f.Limit).
		Find(&appts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}
	return appts, total, nil
}

// Busy returns the non-cancelled appointments of a provider on date.
func (r *AppointmentRepository) Busy(ctx context.Context, providerID uint, date string) ([]models.Appointment, error) {
	var appts []models.Appointment
	err := r.db.conn(ctx).
		Where("provider_id = ? AND date = ? AND status <> ?", providerID, date, models.StatusCancelled).
		Order("start_time").
		Find(&appts).Error
	if err != nil {
		return nil, fmt.Errorf("busy appointments: %w", err)
	}
	return appts, nil
}

// UpdateFrom applies fields only if the row still has status from. A row
// changed in between yields ErrConflict.
func (r *AppointmentRepository) UpdateFrom(ctx context.Context, id uint, from models.AppointmentStatus, fields map[string]any) error {
	res := r.db.conn(ctx).Model(&models.Appointment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update appointment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// Overdue lists appointments still pending or in progress whose end time is
// before now.
func (r *AppointmentRepository) Overdue(ctx context.Context, now time.Time) ([]models.Appointment, error) {
	var appts []models.Appointment
	err := r.db.conn(ctx).
		Where("status IN ? AND end_time < ?", models.ActiveStatuses, now).
		Order("end_time").
		Find(&appts).Error
	if err != nil {
		return nil, fmt.Errorf("overdue appointments: %w", err)
	}
	return appts, nil
}

// Expire moves one appointment to expired unless something else already
// moved it out of an active status. It reports whether the row changed.
func (r *AppointmentRepository) Expire(ctx context.Context, id uint, now time.Time) (bool, error) {
	res := r.db.conn(ctx).Model(&models.Appointment{}).
		Where("id = ? AND status IN ?", id, models.ActiveStatuses).
		Updates(map[string]any{"status": models.StatusExpired, "updated_at": now})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// SetRating attaches a rating if the appointment belongs to customerID, is
// completed and is still unrated. ErrConflict means one of those no longer
// holds.
func (r *AppointmentRepository) SetRating(ctx context.Context, id, customerID uint, score float64, comment string, at time.Time) error {
	res := r.db.conn(ctx).Model(&models.Appointment{}).
		Where("id = ? AND customer_id = ?", id, customerID).
		Where("status = ? AND rating_score IS NULL", models.StatusCompleted).
		Updates(map[string]any{
			"rating_score":   score,
			"rating_comment": comment,
			"rated_at":       at,
		})
	if res.Error != nil {
		return fmt.Errorf("set rating: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (r *AppointmentRepository) ClearRating(ctx context.Context, id uint) error {
	res := r.db.conn(ctx).Model(&models.Appointment{}).
		Where("id = ? AND rating_score IS NOT NULL", id).
		Updates(map[string]any{
			"rating_score":   gorm.Expr("NULL"),
			"rating_comment": "",
			"rated_at":       gorm.Expr("NULL"),
		})
	if res.Error != nil {
		return fmt.Errorf("clear rating: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (r *AppointmentRepository) AppointmentRatingStats(ctx context.Context, providerID uint) (rating.Stats, error) {
	var stats rating.Stats
	err := r.db.conn(ctx).Model(&models.Appointment{}).
		Select("COUNT(rating_score) AS count, COALESCE(AVG(rating_score), 0)::float8 AS mean").
		Where("provider_id = ? AND rating_score IS NOT NULL", providerID).
		Scan(&stats).Error
	if err != nil {
		return rating.Stats{}, err
	}
	return stats, nil
}

// HardDelete removes the row and its service links permanently.
func (r *AppointmentRepository) HardDelete(ctx context.Context, id uint) error {
	appt := models.Appointment{}
	appt.ID = id
	res := r.db.conn(ctx).Unscoped().Select("Services").Delete(&appt)
	if res.Error != nil {
		return fmt.Errorf("delete appointment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// StartingBetween feeds the reminder job.
func (r *AppointmentRepository) StartingBetween(ctx context.Context, from, to time.Time) ([]models.Appointment, error) {
	var appts []models.Appointment
	err := r.db.conn(ctx).
		Preload("Customer").
		Preload("Provider").
		Preload("Services").
		Where("status IN ? AND start_time BETWEEN ? AND ?", models.ActiveStatuses, from, to).
		Find(&appts).Error
	if err != nil {
		return nil, fmt.Errorf("upcoming appointments: %w", err)
	}
	return appts, nil
}
