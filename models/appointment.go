package models

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"
)

type AppointmentStatus string

const (
	StatusPending    AppointmentStatus = "pending"
	StatusInProgress AppointmentStatus = "in-progress"
	StatusCompleted  AppointmentStatus = "completed"
	StatusCancelled  AppointmentStatus = "cancelled"
	// StatusExpired is set by the lifecycle sweep when an appointment's end
	// time passes while it is still pending or in progress.
	StatusExpired AppointmentStatus = "expired"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

type PaymentMethod string

const (
	PaymentCash        PaymentMethod = "cash"
	PaymentCard        PaymentMethod = "card"
	PaymentMobileMoney PaymentMethod = "mobile-money"
)

type NotificationStatus string

const (
	NotificationUnread NotificationStatus = "unread"
	NotificationRead   NotificationStatus = "read"
)

const (
	MinRatingScore = 0.0
	MaxRatingScore = 5.0
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotCompleted      = errors.New("appointment is not completed")
	ErrAlreadyRated      = errors.New("appointment already rated")
	ErrScoreOutOfRange   = errors.New("rating score must be between 0 and 5")
)

// ActiveStatuses are the statuses the lifecycle sweep may expire.
var ActiveStatuses = []AppointmentStatus{StatusPending, StatusInProgress}

type Appointment struct {
	gorm.Model
	CustomerID uint              `json:"customerId" gorm:"index;not null"`
	Customer   *User             `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	ProviderID uint              `json:"providerId" gorm:"index:idx_provider_date;not null"`
	Provider   *User             `json:"provider,omitempty" gorm:"foreignKey:ProviderID"`
	Services   []ProviderService `json:"services" gorm:"many2many:appointment_services;"`
	Date       string            `json:"date" gorm:"type:varchar(10);index:idx_provider_date;not null"` // YYYY-MM-DD
	StartTime  time.Time         `json:"startTime" gorm:"not null"`
	Duration   int               `json:"duration" gorm:"not null"` // minutes
	EndTime    time.Time         `json:"endTime" gorm:"index;not null"`

	Status             AppointmentStatus  `json:"status" gorm:"type:varchar(16);index;not null"`
	PaymentStatus      PaymentStatus      `json:"paymentStatus" gorm:"type:varchar(16);not null"`
	PaymentMethod      PaymentMethod      `json:"paymentMethod" gorm:"type:varchar(16);not null"`
	NotificationStatus NotificationStatus `json:"notificationStatus" gorm:"type:varchar(16);not null"`

	RatingScore   *float64   `json:"ratingScore,omitempty" gorm:"type:float8"`
	RatingComment string     `json:"ratingComment,omitempty"`
	RatedAt       *time.Time `json:"ratedAt,omitempty"`
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.Status == "" {
		a.Status = StatusPending
	}
	if a.PaymentStatus == "" {
		a.PaymentStatus = PaymentPending
	}
	if a.PaymentMethod == "" {
		a.PaymentMethod = PaymentCash
	}
	if a.NotificationStatus == "" {
		a.NotificationStatus = NotificationUnread
	}
	a.EndTime = a.EndAt()
	return nil
}

// EndAt is StartTime + Duration.
func (a *Appointment) EndAt() time.Time {
	return a.StartTime.Add(time.Duration(a.Duration) * time.Minute)
}

// Overlaps reports whether [a.start, a.end) and [start, end) intersect.
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return a.StartTime.Before(end) && a.EndAt().After(start)
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusExpired
}

// CanTransition validates a move from the current status to next.
func (a *Appointment) CanTransition(next AppointmentStatus) error {
	switch a.Status {
	case StatusPending:
		if next == StatusInProgress || next == StatusCancelled || next == StatusExpired {
			return nil
		}
	case StatusInProgress:
		if next == StatusCompleted || next == StatusCancelled || next == StatusExpired {
			return nil
		}
	case StatusCompleted, StatusCancelled, StatusExpired:
		return fmt.Errorf("%w: no transitions allowed from %s", ErrInvalidTransition, a.Status)
	}
	return fmt.Errorf("%w: from %s to %s", ErrInvalidTransition, a.Status, next)
}

// Rateable reports whether a customer rating may be attached now.
func (a *Appointment) Rateable() error {
	if a.Status != StatusCompleted {
		return ErrNotCompleted
	}
	if a.RatingScore != nil {
		return ErrAlreadyRated
	}
	return nil
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentMobileMoney:
		return true
	}
	return false
}

func (p PaymentStatus) Valid() bool {
	return p == PaymentPending || p == PaymentPaid
}

func (n NotificationStatus) Valid() bool {
	return n == NotificationUnread || n == NotificationRead
}

// ValidScore checks a rating score at write time.
func ValidScore(score float64) error {
	if math.IsNaN(score) || score < MinRatingScore || score > MaxRatingScore {
		return ErrScoreOutOfRange
	}
	return nil
}
