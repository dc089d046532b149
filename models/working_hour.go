package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

type DayOfWeek int

const (
	Sunday DayOfWeek = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

const ClockLayout = "15:04"

var ErrInvalidWorkingHours = errors.New("invalid working hours")

type WorkingHours struct {
	gorm.Model
	ProviderID uint      `json:"providerId" gorm:"index;not null"`
	DayOfWeek  DayOfWeek `json:"dayOfWeek"`
	StartTime  string    `json:"startTime"` // Format "HH:MM" in 24h
	EndTime    string    `json:"endTime"`   // Format "HH:MM" in 24h
	IsWorkDay  bool      `json:"isWorkDay" gorm:"default:true"`
	BreakStart *string   `json:"breakStart"` // Optional break start time
	BreakEnd   *string   `json:"breakEnd"`   // Optional break end time
}

// Validate checks the day index and that start < end, with an optional
// break fully inside the working window.
func (w *WorkingHours) Validate() error {
	if w.DayOfWeek < Sunday || w.DayOfWeek > Saturday {
		return ErrInvalidWorkingHours
	}
	start, err := time.Parse(ClockLayout, w.StartTime)
	if err != nil {
		return ErrInvalidWorkingHours
	}
	end, err := time.Parse(ClockLayout, w.EndTime)
	if err != nil || !end.After(start) {
		return ErrInvalidWorkingHours
	}
	if (w.BreakStart == nil) != (w.BreakEnd == nil) {
		return ErrInvalidWorkingHours
	}
	if w.BreakStart != nil {
		bs, err := time.Parse(ClockLayout, *w.BreakStart)
		if err != nil {
			return ErrInvalidWorkingHours
		}
		be, err := time.Parse(ClockLayout, *w.BreakEnd)
		if err != nil || !be.After(bs) || bs.Before(start) || be.After(end) {
			return ErrInvalidWorkingHours
		}
	}
	return nil
}

// On returns the clock string hh:mm placed on the given day in loc.
func On(day time.Time, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}
