package booking

import (
	"time"

	"github.com/meinhoongagan/groomly/models"
)

type Interval struct {
	Start time.Time
	End   time.Time
}

// FreeSlots lists start times on day, stepping by step through the
// provider's working window, at which a booking of length duration would
// overlap neither the break nor any busy appointment. Starts before now are
// skipped.
func FreeSlots(day time.Time, wh models.WorkingHours, duration, step time.Duration, busy []models.Appointment, now time.Time, loc *time.Location) ([]time.Time, error) {
	if !wh.IsWorkDay || duration <= 0 || step <= 0 {
		return nil, nil
	}
	windowStart, err := models.On(day, wh.StartTime, loc)
	if err != nil {
		return nil, err
	}
	windowEnd, err := models.On(day, wh.EndTime, loc)
	if err != nil {
		return nil, err
	}

	blocked := make([]Interval, 0, len(busy)+1)
	if wh.BreakStart != nil && wh.BreakEnd != nil {
		bs, err := models.On(day, *wh.BreakStart, loc)
		if err != nil {
			return nil, err
		}
		be, err := models.On(day, *wh.BreakEnd, loc)
		if err != nil {
			return nil, err
		}
		blocked = append(blocked, Interval{Start: bs, End: be})
	}
	for _, a := range busy {
		if a.Status == models.StatusCancelled {
			continue
		}
		blocked = append(blocked, Interval{Start: a.StartTime, End: a.EndAt()})
	}

	var slots []time.Time
	for t := windowStart; !t.Add(duration).After(windowEnd); t = t.Add(step) {
		if t.Before(now) {
			continue
		}
		if !overlapsAny(t, t.Add(duration), blocked) {
			slots = append(slots, t)
		}
	}
	return slots, nil
}

// overlapsAny uses half-open intervals: touching endpoints do not collide.
func overlapsAny(start, end time.Time, blocked []Interval) bool {
	for _, b := range blocked {
		if start.Before(b.End) && b.Start.Before(end) {
			return true
		}
	}
	return false
}
