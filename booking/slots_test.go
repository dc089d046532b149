package booking

import (
	"testing"
	"time"

	"github.com/meinhoongagan/groomly/models"
)

func TestFreeSlots(t *testing.T) {
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	bs, be := "10:00", "10:30"
	wh := models.WorkingHours{DayOfWeek: models.Saturday, StartTime: "09:00", EndTime: "11:00", IsWorkDay: true, BreakStart: &bs, BreakEnd: &be}
	busy := []models.Appointment{
		{StartTime: day.Add(9*time.Hour + 30*time.Minute), Duration: 30, Status: models.StatusPending},
		{StartTime: day.Add(10*time.Hour + 30*time.Minute), Duration: 30, Status: models.StatusCancelled},
	}

	slots, err := FreeSlots(day, wh, 30*time.Minute, 30*time.Minute, busy, day, time.UTC)
	if err != nil {
		t.Fatalf("FreeSlots() error = %v", err)
	}
	want := []time.Time{day.Add(9 * time.Hour), day.Add(10*time.Hour + 30*time.Minute)}
	if len(slots) != len(want) {
		t.Fatalf("FreeSlots() = %v, want %v", slots, want)
	}
	for i := range want {
		if !slots[i].Equal(want[i]) {
			t.Errorf("slot %d = %s, want %s", i, slots[i].Format(time.RFC3339), want[i].Format(time.RFC3339))
		}
	}
}

func TestFreeSlots_SkipsPastAndClosedDays(t *testing.T) {
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	wh := models.WorkingHours{StartTime: "09:00", EndTime: "10:00", IsWorkDay: true}

	now := day.Add(9*time.Hour + 31*time.Minute)
	slots, err := FreeSlots(day, wh, 15*time.Minute, 15*time.Minute, nil, now, time.UTC)
	if err != nil {
		t.Fatalf("FreeSlots() error = %v", err)
	}
	if len(slots) != 1 || !slots[0].Equal(day.Add(9*time.Hour+45*time.Minute)) {
		t.Fatalf("FreeSlots() = %v, want only 09:45", slots)
	}

	wh.IsWorkDay = false
	slots, _ = FreeSlots(day, wh, 15*time.Minute, 15*time.Minute, nil, day, time.UTC)
	if len(slots) != 0 {
		t.Fatalf("closed day returned slots: %v", slots)
	}
}
