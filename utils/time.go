package utils

import "time"

// InZone formats t as "2006-01-02 15:04" in loc, falling back to UTC.
func InZone(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01-02 15:04")
}
