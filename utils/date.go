package utils

import (
	"fmt"
	"time"
)

// JakartaTZ is the timezone of the attendance machines. Syncs must be
// evaluated in machine-local time, not server time.
var JakartaTZ = time.FixedZone("WIB", 7*60*60)

// ParseTimeOnDate combines a base date with a clock string as printed by
// the device ("08:00" or "08:00:00").
func ParseTimeOnDate(baseDate time.Time, timeStr string) (time.Time, error) {
	t, err := time.Parse("15:04", timeStr)
	if err != nil {
		t, err = time.Parse("15:04:05", timeStr)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse time: %v", timeStr)
	}
	return time.Date(baseDate.Year(), baseDate.Month(), baseDate.Day(), t.Hour(), t.Minute(), t.Second(), 0, baseDate.Location()), nil
}
