package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "imbsoft.co.id/attendance/device/v1"
	"imbsoft.co.id/attendance/utils"
)

func event(date string, times [6]string) v1.AttendanceEvent {
	return v1.AttendanceEvent{Date: date, Code: "1001", Name: "Budi Santoso", Times: times}
}

func wib(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, utils.JakartaTZ)
}

func TestPlanReconcileFirstPunch(t *testing.T) {
	ev := event("2024-01-10", [6]string{"08:00", "", "", "", "", ""})

	plan, err := PlanReconcile(ev, nil, utils.JakartaTZ)
	require.NoError(t, err)

	assert.Equal(t, ActionCreate, plan.Action)
	assert.Equal(t, wib(2024, 1, 10, 8, 0).UTC(), plan.CheckIn)
	assert.Equal(t, time.UTC, plan.CheckIn.Location())
}

func TestPlanReconcileSameDayCheckOut(t *testing.T) {
	ev := event("2024-01-10", [6]string{"08:00", "", "", "", "17:30", ""})
	last := &Attendance{ID: 42, EmployeeID: 7, CheckIn: wib(2024, 1, 10, 8, 0).UTC()}

	plan, err := PlanReconcile(ev, last, utils.JakartaTZ)
	require.NoError(t, err)

	assert.Equal(t, ActionClose, plan.Action)
	assert.Equal(t, uint(42), plan.RecordID)
	assert.Equal(t, wib(2024, 1, 10, 17, 30).UTC(), plan.CheckOut)
}

func TestPlanReconcileSameDayNoCheckOutIsNoop(t *testing.T) {
	// Re-running the sync before any closing punch exists must not open a
	// second record for the same day.
	ev := event("2024-01-10", [6]string{"08:00", "", "", "", "", ""})
	last := &Attendance{ID: 42, CheckIn: wib(2024, 1, 10, 8, 0).UTC()}

	plan, err := PlanReconcile(ev, last, utils.JakartaTZ)
	require.NoError(t, err)
	assert.Equal(t, ActionNone, plan.Action)
}

func TestPlanReconcileNewDayLeavesPreviousOpen(t *testing.T) {
	// Known edge case, preserved deliberately: a new day's check-in opens
	// a new record without closing yesterday's record, even if that one
	// never got a check-out.
	ev := event("2024-01-11", [6]string{"07:58", "", "", "", "", ""})
	last := &Attendance{ID: 42, CheckIn: wib(2024, 1, 10, 8, 0).UTC(), CheckOut: nil}

	plan, err := PlanReconcile(ev, last, utils.JakartaTZ)
	require.NoError(t, err)

	assert.Equal(t, ActionCreate, plan.Action)
	assert.Equal(t, wib(2024, 1, 11, 7, 58).UTC(), plan.CheckIn)
	assert.Zero(t, plan.RecordID, "the stale open record is not touched")
}

func TestPlanReconcileNewDayAfterClosedRecord(t *testing.T) {
	ev := event("2024-01-11", [6]string{"08:02", "", "", "", "", ""})
	last := &Attendance{
		ID:       42,
		CheckIn:  wib(2024, 1, 10, 8, 0).UTC(),
		CheckOut: utils.Ptr(wib(2024, 1, 10, 17, 30).UTC()),
	}

	plan, err := PlanReconcile(ev, last, utils.JakartaTZ)
	require.NoError(t, err)
	assert.Equal(t, ActionCreate, plan.Action)
}

func TestPlanReconcileEventBeforeLastCheckIn(t *testing.T) {
	ev := event("2024-01-09", [6]string{"08:00", "", "", "", "17:00", ""})
	last := &Attendance{ID: 42, CheckIn: wib(2024, 1, 10, 8, 0).UTC()}

	plan, err := PlanReconcile(ev, last, utils.JakartaTZ)
	require.NoError(t, err)
	assert.Equal(t, ActionNone, plan.Action)
}

func TestPlanReconcileTimezoneBoundary(t *testing.T) {
	// 23:30 WIB on the 10th is 16:30 UTC on the 10th, but 06:30 WIB on
	// the 11th is 23:30 UTC on the 10th. Date matching must happen in
	// machine-local time or the two collapse onto the same day.
	ev := event("2024-01-11", [6]string{"06:30", "", "", "", "", ""})
	last := &Attendance{ID: 42, CheckIn: wib(2024, 1, 10, 23, 30).UTC()}

	plan, err := PlanReconcile(ev, last, utils.JakartaTZ)
	require.NoError(t, err)
	assert.Equal(t, ActionCreate, plan.Action)
}

func TestPlanReconcileRowErrors(t *testing.T) {
	tests := []struct {
		name string
		ev   v1.AttendanceEvent
	}{
		{
			name: "Missing check-in",
			ev:   event("2024-01-10", [6]string{"", "", "", "", "17:00", ""}),
		},
		{
			name: "Garbage date",
			ev:   event("10/01/2024", [6]string{"08:00", "", "", "", "", ""}),
		},
		{
			name: "Garbage time",
			ev:   event("2024-01-10", [6]string{"8 AM", "", "", "", "", ""}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PlanReconcile(tt.ev, nil, utils.JakartaTZ)
			assert.Error(t, err)
		})
	}
}
