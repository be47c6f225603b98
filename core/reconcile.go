package core

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	v1 "imbsoft.co.id/attendance/device/v1"
	"imbsoft.co.id/attendance/utils"
)

// Action is the reconciler's decision for one report row.
type Action int

const (
	// ActionNone skips the row: it matches neither the close nor the
	// create rule (e.g. a repeated row from an earlier run, or a
	// check-out with no same-day open check-in).
	ActionNone Action = iota

	// ActionCreate opens a new ledger entry with the row's check-in.
	ActionCreate

	// ActionClose sets the check-out on the employee's last entry.
	ActionClose
)

// ReconcilePlan is the effect to apply for one row.
type ReconcilePlan struct {
	Action   Action
	RecordID uint      // entry to close, for ActionClose
	CheckIn  time.Time // UTC
	CheckOut time.Time // UTC, for ActionClose
}

// PlanReconcile decides the effect of one report row against the
// employee's last known ledger entry. Dates are compared in machine-local
// time (loc), never UTC, because the device prints machine-local dates.
//
// Rules, in order:
//   - no prior entry at all: open a new entry with the row's check-in;
//   - prior entry checked in on the row's date and the row resolves a
//     check-out: close that entry;
//   - prior entry checked in before the row's date and the row has a
//     check-in: open a new entry. The prior entry, if still open, stays
//     open; a new day's check-in does not close it (known edge case,
//     preserved deliberately);
//   - otherwise: no effect.
func PlanReconcile(event v1.AttendanceEvent, last *Attendance, loc *time.Location) (ReconcilePlan, error) {
	eventDate, err := time.ParseInLocation("2006-01-02", event.Date, loc)
	if err != nil {
		return ReconcilePlan{}, fmt.Errorf("invalid report date %q: %w", event.Date, err)
	}

	if event.CheckIn() == "" {
		return ReconcilePlan{}, fmt.Errorf("report row for %s has no check-in time", event.Code)
	}
	checkIn, err := utils.ParseTimeOnDate(eventDate, event.CheckIn())
	if err != nil {
		return ReconcilePlan{}, fmt.Errorf("invalid check-in time: %w", err)
	}

	var checkOut time.Time
	if out := event.CheckOut(); out != "" {
		checkOut, err = utils.ParseTimeOnDate(eventDate, out)
		if err != nil {
			return ReconcilePlan{}, fmt.Errorf("invalid check-out time: %w", err)
		}
	}

	if last == nil {
		return ReconcilePlan{Action: ActionCreate, CheckIn: checkIn.UTC()}, nil
	}

	lastLocal := last.CheckIn.In(loc)
	lastDate := time.Date(lastLocal.Year(), lastLocal.Month(), lastLocal.Day(), 0, 0, 0, 0, loc)

	switch {
	case !checkOut.IsZero() && lastDate.Equal(eventDate):
		return ReconcilePlan{Action: ActionClose, RecordID: last.ID, CheckOut: checkOut.UTC()}, nil
	case lastDate.Before(eventDate):
		return ReconcilePlan{Action: ActionCreate, CheckIn: checkIn.UTC()}, nil
	default:
		return ReconcilePlan{Action: ActionNone}, nil
	}
}

// ApplyReconcile commits the plan for one row in its own transaction.
// Durability is per row: a failure on a later row must not roll back
// entries already written in the same pass.
func ApplyReconcile(db *gorm.DB, emp *Employee, plan ReconcilePlan) error {
	switch plan.Action {
	case ActionCreate:
		return db.Transaction(func(tx *gorm.DB) error {
			return tx.Create(&Attendance{
				EmployeeID:     emp.ID,
				CheckIn:        plan.CheckIn,
				AttendanceType: "wfo",
			}).Error
		})
	case ActionClose:
		return db.Transaction(func(tx *gorm.DB) error {
			return tx.Model(&Attendance{}).
				Where("id = ?", plan.RecordID).
				Update("check_out", plan.CheckOut).Error
		})
	}
	return nil
}
