package core

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Attendance is one ledger entry: a check-in and an optional check-out,
// both stored in UTC. At most one entry per employee may have a null
// check-out at any time; the reconciler protects that invariant.
type Attendance struct {
	ID         uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	EmployeeID uint       `gorm:"column:employee_id;not null;index" json:"employeeId"`
	CheckIn    time.Time  `gorm:"column:check_in;not null" json:"checkIn"`
	CheckOut   *time.Time `gorm:"column:check_out" json:"checkOut"`

	// AttendanceType marks how the entry was produced; machine syncs
	// always record on-site ("wfo") attendance.
	AttendanceType string `gorm:"column:attendance_type;not null;default:wfo" json:"attendanceType"`

	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;<-:create" json:"-"`
	UpdatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP on update CURRENT_TIMESTAMP" json:"-"`

	Employee Employee `gorm:"foreignKey:EmployeeID;references:ID" json:"-"`
}

func (Attendance) TableName() string {
	return "attendances"
}

// LastAttendance returns the employee's most recent ledger entry by
// check-in, nil without error when they have none yet.
func LastAttendance(db *gorm.DB, employeeID uint) (*Attendance, error) {
	var att Attendance
	result := db.Where("employee_id = ?", employeeID).
		Order("check_in DESC, id DESC").
		First(&att)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &att, nil
}
