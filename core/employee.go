package core

import (
	"errors"

	"gorm.io/gorm"
)

// Employee is the local employee directory entry. DeviceEmployeeID is the
// code configured on the terminal ("ID Number"), unique across employees;
// it is how report rows are matched back to local records.
type Employee struct {
	ID               uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Code             string `gorm:"column:code" json:"code"`
	Name             string `gorm:"column:name;not null" json:"name"`
	DeviceEmployeeID string `gorm:"column:device_employee_id;uniqueIndex" json:"deviceEmployeeId"`
}

func (Employee) TableName() string {
	return "employees"
}

// FindEmployeeByDeviceID looks an employee up by their device employee
// code. Returns nil without error when no employee carries the code.
func FindEmployeeByDeviceID(db *gorm.DB, deviceEmployeeID string) (*Employee, error) {
	var emp Employee
	result := db.Where("device_employee_id = ?", deviceEmployeeID).First(&emp)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &emp, nil
}
