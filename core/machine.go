package core

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	v1 "imbsoft.co.id/attendance/device/v1"
)

var validate = validator.New()

// Machine is one biometric terminal.
//
// The terminal authenticates with a single SessionID cookie and will stop
// issuing cookies when it sees too many distinct sessions, so the last
// known cookie is persisted on the row (Cookie) and reused across runs.
type Machine struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Host     string `gorm:"column:host;not null" json:"host" validate:"required,ip"`
	Port     int    `gorm:"column:port;not null;default:80" json:"port" validate:"required,min=1,max=65535"`
	LoginID  string `gorm:"column:loginid;not null" json:"loginId" validate:"required"`
	Password string `gorm:"column:password_or_key;not null" json:"-" validate:"required"`

	// TimeoutSeconds bounds every request to the device.
	TimeoutSeconds int `gorm:"column:timeout;not null;default:30" json:"timeoutSeconds" validate:"min=1"`

	// LocalIP is an operator note: the machine's address on the local
	// network.
	LocalIP string `gorm:"column:ip_local" json:"localIp"`

	// Cookie holds the cached session token as JSON with named fields.
	Cookie datatypes.JSON `gorm:"column:cookie" json:"-"`

	// Inactive machines are skipped by scheduled runs but can still be
	// synced interactively.
	Active bool `gorm:"column:active;not null;default:true" json:"active"`

	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;<-:create" json:"-"`
	UpdatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP on update CURRENT_TIMESTAMP" json:"-"`
}

func (Machine) TableName() string {
	return "attendance_machines"
}

// Validate runs write-time validation, including the host IP format check.
func (m *Machine) Validate() error {
	return validate.Struct(m)
}

// BeforeSave rejects invalid rows on any write path, including writes made
// by external machine-management tooling.
func (m *Machine) BeforeSave(tx *gorm.DB) error {
	return m.Validate()
}

func (m *Machine) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", m.Host, m.Port)
}

// DisplayName identifies the machine in logs and errors.
func (m *Machine) DisplayName() string {
	return fmt.Sprintf("%s:%d (%s)", m.Host, m.Port, m.LocalIP)
}

func (m *Machine) Timeout() time.Duration {
	return time.Duration(m.TimeoutSeconds) * time.Second
}

// SessionToken decodes the cached token, nil when none is cached.
func (m *Machine) SessionToken() (*v1.Token, error) {
	if len(m.Cookie) == 0 {
		return nil, nil
	}
	var tok v1.Token
	if err := json.Unmarshal(m.Cookie, &tok); err != nil {
		return nil, fmt.Errorf("decode cached session token: %w", err)
	}
	return &tok, nil
}

// SetSessionToken encodes the token onto the row; nil clears it.
func (m *Machine) SetSessionToken(tok *v1.Token) error {
	if tok == nil {
		m.Cookie = nil
		return nil
	}
	b, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	m.Cookie = datatypes.JSON(b)
	return nil
}

// MachineEmployee links a local employee to the device pk the terminal
// assigned them. Links are created and updated by the employee-id sync and
// never deleted automatically.
type MachineEmployee struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	MachineID  uint   `gorm:"column:machine_id;not null;index" json:"machineId"`
	EmployeeID uint   `gorm:"column:employee_id;not null;index" json:"employeeId"`
	DevicePK   string `gorm:"column:device_pk;not null" json:"devicePk"`

	Machine  Machine  `gorm:"foreignKey:MachineID;references:ID" json:"-"`
	Employee Employee `gorm:"foreignKey:EmployeeID;references:ID" json:"-"`
}

func (MachineEmployee) TableName() string {
	return "attendance_machine_employees"
}
