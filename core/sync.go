package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	v1 "imbsoft.co.id/attendance/device/v1"
	"imbsoft.co.id/attendance/utils"
)

// Mode selects how machine-level failures propagate. Interactive runs
// surface the first error to the invoking actor; unattended (scheduled)
// runs log it and move on to the next machine.
type Mode int

const (
	ModeInteractive Mode = iota
	ModeUnattended
)

// ErrOutsideSyncWindow refuses a download pass near midnight. The machine
// clock can drift a few minutes from the server clock; between 23:00 and
// 01:00 machine-local time the two may disagree on the calendar date,
// which would corrupt same-day matching in the reconciler.
var ErrOutsideSyncWindow = errors.New("attendance cannot be downloaded after 23:00 or before 01:00")

var timeNow = time.Now

// withinSyncWindow reports whether a download pass is allowed at the given
// instant, evaluated in machine-local time.
func withinSyncWindow(now time.Time) bool {
	local := now.In(utils.JakartaTZ)
	hour23 := time.Date(local.Year(), local.Month(), local.Day(), 23, 0, 0, 0, utils.JakartaTZ)
	hour1 := time.Date(local.Year(), local.Month(), local.Day(), 1, 0, 0, 0, utils.JakartaTZ)
	return !local.After(hour23) && !local.Before(hour1)
}

// machineTokenStore persists the device session token on the machine row.
// Clears are written immediately so an invalidated token never leaks into
// the next run.
type machineTokenStore struct {
	db      *gorm.DB
	machine *Machine
}

func (s *machineTokenStore) Load() (*v1.Token, error) {
	return s.machine.SessionToken()
}

func (s *machineTokenStore) Save(tok *v1.Token) error {
	if err := s.machine.SetSessionToken(tok); err != nil {
		return err
	}
	return s.db.Model(s.machine).Update("cookie", s.machine.Cookie).Error
}

func (s *machineTokenStore) Clear() error {
	s.machine.Cookie = nil
	return s.db.Model(s.machine).Update("cookie", nil).Error
}

func newDeviceClient(db *gorm.DB, m *Machine) *v1.Client {
	return v1.NewClient(m.BaseURL(), m.Timeout(), &machineTokenStore{db: db, machine: m})
}

// TryConnection probes machine reachability without logging in, so a test
// click does not consume the device's scarce session.
func TryConnection(ctx context.Context, m *Machine) error {
	client := v1.NewClient(m.BaseURL(), m.Timeout(), &v1.MemoryTokenStore{})
	return client.Probe(ctx)
}

// DownloadAttendance runs one download pass over the given machines.
//
// The pass is refused outright outside the sync window. Machines are
// processed sequentially; each machine is an independent failure domain,
// so in unattended mode one machine failing never stops the others.
func DownloadAttendance(ctx context.Context, db *gorm.DB, machines []Machine, mode Mode) error {
	now := timeNow()
	if !withinSyncWindow(now) {
		log.Printf("download refused: %v", ErrOutsideSyncWindow)
		return ErrOutsideSyncWindow
	}

	runID := uuid.NewString()
	for i := range machines {
		if err := ctx.Err(); err != nil {
			return err
		}

		m := &machines[i]
		log.Printf("[%s] syncing machine %s", runID, m.DisplayName())

		if err := downloadMachine(ctx, db, m, now); err != nil {
			if mode == ModeInteractive {
				return fmt.Errorf("%s: %w", m.DisplayName(), err)
			}
			log.Printf("[%s] %s: %v", runID, m.DisplayName(), err)
		}
	}
	return nil
}

// downloadMachine is a var so orchestration can be tested apart from
// device I/O.
var downloadMachine = func(ctx context.Context, db *gorm.DB, m *Machine, now time.Time) error {
	var links []MachineEmployee
	if err := db.Where("machine_id = ?", m.ID).Find(&links).Error; err != nil {
		return err
	}
	if len(links) == 0 {
		return nil
	}

	client := newDeviceClient(db, m)
	if err := client.Login(ctx, m.LoginID, m.Password); err != nil {
		return err
	}

	date := now.In(utils.JakartaTZ).Format("2006-01-02")
	uids := utils.Map(links, func(l MachineEmployee) string { return l.DevicePK })

	events, err := client.FetchReport(ctx, date, date, uids)
	if err != nil {
		if errors.Is(err, v1.ErrNoDataToday) {
			log.Printf("%s: no attendance data yet today", m.DisplayName())
			return nil
		}
		return err
	}

	// Row failures are recoverable: log with the employee identity and
	// keep going. Each applied row is already committed, so rows written
	// before a failure stay written.
	for _, ev := range events {
		if err := reconcileEvent(db, ev); err != nil {
			log.Printf("%s: employee %s (%s): %v", m.DisplayName(), ev.Name, ev.Code, err)
		}
	}
	return nil
}

func reconcileEvent(db *gorm.DB, ev v1.AttendanceEvent) error {
	emp, err := FindEmployeeByDeviceID(db, ev.Code)
	if err != nil {
		return err
	}
	if emp == nil {
		return fmt.Errorf("no employee with device code %s", ev.Code)
	}

	last, err := LastAttendance(db, emp.ID)
	if err != nil {
		return err
	}

	plan, err := PlanReconcile(ev, last, utils.JakartaTZ)
	if err != nil {
		return err
	}
	return ApplyReconcile(db, emp, plan)
}

// SyncEmployeeIDs refreshes the employee links of each machine from its
// user listing: for every local employee whose device code appears on the
// device, the link's device pk is updated if the terminal re-enrolled
// them, or created if missing. Stale links are never deleted here.
func SyncEmployeeIDs(ctx context.Context, db *gorm.DB, machines []Machine, mode Mode) error {
	for i := range machines {
		if err := ctx.Err(); err != nil {
			return err
		}

		m := &machines[i]
		if err := syncMachineEmployees(ctx, db, m); err != nil {
			if mode == ModeInteractive {
				return fmt.Errorf("%s: %w", m.DisplayName(), err)
			}
			log.Printf("%s: %v", m.DisplayName(), err)
		}
	}
	return nil
}

// LinkAction is the upsert decision for one employee's machine link.
type LinkAction int

const (
	// LinkActionNone leaves the link alone: the employee is not enrolled
	// on the device, or the link already carries the current device pk.
	// Links are never deleted, even when the device no longer lists the
	// employee.
	LinkActionNone LinkAction = iota

	// LinkActionCreate records a first link for the employee.
	LinkActionCreate

	// LinkActionUpdate rewrites the link's device pk after the terminal
	// re-enrolled the employee under a new internal id.
	LinkActionUpdate
)

// LinkPlan is the effect to apply for one employee during the user sync.
type LinkPlan struct {
	Action   LinkAction
	DevicePK string
}

// PlanLinkUpsert decides how an employee's link should change given the
// device's current user listing entry (nil when the employee's code does
// not appear on the device) and the existing link (nil when none exists).
func PlanLinkUpsert(link *MachineEmployee, user *v1.DeviceUser) LinkPlan {
	if user == nil {
		return LinkPlan{Action: LinkActionNone}
	}
	if link == nil {
		return LinkPlan{Action: LinkActionCreate, DevicePK: user.DevicePK}
	}
	if link.DevicePK != user.DevicePK {
		return LinkPlan{Action: LinkActionUpdate, DevicePK: user.DevicePK}
	}
	return LinkPlan{Action: LinkActionNone}
}

func syncMachineEmployees(ctx context.Context, db *gorm.DB, m *Machine) error {
	client := newDeviceClient(db, m)
	if err := client.Login(ctx, m.LoginID, m.Password); err != nil {
		return err
	}

	users, err := client.FetchUsers(ctx)
	if err != nil {
		return err
	}

	var employees []Employee
	if err := db.Where("device_employee_id <> ''").Find(&employees).Error; err != nil {
		return err
	}

	for _, emp := range employees {
		user := utils.Find(users, func(u v1.DeviceUser) bool {
			return u.Code == emp.DeviceEmployeeID
		})

		var link MachineEmployee
		found := &link
		result := db.Where("machine_id = ? AND employee_id = ?", m.ID, emp.ID).First(&link)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			found = nil
		} else if result.Error != nil {
			return result.Error
		}

		switch plan := PlanLinkUpsert(found, user); plan.Action {
		case LinkActionCreate:
			created := MachineEmployee{
				MachineID:  m.ID,
				EmployeeID: emp.ID,
				DevicePK:   plan.DevicePK,
			}
			if err := db.Create(&created).Error; err != nil {
				return err
			}
		case LinkActionUpdate:
			if err := db.Model(&link).Update("device_pk", plan.DevicePK).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
