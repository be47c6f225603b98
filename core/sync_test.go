package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	v1 "imbsoft.co.id/attendance/device/v1"
	"imbsoft.co.id/attendance/utils"
)

func TestWithinSyncWindow(t *testing.T) {
	tests := []struct {
		name    string
		local   time.Time
		allowed bool
	}{
		{"Midday", time.Date(2024, 1, 10, 12, 0, 0, 0, utils.JakartaTZ), true},
		{"Exactly 23:00", time.Date(2024, 1, 10, 23, 0, 0, 0, utils.JakartaTZ), true},
		{"Exactly 01:00", time.Date(2024, 1, 10, 1, 0, 0, 0, utils.JakartaTZ), true},
		{"23:30", time.Date(2024, 1, 10, 23, 30, 0, 0, utils.JakartaTZ), false},
		{"00:30", time.Date(2024, 1, 10, 0, 30, 0, 0, utils.JakartaTZ), false},
		{"00:59", time.Date(2024, 1, 10, 0, 59, 0, 0, utils.JakartaTZ), false},
		{"Midday expressed in UTC", time.Date(2024, 1, 10, 5, 0, 0, 0, time.UTC), true},
		{"23:30 local expressed in UTC", time.Date(2024, 1, 10, 16, 30, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, withinSyncWindow(tt.local))
		})
	}
}

func stubClock(t *testing.T, now time.Time) {
	t.Helper()
	prev := timeNow
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = prev })
}

func stubDownloadMachine(t *testing.T, fn func(ctx context.Context, db *gorm.DB, m *Machine, now time.Time) error) {
	t.Helper()
	prev := downloadMachine
	downloadMachine = fn
	t.Cleanup(func() { downloadMachine = prev })
}

func TestDownloadAttendanceWindowGuard(t *testing.T) {
	stubClock(t, time.Date(2024, 1, 10, 23, 30, 0, 0, utils.JakartaTZ))

	var calls int
	stubDownloadMachine(t, func(ctx context.Context, db *gorm.DB, m *Machine, now time.Time) error {
		calls++
		return nil
	})

	machines := []Machine{{ID: 1, Host: "10.0.0.5", Port: 80}}
	err := DownloadAttendance(context.Background(), nil, machines, ModeUnattended)

	assert.ErrorIs(t, err, ErrOutsideSyncWindow)
	assert.Zero(t, calls, "no machine may be contacted outside the sync window")
}

func TestDownloadAttendanceMachineIsolation(t *testing.T) {
	stubClock(t, time.Date(2024, 1, 10, 12, 0, 0, 0, utils.JakartaTZ))

	machines := []Machine{
		{ID: 1, Host: "10.0.0.5", Port: 80},
		{ID: 2, Host: "10.0.0.6", Port: 80},
	}
	loginFailed := errors.New("login failed")

	t.Run("Unattended continues past a failing machine", func(t *testing.T) {
		var synced []uint
		stubDownloadMachine(t, func(ctx context.Context, db *gorm.DB, m *Machine, now time.Time) error {
			synced = append(synced, m.ID)
			if m.ID == 1 {
				return loginFailed
			}
			return nil
		})

		err := DownloadAttendance(context.Background(), nil, machines, ModeUnattended)
		require.NoError(t, err)
		assert.Equal(t, []uint{1, 2}, synced)
	})

	t.Run("Interactive surfaces the failure immediately", func(t *testing.T) {
		var synced []uint
		stubDownloadMachine(t, func(ctx context.Context, db *gorm.DB, m *Machine, now time.Time) error {
			synced = append(synced, m.ID)
			if m.ID == 1 {
				return loginFailed
			}
			return nil
		})

		err := DownloadAttendance(context.Background(), nil, machines, ModeInteractive)
		assert.ErrorIs(t, err, loginFailed)
		assert.Equal(t, []uint{1}, synced)
	})
}

func TestPlanLinkUpsert(t *testing.T) {
	user := &v1.DeviceUser{DevicePK: "15", Code: "1002", Name: "Siti Rahma"}

	tests := []struct {
		name     string
		link     *MachineEmployee
		user     *v1.DeviceUser
		expected LinkPlan
	}{
		{
			name:     "Employee not on device leaves link alone",
			link:     &MachineEmployee{MachineID: 1, EmployeeID: 7, DevicePK: "15"},
			user:     nil,
			expected: LinkPlan{Action: LinkActionNone},
		},
		{
			name:     "First sync creates the link",
			link:     nil,
			user:     user,
			expected: LinkPlan{Action: LinkActionCreate, DevicePK: "15"},
		},
		{
			name:     "Re-enrolled employee updates the existing link",
			link:     &MachineEmployee{MachineID: 1, EmployeeID: 7, DevicePK: "12"},
			user:     user,
			expected: LinkPlan{Action: LinkActionUpdate, DevicePK: "15"},
		},
		{
			name:     "Unchanged device pk is a no-op",
			link:     &MachineEmployee{MachineID: 1, EmployeeID: 7, DevicePK: "15"},
			user:     user,
			expected: LinkPlan{Action: LinkActionNone},
		},
		{
			name:     "Unknown employee with no link stays unlinked",
			link:     nil,
			user:     nil,
			expected: LinkPlan{Action: LinkActionNone},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PlanLinkUpsert(tt.link, tt.user))
		})
	}
}

func TestDownloadAttendanceHonorsDeadline(t *testing.T) {
	stubClock(t, time.Date(2024, 1, 10, 12, 0, 0, 0, utils.JakartaTZ))

	ctx, cancel := context.WithCancel(context.Background())

	var calls int
	stubDownloadMachine(t, func(ctx context.Context, db *gorm.DB, m *Machine, now time.Time) error {
		calls++
		cancel()
		return nil
	})

	machines := []Machine{
		{ID: 1, Host: "10.0.0.5", Port: 80},
		{ID: 2, Host: "10.0.0.6", Port: 80},
	}
	err := DownloadAttendance(ctx, nil, machines, ModeUnattended)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
