package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOnDate(t *testing.T) {
	base := time.Date(2024, 1, 10, 0, 0, 0, 0, JakartaTZ)

	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"Hours and minutes", "08:05", time.Date(2024, 1, 10, 8, 5, 0, 0, JakartaTZ), false},
		{"With seconds", "17:30:45", time.Date(2024, 1, 10, 17, 30, 45, 0, JakartaTZ), false},
		{"Empty", "", time.Time{}, true},
		{"Not a time", "8 AM", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimeOnDate(base, tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got))
		})
	}
}
