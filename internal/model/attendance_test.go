package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTodayAttendance_ServerAndLocalHours(t *testing.T) {
	body := `{
		"status": "checked-in",
		"check_in": {"type": "check-in", "timestamp": "2024-03-04T03:30:00Z"},
		"hours_worked": 1.25
	}`
	var today TodayAttendance
	require.NoError(t, json.Unmarshal([]byte(body), &today))

	require.NotNil(t, today.ServerHours)
	assert.Equal(t, 1.25, *today.ServerHours)
	assert.Equal(t, AttendanceStatusCheckedIn, today.Status)

	now := time.Date(2024, 3, 4, 6, 0, 0, 0, time.UTC)
	assert.Equal(t, 2.5, today.HoursWorked(now))

	var empty *TodayAttendance
	assert.Zero(t, empty.HoursWorked(now))
}
