package handler

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"geostaff-client/internal/apitest"
	"geostaff-client/internal/capture"
	"geostaff-client/internal/model"
)

func TestCheckInThenOut(t *testing.T) {
	env := newEnv(t)
	env.login(t, model.RoleEmployee)
	ctx := context.Background()

	res, err := env.app.Attendance.CheckIn(ctx, CaptureForm{WorkStatus: model.WorkStatusSite, Notes: "  client visit "})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Contains(t, env.out.String(), "Checked in successfully")
	assert.Contains(t, env.out.String(), "Photo captured (640x480)")
	assert.Contains(t, env.out.String(), "Check out when you finish")

	recs := env.srv.Records(testPhone)
	require.Len(t, recs, 1)
	assert.Equal(t, model.WorkStatusSite, recs[0].WorkStatus)
	assert.Equal(t, "client visit", recs[0].Notes)
	assert.Equal(t, testFix.Latitude, recs[0].Location.Latitude)
	assert.True(t, strings.HasPrefix(recs[0].PhotoURL, "data:image/jpeg;base64,"))
	assert.NotEmpty(t, recs[0].DeviceID)

	env.out.Reset()
	res, err = env.app.Attendance.CheckOut(ctx, CaptureForm{})
	require.NoError(t, err)
	require.NotNil(t, res.HoursWorked)
	assert.Contains(t, env.out.String(), "Checked out successfully")
	assert.Contains(t, env.out.String(), "All done for today")

	recs = env.srv.Records(testPhone)
	require.Len(t, recs, 2)
	assert.Equal(t, recs[0].DeviceID, recs[1].DeviceID)
	assert.NotEmpty(t, recs[1].PhotoURL)

	// the camera was released after each submission
	stream, err := env.app.Attendance.camera.Open(ctx)
	require.NoError(t, err)
	require.NoError(t, stream.Close())
}

func TestCheckIn_NoLocationSendsNothing(t *testing.T) {
	env := newEnv(t, withLocator(capture.StaticLocator{}))
	env.login(t, model.RoleEmployee)
	ctx := context.Background()

	_, err := env.app.Attendance.CheckIn(ctx, CaptureForm{WorkStatus: model.WorkStatusOffice})
	require.ErrorIs(t, err, capture.ErrNoLocation)
	assert.ErrorIs(t, err, capture.ErrUnsupported)
	assert.Equal(t, "This device does not support it.", Message(ctx, err))
	assert.Zero(t, env.srv.Calls("POST", "/attendance/check-in"))
	assert.Empty(t, env.srv.Records(testPhone))
}

func TestCheckIn_AlreadyCheckedIn(t *testing.T) {
	env := newEnv(t)
	env.login(t, model.RoleEmployee)
	env.srv.AddRecord(testPhone, model.AttendanceRecord{
		Type:       model.EventCheckIn,
		Timestamp:  time.Now().UTC(),
		WorkStatus: model.WorkStatusOffice,
	})

	_, err := env.app.Attendance.CheckIn(context.Background(), CaptureForm{WorkStatus: model.WorkStatusOffice})
	require.ErrorIs(t, err, capture.ErrActionUnavailable)
	assert.Contains(t, env.out.String(), "You are currently: Checked in")
	assert.Zero(t, env.srv.Calls("POST", "/attendance/check-in"))
}

func TestCheckIn_ServerRejection(t *testing.T) {
	env := newEnv(t)
	env.login(t, model.RoleEmployee)
	env.srv.Fail("POST", "/attendance/check-in", 400, "Already checked in today", 1)
	ctx := context.Background()

	_, err := env.app.Attendance.CheckIn(ctx, CaptureForm{WorkStatus: model.WorkStatusOffice})
	require.Error(t, err)
	assert.Equal(t, "Already checked in today", Message(ctx, err))
	assert.Empty(t, env.srv.Records(testPhone))
}

func TestCheckIn_InvalidForm(t *testing.T) {
	env := newEnv(t)
	env.login(t, model.RoleEmployee)

	_, err := env.app.Attendance.CheckIn(context.Background(), CaptureForm{WorkStatus: "beach"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "work_status", ve.Field)
	assert.Zero(t, env.srv.Calls("GET", "/attendance/today"))
}

func TestCheckIn_StatusRetriedOnce(t *testing.T) {
	env := newEnv(t)
	env.login(t, model.RoleEmployee)
	env.srv.Fail("GET", "/attendance/today", 500, "Failed to fetch attendance", 1)

	_, err := env.app.Attendance.CheckIn(context.Background(), CaptureForm{WorkStatus: model.WorkStatusOffice})
	require.NoError(t, err)
	// failed load, retry, and the re-fetch after submitting
	assert.Equal(t, 3, env.srv.Calls("GET", "/attendance/today"))
}

func addDay(env *testEnv, date string, in, out string) {
	day, _ := time.ParseInLocation(time.DateOnly, date, apitest.IST)
	at := func(hhmm string) time.Time {
		c, _ := time.Parse("15:04", hhmm)
		return day.Add(time.Duration(c.Hour())*time.Hour + time.Duration(c.Minute())*time.Minute).UTC()
	}
	if in != "" {
		env.srv.AddRecord(testPhone, model.AttendanceRecord{
			Type: model.EventCheckIn, Timestamp: at(in), WorkStatus: model.WorkStatusOffice, Location: testFix,
		})
	}
	if out != "" {
		env.srv.AddRecord(testPhone, model.AttendanceRecord{
			Type: model.EventCheckOut, Timestamp: at(out), WorkStatus: model.WorkStatusOffice, Location: testFix,
		})
	}
}

func TestHistory(t *testing.T) {
	env := newEnv(t)
	env.login(t, model.RoleEmployee)

	hist, err := env.app.Attendance.History(context.Background(), 1, 50)
	require.NoError(t, err)
	assert.Empty(t, hist.Records)
	assert.Contains(t, env.out.String(), "No attendance records found.")

	addDay(env, "2024-03-04", "09:00", "18:00")
	addDay(env, "2024-03-05", "09:30", "")
	env.out.Reset()

	hist, err = env.app.Attendance.History(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, hist.Records, 2)
	assert.Equal(t, 3, hist.TotalCount)
	// newest first
	assert.Equal(t, model.EventCheckIn, hist.Records[0].Type)
	assert.Contains(t, env.out.String(), "Tue 05 Mar 2024")
	assert.Contains(t, env.out.String(), "Page 1: showing 2 of 3")
}

func TestSummary(t *testing.T) {
	env := newEnv(t)
	env.login(t, model.RoleEmployee)
	addDay(env, "2024-03-04", "09:00", "18:00")
	addDay(env, "2024-03-05", "09:00", "17:00")

	sum, err := env.app.Attendance.Summary(context.Background(), 2024, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.DaysPresent)
	assert.InDelta(t, 17.0, sum.TotalHours, 0.01)
	assert.InDelta(t, 8.5, sum.AverageHours, 0.01)
	assert.Contains(t, env.out.String(), "March 2024")
	assert.Contains(t, env.out.String(), "8.5 h")
}

func TestCalendar(t *testing.T) {
	env := newEnv(t)
	env.login(t, model.RoleEmployee)
	addDay(env, "2024-02-29", "09:00", "18:00")
	addDay(env, "2024-03-04", "09:00", "18:00")
	addDay(env, "2024-03-05", "09:30", "")

	days, err := env.app.Attendance.Calendar(context.Background(), CalendarQuery{Year: 2024, Month: 3})
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2024-03-04", days[0].Date)
	assert.Equal(t, 9.0, days[0].Hours())
	assert.Nil(t, days[1].CheckOut)

	out := env.out.String()
	assert.Contains(t, out, "March 2024")
	assert.Contains(t, out, "  4✓")
	assert.Contains(t, out, "  5•")
}

func TestCalendar_Validation(t *testing.T) {
	env := newEnv(t)
	env.login(t, model.RoleEmployee)
	var ve *ValidationError

	_, err := env.app.Attendance.Calendar(context.Background(), CalendarQuery{Year: 2024, Month: 13})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "month", ve.Field)

	_, err = env.app.Attendance.Calendar(context.Background(), CalendarQuery{Year: 2024, Month: 3, Type: "lunch"})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "type", ve.Field)
	assert.Zero(t, env.srv.Calls("GET", "/attendance/history"))
}

func TestExport(t *testing.T) {
	env := newEnv(t)
	env.login(t, model.RoleEmployee)
	addDay(env, "2024-02-29", "09:00", "18:00")
	addDay(env, "2024-03-04", "09:00", "18:00")
	ctx := context.Background()

	t.Run("csv", func(t *testing.T) {
		path, err := env.app.Attendance.Export(ctx, ExportOptions{StartDate: "2024-03-01", EndDate: "2024-03-31"})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(env.dir, "attendance_2024-03-01_2024-03-31.csv"), path)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[1], "2024-03-04,09:00:00,check-in"))
	})

	t.Run("xlsx", func(t *testing.T) {
		dir := t.TempDir()
		path, err := env.app.Attendance.Export(ctx, ExportOptions{StartDate: "2024-03-01", EndDate: "2024-03-31", Format: "xlsx", Dir: dir})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "attendance_2024-03-01_2024-03-31.xlsx"), path)

		f, err := excelize.OpenFile(path)
		require.NoError(t, err)
		defer f.Close()
		rows, err := f.GetRows("Attendance")
		require.NoError(t, err)
		require.Len(t, rows, 3)
		// oldest first
		assert.Equal(t, "2024-03-04", rows[1][0])
		assert.Equal(t, "check-in", rows[1][2])
		assert.Equal(t, "check-out", rows[2][2])
	})

	t.Run("bad input", func(t *testing.T) {
		var ve *ValidationError
		_, err := env.app.Attendance.Export(ctx, ExportOptions{StartDate: "2024-03-31", EndDate: "2024-03-01"})
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "end_date", ve.Field)

		_, err = env.app.Attendance.Export(ctx, ExportOptions{Format: "pdf"})
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "format", ve.Field)
	})
}

func TestFilterRecords(t *testing.T) {
	ts := func(s string) time.Time {
		v, err := time.Parse(time.RFC3339, s)
		require.NoError(t, err)
		return v
	}
	recs := []model.AttendanceRecord{
		{Type: model.EventCheckIn, Timestamp: ts("2024-03-01T03:30:00Z")},
		{Type: model.EventCheckOut, Timestamp: ts("2024-03-01T12:30:00Z")},
		// 2024-03-02 in IST
		{Type: model.EventCheckIn, Timestamp: ts("2024-03-01T20:00:00Z")},
		{Type: model.EventCheckIn, Timestamp: ts("2024-03-05T03:30:00Z")},
	}
	day := func(s string) time.Time {
		v, _ := time.Parse(time.DateOnly, s)
		return v
	}

	tests := []struct {
		name string
		f    RecordFilter
		want int
	}{
		{"no filter", RecordFilter{}, 4},
		{"from", RecordFilter{From: day("2024-03-02")}, 2},
		{"to", RecordFilter{To: day("2024-03-01")}, 2},
		{"single day", RecordFilter{From: day("2024-03-02"), To: day("2024-03-02")}, 1},
		{"type", RecordFilter{Type: model.EventCheckOut}, 1},
		{"type and range", RecordFilter{From: day("2024-03-01"), To: day("2024-03-02"), Type: model.EventCheckIn}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, FilterRecords(recs, tt.f, apitest.IST), tt.want)
		})
	}
}

func TestGroupByDay(t *testing.T) {
	base := time.Date(2024, 3, 4, 0, 0, 0, 0, apitest.IST)
	recs := []model.AttendanceRecord{
		{Type: model.EventCheckOut, Timestamp: base.Add(18 * time.Hour)},
		{Type: model.EventCheckIn, Timestamp: base.Add(10 * time.Hour)},
		{Type: model.EventCheckIn, Timestamp: base.Add(9 * time.Hour)},
		{Type: model.EventCheckIn, Timestamp: base.AddDate(0, 0, -1).Add(9 * time.Hour)},
	}

	days := GroupByDay(recs, apitest.IST)
	require.Len(t, days, 2)
	assert.Equal(t, "2024-03-03", days[0].Date)
	assert.Zero(t, days[0].Hours())
	assert.Equal(t, "2024-03-04", days[1].Date)
	assert.Equal(t, base.Add(9*time.Hour), days[1].CheckIn.Timestamp)
	assert.Equal(t, 9.0, days[1].Hours())
}

func TestMonthGrid(t *testing.T) {
	grid := MonthGrid(2024, time.February, []Day{
		{Date: "2024-02-01", CheckIn: &model.AttendanceRecord{}, CheckOut: &model.AttendanceRecord{}},
		{Date: "2024-02-29", CheckIn: &model.AttendanceRecord{}},
		{Date: "2024-03-01", CheckIn: &model.AttendanceRecord{}},
	})
	lines := strings.Split(strings.TrimRight(grid, "\n"), "\n")

	assert.Equal(t, " Mo  Tu  We  Th  Fr  Sa  Su", lines[0])
	// 1 February 2024 is a Thursday
	assert.Equal(t, strings.Repeat("    ", 3)+"  1✓  2   3   4 ", lines[1])
	assert.Equal(t, " 26  27  28  29•", lines[len(lines)-1])
	assert.Len(t, lines, 6)
}
