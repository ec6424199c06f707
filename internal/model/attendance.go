package model

import (
	"math"
	"time"
)

type AttendanceStatus string

const (
	AttendanceStatusNotStarted AttendanceStatus = "not-started"
	AttendanceStatusCheckedIn  AttendanceStatus = "checked-in"
	AttendanceStatusCheckedOut AttendanceStatus = "checked-out"
)

// EventType distinguishes the two attendance events of a day.
type EventType string

const (
	EventCheckIn  EventType = "check-in"
	EventCheckOut EventType = "check-out"
)

type WorkStatus string

const (
	WorkStatusOffice WorkStatus = "office"
	WorkStatusSite   WorkStatus = "site"
	WorkStatusRemote WorkStatus = "remote"
)

// Valid reports whether w is one of the known work locations.
func (w WorkStatus) Valid() bool {
	switch w {
	case WorkStatusOffice, WorkStatusSite, WorkStatusRemote:
		return true
	}
	return false
}

// Location is a geolocation fix. Accuracy is in meters.
type Location struct {
	Latitude  float64  `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64  `json:"longitude" validate:"gte=-180,lte=180"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Address   string   `json:"address,omitempty"`
}

// AttendanceRecord is a single check-in or check-out event.
type AttendanceRecord struct {
	UserID     string     `json:"user_id"`
	Type       EventType  `json:"type"`
	Timestamp  time.Time  `json:"timestamp"`
	Location   Location   `json:"location"`
	DeviceID   string     `json:"device_id"`
	WorkStatus WorkStatus `json:"work_status"`
	PhotoURL   string     `json:"photo_url,omitempty"`
	Notes      string     `json:"notes,omitempty"`
}

type CheckInRequest struct {
	Location   Location   `json:"location"`
	DeviceID   string     `json:"device_id"`
	WorkStatus WorkStatus `json:"work_status"`
	PhotoURL   string     `json:"photo_url,omitempty"`
	Notes      string     `json:"notes,omitempty"`
}

type CheckOutRequest struct {
	Location Location `json:"location"`
	DeviceID string   `json:"device_id"`
	PhotoURL string   `json:"photo_url,omitempty"`
	Notes    string   `json:"notes,omitempty"`
}

// AttendanceResult is returned by check-in and check-out.
type AttendanceResult struct {
	Success     bool              `json:"success"`
	Message     string            `json:"message"`
	Attendance  *AttendanceRecord `json:"attendance,omitempty"`
	HoursWorked *float64          `json:"hours_worked,omitempty"`
}

// TodayAttendance is the server's view of the current day.
type TodayAttendance struct {
	Status      AttendanceStatus  `json:"status"`
	CheckIn     *AttendanceRecord `json:"check_in,omitempty"`
	CheckOut    *AttendanceRecord `json:"check_out,omitempty"`
	ServerHours *float64          `json:"hours_worked,omitempty"`
}

// HoursWorked returns the elapsed hours between check-in and check-out, or
// between check-in and now while the session is still open, rounded to one
// decimal. It returns 0 when there is no check-in.
func (t *TodayAttendance) HoursWorked(now time.Time) float64 {
	if t == nil || t.CheckIn == nil {
		return 0
	}
	end := now
	if t.CheckOut != nil {
		end = t.CheckOut.Timestamp
	}
	d := end.Sub(t.CheckIn.Timestamp)
	if d < 0 {
		return 0
	}
	return math.Round(d.Hours()*10) / 10
}

type AttendanceHistory struct {
	Records    []AttendanceRecord `json:"records"`
	TotalCount int                `json:"total_count"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
}

type MonthlySummary struct {
	Year         int                `json:"year"`
	Month        int                `json:"month"`
	DaysPresent  int                `json:"days_present"`
	TotalHours   float64            `json:"total_hours"`
	AverageHours float64            `json:"average_hours"`
	Records      []AttendanceRecord `json:"records,omitempty"`
}

// ExportQuery selects the records of an export download.
type ExportQuery struct {
	StartDate string
	EndDate   string
	Format    string
}

// Download is a binary response with the filename the server suggested.
type Download struct {
	Filename    string
	ContentType string
	Data        []byte
}
