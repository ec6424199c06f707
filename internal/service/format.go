package service

import (
	"context"
	"time"

	"geostaff-client/internal/i18n"
	"geostaff-client/internal/model"
)

// LeaveDayCount counts the weekdays in [start, end], both ends inclusive.
// Only the calendar date of each argument matters. It returns 0 when start
// is after end.
func LeaveDayCount(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)

	days := 0
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days++
		}
	}
	return days
}

func LeaveTypeLabel(ctx context.Context, t model.LeaveType) string {
	switch t {
	case model.LeaveTypeCasual, model.LeaveTypeSick, model.LeaveTypeEarned:
		return i18n.T(ctx, "leave.type."+string(t))
	default:
		return string(t)
	}
}

func LeaveStatusLabel(ctx context.Context, s model.LeaveStatus) string {
	switch s {
	case model.LeaveStatusPending, model.LeaveStatusApproved, model.LeaveStatusRejected, model.LeaveStatusCancelled:
		return i18n.T(ctx, "leave.status."+string(s))
	default:
		return string(s)
	}
}

// Color names used by the views; the terminal renderer maps them to ANSI.
const (
	ColorYellow = "yellow"
	ColorGreen  = "green"
	ColorRed    = "red"
	ColorGray   = "gray"
)

func LeaveStatusColor(s model.LeaveStatus) string {
	switch s {
	case model.LeaveStatusPending:
		return ColorYellow
	case model.LeaveStatusApproved:
		return ColorGreen
	case model.LeaveStatusRejected:
		return ColorRed
	default:
		return ColorGray
	}
}

func AttendanceStatusLabel(ctx context.Context, s model.AttendanceStatus) string {
	switch s {
	case model.AttendanceStatusNotStarted, model.AttendanceStatusCheckedIn, model.AttendanceStatusCheckedOut:
		return i18n.T(ctx, "attendance.status."+string(s))
	default:
		return string(s)
	}
}

func WorkStatusLabel(ctx context.Context, w model.WorkStatus) string {
	if w.Valid() {
		return i18n.T(ctx, "work."+string(w))
	}
	return string(w)
}
