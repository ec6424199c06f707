package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type LeaveType string

const (
	LeaveTypeCasual LeaveType = "casual"
	LeaveTypeSick   LeaveType = "sick"
	LeaveTypeEarned LeaveType = "earned"
)

type LeaveStatus string

const (
	LeaveStatusPending   LeaveStatus = "pending"
	LeaveStatusApproved  LeaveStatus = "approved"
	LeaveStatusRejected  LeaveStatus = "rejected"
	LeaveStatusCancelled LeaveStatus = "cancelled"
)

// Cancellable reports whether a request in this status may still be cancelled.
func (s LeaveStatus) Cancellable() bool {
	return s == LeaveStatusPending || s == LeaveStatusApproved
}

type LeaveRequest struct {
	ID              string      `json:"id"`
	UserID          string      `json:"user_id"`
	LeaveType       LeaveType   `json:"leave_type"`
	StartDate       string      `json:"start_date"` // YYYY-MM-DD
	EndDate         string      `json:"end_date"`   // YYYY-MM-DD
	Days            float64     `json:"days"`
	Reason          string      `json:"reason"`
	Status          LeaveStatus `json:"status"`
	AppliedAt       *time.Time  `json:"applied_at,omitempty"`
	ApprovedBy      string      `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time  `json:"approved_at,omitempty"`
	RejectionReason string      `json:"rejection_reason,omitempty"`
	CancelledAt     *time.Time  `json:"cancelled_at,omitempty"`
}

// Applied returns when the request was filed. Requests listed without
// applied_at fall back to the creation time embedded in the ObjectID.
func (r *LeaveRequest) Applied() time.Time {
	if r.AppliedAt != nil {
		return *r.AppliedAt
	}
	if id, err := bson.ObjectIDFromHex(r.ID); err == nil {
		return id.Timestamp()
	}
	return time.Time{}
}

type ApplyLeaveRequest struct {
	LeaveType LeaveType `json:"leave_type"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	Reason    string    `json:"reason"`
}

type ApplyLeaveResult struct {
	Success   bool    `json:"success"`
	Message   string  `json:"message"`
	RequestID string  `json:"request_id"`
	Days      float64 `json:"days"`
}

type LeaveBalance struct {
	CasualBalance float64 `json:"casual_balance"`
	SickBalance   float64 `json:"sick_balance"`
	EarnedBalance float64 `json:"earned_balance"`
	TotalBalance  float64 `json:"total_balance"`
	UsedCasual    float64 `json:"used_casual"`
	UsedSick      float64 `json:"used_sick"`
	UsedEarned    float64 `json:"used_earned"`
	TotalUsed     float64 `json:"total_used"`
	Year          int     `json:"year"`
}

type LeaveHistory struct {
	Requests   []LeaveRequest `json:"requests"`
	TotalCount int            `json:"total_count"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
}

// ActionResult is the generic {success, message} acknowledgement.
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
