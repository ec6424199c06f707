package model

import "time"

type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// User is the profile snapshot kept alongside the bearer token.
type User struct {
	Phone      string     `json:"phone"`
	Name       string     `json:"name"`
	Role       Role       `json:"role"`
	IsActive   bool       `json:"is_active"`
	LocationID string     `json:"location_id,omitempty"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

// OTPResponse acknowledges send-otp and resend-otp. OTP is only populated by
// development backends.
type OTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	OTP     string `json:"otp,omitempty"`
}

type PendingCount struct {
	PendingCount int `json:"pending_count"`
}

type Health struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp,omitempty"`
	Database  string `json:"database,omitempty"`
}
