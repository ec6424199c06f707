package service

import (
	"context"
	"fmt"
	"net/http"

	"geostaff-client/internal/api"
	"geostaff-client/internal/model"
)

// PathVerifyOTP answers 401 for a wrong code as well as for a bad token.
const PathVerifyOTP = "/auth/verify-otp"

type AuthService struct {
	api *api.Client
}

func NewAuthService(c *api.Client) *AuthService {
	return &AuthService{api: c}
}

func (s *AuthService) SendOTP(ctx context.Context, phone string) (*model.OTPResponse, error) {
	var out model.OTPResponse
	if err := s.api.DoJSON(ctx, http.MethodPost, "/auth/send-otp", nil, map[string]string{"phone": phone}, &out); err != nil {
		return nil, fmt.Errorf("send otp: %w", err)
	}
	return &out, nil
}

func (s *AuthService) ResendOTP(ctx context.Context, phone string) (*model.OTPResponse, error) {
	var out model.OTPResponse
	if err := s.api.DoJSON(ctx, http.MethodPost, "/auth/resend-otp", nil, map[string]string{"phone": phone}, &out); err != nil {
		return nil, fmt.Errorf("resend otp: %w", err)
	}
	return &out, nil
}

func (s *AuthService) VerifyOTP(ctx context.Context, phone, otp, deviceID string) (*model.TokenResponse, error) {
	body := struct {
		Phone    string `json:"phone"`
		OTP      string `json:"otp"`
		DeviceID string `json:"device_id,omitempty"`
	}{phone, otp, deviceID}

	var out model.TokenResponse
	if err := s.api.DoJSON(ctx, http.MethodPost, PathVerifyOTP, nil, body, &out); err != nil {
		return nil, fmt.Errorf("verify otp: %w", err)
	}
	return &out, nil
}

func (s *AuthService) Refresh(ctx context.Context) (*model.TokenResponse, error) {
	var out model.TokenResponse
	if err := s.api.DoJSON(ctx, http.MethodPost, "/auth/refresh", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	return &out, nil
}

func (s *AuthService) Me(ctx context.Context) (*model.User, error) {
	var out model.User
	if err := s.api.DoJSON(ctx, http.MethodGet, "/auth/me", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("get current user: %w", err)
	}
	return &out, nil
}
