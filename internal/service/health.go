package service

import (
	"context"
	"fmt"
	"net/http"

	"geostaff-client/internal/api"
	"geostaff-client/internal/model"
)

type HealthService struct {
	api *api.Client
}

func NewHealthService(c *api.Client) *HealthService {
	return &HealthService{api: c}
}

func (s *HealthService) Check(ctx context.Context) (*model.Health, error) {
	var out model.Health
	if err := s.api.DoJSON(ctx, http.MethodGet, "/health", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("health check: %w", err)
	}
	return &out, nil
}

func (s *HealthService) CheckDB(ctx context.Context) (*model.Health, error) {
	var out model.Health
	if err := s.api.DoJSON(ctx, http.MethodGet, "/health/db", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("database health check: %w", err)
	}
	return &out, nil
}
