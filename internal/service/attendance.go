package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"geostaff-client/internal/api"
	"geostaff-client/internal/model"
)

type AttendanceService struct {
	api *api.Client
}

func NewAttendanceService(c *api.Client) *AttendanceService {
	return &AttendanceService{api: c}
}

func (s *AttendanceService) CheckIn(ctx context.Context, req *model.CheckInRequest) (*model.AttendanceResult, error) {
	var out model.AttendanceResult
	if err := s.api.DoJSON(ctx, http.MethodPost, "/attendance/check-in", nil, req, &out); err != nil {
		return nil, fmt.Errorf("check in: %w", err)
	}
	return &out, nil
}

func (s *AttendanceService) CheckOut(ctx context.Context, req *model.CheckOutRequest) (*model.AttendanceResult, error) {
	var out model.AttendanceResult
	if err := s.api.DoJSON(ctx, http.MethodPost, "/attendance/check-out", nil, req, &out); err != nil {
		return nil, fmt.Errorf("check out: %w", err)
	}
	return &out, nil
}

func (s *AttendanceService) Today(ctx context.Context) (*model.TodayAttendance, error) {
	var out model.TodayAttendance
	if err := s.api.DoJSON(ctx, http.MethodGet, "/attendance/today", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("get today attendance: %w", err)
	}
	return &out, nil
}

func (s *AttendanceService) History(ctx context.Context, page, pageSize int) (*model.AttendanceHistory, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}

	var out model.AttendanceHistory
	if err := s.api.DoJSON(ctx, http.MethodGet, "/attendance/history", q, nil, &out); err != nil {
		return nil, fmt.Errorf("get attendance history: %w", err)
	}
	return &out, nil
}

func (s *AttendanceService) Recent(ctx context.Context, limit int) ([]model.AttendanceRecord, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var out struct {
		Records []model.AttendanceRecord `json:"records"`
	}
	if err := s.api.DoJSON(ctx, http.MethodGet, "/attendance/recent", q, nil, &out); err != nil {
		return nil, fmt.Errorf("get recent attendance: %w", err)
	}
	return out.Records, nil
}

func (s *AttendanceService) MonthlySummary(ctx context.Context, year, month int) (*model.MonthlySummary, error) {
	q := url.Values{}
	if year > 0 {
		q.Set("year", strconv.Itoa(year))
	}
	if month > 0 {
		q.Set("month", strconv.Itoa(month))
	}

	var out model.MonthlySummary
	if err := s.api.DoJSON(ctx, http.MethodGet, "/attendance/monthly-summary", q, nil, &out); err != nil {
		return nil, fmt.Errorf("get monthly summary: %w", err)
	}
	return &out, nil
}

func (s *AttendanceService) Export(ctx context.Context, query model.ExportQuery) (*model.Download, error) {
	q := url.Values{}
	if query.StartDate != "" {
		q.Set("start_date", query.StartDate)
	}
	if query.EndDate != "" {
		q.Set("end_date", query.EndDate)
	}
	if query.Format != "" {
		q.Set("format", query.Format)
	}

	dl, err := s.api.Download(ctx, "/attendance/export", q)
	if err != nil {
		return nil, fmt.Errorf("export attendance: %w", err)
	}
	return dl, nil
}
