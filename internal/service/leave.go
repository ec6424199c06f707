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

type LeaveService struct {
	api *api.Client
}

func NewLeaveService(c *api.Client) *LeaveService {
	return &LeaveService{api: c}
}

func (s *LeaveService) Apply(ctx context.Context, req *model.ApplyLeaveRequest) (*model.ApplyLeaveResult, error) {
	var out model.ApplyLeaveResult
	if err := s.api.DoJSON(ctx, http.MethodPost, "/leave/apply", nil, req, &out); err != nil {
		return nil, fmt.Errorf("apply leave: %w", err)
	}
	return &out, nil
}

// Balance returns the balance for year, or the current year when year is 0.
func (s *LeaveService) Balance(ctx context.Context, year int) (*model.LeaveBalance, error) {
	q := url.Values{}
	if year > 0 {
		q.Set("year", strconv.Itoa(year))
	}

	var out model.LeaveBalance
	if err := s.api.DoJSON(ctx, http.MethodGet, "/leave/balance", q, nil, &out); err != nil {
		return nil, fmt.Errorf("get leave balance: %w", err)
	}
	return &out, nil
}

func (s *LeaveService) History(ctx context.Context, page, pageSize int, status model.LeaveStatus) (*model.LeaveHistory, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}
	if status != "" {
		q.Set("status_filter", string(status))
	}

	var out model.LeaveHistory
	if err := s.api.DoJSON(ctx, http.MethodGet, "/leave/history", q, nil, &out); err != nil {
		return nil, fmt.Errorf("get leave history: %w", err)
	}
	return &out, nil
}

func (s *LeaveService) Cancel(ctx context.Context, requestID string) (*model.ActionResult, error) {
	var out model.ActionResult
	if err := s.api.DoJSON(ctx, http.MethodPost, "/leave/cancel/"+url.PathEscape(requestID), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("cancel leave: %w", err)
	}
	return &out, nil
}

func (s *LeaveService) PendingCount(ctx context.Context) (int, error) {
	var out model.PendingCount
	if err := s.api.DoJSON(ctx, http.MethodGet, "/leave/pending-count", nil, nil, &out); err != nil {
		return 0, fmt.Errorf("get pending count: %w", err)
	}
	return out.PendingCount, nil
}
