package handler

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"geostaff-client/internal/i18n"
	"geostaff-client/internal/model"
	"geostaff-client/internal/service"
)

type LeaveHandler struct {
	*shell
	svc *service.LeaveService
}

func NewLeaveHandler(sh *shell, svc *service.LeaveService) *LeaveHandler {
	return &LeaveHandler{shell: sh, svc: svc}
}

// Preview returns the number of working days the form would request. An
// invalid form or a backwards range is rejected here, before any request.
func (h *LeaveHandler) Preview(ctx context.Context, form *LeaveForm) (int, error) {
	if err := form.Validate(ctx); err != nil {
		return 0, err
	}
	start, end, err := form.Range()
	if err != nil {
		return 0, err
	}
	return service.LeaveDayCount(start, end), nil
}

func (h *LeaveHandler) Apply(ctx context.Context, form LeaveForm) (*model.ApplyLeaveResult, error) {
	if err := h.requireSession(); err != nil {
		return nil, err
	}
	days, err := h.Preview(ctx, &form)
	if err != nil {
		return nil, err
	}
	if days == 0 {
		return nil, &ValidationError{Field: "end_date", Message: i18n.T(ctx, "validation.no_working_days")}
	}
	h.println(i18n.T(ctx, "leave.preview", map[string]any{
		"Type": service.LeaveTypeLabel(ctx, form.LeaveType),
		"Days": days,
	}))

	res, err := h.svc.Apply(ctx, &model.ApplyLeaveRequest{
		LeaveType: form.LeaveType,
		StartDate: form.StartDate,
		EndDate:   form.EndDate,
		Reason:    form.Reason,
	})
	if err != nil {
		return nil, err
	}
	h.println(res.Message)
	return res, nil
}

// Balance shows the balance for year, or the current year when year is 0.
func (h *LeaveHandler) Balance(ctx context.Context, year int) (*model.LeaveBalance, error) {
	if err := h.requireSession(); err != nil {
		return nil, err
	}
	b, err := h.svc.Balance(ctx, year)
	if err != nil {
		return nil, err
	}

	tw := newTable(h.out)
	fmt.Fprintf(tw, "%d\t%s\t%s\n", b.Year, i18n.T(ctx, "column.available"), i18n.T(ctx, "column.used"))
	fmt.Fprintf(tw, "%s\t%.1f\t%.1f\n", service.LeaveTypeLabel(ctx, model.LeaveTypeCasual), b.CasualBalance, b.UsedCasual)
	fmt.Fprintf(tw, "%s\t%.1f\t%.1f\n", service.LeaveTypeLabel(ctx, model.LeaveTypeSick), b.SickBalance, b.UsedSick)
	fmt.Fprintf(tw, "%s\t%.1f\t%.1f\n", service.LeaveTypeLabel(ctx, model.LeaveTypeEarned), b.EarnedBalance, b.UsedEarned)
	fmt.Fprintf(tw, "%s\t%.1f\t%.1f\n", i18n.T(ctx, "leave.total"), b.TotalBalance, b.TotalUsed)
	return b, tw.Flush()
}

// Cancellable lists the requests the user may still cancel.
func Cancellable(requests []model.LeaveRequest) []model.LeaveRequest {
	var out []model.LeaveRequest
	for _, r := range requests {
		if r.Status.Cancellable() {
			out = append(out, r)
		}
	}
	return out
}

func (h *LeaveHandler) History(ctx context.Context, page, pageSize int, status model.LeaveStatus) (*model.LeaveHistory, error) {
	if err := h.requireSession(); err != nil {
		return nil, err
	}
	switch status {
	case "", model.LeaveStatusPending, model.LeaveStatusApproved, model.LeaveStatusRejected, model.LeaveStatusCancelled:
	default:
		return nil, &ValidationError{Field: "status", Message: i18n.T(ctx, "validation.leave_status")}
	}
	hist, err := h.svc.History(ctx, page, pageSize, status)
	if err != nil {
		return nil, err
	}
	if len(hist.Requests) == 0 {
		h.println(i18n.T(ctx, "leave.empty"))
		return hist, nil
	}

	tw := newTable(h.out)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
		i18n.T(ctx, "column.id"), i18n.T(ctx, "column.type"), i18n.T(ctx, "column.dates"),
		i18n.T(ctx, "column.days"), i18n.T(ctx, "column.status"), i18n.T(ctx, "column.applied"))
	for _, r := range hist.Requests {
		status := h.paint(service.LeaveStatusColor(r.Status), service.LeaveStatusLabel(ctx, r.Status))
		applied := "-"
		if t := r.Applied(); !t.IsZero() {
			applied = h.date(t)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s → %s\t%.1f\t%s\t%s\n",
			r.ID, service.LeaveTypeLabel(ctx, r.LeaveType), r.StartDate, r.EndDate, r.Days, status, applied)
	}
	if err := tw.Flush(); err != nil {
		return nil, err
	}

	if open := Cancellable(hist.Requests); len(open) > 0 {
		h.println()
		h.println(i18n.T(ctx, "leave.cancel_hint", map[string]any{"Count": len(open)}))
		for _, r := range open {
			h.printf("  geostaff leave cancel %s\n", r.ID)
		}
	}
	h.println(i18n.T(ctx, "pagination", map[string]any{
		"Page":  hist.Page,
		"Shown": len(hist.Requests),
		"Total": hist.TotalCount,
	}))
	return hist, nil
}

// Cancel withdraws a leave request. The id must be a 24-character hex
// ObjectID; anything else is rejected without contacting the server.
func (h *LeaveHandler) Cancel(ctx context.Context, requestID string) (*model.ActionResult, error) {
	if err := h.requireSession(); err != nil {
		return nil, err
	}
	if _, err := bson.ObjectIDFromHex(requestID); err != nil {
		return nil, &ValidationError{Field: "request_id", Message: i18n.T(ctx, "validation.request_id")}
	}
	res, err := h.svc.Cancel(ctx, requestID)
	if err != nil {
		return nil, err
	}
	h.println(res.Message)
	return res, nil
}

func (h *LeaveHandler) PendingCount(ctx context.Context) (int, error) {
	if err := h.requireSession(); err != nil {
		return 0, err
	}
	n, err := h.svc.PendingCount(ctx)
	if err != nil {
		return 0, err
	}
	h.println(i18n.T(ctx, "leave.pending_count", map[string]any{"Count": n}))
	return n, nil
}
