package handler

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"geostaff-client/internal/i18n"
	"geostaff-client/internal/model"
	"geostaff-client/internal/service"
)

type DashboardHandler struct {
	*shell
	attendance *service.AttendanceService
	leave      *service.LeaveService
}

func NewDashboardHandler(sh *shell, attendance *service.AttendanceService, leave *service.LeaveService) *DashboardHandler {
	return &DashboardHandler{shell: sh, attendance: attendance, leave: leave}
}

// Show renders the dashboard for the signed-in user's role.
func (h *DashboardHandler) Show(ctx context.Context) error {
	if err := h.requireSession(); err != nil {
		return err
	}
	user := h.session.User()
	role := model.RoleEmployee
	if user != nil && user.Role != "" {
		role = user.Role
	}

	switch role {
	case model.RoleManager:
		h.println(i18n.T(ctx, "dashboard.manager.title"))
		h.println(i18n.T(ctx, "dashboard.placeholder"))
		return nil
	case model.RoleAdmin:
		h.println(i18n.T(ctx, "dashboard.admin.title"))
		h.println(i18n.T(ctx, "dashboard.placeholder"))
		return nil
	}
	return h.employee(ctx, user)
}

func (h *DashboardHandler) employee(ctx context.Context, user *model.User) error {
	var (
		today   *model.TodayAttendance
		pending int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		today, err = h.attendance.Today(gctx)
		return err
	})
	g.Go(func() error {
		n, err := h.leave.PendingCount(gctx)
		if err != nil {
			log.Printf("ERROR dashboard pending count: %v", err)
			pending = -1
			return nil
		}
		pending = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	name := ""
	if user != nil {
		name = user.Name
	}
	h.println(i18n.T(ctx, "dashboard.greeting", map[string]any{"Name": name}))
	h.println(h.date(h.now()))
	h.println()

	tw := newTable(h.out)
	h.todayRows(ctx, tw, today)
	if pending >= 0 {
		fmt.Fprintf(tw, "%s\t%d\n", i18n.T(ctx, "dashboard.pending_leaves"), pending)
	}
	return tw.Flush()
}
