package handler

import (
	"context"
	"fmt"

	"geostaff-client/internal/i18n"
	"geostaff-client/internal/service"
)

type HealthHandler struct {
	*shell
	svc *service.HealthService
}

func NewHealthHandler(sh *shell, svc *service.HealthService) *HealthHandler {
	return &HealthHandler{shell: sh, svc: svc}
}

// Check probes the API and its database. It needs no session.
func (h *HealthHandler) Check(ctx context.Context) error {
	api, err := h.svc.Check(ctx)
	if err != nil {
		return err
	}
	tw := newTable(h.out)
	fmt.Fprintf(tw, "%s\t%s\t%s\n", i18n.T(ctx, "health.api"), api.Status, api.Message)

	db, err := h.svc.CheckDB(ctx)
	if err != nil {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", i18n.T(ctx, "health.database"), "error", Message(ctx, err))
		tw.Flush()
		return err
	}
	fmt.Fprintf(tw, "%s\t%s\t%s (%s)\n", i18n.T(ctx, "health.database"), db.Status, db.Message, db.Database)
	return tw.Flush()
}
