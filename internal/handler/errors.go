package handler

import (
	"context"
	"errors"

	"geostaff-client/internal/api"
	"geostaff-client/internal/capture"
	"geostaff-client/internal/i18n"
)

// Message turns any error a view returns into the text shown to the user.
// Server details are passed through verbatim.
func Message(ctx context.Context, err error) string {
	if err == nil {
		return ""
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}

	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return i18n.T(ctx, "auth.not_logged_in")
	case errors.Is(err, capture.ErrNoLocation):
		if msg := platformMessage(ctx, err); msg != "" {
			return msg
		}
		return i18n.T(ctx, "capture.no_location")
	case errors.Is(err, capture.ErrNoPhoto):
		return i18n.T(ctx, "capture.no_photo")
	case errors.Is(err, capture.ErrSubmitPending):
		return i18n.T(ctx, "capture.pending")
	case errors.Is(err, capture.ErrActionUnavailable):
		return i18n.T(ctx, "capture.unavailable")
	case errors.Is(err, capture.ErrInvalidWorkStatus):
		return i18n.T(ctx, "validation.work_status")
	case capture.IsPlatformError(err):
		return platformMessage(ctx, err)
	case errors.Is(err, api.ErrNetwork):
		return i18n.T(ctx, "error.network")
	case errors.Is(err, api.ErrUnauthorized):
		return api.Message(err, i18n.T(ctx, "auth.session_expired"))
	case errors.Is(err, api.ErrForbidden):
		return api.Message(err, i18n.T(ctx, "error.forbidden"))
	case errors.Is(err, context.Canceled):
		return i18n.T(ctx, "error.cancelled")
	}
	return api.Message(err, i18n.T(ctx, "error.generic"))
}

func platformMessage(ctx context.Context, err error) string {
	switch {
	case errors.Is(err, capture.ErrPermissionDenied):
		return i18n.T(ctx, "error.permission_denied")
	case errors.Is(err, capture.ErrUnsupported):
		return i18n.T(ctx, "error.unsupported")
	case errors.Is(err, capture.ErrTimeout):
		return i18n.T(ctx, "error.timeout")
	case errors.Is(err, capture.ErrCameraUnavailable):
		return i18n.T(ctx, "error.camera_unavailable")
	case errors.Is(err, capture.ErrCameraBusy):
		return i18n.T(ctx, "error.camera_busy")
	}
	return ""
}
