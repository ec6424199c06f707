package handler

import (
	"context"
	"fmt"

	"geostaff-client/internal/i18n"
	"geostaff-client/internal/model"
	"geostaff-client/internal/service"
	"geostaff-client/internal/session"
)

type AuthHandler struct {
	*shell
	svc *service.AuthService
}

func NewAuthHandler(sh *shell, svc *service.AuthService) *AuthHandler {
	return &AuthHandler{shell: sh, svc: svc}
}

// RequestOTP is the first login step.
func (h *AuthHandler) RequestOTP(ctx context.Context, form PhoneForm) (*model.OTPResponse, error) {
	if err := form.Validate(ctx); err != nil {
		return nil, err
	}
	resp, err := h.svc.SendOTP(ctx, form.Phone)
	if err != nil {
		return nil, err
	}
	h.printOTP(ctx, form.Phone, resp)
	return resp, nil
}

func (h *AuthHandler) ResendOTP(ctx context.Context, form PhoneForm) (*model.OTPResponse, error) {
	if err := form.Validate(ctx); err != nil {
		return nil, err
	}
	resp, err := h.svc.ResendOTP(ctx, form.Phone)
	if err != nil {
		return nil, err
	}
	h.printOTP(ctx, form.Phone, resp)
	return resp, nil
}

func (h *AuthHandler) printOTP(ctx context.Context, phone string, resp *model.OTPResponse) {
	if resp.Message != "" {
		h.println(resp.Message)
	} else {
		h.println(i18n.T(ctx, "auth.otp_sent", map[string]any{"Phone": phone}))
	}
	if resp.OTP != "" && h.devOTP {
		h.println(i18n.T(ctx, "auth.dev_otp", map[string]any{"OTP": resp.OTP}))
	}
}

// Verify exchanges the OTP for a session and opens the dashboard.
func (h *AuthHandler) Verify(ctx context.Context, form OTPForm) (*model.User, error) {
	if err := form.Validate(ctx); err != nil {
		return nil, err
	}
	deviceID, err := session.DeviceID(h.kv)
	if err != nil {
		return nil, err
	}
	resp, err := h.svc.VerifyOTP(ctx, form.Phone, form.OTP, deviceID)
	if err != nil {
		return nil, err
	}
	if err := h.session.Establish(resp.AccessToken, resp.User); err != nil {
		return nil, err
	}

	h.println(i18n.T(ctx, "auth.welcome", map[string]any{
		"Name": resp.User.Name,
		"Role": resp.User.Role,
	}))
	h.nav.Navigate(ViewDashboard)
	return &resp.User, nil
}

func (h *AuthHandler) Logout(ctx context.Context) error {
	if err := h.session.Teardown(session.ReasonLogout); err != nil {
		return err
	}
	h.println(i18n.T(ctx, "auth.logged_out"))
	return nil
}

// WhoAmI prints the stored profile. With remote set the profile is fetched
// again and the stored snapshot updated.
func (h *AuthHandler) WhoAmI(ctx context.Context, remote bool) error {
	if err := h.requireSession(); err != nil {
		return err
	}
	user := h.session.User()
	if remote || user == nil {
		me, err := h.svc.Me(ctx)
		if err != nil {
			return err
		}
		if err := h.session.Establish(h.session.Token(), *me); err != nil {
			return err
		}
		user = me
	}
	deviceID, err := session.DeviceID(h.kv)
	if err != nil {
		return err
	}

	tw := newTable(h.out)
	fmt.Fprintf(tw, "%s\t%s\n", i18n.T(ctx, "profile.name"), user.Name)
	fmt.Fprintf(tw, "%s\t%s\n", i18n.T(ctx, "profile.phone"), user.Phone)
	fmt.Fprintf(tw, "%s\t%s\n", i18n.T(ctx, "profile.role"), i18n.T(ctx, "role."+string(user.Role)))
	fmt.Fprintf(tw, "%s\t%s\n", i18n.T(ctx, "profile.device"), deviceID)
	if exp, ok := h.session.ExpiresAt(); ok {
		fmt.Fprintf(tw, "%s\t%s %s\n", i18n.T(ctx, "profile.expires"), h.date(exp), h.clock(exp))
	}
	return tw.Flush()
}

// Refresh swaps the current token for a fresh one.
func (h *AuthHandler) Refresh(ctx context.Context) error {
	if err := h.requireSession(); err != nil {
		return err
	}
	resp, err := h.svc.Refresh(ctx)
	if err != nil {
		return err
	}
	if err := h.session.Establish(resp.AccessToken, resp.User); err != nil {
		return err
	}
	if exp, ok := h.session.ExpiresAt(); ok {
		h.println(i18n.T(ctx, "auth.refreshed", map[string]any{"Expires": h.date(exp) + " " + h.clock(exp)}))
	} else {
		h.println(i18n.T(ctx, "auth.refreshed_no_expiry"))
	}
	return nil
}
