package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geostaff-client/internal/model"
)

func TestLeaveApply(t *testing.T) {
	env := newEnv(t)
	env.login(t, model.RoleEmployee)
	ctx := context.Background()

	res, err := env.app.Leave.Apply(ctx, LeaveForm{
		LeaveType: model.LeaveTypeCasual,
		StartDate: "2030-03-01", // Friday
		EndDate:   "2030-03-04", // Monday
		Reason:    "family function",
	})
	require.NoError(t, err)
	assert.Equal(t, 2.0, res.Days)
	assert.Contains(t, env.out.String(), "Casual Leave: 2 working day(s)")
	assert.Contains(t, env.out.String(), "Leave request submitted successfully for 2.0 days")

	req, ok := env.srv.Leave(testPhone, res.RequestID)
	require.True(t, ok)
	assert.Equal(t, model.LeaveStatusPending, req.Status)

	n, err := env.app.Leave.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLeaveApply_BlockedLocally(t *testing.T) {
	tests := []struct {
		name  string
		form  LeaveForm
		field string
	}{
		{"end before start", LeaveForm{LeaveType: "sick", StartDate: "2030-03-05", EndDate: "2030-03-04", Reason: "flu"}, "end_date"},
		{"weekend only", LeaveForm{LeaveType: "sick", StartDate: "2030-03-02", EndDate: "2030-03-03", Reason: "flu"}, "end_date"},
		{"bad type", LeaveForm{LeaveType: "sabbatical", StartDate: "2030-03-04", EndDate: "2030-03-04", Reason: "rest"}, "leave_type"},
		{"bad date", LeaveForm{LeaveType: "sick", StartDate: "04/03/2030", EndDate: "2030-03-04", Reason: "flu"}, "start_date"},
		{"short reason", LeaveForm{LeaveType: "sick", StartDate: "2030-03-04", EndDate: "2030-03-04", Reason: " x "}, "reason"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newEnv(t)
			env.login(t, model.RoleEmployee)

			_, err := env.app.Leave.Apply(context.Background(), tt.form)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Zero(t, env.srv.Calls("POST", "/leave/apply"))
		})
	}
}

func TestLeaveApply_ServerDetailShownVerbatim(t *testing.T) {
	env := newEnv(t)
	env.login(t, model.RoleEmployee)
	ctx := context.Background()

	_, err := env.app.Leave.Apply(ctx, LeaveForm{LeaveType: "earned", StartDate: "2030-03-04", EndDate: "2030-03-29", Reason: "long trip"})
	require.Error(t, err)
	assert.Equal(t, "Insufficient earned leave balance. Available: 10.0 days", Message(ctx, err))
}

func TestLeavePreview(t *testing.T) {
	env := newEnv(t)
	days, err := env.app.Leave.Preview(context.Background(), &LeaveForm{
		LeaveType: "casual", StartDate: "2030-03-04", EndDate: "2030-03-15", Reason: "trip",
	})
	require.NoError(t, err)
	assert.Equal(t, 10, days)
}

func TestLeaveBalance(t *testing.T) {
	env := newEnv(t)
	env.login(t, model.RoleEmployee)

	b, err := env.app.Leave.Balance(context.Background(), 2030)
	require.NoError(t, err)
	assert.Equal(t, 2030, b.Year)
	assert.Equal(t, 30.0, b.TotalBalance)
	assert.Regexp(t, `Sick Leave\s+10\.0\s+0\.0`, env.out.String())
}

func TestLeaveHistory_OffersCancelOnlyWhenCancellable(t *testing.T) {
	env := newEnv(t)
	env.login(t, model.RoleEmployee)
	pending := env.srv.AddLeave(testPhone, model.LeaveRequest{LeaveType: "casual", StartDate: "2030-01-07", EndDate: "2030-01-07", Days: 1, Status: model.LeaveStatusPending})
	approved := env.srv.AddLeave(testPhone, model.LeaveRequest{LeaveType: "sick", StartDate: "2030-01-08", EndDate: "2030-01-08", Days: 1, Status: model.LeaveStatusApproved})
	rejected := env.srv.AddLeave(testPhone, model.LeaveRequest{LeaveType: "earned", StartDate: "2030-01-09", EndDate: "2030-01-09", Days: 1, Status: model.LeaveStatusRejected})

	hist, err := env.app.Leave.History(context.Background(), 1, 20, "")
	require.NoError(t, err)
	require.Len(t, hist.Requests, 3)

	out := env.out.String()
	assert.Contains(t, out, "2 request(s) can still be cancelled")
	assert.Contains(t, out, "leave cancel "+pending)
	assert.Contains(t, out, "leave cancel "+approved)
	assert.NotContains(t, out, "leave cancel "+rejected)
	assert.Contains(t, out, "Rejected")
	// no escape codes unless colors are on
	assert.NotContains(t, out, "\033[")

	ids := make([]string, 0, 2)
	for _, r := range Cancellable(hist.Requests) {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []string{pending, approved}, ids)
}

func TestLeaveHistory_StatusFilter(t *testing.T) {
	env := newEnv(t)
	env.login(t, model.RoleEmployee)
	env.srv.AddLeave(testPhone, model.LeaveRequest{LeaveType: "casual", Status: model.LeaveStatusPending})
	env.srv.AddLeave(testPhone, model.LeaveRequest{LeaveType: "casual", Status: model.LeaveStatusRejected})

	hist, err := env.app.Leave.History(context.Background(), 1, 20, model.LeaveStatusRejected)
	require.NoError(t, err)
	require.Len(t, hist.Requests, 1)
	assert.Equal(t, model.LeaveStatusRejected, hist.Requests[0].Status)

	_, err = env.app.Leave.History(context.Background(), 1, 20, "archived")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 1, env.srv.Calls("GET", "/leave/history"))
}

func TestLeaveCancel(t *testing.T) {
	env := newEnv(t)
	env.login(t, model.RoleEmployee)
	ctx := context.Background()
	id := env.srv.AddLeave(testPhone, model.LeaveRequest{LeaveType: "casual", Days: 1, Status: model.LeaveStatusPending})

	res, err := env.app.Leave.Cancel(ctx, id)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Contains(t, env.out.String(), "Leave request cancelled successfully")

	req, _ := env.srv.Leave(testPhone, id)
	assert.Equal(t, model.LeaveStatusCancelled, req.Status)

	_, err = env.app.Leave.Cancel(ctx, id)
	require.Error(t, err)
	assert.Equal(t, "Cannot cancel leave with status: cancelled", Message(ctx, err))
}

func TestLeaveCancel_InvalidIDSendsNothing(t *testing.T) {
	env := newEnv(t)
	env.login(t, model.RoleEmployee)

	for _, id := range []string{"", "abc", "zzzzzzzzzzzzzzzzzzzzzzzz", "65f1c2d3e4a5b6c7d8e9f0a1b2"} {
		_, err := env.app.Leave.Cancel(context.Background(), id)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve, id)
		assert.Equal(t, "request_id", ve.Field)
	}
	assert.Zero(t, env.srv.Calls("POST", "/leave/cancel/abc"))
}
