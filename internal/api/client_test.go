package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestClient_AttachesBearerAndDecodes(t *testing.T) {
	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", staticToken("abc"))
	var out struct {
		Status string `json:"status"`
	}
	err := c.DoJSON(context.Background(), http.MethodGet, "/health", url.Values{"page": {"2"}}, nil, &out)
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", gotAuth)
	assert.Equal(t, "page=2", gotQuery)
	assert.Equal(t, "ok", out.Status)
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	var present bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present = r.Header["Authorization"]
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken(""))
	require.NoError(t, c.DoJSON(context.Background(), http.MethodPost, "/auth/send-otp", nil, map[string]string{"phone": "1"}, nil))
	assert.False(t, present)
}

func TestClient_UnauthorizedEmitsSessionExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Could not validate credentials"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("stale"))
	var events []SessionExpired
	c.OnSessionExpired(func(ev SessionExpired) { events = append(events, ev) })

	err := c.DoJSON(context.Background(), http.MethodGet, "/attendance/today", nil, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	require.Len(t, events, 1)
	assert.Equal(t, SessionExpired{Method: http.MethodGet, Path: "/attendance/today"}, events[0])
}

func TestClient_ErrorClasses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		class  error
		detail string
	}{
		{"forbidden", http.StatusForbidden, `{"detail":"Your account has been deactivated"}`, ErrForbidden, "Your account has been deactivated"},
		{"server", http.StatusInternalServerError, `{"detail":"Failed to process check-in"}`, ErrServer, "Failed to process check-in"},
		{"validation string", http.StatusBadRequest, `{"detail":"Already checked in today"}`, ErrValidation, "Already checked in today"},
		{"validation list", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","phone"],"msg":"Phone number must be at least 10 digits"},{"msg":"field required"}]}`, ErrValidation, "Phone number must be at least 10 digits; field required"},
		{"no body", http.StatusBadGateway, ``, ErrServer, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, staticToken("t"))
			expired := false
			c.OnSessionExpired(func(SessionExpired) { expired = true })

			err := c.DoJSON(context.Background(), http.MethodPost, "/x", nil, struct{}{}, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.class)
			assert.False(t, expired)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.detail, apiErr.Detail)
			assert.Equal(t, firstNonEmpty(tt.detail, "fallback"), Message(err, "fallback"))
		})
	}
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	c := NewClient(addr, staticToken(""))
	err := c.DoJSON(context.Background(), http.MethodGet, "/health", nil, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, "offline", Message(err, "offline"))
}

func TestClient_Download(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("start_date"))
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="attendance_2024-01.csv"`)
		w.Write([]byte("date,type\n"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("t"))
	dl, err := c.Download(context.Background(), "/attendance/export", url.Values{"start_date": {"2024-01-01"}})
	require.NoError(t, err)
	assert.Equal(t, "attendance_2024-01.csv", dl.Filename)
	assert.Equal(t, "text/csv", dl.ContentType)
	assert.Equal(t, "date,type\n", string(dl.Data))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
