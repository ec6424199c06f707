// Package apitest runs an in-process GeoStaff backend for tests. It keeps
// its state in memory and mirrors the real API's payloads and error details.
package apitest

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/v2/bson"

	"geostaff-client/internal/model"
	"geostaff-client/internal/service"
)

const (
	Prefix = "/api/v1"
	DevOTP = "123456"

	signingKey = "apitest-signing-key"
)

// IST is the zone the backend uses to decide what "today" is.
var IST = time.FixedZone("IST", 5*3600+30*60)

type failure struct {
	status    int
	detail    string
	remaining int
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	now      func() time.Time
	seq      int
	users    map[string]*model.User
	tokens   map[string]string
	records  map[string][]model.AttendanceRecord
	leaves   map[string][]*model.LeaveRequest
	balances map[string]*model.LeaveBalance
	calls    map[string]int
	failures map[string]*failure
}

type ctxKey struct{}

// New starts a backend that is shut down when t finishes.
func New(t testing.TB) *Server {
	s := &Server{
		now:      time.Now,
		users:    make(map[string]*model.User),
		tokens:   make(map[string]string),
		records:  make(map[string][]model.AttendanceRecord),
		leaves:   make(map[string][]*model.LeaveRequest),
		balances: make(map[string]*model.LeaveBalance),
		calls:    make(map[string]int),
		failures: make(map[string]*failure),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.track)

	r.Route(Prefix, func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/health/db", s.handleHealthDB)

		r.Post("/auth/send-otp", s.handleSendOTP)
		r.Post("/auth/resend-otp", s.handleResendOTP)
		r.Post("/auth/verify-otp", s.handleVerifyOTP)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Post("/auth/refresh", s.handleRefresh)
			r.Get("/auth/me", s.handleMe)

			r.Post("/attendance/check-in", s.handleCheckIn)
			r.Post("/attendance/check-out", s.handleCheckOut)
			r.Get("/attendance/today", s.handleToday)
			r.Get("/attendance/history", s.handleAttendanceHistory)
			r.Get("/attendance/recent", s.handleRecent)
			r.Get("/attendance/monthly-summary", s.handleMonthlySummary)
			r.Get("/attendance/export", s.handleExport)

			r.Post("/leave/apply", s.handleApplyLeave)
			r.Get("/leave/balance", s.handleLeaveBalance)
			r.Get("/leave/history", s.handleLeaveHistory)
			r.Post("/leave/cancel/{id}", s.handleCancelLeave)
			r.Get("/leave/pending-count", s.handlePendingCount)
		})
	})
	return r
}

// BaseURL is the API root a client should be pointed at.
func (s *Server) BaseURL() string {
	return s.URL + Prefix
}

// SetClock replaces the server's clock.
func (s *Server) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// AddUser registers a user, replacing any user with the same phone.
func (s *Server) AddUser(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.Phone] = &u
}

// Login issues a token for phone without the OTP exchange, creating an
// employee when the phone is unknown.
func (s *Server) Login(phone string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureUser(phone)
	return s.issueToken(phone)
}

// ExpireTokens revokes every issued token.
func (s *Server) ExpireTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]string)
}

// Fail makes the next times requests to "METHOD /path" (path relative to
// the API root) answer status with detail.
func (s *Server) Fail(method, path string, status int, detail string, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = &failure{status: status, detail: detail, remaining: times}
}

// Calls counts requests to "METHOD /path" that reached the server.
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

// Records returns the attendance records stored for phone.
func (s *Server) Records(phone string) []model.AttendanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.AttendanceRecord(nil), s.records[phone]...)
}

// AddRecord stores an attendance record as if it had been submitted.
func (s *Server) AddRecord(phone string, rec model.AttendanceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.UserID = phone
	s.records[phone] = append(s.records[phone], rec)
}

// AddLeave stores a leave request for phone and returns its id.
func (s *Server) AddLeave(phone string, req model.LeaveRequest) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.ID == "" {
		req.ID = bson.NewObjectID().Hex()
	}
	req.UserID = phone
	if req.AppliedAt == nil {
		now := s.now().UTC()
		req.AppliedAt = &now
	}
	s.leaves[phone] = append(s.leaves[phone], &req)
	return req.ID
}

// Leave looks up a stored leave request.
func (s *Server) Leave(phone, id string) (model.LeaveRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.leaves[phone] {
		if l.ID == id {
			return *l, true
		}
	}
	return model.LeaveRequest{}, false
}

func (s *Server) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + strings.TrimPrefix(r.URL.Path, Prefix)

		s.mu.Lock()
		s.calls[key]++
		f := s.failures[key]
		var inject *failure
		if f != nil && f.remaining > 0 {
			f.remaining--
			inject = &failure{status: f.status, detail: f.detail}
		}
		s.mu.Unlock()

		if inject != nil {
			writeDetail(w, inject.status, inject.detail)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		phone, known := s.tokens[token]
		s.mu.Unlock()
		if !ok || !known {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, phone)))
	})
}

func currentPhone(r *http.Request) string {
	phone, _ := r.Context().Value(ctxKey{}).(string)
	return phone
}

// --- health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.Health{
		Status:    "ok",
		Message:   "GeoStaff API is running",
		Timestamp: s.clock().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleHealthDB(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.Health{
		Status:   "ok",
		Message:  "Database connection is healthy",
		Database: "geostaff",
	})
}

// --- auth ---

type phoneBody struct {
	Phone string `json:"phone"`
}

// cleanPhone keeps the digits of phone. Send and resend store the cleaned
// number while verify looks up the body as sent, as the real backend does.
func cleanPhone(phone string) string {
	return strings.Map(func(c rune) rune {
		if c >= '0' && c <= '9' {
			return c
		}
		return -1
	}, phone)
}

func (s *Server) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	var body phoneBody
	if !decode(w, r, &body) {
		return
	}
	body.Phone = cleanPhone(body.Phone)
	if len(body.Phone) < 10 {
		writeValidation(w, "phone", "Phone number must have at least 10 digits")
		return
	}

	s.mu.Lock()
	u := s.ensureUser(body.Phone)
	active := u.IsActive
	s.mu.Unlock()
	if !active {
		writeDetail(w, http.StatusForbidden, "Your account has been deactivated. Contact admin.")
		return
	}
	writeJSON(w, http.StatusOK, model.OTPResponse{
		Success: true,
		Message: "OTP sent successfully to " + body.Phone,
		OTP:     DevOTP,
	})
}

func (s *Server) handleResendOTP(w http.ResponseWriter, r *http.Request) {
	var body phoneBody
	if !decode(w, r, &body) {
		return
	}
	body.Phone = cleanPhone(body.Phone)
	s.mu.Lock()
	_, ok := s.users[body.Phone]
	s.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found. Please register first.")
		return
	}
	writeJSON(w, http.StatusOK, model.OTPResponse{
		Success: true,
		Message: "OTP resent successfully to " + body.Phone,
		OTP:     DevOTP,
	})
}

func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Phone    string `json:"phone"`
		OTP      string `json:"otp"`
		DeviceID string `json:"device_id"`
	}
	if !decode(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[body.Phone]
	if !ok || body.OTP != DevOTP {
		writeDetail(w, http.StatusUnauthorized, "Invalid or expired OTP. Please try again.")
		return
	}
	writeJSON(w, http.StatusOK, model.TokenResponse{
		AccessToken: s.issueToken(body.Phone),
		TokenType:   "bearer",
		User:        *u,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	phone := currentPhone(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[phone]
	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	if !u.IsActive {
		writeDetail(w, http.StatusForbidden, "Your account has been deactivated")
		return
	}
	writeJSON(w, http.StatusOK, model.TokenResponse{
		AccessToken: s.issueToken(phone),
		TokenType:   "bearer",
		User:        *u,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	u, ok := s.users[currentPhone(r)]
	s.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// ensureUser must be called with s.mu held.
func (s *Server) ensureUser(phone string) *model.User {
	if u, ok := s.users[phone]; ok {
		return u
	}
	now := s.now().UTC()
	name := phone
	if len(phone) > 4 {
		name = phone[len(phone)-4:]
	}
	u := &model.User{Phone: phone, Name: "User " + name, Role: model.RoleEmployee, IsActive: true, CreatedAt: &now}
	s.users[phone] = u
	return u
}

// issueToken must be called with s.mu held.
func (s *Server) issueToken(phone string) string {
	s.seq++
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   phone,
		ID:        strconv.Itoa(s.seq),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingKey))
	if err != nil {
		panic(fmt.Sprintf("sign token: %v", err))
	}
	s.tokens[token] = phone
	return token
}

// --- attendance ---

func (s *Server) clock() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now()
}

// today must be called with s.mu held.
func (s *Server) today(phone string) (in, out *model.AttendanceRecord) {
	now := s.now().In(IST)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, IST)
	end := start.AddDate(0, 0, 1)
	recs := s.records[phone]
	for i := range recs {
		ts := recs[i].Timestamp
		if ts.Before(start) || !ts.Before(end) {
			continue
		}
		switch recs[i].Type {
		case model.EventCheckIn:
			in = &recs[i]
		case model.EventCheckOut:
			out = &recs[i]
		}
	}
	return in, out
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	var req model.CheckInRequest
	if !decode(w, r, &req) {
		return
	}
	if !req.WorkStatus.Valid() {
		writeValidation(w, "work_status", "Input should be 'office', 'site' or 'remote'")
		return
	}

	phone := currentPhone(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if in, _ := s.today(phone); in != nil {
		writeDetail(w, http.StatusBadRequest, "Already checked in today")
		return
	}
	rec := model.AttendanceRecord{
		UserID:     phone,
		Type:       model.EventCheckIn,
		Timestamp:  s.now().UTC(),
		Location:   req.Location,
		DeviceID:   req.DeviceID,
		WorkStatus: req.WorkStatus,
		PhotoURL:   req.PhotoURL,
		Notes:      req.Notes,
	}
	s.records[phone] = append(s.records[phone], rec)
	writeJSON(w, http.StatusOK, model.AttendanceResult{
		Success:    true,
		Message:    "Checked in successfully",
		Attendance: &rec,
	})
}

func (s *Server) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	var req model.CheckOutRequest
	if !decode(w, r, &req) {
		return
	}

	phone := currentPhone(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	in, out := s.today(phone)
	switch {
	case out != nil:
		writeDetail(w, http.StatusBadRequest, "Already checked out today")
		return
	case in == nil:
		writeDetail(w, http.StatusBadRequest, "No check-in found for today. Please check in first.")
		return
	case in.DeviceID != req.DeviceID:
		writeDetail(w, http.StatusBadRequest, "Device mismatch. Please use the same device for check-out.")
		return
	}
	rec := model.AttendanceRecord{
		UserID:     phone,
		Type:       model.EventCheckOut,
		Timestamp:  s.now().UTC(),
		Location:   req.Location,
		DeviceID:   req.DeviceID,
		WorkStatus: in.WorkStatus,
		PhotoURL:   req.PhotoURL,
		Notes:      req.Notes,
	}
	hours := round2(rec.Timestamp.Sub(in.Timestamp).Hours())
	s.records[phone] = append(s.records[phone], rec)
	writeJSON(w, http.StatusOK, model.AttendanceResult{
		Success:     true,
		Message:     fmt.Sprintf("Checked out successfully. Hours worked: %.2f", hours),
		Attendance:  &rec,
		HoursWorked: &hours,
	})
}

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, out := s.today(currentPhone(r))

	resp := model.TodayAttendance{Status: model.AttendanceStatusNotStarted, CheckIn: in, CheckOut: out}
	switch {
	case out != nil:
		resp.Status = model.AttendanceStatusCheckedOut
		h := round2(out.Timestamp.Sub(in.Timestamp).Hours())
		resp.ServerHours = &h
	case in != nil:
		resp.Status = model.AttendanceStatusCheckedIn
		h := round2(s.now().Sub(in.Timestamp).Hours())
		resp.ServerHours = &h
	}
	writeJSON(w, http.StatusOK, resp)
}

// sortedRecords must be called with s.mu held. Newest first.
func (s *Server) sortedRecords(phone string) []model.AttendanceRecord {
	recs := append([]model.AttendanceRecord(nil), s.records[phone]...)
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Timestamp.After(recs[j].Timestamp) })
	return recs
}

func (s *Server) handleAttendanceHistory(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	size := queryInt(r, "page_size", 50)

	s.mu.Lock()
	recs := s.sortedRecords(currentPhone(r))
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, model.AttendanceHistory{
		Records:    paginate(recs, page, size),
		TotalCount: len(recs),
		Page:       page,
		PageSize:   size,
	})
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 5)

	s.mu.Lock()
	recs := s.sortedRecords(currentPhone(r))
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"records": paginate(recs, 1, limit)})
}

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	now := s.clock().In(IST)
	year := queryInt(r, "year", now.Year())
	month := queryInt(r, "month", int(now.Month()))
	if month < 1 || month > 12 {
		writeDetail(w, http.StatusBadRequest, "Month must be between 1 and 12")
		return
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, IST)
	end := start.AddDate(0, 1, 0)

	s.mu.Lock()
	all := s.sortedRecords(currentPhone(r))
	s.mu.Unlock()

	var (
		recs []model.AttendanceRecord
		ins  = make(map[string]time.Time)
		outs = make(map[string]time.Time)
	)
	for _, rec := range all {
		ts := rec.Timestamp.In(IST)
		if ts.Before(start) || !ts.Before(end) {
			continue
		}
		recs = append(recs, rec)
		day := ts.Format(time.DateOnly)
		if rec.Type == model.EventCheckIn {
			ins[day] = rec.Timestamp
		} else {
			outs[day] = rec.Timestamp
		}
	}

	var total float64
	for day, in := range ins {
		if out, ok := outs[day]; ok {
			total += out.Sub(in).Hours()
		}
	}
	summary := model.MonthlySummary{
		Year:        year,
		Month:       month,
		DaysPresent: len(ins),
		TotalHours:  round2(total),
		Records:     recs,
	}
	if len(ins) > 0 {
		summary.AverageHours = round2(total / float64(len(ins)))
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" {
		writeDetail(w, http.StatusBadRequest, "Unsupported export format: "+format)
		return
	}
	start := r.URL.Query().Get("start_date")
	end := r.URL.Query().Get("end_date")

	s.mu.Lock()
	all := s.sortedRecords(currentPhone(r))
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="attendance_%s_%s.csv"`, start, end))
	cw := csv.NewWriter(w)
	cw.Write([]string{"date", "time", "type", "work_status", "latitude", "longitude"})
	for i := len(all) - 1; i >= 0; i-- {
		rec := all[i]
		ts := rec.Timestamp.In(IST)
		day := ts.Format(time.DateOnly)
		if (start != "" && day < start) || (end != "" && day > end) {
			continue
		}
		cw.Write([]string{
			day,
			ts.Format("15:04:05"),
			string(rec.Type),
			string(rec.WorkStatus),
			strconv.FormatFloat(rec.Location.Latitude, 'f', 6, 64),
			strconv.FormatFloat(rec.Location.Longitude, 'f', 6, 64),
		})
	}
	cw.Flush()
}

// --- leave ---

// balance must be called with s.mu held.
func (s *Server) balance(phone string, year int) *model.LeaveBalance {
	key := phone + "/" + strconv.Itoa(year)
	b, ok := s.balances[key]
	if !ok {
		b = &model.LeaveBalance{CasualBalance: 10, SickBalance: 10, EarnedBalance: 10, TotalBalance: 30, Year: year}
		s.balances[key] = b
	}
	return b
}

func (s *Server) handleApplyLeave(w http.ResponseWriter, r *http.Request) {
	var req model.ApplyLeaveRequest
	if !decode(w, r, &req) {
		return
	}
	start, err1 := time.Parse(time.DateOnly, req.StartDate)
	end, err2 := time.Parse(time.DateOnly, req.EndDate)
	if err1 != nil || err2 != nil {
		writeValidation(w, "start_date", "Input should be a valid date")
		return
	}
	if end.Before(start) {
		writeDetail(w, http.StatusBadRequest, "End date must be after start date")
		return
	}
	days := float64(service.LeaveDayCount(start, end))
	if days < 1 {
		writeDetail(w, http.StatusBadRequest, "Leave duration must be at least 1 day")
		return
	}

	phone := currentPhone(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.balance(phone, s.now().UTC().Year())
	var available float64
	switch req.LeaveType {
	case model.LeaveTypeCasual:
		available = b.CasualBalance
	case model.LeaveTypeSick:
		available = b.SickBalance
	case model.LeaveTypeEarned:
		available = b.EarnedBalance
	default:
		writeValidation(w, "leave_type", "Input should be 'casual', 'sick' or 'earned'")
		return
	}
	if days > available {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Insufficient %s leave balance. Available: %.1f days", req.LeaveType, available))
		return
	}
	for _, l := range s.leaves[phone] {
		if l.Status.Cancellable() && l.StartDate <= req.EndDate && l.EndDate >= req.StartDate {
			writeDetail(w, http.StatusBadRequest, "Leave dates overlap with existing leave request")
			return
		}
	}

	now := s.now().UTC()
	l := &model.LeaveRequest{
		ID:        bson.NewObjectID().Hex(),
		UserID:    phone,
		LeaveType: req.LeaveType,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Days:      days,
		Reason:    req.Reason,
		Status:    model.LeaveStatusPending,
		AppliedAt: &now,
	}
	s.leaves[phone] = append(s.leaves[phone], l)
	writeJSON(w, http.StatusOK, model.ApplyLeaveResult{
		Success:   true,
		Message:   fmt.Sprintf("Leave request submitted successfully for %.1f days", days),
		RequestID: l.ID,
		Days:      days,
	})
}

func (s *Server) handleLeaveBalance(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := *s.balance(currentPhone(r), queryInt(r, "year", s.now().UTC().Year()))
	b.TotalUsed = b.UsedCasual + b.UsedSick + b.UsedEarned
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleLeaveHistory(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	size := queryInt(r, "page_size", 20)
	filter := model.LeaveStatus(r.URL.Query().Get("status_filter"))

	s.mu.Lock()
	var reqs []model.LeaveRequest
	for _, l := range s.leaves[currentPhone(r)] {
		if filter == "" || l.Status == filter {
			reqs = append(reqs, *l)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(reqs, func(i, j int) bool { return reqs[i].Applied().After(reqs[j].Applied()) })
	writeJSON(w, http.StatusOK, model.LeaveHistory{
		Requests:   paginate(reqs, page, size),
		TotalCount: len(reqs),
		Page:       page,
		PageSize:   size,
	})
}

func (s *Server) handleCancelLeave(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := bson.ObjectIDFromHex(id); err != nil {
		writeDetail(w, http.StatusInternalServerError, "Failed to cancel leave request")
		return
	}

	phone := currentPhone(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	var l *model.LeaveRequest
	for _, cand := range s.leaves[phone] {
		if cand.ID == id {
			l = cand
		}
	}
	if l == nil {
		writeDetail(w, http.StatusNotFound, "Leave request not found")
		return
	}
	if !l.Status.Cancellable() {
		writeDetail(w, http.StatusBadRequest, "Cannot cancel leave with status: "+string(l.Status))
		return
	}
	if l.Status == model.LeaveStatusApproved {
		b := s.balance(phone, s.now().UTC().Year())
		switch l.LeaveType {
		case model.LeaveTypeCasual:
			b.CasualBalance += l.Days
			b.UsedCasual -= l.Days
		case model.LeaveTypeSick:
			b.SickBalance += l.Days
			b.UsedSick -= l.Days
		case model.LeaveTypeEarned:
			b.EarnedBalance += l.Days
			b.UsedEarned -= l.Days
		}
	}
	now := s.now().UTC()
	l.Status = model.LeaveStatusCancelled
	l.CancelledAt = &now
	writeJSON(w, http.StatusOK, model.ActionResult{Success: true, Message: "Leave request cancelled successfully"})
}

func (s *Server) handlePendingCount(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	n := 0
	for _, l := range s.leaves[currentPhone(r)] {
		if l.Status == model.LeaveStatusPending {
			n++
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, model.PendingCount{PendingCount: n})
}

// --- helpers ---

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeValidation(w, "body", "Invalid JSON: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeValidation answers 422 in the list-of-errors shape.
func writeValidation(w http.ResponseWriter, field, msg string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"detail": []map[string]any{{
			"loc":  []string{"body", field},
			"msg":  msg,
			"type": "value_error",
		}},
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return fallback
	}
	return n
}

func paginate[T any](items []T, page, size int) []T {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = len(items)
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := min(start+size, len(items))
	return items[start:end]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
