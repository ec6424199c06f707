package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"geostaff-client/internal/api"
	"geostaff-client/internal/capture"
	"geostaff-client/internal/i18n"
	"geostaff-client/internal/service"
	"geostaff-client/internal/session"
	"geostaff-client/internal/store"
)

// View names a screen of the application.
type View string

const (
	ViewLogin      View = "login"
	ViewDashboard  View = "dashboard"
	ViewCheckIn    View = "check-in"
	ViewHistory    View = "history"
	ViewCalendar   View = "calendar"
	ViewLeave      View = "leave"
	ViewLeaveApply View = "leave-apply"
)

type Navigator interface {
	Navigate(v View)
}

type NavigatorFunc func(View)

func (f NavigatorFunc) Navigate(v View) { f(v) }

// Router remembers the current view and the order views were visited in.
type Router struct {
	mu      sync.Mutex
	current View
	visited []View
	onEnter func(View)
}

func NewRouter(onEnter func(View)) *Router {
	return &Router{onEnter: onEnter}
}

func (r *Router) Navigate(v View) {
	r.mu.Lock()
	r.current = v
	r.visited = append(r.visited, v)
	fn := r.onEnter
	r.mu.Unlock()
	if fn != nil {
		fn(v)
	}
}

func (r *Router) Current() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *Router) Visited() []View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]View(nil), r.visited...)
}

var ErrNotAuthenticated = errors.New("not logged in")

// Deps is everything the views need from the outside world.
type Deps struct {
	Out       io.Writer
	Client    *api.Client
	Session   *session.Session
	Store     store.KV
	Nav       Navigator
	Locator   capture.Locator
	Camera    capture.Camera
	Capture   capture.Config
	Location  *time.Location
	Locale    string
	ExportDir string
	// ShowDevOTP prints the code a development backend returns with send-otp.
	ShowDevOTP bool
	Color      bool
	Now       func() time.Time
}

// shell is the state every view shares.
type shell struct {
	out     io.Writer
	session *session.Session
	kv      store.KV
	nav     Navigator
	loc     *time.Location
	now     func() time.Time
	color   bool
	devOTP  bool
}

func (s *shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *shell) println(args ...any) {
	fmt.Fprintln(s.out, args...)
}

func (s *shell) write(text string) {
	io.WriteString(s.out, text)
}

// requireSession sends the user to the login view when nobody is signed in.
func (s *shell) requireSession() error {
	if s.session.Authenticated() {
		return nil
	}
	s.nav.Navigate(ViewLogin)
	return ErrNotAuthenticated
}

func (s *shell) today() time.Time {
	return s.now().In(s.loc)
}

// App wires the views to the services and owns the reaction to an expired
// session.
type App struct {
	*shell

	Auth       *AuthHandler
	Dashboard  *DashboardHandler
	Attendance *AttendanceHandler
	Leave      *LeaveHandler
	Health     *HealthHandler

	unsubscribe func()
}

func NewApp(d Deps) *App {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Nav == nil {
		d.Nav = NewRouter(nil)
	}
	sh := &shell{
		out:     d.Out,
		session: d.Session,
		kv:      d.Store,
		nav:     d.Nav,
		loc:     d.Location,
		now:     d.Now,
		color:   d.Color,
		devOTP:  d.ShowDevOTP,
	}

	authSvc := service.NewAuthService(d.Client)
	attendanceSvc := service.NewAttendanceService(d.Client)
	leaveSvc := service.NewLeaveService(d.Client)

	a := &App{
		shell:      sh,
		Auth:       NewAuthHandler(sh, authSvc),
		Dashboard:  NewDashboardHandler(sh, attendanceSvc, leaveSvc),
		Attendance: NewAttendanceHandler(sh, attendanceSvc, d.Locator, d.Camera, d.Capture, d.ExportDir),
		Leave:      NewLeaveHandler(sh, leaveSvc),
		Health:     NewHealthHandler(sh, service.NewHealthService(d.Client)),
	}

	notifyCtx := i18n.WithLocale(context.Background(), d.Locale)
	d.Client.OnSessionExpired(func(ev api.SessionExpired) {
		// A 401 from verify-otp is a wrong code, not a dead token.
		if !d.Session.Authenticated() || ev.Path == service.PathVerifyOTP {
			return
		}
		log.Printf("ERROR session expired on %s %s", ev.Method, ev.Path)
		if err := d.Session.Teardown(session.ReasonExpired); err != nil {
			log.Printf("ERROR teardown session: %v", err)
		}
	})
	a.unsubscribe = d.Session.OnTeardown(func(r session.Reason) {
		if r == session.ReasonExpired {
			sh.println(i18n.T(notifyCtx, "auth.session_expired"))
		}
		sh.nav.Navigate(ViewLogin)
	})
	return a
}

// Close detaches the app from the session.
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}
