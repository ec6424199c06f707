package capture

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"geostaff-client/internal/model"
)

// AttendanceAPI is the slice of the attendance service the workflow needs.
type AttendanceAPI interface {
	Today(ctx context.Context) (*model.TodayAttendance, error)
	CheckIn(ctx context.Context, req *model.CheckInRequest) (*model.AttendanceResult, error)
	CheckOut(ctx context.Context, req *model.CheckOutRequest) (*model.AttendanceResult, error)
}

type Config struct {
	// RetryDelay is the pause before the single retry of a failed initial
	// status fetch.
	RetryDelay time.Duration
	// RefetchDelay is the pause between a successful submission and the
	// status re-fetch, giving the backend's read path time to catch up.
	RefetchDelay time.Duration
	Photo        PhotoOptions
	Now          func() time.Time
}

// Actions lists what the employee may do right now.
type Actions struct {
	CheckIn  bool
	CheckOut bool
}

// Workflow is one check-in/check-out screen: today's status, a location
// fix, a camera session and the form fields, guarded so that nothing is
// submitted without both a fix and a photo.
type Workflow struct {
	svc      AttendanceAPI
	locator  Locator
	camera   *CameraSession
	deviceID string
	cfg      Config
	sleep    func(ctx context.Context, d time.Duration) error

	mu         sync.Mutex
	today      *model.TodayAttendance
	loadErr    error
	location   *model.Location
	locErr     error
	workStatus model.WorkStatus
	notes      string
	submitting bool
	closed     bool
}

func NewWorkflow(svc AttendanceAPI, locator Locator, camera Camera, deviceID string, cfg Config) *Workflow {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Workflow{
		svc:        svc,
		locator:    locator,
		camera:     NewCameraSession(camera, cfg.Photo),
		deviceID:   deviceID,
		cfg:        cfg,
		sleep:      sleepContext,
		workStatus: model.WorkStatusOffice,
	}
}

// Load fetches today's status and a location fix concurrently. Only a status
// failure (after its one retry) is returned; a location failure is kept for
// LocationErr and blocks submission.
func (w *Workflow) Load(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return w.loadStatus(ctx) })
	g.Go(func() error {
		w.Locate(ctx)
		return nil
	})
	return g.Wait()
}

func (w *Workflow) loadStatus(ctx context.Context) error {
	today, err := w.svc.Today(ctx)
	if err != nil && ctx.Err() == nil {
		log.Printf("ERROR load today's attendance, retrying in %s: %v", w.cfg.RetryDelay, err)
		if serr := w.sleep(ctx, w.cfg.RetryDelay); serr != nil {
			return fmt.Errorf("load today's attendance: %w", err)
		}
		today, err = w.svc.Today(ctx)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	if err != nil {
		w.loadErr = err
		return fmt.Errorf("load today's attendance: %w", err)
	}
	w.today = today
	w.loadErr = nil
	return nil
}

// Refresh re-fetches today's status once, without retry.
func (w *Workflow) Refresh(ctx context.Context) error {
	today, err := w.svc.Today(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	if err != nil {
		return fmt.Errorf("refresh today's attendance: %w", err)
	}
	w.today = today
	w.loadErr = nil
	return nil
}

// Locate requests a new fix. There is no automatic retry; the caller decides
// when to ask again.
func (w *Workflow) Locate(ctx context.Context) error {
	loc, err := w.locator.Locate(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	if err != nil {
		w.location = nil
		w.locErr = err
		return fmt.Errorf("locate: %w", err)
	}
	w.location = &loc
	w.locErr = nil
	return nil
}

// Camera exposes the capture sub-flow.
func (w *Workflow) Camera() *CameraSession { return w.camera }

func (w *Workflow) SetWorkStatus(ws model.WorkStatus) error {
	if !ws.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidWorkStatus, ws)
	}
	w.mu.Lock()
	w.workStatus = ws
	w.mu.Unlock()
	return nil
}

func (w *Workflow) SetNotes(notes string) {
	w.mu.Lock()
	w.notes = notes
	w.mu.Unlock()
}

func (w *Workflow) Notes() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.notes
}

func (w *Workflow) WorkStatus() model.WorkStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.workStatus
}

// Status is the server-reported status, or "" before a successful load.
func (w *Workflow) Status() model.AttendanceStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.today == nil {
		return ""
	}
	return w.today.Status
}

// Today returns a copy of the last fetched day, or nil.
func (w *Workflow) Today() *model.TodayAttendance {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.today == nil {
		return nil
	}
	t := *w.today
	return &t
}

func (w *Workflow) LoadErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loadErr
}

func (w *Workflow) Location() *model.Location {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.location == nil {
		return nil
	}
	l := *w.location
	return &l
}

func (w *Workflow) LocationErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.locErr
}

func (w *Workflow) Submitting() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitting
}

// Actions derives the enabled actions from the server status. Nothing is
// enabled while a submission is in flight.
func (w *Workflow) Actions() Actions {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.submitting {
		return Actions{}
	}
	return actionsFor(w.today)
}

func actionsFor(today *model.TodayAttendance) Actions {
	if today == nil {
		return Actions{}
	}
	switch today.Status {
	case model.AttendanceStatusNotStarted:
		return Actions{CheckIn: true}
	case model.AttendanceStatusCheckedIn:
		return Actions{CheckOut: true}
	}
	return Actions{}
}

// HoursWorked is recomputed from the clock on every call.
func (w *Workflow) HoursWorked() float64 {
	w.mu.Lock()
	today := w.today
	w.mu.Unlock()
	return today.HoursWorked(w.cfg.Now())
}

func (w *Workflow) CheckIn(ctx context.Context) (*model.AttendanceResult, error) {
	return w.submit(ctx, model.EventCheckIn)
}

func (w *Workflow) CheckOut(ctx context.Context) (*model.AttendanceResult, error) {
	return w.submit(ctx, model.EventCheckOut)
}

func (w *Workflow) submit(ctx context.Context, kind model.EventType) (*model.AttendanceResult, error) {
	w.mu.Lock()
	if w.submitting {
		w.mu.Unlock()
		return nil, ErrSubmitPending
	}
	actions := actionsFor(w.today)
	if (kind == model.EventCheckIn && !actions.CheckIn) || (kind == model.EventCheckOut && !actions.CheckOut) {
		w.mu.Unlock()
		return nil, ErrActionUnavailable
	}
	if w.location == nil {
		err := ErrNoLocation
		if w.locErr != nil {
			err = fmt.Errorf("%w: %w", ErrNoLocation, w.locErr)
		}
		w.mu.Unlock()
		return nil, err
	}
	photo := w.camera.Photo()
	if photo == nil {
		w.mu.Unlock()
		return nil, ErrNoPhoto
	}
	loc := *w.location
	workStatus := w.workStatus
	notes := w.notes
	w.submitting = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.submitting = false
		w.mu.Unlock()
	}()

	var (
		res *model.AttendanceResult
		err error
	)
	switch kind {
	case model.EventCheckIn:
		res, err = w.svc.CheckIn(ctx, &model.CheckInRequest{
			Location:   loc,
			DeviceID:   w.deviceID,
			WorkStatus: workStatus,
			PhotoURL:   photo.DataURL(),
			Notes:      notes,
		})
	case model.EventCheckOut:
		res, err = w.svc.CheckOut(ctx, &model.CheckOutRequest{
			Location: loc,
			DeviceID: w.deviceID,
			PhotoURL: photo.DataURL(),
			Notes:    notes,
		})
	}
	if err != nil {
		return nil, err
	}

	w.camera.Discard()
	w.mu.Lock()
	w.notes = ""
	w.mu.Unlock()

	if err := w.sleep(ctx, w.cfg.RefetchDelay); err != nil {
		return res, nil
	}
	if err := w.Refresh(ctx); err != nil {
		log.Printf("ERROR refresh after %s: %v", kind, err)
	}
	return res, nil
}

// Close tears the screen down: the camera is released and results of any
// request still in flight are ignored.
func (w *Workflow) Close() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	return w.camera.Close()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsPlatformError reports whether err comes from the device (permission,
// support, timeout, camera) rather than the network or the server.
func IsPlatformError(err error) bool {
	return errors.Is(err, ErrPermissionDenied) ||
		errors.Is(err, ErrUnsupported) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrCameraUnavailable) ||
		errors.Is(err, ErrCameraBusy)
}
