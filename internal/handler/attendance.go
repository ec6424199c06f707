package handler

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"geostaff-client/internal/capture"
	"geostaff-client/internal/export"
	"geostaff-client/internal/i18n"
	"geostaff-client/internal/model"
	"geostaff-client/internal/service"
	"geostaff-client/internal/session"
)

type AttendanceHandler struct {
	*shell
	svc       *service.AttendanceService
	locator   capture.Locator
	camera    capture.Camera
	cfg       capture.Config
	exportDir string
}

func NewAttendanceHandler(sh *shell, svc *service.AttendanceService, locator capture.Locator, camera capture.Camera, cfg capture.Config, exportDir string) *AttendanceHandler {
	if cfg.Now == nil {
		cfg.Now = sh.now
	}
	return &AttendanceHandler{shell: sh, svc: svc, locator: locator, camera: camera, cfg: cfg, exportDir: exportDir}
}

// Status shows today's attendance.
func (h *AttendanceHandler) Status(ctx context.Context) error {
	if err := h.requireSession(); err != nil {
		return err
	}
	today, err := h.svc.Today(ctx)
	if err != nil {
		return err
	}
	tw := newTable(h.out)
	h.todayRows(ctx, tw, today)
	return tw.Flush()
}

func (h *AttendanceHandler) CheckIn(ctx context.Context, form CaptureForm) (*model.AttendanceResult, error) {
	return h.capture(ctx, model.EventCheckIn, form)
}

func (h *AttendanceHandler) CheckOut(ctx context.Context, form CaptureForm) (*model.AttendanceResult, error) {
	if form.WorkStatus == "" {
		form.WorkStatus = model.WorkStatusOffice
	}
	return h.capture(ctx, model.EventCheckOut, form)
}

// capture runs one check-in or check-out: load status and location, take a
// photo, submit, show the refreshed status. The camera is released on every
// return path.
func (h *AttendanceHandler) capture(ctx context.Context, kind model.EventType, form CaptureForm) (*model.AttendanceResult, error) {
	if err := h.requireSession(); err != nil {
		return nil, err
	}
	if err := form.Validate(ctx); err != nil {
		return nil, err
	}
	deviceID, err := session.DeviceID(h.kv)
	if err != nil {
		return nil, err
	}

	wf := capture.NewWorkflow(h.svc, h.locator, h.camera, deviceID, h.cfg)
	defer wf.Close()

	if err := wf.Load(ctx); err != nil {
		return nil, err
	}
	actions := wf.Actions()
	if (kind == model.EventCheckIn && !actions.CheckIn) || (kind == model.EventCheckOut && !actions.CheckOut) {
		h.println(i18n.T(ctx, "attendance.current", map[string]any{
			"Status": service.AttendanceStatusLabel(ctx, wf.Status()),
		}))
		return nil, capture.ErrActionUnavailable
	}
	if kind == model.EventCheckIn {
		if err := wf.SetWorkStatus(form.WorkStatus); err != nil {
			return nil, err
		}
	}
	wf.SetNotes(form.Notes)

	loc := wf.Location()
	if loc == nil {
		// the workflow's guard reports why there is no fix
		return h.submit(ctx, wf, kind)
	}
	h.println(i18n.T(ctx, "attendance.location", map[string]any{"Location": formatLocation(*loc)}))

	cam := wf.Camera()
	if err := cam.Open(ctx); err != nil {
		return nil, err
	}
	photo, err := cam.Capture()
	if err != nil {
		return nil, err
	}
	h.println(i18n.T(ctx, "attendance.photo", map[string]any{"Width": photo.Width, "Height": photo.Height}))

	res, err := h.submit(ctx, wf, kind)
	if err != nil {
		return nil, err
	}
	if res.Message != "" {
		h.println(res.Message)
	}
	tw := newTable(h.out)
	h.todayRows(ctx, tw, wf.Today())
	return res, tw.Flush()
}

func (h *AttendanceHandler) submit(ctx context.Context, wf *capture.Workflow, kind model.EventType) (*model.AttendanceResult, error) {
	if kind == model.EventCheckIn {
		return wf.CheckIn(ctx)
	}
	return wf.CheckOut(ctx)
}

// todayRows writes the status block shared by the dashboard and the status
// view.
func (s *shell) todayRows(ctx context.Context, w io.Writer, today *model.TodayAttendance) {
	if today == nil {
		return
	}
	fmt.Fprintf(w, "%s\t%s\n", i18n.T(ctx, "attendance.label.status"), service.AttendanceStatusLabel(ctx, today.Status))
	if today.CheckIn != nil {
		fmt.Fprintf(w, "%s\t%s (%s)\n", i18n.T(ctx, "attendance.label.check_in"),
			s.clock(today.CheckIn.Timestamp), service.WorkStatusLabel(ctx, today.CheckIn.WorkStatus))
	}
	if today.CheckOut != nil {
		fmt.Fprintf(w, "%s\t%s\n", i18n.T(ctx, "attendance.label.check_out"), s.clock(today.CheckOut.Timestamp))
	}
	if today.CheckIn != nil {
		fmt.Fprintf(w, "%s\t%s\n", i18n.T(ctx, "attendance.label.hours"), formatHours(today.HoursWorked(s.now())))
	}

	next := "attendance.next.done"
	switch today.Status {
	case model.AttendanceStatusNotStarted:
		next = "attendance.next.check_in"
	case model.AttendanceStatusCheckedIn:
		next = "attendance.next.check_out"
	}
	fmt.Fprintf(w, "%s\t%s\n", i18n.T(ctx, "attendance.label.next"), i18n.T(ctx, next))
}

func (h *AttendanceHandler) History(ctx context.Context, page, pageSize int) (*model.AttendanceHistory, error) {
	if err := h.requireSession(); err != nil {
		return nil, err
	}
	hist, err := h.svc.History(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	if len(hist.Records) == 0 {
		h.println(i18n.T(ctx, "attendance.empty"))
		return hist, nil
	}
	if err := h.recordTable(ctx, hist.Records); err != nil {
		return nil, err
	}
	h.println(i18n.T(ctx, "pagination", map[string]any{
		"Page":  hist.Page,
		"Shown": len(hist.Records),
		"Total": hist.TotalCount,
	}))
	return hist, nil
}

func (h *AttendanceHandler) Recent(ctx context.Context, limit int) ([]model.AttendanceRecord, error) {
	if err := h.requireSession(); err != nil {
		return nil, err
	}
	recs, err := h.svc.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		h.println(i18n.T(ctx, "attendance.empty"))
		return recs, nil
	}
	return recs, h.recordTable(ctx, recs)
}

func (h *AttendanceHandler) recordTable(ctx context.Context, recs []model.AttendanceRecord) error {
	tw := newTable(h.out)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
		i18n.T(ctx, "column.date"), i18n.T(ctx, "column.time"), i18n.T(ctx, "column.event"),
		i18n.T(ctx, "column.work_status"), i18n.T(ctx, "column.location"))
	for _, rec := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			h.date(rec.Timestamp), h.clock(rec.Timestamp), i18n.T(ctx, "event."+string(rec.Type)),
			service.WorkStatusLabel(ctx, rec.WorkStatus), formatLocation(rec.Location))
	}
	return tw.Flush()
}

// Summary shows the month's totals. Zero year or month selects the current
// one.
func (h *AttendanceHandler) Summary(ctx context.Context, year, month int) (*model.MonthlySummary, error) {
	if err := h.requireSession(); err != nil {
		return nil, err
	}
	now := h.today()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	sum, err := h.svc.MonthlySummary(ctx, year, month)
	if err != nil {
		return nil, err
	}

	h.println(time.Date(sum.Year, time.Month(sum.Month), 1, 0, 0, 0, 0, h.loc).Format("January 2006"))
	tw := newTable(h.out)
	fmt.Fprintf(tw, "%s\t%d\n", i18n.T(ctx, "summary.days_present"), sum.DaysPresent)
	fmt.Fprintf(tw, "%s\t%s\n", i18n.T(ctx, "summary.total_hours"), formatHours(sum.TotalHours))
	fmt.Fprintf(tw, "%s\t%s\n", i18n.T(ctx, "summary.average_hours"), formatHours(sum.AverageHours))
	return sum, tw.Flush()
}

type ExportOptions struct {
	StartDate string
	EndDate   string
	// Format is "csv" for the server's export or "xlsx" for a workbook built
	// locally from the history.
	Format string
	Dir    string
}

// Export saves attendance for the range and returns the written path.
func (h *AttendanceHandler) Export(ctx context.Context, opts ExportOptions) (string, error) {
	if err := h.requireSession(); err != nil {
		return "", err
	}
	from, to, err := parseRange(ctx, opts.StartDate, opts.EndDate)
	if err != nil {
		return "", err
	}
	dir := opts.Dir
	if dir == "" {
		dir = h.exportDir
	}
	if dir == "" {
		dir = "."
	}

	var path string
	switch opts.Format {
	case "xlsx":
		recs, err := h.collect(ctx, from)
		if err != nil {
			return "", err
		}
		recs = FilterRecords(recs, RecordFilter{From: from, To: to}, h.loc)
		reverse(recs)
		path = filepath.Join(dir, export.Filename(opts.StartDate, opts.EndDate, "xlsx"))
		if err := export.SaveXLSX(path, recs, h.loc); err != nil {
			return "", err
		}
	case "", "csv":
		dl, err := h.svc.Export(ctx, model.ExportQuery{StartDate: opts.StartDate, EndDate: opts.EndDate, Format: "csv"})
		if err != nil {
			return "", err
		}
		path, err = export.SaveDownload(dir, dl, export.Filename(opts.StartDate, opts.EndDate, "csv"))
		if err != nil {
			return "", err
		}
	default:
		return "", &ValidationError{Field: "format", Message: i18n.T(ctx, "validation.format")}
	}

	h.println(i18n.T(ctx, "export.saved", map[string]any{"Path": path}))
	return path, nil
}

// parseRange reads optional YYYY-MM-DD bounds. A zero time leaves that side
// open.
func parseRange(ctx context.Context, start, end string) (from, to time.Time, err error) {
	if start != "" {
		if from, err = time.Parse(time.DateOnly, start); err != nil {
			return from, to, &ValidationError{Field: "start_date", Message: i18n.T(ctx, "validation.start_date")}
		}
	}
	if end != "" {
		if to, err = time.Parse(time.DateOnly, end); err != nil {
			return from, to, &ValidationError{Field: "end_date", Message: i18n.T(ctx, "validation.end_date")}
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return from, to, &ValidationError{Field: "end_date", Message: i18n.T(ctx, "validation.range")}
	}
	return from, to, nil
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
