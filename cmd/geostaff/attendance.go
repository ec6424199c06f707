package main

import (
	"flag"

	"geostaff-client/internal/handler"
	"geostaff-client/internal/model"
)

func (c *cli) status(cmd *Command, args []string) error {
	if err := cmd.NewFlagSet().Parse(args); err != nil {
		return err
	}
	app, err := c.app()
	if err != nil {
		return err
	}
	return app.Attendance.Status(c.ctx)
}

// capture runs check-in (in) or check-out. Location and photo flags override
// the configured ones for this run only.
func (c *cli) capture(cmd *Command, args []string, in bool) error {
	fs := cmd.NewFlagSet()
	var workStatus *string
	if in {
		workStatus = fs.String("work-status", string(model.WorkStatusOffice), "office, site or remote")
	}
	notes := fs.String("notes", "", "optional notes")
	lat := fs.Float64("lat", 0, "latitude in degrees")
	lng := fs.Float64("lng", 0, "longitude in degrees")
	acc := fs.Float64("accuracy", 0, "fix accuracy in metres")
	photo := fs.String("photo", "", "image file to use as the camera frame")
	if err := fs.Parse(args); err != nil {
		return err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["lat"] != set["lng"] {
		return usagef("--lat and --lng must be given together")
	}
	if set["lat"] {
		c.cfg.Latitude, c.cfg.Longitude = lat, lng
	}
	if set["accuracy"] {
		c.cfg.Accuracy = acc
	}
	if *photo != "" {
		c.cfg.PhotoPath = *photo
	}

	app, err := c.app()
	if err != nil {
		return err
	}
	form := handler.CaptureForm{Notes: *notes}
	if in {
		form.WorkStatus = model.WorkStatus(*workStatus)
		_, err = app.Attendance.CheckIn(c.ctx, form)
		return err
	}
	_, err = app.Attendance.CheckOut(c.ctx, form)
	return err
}

func (c *cli) history(cmd *Command, args []string) error {
	fs := cmd.NewFlagSet()
	page := fs.Int("page", 1, "page number")
	size := fs.Int("size", 50, "records per page")
	if err := fs.Parse(args); err != nil {
		return err
	}
	app, err := c.app()
	if err != nil {
		return err
	}
	_, err = app.Attendance.History(c.ctx, *page, *size)
	return err
}

func (c *cli) recent(cmd *Command, args []string) error {
	fs := cmd.NewFlagSet()
	limit := fs.Int("limit", 5, "number of records")
	if err := fs.Parse(args); err != nil {
		return err
	}
	app, err := c.app()
	if err != nil {
		return err
	}
	_, err = app.Attendance.Recent(c.ctx, *limit)
	return err
}

func (c *cli) calendar(cmd *Command, args []string) error {
	fs := cmd.NewFlagSet()
	year := fs.Int("year", 0, "year; defaults to the current one")
	month := fs.Int("month", 0, "month 1-12; defaults to the current one")
	kind := fs.String("type", "", "only check-in or check-out events")
	if err := fs.Parse(args); err != nil {
		return err
	}
	app, err := c.app()
	if err != nil {
		return err
	}
	_, err = app.Attendance.Calendar(c.ctx, handler.CalendarQuery{Year: *year, Month: *month, Type: model.EventType(*kind)})
	return err
}

func (c *cli) summary(cmd *Command, args []string) error {
	fs := cmd.NewFlagSet()
	year := fs.Int("year", 0, "year; defaults to the current one")
	month := fs.Int("month", 0, "month 1-12; defaults to the current one")
	if err := fs.Parse(args); err != nil {
		return err
	}
	app, err := c.app()
	if err != nil {
		return err
	}
	_, err = app.Attendance.Summary(c.ctx, *year, *month)
	return err
}

func (c *cli) export(cmd *Command, args []string) error {
	fs := cmd.NewFlagSet()
	from := fs.String("from", "", "first day, YYYY-MM-DD")
	to := fs.String("to", "", "last day, YYYY-MM-DD")
	format := fs.String("format", "csv", "csv or xlsx")
	dir := fs.String("dir", "", "directory to write to; defaults to GEOSTAFF_EXPORT_DIR, then the working directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	app, err := c.app()
	if err != nil {
		return err
	}
	_, err = app.Attendance.Export(c.ctx, handler.ExportOptions{StartDate: *from, EndDate: *to, Format: *format, Dir: *dir})
	return err
}
