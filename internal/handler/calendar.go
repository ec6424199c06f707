package handler

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"geostaff-client/internal/i18n"
	"geostaff-client/internal/model"
	"geostaff-client/internal/service"
)

const historyPageSize = 100

// RecordFilter narrows a record list. From and To are calendar dates, both
// inclusive; a zero value leaves that side open. An empty Type keeps both
// events.
type RecordFilter struct {
	From time.Time
	To   time.Time
	Type model.EventType
}

// FilterRecords keeps the records matching f, judging dates in loc.
func FilterRecords(records []model.AttendanceRecord, f RecordFilter, loc *time.Location) []model.AttendanceRecord {
	from, to := "", ""
	if !f.From.IsZero() {
		from = f.From.Format(time.DateOnly)
	}
	if !f.To.IsZero() {
		to = f.To.Format(time.DateOnly)
	}

	out := make([]model.AttendanceRecord, 0, len(records))
	for _, rec := range records {
		day := rec.Timestamp.In(loc).Format(time.DateOnly)
		if from != "" && day < from {
			continue
		}
		if to != "" && day > to {
			continue
		}
		if f.Type != "" && rec.Type != f.Type {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Day is one calendar day of attendance.
type Day struct {
	Date     string // YYYY-MM-DD in the display zone
	CheckIn  *model.AttendanceRecord
	CheckOut *model.AttendanceRecord
}

// Hours is the time between the day's check-in and check-out, rounded to one
// decimal, or 0 while either is missing.
func (d Day) Hours() float64 {
	if d.CheckIn == nil || d.CheckOut == nil {
		return 0
	}
	h := d.CheckOut.Timestamp.Sub(d.CheckIn.Timestamp).Hours()
	if h < 0 {
		return 0
	}
	return math.Round(h*10) / 10
}

// GroupByDay buckets records by their local date, oldest day first. The
// earliest check-in and the latest check-out of a day win.
func GroupByDay(records []model.AttendanceRecord, loc *time.Location) []Day {
	byDate := make(map[string]*Day)
	for i := range records {
		rec := &records[i]
		date := rec.Timestamp.In(loc).Format(time.DateOnly)
		d, ok := byDate[date]
		if !ok {
			d = &Day{Date: date}
			byDate[date] = d
		}
		switch rec.Type {
		case model.EventCheckIn:
			if d.CheckIn == nil || rec.Timestamp.Before(d.CheckIn.Timestamp) {
				d.CheckIn = rec
			}
		case model.EventCheckOut:
			if d.CheckOut == nil || rec.Timestamp.After(d.CheckOut.Timestamp) {
				d.CheckOut = rec
			}
		}
	}

	days := make([]Day, 0, len(byDate))
	for _, d := range byDate {
		days = append(days, *d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}

// collect pages through the history, newest first, until it reaches records
// older than since. A zero since reads everything.
func (h *AttendanceHandler) collect(ctx context.Context, since time.Time) ([]model.AttendanceRecord, error) {
	var all []model.AttendanceRecord
	for page := 1; ; page++ {
		hist, err := h.svc.History(ctx, page, historyPageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, hist.Records...)
		if len(hist.Records) == 0 || len(all) >= hist.TotalCount {
			return all, nil
		}
		oldest := hist.Records[len(hist.Records)-1].Timestamp.In(h.loc)
		if !since.IsZero() && oldest.Format(time.DateOnly) < since.Format(time.DateOnly) {
			return all, nil
		}
	}
}

type CalendarQuery struct {
	Year  int
	Month int
	Type  model.EventType
}

// Calendar prints a month grid marking days with a full (✓) or open (•)
// attendance, followed by the day-by-day list.
func (h *AttendanceHandler) Calendar(ctx context.Context, q CalendarQuery) ([]Day, error) {
	if err := h.requireSession(); err != nil {
		return nil, err
	}
	now := h.today()
	if q.Year == 0 {
		q.Year = now.Year()
	}
	if q.Month == 0 {
		q.Month = int(now.Month())
	}
	if q.Month < 1 || q.Month > 12 {
		return nil, &ValidationError{Field: "month", Message: i18n.T(ctx, "validation.month")}
	}
	if q.Type != "" && q.Type != model.EventCheckIn && q.Type != model.EventCheckOut {
		return nil, &ValidationError{Field: "type", Message: i18n.T(ctx, "validation.event_type")}
	}

	first := time.Date(q.Year, time.Month(q.Month), 1, 0, 0, 0, 0, h.loc)
	last := first.AddDate(0, 1, -1)
	recs, err := h.collect(ctx, first)
	if err != nil {
		return nil, err
	}
	recs = FilterRecords(recs, RecordFilter{From: first, To: last, Type: q.Type}, h.loc)
	days := GroupByDay(recs, h.loc)

	h.println(first.Format("January 2006"))
	h.write(MonthGrid(q.Year, time.Month(q.Month), days))
	h.println()

	if len(days) == 0 {
		h.println(i18n.T(ctx, "attendance.empty"))
		return days, nil
	}
	tw := newTable(h.out)
	for _, d := range days {
		in, out := "-", "-"
		if d.CheckIn != nil {
			in = h.clock(d.CheckIn.Timestamp) + " " + service.WorkStatusLabel(ctx, d.CheckIn.WorkStatus)
		}
		if d.CheckOut != nil {
			out = h.clock(d.CheckOut.Timestamp)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Date, in, out, formatHours(d.Hours()))
	}
	return days, tw.Flush()
}

// MonthGrid renders a Monday-first month calendar.
func MonthGrid(year int, month time.Month, days []Day) string {
	marks := make(map[int]string, len(days))
	for _, d := range days {
		t, err := time.Parse(time.DateOnly, d.Date)
		if err != nil || t.Year() != year || t.Month() != month {
			continue
		}
		switch {
		case d.CheckIn != nil && d.CheckOut != nil:
			marks[t.Day()] = "✓"
		default:
			marks[t.Day()] = "•"
		}
	}

	var b strings.Builder
	b.WriteString(" Mo  Tu  We  Th  Fr  Sa  Su\n")
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(first.Weekday()) + 6) % 7
	b.WriteString(strings.Repeat("    ", offset))

	daysIn := first.AddDate(0, 1, -1).Day()
	for day := 1; day <= daysIn; day++ {
		mark := marks[day]
		if mark == "" {
			mark = " "
		}
		fmt.Fprintf(&b, "%3d%s", day, mark)
		if (offset+day)%7 == 0 {
			b.WriteString("\n")
		}
	}
	if (offset+daysIn)%7 != 0 {
		b.WriteString("\n")
	}
	return b.String()
}
