package handler

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"geostaff-client/internal/model"
	"geostaff-client/internal/service"
)

var ansi = map[string]string{
	service.ColorYellow: "\033[33m",
	service.ColorGreen:  "\033[32m",
	service.ColorRed:    "\033[31m",
	service.ColorGray:   "\033[90m",
}

const ansiReset = "\033[0m"

// paint wraps text in the ANSI sequence for color when colors are enabled.
func (s *shell) paint(color, text string) string {
	code, ok := ansi[color]
	if !s.color || !ok {
		return text
	}
	return code + text + ansiReset
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func (s *shell) clock(t time.Time) string {
	return t.In(s.loc).Format("15:04")
}

func (s *shell) date(t time.Time) string {
	return t.In(s.loc).Format("Mon 02 Jan 2006")
}

func formatHours(h float64) string {
	return fmt.Sprintf("%.1f h", h)
}

func formatLocation(l model.Location) string {
	out := fmt.Sprintf("%.5f, %.5f", l.Latitude, l.Longitude)
	if l.Accuracy != nil {
		out += fmt.Sprintf(" (±%.0f m)", *l.Accuracy)
	}
	if l.Address != "" {
		out += " " + l.Address
	}
	return out
}
