// Package export writes attendance records to files on disk.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"geostaff-client/internal/model"
)

const sheetName = "Attendance"

var header = []any{"Date", "Time", "Event", "Work Status", "Latitude", "Longitude", "Accuracy (m)", "Device", "Notes"}

// WriteXLSX renders records, oldest first, as a single-sheet workbook with
// timestamps shown in loc.
func WriteXLSX(w io.Writer, records []model.AttendanceRecord, loc *time.Location) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetRowStyle(sheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, rec := range records {
		ts := rec.Timestamp.In(loc)
		var accuracy any
		if rec.Location.Accuracy != nil {
			accuracy = *rec.Location.Accuracy
		}
		row := []any{
			ts.Format(time.DateOnly),
			ts.Format("15:04:05"),
			string(rec.Type),
			string(rec.WorkStatus),
			rec.Location.Latitude,
			rec.Location.Longitude,
			accuracy,
			rec.DeviceID,
			rec.Notes,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(sheetName, "A", "D", 14); err != nil {
		return fmt.Errorf("size columns: %w", err)
	}
	if err := f.SetColWidth(sheetName, "I", "I", 40); err != nil {
		return fmt.Errorf("size columns: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveXLSX writes the workbook to path, creating parent directories.
func SaveXLSX(path string, records []model.AttendanceRecord, loc *time.Location) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := WriteXLSX(out, records, loc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// SaveDownload stores a server download in dir under the server's filename,
// or fallback when the server proposed none. It returns the written path.
func SaveDownload(dir string, dl *model.Download, fallback string) (string, error) {
	name := sanitize(dl.Filename)
	if name == "" {
		name = sanitize(fallback)
	}
	if name == "" {
		return "", fmt.Errorf("save download: no filename")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, dl.Data, 0o644); err != nil {
		return "", fmt.Errorf("save download: %w", err)
	}
	return path, nil
}

// Filename builds the default name of an export covering start..end.
func Filename(start, end, ext string) string {
	parts := []string{"attendance"}
	if start != "" {
		parts = append(parts, start)
	}
	if end != "" {
		parts = append(parts, end)
	}
	return strings.Join(parts, "_") + "." + ext
}

func sanitize(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
