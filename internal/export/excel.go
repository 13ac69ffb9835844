// Package export renders the availability window as an Excel workbook for
// staff.
package export

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"petalz/internal/calendar"
	"petalz/internal/config"
	"petalz/internal/handoff"
)

const summarySheet = "Summary"

// sheetWriter appends rows to one sheet.
type sheetWriter struct {
	file  *excelize.File
	sheet string
	row   int
}

// Workbook is an availability export under construction.
type Workbook struct {
	file   *excelize.File
	sheets int
}

// NewWorkbook starts an empty export.
func NewWorkbook() *Workbook {
	return &Workbook{file: excelize.NewFile()}
}

// maxSheetName is Excel's sheet name limit in characters.
const maxSheetName = 31

func sheetName(name string) string {
	runes := []rune(name)
	if len(runes) > maxSheetName {
		return string(runes[:maxSheetName])
	}
	return name
}

func (w *Workbook) addSheet(name string) (*sheetWriter, error) {
	name = sheetName(name)
	if w.sheets == 0 {
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return nil, err
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return nil, fmt.Errorf("create sheet %s: %w", name, err)
	}
	w.sheets++
	return &sheetWriter{file: w.file, sheet: name, row: 1}, nil
}

func (s *sheetWriter) header(columns ...string) error {
	row := make([]any, len(columns))
	for i, c := range columns {
		row[i] = c
	}
	if err := s.write(row...); err != nil {
		return err
	}
	style, err := s.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		start, _ := excelize.CoordinatesToCellName(1, 1)
		end, _ := excelize.CoordinatesToCellName(len(columns), 1)
		_ = s.file.SetCellStyle(s.sheet, start, end, style)
	}
	return nil
}

func (s *sheetWriter) write(values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, s.row)
	if err != nil {
		return err
	}
	if err := s.file.SetSheetRow(s.sheet, cell, &values); err != nil {
		return err
	}
	s.row++
	return nil
}

// RoomAvailability is one room's fetched set.
type RoomAvailability struct {
	Room  config.RoomConfig
	Avail calendar.Set
}

// Collect fetches availability for every room from src.
func Collect(ctx context.Context, src calendar.Source, rooms []config.RoomConfig) ([]RoomAvailability, error) {
	out := make([]RoomAvailability, 0, len(rooms))
	for _, room := range rooms {
		set, err := src.Fetch(ctx, room.ID)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", room.ID, err)
		}
		out = append(out, RoomAvailability{Room: room, Avail: set})
	}
	return out, nil
}

// AddAvailability writes a summary sheet plus one sheet per room covering
// from..from+days-1.
func (w *Workbook) AddAvailability(rooms []RoomAvailability, from calendar.Date, days int) error {
	summary, err := w.addSheet(summarySheet)
	if err != nil {
		return err
	}
	if err := summary.header("Room", "Name", "Nightly Rate", "Available", "Booked"); err != nil {
		return err
	}

	for _, ra := range rooms {
		sheet, err := w.addSheet(ra.Room.ID)
		if err != nil {
			return err
		}
		if err := sheet.header("Date", "Weekday", "Status"); err != nil {
			return err
		}
		available := 0
		for i := 0; i < days; i++ {
			d := from.AddDays(i)
			status := calendar.StatusBooked
			if ra.Avail.Contains(d) {
				status = calendar.StatusAvailable
				available++
			}
			if err := sheet.write(d.String(), d.Weekday().String(), string(status)); err != nil {
				return err
			}
		}
		if err := summary.write(ra.Room.ID, ra.Room.Name, handoff.FormatNaira(ra.Room.Rate()), available, days-available); err != nil {
			return err
		}
	}
	return nil
}

// Write serialises the workbook.
func (w *Workbook) Write(out io.Writer) error {
	return w.file.Write(out)
}

// Close releases resources.
func (w *Workbook) Close() error {
	return w.file.Close()
}
