// Package export writes gradebook reports as Excel workbooks.
package export

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/mmynk/gradebook/internal/calculator"
	"github.com/mmynk/gradebook/internal/models"
)

// Sheet names in the generated workbook.
const (
	SheetStudents = "Students"
	SheetClasses  = "Classes"
	SheetSummary  = "Summary"
)

// Report is everything a workbook shows.
type Report struct {
	Students   []*models.Student
	Subjects   []string
	Thresholds models.Thresholds
	School     calculator.SchoolStatistics
	Classes    []*calculator.ClassStatistics
}

// WriteXLSX renders rep as a workbook with Students, Classes and Summary sheets.
func WriteXLSX(w io.Writer, rep Report) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("Failed to close workbook", "error", err)
		}
	}()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetStudents); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := writeStudents(f, rep, header); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetClasses); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", SheetClasses, err)
	}
	if err := writeClasses(f, rep, header); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", SheetSummary, err)
	}
	if err := writeSummary(f, rep, header); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeStudents(f *excelize.File, rep Report, header int) error {
	cols := []interface{}{"ID", "Name", "Class"}
	for _, subject := range rep.Subjects {
		cols = append(cols, subject)
	}
	cols = append(cols, "Average", "Status")
	if err := writeRow(f, SheetStudents, 1, cols); err != nil {
		return err
	}
	if err := f.SetRowStyle(SheetStudents, 1, 1, header); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, s := range rep.Students {
		row := []interface{}{s.ID(), s.Name(), s.Class()}
		for _, subject := range rep.Subjects {
			if score, ok := s.Grade(subject); ok {
				row = append(row, score)
			} else {
				row = append(row, "")
			}
		}
		row = append(row, round2(s.Average()), string(s.Status(rep.Thresholds)))
		if err := writeRow(f, SheetStudents, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeClasses(f *excelize.File, rep Report, header int) error {
	cols := []interface{}{"Class", "Students", "Average", "Passed", "Failed", "Pass Rate (%)", "Highest", "Lowest"}
	if err := writeRow(f, SheetClasses, 1, cols); err != nil {
		return err
	}
	if err := f.SetRowStyle(SheetClasses, 1, 1, header); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, c := range rep.Classes {
		row := []interface{}{
			c.ClassName,
			c.TotalStudents,
			round2(c.ClassAverage),
			c.PassedStudents,
			c.FailedStudents,
			round2(c.PassRate),
			round2(c.HighestAverage),
			round2(c.LowestAverage),
		}
		if err := writeRow(f, SheetClasses, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeSummary(f *excelize.File, rep Report, header int) error {
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Total Students", rep.School.TotalStudents},
		{"Total Classes", rep.School.TotalClasses},
		{"School Average", round2(rep.School.SchoolAverage)},
		{"Passed", rep.School.PassedStudents},
		{"Failed", rep.School.FailedStudents},
		{"Pass Rate (%)", round2(rep.School.PassRate)},
		{"Passing Grade", rep.Thresholds.Passing},
		{"Minimum Grade", rep.Thresholds.MinFail},
	}
	for i, row := range rows {
		if err := writeRow(f, SheetSummary, i+1, row); err != nil {
			return err
		}
	}
	if err := f.SetRowStyle(SheetSummary, 1, 1, header); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to resolve cell: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
