package httpapi

import (
	"bytes"
	"fmt"

	"seat-monitor/internal/models"

	"github.com/xuri/excelize/v2"
)

// AggregateExportHeader export columns
var AggregateExportHeader = []string{
	"Window Start (UTC)",
	"Average Pressure",
	"Samples",
}

const aggregateSheet = "Aggregates"

// GenerateAggregateExport renders aggregate history as an .xlsx workbook.
// An empty history yields a header-only sheet.
func GenerateAggregateExport(records []models.AggregateRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(aggregateSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range AggregateExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(aggregateSheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(aggregateSheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}
	if err := f.SetColWidth(aggregateSheet, "A", "A", 26); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}
	if err := f.SetColWidth(aggregateSheet, "B", "C", 18); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	for i, rec := range records {
		row := i + 2
		values := []any{
			rec.Time.UTC().Format("2006-01-02 15:04:05"),
			rec.Avg,
			rec.Samples,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(aggregateSheet, cell, v); err != nil {
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
