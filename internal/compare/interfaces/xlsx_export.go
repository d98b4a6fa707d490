package interfaces

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"gridstats/internal/compare/domain/series"
)

// WriteSeriesXLSX writes an entity's raw-series pivot as
// <dir>/<entity-slug>.xlsx with one "series" sheet.
func WriteSeriesXLSX(dir string, entity series.Entity, pivot TimePivot, loc *time.Location, msScale bool) (string, error) {
	f := excelize.NewFile()
	sheet := "series"
	f.SetSheetName("Sheet1", sheet)

	_ = f.SetCellValue(sheet, "A1", "datetime")
	for i, metric := range pivot.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+2, 1)
		_ = f.SetCellValue(sheet, cell, string(metric))
	}
	for rowIdx, ts := range pivot.Timestamps {
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx+2)
		_ = f.SetCellValue(sheet, cell, renderTimestamp(ts, loc, msScale))
		for colIdx, metric := range pivot.Columns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+2, rowIdx+2)
			_ = f.SetCellValue(sheet, cell, pivot.Cells[ts][metric])
		}
	}

	dest := filepath.Join(dir, entity.Slug()+".xlsx")
	if err := f.SaveAs(dest); err != nil {
		return "", fmt.Errorf("report: save %s: %w", dest, err)
	}
	return dest, nil
}

// WriteStatisticsXLSX writes one indicator workbook per entity,
// <dir>/<entity-slug>_indicators.xlsx, sheet "indicators", a leading date
// column and one column per statistic. Missing cells keep the empty-string
// sentinel. Returns the written paths.
func WriteStatisticsXLSX(dir string, table StatTable) ([]string, error) {
	byEntity := make(map[series.Entity][]StatRow)
	var order []series.Entity
	for _, row := range table.Rows {
		if _, seen := byEntity[row.Entity]; !seen {
			order = append(order, row.Entity)
		}
		byEntity[row.Entity] = append(byEntity[row.Entity], row)
	}

	var written []string
	for _, entity := range order {
		f := excelize.NewFile()
		sheet := "indicators"
		f.SetSheetName("Sheet1", sheet)

		_ = f.SetCellValue(sheet, "A1", "date")
		for i, col := range table.Columns {
			cell, _ := excelize.CoordinatesToCellName(i+2, 1)
			_ = f.SetCellValue(sheet, cell, col)
		}
		for rowIdx, row := range byEntity[entity] {
			cell, _ := excelize.CoordinatesToCellName(1, rowIdx+2)
			_ = f.SetCellValue(sheet, cell, string(row.Day))
			for colIdx, col := range table.Columns {
				cell, _ := excelize.CoordinatesToCellName(colIdx+2, rowIdx+2)
				_ = f.SetCellValue(sheet, cell, row.Cells[col])
			}
		}

		dest := filepath.Join(dir, entity.Slug()+"_indicators.xlsx")
		if err := f.SaveAs(dest); err != nil {
			return written, fmt.Errorf("report: save %s: %w", dest, err)
		}
		written = append(written, dest)
	}
	return written, nil
}
