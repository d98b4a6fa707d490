package interfaces

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gridstats/internal/compare/domain/series"
)

// WriteSeriesCSV writes an entity's raw-series pivot as
// <dir>/<entity-slug>.csv, semicolon-separated, timestamps rendered as
// local datetimes. msScale marks millisecond-keyed series.
func WriteSeriesCSV(dir string, entity series.Entity, pivot TimePivot, loc *time.Location, msScale bool) (string, error) {
	dest := filepath.Join(dir, entity.Slug()+".csv")
	file, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("report: create %s: %w", dest, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	w.Comma = ';'
	header := make([]string, 0, len(pivot.Columns)+1)
	header = append(header, "datetime")
	for _, metric := range pivot.Columns {
		header = append(header, string(metric))
	}
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, ts := range pivot.Timestamps {
		record := make([]string, 0, len(header))
		record = append(record, renderTimestamp(ts, loc, msScale))
		for _, metric := range pivot.Columns {
			record = append(record, renderCell(pivot.Cells[ts][metric]))
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	return dest, w.Error()
}

// WriteStatisticsCSV writes one indicator CSV per entity,
// <dir>/<entity-slug>_indicators.csv, comma-separated with a leading date
// column. Returns the written paths.
func WriteStatisticsCSV(dir string, table StatTable) ([]string, error) {
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
		dest := filepath.Join(dir, entity.Slug()+"_indicators.csv")
		file, err := os.Create(dest)
		if err != nil {
			return written, fmt.Errorf("report: create %s: %w", dest, err)
		}
		w := csv.NewWriter(file)
		header := append([]string{"date"}, table.Columns...)
		if err := w.Write(header); err != nil {
			file.Close()
			return written, err
		}
		for _, row := range byEntity[entity] {
			record := make([]string, 0, len(header))
			record = append(record, string(row.Day))
			for _, col := range table.Columns {
				record = append(record, renderCell(row.Cells[col]))
			}
			if err := w.Write(record); err != nil {
				file.Close()
				return written, err
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			file.Close()
			return written, err
		}
		if err := file.Close(); err != nil {
			return written, err
		}
		written = append(written, dest)
	}
	return written, nil
}

func renderCell(cell any) string {
	switch v := cell.(type) {
	case nil:
		return MissingCell
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func renderTimestamp(ts int64, loc *time.Location, msScale bool) string {
	var t time.Time
	if msScale {
		t = time.UnixMilli(ts)
	} else {
		t = time.Unix(ts, 0)
	}
	return t.In(loc).Format("2006-01-02T15:04:05")
}
