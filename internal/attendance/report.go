package attendance

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/kozaktomas/attendance/internal/store"
)

// WriteReport streams the records matching the filter as CSV.
func WriteReport(ctx context.Context, w io.Writer, records store.RecordReader, filter store.RecordFilter) (int, error) {
	rows, err := records.ListRecords(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("could not list attendance records: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("could not write report header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.Name, r.PersonID, r.Day, r.ClockTime}); err != nil {
			return 0, fmt.Errorf("could not write report row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("could not flush report: %w", err)
	}
	return len(rows), nil
}

// ExportReport writes a timestamped report file into dir and returns its path.
func ExportReport(ctx context.Context, dir string, records store.RecordReader, filter store.RecordFilter) (string, int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("could not create report directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("attendance_report_%s.csv", time.Now().Format("20060102_150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("could not create report file: %w", err)
	}
	defer f.Close()

	count, err := WriteReport(ctx, f, records, filter)
	if err != nil {
		return "", 0, err
	}
	return path, count, nil
}
