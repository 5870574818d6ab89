package attendance

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kozaktomas/attendance/internal/store"
)

var csvHeader = []string{"Name", "Person ID", "Date", "Time"}

// csvFileName is the running log all sessions append to.
const csvFileName = "attendance.csv"

// CSVLog appends attendance rows to a single running attendance.csv. The
// file mirrors the relational store so a session's log survives without
// database access.
type CSVLog struct {
	dir string
}

// NewCSVLog creates the log directory if needed.
func NewCSVLog(dir string) (*CSVLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create attendance directory: %w", err)
	}
	return &CSVLog{dir: dir}, nil
}

// Path returns the CSV log file location.
func (l *CSVLog) Path() string {
	return filepath.Join(l.dir, csvFileName)
}

// Append writes a single record to the log, creating it with a header row
// on first use.
func (l *CSVLog) Append(record *store.Record) error {
	path := l.Path()

	_, statErr := os.Stat(path)
	writeHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("could not open attendance file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(csvHeader); err != nil {
			return fmt.Errorf("could not write attendance header: %w", err)
		}
	}
	if err := w.Write([]string{record.Name, record.PersonID, record.Day, record.ClockTime}); err != nil {
		return fmt.Errorf("could not write attendance row: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("could not flush attendance file: %w", err)
	}
	return nil
}
