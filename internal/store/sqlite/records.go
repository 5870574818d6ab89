package sqlite

import (
	"context"
	"fmt"

	"github.com/kozaktomas/attendance/internal/store"
)

// Mark inserts an attendance record. INSERT OR IGNORE plus the
// UNIQUE(person_id, day) constraint implements the one-mark-per-day rule;
// the returned bool reports whether a row was actually written.
func (s *Store) Mark(ctx context.Context, rec *store.Record) (bool, error) {
	query := `
		INSERT OR IGNORE INTO attendance (person_id, day, clock_time, distance, source)
		VALUES (?, ?, ?, ?, ?)
	`

	res, err := s.db.ExecContext(ctx, query, rec.PersonID, rec.Day, rec.ClockTime, rec.Distance, rec.Source)
	if err != nil {
		return false, fmt.Errorf("mark attendance: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark attendance rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	if id, err := res.LastInsertId(); err == nil {
		rec.ID = id
	}
	return true, nil
}

// ListRecords returns records matching the filter, newest first.
func (s *Store) ListRecords(ctx context.Context, filter store.RecordFilter) ([]store.Record, error) {
	query := `
		SELECT a.id, a.person_id, COALESCE(p.name, ''), a.day, a.clock_time,
		       a.distance, a.source, a.created_at
		FROM attendance a
		LEFT JOIN people p ON a.person_id = p.id
	`

	var args []any
	switch {
	case filter.Day != "" && filter.PersonID != "":
		query += " WHERE a.day = ? AND a.person_id = ?"
		args = append(args, filter.Day, filter.PersonID)
	case filter.Day != "":
		query += " WHERE a.day = ?"
		args = append(args, filter.Day)
	case filter.PersonID != "":
		query += " WHERE a.person_id = ?"
		args = append(args, filter.PersonID)
	}
	query += " ORDER BY a.day DESC, a.clock_time DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []store.Record
	for rows.Next() {
		var rec store.Record
		if err := rows.Scan(
			&rec.ID, &rec.PersonID, &rec.Name, &rec.Day, &rec.ClockTime,
			&rec.Distance, &rec.Source, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	return records, nil
}

// MarkedOn returns the set of person IDs already marked on the given day.
func (s *Store) MarkedOn(ctx context.Context, day string) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT person_id FROM attendance WHERE day = ?", day)
	if err != nil {
		return nil, fmt.Errorf("query marked people: %w", err)
	}
	defer rows.Close()

	marked := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan person id: %w", err)
		}
		marked[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate marked people: %w", err)
	}

	return marked, nil
}

// CountRecords returns the total number of attendance records.
func (s *Store) CountRecords(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM attendance").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

// Summaries returns per-person attendance aggregates ordered by name.
func (s *Store) Summaries(ctx context.Context) ([]store.Summary, error) {
	query := `
		SELECT a.person_id, COALESCE(p.name, ''), COUNT(*),
		       MIN(a.day), MAX(a.day)
		FROM attendance a
		LEFT JOIN people p ON a.person_id = p.id
		GROUP BY a.person_id, p.name
		ORDER BY p.name, a.person_id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	var summaries []store.Summary
	for rows.Next() {
		var sum store.Summary
		if err := rows.Scan(&sum.PersonID, &sum.Name, &sum.DaysPresent, &sum.FirstSeen, &sum.LastSeen); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}

	return summaries, nil
}
