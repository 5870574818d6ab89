package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/attendance/internal/store"
)

// RecordRepository provides PostgreSQL-backed storage for attendance records.
type RecordRepository struct {
	pool *Pool
}

// NewRecordRepository creates a new PostgreSQL record repository.
func NewRecordRepository(pool *Pool) *RecordRepository {
	return &RecordRepository{pool: pool}
}

// Mark inserts an attendance record. The UNIQUE(person_id, day) constraint
// makes the insert a no-op when the person is already marked for that day;
// the returned bool reports whether a row was actually written.
func (r *RecordRepository) Mark(ctx context.Context, rec *store.Record) (bool, error) {
	query := `
		INSERT INTO attendance (person_id, day, clock_time, distance, source)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (person_id, day) DO NOTHING
		RETURNING id
	`

	var id int64
	err := r.pool.QueryRow(ctx, query, rec.PersonID, rec.Day, rec.ClockTime, rec.Distance, rec.Source).Scan(&id)
	// No row returned means the conflict clause swallowed the insert.
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("mark attendance: %w", err)
	}

	rec.ID = id
	return true, nil
}

// ListRecords returns records matching the filter, newest first.
func (r *RecordRepository) ListRecords(ctx context.Context, filter store.RecordFilter) ([]store.Record, error) {
	query := `
		SELECT a.id, a.person_id, COALESCE(p.name, ''), a.day::text, a.clock_time::text,
		       a.distance, a.source, a.created_at
		FROM attendance a
		LEFT JOIN people p ON a.person_id = p.id
	`

	var args []any
	switch {
	case filter.Day != "" && filter.PersonID != "":
		query += " WHERE a.day = $1 AND a.person_id = $2"
		args = append(args, filter.Day, filter.PersonID)
	case filter.Day != "":
		query += " WHERE a.day = $1"
		args = append(args, filter.Day)
	case filter.PersonID != "":
		query += " WHERE a.person_id = $1"
		args = append(args, filter.PersonID)
	}
	query += " ORDER BY a.day DESC, a.clock_time DESC"

	rows, err := r.pool.Query(ctx, query, args...)
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
func (r *RecordRepository) MarkedOn(ctx context.Context, day string) (map[string]struct{}, error) {
	rows, err := r.pool.Query(ctx, "SELECT DISTINCT person_id FROM attendance WHERE day = $1", day)
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
func (r *RecordRepository) CountRecords(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM attendance").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

// Summaries returns per-person attendance aggregates ordered by name.
func (r *RecordRepository) Summaries(ctx context.Context) ([]store.Summary, error) {
	query := `
		SELECT a.person_id, COALESCE(p.name, ''), COUNT(*),
		       MIN(a.day)::text, MAX(a.day)::text
		FROM attendance a
		LEFT JOIN people p ON a.person_id = p.id
		GROUP BY a.person_id, p.name
		ORDER BY p.name, a.person_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	var summaries []store.Summary
	for rows.Next() {
		var s store.Summary
		if err := rows.Scan(&s.PersonID, &s.Name, &s.DaysPresent, &s.FirstSeen, &s.LastSeen); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}

	return summaries, nil
}
