package store

import (
	"context"
)

// PersonReader provides read-only access to enrolled people
type PersonReader interface {
	// Get retrieves a person by ID, returns nil if not found
	Get(ctx context.Context, id string) (*Person, error)
	// Has checks if a person exists for the given ID
	Has(ctx context.Context, id string) (bool, error)
	// List returns all enrolled people ordered by name
	List(ctx context.Context) ([]Person, error)
	// Count returns the total number of enrolled people
	Count(ctx context.Context) (int, error)
}

// PersonWriter provides write access to enrolled people
type PersonWriter interface {
	PersonReader

	// Save upserts a person record keyed by ID
	Save(ctx context.Context, p *Person) error
	// Delete removes a person. Attendance records are kept for history.
	Delete(ctx context.Context, id string) error
}

// RecordReader provides read-only access to attendance records
type RecordReader interface {
	// ListRecords returns records matching the filter, newest first
	ListRecords(ctx context.Context, filter RecordFilter) ([]Record, error)
	// MarkedOn returns the set of person IDs already marked on the given day
	MarkedOn(ctx context.Context, day string) (map[string]struct{}, error)
	// CountRecords returns the total number of attendance records
	CountRecords(ctx context.Context) (int, error)
	// Summaries returns per-person attendance aggregates ordered by name
	Summaries(ctx context.Context) ([]Summary, error)
}

// RecordWriter provides write access to attendance records
type RecordWriter interface {
	RecordReader

	// Mark inserts an attendance record. Returns false without error when the
	// person is already marked for that day.
	Mark(ctx context.Context, rec *Record) (bool, error)
}

// Store combines all repository interfaces implemented by a storage backend
type Store interface {
	PersonWriter
	RecordWriter

	// Close releases the backend's resources
	Close() error
}
