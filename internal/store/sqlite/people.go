package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/attendance/internal/store"
)

// Get retrieves a person by ID, returns nil if not found.
func (s *Store) Get(ctx context.Context, id string) (*store.Person, error) {
	query := `
		SELECT id, name, photo_path, embedding, model, dim, created_at, updated_at
		FROM people
		WHERE id = ?
	`

	var p store.Person
	var blob []byte

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.PhotoPath, &blob, &p.Model, &p.Dim, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query person: %w", err)
	}

	p.Embedding = decodeEmbedding(blob)
	return &p, nil
}

// Has checks if a person exists for the given ID.
func (s *Store) Has(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM people WHERE id = ?)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check person exists: %w", err)
	}
	return exists, nil
}

// List returns all enrolled people ordered by name.
func (s *Store) List(ctx context.Context) ([]store.Person, error) {
	query := `
		SELECT id, name, photo_path, embedding, model, dim, created_at, updated_at
		FROM people
		ORDER BY name, id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query people: %w", err)
	}
	defer rows.Close()

	var people []store.Person
	for rows.Next() {
		var p store.Person
		var blob []byte
		if err := rows.Scan(
			&p.ID, &p.Name, &p.PhotoPath, &blob, &p.Model, &p.Dim, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		p.Embedding = decodeEmbedding(blob)
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate people: %w", err)
	}

	return people, nil
}

// Count returns the total number of enrolled people.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM people").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count people: %w", err)
	}
	return count, nil
}

// Save upserts a person record keyed by ID.
func (s *Store) Save(ctx context.Context, p *store.Person) error {
	query := `
		INSERT INTO people (id, name, photo_path, embedding, model, dim)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			photo_path = excluded.photo_path,
			embedding = excluded.embedding,
			model = excluded.model,
			dim = excluded.dim,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.Name, p.PhotoPath, encodeEmbedding(p.Embedding), p.Model, p.Dim,
	)
	if err != nil {
		return fmt.Errorf("save person: %w", err)
	}
	return nil
}

// Delete removes a person. Attendance records are kept for history.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM people WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	return nil
}
