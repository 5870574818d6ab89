package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/attendance/internal/store"
	"github.com/pgvector/pgvector-go"
)

// PersonRepository provides PostgreSQL-backed storage for enrolled people.
type PersonRepository struct {
	pool *Pool
}

// NewPersonRepository creates a new PostgreSQL person repository.
func NewPersonRepository(pool *Pool) *PersonRepository {
	return &PersonRepository{pool: pool}
}

// Get retrieves a person by ID, returns nil if not found.
func (r *PersonRepository) Get(ctx context.Context, id string) (*store.Person, error) {
	query := `
		SELECT id, name, photo_path, embedding, model, dim, created_at, updated_at
		FROM people
		WHERE id = $1
	`

	var p store.Person
	var vec pgvector.Vector

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.PhotoPath,
		&vec,
		&p.Model,
		&p.Dim,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query person: %w", err)
	}

	p.Embedding = vec.Slice()
	return &p, nil
}

// Has checks if a person exists for the given ID.
func (r *PersonRepository) Has(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM people WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check person exists: %w", err)
	}
	return exists, nil
}

// List returns all enrolled people ordered by name.
func (r *PersonRepository) List(ctx context.Context) ([]store.Person, error) {
	query := `
		SELECT id, name, photo_path, embedding, model, dim, created_at, updated_at
		FROM people
		ORDER BY name, id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query people: %w", err)
	}
	defer rows.Close()

	var people []store.Person
	for rows.Next() {
		var p store.Person
		var vec pgvector.Vector
		if err := rows.Scan(
			&p.ID, &p.Name, &p.PhotoPath, &vec, &p.Model, &p.Dim, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		p.Embedding = vec.Slice()
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate people: %w", err)
	}

	return people, nil
}

// Count returns the total number of enrolled people.
func (r *PersonRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM people").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count people: %w", err)
	}
	return count, nil
}

// Save upserts a person record keyed by ID.
func (r *PersonRepository) Save(ctx context.Context, p *store.Person) error {
	query := `
		INSERT INTO people (id, name, photo_path, embedding, model, dim)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			photo_path = EXCLUDED.photo_path,
			embedding = EXCLUDED.embedding,
			model = EXCLUDED.model,
			dim = EXCLUDED.dim,
			updated_at = NOW()
	`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.Name, p.PhotoPath, pgvector.NewVector(p.Embedding), p.Model, p.Dim,
	)
	if err != nil {
		return fmt.Errorf("save person: %w", err)
	}
	return nil
}

// Delete removes a person. Attendance records are kept for history.
func (r *PersonRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM people WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	return nil
}
