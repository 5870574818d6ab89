package postgres

import (
	"context"
	"fmt"

	"github.com/kozaktomas/attendance/internal/constants"
)

// Migrate creates the required schema. Safe to run repeatedly.
func (p *Pool) Migrate(ctx context.Context) error {
	if _, err := p.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createPeople := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS people (
			id           VARCHAR(255) PRIMARY KEY,
			name         VARCHAR(255) NOT NULL,
			photo_path   VARCHAR(1024) NOT NULL,
			embedding    vector(%d),
			model        VARCHAR(255) NOT NULL,
			dim          INTEGER NOT NULL DEFAULT %d,
			created_at   TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at   TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`, constants.EmbeddingDim, constants.EmbeddingDim)

	if _, err := p.Exec(ctx, createPeople); err != nil {
		return fmt.Errorf("failed to create people table: %w", err)
	}

	createRecords := `
		CREATE TABLE IF NOT EXISTS attendance (
			id           BIGSERIAL PRIMARY KEY,
			person_id    VARCHAR(255) NOT NULL,
			day          DATE NOT NULL,
			clock_time   TIME NOT NULL,
			distance     DOUBLE PRECISION NOT NULL DEFAULT 0,
			source       VARCHAR(64) NOT NULL DEFAULT '',
			created_at   TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			UNIQUE(person_id, day)
		)
	`

	if _, err := p.Exec(ctx, createRecords); err != nil {
		return fmt.Errorf("failed to create attendance table: %w", err)
	}

	if _, err := p.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS attendance_day_idx ON attendance(day)
	`); err != nil {
		return fmt.Errorf("failed to create attendance day index: %w", err)
	}

	if _, err := p.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS attendance_person_idx ON attendance(person_id)
	`); err != nil {
		return fmt.Errorf("failed to create attendance person index: %w", err)
	}

	return nil
}

// CreateVectorIndex creates the IVFFlat index for embedding similarity search.
// This should be called after the table has some data for optimal performance.
func (p *Pool) CreateVectorIndex(ctx context.Context) error {
	_, err := p.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS people_embedding_idx
		ON people USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)
	`)
	if err != nil {
		return fmt.Errorf("failed to create vector index: %w", err)
	}
	return nil
}
