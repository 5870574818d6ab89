package store

import (
	"time"
)

// Person represents an enrolled person with their reference face embedding
type Person struct {
	ID        string
	Name      string
	PhotoPath string
	Embedding []float32
	Model     string
	Dim       int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasEmbedding reports whether the person carries a usable face embedding.
func (p *Person) HasEmbedding() bool {
	return len(p.Embedding) > 0
}

// Record represents a single attendance record: one person marked present on one day
type Record struct {
	ID        int64     `json:"id"`
	PersonID  string    `json:"person_id"`
	Name      string    `json:"name"` // joined from the people table for display
	Day       string    `json:"day"`  // calendar day, YYYY-MM-DD
	ClockTime string    `json:"time"` // wall clock of the mark, HH:MM:SS
	Distance  float64   `json:"distance"`
	Source    string    `json:"source"` // where the frame came from: camera, folder, web
	CreatedAt time.Time `json:"created_at"`
}

// Summary aggregates attendance per person
type Summary struct {
	PersonID    string `json:"person_id"`
	Name        string `json:"name"`
	DaysPresent int    `json:"days_present"`
	FirstSeen   string `json:"first_seen"` // first recorded day, YYYY-MM-DD
	LastSeen    string `json:"last_seen"`  // last recorded day, YYYY-MM-DD
}

// RecordFilter narrows record listings. Zero values mean no filtering.
type RecordFilter struct {
	Day      string // exact day, YYYY-MM-DD
	PersonID string
}
