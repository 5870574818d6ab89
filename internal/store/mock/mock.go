// Package mock provides an in-memory implementation of the store interfaces
// for testing.
package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kozaktomas/attendance/internal/store"
)

// Store is an in-memory store.Store implementation with error injection.
type Store struct {
	mu      sync.RWMutex
	people  map[string]*store.Person
	records []store.Record
	nextID  int64

	// Error injection
	GetError     error
	ListError    error
	SaveError    error
	DeleteError  error
	MarkError    error
	RecordsError error
}

// NewStore creates a new empty mock store.
func NewStore() *Store {
	return &Store{
		people: make(map[string]*store.Person),
		nextID: 1,
	}
}

// AddPerson seeds the store with a person without going through Save.
func (m *Store) AddPerson(p store.Person) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.people[p.ID] = &p
}

// Get retrieves a person by ID.
func (m *Store) Get(ctx context.Context, id string) (*store.Person, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.people[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

// Has checks if a person exists.
func (m *Store) Has(ctx context.Context, id string) (bool, error) {
	if m.GetError != nil {
		return false, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.people[id]
	return ok, nil
}

// List returns all people ordered by name.
func (m *Store) List(ctx context.Context) ([]store.Person, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	people := make([]store.Person, 0, len(m.people))
	for _, p := range m.people {
		people = append(people, *p)
	}
	sort.Slice(people, func(i, j int) bool {
		if people[i].Name != people[j].Name {
			return people[i].Name < people[j].Name
		}
		return people[i].ID < people[j].ID
	})
	return people, nil
}

// Count returns the number of people.
func (m *Store) Count(ctx context.Context) (int, error) {
	if m.ListError != nil {
		return 0, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.people), nil
}

// Save upserts a person.
func (m *Store) Save(ctx context.Context, p *store.Person) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	now := time.Now()
	if existing, ok := m.people[p.ID]; ok {
		cp.CreatedAt = existing.CreatedAt
	} else {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	m.people[p.ID] = &cp
	return nil
}

// Delete removes a person.
func (m *Store) Delete(ctx context.Context, id string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.people, id)
	return nil
}

// Mark inserts an attendance record unless the person is already marked that day.
func (m *Store) Mark(ctx context.Context, rec *store.Record) (bool, error) {
	if m.MarkError != nil {
		return false, m.MarkError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.records {
		if existing.PersonID == rec.PersonID && existing.Day == rec.Day {
			return false, nil
		}
	}
	cp := *rec
	cp.ID = m.nextID
	m.nextID++
	cp.CreatedAt = time.Now()
	if p, ok := m.people[rec.PersonID]; ok {
		cp.Name = p.Name
	}
	m.records = append(m.records, cp)
	rec.ID = cp.ID
	return true, nil
}

// ListRecords returns records matching the filter, newest first.
func (m *Store) ListRecords(ctx context.Context, filter store.RecordFilter) ([]store.Record, error) {
	if m.RecordsError != nil {
		return nil, m.RecordsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var records []store.Record
	for _, rec := range m.records {
		if filter.Day != "" && rec.Day != filter.Day {
			continue
		}
		if filter.PersonID != "" && rec.PersonID != filter.PersonID {
			continue
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Day != records[j].Day {
			return records[i].Day > records[j].Day
		}
		return records[i].ClockTime > records[j].ClockTime
	})
	return records, nil
}

// MarkedOn returns the set of person IDs marked on the given day.
func (m *Store) MarkedOn(ctx context.Context, day string) (map[string]struct{}, error) {
	if m.RecordsError != nil {
		return nil, m.RecordsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	marked := make(map[string]struct{})
	for _, rec := range m.records {
		if rec.Day == day {
			marked[rec.PersonID] = struct{}{}
		}
	}
	return marked, nil
}

// CountRecords returns the total number of records.
func (m *Store) CountRecords(ctx context.Context) (int, error) {
	if m.RecordsError != nil {
		return 0, m.RecordsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

// Summaries returns per-person aggregates ordered by name.
func (m *Store) Summaries(ctx context.Context) ([]store.Summary, error) {
	if m.RecordsError != nil {
		return nil, m.RecordsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	byPerson := make(map[string]*store.Summary)
	for _, rec := range m.records {
		s, ok := byPerson[rec.PersonID]
		if !ok {
			name := ""
			if p, exists := m.people[rec.PersonID]; exists {
				name = p.Name
			}
			s = &store.Summary{PersonID: rec.PersonID, Name: name, FirstSeen: rec.Day, LastSeen: rec.Day}
			byPerson[rec.PersonID] = s
		}
		s.DaysPresent++
		if rec.Day < s.FirstSeen {
			s.FirstSeen = rec.Day
		}
		if rec.Day > s.LastSeen {
			s.LastSeen = rec.Day
		}
	}
	summaries := make([]store.Summary, 0, len(byPerson))
	for _, s := range byPerson {
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Name != summaries[j].Name {
			return summaries[i].Name < summaries[j].Name
		}
		return summaries[i].PersonID < summaries[j].PersonID
	})
	return summaries, nil
}

// Close is a no-op for the mock store.
func (m *Store) Close() error {
	return nil
}
