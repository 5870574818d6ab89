// Package gallery holds the in-memory gallery of enrolled face embeddings
// and answers nearest-neighbor match queries against it.
package gallery

import (
	"context"
	"fmt"
	"sync"

	"github.com/kozaktomas/attendance/internal/constants"
	"github.com/kozaktomas/attendance/internal/store"
)

// Match is the result of a gallery lookup.
type Match struct {
	PersonID string
	Name     string
	Distance float64
}

// Gallery is an in-memory index of person embeddings. Small populations are
// scanned linearly; above HNSWMinGallerySize an HNSW graph serves the search.
type Gallery struct {
	mu        sync.RWMutex
	people    map[string]*store.Person
	index     *hnswIndex
	indexPath string
}

// New creates an empty gallery. indexPath optionally persists the HNSW graph.
func New(indexPath string) *Gallery {
	return &Gallery{
		people:    make(map[string]*store.Person),
		indexPath: indexPath,
	}
}

// Load replaces the gallery content with all people from the store that carry
// an embedding. People without embeddings are skipped.
func (g *Gallery) Load(ctx context.Context, people store.PersonReader) error {
	all, err := people.List(ctx)
	if err != nil {
		return fmt.Errorf("loading people: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.people = make(map[string]*store.Person, len(all))
	for i := range all {
		p := &all[i]
		if !p.HasEmbedding() {
			continue
		}
		g.people[p.ID] = p
	}

	if idx := g.loadIndexLocked(); idx != nil {
		g.index = idx
		return nil
	}
	return g.rebuildIndexLocked()
}

// loadIndexLocked restores the persisted HNSW graph when it still matches
// the gallery population. Returns nil when there is no usable saved index,
// in which case the caller rebuilds from scratch. Caller must hold g.mu.
func (g *Gallery) loadIndexLocked() *hnswIndex {
	if g.indexPath == "" || len(g.people) < constants.HNSWMinGallerySize {
		return nil
	}

	idx, err := loadHNSWIndex(g.indexPath)
	if err != nil {
		// Missing or unreadable file, rebuild and overwrite it.
		return nil
	}
	if idx.len() != len(g.people) {
		// People changed since the export, the graph is stale.
		return nil
	}
	return idx
}

// Add inserts or replaces a person in the gallery.
func (g *Gallery) Add(p *store.Person) error {
	if !p.HasEmbedding() {
		return fmt.Errorf("person %s has no embedding", p.ID)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.people[p.ID] = p
	// Replacing an embedding invalidates the graph node, so rebuild.
	return g.rebuildIndexLocked()
}

// Remove deletes a person from the gallery.
func (g *Gallery) Remove(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.people, id)
	return g.rebuildIndexLocked()
}

// Size returns the number of people in the gallery.
func (g *Gallery) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.people)
}

// rebuildIndexLocked rebuilds or drops the HNSW index depending on gallery size.
// Caller must hold g.mu.
func (g *Gallery) rebuildIndexLocked() error {
	if len(g.people) < constants.HNSWMinGallerySize {
		g.index = nil
		return nil
	}

	idx := newHNSWIndex()
	for _, p := range g.people {
		idx.add(p)
	}
	g.index = idx

	if g.indexPath != "" {
		if err := idx.save(g.indexPath); err != nil {
			return fmt.Errorf("saving gallery index: %w", err)
		}
	}
	return nil
}

// Match returns the nearest enrolled person within maxDistance.
// The second return value is false when the gallery is empty or the nearest
// neighbor is farther than maxDistance.
func (g *Gallery) Match(embedding []float32, maxDistance float64) (Match, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if len(g.people) == 0 || len(embedding) == 0 {
		return Match{}, false
	}

	var best *store.Person
	var bestDistance float64

	if g.index != nil {
		id, distance, ok := g.index.nearest(embedding)
		if ok {
			best = g.people[id]
			bestDistance = distance
		}
	}

	if best == nil {
		// Linear scan; with a handful of vectors this beats any index.
		bestDistance = 3 // above the maximum cosine distance of 2
		for _, p := range g.people {
			d := store.CosineDistance(embedding, p.Embedding)
			if d < bestDistance {
				bestDistance = d
				best = p
			}
		}
	}

	if best == nil || bestDistance > maxDistance {
		return Match{}, false
	}

	return Match{PersonID: best.ID, Name: best.Name, Distance: bestDistance}, true
}
