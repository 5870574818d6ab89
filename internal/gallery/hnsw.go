package gallery

import (
	"fmt"
	"os"

	"github.com/coder/hnsw"
	"github.com/kozaktomas/attendance/internal/constants"
	"github.com/kozaktomas/attendance/internal/store"
)

// hnswIndex wraps the HNSW graph keyed by person ID.
type hnswIndex struct {
	graph *hnsw.Graph[string]
}

// loadHNSWIndex restores a previously exported graph from disk.
func loadHNSWIndex(path string) (*hnswIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g := hnsw.NewGraph[string]()
	if err := g.Import(f); err != nil {
		return nil, fmt.Errorf("importing HNSW graph: %w", err)
	}
	return &hnswIndex{graph: g}, nil
}

func newHNSWIndex() *hnswIndex {
	g := hnsw.NewGraph[string]()
	g.M = constants.HNSWMaxNeighbors
	g.Ml = 1.0 / float64(constants.HNSWMaxNeighbors) // Standard HNSW formula
	g.Distance = hnsw.CosineDistance
	return &hnswIndex{graph: g}
}

// len returns the number of nodes in the graph.
func (h *hnswIndex) len() int {
	return h.graph.Len()
}

func (h *hnswIndex) add(p *store.Person) {
	if !p.HasEmbedding() {
		return
	}
	h.graph.Add(hnsw.MakeNode(p.ID, p.Embedding))
}

// nearest returns the closest person ID with an exact cosine distance.
func (h *hnswIndex) nearest(query []float32) (string, float64, bool) {
	neighbors := h.graph.Search(query, 1)
	if len(neighbors) == 0 {
		return "", 0, false
	}

	n := neighbors[0]
	// Compute the actual cosine distance from the node's embedding; the graph
	// only guarantees approximate ordering.
	return n.Key, store.CosineDistance(query, n.Value), true
}

// save exports the graph to disk for loadHNSWIndex to restore on a later
// startup.
func (h *hnswIndex) save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create index file: %w", err)
	}
	defer f.Close()

	if err := h.graph.Export(f); err != nil {
		return fmt.Errorf("exporting HNSW graph: %w", err)
	}
	return nil
}
