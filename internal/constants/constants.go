// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Face matching constants
const (
	// EmbeddingDim is the fixed dimension for face embeddings (128 for facenet128 dlib models)
	EmbeddingDim = 128

	// DefaultMatchThreshold is the default maximum cosine distance for a face match
	// Lower values = stricter matching
	DefaultMatchThreshold = 0.5

	// HNSWMinGallerySize is the gallery population above which the HNSW index
	// is used instead of a linear scan
	HNSWMinGallerySize = 64

	// HNSWMaxNeighbors is the M parameter of the HNSW graph
	HNSWMaxNeighbors = 16
)

// Capture constants
const (
	// DefaultFrameInterval is the default milliseconds between processed frames
	DefaultFrameIntervalMs = 500

	// MaxFrameBytes is the maximum accepted size of a single camera frame
	MaxFrameBytes = 16 << 20
)

// Enrollment constants
const (
	// DefaultEnrollWorkers is the number of parallel workers for bulk enrollment
	DefaultEnrollWorkers = 4
)

// Date and time layouts used in storage and CSV output
const (
	DayLayout  = "2006-01-02"
	TimeLayout = "15:04:05"
)
