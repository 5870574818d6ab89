// Package engine delegates face detection and embedding generation to an
// external face engine reachable over HTTP. The repository never computes
// embeddings itself.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/attendance/internal/config"
)

// Face is a single detected face with its embedding.
type Face struct {
	BBox      [4]float64 // [x1, y1, x2, y2] in pixel coordinates
	DetScore  float64    // detection confidence, 0..1
	Embedding []float32
}

// Provider defines the interface for face engine backends.
type Provider interface {
	Name() string
	// DetectFaces returns all faces found in the image, with embeddings.
	DetectFaces(ctx context.Context, imageData []byte) ([]Face, error)
}

// ErrNoFace is returned by DetectSingleFace when the image contains no face.
var ErrNoFace = errors.New("no face detected in image")

// ErrMultipleFaces is returned by DetectSingleFace when the image contains
// more than one face.
var ErrMultipleFaces = errors.New("multiple faces detected in image")

// NewProvider creates the face engine provider selected by the config.
func NewProvider(cfg *config.EngineConfig) (Provider, error) {
	switch cfg.Provider {
	case "", "faceserv":
		return NewFaceservProvider(cfg.URL, cfg.Model)
	case "compreface":
		return NewComprefaceProvider(cfg.URL, cfg.APIKey)
	default:
		return nil, fmt.Errorf("unknown face engine provider %q (supported: faceserv, compreface)", cfg.Provider)
	}
}

// DetectSingleFace runs detection and requires exactly one face, as needed
// for enrollment photos.
func DetectSingleFace(ctx context.Context, p Provider, imageData []byte) (*Face, error) {
	faces, err := p.DetectFaces(ctx, imageData)
	if err != nil {
		return nil, err
	}
	switch len(faces) {
	case 0:
		return nil, ErrNoFace
	case 1:
		return &faces[0], nil
	default:
		return nil, fmt.Errorf("%w: found %d", ErrMultipleFaces, len(faces))
	}
}
