package engine

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultFaceservURL   = "http://localhost:18081"
	defaultFaceservModel = "facenet128"
)

// FaceservProvider implements Provider using an InsightFace-REST style
// detection server: base64 image in, detected faces with embeddings out.
type FaceservProvider struct {
	parsedURL *url.URL
	model     string
	client    *http.Client
}

// NewFaceservProvider creates a new faceserv provider with the given config.
func NewFaceservProvider(baseURL, model string) (*FaceservProvider, error) {
	if baseURL == "" {
		baseURL = defaultFaceservURL
	}
	if model == "" {
		model = defaultFaceservModel
	}
	parsed, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid faceserv URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid faceserv URL scheme %q: must be http or https", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, errors.New("invalid faceserv URL: missing host")
	}
	return &FaceservProvider{
		parsedURL: parsed,
		model:     model,
		client:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Name returns the engine model name.
func (p *FaceservProvider) Name() string {
	return p.model
}

// faceservRequest represents a detection request to the faceserv API.
type faceservRequest struct {
	Images       faceservImages `json:"images"`
	ExtractEmbed bool           `json:"extract_embedding"`
	Model        string         `json:"model,omitempty"`
}

type faceservImages struct {
	Data []string `json:"data"` // base64 encoded images
}

// faceservResponse represents a detection response from the faceserv API.
type faceservResponse struct {
	Took float64 `json:"took"`
	Data []struct {
		Status string `json:"status"`
		Faces  []struct {
			BBox []float64 `json:"bbox"`
			Prob float64   `json:"prob"`
			Vec  []float32 `json:"vec"`
		} `json:"faces"`
	} `json:"data"`
}

// DetectFaces sends the image to the faceserv detection endpoint.
func (p *FaceservProvider) DetectFaces(ctx context.Context, imageData []byte) ([]Face, error) {
	reqBody := faceservRequest{
		Images:       faceservImages{Data: []string{base64.StdEncoding.EncodeToString(imageData)}},
		ExtractEmbed: true,
		Model:        p.model,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("could not marshal request body: %w", err)
	}

	endpoint := p.parsedURL.String() + "/extract"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("faceserv request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}

	var result faceservResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("could not unmarshal response: %w", err)
	}

	if len(result.Data) == 0 {
		return nil, errors.New("faceserv response contains no image results")
	}

	img := result.Data[0]
	if img.Status != "" && img.Status != "ok" {
		return nil, fmt.Errorf("faceserv reported image status %q", img.Status)
	}

	faces := make([]Face, 0, len(img.Faces))
	for _, f := range img.Faces {
		face := Face{DetScore: f.Prob, Embedding: f.Vec}
		if len(f.BBox) == 4 {
			copy(face.BBox[:], f.BBox)
		}
		faces = append(faces, face)
	}

	return faces, nil
}
