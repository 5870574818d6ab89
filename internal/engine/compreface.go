package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultComprefaceURL = "http://localhost:8000"

// ComprefaceProvider implements Provider using the CompreFace face detection
// API: multipart image upload authenticated with an x-api-key header.
type ComprefaceProvider struct {
	parsedURL *url.URL
	apiKey    string
	client    *http.Client
}

// NewComprefaceProvider creates a new CompreFace provider.
func NewComprefaceProvider(baseURL, apiKey string) (*ComprefaceProvider, error) {
	if baseURL == "" {
		baseURL = defaultComprefaceURL
	}
	if apiKey == "" {
		return nil, errors.New("compreface requires FACE_ENGINE_API_KEY")
	}
	parsed, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid compreface URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid compreface URL scheme %q: must be http or https", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, errors.New("invalid compreface URL: missing host")
	}
	return &ComprefaceProvider{
		parsedURL: parsed,
		apiKey:    apiKey,
		client:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Name returns the provider name.
func (p *ComprefaceProvider) Name() string {
	return "compreface_default"
}

// comprefaceResponse represents a detection response from the CompreFace API.
type comprefaceResponse struct {
	Result []struct {
		Box struct {
			Probability float64 `json:"probability"`
			XMin        float64 `json:"x_min"`
			YMin        float64 `json:"y_min"`
			XMax        float64 `json:"x_max"`
			YMax        float64 `json:"y_max"`
		} `json:"box"`
		Embedding []float32 `json:"embedding"`
	} `json:"result"`
}

// DetectFaces uploads the image to the CompreFace detection endpoint.
func (p *ComprefaceProvider) DetectFaces(ctx context.Context, imageData []byte) ([]Face, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "frame.jpg")
	if err != nil {
		return nil, fmt.Errorf("could not create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("could not write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("could not close multipart writer: %w", err)
	}

	endpoint := p.parsedURL.String() + "/api/v1/detection/detect?face_plugins=calculator"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("x-api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	// CompreFace answers 400 with an error code when no face is found;
	// that is an empty result, not a transport failure.
	if resp.StatusCode == http.StatusBadRequest {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("compreface request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}

	var result comprefaceResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("could not unmarshal response: %w", err)
	}

	faces := make([]Face, 0, len(result.Result))
	for _, f := range result.Result {
		faces = append(faces, Face{
			BBox:      [4]float64{f.Box.XMin, f.Box.YMin, f.Box.XMax, f.Box.YMax},
			DetScore:  f.Box.Probability,
			Embedding: f.Embedding,
		})
	}

	return faces, nil
}
