package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/attendance/internal/config"
)

func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestFaceservProvider_DetectFaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/extract" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		var req faceservRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if len(req.Images.Data) != 1 {
			http.Error(w, "expected one image", http.StatusBadRequest)
			return
		}
		if !req.ExtractEmbed {
			http.Error(w, "expected embedding extraction", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"took": 0.05,
			"data": [{
				"status": "ok",
				"faces": [
					{"bbox": [10, 20, 110, 140], "prob": 0.98, "vec": [0.1, 0.2, 0.3]},
					{"bbox": [200, 30, 280, 120], "prob": 0.91, "vec": [0.4, 0.5, 0.6]}
				]
			}]
		}`))
	}))
	defer server.Close()

	p, err := NewFaceservProvider(server.URL, "facenet128")
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	faces, err := p.DetectFaces(context.Background(), []byte("fake-jpeg"))
	if err != nil {
		t.Fatalf("DetectFaces failed: %v", err)
	}

	if len(faces) != 2 {
		t.Fatalf("expected 2 faces, got %d", len(faces))
	}
	if faces[0].DetScore != 0.98 {
		t.Errorf("expected det score 0.98, got %v", faces[0].DetScore)
	}
	if faces[0].BBox != [4]float64{10, 20, 110, 140} {
		t.Errorf("unexpected bbox: %v", faces[0].BBox)
	}
	if len(faces[1].Embedding) != 3 || faces[1].Embedding[0] != 0.4 {
		t.Errorf("unexpected embedding: %v", faces[1].Embedding)
	}
}

func TestFaceservProvider_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	p, err := NewFaceservProvider(server.URL, "")
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	if _, err := p.DetectFaces(context.Background(), []byte("x")); err == nil {
		t.Error("expected error for server failure")
	}
}

func TestFaceservProvider_InvalidURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"bad scheme", "ftp://example.com"},
		{"missing host", "http://"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewFaceservProvider(tc.url, ""); err == nil {
				t.Error("expected error for invalid URL")
			}
		})
	}
}

func TestComprefaceProvider_DetectFaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			http.Error(w, "bad multipart", http.StatusBadRequest)
			return
		}
		if _, _, err := r.FormFile("file"); err != nil {
			http.Error(w, "missing file", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"result": [{
				"box": {"probability": 0.97, "x_min": 5, "y_min": 10, "x_max": 95, "y_max": 120},
				"embedding": [0.7, 0.8]
			}]
		}`))
	}))
	defer server.Close()

	p, err := NewComprefaceProvider(server.URL, "test-key")
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	faces, err := p.DetectFaces(context.Background(), []byte("fake-jpeg"))
	if err != nil {
		t.Fatalf("DetectFaces failed: %v", err)
	}

	if len(faces) != 1 {
		t.Fatalf("expected 1 face, got %d", len(faces))
	}
	if faces[0].BBox != [4]float64{5, 10, 95, 120} {
		t.Errorf("unexpected bbox: %v", faces[0].BBox)
	}
}

func TestComprefaceProvider_NoFaceIsEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code": 28, "message": "No face is found"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	p, err := NewComprefaceProvider(server.URL, "test-key")
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	faces, err := p.DetectFaces(context.Background(), []byte("fake-jpeg"))
	if err != nil {
		t.Fatalf("expected no error for no-face response, got %v", err)
	}
	if len(faces) != 0 {
		t.Errorf("expected 0 faces, got %d", len(faces))
	}
}

func TestComprefaceProvider_RequiresAPIKey(t *testing.T) {
	if _, err := NewComprefaceProvider("http://localhost:8000", ""); err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestNewProvider_Selection(t *testing.T) {
	p, err := NewProvider(&config.EngineConfig{Provider: "faceserv", Model: "buffalo_l"})
	if err != nil {
		t.Fatalf("failed to create faceserv provider: %v", err)
	}
	if p.Name() != "buffalo_l" {
		t.Errorf("expected name 'buffalo_l', got %q", p.Name())
	}

	if _, err := NewProvider(&config.EngineConfig{Provider: "something-else"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestDetectSingleFace(t *testing.T) {
	tests := []struct {
		name    string
		faces   int
		wantErr error
	}{
		{"no face", 0, ErrNoFace},
		{"one face", 1, nil},
		{"two faces", 2, ErrMultipleFaces},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := &staticProvider{faces: tc.faces}
			face, err := DetectSingleFace(context.Background(), p, []byte("x"))

			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Errorf("expected error %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if face == nil {
				t.Fatal("expected a face")
			}
		})
	}
}

// staticProvider returns a fixed number of faces for testing.
type staticProvider struct {
	faces int
}

func (s *staticProvider) Name() string { return "static" }

func (s *staticProvider) DetectFaces(ctx context.Context, imageData []byte) ([]Face, error) {
	faces := make([]Face, s.faces)
	for i := range faces {
		faces[i] = Face{DetScore: 0.9, Embedding: []float32{float32(i)}}
	}
	return faces, nil
}

func TestPrepareImage_Downscale(t *testing.T) {
	data := testJPEG(t, 2000, 1000)

	out, err := PrepareImage(data, 500)
	if err != nil {
		t.Fatalf("PrepareImage failed: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("failed to decode output: %v", err)
	}
	if img.Bounds().Dx() != 500 {
		t.Errorf("expected width 500, got %d", img.Bounds().Dx())
	}
	if img.Bounds().Dy() != 250 {
		t.Errorf("expected height 250, got %d", img.Bounds().Dy())
	}
}

func TestPrepareImage_NoUpscale(t *testing.T) {
	data := testJPEG(t, 200, 100)

	out, err := PrepareImage(data, 500)
	if err != nil {
		t.Fatalf("PrepareImage failed: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("failed to decode output: %v", err)
	}
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 100 {
		t.Errorf("expected dimensions unchanged, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestPrepareImage_InvalidData(t *testing.T) {
	if _, err := PrepareImage([]byte("definitely not an image"), 500); err == nil {
		t.Error("expected error for invalid image data")
	}
}
