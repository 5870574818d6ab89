package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/attendance/internal/attendance"
	"github.com/kozaktomas/attendance/internal/config"
	"github.com/kozaktomas/attendance/internal/engine"
	"github.com/kozaktomas/attendance/internal/gallery"
	"github.com/kozaktomas/attendance/internal/store/mock"
)

type noopProvider struct{}

func (noopProvider) Name() string { return "noop" }

func (noopProvider) DetectFaces(_ context.Context, _ []byte) ([]engine.Face, error) {
	return nil, nil
}

func testServer(t *testing.T, token string) *Server {
	t.Helper()

	st := mock.NewStore()
	g := gallery.New("")
	csvLog, err := attendance.NewCSVLog(t.TempDir())
	if err != nil {
		t.Fatalf("NewCSVLog failed: %v", err)
	}
	session := attendance.NewSession(noopProvider{}, g, gallery.NewRoster(), st, csvLog, 0.5)

	cfg := &config.Config{
		Web: config.WebConfig{Host: "127.0.0.1", Port: 0, APIToken: token},
	}
	return NewServer(cfg, st, g, noopProvider{}, session)
}

func TestRoutes_ReadOnlyWithoutToken(t *testing.T) {
	s := testServer(t, "secret")

	paths := []string{
		"/api/v1/health",
		"/api/v1/people",
		"/api/v1/records",
		"/api/v1/records/summary",
		"/api/v1/stats",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		if rec.Code == http.StatusUnauthorized {
			t.Errorf("GET %s should not require a token", path)
		}
	}
}

func TestRoutes_MutatingRequireToken(t *testing.T) {
	s := testServer(t, "secret")

	requests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/people"},
		{http.MethodDelete, "/api/v1/people/s001"},
		{http.MethodPost, "/api/v1/attendance/frame"},
	}
	for _, tc := range requests {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token: expected %d, got %d", tc.method, tc.path, http.StatusUnauthorized, rec.Code)
		}

		req = httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set("Authorization", "Bearer secret")
		rec = httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		if rec.Code == http.StatusUnauthorized {
			t.Errorf("%s %s with token: should pass auth, got %d", tc.method, tc.path, rec.Code)
		}
	}
}
