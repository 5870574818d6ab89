package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kozaktomas/attendance/internal/constants"
	"github.com/kozaktomas/attendance/internal/gallery"
	"github.com/kozaktomas/attendance/internal/store"
	"github.com/kozaktomas/attendance/internal/store/mock"
)

func seedRecords(t *testing.T, st *mock.Store) {
	t.Helper()
	ctx := context.Background()
	records := []*store.Record{
		{PersonID: "s001", Name: "Alice", Day: "2026-03-02", ClockTime: "08:00:00"},
		{PersonID: "s002", Name: "Bob", Day: "2026-03-02", ClockTime: "08:10:00"},
		{PersonID: "s001", Name: "Alice", Day: "2026-03-03", ClockTime: "08:05:00"},
	}
	for _, rec := range records {
		if _, err := st.Mark(ctx, rec); err != nil {
			t.Fatalf("could not seed record: %v", err)
		}
	}
}

func TestRecordsHandler_List(t *testing.T) {
	st := mock.NewStore()
	seedRecords(t, st)
	h := NewRecordsHandler(st, gallery.New(""))

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"all records", "", 3},
		{"filter by day", "?day=2026-03-02", 2},
		{"filter by person", "?person=s001", 2},
		{"day and person", "?day=2026-03-03&person=s001", 1},
		{"no matches", "?day=2020-01-01", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/records"+tc.query, nil)
			rec := httptest.NewRecorder()
			h.List(rec, req)

			assertStatusCode(t, rec, http.StatusOK)

			var resp struct {
				Records []store.Record `json:"records"`
				Count   int            `json:"count"`
			}
			parseJSONResponse(t, rec, &resp)
			if resp.Count != tc.want {
				t.Errorf("expected %d records, got %d", tc.want, resp.Count)
			}
		})
	}
}

func TestRecordsHandler_List_Today(t *testing.T) {
	st := mock.NewStore()
	today := time.Now().Format(constants.DayLayout)
	if _, err := st.Mark(context.Background(), &store.Record{PersonID: "s001", Name: "Alice", Day: today, ClockTime: "08:00:00"}); err != nil {
		t.Fatalf("could not seed record: %v", err)
	}
	seedRecords(t, st)

	h := NewRecordsHandler(st, gallery.New(""))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records?today=true", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	var resp struct {
		Count int `json:"count"`
	}
	parseJSONResponse(t, rec, &resp)
	if resp.Count != 1 {
		t.Errorf("expected 1 record for today, got %d", resp.Count)
	}
}

func TestRecordsHandler_Summary(t *testing.T) {
	st := mock.NewStore()
	seedRecords(t, st)
	h := NewRecordsHandler(st, gallery.New(""))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records/summary", nil)
	rec := httptest.NewRecorder()
	h.Summary(rec, req)

	assertStatusCode(t, rec, http.StatusOK)

	var resp struct {
		Summaries []store.Summary `json:"summaries"`
		Count     int             `json:"count"`
	}
	parseJSONResponse(t, rec, &resp)
	if resp.Count != 2 {
		t.Fatalf("expected 2 summaries, got %d", resp.Count)
	}
	for _, s := range resp.Summaries {
		if s.PersonID == "s001" && s.DaysPresent != 2 {
			t.Errorf("expected 2 days present for s001, got %d", s.DaysPresent)
		}
	}
}

func TestRecordsHandler_Report(t *testing.T) {
	st := mock.NewStore()
	seedRecords(t, st)
	h := NewRecordsHandler(st, gallery.New(""))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records/report", nil)
	rec := httptest.NewRecorder()
	h.Report(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("expected text/csv content type, got %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attendance_report_") {
		t.Errorf("expected report filename in disposition, got %q", cd)
	}

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d lines", len(lines))
	}
	if lines[0] != "Name,Person ID,Date,Time" {
		t.Errorf("unexpected CSV header: %q", lines[0])
	}
}

func TestRecordsHandler_Stats(t *testing.T) {
	st := mock.NewStore()
	st.AddPerson(store.Person{ID: "s001", Name: "Alice", Embedding: testEmbedding(0)})
	st.AddPerson(store.Person{ID: "s002", Name: "Bob", Embedding: testEmbedding(1)})

	today := time.Now().Format(constants.DayLayout)
	if _, err := st.Mark(context.Background(), &store.Record{PersonID: "s001", Day: today, ClockTime: "08:00:00"}); err != nil {
		t.Fatalf("could not seed record: %v", err)
	}

	g := gallery.New("")
	if err := g.Add(&store.Person{ID: "s001", Name: "Alice", Embedding: testEmbedding(0)}); err != nil {
		t.Fatalf("could not seed gallery: %v", err)
	}

	h := NewRecordsHandler(st, g)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	rec := httptest.NewRecorder()
	h.Stats(rec, req)

	assertStatusCode(t, rec, http.StatusOK)

	var resp struct {
		People       int    `json:"people"`
		Records      int    `json:"records"`
		PresentToday int    `json:"present_today"`
		GallerySize  int    `json:"gallery_size"`
		Day          string `json:"day"`
	}
	parseJSONResponse(t, rec, &resp)
	if resp.People != 2 {
		t.Errorf("expected 2 people, got %d", resp.People)
	}
	if resp.Records != 1 {
		t.Errorf("expected 1 record, got %d", resp.Records)
	}
	if resp.PresentToday != 1 {
		t.Errorf("expected 1 present today, got %d", resp.PresentToday)
	}
	if resp.GallerySize != 1 {
		t.Errorf("expected gallery size 1, got %d", resp.GallerySize)
	}
	if resp.Day != today {
		t.Errorf("expected day %s, got %s", today, resp.Day)
	}
}
