package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/kozaktomas/attendance/internal/attendance"
	"github.com/kozaktomas/attendance/internal/constants"
	"github.com/kozaktomas/attendance/internal/gallery"
	"github.com/kozaktomas/attendance/internal/store"
)

// RecordsHandler serves attendance records and reports.
type RecordsHandler struct {
	store   store.Store
	gallery *gallery.Gallery
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(st store.Store, g *gallery.Gallery) *RecordsHandler {
	return &RecordsHandler{store: st, gallery: g}
}

// filterFromQuery builds a record filter from query parameters. today=true
// expands to the current day.
func filterFromQuery(r *http.Request) store.RecordFilter {
	q := r.URL.Query()
	filter := store.RecordFilter{
		Day:      q.Get("day"),
		PersonID: q.Get("person"),
	}
	if q.Get("today") == "true" {
		filter.Day = time.Now().Format(constants.DayLayout)
	}
	return filter
}

// List returns attendance records, newest first, optionally filtered by day
// and person.
func (h *RecordsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)

	records, err := h.store.ListRecords(r.Context(), filter)
	if err != nil {
		log.Printf("Failed to list records: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list records")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"count":   len(records),
	})
}

// Summary returns per-person attendance aggregates.
func (h *RecordsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.store.Summaries(r.Context())
	if err != nil {
		log.Printf("Failed to load summaries: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load summaries")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"summaries": summaries,
		"count":     len(summaries),
	})
}

// Report streams the filtered records as a CSV download.
func (h *RecordsHandler) Report(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)

	filename := fmt.Sprintf("attendance_report_%s.csv", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if _, err := attendance.WriteReport(r.Context(), w, h.store, filter); err != nil {
		// headers are already out, all we can do is log
		log.Printf("Failed to write report: %v", err)
	}
}

// Stats returns counters for the dashboard.
func (h *RecordsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	people, err := h.store.Count(ctx)
	if err != nil {
		log.Printf("Failed to count people: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	records, err := h.store.CountRecords(ctx)
	if err != nil {
		log.Printf("Failed to count records: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	today := time.Now().Format(constants.DayLayout)
	marked, err := h.store.MarkedOn(ctx, today)
	if err != nil {
		log.Printf("Failed to load today's roster: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"people":        people,
		"records":       records,
		"present_today": len(marked),
		"gallery_size":  h.gallery.Size(),
		"day":           today,
	})
}
