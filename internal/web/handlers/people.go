package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/attendance/internal/attendance"
	"github.com/kozaktomas/attendance/internal/config"
	"github.com/kozaktomas/attendance/internal/constants"
	"github.com/kozaktomas/attendance/internal/engine"
	"github.com/kozaktomas/attendance/internal/gallery"
	"github.com/kozaktomas/attendance/internal/store"
)

// PeopleHandler manages enrollment over HTTP.
type PeopleHandler struct {
	config   *config.Config
	store    store.PersonWriter
	gallery  *gallery.Gallery
	provider engine.Provider
}

// NewPeopleHandler creates a new people handler.
func NewPeopleHandler(cfg *config.Config, st store.PersonWriter, g *gallery.Gallery, provider engine.Provider) *PeopleHandler {
	return &PeopleHandler{
		config:   cfg,
		store:    st,
		gallery:  g,
		provider: provider,
	}
}

// personResponse is the API shape of an enrolled person. Embeddings stay
// server side.
type personResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	PhotoPath string `json:"photo_path,omitempty"`
	Model     string `json:"model,omitempty"`
	Enrolled  bool   `json:"enrolled"`
}

func toPersonResponse(p *store.Person) personResponse {
	return personResponse{
		ID:        p.ID,
		Name:      p.Name,
		PhotoPath: p.PhotoPath,
		Model:     p.Model,
		Enrolled:  p.HasEmbedding(),
	}
}

// List returns all enrolled people.
func (h *PeopleHandler) List(w http.ResponseWriter, r *http.Request) {
	people, err := h.store.List(r.Context())
	if err != nil {
		log.Printf("Failed to list people: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list people")
		return
	}

	resp := make([]personResponse, 0, len(people))
	for i := range people {
		resp = append(resp, toPersonResponse(&people[i]))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"people": resp,
		"count":  len(resp),
	})
}

// Get returns a single person by ID.
func (h *PeopleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing person ID")
		return
	}

	person, err := h.store.Get(r.Context(), id)
	if err != nil {
		log.Printf("Failed to get person %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to get person")
		return
	}
	if person == nil {
		respondError(w, http.StatusNotFound, "person not found")
		return
	}

	respondJSON(w, http.StatusOK, toPersonResponse(person))
}

// Register enrolls a person from a multipart form containing an id, a name
// and a photo with exactly one face.
func (h *PeopleHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(constants.MaxFrameBytes); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	id := strings.TrimSpace(r.FormValue("id"))
	name := attendance.NormalizeName(r.FormValue("name"))
	if id == "" || name == "" {
		respondError(w, http.StatusBadRequest, "id and name are required")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		respondError(w, http.StatusBadRequest, "photo file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, constants.MaxFrameBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read photo")
		return
	}

	prepared, err := engine.PrepareImage(data, h.config.Engine.MaxSide)
	if err != nil {
		respondError(w, http.StatusBadRequest, "photo is not a supported image")
		return
	}

	face, err := engine.DetectSingleFace(r.Context(), h.provider, prepared)
	if errors.Is(err, engine.ErrNoFace) {
		respondError(w, http.StatusUnprocessableEntity, "no face detected in photo")
		return
	}
	if errors.Is(err, engine.ErrMultipleFaces) {
		respondError(w, http.StatusUnprocessableEntity, "photo must contain exactly one face")
		return
	}
	if err != nil {
		log.Printf("Face detection failed for %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusBadGateway, "face engine unavailable")
		return
	}

	photoPath, err := h.savePhoto(id, name, header.Filename, data)
	if err != nil {
		log.Printf("Failed to save photo for %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to save photo")
		return
	}

	person := &store.Person{
		ID:        id,
		Name:      name,
		PhotoPath: photoPath,
		Embedding: face.Embedding,
		Model:     h.config.Engine.Model,
		Dim:       len(face.Embedding),
	}

	if err := h.store.Save(r.Context(), person); err != nil {
		log.Printf("Failed to save person %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to save person")
		return
	}
	if err := h.gallery.Add(person); err != nil {
		log.Printf("Failed to add %s to gallery: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to update gallery")
		return
	}

	log.Printf("Enrolled %s (%s)", sanitizeForLog(name), sanitizeForLog(id))
	respondJSON(w, http.StatusCreated, toPersonResponse(person))
}

// Delete removes a person from the store and the gallery. Attendance history
// is kept.
func (h *PeopleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing person ID")
		return
	}

	exists, err := h.store.Has(r.Context(), id)
	if err != nil {
		log.Printf("Failed to check person %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to delete person")
		return
	}
	if !exists {
		respondError(w, http.StatusNotFound, "person not found")
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		log.Printf("Failed to delete person %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to delete person")
		return
	}
	if err := h.gallery.Remove(id); err != nil {
		log.Printf("Failed to remove %s from gallery: %v", sanitizeForLog(id), err)
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// savePhoto stores the enrollment photo as <id>_<safe name>.<ext> under the
// configured people directory.
func (h *PeopleHandler) savePhoto(id, name, originalName string, data []byte) (string, error) {
	dir := h.config.Attendance.PeopleDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("could not create people directory: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = ".jpg"
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s%s", id, attendance.SafeFileName(name), ext))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("could not write photo file: %w", err)
	}
	return path, nil
}
