package handlers

import (
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/kozaktomas/attendance/internal/attendance"
	"github.com/kozaktomas/attendance/internal/camera"
	"github.com/kozaktomas/attendance/internal/constants"
)

// FramesHandler accepts camera frames over HTTP, so a browser or a kiosk
// script can feed the attendance session without an MJPEG stream.
type FramesHandler struct {
	session *attendance.Session
}

// NewFramesHandler creates a new frames handler.
func NewFramesHandler(session *attendance.Session) *FramesHandler {
	return &FramesHandler{session: session}
}

// Process runs face matching on a single uploaded frame. Accepts either a
// multipart form with a "frame" file or a raw image body.
func (h *FramesHandler) Process(w http.ResponseWriter, r *http.Request) {
	data, err := h.readFrame(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(data) == 0 {
		respondError(w, http.StatusBadRequest, "empty frame")
		return
	}

	frame := camera.Frame{Data: data, TakenAt: time.Now()}
	events, err := h.session.ProcessFrame(r.Context(), "web", frame)
	if err != nil {
		log.Printf("Frame processing failed: %v", err)
		respondError(w, http.StatusBadGateway, "face engine unavailable")
		return
	}

	if events == nil {
		events = []attendance.Event{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"faces":  len(events),
	})
}

func (h *FramesHandler) readFrame(r *http.Request) ([]byte, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/") {
		if err := r.ParseMultipartForm(constants.MaxFrameBytes); err != nil {
			return nil, err
		}
		file, _, err := r.FormFile("frame")
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return io.ReadAll(io.LimitReader(file, constants.MaxFrameBytes))
	}
	return io.ReadAll(io.LimitReader(r.Body, constants.MaxFrameBytes))
}
