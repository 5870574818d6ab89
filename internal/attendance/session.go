package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/kozaktomas/attendance/internal/camera"
	"github.com/kozaktomas/attendance/internal/constants"
	"github.com/kozaktomas/attendance/internal/engine"
	"github.com/kozaktomas/attendance/internal/gallery"
	"github.com/kozaktomas/attendance/internal/store"
)

// Event describes what happened to a single face during frame processing.
type Event struct {
	Type     string    `json:"type"` // marked, seen, unknown
	PersonID string    `json:"person_id,omitempty"`
	Name     string    `json:"name,omitempty"`
	Distance float64   `json:"distance,omitempty"`
	Seq      int       `json:"seq"`
	At       time.Time `json:"at"`
}

const (
	EventMarked  = "marked"  // first sighting of the day, record written
	EventSeen    = "seen"    // already marked today
	EventUnknown = "unknown" // face matched nobody in the gallery
)

// Session runs the attendance pipeline: frames come in from a source, faces
// get matched against the gallery and each person's first sighting of the
// day is persisted to the store and the CSV log.
type Session struct {
	provider  engine.Provider
	gallery   *gallery.Gallery
	roster    *gallery.Roster
	records   store.RecordWriter
	csv       *CSVLog
	threshold float64

	// Notify receives an event for every processed face when set. The
	// callback runs on the session goroutine and must not block.
	Notify func(Event)

	now func() time.Time
}

// NewSession wires the pipeline together. csv may be nil to skip file logging.
func NewSession(provider engine.Provider, g *gallery.Gallery, roster *gallery.Roster, records store.RecordWriter, csv *CSVLog, threshold float64) *Session {
	return &Session{
		provider:  provider,
		gallery:   g,
		roster:    roster,
		records:   records,
		csv:       csv,
		threshold: threshold,
		now:       time.Now,
	}
}

// Run consumes the source until it is exhausted or the context ends. Frame
// level errors are logged and skipped so one bad frame does not kill a
// running session.
func (s *Session) Run(ctx context.Context, source camera.Source) error {
	log.Printf("attendance session started, source %s, gallery size %d", source.Name(), s.gallery.Size())

	for {
		frame, err := source.Next(ctx)
		if errors.Is(err, camera.ErrSourceExhausted) {
			log.Printf("source %s exhausted, session done", source.Name())
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("could not read frame from %s: %w", source.Name(), err)
		}

		if _, err := s.ProcessFrame(ctx, source.Name(), frame); err != nil {
			log.Printf("frame %d: %v", frame.Seq, err)
		}
	}
}

// ProcessFrame runs detection and matching for one frame and returns an
// event per detected face.
func (s *Session) ProcessFrame(ctx context.Context, sourceName string, frame camera.Frame) ([]Event, error) {
	faces, err := s.provider.DetectFaces(ctx, frame.Data)
	if err != nil {
		return nil, fmt.Errorf("face detection failed: %w", err)
	}

	var events []Event
	for _, face := range faces {
		event := s.processFace(ctx, sourceName, frame, face)
		events = append(events, event)
		if s.Notify != nil {
			s.Notify(event)
		}
	}
	return events, nil
}

func (s *Session) processFace(ctx context.Context, sourceName string, frame camera.Frame, face engine.Face) Event {
	event := Event{Type: EventUnknown, Seq: frame.Seq, At: frame.TakenAt}

	match, ok := s.gallery.Match(face.Embedding, s.threshold)
	if !ok {
		return event
	}

	event.PersonID = match.PersonID
	event.Name = match.Name
	event.Distance = match.Distance

	if !s.roster.MarkOnce(match.PersonID) {
		event.Type = EventSeen
		return event
	}

	record := &store.Record{
		PersonID:  match.PersonID,
		Name:      match.Name,
		Day:       s.roster.Day(),
		ClockTime: s.clockTime(frame),
		Distance:  match.Distance,
		Source:    sourceName,
	}

	inserted, err := s.records.Mark(ctx, record)
	if err != nil {
		// put the person back so a later frame can retry
		s.roster.Unmark(match.PersonID)
		log.Printf("could not persist attendance for %s: %v", match.PersonID, err)
		event.Type = EventSeen
		return event
	}
	if !inserted {
		// another session already wrote today's record
		event.Type = EventSeen
		return event
	}

	if s.csv != nil {
		if err := s.csv.Append(record); err != nil {
			log.Printf("could not append CSV row for %s: %v", match.PersonID, err)
		}
	}

	log.Printf("marked %s (%s) at %s, distance %.3f", match.Name, match.PersonID, record.ClockTime, match.Distance)
	event.Type = EventMarked
	return event
}

func (s *Session) clockTime(frame camera.Frame) string {
	at := frame.TakenAt
	if at.IsZero() {
		at = s.now()
	}
	return at.Format(constants.TimeLayout)
}
