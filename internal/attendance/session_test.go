package attendance

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kozaktomas/attendance/internal/camera"
	"github.com/kozaktomas/attendance/internal/engine"
	"github.com/kozaktomas/attendance/internal/gallery"
	"github.com/kozaktomas/attendance/internal/store"
	"github.com/kozaktomas/attendance/internal/store/mock"
)

// staticProvider returns canned faces keyed by frame content.
type staticProvider struct {
	faces map[string][]engine.Face
	err   error
}

func (p *staticProvider) Name() string { return "static" }

func (p *staticProvider) DetectFaces(_ context.Context, imageData []byte) ([]engine.Face, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.faces[string(imageData)], nil
}

func unitEmbedding(axis int) []float32 {
	v := make([]float32, 128)
	v[axis] = 1
	return v
}

func testGallery(t *testing.T, people ...*store.Person) *gallery.Gallery {
	t.Helper()
	g := gallery.New("")
	for _, p := range people {
		if err := g.Add(p); err != nil {
			t.Fatalf("could not add %s to gallery: %v", p.ID, err)
		}
	}
	return g
}

func TestSession_MarksFirstSightingOnly(t *testing.T) {
	alice := &store.Person{ID: "s001", Name: "Alice", Embedding: unitEmbedding(0)}
	g := testGallery(t, alice)

	provider := &staticProvider{faces: map[string][]engine.Face{
		"frame": {{Embedding: unitEmbedding(0), DetScore: 0.99}},
	}}

	st := mock.NewStore()
	session := NewSession(provider, g, gallery.NewRoster(), st, nil, 0.5)

	ctx := context.Background()
	frame := camera.Frame{Data: []byte("frame"), Seq: 1, TakenAt: time.Now()}

	events, err := session.ProcessFrame(ctx, "test", frame)
	if err != nil {
		t.Fatalf("ProcessFrame failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Type != EventMarked {
		t.Errorf("expected %q event, got %q", EventMarked, events[0].Type)
	}
	if events[0].PersonID != "s001" {
		t.Errorf("expected person s001, got %q", events[0].PersonID)
	}

	// second sighting of the same person must not create another record
	events, err = session.ProcessFrame(ctx, "test", frame)
	if err != nil {
		t.Fatalf("ProcessFrame failed: %v", err)
	}
	if events[0].Type != EventSeen {
		t.Errorf("expected %q event on repeat sighting, got %q", EventSeen, events[0].Type)
	}

	records, err := st.ListRecords(ctx, store.RecordFilter{})
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected exactly 1 record, got %d", len(records))
	}
	if records[0].PersonID != "s001" {
		t.Errorf("expected record for s001, got %q", records[0].PersonID)
	}
}

func TestSession_UnknownFace(t *testing.T) {
	alice := &store.Person{ID: "s001", Name: "Alice", Embedding: unitEmbedding(0)}
	g := testGallery(t, alice)

	// orthogonal embedding, way past the threshold
	provider := &staticProvider{faces: map[string][]engine.Face{
		"frame": {{Embedding: unitEmbedding(5)}},
	}}

	st := mock.NewStore()
	session := NewSession(provider, g, gallery.NewRoster(), st, nil, 0.5)

	events, err := session.ProcessFrame(context.Background(), "test", camera.Frame{Data: []byte("frame"), Seq: 1})
	if err != nil {
		t.Fatalf("ProcessFrame failed: %v", err)
	}
	if len(events) != 1 || events[0].Type != EventUnknown {
		t.Fatalf("expected a single %q event, got %+v", EventUnknown, events)
	}

	count, err := st.CountRecords(context.Background())
	if err != nil {
		t.Fatalf("CountRecords failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no records for unknown face, got %d", count)
	}
}

func TestSession_StoreFailureRollsBackRoster(t *testing.T) {
	alice := &store.Person{ID: "s001", Name: "Alice", Embedding: unitEmbedding(0)}
	g := testGallery(t, alice)

	provider := &staticProvider{faces: map[string][]engine.Face{
		"frame": {{Embedding: unitEmbedding(0)}},
	}}

	st := mock.NewStore()
	st.MarkError = errors.New("database gone")

	roster := gallery.NewRoster()
	session := NewSession(provider, g, roster, st, nil, 0.5)

	frame := camera.Frame{Data: []byte("frame"), Seq: 1, TakenAt: time.Now()}
	events, err := session.ProcessFrame(context.Background(), "test", frame)
	if err != nil {
		t.Fatalf("ProcessFrame failed: %v", err)
	}
	if events[0].Type != EventSeen {
		t.Errorf("expected %q event on store failure, got %q", EventSeen, events[0].Type)
	}
	if roster.Count() != 0 {
		t.Errorf("expected roster rollback on store failure, count is %d", roster.Count())
	}

	// with the store healthy again the next frame must succeed
	st.MarkError = nil
	events, err = session.ProcessFrame(context.Background(), "test", frame)
	if err != nil {
		t.Fatalf("ProcessFrame failed: %v", err)
	}
	if events[0].Type != EventMarked {
		t.Errorf("expected %q event after store recovery, got %q", EventMarked, events[0].Type)
	}
}

func TestSession_NotifyCallback(t *testing.T) {
	alice := &store.Person{ID: "s001", Name: "Alice", Embedding: unitEmbedding(0)}
	g := testGallery(t, alice)

	provider := &staticProvider{faces: map[string][]engine.Face{
		"frame": {{Embedding: unitEmbedding(0)}},
	}}

	session := NewSession(provider, g, gallery.NewRoster(), mock.NewStore(), nil, 0.5)

	var notified []Event
	session.Notify = func(e Event) { notified = append(notified, e) }

	_, err := session.ProcessFrame(context.Background(), "test", camera.Frame{Data: []byte("frame"), Seq: 7})
	if err != nil {
		t.Fatalf("ProcessFrame failed: %v", err)
	}
	if len(notified) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notified))
	}
	if notified[0].Seq != 7 {
		t.Errorf("expected seq 7 in notification, got %d", notified[0].Seq)
	}
}

func TestSession_RunWithFolderSource(t *testing.T) {
	alice := &store.Person{ID: "s001", Name: "Alice", Embedding: unitEmbedding(0)}
	bob := &store.Person{ID: "s002", Name: "Bob", Embedding: unitEmbedding(1)}
	g := testGallery(t, alice, bob)

	dir := t.TempDir()
	frames := map[string]string{
		"01.jpg": "alice",
		"02.jpg": "bob",
		"03.jpg": "alice", // repeat, already marked
	}
	for name, content := range frames {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("could not write frame: %v", err)
		}
	}

	provider := &staticProvider{faces: map[string][]engine.Face{
		"alice": {{Embedding: unitEmbedding(0)}},
		"bob":   {{Embedding: unitEmbedding(1)}},
	}}

	source, err := camera.NewFolderSource(dir)
	if err != nil {
		t.Fatalf("NewFolderSource failed: %v", err)
	}

	csvDir := t.TempDir()
	csvLog, err := NewCSVLog(csvDir)
	if err != nil {
		t.Fatalf("NewCSVLog failed: %v", err)
	}

	st := mock.NewStore()
	roster := gallery.NewRoster()
	session := NewSession(provider, g, roster, st, csvLog, 0.5)

	if err := session.Run(context.Background(), source); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	records, err := st.ListRecords(context.Background(), store.RecordFilter{})
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	data, err := os.ReadFile(csvLog.Path())
	if err != nil {
		t.Fatalf("could not read CSV log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows in CSV log, got %d lines", len(lines))
	}
	if lines[0] != "Name,Person ID,Date,Time" {
		t.Errorf("unexpected CSV header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "Alice") || !strings.Contains(lines[1], "s001") {
		t.Errorf("expected Alice in first row, got %q", lines[1])
	}
}
