package gallery

import (
	"testing"
	"time"
)

func TestRoster_MarkOnce(t *testing.T) {
	r := NewRoster()

	if !r.MarkOnce("a") {
		t.Error("expected first mark to succeed")
	}
	if r.MarkOnce("a") {
		t.Error("expected second mark to be rejected")
	}
	if !r.MarkOnce("b") {
		t.Error("expected mark of another person to succeed")
	}
	if r.Count() != 2 {
		t.Errorf("expected 2 marked people, got %d", r.Count())
	}
}

func TestRoster_Seed(t *testing.T) {
	r := NewRoster()
	r.Seed(map[string]struct{}{"a": {}, "b": {}})

	if r.MarkOnce("a") {
		t.Error("expected seeded person to be already marked")
	}
	if !r.MarkOnce("c") {
		t.Error("expected unseeded person to be markable")
	}
}

func TestRoster_Unmark(t *testing.T) {
	r := NewRoster()

	if !r.MarkOnce("a") {
		t.Fatal("expected first mark to succeed")
	}
	r.Unmark("a")
	if !r.MarkOnce("a") {
		t.Error("expected mark to succeed again after unmark")
	}
}

func TestRoster_MidnightRollover(t *testing.T) {
	current := time.Date(2026, 3, 2, 23, 59, 0, 0, time.UTC)
	r := newRosterAt(func() time.Time { return current })

	if !r.MarkOnce("a") {
		t.Fatal("expected mark before midnight to succeed")
	}
	if r.Day() != "2026-03-02" {
		t.Errorf("expected day 2026-03-02, got %s", r.Day())
	}

	// Cross midnight: the set resets and yesterday's marks no longer block.
	current = time.Date(2026, 3, 3, 0, 1, 0, 0, time.UTC)

	if r.Day() != "2026-03-03" {
		t.Errorf("expected day 2026-03-03 after rollover, got %s", r.Day())
	}
	if r.Count() != 0 {
		t.Errorf("expected empty roster after rollover, got %d", r.Count())
	}
	if !r.MarkOnce("a") {
		t.Error("expected mark to succeed on the new day")
	}
}
