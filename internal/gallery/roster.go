package gallery

import (
	"sync"
	"time"

	"github.com/kozaktomas/attendance/internal/constants"
)

// Roster tracks which people have already been marked present today.
// It rolls over automatically at midnight so a loop left running overnight
// starts a fresh day.
type Roster struct {
	mu     sync.Mutex
	day    string
	marked map[string]struct{}
	now    func() time.Time
}

// NewRoster creates a roster for the current day.
func NewRoster() *Roster {
	return newRosterAt(time.Now)
}

func newRosterAt(now func() time.Time) *Roster {
	r := &Roster{now: now}
	r.day = now().Format(constants.DayLayout)
	r.marked = make(map[string]struct{})
	return r
}

// Seed pre-populates the roster with people already marked for the current
// day, typically loaded from storage at startup.
func (r *Roster) Seed(ids map[string]struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range ids {
		r.marked[id] = struct{}{}
	}
}

// Day returns the day the roster currently tracks (YYYY-MM-DD).
func (r *Roster) Day() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rolloverLocked()
	return r.day
}

// MarkOnce records the person for the current day. Returns true on the first
// call for a given person and day, false on every subsequent call.
func (r *Roster) MarkOnce(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rolloverLocked()

	if _, ok := r.marked[id]; ok {
		return false
	}
	r.marked[id] = struct{}{}
	return true
}

// Unmark removes a person from today's roster. Used to roll back a roster
// entry when persisting the record failed, so a later frame can retry.
func (r *Roster) Unmark(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.marked, id)
}

// Count returns how many people are marked for the current day.
func (r *Roster) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rolloverLocked()
	return len(r.marked)
}

// rolloverLocked resets the set when the calendar day changed.
// Caller must hold r.mu.
func (r *Roster) rolloverLocked() {
	today := r.now().Format(constants.DayLayout)
	if today != r.day {
		r.day = today
		r.marked = make(map[string]struct{})
	}
}
