package service

import (
	"sync"

	"footfall/internal/adapters/rtdb"
)

// trackerCap bounds remembered outcomes; abandoned ids age out once enough
// newer results arrive
const trackerCap = 128

// Tracker is the single dispatch point for drained session results, keyed
// on correlation id. The session calls Dispatch from Advance; the
// orchestrator polls Outcome while it waits out an upload window
type Tracker struct {
	mu    sync.Mutex
	done  map[string]rtdb.Result
	order []string
}

// NewTracker builds an empty tracker
func NewTracker() *Tracker {
	return &Tracker{done: make(map[string]rtdb.Result)}
}

// Dispatch records terminal outcomes. Event and debug results pass through;
// only errors and completions settle a correlation id
func (t *Tracker) Dispatch(r rtdb.Result) {
	if r.Kind != rtdb.KindError && r.Kind != rtdb.KindCompleted {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, dup := t.done[r.ID]; !dup {
		t.order = append(t.order, r.ID)
	}
	t.done[r.ID] = r
	for len(t.order) > trackerCap {
		delete(t.done, t.order[0])
		t.order = t.order[1:]
	}
}

// Outcome reports whether id has settled and with what result
func (t *Tracker) Outcome(id string) (rtdb.Result, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.done[id]
	return r, ok
}

// Forget releases a settled id once its outcome has been consumed
func (t *Tracker) Forget(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.done, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}
