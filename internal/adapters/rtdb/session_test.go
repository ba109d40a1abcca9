package rtdb

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// collector is a dispatch sink safe for the session's worker goroutines.
type collector struct {
	mu sync.Mutex
	rs []Result
}

func (c *collector) dispatch(r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rs = append(c.rs, r)
}

func (c *collector) snapshot() []Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Result, len(c.rs))
	copy(out, c.rs)
	return out
}

func (c *collector) find(kind ResultKind, task string) (Result, bool) {
	for _, r := range c.snapshot() {
		if r.Kind == kind && r.Task == task {
			return r, true
		}
	}
	return Result{}, false
}

// pumpUntil drains the session until cond holds or the deadline passes.
func pumpUntil(t *testing.T, s *Session, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		s.Advance()
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

// sessionFixture serves auth plus a recording tree handler.
type sessionFixture struct {
	srv     *httptest.Server
	authHit func() int
	puts    func() []string // recorded PUT paths
}

func newSessionFixture(t *testing.T, authStatus int) (*sessionFixture, *Session, *collector) {
	t.Helper()
	var mu sync.Mutex
	authHits := 0
	var putPaths []string

	mux := http.NewServeMux()
	mux.HandleFunc("/auth", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		authHits++
		mu.Unlock()
		if authStatus != http.StatusOK {
			http.Error(w, `{"error":{"message":"INVALID_PASSWORD"}}`, authStatus)
			return
		}
		io.WriteString(w, `{"idToken":"tok-s","expiresIn":"3600","localId":"u1"}`)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			mu.Lock()
			putPaths = append(putPaths, r.URL.Path)
			mu.Unlock()
			io.WriteString(w, `{"name":"ok"}`)
			return
		}
		io.WriteString(w, "null")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := testClient(t, srv)
	col := &collector{}
	s := NewSession(c, "panel-7@panels.footfall.dev", "pw", col.dispatch)

	fx := &sessionFixture{
		srv: srv,
		authHit: func() int {
			mu.Lock()
			defer mu.Unlock()
			return authHits
		},
		puts: func() []string {
			mu.Lock()
			defer mu.Unlock()
			out := make([]string, len(putPaths))
			copy(out, putPaths)
			return out
		},
	}
	return fx, s, col
}

func TestSession_BeginAuthBecomesReady(t *testing.T) {
	fx, s, col := newSessionFixture(t, http.StatusOK)

	if s.Ready() {
		t.Fatal("ready before auth")
	}
	s.BeginAuth()
	pumpUntil(t, s, func() bool {
		_, ok := col.find(KindEvent, TaskAuth)
		return ok
	})
	if !s.Ready() {
		t.Fatal("not ready after auth event")
	}
	if fx.authHit() != 1 {
		t.Fatalf("auth hits = %d, want 1", fx.authHit())
	}

	// ready session makes BeginAuth a no-op
	s.BeginAuth()
	time.Sleep(20 * time.Millisecond)
	s.Advance()
	if fx.authHit() != 1 {
		t.Fatalf("auth hits after no-op = %d, want 1", fx.authHit())
	}
}

func TestSession_AuthFailureSpacesRetries(t *testing.T) {
	fx, s, col := newSessionFixture(t, http.StatusBadRequest)

	s.BeginAuth()
	pumpUntil(t, s, func() bool {
		_, ok := col.find(KindError, TaskAuth)
		return ok
	})
	if s.Ready() {
		t.Fatal("ready after rejected sign-in")
	}

	// inside the spacing window another BeginAuth must not hit the server
	s.BeginAuth()
	time.Sleep(20 * time.Millisecond)
	s.Advance()
	if fx.authHit() != 1 {
		t.Fatalf("auth hits = %d, want 1 inside spacing window", fx.authHit())
	}

	r, _ := col.find(KindError, TaskAuth)
	if r.Err == nil || r.Code == 0 {
		t.Fatalf("error result missing cause: %+v", r)
	}
}

func TestSession_PutJSONCompletesAndAccountsBytes(t *testing.T) {
	fx, s, col := newSessionFixture(t, http.StatusOK)

	doc := map[string]any{"billboard_id": "panel-7", "daily_impressions": 41}
	id := s.PutJSON("devices/panel-7/data/2026-08-26", doc, "daily_data")
	if id == "" {
		t.Fatal("empty correlation id")
	}

	var done Result
	pumpUntil(t, s, func() bool {
		r, ok := col.find(KindCompleted, "daily_data")
		done = r
		return ok
	})

	if done.ID != id {
		t.Fatalf("completed id = %q, want %q", done.ID, id)
	}
	if done.Bytes <= writeOverheadBytes {
		t.Fatalf("bytes = %d, want payload plus overhead", done.Bytes)
	}
	if got := s.Transferred(); got != int64(done.Bytes) {
		t.Fatalf("Transferred = %d, want %d", got, done.Bytes)
	}

	paths := fx.puts()
	if len(paths) != 1 || paths[0] != "/devices/panel-7/data/2026-08-26.json" {
		t.Fatalf("put paths = %v", paths)
	}

	// a queued debug result should have preceded the completion
	if _, ok := col.find(KindDebug, "daily_data"); !ok {
		t.Fatal("missing debug result for the write")
	}
}

func TestSession_PutFailureSurfacesAsErrorResult(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	col := &collector{}
	s := NewSession(testClient(t, srv), "e@x", "pw", col.dispatch)

	s.PutJSON("devices/panel-7/device_info/Location", map[string]string{"Lat": "0.0"}, "location")
	var r Result
	pumpUntil(t, s, func() bool {
		got, ok := col.find(KindError, "location")
		r = got
		return ok
	})
	if r.Err == nil {
		t.Fatal("error result without err")
	}
	if !strings.Contains(r.Message, "devices/panel-7/device_info/Location") {
		t.Fatalf("message = %q, want path mentioned", r.Message)
	}
	if s.Transferred() != 0 {
		t.Fatalf("Transferred = %d, want 0 after failure", s.Transferred())
	}
}

func TestSession_GetIntAbsentReadsZero(t *testing.T) {
	_, s, _ := newSessionFixture(t, http.StatusOK)
	got, err := s.GetInt(context.Background(), "devices/panel-7/data/2026-08-26/daily_impressions")
	if err != nil || got != 0 {
		t.Fatalf("GetInt = (%d, %v), want (0, nil)", got, err)
	}
}
