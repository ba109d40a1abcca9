package rtdb

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	perr "footfall/internal/platform/errors"
	"footfall/internal/platform/logger"
)

// ResultKind tags what a drained Result describes
type ResultKind uint8

// Result kinds, in the order the auth and write flows produce them
const (
	KindEvent ResultKind = iota
	KindDebug
	KindError
	KindCompleted
)

// String renders the kind for logs
func (k ResultKind) String() string {
	switch k {
	case KindEvent:
		return "event"
	case KindDebug:
		return "debug"
	case KindError:
		return "error"
	case KindCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// TaskAuth tags results from the sign-in flow; write tasks are named by the
// caller ("daily_data", "location", "device_info")
const TaskAuth = "auth"

// Result is one drained async outcome. Code carries the project error code
// on failures and is zero otherwise
type Result struct {
	Kind    ResultKind
	Task    string
	ID      string // correlation id, fresh per operation
	Code    int
	Message string
	Err     error
	Bytes   int // payload + fixed overhead, completed writes only
}

const (
	// writeOverheadBytes approximates headers and TLS framing per write for
	// the transfer counter
	writeOverheadBytes = 400

	resultsBuffer = 64
	authSpacing   = 5 * time.Second
	opTimeout     = 30 * time.Second
)

// Session layers the asynchronous write façade over the Client. Writes run
// on their own goroutines and report through a results channel the owner
// drains with Advance between scans. Reads stay synchronous
type Session struct {
	client   *Client
	email    string
	password string
	dispatch func(Result)

	results     chan Result
	authBusy    atomic.Bool
	nextAuthAt  atomic.Int64 // unix nanos, spaces out failed sign-ins
	transferred atomic.Int64
	log         logger.Logger
}

// NewSession wires a session over client. dispatch receives every drained
// result; nil means results are only logged
func NewSession(client *Client, email, password string, dispatch func(Result)) *Session {
	return &Session{
		client:   client,
		email:    email,
		password: password,
		dispatch: dispatch,
		results:  make(chan Result, resultsBuffer),
		log:      *logger.Named("rtdb.session"),
	}
}

// Ready reports whether a usable id token is held. Tokens expire, so a
// session can leave readiness and re-enter it after the next BeginAuth
func (s *Session) Ready() bool { return s.client.TokenValid() }

// Transferred returns the cumulative accounted bytes for completed writes
func (s *Session) Transferred() int64 { return s.transferred.Load() }

// BeginAuth starts the sign-in exchange on a goroutine. Calling it while
// ready, while a sign-in is in flight, or inside the spacing window after a
// failure is a no-op, so pumps may call it freely
func (s *Session) BeginAuth() {
	if s.Ready() {
		return
	}
	if now := s.client.now(); now.UnixNano() < s.nextAuthAt.Load() {
		return
	}
	if !s.authBusy.CompareAndSwap(false, true) {
		return
	}
	id := uuid.NewString()
	s.emit(Result{Kind: KindDebug, Task: TaskAuth, ID: id, Message: "sign-in started"})
	go func() {
		defer s.authBusy.Store(false)
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		ttl, err := s.client.Authenticate(ctx, s.email, s.password)
		if err != nil {
			s.nextAuthAt.Store(s.client.now().Add(authSpacing).UnixNano())
			s.emit(Result{
				Kind: KindError, Task: TaskAuth, ID: id,
				Code: int(perr.CodeOf(err)), Message: "sign-in failed", Err: err,
			})
			return
		}
		s.emit(Result{Kind: KindEvent, Task: TaskAuth, ID: id, Message: "ready, token ttl " + ttl.String()})
	}()
}

// PutJSON queues an async write of v at path and returns its correlation id.
// The outcome arrives through Advance as an Error or Completed result
func (s *Session) PutJSON(path string, v any, task string) string {
	id := uuid.NewString()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		s.emit(Result{Kind: KindDebug, Task: task, ID: id, Message: "put " + path})
		n, err := s.client.PutJSON(ctx, path, v)
		if err != nil {
			s.emit(Result{
				Kind: KindError, Task: task, ID: id,
				Code: int(perr.CodeOf(err)), Message: "put " + path + " failed", Err: err,
			})
			return
		}
		total := n + writeOverheadBytes
		s.transferred.Add(int64(total))
		s.emit(Result{Kind: KindCompleted, Task: task, ID: id, Bytes: total, Message: "put " + path})
	}()
	return id
}

// GetInt reads an integer leaf synchronously. Absent paths read as zero
func (s *Session) GetInt(ctx context.Context, path string) (int64, error) {
	return s.client.GetInt64(ctx, path)
}

// Advance drains queued results without blocking and returns how many were
// handled. Every wait in the agent pumps this so outcomes surface even when
// nothing is listening for them specifically
func (s *Session) Advance() int {
	n := 0
	for {
		select {
		case r := <-s.results:
			n++
			s.handle(r)
		default:
			return n
		}
	}
}

func (s *Session) handle(r Result) {
	switch r.Kind {
	case KindError:
		s.log.Warn().Str("task", r.Task).Str("id", r.ID).Int("code", r.Code).Err(r.Err).Msg(r.Message)
	case KindCompleted:
		s.log.Debug().Str("task", r.Task).Str("id", r.ID).Int("bytes", r.Bytes).Msg(r.Message)
	default:
		s.log.Debug().Str("task", r.Task).Str("id", r.ID).Str("kind", r.Kind.String()).Msg(r.Message)
	}
	if s.dispatch != nil {
		s.dispatch(r)
	}
}

// emit never blocks a worker; when the buffer is full the result is dropped
// after logging. Byte accounting happens before emit so totals survive drops
func (s *Session) emit(r Result) {
	select {
	case s.results <- r:
	default:
		s.log.Warn().Str("task", r.Task).Str("kind", r.Kind.String()).Msg("results buffer full, dropping")
	}
}
