// Package retry provides the shared attempt and bounded-wait policies used by
// the modem probe, the remote store client, and the sync orchestrator.
// Every wait that can outlive a session write accepts a pump hook so async
// results keep draining while the caller blocks
package retry

import (
	"context"
	"time"

	perr "footfall/internal/platform/errors"
)

// seams for tests; swap via testkit.Swap under testkit.Serial
var (
	sleep = time.Sleep
	now   = time.Now
)

// Policy bounds a retried operation: how many attempts, how long each attempt
// may run, and the pause between attempts
type Policy struct {
	Attempts int
	Window   time.Duration // per-attempt budget, 0 means no per-attempt deadline
	Delay    time.Duration // pause between attempts
}

// Run invokes op up to Attempts times, applying Window as a per-attempt
// context deadline and sleeping Delay between failures. The last error is
// returned when all attempts fail. A nil error from op stops immediately
func (p Policy) Run(ctx context.Context, op func(context.Context) error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	var last error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		actx := ctx
		var cancel context.CancelFunc
		if p.Window > 0 {
			actx, cancel = context.WithTimeout(ctx, p.Window)
		}
		err := op(actx)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return nil
		}
		last = err
		if i < attempts-1 && p.Delay > 0 {
			sleep(p.Delay)
		}
	}
	return last
}

// Wait is a bounded condition wait with an explicit pump cadence
type Wait struct {
	Total time.Duration
	Tick  time.Duration
}

// Until polls cond every Tick until it returns true or Total elapses.
// pump runs once per tick before the condition check so queued async results
// are dispatched even when cond never becomes true. Returns true when cond
// was met, false on timeout or context cancellation
func (w Wait) Until(ctx context.Context, cond func() bool, pump func()) bool {
	tick := w.Tick
	if tick <= 0 {
		tick = 50 * time.Millisecond
	}
	deadline := now().Add(w.Total)
	for {
		if pump != nil {
			pump()
		}
		if cond() {
			return true
		}
		if ctx.Err() != nil || !now().Before(deadline) {
			return false
		}
		sleep(tick)
	}
}

// Backoff returns an exponential delay for the given attempt: base shifted
// left per attempt, capped at cap (30s when cap is 0)
func Backoff(base time.Duration, attempt int, cap time.Duration) time.Duration {
	if base <= 0 {
		base = 250 * time.Millisecond
	}
	if cap <= 0 {
		cap = 30 * time.Second
	}
	ms := int64(base / time.Millisecond)
	ms = ms << uint(attempt)
	maxMs := int64(cap / time.Millisecond)
	if ms > maxMs || ms <= 0 {
		ms = maxMs
	}
	return time.Duration(ms) * time.Millisecond
}

// Exhausted wraps err as a probe timeout once a Policy runs dry, keeping the
// original cause in the chain. A nil err yields a bare timeout error
func Exhausted(err error, what string) error {
	if err == nil {
		return perr.ProbeTimeoutf("%s: attempts exhausted", what)
	}
	return perr.Wrapf(err, perr.ErrorCodeProbeTimeout, "%s: attempts exhausted", what)
}
