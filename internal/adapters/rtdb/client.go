// Package rtdb talks to a Firebase-RTDB-style hierarchical key-value tree
// over its REST surface: GET/PUT {base}/{path}.json with an id-token auth
// query parameter. The Session type layers the async write façade the sync
// orchestrator pumps between scans
package rtdb

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	perr "footfall/internal/platform/errors"
	"footfall/internal/platform/logger"
	"footfall/internal/platform/retry"
)

const (
	defaultAuthURL   = "https://identitytoolkit.googleapis.com/v1/accounts:signInWithPassword"
	defaultTimeout   = 10 * time.Second
	defaultMaxRetry  = 3
	defaultRetryBase = 250 * time.Millisecond

	// tokenSkew retires an id token early so a write started near the
	// expiry cannot race the server-side cutoff
	tokenSkew = 60 * time.Second
)

// Options configures the Client
type Options struct {
	// BaseURL is the database root, https://<project>.firebasedatabase.app
	BaseURL string
	// APIKey is the identity-toolkit web API key used during sign-in
	APIKey string
	// AuthURL overrides the sign-in endpoint; tests point it at a local server
	AuthURL string

	Timeout    time.Duration
	MaxRetries int
	RetryBase  time.Duration
}

// token pairs an id token with its expiry
type token struct {
	value string
	exp   time.Time
}

// Client is a minimal REST client with transient-error retries. It is safe
// for concurrent use; the id token is swapped atomically by the auth flow
type Client struct {
	http  *http.Client
	opts  Options
	tok   atomic.Pointer[token]
	log   logger.Logger
	now   func() time.Time
	sleep func(time.Duration)
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	if o.AuthURL == "" {
		o.AuthURL = defaultAuthURL
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = defaultMaxRetry
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	o.BaseURL = strings.TrimSuffix(o.BaseURL, "/")
	return &Client{
		http:  &http.Client{Timeout: o.Timeout},
		opts:  o,
		log:   *logger.Named("rtdb"),
		now:   time.Now,
		sleep: time.Sleep,
	}
}

// TokenValid reports whether a usable id token is held
func (c *Client) TokenValid() bool {
	t := c.tok.Load()
	return t != nil && c.now().Before(t.exp.Add(-tokenSkew))
}

// url renders the REST form of a tree path, appending the auth parameter
// when a token is held
func (c *Client) url(path string) string {
	u := c.opts.BaseURL + "/" + strings.Trim(path, "/") + ".json"
	if t := c.tok.Load(); t != nil {
		u += "?auth=" + t.value
	}
	return u
}

// GetRaw fetches a tree path and returns the raw JSON value. An absent path
// reads as the literal "null"
func (c *Client) GetRaw(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeIO, "rtdb read %s", path)
	}
	return bytes.TrimSpace(body), nil
}

// GetInt64 reads an integer leaf. Absent paths ("null") read as zero, which
// is how a fresh day looks before the first write
func (c *Client) GetInt64(ctx context.Context, path string) (int64, error) {
	raw, err := c.GetRaw(ctx, path)
	if err != nil {
		return 0, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, perr.Malformedf("rtdb %s: not an integer: %.64s", path, raw)
	}
	return n, nil
}

// PutJSON writes v at a tree path and returns the payload size in bytes.
// Failures other than auth surface as RemoteWrite errors
func (c *Client) PutJSON(ctx context.Context, path string, v any) (int, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeJSON, "rtdb marshal for %s", path)
	}
	resp, err := c.do(ctx, http.MethodPut, c.url(path), payload)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeAuthNotReady) {
			return 0, err
		}
		return 0, perr.Wrapf(err, perr.ErrorCodeRemoteWrite, "rtdb put %s", path)
	}
	_ = drainAndClose(resp.Body)
	return len(payload), nil
}

// do issues a request with retries for transport errors and transient server
// statuses. The response body is the caller's to close on success
func (c *Client) do(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	attempts := 0
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		var rdr io.Reader
		if body != nil {
			rdr = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, rdr)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "rtdb new request failed")
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		start := c.now()
		resp, err := c.http.Do(req)
		lat := c.now().Sub(start)

		if err != nil {
			if !c.shouldRetry(attempts) {
				return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "rtdb do failed")
			}
			back := c.backoff(attempts)
			c.log.Warn().Dur("retry_in", back).Int("attempt", attempts).Msg("rtdb transport error retrying")
			c.sleep(back)
			attempts++
			continue
		}

		c.log.Debug().
			Str("method", method).
			Int("status", resp.StatusCode).
			Int("attempt", attempts).
			Dur("latency", lat).
			Msg("rtdb http response")

		switch resp.StatusCode {
		case http.StatusOK, http.StatusNoContent:
			return resp, nil
		case http.StatusUnauthorized, http.StatusForbidden:
			_ = drainAndClose(resp.Body)
			return nil, perr.AuthNotReadyf("rtdb rejected credentials (status %d)", resp.StatusCode)
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			if !c.shouldRetry(attempts) {
				_ = drainAndClose(resp.Body)
				return nil, perr.Unavailablef("rtdb transient status %d", resp.StatusCode)
			}
			back := c.backoff(attempts)
			c.log.Warn().Int("status", resp.StatusCode).Dur("retry_in", back).Msg("rtdb transient error retrying")
			_ = drainAndClose(resp.Body)
			c.sleep(back)
			attempts++
			continue
		default:
			// read a small tail for diagnostics then return
			tail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			_ = resp.Body.Close()
			return nil, perr.Newf(perr.ErrorCodeUnknown, "rtdb unexpected status %d body %s", resp.StatusCode, string(tail))
		}
	}
}

func (c *Client) backoff(attempt int) time.Duration {
	return retry.Backoff(c.opts.RetryBase, attempt, 30*time.Second)
}

func (c *Client) shouldRetry(attempt int) bool {
	return attempt < c.opts.MaxRetries
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 512))
	return rc.Close()
}
