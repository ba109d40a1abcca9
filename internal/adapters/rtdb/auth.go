package rtdb

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	perr "footfall/internal/platform/errors"
)

// signInRequest is the identity-toolkit password grant
type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	IDToken   string `json:"idToken"`
	ExpiresIn string `json:"expiresIn"` // seconds, as a string
	LocalID   string `json:"localId"`
}

// Authenticate exchanges the device credential for an id token and installs
// it on the client. Returns the token lifetime so callers can log it
func (c *Client) Authenticate(ctx context.Context, email, password string) (time.Duration, error) {
	body, err := json.Marshal(signInRequest{Email: email, Password: password, ReturnSecureToken: true})
	if err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeJSON, "rtdb sign-in marshal")
	}

	url := c.opts.AuthURL + "?key=" + c.opts.APIKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeUnknown, "rtdb sign-in request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeAuthNotReady, "rtdb sign-in transport")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		tail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, perr.AuthNotReadyf("rtdb sign-in status %d body %s", resp.StatusCode, string(tail))
	}

	var sr signInResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&sr); err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeMalformedResponse, "rtdb sign-in decode")
	}
	if sr.IDToken == "" {
		return 0, perr.Malformedf("rtdb sign-in response carried no token")
	}

	ttl := time.Hour
	if secs, err := strconv.Atoi(sr.ExpiresIn); err == nil && secs > 0 {
		ttl = time.Duration(secs) * time.Second
	}
	c.tok.Store(&token{value: sr.IDToken, exp: c.now().Add(ttl)})
	c.log.Info().Str("uid", sr.LocalID).Dur("ttl", ttl).Msg("rtdb authenticated")
	return ttl, nil
}
