// Package steam talks to the trading platform: it logs in with a password and
// a TOTP guard code, enumerates inventories, sends trade offers and accepts
// their mobile confirmations.
package steam

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/Fantasim/looter/internal/config"
	"github.com/Fantasim/looter/internal/throttle"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

// Endpoints holds the base URLs of the services a session talks to.
type Endpoints struct {
	Community string
	WebAPI    string
	Login     string
}

// EndpointsFromConfig returns the endpoints configured for the process.
func EndpointsFromConfig(cfg *config.Config) Endpoints {
	return Endpoints{
		Community: strings.TrimRight(cfg.CommunityURL, "/"),
		WebAPI:    strings.TrimRight(cfg.WebAPIURL, "/"),
		Login:     strings.TrimRight(cfg.LoginURL, "/"),
	}
}

// Session is an authenticated web session. It is safe for concurrent use.
type Session struct {
	client    *http.Client
	endpoints Endpoints
	limiter   *throttle.RateLimiter

	account   string
	steamID   string
	sessionID string
}

// NewSession creates an unauthenticated session with its own cookie jar and
// a fresh community session ID.
func NewSession(endpoints Endpoints) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	sessionID, err := newSessionID()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	s := &Session{
		client: &http.Client{
			Jar:     jar,
			Timeout: config.SteamHTTPTimeout,
		},
		endpoints: endpoints,
		limiter:   throttle.NewRateLimiter("steam", config.InventoryRPS),
		sessionID: sessionID,
	}
	s.setCommunityCookie("sessionid", sessionID)

	return s, nil
}

// SteamID returns the 64-bit account ID, empty before login.
func (s *Session) SteamID() string { return s.steamID }

// SessionID returns the community session ID sent with form posts.
func (s *Session) SessionID() string { return s.sessionID }

// Account returns the login name the session was opened for.
func (s *Session) Account() string { return s.account }

func (s *Session) setCommunityCookie(name, value string) {
	u, err := url.Parse(s.endpoints.Community)
	if err != nil {
		return
	}
	s.client.Jar.SetCookies(u, []*http.Cookie{{
		Name:  name,
		Value: value,
		Path:  "/",
	}})
}

// newRequest builds a request with the headers every call carries.
func (s *Session) newRequest(ctx context.Context, method, rawURL string, form url.Values) (*http.Request, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", config.SteamUserAgent)
	req.Header.Set("Accept", "application/json, text/javascript, */*")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	}
	return req, nil
}

// doJSON executes req and decodes a 200 JSON body into out. Non-200 statuses
// are returned as errors; 429 and 5xx are marked transient.
func (s *Session) doJSON(req *http.Request, out interface{}) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return config.NewTransientError(fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", req.URL.Path, err)
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		retry := retryAfter(resp)
		slog.Warn("steam rate limited",
			"path", resp.Request.URL.Path,
			"retryAfter", retry,
		)
		return config.NewTransientErrorWithRetry(config.ErrRateLimited, retry)
	case resp.StatusCode >= http.StatusInternalServerError:
		return config.NewTransientError(fmt.Errorf("HTTP %d from %s", resp.StatusCode, resp.Request.URL.Path))
	default:
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, resp.Request.URL.Path)
	}
}

func newSessionID() (string, error) {
	b := make([]byte, config.SessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
