package steam

import (
	"net/http/httptest"
	"testing"

	"github.com/Fantasim/looter/internal/throttle"
)

const testSteamID = "76561198000000000"

// newTestSession returns a logged-in looking session aimed at srv.
func newTestSession(t *testing.T, srv *httptest.Server) *Session {
	t.Helper()
	s, err := NewSession(Endpoints{Community: srv.URL, WebAPI: srv.URL, Login: srv.URL})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	s.client.Transport = srv.Client().Transport
	s.limiter = throttle.NewRateLimiter("test", 1000)
	s.steamID = testSteamID
	s.account = "tester"
	return s
}
