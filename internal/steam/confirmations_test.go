package steam

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Fantasim/looter/internal/config"
)

func newTestConfirmations(t *testing.T, srv *httptest.Server) *Confirmations {
	t.Helper()
	c := NewConfirmations(newTestSession(t, srv), testSecret)
	c.now = func() time.Time { return time.Unix(1700000000, 0) }
	return c
}

func TestConfirmations_Accept(t *testing.T) {
	var acted bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch r.URL.Path {
		case config.ConfirmationListPath:
			if q.Get("k") != "C3ExbE2xkrIyPjS2puSfKFqDM78=" || q.Get("tag") != "list" {
				t.Errorf("list query = %v", q)
			}
			if q.Get("p") != DeviceID(testSteamID) || q.Get("a") != testSteamID {
				t.Errorf("device params = %v", q)
			}
			fmt.Fprint(w, `{"success":true,"conf":[
				{"id":"11","nonce":"n11","creator_id":"999","type":2},
				{"id":"12","nonce":"n12","creator_id":"5555","type":2}
			]}`)
		case config.ConfirmationOpPath:
			if q.Get("cid") != "12" || q.Get("ck") != "n12" || q.Get("op") != "allow" {
				t.Errorf("op query = %v", q)
			}
			if q.Get("k") != "+DyBq65u5ZJKRi75PrLwE9vklmc=" {
				t.Errorf("op key = %q", q.Get("k"))
			}
			acted = true
			fmt.Fprint(w, `{"success":true}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	if err := newTestConfirmations(t, srv).AcceptConfirmation(context.Background(), "5555"); err != nil {
		t.Fatalf("AcceptConfirmation() error = %v", err)
	}
	if !acted {
		t.Error("confirmation was not acted on")
	}
}

func TestConfirmations_NotListed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"conf":[]}`)
	}))
	defer srv.Close()

	err := newTestConfirmations(t, srv).AcceptConfirmation(context.Background(), "5555")
	if !errors.Is(err, config.ErrConfirmationNotApplicable) {
		t.Fatalf("error = %v, want ErrConfirmationNotApplicable", err)
	}
}

func TestConfirmations_Refused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == config.ConfirmationListPath {
			fmt.Fprint(w, `{"success":true,"conf":[{"id":"1","nonce":"n","creator_id":"5555"}]}`)
			return
		}
		fmt.Fprint(w, `{"success":false,"message":"busy"}`)
	}))
	defer srv.Close()

	err := newTestConfirmations(t, srv).AcceptConfirmation(context.Background(), "5555")
	if !errors.Is(err, config.ErrConfirmationNotApplicable) {
		t.Fatalf("error = %v, want ErrConfirmationNotApplicable", err)
	}
	if !strings.Contains(err.Error(), config.ConfirmationNotActMsg) {
		t.Errorf("error %q should carry the platform text", err)
	}
}

func TestConfirmations_ListFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":false,"message":"Invalid authenticator"}`)
	}))
	defer srv.Close()

	err := newTestConfirmations(t, srv).AcceptConfirmation(context.Background(), "5555")
	if err == nil || errors.Is(err, config.ErrConfirmationNotApplicable) {
		t.Fatalf("error = %v, want a plain failure", err)
	}
}

func TestConfirmations_AcknowledgeNewOffer(t *testing.T) {
	var gotForm, gotReferer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != config.AcknowledgePath || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		r.ParseForm()
		gotForm = r.PostForm.Get("message")
		gotReferer = r.Header.Get("Referer")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	status, err := newTestConfirmations(t, srv).AcknowledgeNewOffer(context.Background())
	if err != nil {
		t.Fatalf("AcknowledgeNewOffer() error = %v", err)
	}
	if status != http.StatusOK {
		t.Errorf("status = %d", status)
	}
	if gotForm != "1" || gotReferer != srv.URL {
		t.Errorf("message=%q referer=%q", gotForm, gotReferer)
	}
}
