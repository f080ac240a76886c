package price

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Fantasim/looter/internal/config"
)

func newTestOracle(baseURL string) *MarketOracle {
	return NewMarketOracle(&http.Client{Timeout: 5 * time.Second}, baseURL, 1, 60000)
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		text   string
		want   float64
		wantOK bool
	}{
		{"$1.25", 1.25, true},
		{"1,25€", 1.25, true},
		{"$0.03 USD", 0.03, true},
		{"12 pуб.", 12, true},
		{"N/A", 0, false},
		{"", 0, false},
		{"free", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ParsePrice(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("ParsePrice(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParsePrice(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestLookup_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != config.MarketPricePath {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("appid") != "730" || q.Get("currency") != "1" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		if q.Get("market_hash_name") != "AK-47 | Redline (Field-Tested)" {
			t.Errorf("unexpected market_hash_name: %q", q.Get("market_hash_name"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"lowest_price":"$1.25","median_price":"$1.30","volume":"120"}`))
	}))
	defer srv.Close()

	p := newTestOracle(srv.URL).Lookup(context.Background(), "730", "AK-47 | Redline (Field-Tested)")
	if !p.Valid || p.Value != 1.25 || p.Text != "$1.25" {
		t.Errorf("Lookup() = %+v, want valid $1.25", p)
	}
}

func TestLookup_MedianFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"median_price":"$2.00"}`))
	}))
	defer srv.Close()

	p := newTestOracle(srv.URL).Lookup(context.Background(), "730", "Kilowatt Case")
	if !p.Valid || p.Value != 2 {
		t.Errorf("Lookup() = %+v, want median $2.00", p)
	}
}

func TestLookup_Unavailable(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{"not marketable", http.StatusOK, `{"success":false}`},
		{"no prices", http.StatusOK, `{"success":true}`},
		{"server error", http.StatusInternalServerError, ``},
		{"rate limited", http.StatusTooManyRequests, ``},
		{"malformed", http.StatusOK, `{broken`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.payload))
			}))
			defer srv.Close()

			p := newTestOracle(srv.URL).Lookup(context.Background(), "730", "Some Item")
			if p.Valid || p.Text != config.PriceUnavailable {
				t.Errorf("Lookup() = %+v, want unavailable", p)
			}
		})
	}
}

func TestLookup_EmptyNameSkipsRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	p := newTestOracle(srv.URL).Lookup(context.Background(), "730", "")
	if p.Valid {
		t.Errorf("Lookup(\"\") = %+v, want unavailable", p)
	}
	if calls.Load() != 0 {
		t.Errorf("expected no HTTP calls, got %d", calls.Load())
	}
}

func TestLookup_CacheHit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"success":true,"lowest_price":"$0.50"}`))
	}))
	defer srv.Close()

	o := newTestOracle(srv.URL)
	for i := 0; i < 3; i++ {
		o.Lookup(context.Background(), "730", "Sticker | Foo")
	}

	if calls.Load() != 1 {
		t.Errorf("expected 1 HTTP call (cache hit), got %d", calls.Load())
	}
}

func TestLookup_TimeoutResolvesUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	o := newTestOracle(srv.URL).WithTimeout(50 * time.Millisecond)

	start := time.Now()
	p := o.Lookup(context.Background(), "730", "Slow Item")
	if p.Valid {
		t.Errorf("Lookup() = %+v, want unavailable on timeout", p)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Lookup() took %s, want bounded by timeout", elapsed)
	}
}

func TestLookup_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	o := newTestOracle(srv.URL)
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for _, n := range names {
		o.Lookup(context.Background(), "730", n)
	}

	if got := calls.Load(); got != config.CircuitBreakerLimit {
		t.Errorf("expected %d HTTP calls before circuit opened, got %d", config.CircuitBreakerLimit, got)
	}
}

func TestGuardedFetch_ReturnsCircuitOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	o := newTestOracle(srv.URL)
	for i := 0; i < config.CircuitBreakerLimit; i++ {
		if _, err := o.guardedFetch(context.Background(), "730", "Recoil Case"); !errors.Is(err, config.ErrPriceUnavailable) {
			t.Fatalf("call %d: error = %v, want ErrPriceUnavailable", i+1, err)
		}
	}

	if _, err := o.guardedFetch(context.Background(), "730", "Recoil Case"); !errors.Is(err, config.ErrCircuitOpen) {
		t.Fatalf("error = %v, want ErrCircuitOpen", err)
	}
}
