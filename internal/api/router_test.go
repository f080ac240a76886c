package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Fantasim/looter/internal/config"
	"github.com/Fantasim/looter/internal/report"
)

func testConfig(dir string) *config.Config {
	return &config.Config{WorkDir: dir, Port: 8080, LogFormat: config.LogFormatJSON}
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Host = "127.0.0.1:8080"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewRouter_Routes(t *testing.T) {
	dir := t.TempDir()
	r := NewRouter(Deps{Config: testConfig(dir), Report: report.NewStore(dir)})

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/health", http.StatusOK},
		{http.MethodGet, "/api/report", http.StatusNotFound},
		{http.MethodGet, "/api/report/text", http.StatusNotFound},
		{http.MethodGet, "/api/runs", http.StatusNotFound},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodPost, "/api/report", http.StatusMethodNotAllowed},
	}

	for _, tc := range tests {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			if rec := serve(r, tc.method, tc.path); rec.Code != tc.want {
				t.Errorf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestNewRouter_RejectsForeignHost(t *testing.T) {
	dir := t.TempDir()
	r := NewRouter(Deps{Config: testConfig(dir), Report: report.NewStore(dir)})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Host = "example.com"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestNewRouter_MetricsExposition(t *testing.T) {
	dir := t.TempDir()
	r := NewRouter(Deps{Config: testConfig(dir), Report: report.NewStore(dir)})

	rec := serve(r, http.MethodGet, "/metrics")
	body := rec.Body.String()
	if !strings.Contains(body, "looter_report_up 0") {
		t.Errorf("metrics missing looter_report_up:\n%s", body)
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Error("metrics missing go collector output")
	}
}
