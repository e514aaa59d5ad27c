package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/courtwright/docket/internal/models"
	"github.com/courtwright/docket/internal/store"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.NewJSONFile(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	r, err := NewRouter(DefaultConfig(), st, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create router: %v", err)
	}
	return r
}

func TestRouterEndToEnd(t *testing.T) {
	r := newTestRouter(t)

	// Add a case.
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/add_schedule", strings.NewReader(`{"name": "State v. Doe", "date": "2025-06-01", "time": "09:00"}`))
	req.Header.Set("Content-Type", "application/json")
	r.Engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("add: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var addResp struct {
		Added models.Case `json:"added"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &addResp); err != nil {
		t.Fatal(err)
	}

	// It shows up on the schedule.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/schedule.json", nil)
	r.Engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), addResp.Added.ID) {
		t.Fatalf("schedule: expected case %s, got %s", addResp.Added.ID, w.Body.String())
	}

	// Archive it.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/api/archive_case", strings.NewReader(`{"id": "`+addResp.Added.ID+`", "result": "acquitted"}`))
	req.Header.Set("Content-Type", "application/json")
	r.Engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("archive: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Gone from the schedule, present in the archive.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/schedule.json", nil)
	r.Engine.ServeHTTP(w, req)
	if strings.Contains(w.Body.String(), addResp.Added.ID) {
		t.Fatal("archived case still on the schedule")
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/archive.json", nil)
	r.Engine.ServeHTTP(w, req)
	if !strings.Contains(w.Body.String(), addResp.Added.ID) || !strings.Contains(w.Body.String(), "acquitted") {
		t.Fatalf("archive: expected case with result, got %s", w.Body.String())
	}
}

func TestRouterHealthAndVersion(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	r.Engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/version", nil)
	r.Engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "dev") {
		t.Fatalf("version: expected dev build info, got %d %s", w.Code, w.Body.String())
	}
}

func TestRouterMetricsExposition(t *testing.T) {
	r := newTestRouter(t)

	// Generate one request so the counters exist.
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/schedule.json", nil)
	r.Engine.ServeHTTP(w, req)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/metrics", nil)
	r.Engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "docket_http_requests_total") {
		t.Fatal("expected request counter in exposition")
	}
	if !strings.Contains(body, "docket_active_cases") {
		t.Fatal("expected collection size gauge in exposition")
	}
}

func TestRouterInvalidRateLimitPeriod(t *testing.T) {
	gin.SetMode(gin.TestMode)
	st, err := store.NewJSONFile(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	cfg := DefaultConfig()
	cfg.RateLimitPeriod = "not-a-duration"
	if _, err := NewRouter(cfg, st, zerolog.Nop()); err == nil {
		t.Fatal("expected error for invalid rate limit period")
	}
}
