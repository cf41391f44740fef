package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/georgejguo/retimer-core/internal/infrastructure/config"
	"github.com/georgejguo/retimer-core/internal/infrastructure/logging"
	"github.com/georgejguo/retimer-core/internal/retimer"
)

// mapSource is a PropertySource backed by a map keyed on node path.
type mapSource map[string]map[string][]byte

func (m mapSource) LookupProperty(node, key string) ([]byte, bool) {
	props, ok := m[node]
	if !ok {
		return nil, false
	}
	v, ok := props[key]
	return v, ok
}

// newTestServer builds a server with a fresh registry and no audit repository.
func newTestServer(t *testing.T, source retimer.PropertySource, maxIDs int) (*Server, http.Handler) {
	t.Helper()

	logger := logging.New(config.LoggingConfig{Level: "error", Format: "text"}, "test")
	srv, err := New(Deps{
		Config:   config.APIConfig{Host: "127.0.0.1", Port: 0},
		WS:       config.WebSocketConfig{MaxMessageSize: 4096, PingInterval: 30, PongTimeout: 60},
		Logger:   logger,
		Registry: retimer.NewRegistry(source, maxIDs),
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	srv.hub = NewHub(srv.wsCfg, logger)
	return srv, srv.buildRouter()
}

func registerOne(t *testing.T, router http.Handler, parentName, parentNode string) retimerView {
	t.Helper()

	body, _ := json.Marshal(registerRequest{
		Parent: &retimer.Parent{Name: parentName, Node: parentNode},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/retimers", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /retimers status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var view retimerView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("unmarshalling response: %v", err)
	}
	return view
}

func TestHealthEndpoint(t *testing.T) {
	_, router := newTestServer(t, mapSource{}, 0)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshalling response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["live"] != float64(0) {
		t.Errorf("live = %v, want 0", body["live"])
	}
}

func TestRegisterRetimer(t *testing.T) {
	_, router := newTestServer(t, mapSource{}, 0)

	view := registerOne(t, router, "serdes0", "/soc/serdes@fd3c0000")

	if view.Name != "retimer0" {
		t.Errorf("name = %q, want retimer0", view.Name)
	}
	if view.ID != 0 {
		t.Errorf("id = %d, want 0", view.ID)
	}
	if view.Label != "unknown" {
		t.Errorf("label = %q, want unknown (no device tree entry)", view.Label)
	}

	second := registerOne(t, router, "serdes1", "/soc/serdes@fd3d0000")
	if second.Name != "retimer1" {
		t.Errorf("second name = %q, want retimer1", second.Name)
	}
}

func TestRegisterRetimerValidation(t *testing.T) {
	_, router := newTestServer(t, mapSource{}, 0)

	t.Run("invalid JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/retimers", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("missing parent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/retimers", strings.NewReader("{}"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestRegisterRetimerExhausted(t *testing.T) {
	_, router := newTestServer(t, mapSource{}, 1)

	registerOne(t, router, "serdes0", "/soc/serdes@fd3c0000")

	body, _ := json.Marshal(registerRequest{Parent: &retimer.Parent{Name: "serdes1"}})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/retimers", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409 when identifier space is exhausted", rec.Code)
	}
}

func TestListRetimers(t *testing.T) {
	_, router := newTestServer(t, mapSource{}, 0)

	registerOne(t, router, "serdes0", "/soc/a")
	registerOne(t, router, "serdes1", "/soc/b")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/retimers", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Retimers []retimerView `json:"retimers"`
		Count    int           `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshalling response: %v", err)
	}
	if body.Count != 2 {
		t.Errorf("count = %d, want 2", body.Count)
	}
	if len(body.Retimers) != 2 || body.Retimers[0].Name != "retimer0" || body.Retimers[1].Name != "retimer1" {
		t.Errorf("retimers = %+v, want retimer0 then retimer1", body.Retimers)
	}
}

func TestGetRetimer(t *testing.T) {
	_, router := newTestServer(t, mapSource{}, 0)
	registerOne(t, router, "serdes0", "/soc/serdes@fd3c0000")

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/retimers/retimer0", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var view retimerView
		if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if view.Parent == nil || view.Parent.Node != "/soc/serdes@fd3c0000" {
			t.Errorf("parent = %+v, want node /soc/serdes@fd3c0000", view.Parent)
		}
	})

	t.Run("unknown name", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/retimers/retimer42", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("malformed name", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/retimers/timer0", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestUnregisterRetimer(t *testing.T) {
	_, router := newTestServer(t, mapSource{}, 0)
	registerOne(t, router, "serdes0", "/soc/a")

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/retimers/retimer0", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want 204", rec.Code)
	}

	// Gone now
	req = httptest.NewRequest(http.MethodGet, "/api/v1/retimers/retimer0", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET after delete status = %d, want 404", rec.Code)
	}

	// Identifier is reusable
	view := registerOne(t, router, "serdes1", "/soc/b")
	if view.Name != "retimer0" {
		t.Errorf("name after reuse = %q, want retimer0", view.Name)
	}
}

func TestGetLabel(t *testing.T) {
	source := mapSource{
		"/soc/serdes@fd3c0000": {
			"label": append([]byte("east-link"), 0),
		},
	}
	_, router := newTestServer(t, source, 0)
	registerOne(t, router, "serdes0", "/soc/serdes@fd3c0000")
	registerOne(t, router, "serdes1", "/soc/other")

	t.Run("configured label", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/retimers/retimer0/label", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
			t.Errorf("Content-Type = %q, want text/plain", ct)
		}
		if got := rec.Body.String(); got != "east-link\n" {
			t.Errorf("body = %q, want %q", got, "east-link\n")
		}
	})

	t.Run("fallback label", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/retimers/retimer1/label", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if got := rec.Body.String(); got != "unknown\n" {
			t.Errorf("body = %q, want %q", got, "unknown\n")
		}
	})
}

func TestAuditEndpointWithoutRepository(t *testing.T) {
	_, router := newTestServer(t, mapSource{}, 0)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Entries []any `json:"entries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshalling response: %v", err)
	}
	if len(body.Entries) != 0 {
		t.Errorf("entries = %v, want empty", body.Entries)
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	logger := logging.New(config.LoggingConfig{Level: "error", Format: "text"}, "test")

	if _, err := New(Deps{Registry: retimer.NewRegistry(nil, 0)}); err == nil {
		t.Error("New() without logger should fail")
	}
	if _, err := New(Deps{Logger: logger}); err == nil {
		t.Error("New() without registry should fail")
	}
}
