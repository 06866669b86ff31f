package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"modeld/internal/pool"
	"modeld/pkg/types"
)

type mockService struct {
	submitRes pool.Result
	submitErr error
	statusOne types.PoolStatus
	hasStatus bool
	statusAll types.RegistryStatus
	closeErr  error
	openErr   error
	drainErr  error
	reloadErr error
	ready     bool
}

func (m *mockService) Submit(name, job string, data map[string]any) (pool.Result, error) {
	return m.submitRes, m.submitErr
}
func (m *mockService) StatusOne(name string) (types.PoolStatus, bool) { return m.statusOne, m.hasStatus }
func (m *mockService) Status() types.RegistryStatus                  { return m.statusAll }
func (m *mockService) ClosePool(name string) error                   { return m.closeErr }
func (m *mockService) OpenPool(name string) error                    { return m.openErr }
func (m *mockService) DrainPool(name string) error                   { return m.drainErr }
func (m *mockService) ReloadPool(name string) error                  { return m.reloadErr }
func (m *mockService) Ready() bool                                   { return m.ready }

func TestSubmitHandlerSuccess(t *testing.T) {
	svc := &mockService{submitRes: pool.Result{Value: "ok"}}
	r := NewMux(svc)
	req := httptest.NewRequest(http.MethodPost, "/pools/ORDER/jobs", bytes.NewBufferString(`{"job":"addItem","data":{"sku":"x"}}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp types.SubmitResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.Value != "ok" {
		t.Fatalf("unexpected value: %+v", resp)
	}
}

func TestSubmitHandlerRequiresJob(t *testing.T) {
	svc := &mockService{}
	r := NewMux(svc)
	req := httptest.NewRequest(http.MethodPost, "/pools/ORDER/jobs", bytes.NewBufferString(`{"data":{}}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestSubmitHandlerUnsupportedMediaType(t *testing.T) {
	svc := &mockService{}
	r := NewMux(svc)
	req := httptest.NewRequest(http.MethodPost, "/pools/ORDER/jobs", bytes.NewBufferString(`{"job":"x"}`))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestSubmitHandlerBadJSON(t *testing.T) {
	svc := &mockService{}
	r := NewMux(svc)
	req := httptest.NewRequest(http.MethodPost, "/pools/ORDER/jobs", bytes.NewBufferString("not-json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestStatusOneHandler(t *testing.T) {
	svc := &mockService{statusOne: types.PoolStatus{Name: "ORDER", State: "open"}, hasStatus: true}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pools/ORDER/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var st types.PoolStatus
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("json: %v", err)
	}
	if st.Name != "ORDER" {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestStatusOneHandlerNotFound(t *testing.T) {
	svc := &mockService{hasStatus: false}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pools/MISSING/status", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestStatusAllHandler(t *testing.T) {
	svc := &mockService{statusAll: types.RegistryStatus{Pools: []types.PoolStatus{{Name: "A"}, {Name: "B"}}}}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var st types.RegistryStatus
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(st.Pools) != 2 {
		t.Fatalf("expected 2 pools, got %d", len(st.Pools))
	}
}

func TestLifecycleHandlersSucceed(t *testing.T) {
	for _, ep := range []string{"close", "open", "drain", "reload"} {
		svc := &mockService{}
		r := NewMux(svc)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/pools/ORDER/"+ep, nil))
		if w.Code != http.StatusNoContent {
			t.Fatalf("%s: status=%d", ep, w.Code)
		}
	}
}

func TestLifecycleHandlerMapsModelNotFound(t *testing.T) {
	svc := &mockService{closeErr: pool.ErrModelNotFound("GONE")}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/pools/GONE/close", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestReadyz(t *testing.T) {
	svc := &mockService{ready: true}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestReadyzNotReady(t *testing.T) {
	svc := &mockService{ready: false}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "loading") {
		t.Fatalf("body=%q", w.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	svc := &mockService{}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}
