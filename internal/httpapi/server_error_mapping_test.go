package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"modeld/internal/pool"
)

func TestSubmit_QueueFullMaps429(t *testing.T) {
	svc := &mockService{submitErr: pool.ErrQueueFull("ORDER")}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/pools/ORDER/jobs", bytes.NewBufferString(`{"job":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
}

func TestSubmit_PoolDestroyedMaps409(t *testing.T) {
	svc := &mockService{submitErr: pool.ErrPoolDestroyed("ORDER")}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/pools/ORDER/jobs", bytes.NewBufferString(`{"job":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestSubmit_ModelNotFoundMaps404(t *testing.T) {
	svc := &mockService{submitErr: pool.ErrModelNotFound("m-missing")}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/pools/m-missing/jobs", bytes.NewBufferString(`{"job":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
