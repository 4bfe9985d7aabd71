package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTimeout_SetsDeadline(t *testing.T) {
	var deadline time.Time
	var ok bool
	handler := Timeout(45 * time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
		w.WriteHeader(http.StatusOK)
	}))

	start := time.Now()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/invoices", nil))

	if !ok {
		t.Fatal("expected a deadline on the request context")
	}
	if remaining := deadline.Sub(start); remaining < 44*time.Second || remaining > 46*time.Second {
		t.Errorf("expected deadline about 45s ahead, got %v", remaining)
	}
}

func TestTimeout_NonPositiveLeavesContextAlone(t *testing.T) {
	var ok bool
	handler := Timeout(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = r.Context().Deadline()
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if ok {
		t.Error("expected no deadline for a zero timeout")
	}
}
