package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"aquadash/internal/service"
)

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	r := newTestRouter(&service.Service{Realtime: &mockRealtime{}, Authorization: &mockAuth{parseUser: "admin"}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/relay/relay1/toggle", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	r := newTestRouter(&service.Service{Realtime: &mockRealtime{}, Authorization: &mockAuth{parseUser: "admin"}})

	for _, header := range []string{"tok-123", "Basic tok-123", "Bearertok-123"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/relay/relay1/toggle", nil)
		req.Header.Set("Authorization", header)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("header %q: expected 401, got %d", header, w.Code)
		}
	}
}

func TestAuthMiddleware_TokenPassedToParser(t *testing.T) {
	auth := &mockAuth{parseUser: "admin"}
	r := newTestRouter(&service.Service{Realtime: &mockRealtime{}, Authorization: auth})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/relay/relay1/toggle", nil)
	req.Header.Set("Authorization", "Bearer tok-123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	if auth.lastParseToken != "tok-123" {
		t.Fatalf("parsed token = %q, want tok-123", auth.lastParseToken)
	}
}
