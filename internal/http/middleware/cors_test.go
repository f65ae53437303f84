package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		allowed     []string
		method      string
		origin      string
		preflight   bool
		wantOrigin  string
		wantStatus  int
		wantHandler bool
	}{
		{
			name:        "listed origin",
			allowed:     []string{"https://scalpcarolinas.com"},
			method:      http.MethodPost,
			origin:      "https://scalpcarolinas.com",
			wantOrigin:  "https://scalpcarolinas.com",
			wantStatus:  http.StatusOK,
			wantHandler: true,
		},
		{
			name:        "configured with trailing slash",
			allowed:     []string{"https://scalpcarolinas.com/"},
			method:      http.MethodGet,
			origin:      "https://scalpcarolinas.com",
			wantOrigin:  "https://scalpcarolinas.com",
			wantStatus:  http.StatusOK,
			wantHandler: true,
		},
		{
			name:        "unknown origin",
			allowed:     []string{"https://scalpcarolinas.com"},
			method:      http.MethodGet,
			origin:      "https://unknown.example",
			wantStatus:  http.StatusOK,
			wantHandler: true,
		},
		{
			name:        "wildcard",
			allowed:     []string{"*"},
			method:      http.MethodGet,
			origin:      "https://random.example",
			wantOrigin:  "https://random.example",
			wantStatus:  http.StatusOK,
			wantHandler: true,
		},
		{
			name:       "preflight",
			allowed:    []string{"https://scalpcarolinas.com"},
			method:     http.MethodOptions,
			origin:     "https://scalpcarolinas.com",
			preflight:  true,
			wantOrigin: "https://scalpcarolinas.com",
			wantStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			})
			req := httptest.NewRequest(tt.method, "/sessions", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", "POST")
			}
			rec := httptest.NewRecorder()

			CORS(tt.allowed)(next).ServeHTTP(rec, req)

			if called != tt.wantHandler {
				t.Fatalf("handler called = %v, want %v", called, tt.wantHandler)
			}
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Fatalf("allow origin = %q, want %q", got, tt.wantOrigin)
			}
			if tt.wantOrigin != "" && rec.Header().Get("Access-Control-Allow-Methods") == "" {
				t.Fatalf("expected allow methods header")
			}
		})
	}
}
