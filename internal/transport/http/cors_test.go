package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func teapot() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
}

func TestCORS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		origins     []string
		origin      string
		preflight   bool
		wantStatus  int
		wantAllowed string
	}{
		{name: "preflight allowed", origins: []string{"http://localhost:5173"}, origin: "http://localhost:5173", preflight: true, wantStatus: http.StatusNoContent, wantAllowed: "http://localhost:5173"},
		{name: "preflight forbidden", origins: []string{"http://localhost:5173"}, origin: "http://evil.local", preflight: true, wantStatus: http.StatusForbidden},
		{name: "wildcard", origins: []string{" * "}, origin: "http://any.local", preflight: true, wantStatus: http.StatusNoContent, wantAllowed: "*"},
		{name: "simple request passes through", origins: []string{"http://localhost:5173"}, origin: "http://localhost:5173", wantStatus: http.StatusTeapot, wantAllowed: "http://localhost:5173"},
		{name: "unknown origin passes through without headers", origins: []string{"http://localhost:5173"}, origin: "http://evil.local", wantStatus: http.StatusTeapot},
		{name: "no origin", origins: []string{"*"}, wantStatus: http.StatusTeapot},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			method := http.MethodPost
			if tt.preflight {
				method = http.MethodOptions
			}
			req := httptest.NewRequest(method, "/concerts/c1/orders", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rec := httptest.NewRecorder()

			CORS(tt.origins)(teapot()).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantAllowed, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
