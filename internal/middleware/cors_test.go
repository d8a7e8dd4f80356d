package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestParseAllowedOrigins(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "empty string",
			input: "",
			want:  []string{"*"},
		},
		{
			name:  "wildcard",
			input: "*",
			want:  []string{"*"},
		},
		{
			name:  "single origin",
			input: "http://localhost:3000",
			want:  []string{"http://localhost:3000"},
		},
		{
			name:  "multiple origins",
			input: "http://localhost:3000,http://localhost:4000",
			want:  []string{"http://localhost:3000", "http://localhost:4000"},
		},
		{
			name:  "multiple origins with spaces",
			input: "http://localhost:3000 , http://localhost:4000 , http://localhost:5000",
			want:  []string{"http://localhost:3000", "http://localhost:4000", "http://localhost:5000"},
		},
		{
			name:  "trailing comma",
			input: "http://localhost:4200,",
			want:  []string{"http://localhost:4200"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAllowedOrigins(tt.input)
			if len(got) != len(tt.want) {
				t.Errorf("ParseAllowedOrigins() length = %d, want %d", len(got), len(tt.want))
				return
			}

			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseAllowedOrigins()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name            string
		allowed         []string
		method          string
		origin          string
		wantStatus      int
		wantOrigin      string
		wantCredentials string
	}{
		{
			name:            "listed origin",
			allowed:         []string{"http://localhost:4200"},
			method:          http.MethodGet,
			origin:          "http://localhost:4200",
			wantStatus:      http.StatusOK,
			wantOrigin:      "http://localhost:4200",
			wantCredentials: "true",
		},
		{
			name:       "unlisted origin",
			allowed:    []string{"http://localhost:4200"},
			method:     http.MethodGet,
			origin:     "http://evil.example",
			wantStatus: http.StatusOK,
		},
		{
			name:       "wildcard without credentials",
			allowed:    []string{"*"},
			method:     http.MethodGet,
			origin:     "http://anywhere.example",
			wantStatus: http.StatusOK,
			wantOrigin: "*",
		},
		{
			name:            "preflight",
			allowed:         []string{"http://localhost:4200"},
			method:          http.MethodOptions,
			origin:          "http://localhost:4200",
			wantStatus:      http.StatusNoContent,
			wantOrigin:      "http://localhost:4200",
			wantCredentials: "true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CORS(tt.allowed))
			router.Any("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(tt.method, "/ping", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != tt.wantCredentials {
				t.Errorf("Allow-Credentials = %q, want %q", got, tt.wantCredentials)
			}
		})
	}
}
