package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracingAcceptsWellFormedRequestID(t *testing.T) {
	supplied := uuid.New().String()

	var seen string
	h := Tracing(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil)
	req.Header.Set("X-Request-ID", supplied)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, supplied, seen)
	assert.Equal(t, supplied, rec.Header().Get("X-Request-ID"))
}

func TestTracingReplacesMalformedRequestID(t *testing.T) {
	tests := []struct {
		name     string
		supplied string
	}{
		{name: "missing", supplied: ""},
		{name: "free text", supplied: "not-a-uuid"},
		{name: "injection attempt", supplied: "abc\nactor=admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := Tracing(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = TraceIDFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil)
			if tt.supplied != "" {
				req.Header.Set("X-Request-ID", tt.supplied)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.NotEqual(t, tt.supplied, seen)
			_, err := uuid.Parse(seen)
			assert.NoError(t, err, "a rejected id must be replaced with a generated uuid")
			assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
		})
	}
}
