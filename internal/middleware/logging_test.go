package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogging(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantLog  string
		wantCode int
	}{
		{name: "ok", status: http.StatusOK, wantLog: "Request completed", wantCode: http.StatusOK},
		{name: "not found", status: http.StatusNotFound, wantLog: "Request failed", wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

			h := Logging(logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			assert.Equal(t, tt.wantCode, rr.Code)
			assert.Contains(t, buf.String(), tt.wantLog)
			assert.Contains(t, buf.String(), "path=/metrics")
		})
	}
}
