package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		path   string
		htmx   bool
		logged []string
	}{
		{"/partials/comments", true, []string{"level=INFO", "path=/partials/comments", "status=200", "htmx=true"}},
		{"/missing", false, []string{"level=WARN", "status=404"}},
		{"/health", false, nil},
		{"/static/invitation.js", false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			buf.Reset()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.htmx {
				req.Header.Set("HX-Request", "true")
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			out := buf.String()
			if tt.logged == nil {
				if out != "" {
					t.Errorf("expected debug-only log, got %q", out)
				}
				return
			}
			for _, want := range tt.logged {
				if !strings.Contains(out, want) {
					t.Errorf("log %q missing %q", out, want)
				}
			}
		})
	}
}
