package apihttp

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// ---------- CORS ----------

func TestCorsMiddleware_Origins(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    string
	}{
		{"nil whitelist reflects", nil, "http://example.com", "http://example.com"},
		{"empty whitelist reflects", []string{}, "http://anything.com", "http://anything.com"},
		{"whitelisted", []string{"http://a.com", "http://b.com"}, "http://b.com", "http://b.com"},
		{"rejected", []string{"http://a.com"}, "http://evil.com", ""},
		{"trailing slash trimmed", []string{"http://example.com/"}, "http://example.com", "http://example.com"},
		{"spaces trimmed", []string{"  http://example.com  "}, "http://example.com", "http://example.com"},
		{"same origin", []string{"http://a.com"}, "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := corsMiddleware(tc.allowed, okHandler())
			req := httptest.NewRequest(http.MethodGet, "/sharing", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tc.want {
				t.Errorf("ACAO = %q, want %q", got, tc.want)
			}
			if rec.Code != http.StatusOK {
				t.Errorf("expected handler to still execute, got %d", rec.Code)
			}
		})
	}
}

func TestCorsMiddleware_PreflightReturns204(t *testing.T) {
	called := false
	handler := corsMiddleware(nil, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/sharing/start", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 for preflight, got %d", rec.Code)
	}
	if called {
		t.Error("preflight should not call the next handler")
	}
	if rec.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("expected Allow-Methods header")
	}
}

// ---------- rate limit ----------

func TestRateLimitMiddleware_Returns429AfterBurst(t *testing.T) {
	handler := rateLimitMiddleware(0.001, 2, okHandler())

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sharing", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sharing", nil))

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "1" {
		t.Errorf("expected Retry-After: 1, got %q", got)
	}
}

func TestRateLimitMiddleware_SkipsHealthAndMetrics(t *testing.T) {
	handler := rateLimitMiddleware(0.001, 1, okHandler())
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/sharing", nil))

	for _, path := range []string{healthPath, "/metrics"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected bypass, got %d", path, rec.Code)
		}
	}
}

func TestRateLimitMiddleware_DisabledWhenZero(t *testing.T) {
	handler := rateLimitMiddleware(0, 0, okHandler())

	for i := 0; i < 50; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sharing", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}
}

// ---------- recovery ----------

func TestRecoveryMiddleware_CatchesPanic(t *testing.T) {
	for _, value := range []any{"test panic", fmt.Errorf("something went wrong")} {
		handler := recoveryMiddleware(slog.Default(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic(value)
		}))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sharing", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("panic %v: expected 500, got %d", value, rec.Code)
		}
	}
}

func TestRecoveryMiddleware_NoPanicPassesThrough(t *testing.T) {
	handler := recoveryMiddleware(slog.Default(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sharing", nil))

	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
}

// ---------- logging / responseWriter ----------

func TestLoggingMiddleware_PassesBody(t *testing.T) {
	handler := loggingMiddleware(slog.Default(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	}))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sharing", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "hello" {
		t.Errorf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
}

func TestResponseWriter_CapturesStatusAndSize(t *testing.T) {
	rw := &responseWriter{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}

	rw.WriteHeader(http.StatusNotFound)
	rw.Write([]byte("hello"))
	rw.Write([]byte(" world"))

	if rw.status != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rw.status)
	}
	if rw.size != 11 {
		t.Errorf("expected cumulative size 11, got %d", rw.size)
	}
}

type fakeHijacker struct {
	http.ResponseWriter
}

func (f *fakeHijacker) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return nil, nil, nil
}

func TestResponseWriter_Hijack(t *testing.T) {
	rw := &responseWriter{ResponseWriter: &fakeHijacker{ResponseWriter: httptest.NewRecorder()}}
	if _, _, err := rw.Hijack(); err != nil {
		t.Errorf("expected hijack to succeed, got %v", err)
	}

	rw = &responseWriter{ResponseWriter: httptest.NewRecorder()}
	if _, _, err := rw.Hijack(); err == nil {
		t.Error("expected error when underlying writer doesn't support Hijack")
	}
}

// ---------- helpers ----------

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		remoteAddr string
		want       string
	}{
		{"ipv4 peer", "", "192.168.0.5:5555", "192.168.0.5"},
		{"ipv6 peer", "", "[::1]:5555", "::1"},
		{"forwarding header ignored", "1.2.3.4", "127.0.0.1:4000", "127.0.0.1"},
		{"unparseable kept", "", "pipe", "pipe"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if got := clientIP(req); got != tc.want {
				t.Errorf("clientIP = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRequestLogLevel(t *testing.T) {
	tests := []struct {
		path   string
		status int
		want   slog.Level
	}{
		{"/sharing/start", 500, slog.LevelError},
		{"/sharing/stop", 409, slog.LevelWarn},
		{healthPath, 200, slog.LevelDebug},
		{"/sharing", 200, slog.LevelDebug},
		{"/sharing/start", 200, slog.LevelInfo},
	}
	for _, tc := range tests {
		if got := requestLogLevel(tc.path, tc.status); got != tc.want {
			t.Errorf("requestLogLevel(%q, %d) = %v, want %v", tc.path, tc.status, got, tc.want)
		}
	}
}

func TestNormalizeRoute(t *testing.T) {
	tests := map[string]string{
		"/media":            "/media",
		"/sharing/start":    "/sharing/start",
		"/sharing/history":  "/sharing/history",
		healthPath:          healthPath,
		"/something/random": "/other",
	}
	for path, want := range tests {
		if got := normalizeRoute(path); got != want {
			t.Errorf("normalizeRoute(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestMiddlewareChain_RecoveryOutermost(t *testing.T) {
	handler := recoveryMiddleware(slog.Default(),
		rateLimitMiddleware(100, 100,
			metricsMiddleware(
				corsMiddleware(nil,
					loggingMiddleware(slog.Default(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
						panic("deep panic")
					}))))))

	req := httptest.NewRequest(http.MethodGet, "/sharing", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 from recovery, got %d", rec.Code)
	}
}
