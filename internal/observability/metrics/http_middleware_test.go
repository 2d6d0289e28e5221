package metrics

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRouteLabel(t *testing.T) {
	cases := map[string]string{
		"/api/properties": "/api/properties",
		"/api/properties/4f3a2c1e-5b6d-4a7e-8f90-123456789abc":              "/api/properties/{id}",
		"/api/properties/4f3a2c1e-5b6d-4a7e-8f90-123456789abc/availability": "/api/properties/{id}/availability",
		"/property/9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d.jpg":                "/property/{file}",
		"/api/user/me": "/api/user/me",
		"/healthz":     "/healthz",
	}
	for in, want := range cases {
		if got := routeLabel(in); got != want {
			t.Fatalf("routeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStatusWriterCapturesStatus(t *testing.T) {
	handler := HTTPMetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/properties", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected status to pass through, got %d", rec.Code)
	}
}

type hijackableRecorder struct {
	*httptest.ResponseRecorder
	hijacked bool
}

func (r *hijackableRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	r.hijacked = true
	server, client := net.Pipe()
	client.Close()
	return server, bufio.NewReadWriter(bufio.NewReader(server), bufio.NewWriter(server)), nil
}

// The wrapped writer must stay hijackable or websocket upgrades fail with
// a 500 once the metrics middleware is in the chain.
func TestStatusWriterForwardsHijack(t *testing.T) {
	rec := &hijackableRecorder{ResponseRecorder: httptest.NewRecorder()}
	handler := HTTPMetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Fatalf("expected the wrapped writer to implement http.Hijacker")
		}
		conn, _, err := hj.Hijack()
		if err != nil {
			t.Fatalf("hijack failed: %v", err)
		}
		conn.Close()
	}))

	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/map", nil))
	if !rec.hijacked {
		t.Fatalf("expected hijack to reach the underlying writer")
	}
}

func TestStatusWriterHijackWithoutSupport(t *testing.T) {
	w := &statusWriter{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}
	if _, _, err := w.Hijack(); err == nil {
		t.Fatalf("expected an error when the underlying writer cannot hijack")
	}
}
