package metric

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, r *Registry) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if r.registry == nil {
		t.Error("registry field is nil")
	}
	if r.RequestsTotal == nil {
		t.Error("RequestsTotal is nil")
	}
	if r.RequestDuration == nil {
		t.Error("RequestDuration is nil")
	}
	if r.ConnectionsTotal == nil {
		t.Error("ConnectionsTotal is nil")
	}
}

func TestGlobal(t *testing.T) {
	r1 := Global()
	r2 := Global()
	if r1 != r2 {
		t.Error("Global() should return the same instance")
	}
}

func TestHandler(t *testing.T) {
	h := Handler()
	if h == nil {
		t.Fatal("Handler() returned nil")
	}

	body := scrape(t, Global())

	// Check for Go runtime metrics (from GoCollector)
	if !strings.Contains(body, "go_goroutines") {
		t.Error("expected go_goroutines metric")
	}
	// Check for process metrics (from ProcessCollector)
	if !strings.Contains(body, "process_") {
		t.Error("expected process metrics")
	}
}

func TestRequestMetrics(t *testing.T) {
	r := NewRegistry()

	r.ObserveRequest("REGISTER", "ok", 2*time.Millisecond)
	r.ObserveRequest("REGISTER", "ok", time.Millisecond)
	r.ObserveRequest("PUBLISH", "already_exists", time.Millisecond)

	body := scrape(t, r)

	if !strings.Contains(body, `dirmesh_requests_total{op="REGISTER",status="ok"} 2`) {
		t.Error("expected dirmesh_requests_total for REGISTER ok")
	}
	if !strings.Contains(body, `dirmesh_requests_total{op="PUBLISH",status="already_exists"} 1`) {
		t.Error("expected dirmesh_requests_total for PUBLISH already_exists")
	}
	if !strings.Contains(body, `dirmesh_request_duration_seconds_count{op="REGISTER"} 2`) {
		t.Error("expected dirmesh_request_duration_seconds_count for REGISTER")
	}
}

func TestConnectionMetrics(t *testing.T) {
	r := NewRegistry()

	r.ConnectionAccepted()
	r.ConnectionAccepted()
	r.ConnectionRejected("rate_limited")
	r.ProtocolError("await_operation")

	body := scrape(t, r)

	if !strings.Contains(body, "dirmesh_connections_total 2") {
		t.Error("expected dirmesh_connections_total 2")
	}
	if !strings.Contains(body, `dirmesh_connections_rejected_total{reason="rate_limited"} 1`) {
		t.Error("expected dirmesh_connections_rejected_total for rate_limited")
	}
	if !strings.Contains(body, `dirmesh_protocol_errors_total{state="await_operation"} 1`) {
		t.Error("expected dirmesh_protocol_errors_total for await_operation")
	}
}

type fixedCounter struct {
	n   int
	err error
}

func (f fixedCounter) CountActive(context.Context) (int, error) { return f.n, f.err }

func TestCollector(t *testing.T) {
	r := NewRegistry()
	r.Registerer().MustRegister(NewCollector(fixedCounter{n: 3}))

	body := scrape(t, r)
	if !strings.Contains(body, "dirmesh_active_sessions 3") {
		t.Error("expected dirmesh_active_sessions 3")
	}
}

func TestCollector_Error(t *testing.T) {
	r := NewRegistry()
	r.Registerer().MustRegister(NewCollector(fixedCounter{err: errors.New("store unreadable")}))

	if _, err := r.Gatherer().Gather(); err == nil {
		t.Error("Gather() expected error from failing collector")
	}
}

func TestConcurrentMetricUpdates(t *testing.T) {
	r := NewRegistry()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				r.ConnectionAccepted()
				r.ObserveRequest("LIST_USERS", "ok", time.Microsecond)
			}
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	body := scrape(t, r)
	if !strings.Contains(body, "dirmesh_connections_total 1000") {
		t.Error("expected dirmesh_connections_total 1000")
	}
}
