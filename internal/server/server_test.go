package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/agbru/taskcoord/internal/orchestration"
	"github.com/agbru/taskcoord/internal/state"
	"github.com/agbru/taskcoord/internal/statebus"
)

// blockingSleeper parks every iteration until the context is cancelled.
func blockingSleeper(ctx context.Context, _ time.Duration) error {
	<-ctx.Done()
	return ctx.Err()
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *orchestration.Coordinator, *statebus.Bus, *httptest.Server) {
	t.Helper()
	bus := statebus.New(statebus.WithBufferSize(256))
	coord := orchestration.NewCoordinator(bus,
		orchestration.WithSleeper(blockingSleeper),
		orchestration.WithOperations(orchestration.NewOpA(time.Millisecond), orchestration.NewOpB(time.Millisecond)))
	s := New(coord, bus, nil, append([]Option{WithLogger(newTestLogger())}, opts...)...)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		coord.Close()
		bus.Close()
	})
	return s, coord, bus, ts
}

func call(t *testing.T, method, url string) (int, statusResponse) {
	t.Helper()
	req, err := http.NewRequest(method, url, http.NoBody)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	var body statusResponse
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp.StatusCode, body
}

func TestControlEndpoints(t *testing.T) {
	_, coord, _, ts := newTestServer(t)

	code, body := call(t, "GET", ts.URL+"/task")
	if code != http.StatusOK || body.Status != StatusIdle || body.TaskID != "" {
		t.Errorf("GET /task before start = %d %+v", code, body)
	}

	code, body = call(t, "POST", ts.URL+"/task/start")
	if code != http.StatusAccepted || body.Status != StatusStarted {
		t.Fatalf("POST /task/start = %d %+v", code, body)
	}
	if _, err := uuid.Parse(body.TaskID); err != nil {
		t.Errorf("task_id %q is not a UUID", body.TaskID)
	}
	started := body.TaskID

	code, body = call(t, "GET", ts.URL+"/task")
	if code != http.StatusOK || body.Status != StatusRunning || body.TaskID != started {
		t.Errorf("GET /task while running = %d %+v", code, body)
	}

	code, body = call(t, "POST", ts.URL+"/task/cancel")
	if code != http.StatusAccepted || body.Status != StatusCancelling || body.TaskID != started {
		t.Errorf("POST /task/cancel = %d %+v", code, body)
	}

	deadline := time.Now().Add(2 * time.Second)
	for coord.Active() {
		if time.Now().After(deadline) {
			t.Fatal("task did not stop after cancel")
		}
		time.Sleep(time.Millisecond)
	}

	code, body = call(t, "GET", ts.URL+"/task")
	if body.Status != StatusDone || body.TaskID != started {
		t.Errorf("GET /task after cancel = %d %+v", code, body)
	}

	code, body = call(t, "POST", ts.URL+"/task/cancel")
	if code != http.StatusAccepted || body.Status != StatusIdle {
		t.Errorf("second cancel = %d %+v", code, body)
	}

	code, body = call(t, "POST", ts.URL+"/text/clear")
	if code != http.StatusAccepted || body.Status != StatusCleared {
		t.Errorf("POST /text/clear = %d %+v", code, body)
	}

	code, body = call(t, "POST", ts.URL+"/fetch")
	if code != http.StatusAccepted || body.Status != StatusFetching {
		t.Errorf("POST /fetch = %d %+v", code, body)
	}

	code, body = call(t, "GET", ts.URL+"/healthz")
	if code != http.StatusOK || body.Status != StatusOK {
		t.Errorf("GET /healthz = %d %+v", code, body)
	}
}

func TestRoutesRejectWrongMethods(t *testing.T) {
	_, _, _, ts := newTestServer(t)
	tests := []struct {
		method, path string
	}{
		{"GET", "/task/start"},
		{"GET", "/fetch"},
		{"POST", "/task"},
		{"DELETE", "/text/clear"},
		{"POST", "/metrics"},
	}
	for _, tt := range tests {
		if code, _ := call(t, tt.method, ts.URL+tt.path); code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s = %d, want 405", tt.method, tt.path, code)
		}
	}
	if code, _ := call(t, "GET", ts.URL+"/nope"); code != http.StatusNotFound {
		t.Errorf("unknown route = %d, want 404", code)
	}
}

func TestClosedCoordinatorReturnsUnavailable(t *testing.T) {
	_, coord, _, ts := newTestServer(t)
	coord.Close()

	for _, path := range []string{"/task/start", "/fetch"} {
		if code, _ := call(t, "POST", ts.URL+path); code != http.StatusServiceUnavailable {
			t.Errorf("POST %s after close = %d, want 503", path, code)
		}
	}
}

// request sends method to url with an optional Origin and returns the
// response headers and status. Streaming bodies are abandoned.
func request(t *testing.T, method, url, origin string) (int, http.Header) {
	t.Helper()
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, method, url, http.NoBody)
	if err != nil {
		t.Fatal(err)
	}
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	resp.Body.Close()
	return resp.StatusCode, resp.Header
}

func TestDefaultSecurityConfig(t *testing.T) {
	c := DefaultSecurityConfig()
	if !c.EnableCORS || !slices.Equal(c.AllowedOrigins, []string{"*"}) {
		t.Errorf("CORS defaults = %v %v", c.EnableCORS, c.AllowedOrigins)
	}
	if !slices.Equal(c.AllowedMethods, []string{"GET", "POST", "OPTIONS"}) {
		t.Errorf("AllowedMethods = %v", c.AllowedMethods)
	}
	if c.MaxEventStreams != DefaultMaxEventStreams {
		t.Errorf("MaxEventStreams = %d", c.MaxEventStreams)
	}
}

func TestRoutesCarrySecurityHeaders(t *testing.T) {
	_, _, _, ts := newTestServer(t)
	want := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"X-XSS-Protection":        "1; mode=block",
		"Referrer-Policy":         "strict-origin-when-cross-origin",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
	}
	routes := []struct{ method, path string }{
		{"POST", "/task/start"},
		{"POST", "/task/cancel"},
		{"GET", "/events"},
		{"GET", "/healthz"},
		{"DELETE", "/task"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			_, h := request(t, rt.method, ts.URL+rt.path, "")
			for name, value := range want {
				if got := h.Get(name); got != value {
					t.Errorf("%s = %q, want %q", name, got, value)
				}
			}
		})
	}
}

func TestCORSOnControlRoutes(t *testing.T) {
	tests := []struct {
		name       string
		config     SecurityConfig
		origin     string
		wantOrigin string
	}{
		{"disabled", SecurityConfig{}, "http://ui.local", ""},
		{"wildcard", DefaultSecurityConfig(), "http://ui.local", "*"},
		{"wildcard without origin", DefaultSecurityConfig(), "", "*"},
		{"listed origin", SecurityConfig{EnableCORS: true, AllowedOrigins: []string{"http://a.local", "http://ui.local"}, AllowedMethods: []string{"POST"}}, "http://ui.local", "http://ui.local"},
		{"unlisted origin", SecurityConfig{EnableCORS: true, AllowedOrigins: []string{"http://a.local"}, AllowedMethods: []string{"POST"}}, "http://ui.local", ""},
		{"listed origins without origin", SecurityConfig{EnableCORS: true, AllowedOrigins: []string{"http://a.local"}}, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, ts := newTestServer(t, WithSecurityConfig(tt.config))
			for _, rt := range []struct{ method, path string }{{"POST", "/task/start"}, {"GET", "/events"}} {
				_, h := request(t, rt.method, ts.URL+rt.path, tt.origin)
				if got := h.Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
					t.Errorf("%s %s: Access-Control-Allow-Origin = %q, want %q", rt.method, rt.path, got, tt.wantOrigin)
				}
				if tt.wantOrigin == "" {
					continue
				}
				if h.Get("Access-Control-Allow-Headers") != "Content-Type, Last-Event-ID" || h.Get("Access-Control-Max-Age") != "86400" {
					t.Errorf("%s %s: incomplete CORS headers %v", rt.method, rt.path, h)
				}
			}
		})
	}
}

func TestPreflightDoesNotReachHandlers(t *testing.T) {
	_, coord, _, ts := newTestServer(t)
	for _, path := range []string{"/task/start", "/fetch", "/events"} {
		code, h := request(t, "OPTIONS", ts.URL+path, "http://ui.local")
		if code != http.StatusNoContent {
			t.Errorf("OPTIONS %s = %d, want 204", path, code)
		}
		if got := h.Get("Access-Control-Allow-Methods"); got != "GET, POST, OPTIONS" {
			t.Errorf("OPTIONS %s: Access-Control-Allow-Methods = %q", path, got)
		}
	}
	if coord.Active() {
		t.Error("a preflight must not start the task")
	}
	if id, _ := coord.TaskID(); id != uuid.Nil {
		t.Errorf("no task should have been started, got %s", id)
	}
}

func TestMetricsEndpointCountsRequests(t *testing.T) {
	_, _, _, ts := newTestServer(t)
	call(t, "POST", ts.URL+"/task/start")

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var b strings.Builder
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		b.WriteString(sc.Text() + "\n")
	}
	body := b.String()
	if !strings.Contains(body, `taskcoord_requests_total{code="202",method="POST"} 1`) {
		t.Errorf("metrics missing request count:\n%s", body)
	}
}

// sseEvent is one parsed server-sent event.
type sseEvent struct {
	name string
	data eventPayload
}

func readEvent(t *testing.T, sc *bufio.Scanner) sseEvent {
	t.Helper()
	var ev sseEvent
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if ev.name != "" {
				return ev
			}
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev.data); err != nil {
				t.Fatalf("bad data line %q: %v", line, err)
			}
		}
	}
	t.Fatalf("stream ended: %v", sc.Err())
	return ev
}

func TestEventsStreamsStates(t *testing.T) {
	_, _, bus, ts := newTestServer(t)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, "GET", ts.URL+"/events", http.NoBody)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	bus.Emit(state.Running())
	bus.Emit(state.NewData("Running task 1\n"))
	bus.Emit(state.Cancelled())

	sc := bufio.NewScanner(resp.Body)
	want := []struct{ name, line string }{
		{"Running", "Task started\n"},
		{"NewData", "Running task 1\n"},
		{"Cancelled", "Task was cancelled\n"},
	}
	for _, w := range want {
		ev := readEvent(t, sc)
		if ev.name != w.name || ev.data.Kind != w.name || ev.data.Line != w.line {
			t.Errorf("event = %+v, want %s %q", ev, w.name, w.line)
		}
	}
}

func TestEventsStreamLimit(t *testing.T) {
	s, _, _, ts := newTestServer(t, WithSecurityConfig(SecurityConfig{MaxEventStreams: 1}))

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, "GET", ts.URL+"/events", http.NoBody)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if s.Streams() != 1 {
		t.Fatalf("Streams = %d, want 1", s.Streams())
	}

	if code, _ := call(t, "GET", ts.URL+"/events"); code != http.StatusServiceUnavailable {
		t.Errorf("second stream = %d, want 503", code)
	}
}

func TestEventsStreamEndsWithBus(t *testing.T) {
	_, _, bus, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/events")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	bus.Close()
	done := make(chan struct{})
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end after bus close")
	}
}

func TestServeShutsDownGracefully(t *testing.T) {
	bus := statebus.New()
	defer bus.Close()
	coord := orchestration.NewCoordinator(bus)
	defer coord.Close()
	s := New(coord, bus, nil, WithLogger(newTestLogger()), WithShutdownTimeout(time.Second))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String()
	if code, _ := call(t, "GET", url+"/healthz"); code != http.StatusOK {
		t.Fatalf("healthz = %d", code)
	}

	// An open event stream must not hold shutdown past its context.
	resp, err := http.Get(url + "/events")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}

func TestStartReportsListenError(t *testing.T) {
	bus := statebus.New()
	defer bus.Close()
	coord := orchestration.NewCoordinator(bus)
	defer coord.Close()
	s := New(coord, bus, nil, WithAddr("256.0.0.1:bad"))
	if err := s.Start(t.Context()); err == nil || !strings.Contains(err.Error(), "listen on") {
		t.Errorf("Start = %v, want listen error", err)
	}
}
