package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nidhogg/echoes/internal/agent"
	"github.com/nidhogg/echoes/internal/cache"
	"github.com/nidhogg/echoes/internal/config"
	"github.com/nidhogg/echoes/internal/ratelimit"
	"github.com/nidhogg/echoes/internal/songdb"
	"github.com/nidhogg/echoes/internal/store"
)

// stubAgent answers every query the same way, optionally reporting tool use
// or failing outright.
type stubAgent struct {
	answer string
	err    error
	tools  []string
}

func (a *stubAgent) Run(_ context.Context, query string, _ int) (*agent.RunResult, error) {
	if a.err != nil {
		return nil, a.err
	}
	steps := []agent.Step{{Step: 1, Type: agent.StepQuery, Content: query}}
	for _, tool := range a.tools {
		steps = append(steps, agent.Step{
			Step: len(steps) + 1, Type: agent.StepAction, Tool: tool,
			Input: map[string]interface{}{"query": query},
		})
	}
	steps = append(steps, agent.Step{Step: len(steps) + 1, Type: agent.StepSynthesis, Content: a.answer})
	return &agent.RunResult{
		Answer:   a.answer,
		Steps:    steps,
		Metadata: agent.Metadata{Iterations: 1, TotalSteps: len(steps)},
	}, nil
}

func (a *stubAgent) Variant() string { return agent.VariantCoT }

func stubBuilder(a *stubAgent) ExecutorBuilder {
	return func(model string, temperature float64) (*agent.Executor, error) {
		return agent.NewExecutor(a, model, zap.NewNop()), nil
	}
}

// newTestHandler wires a Handler with a seeded song catalog, a temp sqlite
// store, an in-memory cache, and no rate limiter.
func newTestHandler(t *testing.T, build ExecutorBuilder) *Handler {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.OpenAI.APIKey = "sk-test"
	cfg.Database.SongsPath = filepath.Join(dir, "songs.db")
	cfg.Database.Executions.Path = filepath.Join(dir, "executions.db")

	songs, err := songdb.Open(cfg.Database.SongsPath)
	if err != nil {
		t.Fatalf("open songdb: %v", err)
	}
	t.Cleanup(func() { songs.Close() })

	st, err := store.OpenSQLite(cfg.Database.Executions.Path, cfg.Database.Executions.RetentionDays, zap.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	qc := cache.NewMemory(cfg.Cache.MaxSize, time.Duration(cfg.Cache.TTLSeconds)*time.Second, zap.NewNop())

	if build == nil {
		build = stubBuilder(&stubAgent{answer: "stub answer"})
	}
	return New(cfg, songs, st, qc, nil, build, zap.NewNop())
}

func newTestServer(t *testing.T, build ExecutorBuilder) (*Handler, *httptest.Server) {
	t.Helper()
	h := newTestHandler(t, build)
	ts := httptest.NewServer(h.Router())
	t.Cleanup(ts.Close)
	return h, ts
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body interface{}) *http.Response {
	t.Helper()
	b, _ := json.Marshal(body)
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func getJSON(t *testing.T, ts *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func deleteReq(t *testing.T, ts *httptest.Server, path string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest("DELETE", ts.URL+path, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE %s: %v", path, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// --- Tests ---

func TestRoot(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp := getJSON(t, ts, "/")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Message   string            `json:"message"`
		Version   string            `json:"version"`
		Endpoints map[string]string `json:"endpoints"`
	}
	decodeJSON(t, resp, &body)
	if body.Message != "Echoes Agent API" {
		t.Errorf("message = %q", body.Message)
	}
	if body.Endpoints["agent"] != "/api/v1/agent/query" {
		t.Errorf("agent endpoint = %q", body.Endpoints["agent"])
	}
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, nil)

	for path, wantStatus := range map[string]string{
		"/health":      "healthy",
		"/health/live": "alive",
	} {
		resp := getJSON(t, ts, path)
		if resp.StatusCode != 200 {
			t.Fatalf("%s: expected 200, got %d", path, resp.StatusCode)
		}
		var body healthResponse
		decodeJSON(t, resp, &body)
		if body.Status != wantStatus {
			t.Errorf("%s: status = %q, want %q", path, body.Status, wantStatus)
		}
		if body.Version != apiVersion {
			t.Errorf("%s: version = %q", path, body.Version)
		}
	}
}

func TestHealthReady(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp := getJSON(t, ts, "/health/ready")
	var body healthResponse
	decodeJSON(t, resp, &body)
	if body.Status != "ready" {
		t.Fatalf("status = %q, want ready (checks: %v)", body.Status, body.Checks)
	}
	if body.Checks["database"] != "ok" || body.Checks["store"] != "ok" {
		t.Errorf("checks = %v", body.Checks)
	}
	if body.Checks["openai_key"] != "configured" {
		t.Errorf("openai_key = %q", body.Checks["openai_key"])
	}
}

func TestHealthReadyMissingKey(t *testing.T) {
	h := newTestHandler(t, nil)
	h.cfg.OpenAI.APIKey = ""
	ts := httptest.NewServer(h.Router())
	defer ts.Close()

	resp := getJSON(t, ts, "/health/ready")
	var body healthResponse
	decodeJSON(t, resp, &body)
	if body.Status != "not_ready" {
		t.Errorf("status = %q, want not_ready", body.Status)
	}
	if body.Checks["openai_key"] != "missing" {
		t.Errorf("openai_key = %q", body.Checks["openai_key"])
	}
}

func TestNotFoundJSON(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp := getJSON(t, ts, "/no/such/route")
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	var body errorResponse
	decodeJSON(t, resp, &body)
	if body.Error != "Not Found" || body.StatusCode != 404 {
		t.Errorf("body = %+v", body)
	}
}

func TestSecurityHeaders(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp := getJSON(t, ts, "/health")
	defer resp.Body.Close()
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := resp.Header.Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestRequestTimeout(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
			w.WriteHeader(http.StatusOK)
		case <-r.Context().Done():
		}
	})
	ts := httptest.NewServer(requestTimeout(50 * time.Millisecond)(slow))
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if resp.StatusCode != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", resp.StatusCode)
	}
	var body errorResponse
	decodeJSON(t, resp, &body)
	if body.Error != "Gateway Timeout" {
		t.Errorf("error = %q", body.Error)
	}
}

func TestRequestTimeoutPassthrough(t *testing.T) {
	fast := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Test", "1")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("done"))
	})
	ts := httptest.NewServer(requestTimeout(time.Second)(fast))
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("expected 201, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Test"); got != "1" {
		t.Errorf("X-Test = %q", got)
	}
}

func TestRateLimitedRouter(t *testing.T) {
	h := newTestHandler(t, nil)
	h.limiter = ratelimit.New(2, zap.NewNop())
	ts := httptest.NewServer(h.Router())
	defer ts.Close()

	for i := 0; i < 2; i++ {
		resp := getJSON(t, ts, "/api/v1/database/moods")
		resp.Body.Close()
		if resp.StatusCode != 200 {
			t.Fatalf("request %d: expected 200, got %d", i+1, resp.StatusCode)
		}
	}

	resp := getJSON(t, ts, "/api/v1/database/moods")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}

	// Health stays reachable when throttled.
	hr := getJSON(t, ts, "/health")
	hr.Body.Close()
	if hr.StatusCode != 200 {
		t.Errorf("health: expected 200, got %d", hr.StatusCode)
	}
}

func TestSystemMetrics(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp := getJSON(t, ts, "/api/v1/metrics/system")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Status        string           `json:"status"`
		UptimeSeconds float64          `json:"uptime_seconds"`
		Storage       store.Statistics `json:"storage"`
		Cache         cache.Stats      `json:"cache"`
	}
	decodeJSON(t, resp, &body)
	if body.Status != "ok" {
		t.Errorf("status = %q", body.Status)
	}
	if body.UptimeSeconds < 0 {
		t.Errorf("uptime = %v", body.UptimeSeconds)
	}
	if body.Storage.RetentionDays != 30 {
		t.Errorf("retention = %d", body.Storage.RetentionDays)
	}
	if body.Cache.MaxSize != 100 {
		t.Errorf("cache max size = %d", body.Cache.MaxSize)
	}
}
