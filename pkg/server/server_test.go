package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/gvbind/pkg/errors"
	"github.com/matzehuels/gvbind/pkg/graph"
	"github.com/matzehuels/gvbind/pkg/observability"
	"github.com/matzehuels/gvbind/pkg/pipeline"
	"github.com/matzehuels/gvbind/pkg/store"
)

const depsJSON = `{
  "name": "deps",
  "nodes": [{"id": "app"}, {"id": "lib"}],
  "edges": [{"from": "app", "to": "lib"}, {"from": "lib", "to": "libc"}]
}`

const depsTOML = `
name = "deps"

[[edges]]
from = "app"
to = "lib"
`

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	logger := log.New(io.Discard)
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, logger)
		t.Cleanup(func() { cfg.Runner.Close() })
	}
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	ts := httptest.NewServer(New(cfg).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, contentType, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func decodeError(t *testing.T, resp *http.Response) errorBody {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestHealthAndCatalogs(t *testing.T) {
	ts := newTestServer(t, Config{})

	tests := []struct {
		path string
		want string
	}{
		{"/healthz", `"ok"`},
		{"/v1/version", `"go_version"`},
		{"/v1/engines", `"neato"`},
		{"/v1/formats", `"image/svg+xml"`},
		{"/v1/presets", `"left-to-right"`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp := do(t, http.MethodGet, ts.URL+tt.path, "", "")
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			if body := readBody(t, resp); !bytes.Contains(body, []byte(tt.want)) {
				t.Errorf("body missing %s:\n%s", tt.want, body)
			}
		})
	}
}

func TestRender(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp := do(t, http.MethodPost, ts.URL+"/v1/render?format=svg&preset=left-to-right", "application/json", depsJSON)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, readBody(t, resp))
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	if resp.Header.Get(HeaderCache) != "miss" {
		t.Errorf("%s = %q on first render", HeaderCache, resp.Header.Get(HeaderCache))
	}
	if uuid.Validate(resp.Header.Get(HeaderRequestID)) != nil {
		t.Errorf("%s = %q, want a UUID", HeaderRequestID, resp.Header.Get(HeaderRequestID))
	}
	svg := readBody(t, resp)
	if !bytes.Contains(svg, []byte("<svg")) || !bytes.Contains(svg, []byte("libc")) {
		t.Error("response is not the rendered graph")
	}

	id := resp.Header.Get(HeaderArtifactID)
	if id == "" {
		t.Fatal("no artifact ID")
	}
	stored := do(t, http.MethodGet, ts.URL+"/v1/artifacts/"+id, "", "")
	if stored.StatusCode != http.StatusOK {
		t.Fatalf("GET artifact status = %d", stored.StatusCode)
	}
	if !bytes.Equal(readBody(t, stored), svg) {
		t.Error("stored artifact differs from the response")
	}

	again := do(t, http.MethodPost, ts.URL+"/v1/render?format=svg&preset=left-to-right", "application/json", depsJSON)
	if again.Header.Get(HeaderCache) != "hit" {
		t.Errorf("%s = %q on second render", HeaderCache, again.Header.Get(HeaderCache))
	}
	if again.Header.Get(HeaderArtifactID) == id {
		t.Error("each render gets its own artifact ID")
	}
}

func TestRender_TOMLAndBinary(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp := do(t, http.MethodPost, ts.URL+"/v1/render?format=png&dpi=72", "application/toml", depsTOML)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, readBody(t, resp))
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !bytes.HasPrefix(readBody(t, resp), []byte("\x89PNG")) {
		t.Error("response is not a PNG")
	}
}

func TestRender_Errors(t *testing.T) {
	ts := newTestServer(t, Config{})

	tests := []struct {
		name       string
		query      string
		body       string
		wantStatus int
		wantCode   errors.Code
	}{
		{"bad json", "", `{"nodes": [`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown field", "", `{"vertices": []}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"duplicate node", "", `{"nodes": [{"id": "a"}, {"id": "a"}]}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown format", "?format=docx", depsJSON, http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"unknown engine", "?engine=graphite", depsJSON, http.StatusBadRequest, errors.ErrCodeInvalidEngine},
		{"unknown preset", "?preset=spiral", depsJSON, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad dpi", "?dpi=lots", depsJSON, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"negative dpi", "?dpi=-3", depsJSON, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unsupported format", "?format=gif", depsJSON, http.StatusUnprocessableEntity, errors.ErrCodeRenderFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, ts.URL+"/v1/render"+tt.query, "application/json", tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			body := decodeError(t, resp)
			if body.Code != string(tt.wantCode) {
				t.Errorf("code = %q, want %q (%s)", body.Code, tt.wantCode, body.Message)
			}
			if body.RequestID != resp.Header.Get(HeaderRequestID) {
				t.Error("error body must carry the request ID")
			}
		})
	}
}

func TestRender_BodyTooLarge(t *testing.T) {
	ts := newTestServer(t, Config{MaxBodyBytes: 16})

	resp := do(t, http.MethodPost, ts.URL+"/v1/render", "application/json", depsJSON)
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", resp.StatusCode)
	}
}

func TestLayout(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp := do(t, http.MethodPost, ts.URL+"/v1/layout?preset=hierarchical", "application/json", depsJSON)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, readBody(t, resp))
	}
	l, err := graph.UnmarshalLayout(readBody(t, resp))
	if err != nil {
		t.Fatalf("UnmarshalLayout() error = %v", err)
	}
	if l.Engine != "dot" || len(l.Nodes) != 3 {
		t.Errorf("layout = engine %s with %d nodes", l.Engine, len(l.Nodes))
	}
}

func TestArtifacts(t *testing.T) {
	st := store.NewMemory()
	ts := newTestServer(t, Config{Store: st})

	resp := do(t, http.MethodPost, ts.URL+"/v1/render?format=dot", "application/json", depsJSON)
	hash := resp.Header.Get(HeaderGraphHash)
	do(t, http.MethodPost, ts.URL+"/v1/render?format=json", "application/json", depsJSON)

	list := do(t, http.MethodGet, ts.URL+"/v1/artifacts?graph="+hash, "", "")
	var metas []store.Artifact
	if err := json.NewDecoder(list.Body).Decode(&metas); err != nil {
		t.Fatal(err)
	}
	if len(metas) != 2 {
		t.Fatalf("listed %d artifacts, want 2", len(metas))
	}
	if metas[0].Format != "json" {
		t.Errorf("newest artifact format = %q, want json", metas[0].Format)
	}

	empty := do(t, http.MethodGet, ts.URL+"/v1/artifacts?graph=unknown", "", "")
	if body := strings.TrimSpace(string(readBody(t, empty))); body != "[]" {
		t.Errorf("empty list body = %s", body)
	}

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/v1/artifacts", http.StatusBadRequest},
		{"/v1/artifacts?graph=x&limit=0", http.StatusBadRequest},
		{"/v1/artifacts/not-a-uuid", http.StatusBadRequest},
		{"/v1/artifacts/" + uuid.NewString(), http.StatusNotFound},
		{"/v2/nothing", http.StatusNotFound},
	}
	for _, tt := range tests {
		if resp := do(t, http.MethodGet, ts.URL+tt.path, "", ""); resp.StatusCode != tt.wantStatus {
			t.Errorf("GET %s status = %d, want %d", tt.path, resp.StatusCode, tt.wantStatus)
		}
	}

	if resp := do(t, http.MethodGet, ts.URL+"/v1/render", "", ""); resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET /v1/render status = %d, want 405", resp.StatusCode)
	}
}

func TestRequestID_Propagated(t *testing.T) {
	ts := newTestServer(t, Config{})
	id := uuid.NewString()

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set(HeaderRequestID, id)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(HeaderRequestID); got != id {
		t.Errorf("%s = %q, want the client's %q", HeaderRequestID, got, id)
	}
}

type countingHTTPHooks struct {
	observability.NoopHTTPHooks
	requests  atomic.Int32
	responses atomic.Int32
	lastCode  atomic.Int32
}

func (h *countingHTTPHooks) OnRequest(context.Context, string, string) { h.requests.Add(1) }

func (h *countingHTTPHooks) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	h.responses.Add(1)
	h.lastCode.Store(int32(status))
}

func TestHTTPHooks(t *testing.T) {
	h := &countingHTTPHooks{}
	observability.SetHTTPHooks(h)
	t.Cleanup(observability.Reset)

	ts := newTestServer(t, Config{})
	readBody(t, do(t, http.MethodGet, ts.URL+"/healthz", "", ""))
	readBody(t, do(t, http.MethodGet, ts.URL+"/v1/artifacts", "", ""))

	if h.requests.Load() != 2 || h.responses.Load() != 2 {
		t.Errorf("hooks saw %d requests, %d responses", h.requests.Load(), h.responses.Load())
	}
	if h.lastCode.Load() != http.StatusBadRequest {
		t.Errorf("last status = %d, want 400", h.lastCode.Load())
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code errors.Code
		want int
	}{
		{errors.ErrCodeInvalidInput, http.StatusBadRequest},
		{errors.ErrCodeInvalidRef, http.StatusBadRequest},
		{errors.ErrCodeAttrNotFound, http.StatusNotFound},
		{errors.ErrCodeNotFound, http.StatusNotFound},
		{errors.ErrCodeLayoutFailed, http.StatusUnprocessableEntity},
		{errors.ErrCodeRenderFailed, http.StatusUnprocessableEntity},
		{errors.ErrCodeContextInit, http.StatusInternalServerError},
		{errors.ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.code); got != tt.want {
			t.Errorf("statusFor(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
