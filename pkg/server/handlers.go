package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/gvbind/pkg/buildinfo"
	"github.com/matzehuels/gvbind/pkg/errors"
	"github.com/matzehuels/gvbind/pkg/graph"
	"github.com/matzehuels/gvbind/pkg/gv"
	"github.com/matzehuels/gvbind/pkg/pipeline"
	"github.com/matzehuels/gvbind/pkg/store"
)

// Response headers set by the render endpoint.
const (
	HeaderArtifactID = "X-Artifact-ID"
	HeaderGraphHash  = "X-Graph-Hash"
	HeaderCache      = "X-Cache"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

type engineInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleEngines(w http.ResponseWriter, r *http.Request) {
	var out []engineInfo
	for _, e := range gv.Engines() {
		out = append(out, engineInfo{Name: e.String(), Description: e.Description()})
	}
	writeJSON(w, http.StatusOK, out)
}

type formatInfo struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	MIMEType  string `json:"mime_type"`
	Extension string `json:"extension"`
	Binary    bool   `json:"binary"`
}

func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	var out []formatInfo
	for _, f := range gv.Formats() {
		out = append(out, formatInfo{
			Name:      f.String(),
			Kind:      f.Kind().String(),
			MIMEType:  f.MIMEType(),
			Extension: f.Extension(),
			Binary:    f.IsBinary(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type presetInfo struct {
	Name     string            `json:"name"`
	Engine   string            `json:"engine"`
	Settings gv.LayoutSettings `json:"settings"`
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	var out []presetInfo
	for _, p := range gv.Presets() {
		out = append(out, presetInfo{Name: p.Name, Engine: p.Engine.String(), Settings: p.Settings})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleRender renders one format and stores the result.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	desc, err := s.readDescription(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.DefaultFormat.String()
	}
	f, err := gv.ParseFormat(format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := optionsFromQuery(r, f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.runner.Execute(r.Context(), desc, opts)
	if err != nil {
		s.logger.Warn("render failed", "id", RequestID(r.Context()), "graph", desc.GraphName(), "error", err)
		s.writeError(w, r, err)
		return
	}

	data := res.Artifacts[f.String()]
	a := &store.Artifact{
		GraphHash: res.GraphHash,
		Graph:     res.Graph,
		Engine:    res.Engine.String(),
		Format:    f.String(),
		MIMEType:  f.MIMEType(),
		Data:      data,
		ExpiresAt: time.Now().Add(s.ttl).UTC(),
	}
	if err := s.store.Put(r.Context(), a); err != nil {
		// The render succeeded; serve it without an artifact ID.
		s.logger.Error("store artifact", "graph", res.Graph, "error", err)
	} else {
		w.Header().Set(HeaderArtifactID, a.ID)
	}

	cacheState := "miss"
	if res.CacheInfo.RenderHit {
		cacheState = "hit"
	}
	w.Header().Set(HeaderGraphHash, res.GraphHash)
	w.Header().Set(HeaderCache, cacheState)
	w.Header().Set("Content-Type", f.MIMEType())
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleLayout returns node and edge geometry as JSON.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	desc, err := s.readDescription(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := optionsFromQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	l, hit, err := s.runner.Layout(r.Context(), desc, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cacheState := "miss"
	if hit {
		cacheState = "hit"
	}
	w.Header().Set(HeaderGraphHash, desc.Hash())
	w.Header().Set(HeaderCache, cacheState)
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set(HeaderGraphHash, a.GraphHash)
	w.Header().Set("Content-Type", a.MIMEType)
	w.Header().Set("Content-Length", strconv.Itoa(len(a.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(a.Data)
}

func (s *Server) handleListArtifacts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	hash := q.Get("graph")
	if hash == "" {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "graph query parameter is required"))
		return
	}
	limit := defaultListLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "limit must be a positive integer, got %q", v))
			return
		}
		limit = min(n, maxListLimit)
	}

	list, err := s.store.List(r.Context(), hash, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []*store.Artifact{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) readDescription(w http.ResponseWriter, r *http.Request) (*graph.Graph, error) {
	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	defer body.Close()
	return graph.Read(body, graph.EncodingForContentType(r.Header.Get("Content-Type")))
}

// optionsFromQuery reads engine, preset and render options from the query
// string and validates them together with formats.
func optionsFromQuery(r *http.Request, formats ...gv.Format) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{
		Engine: q.Get("engine"),
		Preset: q.Get("preset"),
	}
	for _, f := range formats {
		opts.Formats = append(opts.Formats, f.String())
	}

	render := gv.DefaultRenderOptions()
	var err error
	if render.AntiAlias, err = boolParam(q.Get("antialias"), true); err != nil {
		return opts, err
	}
	if render.Transparent, err = boolParam(q.Get("transparent"), false); err != nil {
		return opts, err
	}
	if opts.Refresh, err = boolParam(q.Get("refresh"), false); err != nil {
		return opts, err
	}
	if render.DPI, err = floatParam("dpi", q.Get("dpi")); err != nil {
		return opts, err
	}
	if render.Scale, err = floatParam("scale", q.Get("scale")); err != nil {
		return opts, err
	}
	render.Background = q.Get("background")
	opts.Render = &render

	if err := opts.ValidateAndSetDefaults(); err != nil {
		return opts, err
	}
	return opts, nil
}

func boolParam(v string, def bool) (bool, error) {
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.New(errors.ErrCodeInvalidInput, "invalid boolean %q", v)
	}
	return b, nil
}

func floatParam(name, v string) (float64, error) {
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid %s %q", name, v)
	}
	return f, nil
}
