package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/edviz/edviz/pkg/api"
	"github.com/edviz/edviz/pkg/diagram"
	"github.com/edviz/edviz/pkg/editor"
	"github.com/edviz/edviz/pkg/history"
	"github.com/edviz/edviz/pkg/layout"
	"github.com/edviz/edviz/pkg/logging"
	"github.com/edviz/edviz/pkg/pubsub"
	"github.com/edviz/edviz/pkg/render"
	"github.com/edviz/edviz/pkg/upload"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("failed to encode response", "error", err)
	}
}

// writeError maps the error taxonomy onto HTTP statuses: invalid input is
// the caller's fault, everything else points at the conversion service.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var editorValidation *editor.ValidationError
	var apiValidation *api.ValidationError
	var remote *api.StatusError
	switch {
	case errors.Is(err, editor.ErrBusy):
		status = http.StatusConflict
	case errors.As(err, &editorValidation), errors.As(err, &apiValidation):
		status = http.StatusBadRequest
	case errors.Is(err, api.ErrTimeout):
		status = http.StatusGatewayTimeout
	case errors.Is(err, api.ErrNetwork):
		status = http.StatusBadGateway
	case errors.As(err, &remote):
		status = http.StatusBadGateway
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Cap the request body a bit above the document limit so multipart
	// framing never trips the limit before our own size check does.
	r.Body = http.MaxBytesReader(w, r.Body, api.MaxUploadSize+1024*1024)
	if err := r.ParseMultipartForm(api.MaxUploadSize); err != nil {
		writeError(w, &api.ValidationError{Msg: "File too large. Maximum size is 10MB."})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, &api.ValidationError{Msg: "No file provided."})
		return
	}
	defer file.Close()

	graphType := api.GraphTypeDiagram
	if v := r.FormValue("graph_type"); v != "" {
		graphType = api.GraphType(v)
	}
	s.applySession(upload.TypeChanged{GraphType: graphType})

	session := s.applySession(upload.Started{FileName: header.Filename})
	s.publish(pubsub.TopicUploadStatus, "started", session)

	resp, err := s.client.UploadPDF(r.Context(), header.Filename, file, header.Size, graphType)
	if err != nil {
		session = s.applySession(upload.Failed{Message: err.Error()})
		s.publish(pubsub.TopicUploadStatus, "failed", session)
		writeError(w, err)
		return
	}

	svg := ""
	if graphType == api.GraphTypeDiagram {
		s.adapter.SetInitial(resp.SVGContent)
		svg = s.adapter.Current()
	}
	s.controller.SetGraph(resp.Graph)

	message := resp.Message
	if message == "" {
		message = "PDF converted successfully."
	}
	session = s.applySession(upload.Succeeded{
		SVGData:  svg,
		Graph:    resp.Graph,
		FileName: header.Filename,
		Message:  message,
	})
	s.publish(pubsub.TopicUploadStatus, "succeeded", session)

	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sessionSnapshot())
}

func (s *Server) handleSessionType(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GraphType api.GraphType `json:"graph_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &api.ValidationError{Msg: "invalid request body"})
		return
	}
	if req.GraphType != api.GraphTypeDiagram && req.GraphType != api.GraphTypeForce {
		writeError(w, &api.ValidationError{Msg: fmt.Sprintf("unknown graph type: %s", req.GraphType)})
		return
	}

	writeJSON(w, http.StatusOK, s.applySession(upload.TypeChanged{GraphType: req.GraphType}))
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"graph": s.controller.Graph(),
		"state": s.controller.State(),
	})
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode   editor.Mode   `json:"mode"`
		Params editor.Params `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &api.ValidationError{Msg: "invalid request body"})
		return
	}

	if err := s.controller.Select(req.Mode); err != nil {
		writeError(w, err)
		return
	}
	if err := s.controller.Submit(r.Context(), req.Params); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"graph": s.controller.Graph(),
		"state": s.controller.State(),
	})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("node")
	if id == "" {
		writeError(w, &api.ValidationError{Msg: "node query parameter required"})
		return
	}

	preview, err := s.controller.PreviewRemoval(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

func (s *Server) handleGraphs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		s.listing.Refresh(r.Context())
	} else {
		s.listing.Search(r.Context(), query)
	}
	writeJSON(w, http.StatusOK, s.listing.Snapshot())
}

func (s *Server) handleGraphsQuery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"q"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &api.ValidationError{Msg: "invalid request body"})
		return
	}

	// The debounced search outlives this request; results arrive over the
	// graphs SSE topic.
	s.listing.QueryChanged(context.Background(), req.Query)
	writeJSON(w, http.StatusAccepted, s.listing.Snapshot())
}

func (s *Server) handleStoredSVG(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	raw, err := s.client.GetSVG(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	fmt.Fprint(w, diagram.FitToContainer(diagram.Sanitize(raw)))
}

func (s *Server) handleRenderPNG(w http.ResponseWriter, r *http.Request) {
	opts := render.DefaultOptions()
	lopts := layout.DefaultOptions()
	if s.cooldown > 0 {
		lopts.Cooldown = s.cooldown
	}

	q := r.URL.Query()
	if v, err := strconv.Atoi(q.Get("width")); err == nil && v > 0 {
		opts.Width = v
		lopts.Width = float64(v)
	}
	if v, err := strconv.Atoi(q.Get("height")); err == nil && v > 0 {
		opts.Height = v
		lopts.Height = float64(v)
	}
	if v, err := strconv.ParseFloat(q.Get("scale"), 64); err == nil && v > 0 {
		opts.Scale = v
	}

	g := s.controller.Graph()
	positions := s.engine.Layout(g, lopts)

	renderer, err := render.New(opts)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := renderer.RenderPNG(g, positions, w); err != nil {
		logging.WarnContext(r.Context(), "failed to stream PNG", "error", err)
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	svg := s.adapter.Export()
	if svg == "" {
		session := s.sessionSnapshot()
		svg = diagram.Sanitize(session.SVGData)
	}
	if svg == "" {
		writeError(w, &api.ValidationError{Msg: "nothing to export yet"})
		return
	}

	name := s.sessionSnapshot().FileName
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if name == "" {
		name = "graph"
	}
	fileName := fmt.Sprintf("%s-%s.svg", name, time.Now().Format("20060102-150405"))

	if err := os.MkdirAll(s.exportDir, 0o755); err == nil {
		path := filepath.Join(s.exportDir, fileName)
		if err := os.WriteFile(path, []byte(svg), 0o644); err != nil {
			logging.Warn("failed to save export", "path", path, "error", err)
		}
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	fmt.Fprint(w, svg)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	works, err := history.Load(s.exportDir)
	if err != nil {
		writeError(w, err)
		return
	}
	if works == nil {
		works = []history.Work{}
	}
	writeJSON(w, http.StatusOK, works)
}
