package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/edviz/edviz/pkg/api"
)

// newFakeService stands in for the Python conversion service.
func newFakeService(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/upload-pdf", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"message": "converted",
			"file_id": "abc123",
			"svg_content": "<svg width=\"640\" height=\"480\"><script>alert(1)</script><circle/></svg>",
			"graph_json": {"nodes":[{"id":"calculus","name":"Calculus"}],"links":[]}
		}`)
	})
	mux.HandleFunc("/render-graph", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"svg_content": "<svg width=\"640\" height=\"480\"><circle id=\"v2\"/></svg>"}`)
	})
	mux.HandleFunc("/graphs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"id":"abc123","title":"Calculus Notes"}]`)
	})
	mux.HandleFunc("/graphs/search", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"id":"abc123","title":"Match"}]`)
	})
	mux.HandleFunc("/get-svg/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<svg width="100" height="50"><script>x()</script><rect/></svg>`)
	})
	svc := httptest.NewServer(mux)
	t.Cleanup(svc.Close)
	return svc
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	svc := newFakeService(t)
	client := api.NewClient(svc.URL, 5*time.Second)
	dir := t.TempDir()
	return NewServer(client, Options{ExportDir: dir, SearchDebounce: 10 * time.Millisecond}), dir
}

func uploadPDF(t *testing.T, s *Server, graphType string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "notes.pdf")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("%PDF-1.4 fake"))
	mw.WriteField("graph_type", graphType)
	mw.Close()

	req := httptest.NewRequest("POST", "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestUploadFlow(t *testing.T) {
	s, _ := newTestServer(t)

	rec := uploadPDF(t, s, "mermaid")
	if rec.Code != http.StatusOK {
		t.Fatalf("upload failed: %d %s", rec.Code, rec.Body.String())
	}

	var session struct {
		SVGData   string `json:"svg_data"`
		IsSuccess bool   `json:"is_success"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &session); err != nil {
		t.Fatal(err)
	}
	if !session.IsSuccess {
		t.Errorf("session must be successful: %s", rec.Body.String())
	}
	if strings.Contains(session.SVGData, "<script") {
		t.Error("scripts must be stripped from the displayed diagram")
	}
	if !strings.Contains(strings.ToLower(session.SVGData), `width="100%"`) {
		t.Errorf("diagram must be fitted to its container: %s", session.SVGData)
	}

	// The converted graph becomes the editable graph.
	req := httptest.NewRequest("GET", "/api/graph", nil)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var out struct {
		Graph struct {
			Nodes []struct{ ID string } `json:"nodes"`
		} `json:"graph"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Graph.Nodes) != 1 {
		t.Errorf("expected 1 node after upload, got %d", len(out.Graph.Nodes))
	}
}

func TestEditValidationRejected(t *testing.T) {
	s, _ := newTestServer(t)

	body := strings.NewReader(`{"mode":"add-node","params":{"name":"  "}}`)
	req := httptest.NewRequest("POST", "/api/graph/edit", body)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank name must be rejected with 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestEditRerendersDiagram(t *testing.T) {
	s, _ := newTestServer(t)
	uploadPDF(t, s, "mermaid")

	body := strings.NewReader(`{"mode":"add-node","params":{"name":"Vectors"}}`)
	req := httptest.NewRequest("POST", "/api/graph/edit", body)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("edit failed: %d %s", rec.Code, rec.Body.String())
	}

	var out struct {
		Graph struct {
			Nodes []struct{ ID string } `json:"nodes"`
		} `json:"graph"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Graph.Nodes) != 2 {
		t.Errorf("expected 2 nodes after edit, got %d", len(out.Graph.Nodes))
	}

	// The re-rendered diagram replaced the original.
	if !strings.Contains(s.adapter.Current(), "v2") {
		t.Errorf("diagram must show the re-rendered SVG: %s", s.adapter.Current())
	}
}

func TestPreviewThenRemoveFlow(t *testing.T) {
	// The shell asks for the cascade preview before submitting a
	// remove-node edit; both halves go through the HTTP surface.
	s, _ := newTestServer(t)
	uploadPDF(t, s, "mermaid")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/graph/preview?node=calculus", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("preview failed: %d %s", rec.Code, rec.Body.String())
	}
	var preview struct {
		NodeName string            `json:"node_name"`
		Incoming []json.RawMessage `json:"incoming"`
		Outgoing []json.RawMessage `json:"outgoing"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &preview); err != nil {
		t.Fatal(err)
	}
	if preview.NodeName != "Calculus" {
		t.Errorf("preview must resolve the display name, got %q", preview.NodeName)
	}
	if preview.Incoming == nil || preview.Outgoing == nil {
		t.Errorf("preview edge lists must be present: %s", rec.Body.String())
	}

	body := strings.NewReader(`{"mode":"remove-node","params":{"node_id":"calculus"}}`)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/graph/edit", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("remove failed: %d %s", rec.Code, rec.Body.String())
	}

	var out struct {
		Graph struct {
			Nodes []struct{ ID string } `json:"nodes"`
		} `json:"graph"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Graph.Nodes) != 0 {
		t.Errorf("expected empty graph after removal, got %d nodes", len(out.Graph.Nodes))
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/graph/preview?node=ghost", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("preview of an unknown node must 400, got %d", rec.Code)
	}
}

func TestRenderPNG(t *testing.T) {
	s, _ := newTestServer(t)
	uploadPDF(t, s, "force")

	req := httptest.NewRequest("GET", "/api/render.png?width=320&height=240", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("render failed: %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("unexpected content type %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("response is not a PNG")
	}
}

func TestExportWritesFileAndHistorySeesIt(t *testing.T) {
	s, dir := newTestServer(t)
	uploadPDF(t, s, "mermaid")

	req := httptest.NewRequest("GET", "/api/export", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("export failed: %d %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "attachment") {
		t.Error("export must be served as a download")
	}
	if strings.Contains(rec.Body.String(), "<script") {
		t.Error("exports must never contain scripts")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || filepath.Ext(entries[0].Name()) != ".svg" {
		t.Fatalf("expected one exported svg, got %v", entries)
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/history", nil))
	var works []struct {
		FileName string `json:"file_name"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &works); err != nil {
		t.Fatal(err)
	}
	if len(works) != 1 {
		t.Errorf("history must list the export, got %v", works)
	}
}

func TestExportWithoutUpload(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/export", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("export with no diagram must fail with 400, got %d", rec.Code)
	}
}

func TestStoredSVGIsSanitized(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/graphs/abc123/svg", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("fetch failed: %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "<script") {
		t.Error("stored diagrams must be sanitized before display")
	}
}

func TestGraphsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/graphs", nil))

	var snap struct {
		Items []struct{ ID string } `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if len(snap.Items) != 1 {
		t.Errorf("expected 1 listing entry, got %+v", snap)
	}
}

func TestSubscribeUnknownTopic(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/subscribe/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown topic must 404, got %d", rec.Code)
	}
}

func TestGraphTypeValidation(t *testing.T) {
	s, _ := newTestServer(t)

	body := strings.NewReader(`{"graph_type":"3d"}`)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/session/type", body))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown graph type must be rejected, got %d", rec.Code)
	}
}
