// Package web serves the edviz UI: upload, graph editing, listing, canvas
// rendering, export, and SSE updates.
package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/edviz/edviz/pkg/api"
	"github.com/edviz/edviz/pkg/diagram"
	"github.com/edviz/edviz/pkg/editor"
	"github.com/edviz/edviz/pkg/layout"
	"github.com/edviz/edviz/pkg/listing"
	"github.com/edviz/edviz/pkg/logging"
	"github.com/edviz/edviz/pkg/model"
	"github.com/edviz/edviz/pkg/pubsub"
	"github.com/edviz/edviz/pkg/upload"
)

//go:embed static/*
var staticFiles embed.FS

// Options configures a Server.
type Options struct {
	ExportDir      string
	SearchDebounce time.Duration
	Cooldown       int
}

// Server wires the conversion service client, the editing controller, the
// diagram adapter, and the listing coordinator behind an HTTP API.
type Server struct {
	router    *mux.Router
	client    *api.Client
	publisher *pubsub.SSEPublisher
	exportDir string
	cooldown  int

	adapter    *diagram.Adapter
	controller *editor.Controller
	listing    *listing.Coordinator
	engine     layout.Engine

	mu      sync.Mutex
	session upload.Session
}

// NewServer creates a web server talking to the given conversion service.
func NewServer(client *api.Client, opts Options) *Server {
	publisher := pubsub.NewSSEPublisher()

	// Late subscribers only care about the current state of each topic.
	publisher.ConfigureTopic(pubsub.TopicUploadStatus, pubsub.TopicConfig{BufferSize: 10})
	publisher.ConfigureTopic(pubsub.TopicDiagram, pubsub.TopicConfig{BufferSize: 1})
	publisher.ConfigureTopic(pubsub.TopicGraphs, pubsub.TopicConfig{BufferSize: 1})
	publisher.ConfigureTopic(pubsub.TopicHistory, pubsub.TopicConfig{BufferSize: 1})

	s := &Server{
		router:    mux.NewRouter(),
		client:    client,
		publisher: publisher,
		exportDir: opts.ExportDir,
		cooldown:  opts.Cooldown,
		engine:    layout.NewForceEngine(),
		session:   upload.NewSession(),
	}

	s.adapter = diagram.NewAdapter(client.RenderGraph)
	s.controller = editor.NewController(model.Graph{}, s.graphChanged)

	listingOpts := []listing.Option{}
	if opts.SearchDebounce > 0 {
		listingOpts = append(listingOpts, listing.WithDebounce(opts.SearchDebounce))
	}
	s.listing = listing.NewCoordinator(client, listingOpts...)
	s.listing.SetOnUpdate(func(snap listing.Snapshot) {
		if err := publisher.Publish(pubsub.TopicGraphs, "updated", snap); err != nil {
			logging.Warn("failed to publish listing snapshot", "error", err)
		}
	})

	s.setupRoutes()
	return s
}

// Listing exposes the coordinator so the entrypoint can kick off the first
// refresh before clients connect.
func (s *Server) Listing() *listing.Coordinator {
	return s.listing
}

// PublishHistoryChange notifies subscribers that exported files changed.
func (s *Server) PublishHistoryChange(paths []string) {
	change := pubsub.HistoryChange{Paths: paths}
	if err := s.publisher.Publish(pubsub.TopicHistory, "changed", change); err != nil {
		logging.Warn("failed to publish history change", "error", err)
	}
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/api/subscribe/{topic}", s.handleSubscribe).Methods("GET")

	s.router.HandleFunc("/api/upload", s.handleUpload).Methods("POST")
	s.router.HandleFunc("/api/session", s.handleSession).Methods("GET")
	s.router.HandleFunc("/api/session/type", s.handleSessionType).Methods("POST")
	s.router.HandleFunc("/api/graph", s.handleGraph).Methods("GET")
	s.router.HandleFunc("/api/graph/edit", s.handleEdit).Methods("POST")
	s.router.HandleFunc("/api/graph/preview", s.handlePreview).Methods("GET")
	s.router.HandleFunc("/api/graphs", s.handleGraphs).Methods("GET")
	s.router.HandleFunc("/api/graphs/query", s.handleGraphsQuery).Methods("POST")
	s.router.HandleFunc("/api/graphs/{id}/svg", s.handleStoredSVG).Methods("GET")
	s.router.HandleFunc("/api/render.png", s.handleRenderPNG).Methods("GET")
	s.router.HandleFunc("/api/export", s.handleExport).Methods("GET")
	s.router.HandleFunc("/api/history", s.handleHistory).Methods("GET")

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		logging.Fatal("embedded static files missing", "error", err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))
}

// sessionSnapshot returns a copy of the current upload session.
func (s *Server) sessionSnapshot() upload.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// applySession folds an event over the session and returns the new state.
func (s *Server) applySession(ev upload.Event) upload.Session {
	s.mu.Lock()
	s.session = upload.Reduce(s.session, ev)
	snap := s.session
	s.mu.Unlock()
	return snap
}

// graphChanged commits an edited graph. In diagram mode the remote service
// re-renders the SVG and a failed render fails the whole edit; in force mode
// the graph itself is the payload and commits locally.
func (s *Server) graphChanged(ctx context.Context, g model.Graph) error {
	if s.sessionSnapshot().GraphType == api.GraphTypeDiagram {
		if err := s.adapter.GraphChanged(ctx, g); err != nil {
			return err
		}
		svg := s.adapter.Current()
		s.applySession(upload.SVGUpdated{SVGData: svg})
		s.publish(pubsub.TopicDiagram, "updated", pubsub.DiagramUpdate{SVG: svg})
		return nil
	}

	s.publish(pubsub.TopicDiagram, "graph", g)
	return nil
}

func (s *Server) publish(topic, eventType string, data interface{}) {
	if err := s.publisher.Publish(topic, eventType, data); err != nil {
		logging.Warn("failed to publish event", "topic", topic, "error", err)
	}
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]
	switch topic {
	case pubsub.TopicUploadStatus, pubsub.TopicDiagram, pubsub.TopicGraphs, pubsub.TopicHistory:
	default:
		http.Error(w, fmt.Sprintf("unknown topic: %s", topic), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Send initial comment to establish connection (Safari compatibility)
	fmt.Fprintf(w, ": connected\n\n")
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	sub, err := s.publisher.Subscribe(r.Context(), topic)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer sub.Close()

	for event := range sub.Events() {
		if err := pubsub.WriteSSE(w, event); err != nil {
			logging.DebugContext(r.Context(), "SSE client went away", "topic", topic, "error", err)
			return
		}
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
	}
}

// Start starts the web server on the specified port
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logging.Info("starting web server", "url", fmt.Sprintf("http://localhost%s", addr))
	return http.ListenAndServe(addr, logging.RequestIDMiddleware(s.router))
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
