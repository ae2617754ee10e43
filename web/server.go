package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"copytrans/config"
	"copytrans/pipeline"
	"copytrans/state"
	"copytrans/storage"
)

//go:embed static/*
var staticFiles embed.FS

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Dashboard is bound to localhost only
	},
}

// Controller exposes the application actions the dashboard can trigger.
// Implementations must not block behind in-flight translation calls.
type Controller interface {
	Snapshot() state.Snapshot
	ToggleLanguages() state.Snapshot
	SetLanguages(source, dest *string) state.Snapshot
	CopyToClipboard(text string) error
}

// Server serves the dashboard and pushes live translation results over
// WebSocket. It implements pipeline.Sink.
type Server struct {
	db         *storage.DB
	config     *config.Config
	controller Controller
	port       int
	hub        *Hub
	httpServer *http.Server
}

// NewServer creates a new web server. db may be nil when history is disabled.
func NewServer(db *storage.DB, cfg *config.Config, controller Controller, port int) *Server {
	hub := NewHub()
	go hub.Run()

	return &Server{
		db:         db,
		config:     cfg,
		controller: controller,
		port:       port,
		hub:        hub,
	}
}

// Start starts the web server and blocks until it shuts down
func (s *Server) Start() error {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/history/", s.handleHistory)
	mux.HandleFunc("/api/languages", s.handleLanguages)
	mux.HandleFunc("/api/clipboard", s.handleClipboard)
	mux.HandleFunc("/ws", s.handleWebSocket)

	// Static files
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return fmt.Errorf("failed to load static files: %w", err)
	}
	mux.Handle("/", http.FileServer(http.FS(staticFS)))

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	s.httpServer = &http.Server{Addr: addr, Handler: mux}
	slog.Info("Starting web server", "url", fmt.Sprintf("http://localhost:%d", s.port))

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the web server and the broadcast hub gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Stop()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// TranslationMessage is the WebSocket payload for a completed translation
type TranslationMessage struct {
	Original       string `json:"original"`
	Translated     string `json:"translated"`
	DetectedSource string `json:"detectedSource"`
	Dest           string `json:"dest"`
	Refresh        bool   `json:"refresh"`
	LatencyMs      int64  `json:"latencyMs"`
	Error          string `json:"error,omitempty"`
	Timestamp      string `json:"timestamp"`
}

// Present pushes a translation result to all dashboard clients. It runs on
// the worker goroutine and never blocks.
func (s *Server) Present(res pipeline.Result) {
	msg := TranslationMessage{
		Original:       res.Original,
		Translated:     res.Translated,
		DetectedSource: res.DetectedSource,
		Dest:           res.Dest,
		Refresh:        res.Refresh,
		LatencyMs:      res.Latency.Milliseconds(),
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	}
	if res.Err != nil {
		msg.Error = res.Err.Error()
	}
	s.hub.BroadcastMessage(Message{Type: MessageTypeTranslation, Data: msg})
}

// LanguagesMessage is the WebSocket payload for a language change
type LanguagesMessage struct {
	Source string `json:"source"`
	Dest   string `json:"dest"`
}

// BroadcastLanguages pushes the current language pair to all clients
func (s *Server) BroadcastLanguages(snap state.Snapshot) {
	s.hub.BroadcastMessage(Message{
		Type: MessageTypeLanguages,
		Data: LanguagesMessage{Source: snap.Source, Dest: snap.Dest},
	})
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade WebSocket connection", "error", err)
		return
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}
