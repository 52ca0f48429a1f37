// Package api serves the directory, column and table use cases as JSON over
// HTTP, plus a WebSocket stream of domain events.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/plot451/plot/pkg/app"
	"github.com/plot451/plot/pkg/logger"
)

// Options configures a Server.
type Options struct {
	Listen string
	APIKey string
}

// Server is the HTTP API server.
type Server struct {
	opts      Options
	container *app.Container
	wsHub     *WSHub
	startTime time.Time
	server    *http.Server
}

// NewServer creates a server over the application container and subscribes
// its WebSocket hub to the container's event bus.
func NewServer(opts Options, container *app.Container) *Server {
	s := &Server{
		opts:      opts,
		container: container,
		startTime: time.Now(),
	}
	s.wsHub = NewWSHub(s.startTime)
	if container.EventBus != nil {
		container.EventBus.SubscribeAll(NewEventBridge(s.wsHub).Handle)
	}
	return s
}

// Handler builds the routed, authenticated handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/events", s.wsHub.HandleWebSocket).Methods(http.MethodGet)

	api.HandleFunc("/directories", s.handleListRootDirectories).Methods(http.MethodGet)
	api.HandleFunc("/directories", s.handleCreateDirectory).Methods(http.MethodPost)
	api.HandleFunc("/directories/{id}", s.handleDirectoryContents).Methods(http.MethodGet)
	api.HandleFunc("/directories/{id}", s.handleDeleteDirectory).Methods(http.MethodDelete)
	api.HandleFunc("/directories/{id}/name", s.handleRenameDirectory).Methods(http.MethodPut)
	api.HandleFunc("/directories/{id}/parent", s.handleMoveDirectory).Methods(http.MethodPut)

	api.HandleFunc("/columns", s.handleCreateColumn).Methods(http.MethodPost)
	api.HandleFunc("/columns/{id}", s.handleGetColumn).Methods(http.MethodGet)
	api.HandleFunc("/columns/{id}", s.handleDeleteColumn).Methods(http.MethodDelete)
	api.HandleFunc("/columns/{id}/name", s.handleRenameColumn).Methods(http.MethodPut)
	api.HandleFunc("/columns/{id}/directory", s.handleMoveColumn).Methods(http.MethodPut)
	api.HandleFunc("/columns/{id}/order", s.handleReorderCells).Methods(http.MethodPut)
	api.HandleFunc("/columns/{id}/cells", s.handleAppendCell).Methods(http.MethodPost)
	api.HandleFunc("/columns/{id}/cells/{cellID}", s.handleEditCell).Methods(http.MethodPut)
	api.HandleFunc("/columns/{id}/cells/{cellID}", s.handleRemoveCell).Methods(http.MethodDelete)

	api.HandleFunc("/tables", s.handleListTables).Methods(http.MethodGet)
	api.HandleFunc("/tables", s.handleCreateTable).Methods(http.MethodPost)
	api.HandleFunc("/tables/{id}", s.handleGetTable).Methods(http.MethodGet)
	api.HandleFunc("/tables/{id}", s.handleDeleteTable).Methods(http.MethodDelete)
	api.HandleFunc("/tables/{id}/name", s.handleRenameTable).Methods(http.MethodPut)
	api.HandleFunc("/tables/{id}/columns/move", s.handleMoveTableColumn).Methods(http.MethodPost)
	api.HandleFunc("/tables/{id}/columns/insert", s.handleInsertTableColumn).Methods(http.MethodPost)
	api.HandleFunc("/tables/{id}/columns/{columnID}", s.handleRemoveTableColumn).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "no such route")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return corsMiddleware(authMiddleware(s.opts.APIKey, r))
}

// Start begins listening and returns once the listener goroutine is running.
// The WebSocket hub stops when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.opts.Listen,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logger.InfoCF("api", "API server starting", map[string]interface{}{
		"addr": s.opts.Listen,
	})

	go s.wsHub.Run(ctx)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorCF("api", "Server error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Hub exposes the WebSocket hub, mainly so tests can run it.
func (s *Server) Hub() *WSHub { return s.wsHub }

// --- Middleware ---

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" || isAllowedOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "http://localhost")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// isAllowedOrigin checks if the origin is a localhost address.
func isAllowedOrigin(origin string) bool {
	for _, prefix := range []string{"http://localhost", "http://127.0.0.1", "https://localhost", "https://127.0.0.1"} {
		if strings.HasPrefix(origin, prefix) {
			return true
		}
	}
	return false
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"uptime_seconds": int(time.Since(s.startTime).Seconds()),
		"ws_clients":     s.wsHub.ClientCount(),
	})
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.WarnCF("api", "Response encode failed", map[string]interface{}{"error": err.Error()})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads a JSON request body, rejecting unknown fields.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &badRequestError{msg: "invalid request body: " + err.Error()}
	}
	return nil
}
