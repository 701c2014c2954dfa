package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/bryanchriswhite/alttab/internal/icon"
	"github.com/bryanchriswhite/alttab/internal/logger"
	"github.com/bryanchriswhite/alttab/internal/mru"
	"github.com/bryanchriswhite/alttab/internal/switcher"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Server is a read-only HTTP view of the switcher state.
type Server struct {
	router   *mux.Router
	upgrader websocket.Upgrader
	icons    func() []icon.Candidate
	http     *http.Server

	mu     sync.RWMutex
	status switcher.Status
	subs   map[chan switcher.Status]struct{}
}

// NewServer creates a status server. icons lists the icon cache; it may
// be nil.
func NewServer(icons func() []icon.Candidate) *Server {
	s := &Server{
		router: mux.NewRouter(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		icons: icons,
		subs:  make(map[chan switcher.Status]struct{}),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/mru", s.handleMRU).Methods("GET")
	api.HandleFunc("/mru/stream", s.handleMRUStream)
	api.HandleFunc("/icons", s.handleIcons).Methods("GET")
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Update stores a new snapshot and pushes it to stream subscribers. Slow
// subscribers miss intermediate snapshots.
func (s *Server) Update(st switcher.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = st
	for ch := range s.subs {
		select {
		case ch <- st:
		default:
		}
	}
}

// Status returns the last snapshot.
func (s *Server) Status() switcher.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Server) subscribe() chan switcher.Status {
	ch := make(chan switcher.Status, 8)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *Server) unsubscribe(ch chan switcher.Status) {
	s.mu.Lock()
	delete(s.subs, ch)
	s.mu.Unlock()
}

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.WithComponent("api").Info().Str("addr", addr).Msg("Starting status server")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithComponent("api").Debug().Err(err).Msg("Failed to write response")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"status":  "healthy",
		"version": Version,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Status())
}

func (s *Server) handleMRU(w http.ResponseWriter, r *http.Request) {
	entries := s.Status().MRU
	if entries == nil {
		entries = []mru.Entry{}
	}
	writeJSON(w, entries)
}

func (s *Server) handleIcons(w http.ResponseWriter, r *http.Request) {
	if s.icons == nil {
		http.Error(w, "icon cache disabled", http.StatusNotFound)
		return
	}
	writeJSON(w, s.icons())
}

func (s *Server) handleMRUStream(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("api")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	updates := s.subscribe()
	defer s.unsubscribe(updates)

	// The client never sends; reading only detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteJSON(s.Status().MRU); err != nil {
		log.Debug().Err(err).Msg("WebSocket write failed")
		return
	}
	for {
		select {
		case <-closed:
			return
		case st := <-updates:
			if err := conn.WriteJSON(st.MRU); err != nil {
				log.Debug().Err(err).Msg("WebSocket write failed")
				return
			}
		}
	}
}
