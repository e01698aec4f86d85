package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sandevgo/recall/internal/core"
	"github.com/sandevgo/recall/internal/service/contextmgr"
	"github.com/sandevgo/recall/pkg/log"
)

// Server exposes the context manager over HTTP. It implements srv.Service.
type Server struct {
	manager *contextmgr.Manager
	httpSrv *http.Server
}

func NewServer(addr string, manager *contextmgr.Manager) *Server {
	s := &Server{manager: manager}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"service": core.RecallName,
			"version": core.RecallVersion,
		})
	})

	r.Route("/sessions/{session}", func(r chi.Router) {
		r.Post("/messages", s.handleAddMessage)
		r.Get("/context", s.handleGetContext)
		r.Get("/context/pairs", s.handleGetPairContext)
		r.Post("/messages/{message}/pin", s.handlePin(true))
		r.Post("/messages/{message}/unpin", s.handlePin(false))
		r.Delete("/", s.handleClear)
		r.Get("/", s.handleHasSession)
	})

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

func (s *Server) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Str("addr", s.httpSrv.Addr).Msg("http api listening")
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(shutdownCtx)
}

type addMessageRequest struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	Pinned     bool           `json:"pinned,omitempty"`
	Importance *float64       `json:"importance,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type addMessageResponse struct {
	ID string `json:"id"`
}

func (s *Server) handleAddMessage(w http.ResponseWriter, req *http.Request) {
	session := chi.URLParam(req, "session")

	var in addMessageRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if in.Role == "" || in.Content == "" {
		http.Error(w, "role and content are required", http.StatusBadRequest)
		return
	}

	id, err := s.manager.Add(req.Context(), session, in.Role, in.Content, contextmgr.AddOptions{
		Pinned:     in.Pinned,
		Importance: in.Importance,
		Metadata:   in.Metadata,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, addMessageResponse{ID: id})
}

func (s *Server) handleGetContext(w http.ResponseWriter, req *http.Request) {
	session := chi.URLParam(req, "session")
	q := req.URL.Query()

	opts := core.ContextOptions{
		MaxTokens:    intParam(q.Get("max_tokens"), 0),
		CurrentQuery: q.Get("query"),
	}
	if t := q.Get("threshold"); t != "" {
		opts.ImportanceThreshold = floatParam(t, 0)
	}
	if opts.MaxTokens <= 0 {
		http.Error(w, "max_tokens is required and must be positive", http.StatusBadRequest)
		return
	}

	result, err := s.manager.GetContext(req.Context(), session, opts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetPairContext(w http.ResponseWriter, req *http.Request) {
	session := chi.URLParam(req, "session")
	q := req.URL.Query()

	opts := core.ContextOptions{
		MaxTokens:    intParam(q.Get("max_tokens"), 0),
		CurrentQuery: q.Get("query"),
	}
	if opts.MaxTokens <= 0 {
		http.Error(w, "max_tokens is required and must be positive", http.StatusBadRequest)
		return
	}

	result, err := s.manager.GetPairContext(req.Context(), session, opts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePin(pinned bool) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		session := chi.URLParam(req, "session")
		message := chi.URLParam(req, "message")

		var err error
		if pinned {
			err = s.manager.Pin(req.Context(), session, message)
		} else {
			err = s.manager.Unpin(req.Context(), session, message)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleClear(w http.ResponseWriter, req *http.Request) {
	session := chi.URLParam(req, "session")
	if err := s.manager.Clear(req.Context(), session); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHasSession(w http.ResponseWriter, req *http.Request) {
	session := chi.URLParam(req, "session")
	ok, err := s.manager.HasSession(req.Context(), session)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": ok})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func intParam(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func floatParam(s string, def float64) float64 {
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}
