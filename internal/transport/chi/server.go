// Package chi exposes the search session over HTTP for development
// harnesses. The engine's contract is the in-process library API; this
// server is a stand-in for the hosting application.
package chi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/gdziedzic/toolsearch/internal/deepsearch"
	"github.com/gdziedzic/toolsearch/internal/domain/index"
	"github.com/gdziedzic/toolsearch/internal/logger"
	"github.com/gdziedzic/toolsearch/internal/metrics"
	"github.com/gdziedzic/toolsearch/internal/rank"
	"github.com/gdziedzic/toolsearch/internal/session"
)

// Server serves the search session API.
type Server struct {
	session *session.Manager
	logger  *zap.Logger
}

// NewServer creates an HTTP API server over a session manager.
func NewServer(sess *session.Manager, log *zap.Logger) *Server {
	return &Server{session: sess, logger: log}
}

// Router builds the chi router with the standard middleware stack.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(metrics.Middleware())
	r.Use(s.loggerMiddleware())

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/search", s.handleSearch)
		r.Get("/tools/rank", s.handleRankTools)
		r.Get("/stats", s.handleStats)
		r.Get("/history", s.handleHistory)
		r.Get("/favorites", s.handleFavorites)
		r.Post("/favorites/{toolID}/toggle", s.handleToggleFavorite)
		r.Post("/usage/{toolID}", s.handleTrackUsage)
		r.Post("/index/rebuild", s.handleRebuild)
	})
	return r
}

// loggerMiddleware stores the server logger in every request context.
func (s *Server) loggerMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logger.ContextWithLogger(r.Context(), s.logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSearch runs a content search immediately. Debouncing is a
// keystroke-level concern that lives client side; the HTTP surface is
// request/response.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	opts := deepsearch.Options{
		MaxResults: queryInt(r, "limit"),
		MinScore:   queryFloat(r, "min_score"),
	}
	if typesParam := r.URL.Query().Get("types"); typesParam != "" {
		for _, t := range strings.Split(typesParam, ",") {
			opts.Types = append(opts.Types, index.EntryType(strings.TrimSpace(t)))
		}
	}

	results := s.session.SearchNow(r.Context(), query, opts)
	logger.FromContext(r.Context()).Debug("content search",
		zap.String("query", query), zap.Int("results", len(results)))

	if r.URL.Query().Get("group") == "type" {
		writeJSON(w, http.StatusOK, deepsearch.GroupByType(results))
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleRankTools(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	opts := rank.Options{
		MaxResults:          queryInt(r, "limit"),
		MinScore:            queryFloat(r, "min_score"),
		PrioritizeFavorites: r.URL.Query().Get("plain") == "",
	}

	results := s.session.RankTools(nil, query, opts)
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Stats())
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.History())
}

func (s *Server) handleFavorites(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Favorites())
}

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	toolID := chi.URLParam(r, "toolID")
	if toolID == "" {
		writeError(w, http.StatusBadRequest, "toolID is required")
		return
	}
	favorited := s.session.ToggleFavorite(r.Context(), toolID)
	writeJSON(w, http.StatusOK, map[string]any{"toolId": toolID, "favorited": favorited})
}

func (s *Server) handleTrackUsage(w http.ResponseWriter, r *http.Request) {
	toolID := chi.URLParam(r, "toolID")
	if toolID == "" {
		writeError(w, http.StatusBadRequest, "toolID is required")
		return
	}
	s.session.TrackUsage(r.Context(), toolID)
	writeJSON(w, http.StatusOK, map[string]any{"toolId": toolID, "count": s.session.UsageCount(toolID)})
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	s.session.RebuildIndex(r.Context())
	writeJSON(w, http.StatusOK, s.session.Stats())
}

func queryInt(r *http.Request, name string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return v
}

func queryFloat(r *http.Request, name string) float64 {
	v, err := strconv.ParseFloat(r.URL.Query().Get(name), 64)
	if err != nil {
		return 0
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
