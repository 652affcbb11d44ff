package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	serviceName = "rag-ai-app"
	apiService  = "rag-ai-backend"
	version     = "1.0.0"
)

// QueryService answers a question from indexed sources.
type QueryService interface {
	Query(ctx context.Context, query string, top, maxTokens int) (string, error)
}

// Server is the HTTP front end for the query pipeline.
type Server struct {
	router chi.Router
	rag    QueryService
	log    *slog.Logger
}

// NewServer creates and configures the HTTP server.
func NewServer(rag QueryService, log *slog.Logger) *Server {
	s := &Server{
		rag: rag,
		log: log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/api/v1/status", s.handleStatus)
	r.Post("/api/v1/query", s.handleQuery)

	s.router = r
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "RAG AI App is running!",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": serviceName,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "operational",
		"version": version,
		"service": apiService,
	})
}

type queryRequest struct {
	Query     string `json:"query"`
	Top       int    `json:"top"`
	MaxTokens int    `json:"max_tokens"`
}

type queryResponse struct {
	Answer string `json:"answer"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		jsonError(w, "query is required", http.StatusBadRequest)
		return
	}

	answer, err := s.rag.Query(r.Context(), req.Query, req.Top, req.MaxTokens)
	if err != nil {
		s.log.Error("query failed", "error", err)
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{Answer: answer})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
