package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"roteiro-chatbot/internal/persona"
	"roteiro-chatbot/internal/routing"
	"roteiro-chatbot/pkg"
)

// maxQuestionBytes bounds request bodies.  Oversized questions are
// truncated input for the classifier, not an error.
const maxQuestionBytes = 1 << 16

// Server bundles together the dependencies required by HTTP handlers.  It
// implements http.Handler so it can be passed to http.ListenAndServe.
type Server struct {
	Engine   *routing.Engine
	Registry *persona.Registry
	Logger   *slog.Logger
}

// NewServer constructs a Server.
func NewServer(engine *routing.Engine, registry *persona.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{Engine: engine, Registry: registry, Logger: logger}
}

// ServeHTTP dispatches incoming requests based on the URL path.  Minimal
// routing logic is implemented here to keep dependencies light.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	// Analyze a question: POST /api/routing/analyze
	case path == "/api/routing/analyze" && r.Method == http.MethodPost:
		s.handleAnalyze(w, r)
		return
	// Persona catalog: GET /api/personas
	case path == "/api/personas" && r.Method == http.MethodGet:
		s.handlePersonas(w, r)
		return
	// Expertise profile: GET /api/personas/{id}/expertise
	case strings.HasPrefix(path, "/api/personas/") && strings.HasSuffix(path, "/expertise") && r.Method == http.MethodGet:
		id := strings.TrimSuffix(strings.TrimPrefix(path, "/api/personas/"), "/expertise")
		s.handleExpertise(w, r, id)
		return
	case path == "/healthz" && r.Method == http.MethodGet:
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "ok")
		return
	default:
		http.NotFound(w, r)
	}
}

// handleAnalyze runs the routing engine for a single question and returns
// the analysis together with the ambiguity verdict.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	var req pkg.AnalyzeRequest
	body := io.LimitReader(r.Body, maxQuestionBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		// An empty or malformed body still routes: the engine treats the
		// question as empty rather than failing.
		req.Question = ""
	}

	analysis, err := s.Engine.AnalyzeQuestionRouting(r.Context(), req.Question, s.Registry.Personas())
	if err != nil {
		if errors.Is(err, routing.ErrNoPersonas) {
			s.Logger.Error("no personas configured", slog.String("request_id", requestID))
			http.Error(w, "no personas configured", http.StatusServiceUnavailable)
			return
		}
		s.Logger.Error("routing failed", slog.String("request_id", requestID), slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.Logger.Info("question routed",
		slog.String("request_id", requestID),
		slog.String("persona", analysis.RecommendedPersonaID),
		slog.String("scope", string(analysis.Scope)),
		slog.Float64("confidence", analysis.Confidence))

	writeJSON(w, pkg.AnalyzeResponse{
		Analysis:  analysis,
		Ambiguous: routing.IsAmbiguousQuestion(analysis),
	})
}

// handlePersonas returns the persona catalog keyed by id.
func (s *Server) handlePersonas(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.Registry.Personas())
}

// handleExpertise returns the derived expertise profile for one persona.
func (s *Server) handleExpertise(w http.ResponseWriter, _ *http.Request, personaID string) {
	profile := s.Registry.Expertise(personaID)
	if profile == nil {
		http.Error(w, "unknown persona", http.StatusNotFound)
		return
	}
	writeJSON(w, profile)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
