package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/mtlprog/pludo/docs" // Register OpenAPI docs
	"github.com/mtlprog/pludo/internal/handler/dto"
	"github.com/mtlprog/pludo/internal/metrics"
	"github.com/mtlprog/pludo/internal/middleware"
	"github.com/mtlprog/pludo/internal/service"
)

// maxBodyBytes caps request bodies; knowledge text is the largest field.
const maxBodyBytes = 1 << 20

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the handlers need.
type Deps struct {
	DB          Pinger
	Deployments *service.DeploymentService
	Chat        *service.ChatService
	Auth        *middleware.AuthMiddleware
	CORS        *middleware.CORS
	Metrics     *metrics.Metrics
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	db          Pinger
	deployments *service.DeploymentService
	chat        *service.ChatService
	auth        *middleware.AuthMiddleware
	cors        *middleware.CORS
	metrics     *metrics.Metrics
}

// New creates a new Handler instance.
func New(deps Deps) *Handler {
	return &Handler{
		db:          deps.DB,
		deployments: deps.Deployments,
		chat:        deps.Chat,
		auth:        deps.Auth,
		cors:        deps.CORS,
		metrics:     deps.Metrics,
	}
}

// RegisterRoutes registers all HTTP routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /healthz", h.handleHealthz)

	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics.Handler())
	}

	// Swagger UI
	mux.HandleFunc("GET /swagger/", httpSwagger.Handler())

	// Public routes
	mux.HandleFunc("GET /api/v1/subdomains/{subdomain}", h.handleSubdomainAvailable)
	mux.Handle("POST /api/v1/chat/{subdomain}", h.cors.Handler(http.HandlerFunc(h.handleChat)))
	mux.Handle("OPTIONS /api/v1/chat/{subdomain}", h.cors.Handler(http.HandlerFunc(h.handleChat)))

	// Dashboard routes with authentication
	mux.Handle("GET /api/v1/agents", h.auth.Authenticate(http.HandlerFunc(h.handleListAgents)))
	mux.Handle("POST /api/v1/agents", h.auth.Authenticate(http.HandlerFunc(h.handleGenerate)))
	mux.Handle("POST /api/v1/agents/deploy", h.auth.Authenticate(http.HandlerFunc(h.handleDeployAll)))
	mux.Handle("GET /api/v1/agents/{id}", h.auth.Authenticate(http.HandlerFunc(h.handleGetAgent)))
	mux.Handle("PUT /api/v1/agents/{id}", h.auth.Authenticate(http.HandlerFunc(h.handleEditAgent)))
	mux.Handle("DELETE /api/v1/agents/{id}", h.auth.Authenticate(http.HandlerFunc(h.handleDeleteAgent)))
	mux.Handle("GET /api/v1/agents/{id}/files", h.auth.Authenticate(http.HandlerFunc(h.handleGetFiles)))
	mux.Handle("GET /api/v1/agents/{id}/steps", h.auth.Authenticate(http.HandlerFunc(h.handleGetSteps)))
	mux.Handle("POST /api/v1/agents/{id}/upload", h.auth.Authenticate(http.HandlerFunc(h.handleUpload)))
	mux.Handle("POST /api/v1/agents/{id}/deploy", h.auth.Authenticate(http.HandlerFunc(h.handleDeploy)))
	mux.Handle("POST /api/v1/agents/{id}/redeploy", h.auth.Authenticate(http.HandlerFunc(h.handleRedeploy)))
}

// Routes returns the full HTTP handler with request metrics applied.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	if h.metrics == nil {
		return mux
	}
	return h.metrics.Middleware(mux)
}

// handleHealthz returns 200 OK if the database is reachable.
func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.db.Ping(ctx); err != nil {
		slog.Error("database health check failed", "error", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes a standard error response.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, dto.NewErrorResponse(code, message))
}

// respondDomainError maps err and writes it as a standard error response.
func respondDomainError(w http.ResponseWriter, err error) {
	status, code, message := dto.MapDomainError(err)
	respondError(w, status, code, message)
}

// decodeJSON reads a size-limited JSON body into v.
// Returns false if the body is invalid (error already sent to client).
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return false
	}
	return true
}

// extractAgentID extracts and validates agent ID from path parameter.
// Returns (agentID, true) if valid, ("", false) if invalid (error already sent to client).
func extractAgentID(w http.ResponseWriter, r *http.Request) (string, bool) {
	agentID := r.PathValue("id")
	if agentID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "agent id is required")
		return "", false
	}

	if _, err := uuid.Parse(agentID); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "agent id must be a valid UUID")
		return "", false
	}

	return agentID, true
}

// requireUser extracts the authenticated user id.
// Returns ("", false) if missing (error already sent to client).
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return "", false
	}
	return userID, true
}
