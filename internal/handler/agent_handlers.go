package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/mtlprog/pludo/internal/domain"
	"github.com/mtlprog/pludo/internal/handler/dto"
	"github.com/mtlprog/pludo/internal/service"
)

// handleListAgents returns the authenticated user's agents, newest first.
// @Summary List agents
// @Description Returns the authenticated user's agents, newest first
// @Tags agents
// @Produce json
// @Success 200 {object} dto.AgentsListResponse
// @Failure 401 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /agents [get]
func (h *Handler) handleListAgents(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	agents, err := h.deployments.List(r.Context(), userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	resp := dto.AgentsListResponse{
		Agents: make([]dto.AgentResponse, 0, len(agents)),
		Total:  len(agents),
	}
	for _, a := range agents {
		resp.Agents = append(resp.Agents, h.agentResponse(a))
	}

	respondJSON(w, http.StatusOK, resp)
}

// handleGenerate runs the generate phase for a new agent.
// @Summary Generate an agent site
// @Description Validates the configuration, stores the agent and renders its site files. The API key is never returned.
// @Tags agents
// @Accept json
// @Produce json
// @Param request body dto.AgentConfigRequest true "Agent configuration"
// @Success 201 {object} dto.PhaseResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.PhaseResponse
// @Failure 422 {object} dto.PhaseResponse
// @Security BearerAuth
// @Router /agents [post]
func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req dto.AgentConfigRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.deployments.Generate(r.Context(), userID, req.ToDomain())
	if err != nil {
		respondPhaseError(w, domain.StepGenerate, err, dto.PhaseResponse{})
		return
	}

	respondJSON(w, http.StatusCreated, h.generateResponse(res))
}

// handleEditAgent regenerates an agent from an updated configuration.
// @Summary Edit an agent
// @Description Replaces the configuration and regenerates the site. The subdomain cannot change; an empty apiKey keeps the stored key.
// @Tags agents
// @Accept json
// @Produce json
// @Param id path string true "Agent ID"
// @Param request body dto.AgentConfigRequest true "Agent configuration"
// @Success 200 {object} dto.PhaseResponse
// @Failure 403 {object} dto.PhaseResponse
// @Failure 404 {object} dto.PhaseResponse
// @Failure 422 {object} dto.PhaseResponse
// @Security BearerAuth
// @Router /agents/{id} [put]
func (h *Handler) handleEditAgent(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	agentID, ok := extractAgentID(w, r)
	if !ok {
		return
	}

	var req dto.AgentConfigRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.deployments.Edit(r.Context(), userID, agentID, req.ToDomain())
	if err != nil {
		respondPhaseError(w, domain.StepGenerate, err, dto.PhaseResponse{AgentID: agentID})
		return
	}

	respondJSON(w, http.StatusOK, h.generateResponse(res))
}

// handleUpload runs the upload phase.
// @Summary Upload an agent site
// @Description Creates or reuses the agent's GitHub repository and commits the generated files
// @Tags pipeline
// @Produce json
// @Param id path string true "Agent ID"
// @Success 200 {object} dto.PhaseResponse
// @Failure 404 {object} dto.PhaseResponse
// @Failure 502 {object} dto.PhaseResponse
// @Security BearerAuth
// @Router /agents/{id}/upload [post]
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	agentID, ok := extractAgentID(w, r)
	if !ok {
		return
	}

	res, err := h.deployments.Upload(r.Context(), userID, agentID)
	if err != nil {
		respondPhaseError(w, domain.StepUpload, err, dto.PhaseResponse{AgentID: agentID})
		return
	}

	respondJSON(w, http.StatusOK, dto.PhaseResponse{
		Success:       true,
		Phase:         domain.StepUpload,
		AgentID:       agentID,
		RepositoryURL: res.RepositoryURL,
		CommitSHA:     res.CommitSHA,
	})
}

// handleDeploy runs the deploy phase.
// @Summary Deploy an agent site
// @Description Creates or reuses the Vercel project and waits for the build to become ready
// @Tags pipeline
// @Produce json
// @Param id path string true "Agent ID"
// @Success 200 {object} dto.PhaseResponse
// @Failure 409 {object} dto.PhaseResponse
// @Failure 502 {object} dto.PhaseResponse
// @Failure 504 {object} dto.PhaseResponse
// @Security BearerAuth
// @Router /agents/{id}/deploy [post]
func (h *Handler) handleDeploy(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	agentID, ok := extractAgentID(w, r)
	if !ok {
		return
	}

	res, err := h.deployments.Deploy(r.Context(), userID, agentID)
	if err != nil {
		respondPhaseError(w, domain.StepDeploy, err, dto.PhaseResponse{AgentID: agentID})
		return
	}

	respondJSON(w, http.StatusOK, dto.PhaseResponse{
		Success:       true,
		Phase:         domain.StepDeploy,
		AgentID:       agentID,
		LiveURL:       res.LiveURL,
		DeploymentURL: res.DeploymentURL,
		EmbedSnippet:  res.EmbedSnippet,
	})
}

// handleDeployAll runs generate, upload and deploy for a new agent.
// @Summary Generate, upload and deploy
// @Description Runs all three phases for a new agent. Results of completed phases are kept when a later phase fails.
// @Tags pipeline
// @Accept json
// @Produce json
// @Param request body dto.AgentConfigRequest true "Agent configuration"
// @Success 200 {object} dto.PhaseResponse
// @Failure 422 {object} dto.PhaseResponse
// @Failure 502 {object} dto.PhaseResponse
// @Failure 504 {object} dto.PhaseResponse
// @Security BearerAuth
// @Router /agents/deploy [post]
func (h *Handler) handleDeployAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req dto.AgentConfigRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.deployments.DeployAll(r.Context(), userID, req.ToDomain())
	h.respondPipeline(w, r, userID, res, err)
}

// handleRedeploy resumes the pipeline for an existing agent.
// @Summary Resume the pipeline
// @Description Runs upload and deploy again for an existing agent, reusing its repository and project
// @Tags pipeline
// @Produce json
// @Param id path string true "Agent ID"
// @Success 200 {object} dto.PhaseResponse
// @Failure 404 {object} dto.PhaseResponse
// @Failure 502 {object} dto.PhaseResponse
// @Security BearerAuth
// @Router /agents/{id}/redeploy [post]
func (h *Handler) handleRedeploy(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	agentID, ok := extractAgentID(w, r)
	if !ok {
		return
	}

	res, err := h.deployments.Redeploy(r.Context(), userID, agentID)
	h.respondPipeline(w, r, userID, res, err)
}

// handleGetAgent returns one agent.
// @Summary Get an agent
// @Tags agents
// @Produce json
// @Param id path string true "Agent ID"
// @Success 200 {object} dto.AgentResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /agents/{id} [get]
func (h *Handler) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	agentID, ok := extractAgentID(w, r)
	if !ok {
		return
	}

	agent, err := h.deployments.Get(r.Context(), userID, agentID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, h.agentResponse(agent))
}

// handleDeleteAgent deletes an agent and, best effort, its repository.
// @Summary Delete an agent
// @Tags agents
// @Param id path string true "Agent ID"
// @Success 204
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /agents/{id} [delete]
func (h *Handler) handleDeleteAgent(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	agentID, ok := extractAgentID(w, r)
	if !ok {
		return
	}

	if err := h.deployments.Delete(r.Context(), userID, agentID); err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleGetFiles returns the agent's generated site files.
// @Summary Get generated files
// @Tags agents
// @Produce json
// @Param id path string true "Agent ID"
// @Success 200 {object} dto.FilesResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /agents/{id}/files [get]
func (h *Handler) handleGetFiles(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	agentID, ok := extractAgentID(w, r)
	if !ok {
		return
	}

	files, err := h.deployments.Files(r.Context(), userID, agentID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.FilesResponse{Files: files})
}

// handleGetSteps returns the agent's deployment progress.
// @Summary Get deployment progress
// @Tags pipeline
// @Produce json
// @Param id path string true "Agent ID"
// @Success 200 {object} dto.StepsResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /agents/{id}/steps [get]
func (h *Handler) handleGetSteps(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	agentID, ok := extractAgentID(w, r)
	if !ok {
		return
	}

	steps, err := h.deployments.Steps(r.Context(), userID, agentID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.StepsResponse{Steps: steps})
}

// handleSubdomainAvailable reports whether a subdomain can be claimed.
// @Summary Check subdomain availability
// @Tags agents
// @Produce json
// @Param subdomain path string true "Subdomain"
// @Success 200 {object} dto.SubdomainResponse
// @Router /subdomains/{subdomain} [get]
func (h *Handler) handleSubdomainAvailable(w http.ResponseWriter, r *http.Request) {
	subdomain := strings.ToLower(strings.TrimSpace(r.PathValue("subdomain")))

	available, err := h.deployments.SubdomainAvailable(r.Context(), subdomain)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSubdomain) {
			respondJSON(w, http.StatusOK, dto.SubdomainResponse{
				Subdomain: subdomain,
				Available: false,
				Reason:    err.Error(),
			})
			return
		}
		respondDomainError(w, err)
		return
	}

	resp := dto.SubdomainResponse{Subdomain: subdomain, Available: available}
	if !available {
		resp.Reason = domain.ErrSubdomainTaken.Error()
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) agentResponse(a *domain.Agent) dto.AgentResponse {
	return dto.NewAgentResponse(a, h.deployments.EmbedSnippet(a.Subdomain))
}

func (h *Handler) generateResponse(res *service.GenerateResult) dto.PhaseResponse {
	agent := h.agentResponse(res.Agent)
	return dto.PhaseResponse{
		Success:   true,
		Phase:     domain.StepGenerate,
		AgentID:   res.Agent.ID,
		Agent:     &agent,
		FileCount: len(res.Files),
	}
}

// respondPipeline writes a full pipeline outcome. Fields of the phases that
// completed are kept even when a later phase failed.
func (h *Handler) respondPipeline(w http.ResponseWriter, r *http.Request, userID string, res *service.PipelineResult, err error) {
	resp := dto.PhaseResponse{Success: err == nil}
	if res != nil {
		resp.AgentID = res.AgentID
		if res.Generate != nil {
			agent := h.agentResponse(res.Generate.Agent)
			resp.Agent = &agent
			resp.FileCount = len(res.Generate.Files)
		}
		if res.Upload != nil {
			resp.RepositoryURL = res.Upload.RepositoryURL
			resp.CommitSHA = res.Upload.CommitSHA
		}
		if res.Deploy != nil {
			resp.LiveURL = res.Deploy.LiveURL
			resp.DeploymentURL = res.Deploy.DeploymentURL
			resp.EmbedSnippet = res.Deploy.EmbedSnippet
		}
	}
	if resp.AgentID != "" {
		if steps, stepsErr := h.deployments.Steps(r.Context(), userID, resp.AgentID); stepsErr == nil {
			resp.Steps = steps
		}
	}

	if err != nil {
		phase := ""
		var phaseErr *service.PhaseError
		if errors.As(err, &phaseErr) {
			phase = phaseErr.Phase
		}
		respondPhaseError(w, phase, err, resp)
		return
	}

	resp.Phase = domain.StepDeploy
	respondJSON(w, http.StatusOK, resp)
}

// respondPhaseError writes a failed phase as {success: false, error, code}
// on top of whatever partial results resp already carries.
func respondPhaseError(w http.ResponseWriter, phase string, err error, resp dto.PhaseResponse) {
	status, code, message := dto.MapDomainError(err)
	resp.Success = false
	resp.Phase = phase
	resp.Error = message
	resp.Code = code
	respondJSON(w, status, resp)
}
