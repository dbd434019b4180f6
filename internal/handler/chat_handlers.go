package handler

import (
	"net/http"

	"github.com/mtlprog/pludo/internal/handler/dto"
	"github.com/mtlprog/pludo/internal/llm"
)

// handleChat answers a widget conversation on behalf of the agent at subdomain.
// The provider key stays on the server; the browser only sees the reply.
// @Summary Chat with a deployed agent
// @Description Public endpoint used by generated sites. Rate limited per agent.
// @Tags chat
// @Accept json
// @Produce json
// @Param subdomain path string true "Agent subdomain"
// @Param request body dto.ChatRequest true "Conversation"
// @Success 200 {object} dto.ChatResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /chat/{subdomain} [post]
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	subdomain := r.PathValue("subdomain")

	var req dto.ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	messages := make([]llm.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}

	reply, err := h.chat.Reply(r.Context(), subdomain, req.Model, messages)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ChatResponse{Reply: reply})
}
