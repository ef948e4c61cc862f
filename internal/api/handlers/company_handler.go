package handlers

import (
	"context"
	"net/http"

	"github.com/markdave123-py/chatterbox/internal/models"
	"github.com/markdave123-py/chatterbox/internal/services"
)

type PromptService interface {
	UpdatePrompt(ctx context.Context, companyID int64, prompt string) (*services.PromptUpdate, error)
}

type StatisticsService interface {
	GetPerformance(ctx context.Context, companyID int64) (*models.Performance, error)
}

type ConversationService interface {
	ListConversations(ctx context.Context, companyID int64) ([]models.ConversationSummary, error)
}

// CompanyHandler serves the per-company dashboard endpoints.
type CompanyHandler struct {
	prompts       PromptService
	stats         StatisticsService
	conversations ConversationService
}

func NewCompanyHandler(prompts PromptService, stats StatisticsService, conversations ConversationService) *CompanyHandler {
	return &CompanyHandler{prompts: prompts, stats: stats, conversations: conversations}
}

type conversationsResponse struct {
	Conversations []models.ConversationSummary `json:"conversations"`
}

// UpdatePrompt handles POST /prompt.
func (h *CompanyHandler) UpdatePrompt(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	companyID := int64(req.CompanyID)
	if err := authorizeCompany(r, companyID); err != nil {
		writeError(w, r, err)
		return
	}

	out, err := h.prompts.UpdatePrompt(r.Context(), companyID, req.Prompt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GetPerformance handles GET /performance?companyId=.
func (h *CompanyHandler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyFromQuery(w, r)
	if !ok {
		return
	}

	perf, err := h.stats.GetPerformance(r.Context(), companyID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, perf)
}

// ListConversations handles GET /conversations?companyId=.
func (h *CompanyHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyFromQuery(w, r)
	if !ok {
		return
	}

	convs, err := h.conversations.ListConversations(r.Context(), companyID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if convs == nil {
		convs = []models.ConversationSummary{}
	}
	writeJSON(w, http.StatusOK, conversationsResponse{Conversations: convs})
}

func (h *CompanyHandler) companyFromQuery(w http.ResponseWriter, r *http.Request) (int64, bool) {
	companyID, err := ParseCompanyID(r.URL.Query().Get("companyId"))
	if err == nil {
		err = authorizeCompany(r, companyID)
	}
	if err != nil {
		writeError(w, r, err)
		return 0, false
	}
	return companyID, true
}
