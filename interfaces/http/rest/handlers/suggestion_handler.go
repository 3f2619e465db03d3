package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/TPCMinistries/insight-engine/application/commands"
	"github.com/TPCMinistries/insight-engine/application/commands/bus"
	"github.com/TPCMinistries/insight-engine/application/queries"
	querybus "github.com/TPCMinistries/insight-engine/application/queries/bus"
	"github.com/TPCMinistries/insight-engine/pkg/common"
	pkgerrors "github.com/TPCMinistries/insight-engine/pkg/errors"
)

// SuggestionHandler handles suggestion lifecycle requests
type SuggestionHandler struct {
	commandBus   *bus.CommandBus
	queryBus     *querybus.QueryBus
	errorHandler *pkgerrors.ErrorHandler
	logger       *zap.Logger
}

// NewSuggestionHandler creates a new suggestion handler
func NewSuggestionHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *SuggestionHandler {
	return &SuggestionHandler{
		commandBus:   commandBus,
		queryBus:     queryBus,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// ListSuggestions handles GET /suggestions
func (h *SuggestionHandler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.GetUserID(r.Context())
	organizationID, _ := common.GetOrganizationID(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			common.RespondError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be an integer")
			return
		}
		limit = parsed
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetPendingSuggestionsQuery{
		OrganizationID: organizationID,
		UserID:         userID,
		Limit:          limit,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	suggestions := result.([]queries.SuggestionDTO)
	common.RespondWithMeta(w, http.StatusOK, suggestions, &common.MetaInfo{
		RequestID: common.ExtractRequestID(r),
		Count:     len(suggestions),
	})
}

// GenerateSuggestions handles POST /suggestions/generate
func (h *SuggestionHandler) GenerateSuggestions(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.GetUserID(r.Context())
	organizationID, _ := common.GetOrganizationID(r.Context())

	var req struct {
		MaxSuggestions int `json:"max_suggestions,omitempty"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
			return
		}
	}

	cmd := commands.GenerateSuggestionsCommand{
		OrganizationID: organizationID,
		UserID:         userID,
		MaxSuggestions: req.MaxSuggestions,
	}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusAccepted, map[string]interface{}{
		"status": "generated",
	})
}

// FeedbackRequest represents the request body for suggestion feedback
type FeedbackRequest struct {
	Action      string     `json:"action"`
	Reason      string     `json:"reason,omitempty"`
	SnoozeUntil *time.Time `json:"snooze_until,omitempty"`
}

// RecordFeedback handles POST /suggestions/{suggestionID}/feedback
func (h *SuggestionHandler) RecordFeedback(w http.ResponseWriter, r *http.Request) {
	suggestionID := chi.URLParam(r, "suggestionID")
	if suggestionID == "" {
		common.RespondError(w, http.StatusBadRequest, "MISSING_ID", "Suggestion ID is required")
		return
	}

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
		return
	}

	userID, _ := common.GetUserID(r.Context())
	organizationID, _ := common.GetOrganizationID(r.Context())

	cmd := commands.RecordFeedbackCommand{
		OrganizationID: organizationID,
		UserID:         userID,
		SuggestionID:   suggestionID,
		Action:         req.Action,
		Reason:         req.Reason,
	}
	if req.SnoozeUntil != nil {
		cmd.SnoozeUntil = *req.SnoozeUntil
	}

	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"suggestion_id": suggestionID,
		"action":        req.Action,
	})
}
