package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/TPCMinistries/insight-engine/application/commands"
	"github.com/TPCMinistries/insight-engine/application/commands/bus"
	"github.com/TPCMinistries/insight-engine/pkg/common"
	pkgerrors "github.com/TPCMinistries/insight-engine/pkg/errors"
)

// EvidenceHandler handles conversation intake requests
type EvidenceHandler struct {
	commandBus   *bus.CommandBus
	errorHandler *pkgerrors.ErrorHandler
	logger       *zap.Logger
}

// NewEvidenceHandler creates a new evidence handler
func NewEvidenceHandler(commandBus *bus.CommandBus, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *EvidenceHandler {
	return &EvidenceHandler{
		commandBus:   commandBus,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// IngestEvidenceRequest represents the request body for evidence intake
type IngestEvidenceRequest struct {
	ConversationID string `json:"conversation_id"`
	Transcript     string `json:"transcript"`
}

// IngestEvidence handles POST /evidence
func (h *EvidenceHandler) IngestEvidence(w http.ResponseWriter, r *http.Request) {
	var req IngestEvidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
		return
	}

	userID, _ := common.GetUserID(r.Context())
	organizationID, _ := common.GetOrganizationID(r.Context())

	cmd := commands.IngestEvidenceCommand{
		OrganizationID: organizationID,
		UserID:         userID,
		ConversationID: req.ConversationID,
		Transcript:     req.Transcript,
	}

	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	// Accepted rather than Created: extraction is best effort and may have
	// contributed nothing
	common.RespondJSON(w, http.StatusAccepted, map[string]interface{}{
		"conversation_id": req.ConversationID,
		"status":          "ingested",
	})
}
