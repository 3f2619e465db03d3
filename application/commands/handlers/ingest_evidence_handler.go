package handlers

import (
	"context"
	"fmt"

	"github.com/TPCMinistries/insight-engine/application/commands"
	"github.com/TPCMinistries/insight-engine/application/commands/bus"
	"github.com/TPCMinistries/insight-engine/application/services"
)

// IngestEvidenceHandler handles IngestEvidenceCommand
type IngestEvidenceHandler struct {
	intake *services.IntakeService
}

// NewIngestEvidenceHandler creates the handler
func NewIngestEvidenceHandler(intake *services.IntakeService) *IngestEvidenceHandler {
	return &IngestEvidenceHandler{intake: intake}
}

// Handle processes the command
func (h *IngestEvidenceHandler) Handle(ctx context.Context, cmd bus.Command) error {
	ingest, ok := cmd.(commands.IngestEvidenceCommand)
	if !ok {
		return fmt.Errorf("unexpected command type %T", cmd)
	}

	_, err := h.intake.ProcessConversation(ctx, ingest.OrganizationID, ingest.UserID, ingest.ConversationID, ingest.Transcript)
	return err
}
