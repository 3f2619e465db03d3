package commands

import (
	"github.com/TPCMinistries/insight-engine/pkg/utils"
)

// IngestEvidenceCommand processes one conversation transcript into graph
// edges, insights, and patterns
type IngestEvidenceCommand struct {
	OrganizationID string `json:"organization_id" validate:"required"`
	UserID         string `json:"user_id" validate:"required"`
	ConversationID string `json:"conversation_id" validate:"required"`
	Transcript     string `json:"transcript" validate:"required,min=1"`
}

// Validate checks the command's invariants
func (c IngestEvidenceCommand) Validate() error {
	return utils.ValidateStruct(c)
}
