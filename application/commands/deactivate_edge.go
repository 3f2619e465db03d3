package commands

import (
	"github.com/TPCMinistries/insight-engine/pkg/utils"
)

// DeactivateEdgeCommand prunes an edge from traversals without deleting its
// accumulated evidence
type DeactivateEdgeCommand struct {
	OrganizationID string `json:"organization_id" validate:"required"`
	EdgeID         string `json:"edge_id" validate:"required,uuid"`
}

// Validate checks the command's invariants
func (c DeactivateEdgeCommand) Validate() error {
	return utils.ValidateStruct(c)
}
