package handlers

import (
	"context"
	"fmt"

	"github.com/TPCMinistries/insight-engine/application/commands"
	"github.com/TPCMinistries/insight-engine/application/commands/bus"
	"github.com/TPCMinistries/insight-engine/application/services"
)

// DeactivateEdgeHandler handles DeactivateEdgeCommand
type DeactivateEdgeHandler struct {
	graph *services.GraphService
}

// NewDeactivateEdgeHandler creates the handler
func NewDeactivateEdgeHandler(graph *services.GraphService) *DeactivateEdgeHandler {
	return &DeactivateEdgeHandler{graph: graph}
}

// Handle processes the command
func (h *DeactivateEdgeHandler) Handle(ctx context.Context, cmd bus.Command) error {
	deactivate, ok := cmd.(commands.DeactivateEdgeCommand)
	if !ok {
		return fmt.Errorf("unexpected command type %T", cmd)
	}

	return h.graph.DeactivateEdge(ctx, deactivate.OrganizationID, deactivate.EdgeID)
}
