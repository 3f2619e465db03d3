package handlers

import (
	"context"
	"fmt"

	"github.com/TPCMinistries/insight-engine/application/commands"
	"github.com/TPCMinistries/insight-engine/application/commands/bus"
	"github.com/TPCMinistries/insight-engine/application/services"
)

// GenerateSuggestionsHandler handles GenerateSuggestionsCommand
type GenerateSuggestionsHandler struct {
	suggestions *services.SuggestionService
}

// NewGenerateSuggestionsHandler creates the handler
func NewGenerateSuggestionsHandler(suggestions *services.SuggestionService) *GenerateSuggestionsHandler {
	return &GenerateSuggestionsHandler{suggestions: suggestions}
}

// Handle processes the command
func (h *GenerateSuggestionsHandler) Handle(ctx context.Context, cmd bus.Command) error {
	generate, ok := cmd.(commands.GenerateSuggestionsCommand)
	if !ok {
		return fmt.Errorf("unexpected command type %T", cmd)
	}

	_, err := h.suggestions.Generate(ctx, generate.OrganizationID, generate.UserID, generate.MaxSuggestions)
	return err
}
