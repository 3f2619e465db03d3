package handlers

import (
	"context"
	"fmt"

	"github.com/TPCMinistries/insight-engine/application/queries"
	"github.com/TPCMinistries/insight-engine/application/queries/bus"
	"github.com/TPCMinistries/insight-engine/application/services"
)

// GetPendingSuggestionsHandler handles GetPendingSuggestionsQuery
type GetPendingSuggestionsHandler struct {
	suggestions *services.SuggestionService
}

// NewGetPendingSuggestionsHandler creates the handler
func NewGetPendingSuggestionsHandler(suggestions *services.SuggestionService) *GetPendingSuggestionsHandler {
	return &GetPendingSuggestionsHandler{suggestions: suggestions}
}

// Handle executes the query
func (h *GetPendingSuggestionsHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.GetPendingSuggestionsQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", query)
	}

	ranked, err := h.suggestions.GetRanked(ctx, q.OrganizationID, q.UserID, q.Limit)
	if err != nil {
		return nil, err
	}

	return queries.SuggestionsToDTO(ranked), nil
}
