package handlers

import (
	"context"
	"fmt"

	"github.com/TPCMinistries/insight-engine/application/commands"
	"github.com/TPCMinistries/insight-engine/application/commands/bus"
	"github.com/TPCMinistries/insight-engine/application/services"
)

// RecordFeedbackHandler handles RecordFeedbackCommand
type RecordFeedbackHandler struct {
	suggestions *services.SuggestionService
}

// NewRecordFeedbackHandler creates the handler
func NewRecordFeedbackHandler(suggestions *services.SuggestionService) *RecordFeedbackHandler {
	return &RecordFeedbackHandler{suggestions: suggestions}
}

// Handle processes the command
func (h *RecordFeedbackHandler) Handle(ctx context.Context, cmd bus.Command) error {
	feedback, ok := cmd.(commands.RecordFeedbackCommand)
	if !ok {
		return fmt.Errorf("unexpected command type %T", cmd)
	}

	var err error
	switch feedback.Action {
	case commands.FeedbackAccept:
		_, err = h.suggestions.Accept(ctx, feedback.OrganizationID, feedback.UserID, feedback.SuggestionID)
	case commands.FeedbackDismiss:
		_, err = h.suggestions.Dismiss(ctx, feedback.OrganizationID, feedback.UserID, feedback.SuggestionID, feedback.Reason)
	case commands.FeedbackSnooze:
		_, err = h.suggestions.Snooze(ctx, feedback.OrganizationID, feedback.UserID, feedback.SuggestionID, feedback.SnoozeUntil)
	default:
		err = fmt.Errorf("unknown feedback action %q", feedback.Action)
	}
	return err
}
