package services

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/TPCMinistries/insight-engine/application/ports"
	"github.com/TPCMinistries/insight-engine/domain/config"
	"github.com/TPCMinistries/insight-engine/domain/core/entities"
	"github.com/TPCMinistries/insight-engine/domain/events"
	"github.com/TPCMinistries/insight-engine/pkg/errors"
	"github.com/TPCMinistries/insight-engine/pkg/observability"
	"github.com/TPCMinistries/insight-engine/pkg/utils"
)

// SuggestionService owns the suggestion lifecycle: synthesis from
// accumulated evidence, ranked retrieval, and feedback with credit
// assignment back through the records each suggestion was built on.
type SuggestionService struct {
	suggestions ports.SuggestionRepository
	insights    ports.InsightRepository
	patterns    ports.PatternRepository
	preferences *PreferenceService
	completion  ports.CompletionService
	publisher   ports.EventPublisher
	metrics     *observability.Metrics
	config      *config.DomainConfig
	clock       utils.Clock
	logger      *zap.Logger
}

// NewSuggestionService creates a suggestion service
func NewSuggestionService(
	suggestions ports.SuggestionRepository,
	insights ports.InsightRepository,
	patterns ports.PatternRepository,
	preferences *PreferenceService,
	completion ports.CompletionService,
	publisher ports.EventPublisher,
	metrics *observability.Metrics,
	cfg *config.DomainConfig,
	clock utils.Clock,
	logger *zap.Logger,
) *SuggestionService {
	return &SuggestionService{
		suggestions: suggestions,
		insights:    insights,
		patterns:    patterns,
		preferences: preferences,
		completion:  completion,
		publisher:   publisher,
		metrics:     metrics,
		config:      cfg,
		clock:       clock,
		logger:      logger,
	}
}

// Generate synthesizes fresh suggestions for a user from their top insights,
// most frequent patterns, and active preferences. Completion output is
// untrusted: invalid candidates are dropped one by one. A completion failure
// degrades to zero suggestions, never to an error the caller must handle.
func (s *SuggestionService) Generate(ctx context.Context, organizationID, userID string, maxSuggestions int) ([]*entities.Suggestion, error) {
	if maxSuggestions <= 0 || maxSuggestions > s.config.MaxSuggestionLimit {
		maxSuggestions = s.config.MaxSuggestionLimit
	}

	generation, err := s.buildGenerationContext(ctx, organizationID, userID)
	if err != nil {
		return nil, err
	}
	if len(generation.Insights) == 0 && len(generation.Patterns) == 0 {
		// Nothing to reason over yet
		return []*entities.Suggestion{}, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.config.CompletionTimeout)
	defer cancel()

	candidates, err := s.completion.GenerateSuggestions(callCtx, generation)
	if err != nil {
		s.logger.Warn("Suggestion generation failed, returning none",
			zap.String("user_id", userID),
			zap.Error(err))
		s.metrics.IncrementCounter(ctx, "GenerationFailures", 1, nil)
		return []*entities.Suggestion{}, nil
	}

	created := make([]*entities.Suggestion, 0, len(candidates))
	for _, candidate := range candidates {
		if len(created) >= maxSuggestions {
			break
		}

		suggestion, err := s.toSuggestion(organizationID, userID, candidate)
		if err != nil {
			s.logger.Debug("Dropping invalid suggestion candidate",
				zap.String("title", candidate.Title),
				zap.Error(err))
			continue
		}
		if err := s.suggestions.Save(ctx, suggestion); err != nil {
			s.logger.Error("Suggestion save failed",
				zap.String("suggestion_id", suggestion.ID()),
				zap.Error(err))
			continue
		}
		created = append(created, suggestion)

		event := events.NewSuggestionCreated(
			suggestion.ID(), organizationID, userID,
			suggestion.Type(), string(suggestion.Priority()),
			s.clock.Now(),
		)
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("Failed to publish suggestion event",
				zap.String("suggestion_id", suggestion.ID()),
				zap.Error(err))
		}
	}

	s.metrics.IncrementCounter(ctx, "SuggestionsGenerated", float64(len(created)), nil)
	s.logger.Info("Suggestions generated",
		zap.String("organization_id", organizationID),
		zap.String("user_id", userID),
		zap.Int("created", len(created)),
		zap.Int("candidates", len(candidates)))

	return created, nil
}

// buildGenerationContext assembles the evidence bundle for the completion
// service from the highest-signal stored records
func (s *SuggestionService) buildGenerationContext(ctx context.Context, organizationID, userID string) (ports.GenerationContext, error) {
	var generation ports.GenerationContext

	topInsights, err := s.insights.GetTopByConfidence(ctx, organizationID, userID, s.config.TopInsightCount)
	if err != nil {
		return generation, err
	}
	for _, insight := range topInsights {
		generation.Insights = append(generation.Insights, ports.GenerationInsight{
			ID:         insight.ID(),
			Type:       insight.Type(),
			Title:      insight.Title(),
			Confidence: insight.Confidence(),
		})
	}

	topPatterns, err := s.patterns.GetTopByOccurrence(ctx, organizationID, userID, s.config.TopPatternCount)
	if err != nil {
		return generation, err
	}
	for _, pattern := range topPatterns {
		generation.Patterns = append(generation.Patterns, ports.GenerationPattern{
			ID:              pattern.ID(),
			Type:            pattern.Type(),
			Title:           pattern.Title(),
			Confidence:      pattern.Confidence(),
			OccurrenceCount: pattern.OccurrenceCount(),
		})
	}

	active, err := s.preferences.GetActive(ctx, userID)
	if err != nil {
		return generation, err
	}
	for _, preference := range active {
		generation.Preferences = append(generation.Preferences, ports.GenerationPreference{
			Type:       preference.Type(),
			Key:        preference.Key(),
			Value:      preference.Value(),
			Confidence: preference.Confidence(),
		})
	}

	return generation, nil
}

// toSuggestion validates one untrusted suggestion candidate
func (s *SuggestionService) toSuggestion(organizationID, userID string, candidate ports.SuggestionCandidate) (*entities.Suggestion, error) {
	priority, err := entities.ParseSuggestionPriority(candidate.Priority)
	if err != nil {
		return nil, err
	}
	return entities.NewSuggestion(
		organizationID, userID,
		candidate.SuggestionType, candidate.Title, candidate.Description,
		candidate.RelevanceScore, candidate.Confidence,
		priority,
		candidate.BasedOnInsights, candidate.BasedOnPatterns, candidate.ContextTags,
	)
}

// GetRanked lists the user's actionable suggestions: pending ones plus
// snoozed ones whose window has expired. Expired snoozes wake back to
// pending as a side effect. Ordering is relevance first, priority second,
// oldest first as the tiebreak.
func (s *SuggestionService) GetRanked(ctx context.Context, organizationID, userID string, limit int) ([]*entities.Suggestion, error) {
	if limit <= 0 || limit > s.config.MaxSuggestionLimit {
		limit = s.config.MaxSuggestionLimit
	}

	now := s.clock.Now()
	rankable, err := s.suggestions.GetRankable(ctx, organizationID, userID, now)
	if err != nil {
		return nil, err
	}

	actionable := make([]*entities.Suggestion, 0, len(rankable))
	for _, suggestion := range rankable {
		stored := suggestion.Status()
		if suggestion.WakeIfExpired(now) {
			// Lazy wake-up; a lost race just means someone else woke it first
			if err := s.suggestions.UpdateStatus(ctx, suggestion, stored); err != nil && !errors.IsConflict(err) {
				s.logger.Warn("Failed to wake snoozed suggestion",
					zap.String("suggestion_id", suggestion.ID()),
					zap.Error(err))
			}
		}
		if suggestion.IsRankable(now) {
			actionable = append(actionable, suggestion)
		}
	}

	sort.SliceStable(actionable, func(i, j int) bool {
		if actionable[i].RelevanceScore() != actionable[j].RelevanceScore() {
			return actionable[i].RelevanceScore() > actionable[j].RelevanceScore()
		}
		if actionable[i].Priority().Rank() != actionable[j].Priority().Rank() {
			return actionable[i].Priority().Rank() > actionable[j].Priority().Rank()
		}
		return actionable[i].CreatedAt().Before(actionable[j].CreatedAt())
	})

	if len(actionable) > limit {
		actionable = actionable[:limit]
	}
	return actionable, nil
}

// Accept marks a suggestion accepted and reinforces everything that produced
// it. Credit runs exactly once: a repeated accept is a no-op.
func (s *SuggestionService) Accept(ctx context.Context, organizationID, userID, suggestionID string) (*entities.Suggestion, error) {
	return s.transition(ctx, organizationID, userID, suggestionID, func(suggestion *entities.Suggestion) (bool, error) {
		return suggestion.Accept()
	}, func(suggestion *entities.Suggestion) {
		s.assignAcceptCredit(ctx, organizationID, userID, suggestion)
	}, "")
}

// Dismiss marks a suggestion dismissed, decays the patterns behind it, and
// counts the dismissal toward the dislike threshold for its type
func (s *SuggestionService) Dismiss(ctx context.Context, organizationID, userID, suggestionID, reason string) (*entities.Suggestion, error) {
	return s.transition(ctx, organizationID, userID, suggestionID, func(suggestion *entities.Suggestion) (bool, error) {
		return suggestion.Dismiss(reason)
	}, func(suggestion *entities.Suggestion) {
		s.assignDismissCredit(ctx, organizationID, userID, suggestion)
	}, reason)
}

// Snooze parks a suggestion until the given time; the zero time selects the
// configured default snooze window
func (s *SuggestionService) Snooze(ctx context.Context, organizationID, userID, suggestionID string, until time.Time) (*entities.Suggestion, error) {
	if until.IsZero() {
		until = s.clock.Now().Add(s.config.DefaultSnooze)
	}
	if until.Before(s.clock.Now()) {
		return nil, errors.NewValidationError("snooze_until must be in the future")
	}
	return s.transition(ctx, organizationID, userID, suggestionID, func(suggestion *entities.Suggestion) (bool, error) {
		return suggestion.Snooze(until)
	}, nil, "")
}

// transition loads the suggestion, applies the state change, and persists it
// conditioned on the loaded status. A write that loses a race against a
// concurrent transition reloads and retries; an illegal transition surfaces
// immediately. onApplied runs exactly once, only when the state actually
// changed and the write stuck.
func (s *SuggestionService) transition(
	ctx context.Context,
	organizationID, userID, suggestionID string,
	apply func(*entities.Suggestion) (bool, error),
	onApplied func(*entities.Suggestion),
	reason string,
) (*entities.Suggestion, error) {
	var lastErr error

	for attempt := 0; attempt < s.config.MaxUpsertRetries; attempt++ {
		suggestion, err := s.suggestions.GetByID(ctx, organizationID, suggestionID)
		if err != nil {
			return nil, err
		}
		if suggestion.UserID() != userID {
			// Another user's suggestion is indistinguishable from a missing one
			return nil, errors.NewNotFoundError("suggestion")
		}

		stored := suggestion.Status()
		now := s.clock.Now()
		woke := suggestion.WakeIfExpired(now)

		changed, err := apply(suggestion)
		if err != nil {
			return nil, err
		}
		if !changed && !woke {
			// Idempotent repeat; nothing to write, no credit to assign
			return suggestion, nil
		}

		if err := s.suggestions.UpdateStatus(ctx, suggestion, stored); err != nil {
			if errors.IsConflict(err) {
				lastErr = err
				continue
			}
			return nil, err
		}

		if changed && onApplied != nil {
			onApplied(suggestion)
		}
		if changed {
			event := events.NewSuggestionStatusChanged(
				suggestion.ID(), organizationID, userID,
				string(stored), string(suggestion.Status()), reason,
				now,
			)
			if err := s.publisher.Publish(ctx, event); err != nil {
				s.logger.Warn("Failed to publish status change",
					zap.String("suggestion_id", suggestion.ID()),
					zap.Error(err))
			}
			s.metrics.IncrementCounter(ctx, "SuggestionTransitions", 1, map[string]string{"Status": string(suggestion.Status())})
		}
		return suggestion, nil
	}

	return nil, errors.Wrap(lastErr, "suggestion transition kept losing races")
}

// assignAcceptCredit reinforces the insights and patterns a suggestion was
// built on and boosts interest preferences for its context tags. Failures
// are logged and skipped; partial credit beats failing the accept.
func (s *SuggestionService) assignAcceptCredit(ctx context.Context, organizationID, userID string, suggestion *entities.Suggestion) {
	for _, insightID := range suggestion.BasedOnInsights() {
		if err := s.insights.AdjustConfidence(ctx, organizationID, insightID, config.CreditBoost); err != nil {
			s.logger.Warn("Insight credit failed",
				zap.String("insight_id", insightID),
				zap.Error(err))
		}
	}
	for _, patternID := range suggestion.BasedOnPatterns() {
		if err := s.patterns.AdjustConfidence(ctx, organizationID, patternID, config.CreditBoost); err != nil {
			s.logger.Warn("Pattern credit failed",
				zap.String("pattern_id", patternID),
				zap.Error(err))
		}
	}
	s.preferences.BoostInterests(ctx, organizationID, userID, suggestion.ContextTags())
}

// assignDismissCredit decays the patterns behind a dismissed suggestion and
// feeds the dislike tracker. Insights are left alone; a dismissal means the
// suggestion missed, not that the insight is wrong.
func (s *SuggestionService) assignDismissCredit(ctx context.Context, organizationID, userID string, suggestion *entities.Suggestion) {
	for _, patternID := range suggestion.BasedOnPatterns() {
		if err := s.patterns.AdjustConfidence(ctx, organizationID, patternID, -config.CreditDecay); err != nil {
			s.logger.Warn("Pattern decay failed",
				zap.String("pattern_id", patternID),
				zap.Error(err))
		}
	}
	s.preferences.RecordDismissal(ctx, organizationID, userID, suggestion.Type())
}
