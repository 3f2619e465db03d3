package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/TPCMinistries/insight-engine/application/ports"
	"github.com/TPCMinistries/insight-engine/domain/config"
	"github.com/TPCMinistries/insight-engine/domain/core/entities"
)

// PreferenceService maintains the per-user preference profile. All mutation
// goes through boosts and decays on natural keys; preferences are never
// deleted, only decayed toward the confidence floor or deactivated.
type PreferenceService struct {
	preferences ports.PreferenceRepository
	suggestions ports.SuggestionRepository
	logger      *zap.Logger
}

// NewPreferenceService creates a preference service
func NewPreferenceService(preferences ports.PreferenceRepository, suggestions ports.SuggestionRepository, logger *zap.Logger) *PreferenceService {
	return &PreferenceService{
		preferences: preferences,
		suggestions: suggestions,
		logger:      logger,
	}
}

// BoostInterests strengthens interest preferences for each context tag of an
// accepted suggestion. A tag never seen before becomes a fresh interest at
// the neutral prior plus the boost.
func (s *PreferenceService) BoostInterests(ctx context.Context, organizationID, userID string, tags []string) {
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		delta := ports.PreferenceDelta{
			UserID:         userID,
			OrganizationID: organizationID,
			Type:           entities.PreferenceTypeInterest,
			Key:            tag,
			Value:          tag,
			Boost:          config.CreditBoost,
		}
		if _, err := s.preferences.ApplyDelta(ctx, delta); err != nil {
			s.logger.Warn("Interest boost failed",
				zap.String("user_id", userID),
				zap.String("tag", tag),
				zap.Error(err))
		}
	}
}

// RecordDismissal tracks repeated rejections of a suggestion type. Once the
// user has dismissed the same type enough times, a dislike preference is
// recorded (or strengthened) for it. One dismissal is noise; a streak is a
// signal.
func (s *PreferenceService) RecordDismissal(ctx context.Context, organizationID, userID, suggestionType string) {
	count, err := s.suggestions.CountDismissedByType(ctx, organizationID, userID, suggestionType)
	if err != nil {
		s.logger.Warn("Dismissal count failed",
			zap.String("user_id", userID),
			zap.String("suggestion_type", suggestionType),
			zap.Error(err))
		return
	}
	if count < config.DislikeThreshold {
		return
	}

	delta := ports.PreferenceDelta{
		UserID:         userID,
		OrganizationID: organizationID,
		Type:           entities.PreferenceTypeDislike,
		Key:            suggestionType,
		Value:          suggestionType,
		Boost:          config.CreditBoost,
	}
	if _, err := s.preferences.ApplyDelta(ctx, delta); err != nil {
		s.logger.Warn("Dislike record failed",
			zap.String("user_id", userID),
			zap.String("suggestion_type", suggestionType),
			zap.Error(err))
		return
	}

	s.logger.Info("Dislike threshold reached",
		zap.String("user_id", userID),
		zap.String("suggestion_type", suggestionType),
		zap.Int("dismissals", count))
}

// RecordExplicit stores a preference the user stated directly
func (s *PreferenceService) RecordExplicit(ctx context.Context, organizationID, userID, preferenceType, key, value string) (*entities.Preference, error) {
	return s.preferences.ApplyDelta(ctx, ports.PreferenceDelta{
		UserID:         userID,
		OrganizationID: organizationID,
		Type:           preferenceType,
		Key:            key,
		Value:          value,
		Boost:          config.CreditBoost,
		IsExplicit:     true,
	})
}

// GetActive lists the user's active preferences
func (s *PreferenceService) GetActive(ctx context.Context, userID string) ([]*entities.Preference, error) {
	return s.preferences.GetActive(ctx, userID)
}
