package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TPCMinistries/insight-engine/application/ports"
	"github.com/TPCMinistries/insight-engine/domain/config"
	"github.com/TPCMinistries/insight-engine/domain/core/entities"
	pkgerrors "github.com/TPCMinistries/insight-engine/pkg/errors"
	"github.com/TPCMinistries/insight-engine/pkg/observability"
)

type suggestionFixture struct {
	service     *SuggestionService
	suggestions *fakeSuggestionRepo
	insights    *fakeInsightRepo
	patterns    *fakePatternRepo
	preferences *fakePreferenceRepo
	completion  *fakeCompletion
	publisher   *fakePublisher
	clock       fakeClock
}

func newSuggestionFixture(completion *fakeCompletion) *suggestionFixture {
	f := &suggestionFixture{
		suggestions: newFakeSuggestionRepo(),
		insights:    newFakeInsightRepo(),
		patterns:    newFakePatternRepo(),
		preferences: newFakePreferenceRepo(),
		completion:  completion,
		publisher:   &fakePublisher{},
		clock:       fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	preferenceService := NewPreferenceService(f.preferences, f.suggestions, zap.NewNop())
	f.service = NewSuggestionService(
		f.suggestions, f.insights, f.patterns, preferenceService, completion, f.publisher,
		observability.NewMetrics("test", nil),
		config.DefaultDomainConfig(),
		f.clock,
		zap.NewNop(),
	)
	return f
}

func (f *suggestionFixture) seedInsight(t *testing.T) *entities.Insight {
	t.Helper()
	insight, err := entities.NewInsight("org-1", "user-1", "team_dynamics", "Prefers async updates", "", 0.7, entities.Evidence{})
	require.NoError(t, err)
	require.NoError(t, f.insights.Save(context.Background(), insight))
	return insight
}

func (f *suggestionFixture) seedPattern(t *testing.T) *entities.Pattern {
	t.Helper()
	pattern, err := entities.NewPattern("org-1", "user-1", "scheduling", "Meetings slip on Fridays", "", 0.6, entities.Evidence{})
	require.NoError(t, err)
	require.NoError(t, f.patterns.Save(context.Background(), pattern))
	return pattern
}

func (f *suggestionFixture) seedSuggestion(t *testing.T, insight *entities.Insight, pattern *entities.Pattern) *entities.Suggestion {
	t.Helper()
	var insightIDs, patternIDs []string
	if insight != nil {
		insightIDs = []string{insight.ID()}
	}
	if pattern != nil {
		patternIDs = []string{pattern.ID()}
	}
	suggestion, err := entities.NewSuggestion(
		"org-1", "user-1", "follow_up",
		"Reconnect with the platform team", "",
		0.8, 0.7, entities.PriorityHigh,
		insightIDs, patternIDs, []string{"platform"},
	)
	require.NoError(t, err)
	require.NoError(t, f.suggestions.Save(context.Background(), suggestion))
	return suggestion
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid candidates become pending suggestions", func(t *testing.T) {
		f := newSuggestionFixture(&fakeCompletion{
			suggestions: []ports.SuggestionCandidate{
				{SuggestionType: "follow_up", Title: "Check in with Dana", RelevanceScore: 0.9, Confidence: 0.8, Priority: "high"},
				{SuggestionType: "learning", Title: "Bad priority", RelevanceScore: 0.5, Confidence: 0.5, Priority: "critical"},
				{SuggestionType: "learning", Title: "", RelevanceScore: 0.5, Confidence: 0.5, Priority: "low"},
			},
		})
		f.seedInsight(t)
		f.seedPattern(t)

		created, err := f.service.Generate(ctx, "org-1", "user-1", 10)
		require.NoError(t, err)

		require.Len(t, created, 1, "invalid candidates are dropped, not fatal")
		assert.Equal(t, entities.SuggestionPending, created[0].Status())
		assert.Len(t, f.suggestions.byID, 1)
		assert.Contains(t, f.publisher.eventTypes(), "suggestion.created")
	})

	t.Run("generation context carries the stored evidence", func(t *testing.T) {
		f := newSuggestionFixture(&fakeCompletion{})
		insight := f.seedInsight(t)
		pattern := f.seedPattern(t)
		_, err := f.preferences.ApplyDelta(ctx, ports.PreferenceDelta{
			UserID: "user-1", OrganizationID: "org-1",
			Type: entities.PreferenceTypeInterest, Key: "platform", Value: "platform",
			Boost: config.CreditBoost,
		})
		require.NoError(t, err)

		_, err = f.service.Generate(ctx, "org-1", "user-1", 10)
		require.NoError(t, err)

		require.Equal(t, 1, f.completion.generateCalls)
		require.Len(t, f.completion.lastGeneration.Insights, 1)
		assert.Equal(t, insight.ID(), f.completion.lastGeneration.Insights[0].ID)
		require.Len(t, f.completion.lastGeneration.Patterns, 1)
		assert.Equal(t, pattern.ID(), f.completion.lastGeneration.Patterns[0].ID)
		require.Len(t, f.completion.lastGeneration.Preferences, 1)
		assert.Equal(t, "platform", f.completion.lastGeneration.Preferences[0].Key)
	})

	t.Run("no stored evidence short-circuits without a completion call", func(t *testing.T) {
		f := newSuggestionFixture(&fakeCompletion{})

		created, err := f.service.Generate(ctx, "org-1", "user-1", 10)
		require.NoError(t, err)

		assert.Empty(t, created)
		assert.Zero(t, f.completion.generateCalls)
	})

	t.Run("completion failure degrades to zero suggestions", func(t *testing.T) {
		f := newSuggestionFixture(&fakeCompletion{suggestionsErr: errors.New("completion down")})
		f.seedInsight(t)

		created, err := f.service.Generate(ctx, "org-1", "user-1", 10)
		require.NoError(t, err, "generation failure is never fatal")
		assert.Empty(t, created)
	})

	t.Run("maxSuggestions caps the batch", func(t *testing.T) {
		candidates := make([]ports.SuggestionCandidate, 5)
		for i := range candidates {
			candidates[i] = ports.SuggestionCandidate{
				SuggestionType: "follow_up", Title: "One of many",
				RelevanceScore: 0.5, Confidence: 0.5, Priority: "low",
			}
		}
		f := newSuggestionFixture(&fakeCompletion{suggestions: candidates})
		f.seedInsight(t)

		created, err := f.service.Generate(ctx, "org-1", "user-1", 2)
		require.NoError(t, err)
		assert.Len(t, created, 2)
	})
}

func TestGetRanked(t *testing.T) {
	ctx := context.Background()

	rankedSuggestion := func(t *testing.T, f *suggestionFixture, id string, relevance float64, priority entities.SuggestionPriority, createdAt time.Time) *entities.Suggestion {
		t.Helper()
		suggestion, err := entities.ReconstructSuggestion(
			id, "org-1", "user-1", "follow_up", "title", "",
			relevance, 0.5, priority,
			nil, nil, nil,
			entities.SuggestionPending, time.Time{}, "",
			createdAt, createdAt,
		)
		require.NoError(t, err)
		require.NoError(t, f.suggestions.Save(ctx, suggestion))
		return suggestion
	}

	t.Run("orders by relevance, then priority, then age", func(t *testing.T) {
		f := newSuggestionFixture(&fakeCompletion{})
		base := f.clock.now.Add(-time.Hour)

		rankedSuggestion(t, f, "low-relevance", 0.3, entities.PriorityUrgent, base)
		rankedSuggestion(t, f, "high-relevance", 0.9, entities.PriorityLow, base)
		rankedSuggestion(t, f, "mid-high-priority", 0.5, entities.PriorityHigh, base)
		rankedSuggestion(t, f, "mid-low-priority-old", 0.5, entities.PriorityLow, base.Add(-time.Hour))
		rankedSuggestion(t, f, "mid-low-priority-new", 0.5, entities.PriorityLow, base)

		ranked, err := f.service.GetRanked(ctx, "org-1", "user-1", 10)
		require.NoError(t, err)

		ids := make([]string, len(ranked))
		for i, suggestion := range ranked {
			ids[i] = suggestion.ID()
		}
		assert.Equal(t, []string{
			"high-relevance",
			"mid-high-priority",
			"mid-low-priority-old",
			"mid-low-priority-new",
			"low-relevance",
		}, ids)
	})

	t.Run("expired snoozes wake back to pending", func(t *testing.T) {
		f := newSuggestionFixture(&fakeCompletion{})
		suggestion := f.seedSuggestion(t, nil, nil)
		_, err := suggestion.Snooze(f.clock.now.Add(-time.Hour))
		require.NoError(t, err)
		require.NoError(t, f.suggestions.Save(ctx, suggestion))

		ranked, err := f.service.GetRanked(ctx, "org-1", "user-1", 10)
		require.NoError(t, err)

		require.Len(t, ranked, 1)
		assert.Equal(t, entities.SuggestionPending, ranked[0].Status())
		assert.Equal(t, 1, f.suggestions.updateCalls, "the wake-up is persisted")
	})

	t.Run("active snoozes and terminal suggestions stay hidden", func(t *testing.T) {
		f := newSuggestionFixture(&fakeCompletion{})

		snoozed := f.seedSuggestion(t, nil, nil)
		_, err := snoozed.Snooze(f.clock.now.Add(time.Hour))
		require.NoError(t, err)

		accepted := f.seedSuggestion(t, nil, nil)
		_, err = accepted.Accept()
		require.NoError(t, err)

		ranked, err := f.service.GetRanked(ctx, "org-1", "user-1", 10)
		require.NoError(t, err)
		assert.Empty(t, ranked)
	})

	t.Run("limit truncates the ranking", func(t *testing.T) {
		f := newSuggestionFixture(&fakeCompletion{})
		base := f.clock.now.Add(-time.Hour)
		rankedSuggestion(t, f, "s1", 0.9, entities.PriorityLow, base)
		rankedSuggestion(t, f, "s2", 0.8, entities.PriorityLow, base)
		rankedSuggestion(t, f, "s3", 0.7, entities.PriorityLow, base)

		ranked, err := f.service.GetRanked(ctx, "org-1", "user-1", 2)
		require.NoError(t, err)
		require.Len(t, ranked, 2)
		assert.Equal(t, "s1", ranked[0].ID())
	})
}

func TestAccept(t *testing.T) {
	ctx := context.Background()

	t.Run("accept reinforces insights, patterns, and interests", func(t *testing.T) {
		f := newSuggestionFixture(&fakeCompletion{})
		insight := f.seedInsight(t)
		pattern := f.seedPattern(t)
		suggestion := f.seedSuggestion(t, insight, pattern)

		accepted, err := f.service.Accept(ctx, "org-1", "user-1", suggestion.ID())
		require.NoError(t, err)
		assert.Equal(t, entities.SuggestionAccepted, accepted.Status())

		assert.Equal(t, []float64{config.CreditBoost}, f.insights.adjustments[insight.ID()])
		assert.Equal(t, []float64{config.CreditBoost}, f.patterns.adjustments[pattern.ID()])

		interest, err := f.preferences.Get(ctx, "user-1", entities.PreferenceTypeInterest, "platform")
		require.NoError(t, err)
		assert.InDelta(t, config.NeutralPrior+config.CreditBoost, interest.Confidence(), 1e-9)

		assert.Contains(t, f.publisher.eventTypes(), "suggestion.status_changed")
	})

	t.Run("repeated accept assigns credit exactly once", func(t *testing.T) {
		f := newSuggestionFixture(&fakeCompletion{})
		insight := f.seedInsight(t)
		suggestion := f.seedSuggestion(t, insight, nil)

		_, err := f.service.Accept(ctx, "org-1", "user-1", suggestion.ID())
		require.NoError(t, err)
		_, err = f.service.Accept(ctx, "org-1", "user-1", suggestion.ID())
		require.NoError(t, err, "repeats are idempotent")

		assert.Len(t, f.insights.adjustments[insight.ID()], 1)
	})

	t.Run("accept after dismiss conflicts", func(t *testing.T) {
		f := newSuggestionFixture(&fakeCompletion{})
		suggestion := f.seedSuggestion(t, nil, nil)

		_, err := f.service.Dismiss(ctx, "org-1", "user-1", suggestion.ID(), "")
		require.NoError(t, err)

		_, err = f.service.Accept(ctx, "org-1", "user-1", suggestion.ID())
		require.Error(t, err)
		assert.True(t, pkgerrors.IsConflict(err))
	})

	t.Run("a lost write race reloads and retries", func(t *testing.T) {
		f := newSuggestionFixture(&fakeCompletion{})
		suggestion := f.seedSuggestion(t, nil, nil)
		f.suggestions.conflictsRemaining = 1

		accepted, err := f.service.Accept(ctx, "org-1", "user-1", suggestion.ID())
		require.NoError(t, err)
		assert.Equal(t, entities.SuggestionAccepted, accepted.Status())
		assert.Equal(t, 2, f.suggestions.updateCalls)
	})

	t.Run("another user's suggestion reads as missing", func(t *testing.T) {
		f := newSuggestionFixture(&fakeCompletion{})
		suggestion := f.seedSuggestion(t, nil, nil)

		_, err := f.service.Accept(ctx, "org-1", "someone-else", suggestion.ID())
		require.Error(t, err)
		assert.True(t, pkgerrors.IsNotFound(err))
	})
}

func TestDismiss(t *testing.T) {
	ctx := context.Background()

	t.Run("dismiss decays patterns and leaves insights alone", func(t *testing.T) {
		f := newSuggestionFixture(&fakeCompletion{})
		insight := f.seedInsight(t)
		pattern := f.seedPattern(t)
		suggestion := f.seedSuggestion(t, insight, pattern)

		dismissed, err := f.service.Dismiss(ctx, "org-1", "user-1", suggestion.ID(), "not relevant")
		require.NoError(t, err)

		assert.Equal(t, entities.SuggestionDismissed, dismissed.Status())
		assert.Equal(t, "not relevant", dismissed.DismissReason())
		assert.Equal(t, []float64{-config.CreditDecay}, f.patterns.adjustments[pattern.ID()])
		assert.Empty(t, f.insights.adjustments[insight.ID()])
	})

	t.Run("dismissal streak records a dislike", func(t *testing.T) {
		f := newSuggestionFixture(&fakeCompletion{})
		suggestion := f.seedSuggestion(t, nil, nil)
		f.suggestions.dismissedCounts["follow_up"] = config.DislikeThreshold

		_, err := f.service.Dismiss(ctx, "org-1", "user-1", suggestion.ID(), "")
		require.NoError(t, err)

		dislike, err := f.preferences.Get(ctx, "user-1", entities.PreferenceTypeDislike, "follow_up")
		require.NoError(t, err)
		assert.True(t, dislike.IsActive())
	})

	t.Run("below the threshold no dislike is recorded", func(t *testing.T) {
		f := newSuggestionFixture(&fakeCompletion{})
		suggestion := f.seedSuggestion(t, nil, nil)
		f.suggestions.dismissedCounts["follow_up"] = config.DislikeThreshold - 1

		_, err := f.service.Dismiss(ctx, "org-1", "user-1", suggestion.ID(), "")
		require.NoError(t, err)

		_, err = f.preferences.Get(ctx, "user-1", entities.PreferenceTypeDislike, "follow_up")
		assert.True(t, pkgerrors.IsNotFound(err))
	})
}

func TestSnooze(t *testing.T) {
	ctx := context.Background()

	t.Run("explicit snooze window", func(t *testing.T) {
		f := newSuggestionFixture(&fakeCompletion{})
		suggestion := f.seedSuggestion(t, nil, nil)
		until := f.clock.now.Add(48 * time.Hour)

		snoozed, err := f.service.Snooze(ctx, "org-1", "user-1", suggestion.ID(), until)
		require.NoError(t, err)
		assert.Equal(t, entities.SuggestionSnoozed, snoozed.Status())
		assert.Equal(t, until, snoozed.SnoozedUntil())
	})

	t.Run("zero time selects the default window", func(t *testing.T) {
		f := newSuggestionFixture(&fakeCompletion{})
		suggestion := f.seedSuggestion(t, nil, nil)

		snoozed, err := f.service.Snooze(ctx, "org-1", "user-1", suggestion.ID(), time.Time{})
		require.NoError(t, err)
		assert.Equal(t, f.clock.now.Add(config.DefaultDomainConfig().DefaultSnooze), snoozed.SnoozedUntil())
	})

	t.Run("re-snooze persists the moved window", func(t *testing.T) {
		f := newSuggestionFixture(&fakeCompletion{})
		suggestion := f.seedSuggestion(t, nil, nil)
		first := f.clock.now.Add(24 * time.Hour)
		second := f.clock.now.Add(72 * time.Hour)

		_, err := f.service.Snooze(ctx, "org-1", "user-1", suggestion.ID(), first)
		require.NoError(t, err)

		snoozed, err := f.service.Snooze(ctx, "org-1", "user-1", suggestion.ID(), second)
		require.NoError(t, err)
		assert.Equal(t, second, snoozed.SnoozedUntil())

		stored := f.suggestions.byID[suggestion.ID()]
		require.NotNil(t, stored)
		assert.Equal(t, entities.SuggestionSnoozed, stored.Status())
		assert.Equal(t, second, stored.SnoozedUntil(), "the stored window must match the returned one")
	})

	t.Run("a snooze time in the past is rejected", func(t *testing.T) {
		f := newSuggestionFixture(&fakeCompletion{})
		suggestion := f.seedSuggestion(t, nil, nil)

		_, err := f.service.Snooze(ctx, "org-1", "user-1", suggestion.ID(), f.clock.now.Add(-time.Hour))
		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})
}
