package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TPCMinistries/insight-engine/domain/config"
	"github.com/TPCMinistries/insight-engine/domain/core/entities"
)

type preferenceFixture struct {
	service     *PreferenceService
	preferences *fakePreferenceRepo
	suggestions *fakeSuggestionRepo
}

func newPreferenceFixture() *preferenceFixture {
	f := &preferenceFixture{
		preferences: newFakePreferenceRepo(),
		suggestions: newFakeSuggestionRepo(),
	}
	f.service = NewPreferenceService(f.preferences, f.suggestions, zap.NewNop())
	return f
}

func TestBoostInterests(t *testing.T) {
	ctx := context.Background()

	t.Run("each tag becomes or strengthens an interest", func(t *testing.T) {
		f := newPreferenceFixture()

		f.service.BoostInterests(ctx, "org-1", "user-1", []string{"platform", "golang"})
		f.service.BoostInterests(ctx, "org-1", "user-1", []string{"platform"})

		platform, err := f.preferences.Get(ctx, "user-1", entities.PreferenceTypeInterest, "platform")
		require.NoError(t, err)
		assert.Equal(t, 2, platform.EvidenceCount())
		assert.InDelta(t, config.NeutralPrior+2*config.CreditBoost, platform.Confidence(), 1e-9)

		golang, err := f.preferences.Get(ctx, "user-1", entities.PreferenceTypeInterest, "golang")
		require.NoError(t, err)
		assert.Equal(t, 1, golang.EvidenceCount())
	})

	t.Run("empty tags are skipped", func(t *testing.T) {
		f := newPreferenceFixture()
		f.service.BoostInterests(ctx, "org-1", "user-1", []string{"", "platform", ""})
		assert.Len(t, f.preferences.deltas, 1)
	})
}

func TestRecordDismissal(t *testing.T) {
	ctx := context.Background()

	t.Run("below the threshold nothing is recorded", func(t *testing.T) {
		f := newPreferenceFixture()
		f.suggestions.dismissedCounts["follow_up"] = config.DislikeThreshold - 1

		f.service.RecordDismissal(ctx, "org-1", "user-1", "follow_up")
		assert.Empty(t, f.preferences.deltas)
	})

	t.Run("at the threshold a dislike is recorded", func(t *testing.T) {
		f := newPreferenceFixture()
		f.suggestions.dismissedCounts["follow_up"] = config.DislikeThreshold

		f.service.RecordDismissal(ctx, "org-1", "user-1", "follow_up")

		dislike, err := f.preferences.Get(ctx, "user-1", entities.PreferenceTypeDislike, "follow_up")
		require.NoError(t, err)
		assert.Equal(t, entities.PreferenceTypeDislike, dislike.Type())
		assert.Equal(t, "follow_up", dislike.Key())
	})

	t.Run("further dismissals keep strengthening the dislike", func(t *testing.T) {
		f := newPreferenceFixture()
		f.suggestions.dismissedCounts["follow_up"] = config.DislikeThreshold

		f.service.RecordDismissal(ctx, "org-1", "user-1", "follow_up")
		f.service.RecordDismissal(ctx, "org-1", "user-1", "follow_up")

		dislike, err := f.preferences.Get(ctx, "user-1", entities.PreferenceTypeDislike, "follow_up")
		require.NoError(t, err)
		assert.Equal(t, 2, dislike.EvidenceCount())
	})
}

func TestRecordExplicit(t *testing.T) {
	ctx := context.Background()
	f := newPreferenceFixture()

	pref, err := f.service.RecordExplicit(ctx, "org-1", "user-1", entities.PreferenceTypeCommunication, "channel", "slack")
	require.NoError(t, err)

	assert.True(t, pref.IsExplicit())
	assert.Equal(t, "slack", pref.Value())
}

func TestGetActivePreferences(t *testing.T) {
	ctx := context.Background()
	f := newPreferenceFixture()
	f.service.BoostInterests(ctx, "org-1", "user-1", []string{"platform"})
	f.service.BoostInterests(ctx, "org-1", "user-2", []string{"design"})

	active, err := f.service.GetActive(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "platform", active[0].Key())
}
