package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TPCMinistries/insight-engine/domain/config"
)

func TestNewPreference(t *testing.T) {
	t.Run("first observation starts from the neutral prior", func(t *testing.T) {
		pref, err := NewPreference("user-1", "org-1", PreferenceTypeInterest, "distributed systems", "", config.CreditBoost, false)
		require.NoError(t, err)

		assert.InDelta(t, config.NeutralPrior+config.CreditBoost, pref.Confidence(), 1e-9)
		assert.Equal(t, 1, pref.EvidenceCount())
		assert.False(t, pref.IsExplicit())
		assert.True(t, pref.IsActive())
	})

	t.Run("missing identity is rejected", func(t *testing.T) {
		_, err := NewPreference("", "org-1", PreferenceTypeInterest, "k", "", 0.05, false)
		assert.Error(t, err)

		_, err = NewPreference("user-1", "org-1", "", "k", "", 0.05, false)
		assert.Error(t, err)
	})
}

func TestPreferenceApplyBoost(t *testing.T) {
	t.Run("confidence accumulates up to the ceiling", func(t *testing.T) {
		pref, err := NewPreference("user-1", "org-1", PreferenceTypeInterest, "golang", "", config.CreditBoost, false)
		require.NoError(t, err)

		for i := 0; i < 20; i++ {
			pref.ApplyBoost("", config.CreditBoost)
		}

		assert.Equal(t, config.ConfidenceCeiling, pref.Confidence())
		assert.Equal(t, 21, pref.EvidenceCount())
	})

	t.Run("decay never drops below the floor", func(t *testing.T) {
		pref, err := NewPreference("user-1", "org-1", PreferenceTypeDislike, "status meetings", "", config.CreditBoost, false)
		require.NoError(t, err)

		for i := 0; i < 50; i++ {
			pref.ApplyBoost("", -config.CreditDecay)
		}

		assert.Equal(t, config.ConfidenceFloor, pref.Confidence())
	})

	t.Run("value is overwritten not merged", func(t *testing.T) {
		pref, err := NewPreference("user-1", "org-1", PreferenceTypeCommunication, "channel", "email", config.CreditBoost, false)
		require.NoError(t, err)

		pref.ApplyBoost("slack", config.CreditBoost)
		assert.Equal(t, "slack", pref.Value())

		// An observation without a value keeps the last one
		pref.ApplyBoost("", config.CreditBoost)
		assert.Equal(t, "slack", pref.Value())
	})
}

func TestPreferenceMarkExplicit(t *testing.T) {
	pref, err := NewPreference("user-1", "org-1", PreferenceTypeWorkStyle, "hours", "mornings", config.CreditBoost, false)
	require.NoError(t, err)

	pref.MarkExplicit()
	assert.True(t, pref.IsExplicit())
}

func TestNaturalPreferenceKey(t *testing.T) {
	pref, err := NewPreference("user-1", "org-1", PreferenceTypeInterest, "golang", "", config.CreditBoost, false)
	require.NoError(t, err)

	assert.Equal(t, NaturalPreferenceKey("user-1", PreferenceTypeInterest, "golang"), pref.NaturalKey())
	assert.NotEqual(t, pref.NaturalKey(), NaturalPreferenceKey("user-1", PreferenceTypeDislike, "golang"))
}

func TestReconstructPreferenceClampsConfidence(t *testing.T) {
	now := time.Now()
	pref, err := ReconstructPreference("user-1", "org-1", PreferenceTypeInterest, "golang", "", 3.0, 0, false, true, now, now)
	require.NoError(t, err)

	assert.Equal(t, config.ConfidenceCeiling, pref.Confidence())
	assert.Equal(t, 1, pref.EvidenceCount())
}
