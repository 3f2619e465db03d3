package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TPCMinistries/insight-engine/domain/config"
)

func newTestPattern(t *testing.T, confidence float64) *Pattern {
	t.Helper()
	pattern, err := NewPattern("org-1", "user-1", "recurring_topic", "Weekly budget reviews", "", confidence, Evidence{})
	require.NoError(t, err)
	return pattern
}

func TestPatternDecay(t *testing.T) {
	t.Run("a single dismissal lowers confidence by the decay step", func(t *testing.T) {
		pattern := newTestPattern(t, 0.9)

		pattern.Decay(config.CreditDecay)

		assert.InDelta(t, 0.88, pattern.Confidence(), 1e-9)
	})

	t.Run("repeated decay clamps at the floor", func(t *testing.T) {
		pattern := newTestPattern(t, 0.15)

		for i := 0; i < 10; i++ {
			pattern.Decay(config.CreditDecay)
		}

		assert.Equal(t, config.ConfidenceFloor, pattern.Confidence(), "a decayed pattern is kept at the floor, not erased")
	})
}

func TestPatternBoost(t *testing.T) {
	pattern := newTestPattern(t, 0.98)

	pattern.Boost(config.CreditBoost)
	assert.Equal(t, config.ConfidenceCeiling, pattern.Confidence())

	pattern.Boost(config.CreditBoost)
	assert.Equal(t, config.ConfidenceCeiling, pattern.Confidence())
}

func TestInsightBoost(t *testing.T) {
	insight, err := NewInsight("org-1", "user-1", "preference", "Prefers async updates", "", 0.97, Evidence{})
	require.NoError(t, err)

	insight.Boost(config.CreditBoost)
	assert.Equal(t, config.ConfidenceCeiling, insight.Confidence())
}

func TestPatternRecordOccurrence(t *testing.T) {
	pattern := newTestPattern(t, 0.5)
	assert.Equal(t, 1, pattern.OccurrenceCount())

	pattern.RecordOccurrence()
	pattern.RecordOccurrence()
	assert.Equal(t, 3, pattern.OccurrenceCount())
}
