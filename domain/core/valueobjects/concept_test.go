package valueobjects

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConcept(t *testing.T) {
	t.Run("normalizes case and whitespace", func(t *testing.T) {
		c, err := NewConcept("  Machine   Learning ")
		require.NoError(t, err)
		assert.Equal(t, "machine learning", c.String())
	})

	t.Run("aliases compare equal", func(t *testing.T) {
		a, err := NewConcept("Machine Learning")
		require.NoError(t, err)
		b, err := NewConcept("machine  learning")
		require.NoError(t, err)
		assert.True(t, a.Equals(b))
	})

	t.Run("blank input is rejected", func(t *testing.T) {
		_, err := NewConcept("   ")
		assert.Error(t, err)
	})
}

func TestConceptJSON(t *testing.T) {
	c, err := NewConcept("Go Routines")
	require.NoError(t, err)

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Equal(t, `"go routines"`, string(data))

	var decoded Concept
	require.NoError(t, json.Unmarshal([]byte(`"  GO Routines "`), &decoded))
	assert.True(t, c.Equals(decoded))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, ClampUnit(-0.5))
	assert.Equal(t, 1.0, ClampUnit(1.5))
	assert.Equal(t, 0.7, ClampUnit(0.7))

	assert.Equal(t, 0.1, ClampRange(0.01, 0.1, 1.0))
	assert.Equal(t, 1.0, ClampRange(2.0, 0.1, 1.0))
	assert.Equal(t, 0.55, ClampRange(0.55, 0.1, 1.0))
}
