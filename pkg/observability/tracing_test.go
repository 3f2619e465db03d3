package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceFunction(t *testing.T) {
	tracer := NewTracer("insight-engine")

	t.Run("runs the function and returns its error", func(t *testing.T) {
		wrapped := errors.New("handler failed")
		ran := false

		err := tracer.TraceFunction(context.Background(), "IngestEvidence", func(ctx context.Context) error {
			ran = true
			return wrapped
		})

		assert.True(t, ran)
		assert.Equal(t, wrapped, err)
	})

	t.Run("degrades to a plain call without a parent segment", func(t *testing.T) {
		err := tracer.TraceFunction(context.Background(), "GenerateSuggestions", func(ctx context.Context) error {
			require.NotNil(t, ctx)
			return nil
		})
		assert.NoError(t, err)
	})
}
