package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TPCMinistries/insight-engine/application/ports"
	pkgerrors "github.com/TPCMinistries/insight-engine/pkg/errors"
)

// chatServer replies to every completion call with the given message content
func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			assert.Len(t, req.Messages, 2)
			assert.Equal(t, "system", req.Messages[0].Role)
		}

		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func newTestClient(baseURL string) *CompletionClient {
	return NewCompletionClient(Config{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
	}, zap.NewNop())
}

func TestExtractRelationships(t *testing.T) {
	server := chatServer(t, `[
		{"source_concept": "go", "target_concept": "concurrency",
		 "relationship_type": "related_to", "strength": 0.7, "confidence": 0.8}
	]`)
	defer server.Close()

	candidates, err := newTestClient(server.URL).ExtractRelationships(context.Background(), "transcript")
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Equal(t, "go", candidates[0].SourceConcept)
	assert.Equal(t, "related_to", candidates[0].RelationshipType)
	assert.Equal(t, 0.7, candidates[0].Strength)
}

func TestExtractInsights(t *testing.T) {
	server := chatServer(t, `[
		{"kind": "insight", "type": "team_dynamics", "title": "Prefers async", "confidence": 0.6},
		{"kind": "pattern", "type": "scheduling", "title": "Friday slips", "confidence": 0.5}
	]`)
	defer server.Close()

	candidates, err := newTestClient(server.URL).ExtractInsights(context.Background(), "transcript")
	require.NoError(t, err)

	require.Len(t, candidates, 2)
	assert.Equal(t, "insight", candidates[0].Kind)
	assert.Equal(t, "pattern", candidates[1].Kind)
}

func TestGenerateSuggestions(t *testing.T) {
	server := chatServer(t, `[
		{"suggestion_type": "follow_up", "title": "Check in with Dana",
		 "relevance_score": 0.9, "confidence": 0.8, "priority": "high",
		 "based_on_insights": ["i-1"], "based_on_patterns": [], "context_tags": ["platform"]}
	]`)
	defer server.Close()

	candidates, err := newTestClient(server.URL).GenerateSuggestions(context.Background(), ports.GenerationContext{
		Insights: []ports.GenerationInsight{{ID: "i-1", Title: "Prefers async", Confidence: 0.6}},
	})
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Equal(t, "high", candidates[0].Priority)
	assert.Equal(t, []string{"i-1"}, candidates[0].BasedOnInsights)
}

func TestCompletionToleratesCodeFence(t *testing.T) {
	server := chatServer(t, "```json\n[{\"kind\": \"insight\", \"type\": \"t\", \"title\": \"fenced\", \"confidence\": 0.5}]\n```")
	defer server.Close()

	candidates, err := newTestClient(server.URL).ExtractInsights(context.Background(), "transcript")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "fenced", candidates[0].Title)
}

func TestCompletionErrors(t *testing.T) {
	t.Run("non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).ExtractInsights(context.Background(), "transcript")
		require.Error(t, err)
		assert.True(t, pkgerrors.IsExternal(err))
	})

	t.Run("prose instead of a JSON array", func(t *testing.T) {
		server := chatServer(t, "Sure! Here are the insights I found:")
		defer server.Close()

		_, err := newTestClient(server.URL).ExtractInsights(context.Background(), "transcript")
		require.Error(t, err)
		assert.True(t, pkgerrors.IsExternal(err))
	})

	t.Run("API-level error object", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"error": {"message": "model overloaded", "type": "server_error"}}`))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).ExtractInsights(context.Background(), "transcript")
		require.Error(t, err)
		assert.True(t, pkgerrors.IsExternal(err))
	})

	t.Run("empty choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"choices": []}`))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).ExtractInsights(context.Background(), "transcript")
		require.Error(t, err)
		assert.True(t, pkgerrors.IsExternal(err))
	})
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `[]`, stripCodeFence("```json\n[]\n```"))
	assert.Equal(t, `[]`, stripCodeFence("```\n[]\n```"))
	assert.Equal(t, `[]`, stripCodeFence("[]"))
	assert.Equal(t, `[1, 2]`, stripCodeFence("  [1, 2]  "))
}
