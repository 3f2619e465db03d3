// Package llm adapts a chat-completions style HTTP API to the engine's
// CompletionService port. Everything the API returns is treated as untrusted
// input; this package only gets it parsed, the application layer decides what
// survives validation.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/TPCMinistries/insight-engine/application/ports"
	pkgerrors "github.com/TPCMinistries/insight-engine/pkg/errors"
)

const (
	relationshipSystemPrompt = `You extract concept relationships from conversation transcripts.
Respond with a JSON array only, no prose. Each element:
{"source_concept": string, "target_concept": string,
 "relationship_type": one of "related_to","depends_on","similar_to","opposite_of","part_of",
 "strength": number in [0,1], "confidence": number in [0,1]}`

	insightSystemPrompt = `You extract insights and recurring patterns from conversation transcripts.
Respond with a JSON array only, no prose. Each element:
{"kind": "insight" or "pattern", "type": string, "title": string,
 "description": string, "confidence": number in [0,1]}`

	suggestionSystemPrompt = `You generate proactive suggestions from a user's insights, patterns, and preferences.
Do not suggest anything matching a "dislike" preference.
Respond with a JSON array only, no prose. Each element:
{"suggestion_type": string, "title": string, "description": string,
 "relevance_score": number in [0,1], "confidence": number in [0,1],
 "priority": one of "low","medium","high","urgent",
 "based_on_insights": [insight ids], "based_on_patterns": [pattern ids],
 "context_tags": [strings]}`
)

// Config holds the completion API settings
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// CompletionClient implements ports.CompletionService against a
// chat-completions compatible HTTP endpoint
type CompletionClient struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewCompletionClient creates a completion client
func NewCompletionClient(config Config, logger *zap.Logger) *CompletionClient {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &CompletionClient{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
	}
}

// ExtractRelationships proposes concept relationships from a transcript
func (c *CompletionClient) ExtractRelationships(ctx context.Context, transcript string) ([]ports.RelationshipCandidate, error) {
	var candidates []ports.RelationshipCandidate
	if err := c.completeJSON(ctx, relationshipSystemPrompt, transcript, &candidates); err != nil {
		return nil, err
	}
	return candidates, nil
}

// ExtractInsights proposes insights and patterns from a transcript
func (c *CompletionClient) ExtractInsights(ctx context.Context, transcript string) ([]ports.InsightCandidate, error) {
	var candidates []ports.InsightCandidate
	if err := c.completeJSON(ctx, insightSystemPrompt, transcript, &candidates); err != nil {
		return nil, err
	}
	return candidates, nil
}

// GenerateSuggestions synthesizes suggestion candidates from accumulated
// evidence
func (c *CompletionClient) GenerateSuggestions(ctx context.Context, generation ports.GenerationContext) ([]ports.SuggestionCandidate, error) {
	payload, err := json.Marshal(generation)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generation context: %w", err)
	}

	var candidates []ports.SuggestionCandidate
	if err := c.completeJSON(ctx, suggestionSystemPrompt, string(payload), &candidates); err != nil {
		return nil, err
	}
	return candidates, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// completeJSON runs one chat completion and unmarshals the reply into out.
// The reply must be a JSON array; a code fence around it is tolerated since
// models add one even when told not to.
func (c *CompletionClient) completeJSON(ctx context.Context, system, user string, out interface{}) error {
	reqBody := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.2,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.NewExternalError("completion", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return pkgerrors.NewExternalError("completion", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Completion API returned non-200",
			zap.Int("status", resp.StatusCode),
			zap.Duration("elapsed", time.Since(start)))
		return pkgerrors.NewExternalError("completion", fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(raw), 200)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return pkgerrors.NewExternalError("completion", fmt.Errorf("unparseable response: %w", err))
	}
	if parsed.Error != nil {
		return pkgerrors.NewExternalError("completion", fmt.Errorf("%s: %s", parsed.Error.Type, parsed.Error.Message))
	}
	if len(parsed.Choices) == 0 {
		return pkgerrors.NewExternalError("completion", fmt.Errorf("empty choices"))
	}

	content := stripCodeFence(parsed.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return pkgerrors.NewExternalError("completion", fmt.Errorf("reply is not the expected JSON array: %w", err))
	}

	c.logger.Debug("Completion call succeeded",
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// stripCodeFence removes a ```json ... ``` wrapper if present
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
