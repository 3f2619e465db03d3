package config

import "time"

// Learning-rate constants for the feedback loop. Reinforcement is stronger
// than decay so a pattern does not oscillate in and out of relevance on noisy
// feedback.
const (
	// CreditBoost is added to insight/pattern confidence when a suggestion
	// built on them is accepted, and to matching interest preferences.
	CreditBoost = 0.05

	// CreditDecay is subtracted from pattern confidence when a suggestion
	// built on it is dismissed.
	CreditDecay = 0.02

	// ConfidenceFloor is the lowest confidence any insight, pattern, or
	// preference can decay to. Decayed records stay tracked, never deleted.
	ConfidenceFloor = 0.1

	// ConfidenceCeiling caps every confidence and strength score.
	ConfidenceCeiling = 1.0

	// NeutralPrior is the starting confidence of a freshly observed
	// preference before its first boost is applied.
	NeutralPrior = 0.5

	// DislikeThreshold is the number of dismissals of the same suggestion
	// type before a dislike preference is recorded for it.
	DislikeThreshold = 3
)

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Graph constraints
	MaxConceptLength int

	// Query limits
	MaxPathDepth       int
	DefaultPathDepth   int
	MinClusterSize     int
	TopConceptCount    int
	MaxEdgesPerQuery   int
	MaxSuggestionLimit int

	// Suggestion generation
	TopInsightCount int
	TopPatternCount int
	DefaultSnooze   time.Duration

	// Upsert behavior
	MaxUpsertRetries int

	// Timeouts
	CompletionTimeout time.Duration
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		// Graph constraints
		MaxConceptLength: 200,

		// Query limits
		MaxPathDepth:       10,
		DefaultPathDepth:   5,
		MinClusterSize:     2,
		TopConceptCount:    10,
		MaxEdgesPerQuery:   5000,
		MaxSuggestionLimit: 50,

		// Suggestion generation
		TopInsightCount: 10,
		TopPatternCount: 10,
		DefaultSnooze:   24 * time.Hour,

		// Upsert behavior
		MaxUpsertRetries: 5,

		// Timeouts
		CompletionTimeout: 30 * time.Second,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// Tighter limits for production
	config.MaxEdgesPerQuery = 2500
	config.CompletionTimeout = 20 * time.Second

	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// More permissive for development
	config.MaxConceptLength = 500
	config.CompletionTimeout = 2 * time.Minute

	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}
