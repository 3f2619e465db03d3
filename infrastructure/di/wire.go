//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"github.com/TPCMinistries/insight-engine/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideDomainConfig,
	ProvideClock,
	ProvideCache,
	ProvideMetrics,
	ProvideTracer,
	ProvideErrorHandler,
	ProvideEdgeRepository,
	ProvidePreferenceRepository,
	ProvideInsightRepository,
	ProvidePatternRepository,
	ProvideSuggestionRepository,
	ProvideEventPublisher,
	ProvideCompletionService,
	ProvideIntakeService,
	ProvidePreferenceService,
	ProvideGraphService,
	ProvideSuggestionService,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
