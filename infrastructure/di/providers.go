package di

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"github.com/TPCMinistries/insight-engine/application/commands"
	"github.com/TPCMinistries/insight-engine/application/commands/bus"
	commandhandlers "github.com/TPCMinistries/insight-engine/application/commands/handlers"
	"github.com/TPCMinistries/insight-engine/application/ports"
	"github.com/TPCMinistries/insight-engine/application/queries"
	querybus "github.com/TPCMinistries/insight-engine/application/queries/bus"
	queryhandlers "github.com/TPCMinistries/insight-engine/application/queries/handlers"
	"github.com/TPCMinistries/insight-engine/application/services"
	domainconfig "github.com/TPCMinistries/insight-engine/domain/config"
	"github.com/TPCMinistries/insight-engine/domain/events"
	"github.com/TPCMinistries/insight-engine/infrastructure/cache"
	"github.com/TPCMinistries/insight-engine/infrastructure/config"
	"github.com/TPCMinistries/insight-engine/infrastructure/llm"
	"github.com/TPCMinistries/insight-engine/infrastructure/messaging/eventbridge"
	"github.com/TPCMinistries/insight-engine/infrastructure/persistence/dynamodb"
	"github.com/TPCMinistries/insight-engine/interfaces/http/rest"
	pkgerrors "github.com/TPCMinistries/insight-engine/pkg/errors"
	"github.com/TPCMinistries/insight-engine/pkg/observability"
	"github.com/TPCMinistries/insight-engine/pkg/utils"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideDomainConfig loads the business rules for the environment
func ProvideDomainConfig(cfg *config.Config) *domainconfig.DomainConfig {
	return domainconfig.LoadDomainConfig(cfg.Environment)
}

// ProvideClock provides the production clock
func ProvideClock() utils.Clock {
	return utils.SystemClock{}
}

// ProvideCache creates the in-process cache
func ProvideCache() ports.Cache {
	return cache.NewMemoryCache()
}

// ProvideMetrics creates the metrics publisher. With metrics disabled the
// publisher keeps its nil client and every call becomes a no-op.
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config) *observability.Metrics {
	namespace := fmt.Sprintf("%s/%s", cfg.MetricsNamespace, cfg.Environment)
	if !cfg.EnableMetrics {
		return observability.NewMetrics(namespace, nil)
	}
	return observability.NewMetrics(namespace, client)
}

// ProvideTracer creates the distributed tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer("insight-engine")
}

// ProvideErrorHandler creates the HTTP error handler
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideEdgeRepository creates an edge repository
func ProvideEdgeRepository(client *awsdynamodb.Client, cfg *config.Config, domainCfg *domainconfig.DomainConfig, logger *zap.Logger) ports.EdgeRepository {
	return dynamodb.NewEdgeRepository(client, cfg.DynamoDBTable, domainCfg.MaxUpsertRetries, logger)
}

// ProvidePreferenceRepository creates a preference repository
func ProvidePreferenceRepository(client *awsdynamodb.Client, cfg *config.Config, domainCfg *domainconfig.DomainConfig, logger *zap.Logger) ports.PreferenceRepository {
	return dynamodb.NewPreferenceRepository(client, cfg.DynamoDBTable, domainCfg.MaxUpsertRetries, logger)
}

// ProvideInsightRepository creates an insight repository
func ProvideInsightRepository(client *awsdynamodb.Client, cfg *config.Config, domainCfg *domainconfig.DomainConfig, logger *zap.Logger) ports.InsightRepository {
	return dynamodb.NewInsightRepository(client, cfg.DynamoDBTable, domainCfg.MaxUpsertRetries, logger)
}

// ProvidePatternRepository creates a pattern repository
func ProvidePatternRepository(client *awsdynamodb.Client, cfg *config.Config, domainCfg *domainconfig.DomainConfig, logger *zap.Logger) ports.PatternRepository {
	return dynamodb.NewPatternRepository(client, cfg.DynamoDBTable, domainCfg.MaxUpsertRetries, logger)
}

// ProvideSuggestionRepository creates a suggestion repository
func ProvideSuggestionRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.SuggestionRepository {
	return dynamodb.NewSuggestionRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideEventPublisher creates the event publisher; disabled events mean a
// no-op publisher, not a nil one
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	if !cfg.EnableEvents {
		return noopPublisher{}
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, events.DomainEvent) error        { return nil }
func (noopPublisher) PublishBatch(context.Context, []events.DomainEvent) error { return nil }

// ProvideCompletionService creates the completion API client
func ProvideCompletionService(cfg *config.Config, domainCfg *domainconfig.DomainConfig, logger *zap.Logger) ports.CompletionService {
	return llm.NewCompletionClient(llm.Config{
		BaseURL: cfg.CompletionBaseURL,
		APIKey:  cfg.CompletionAPIKey,
		Model:   cfg.CompletionModel,
		Timeout: domainCfg.CompletionTimeout,
	}, logger)
}

// ProvideIntakeService creates the intake service
func ProvideIntakeService(
	completion ports.CompletionService,
	edges ports.EdgeRepository,
	insights ports.InsightRepository,
	patterns ports.PatternRepository,
	publisher ports.EventPublisher,
	cacheStore ports.Cache,
	metrics *observability.Metrics,
	domainCfg *domainconfig.DomainConfig,
	clock utils.Clock,
	logger *zap.Logger,
) *services.IntakeService {
	return services.NewIntakeService(completion, edges, insights, patterns, publisher, cacheStore, metrics, domainCfg, clock, logger)
}

// ProvidePreferenceService creates the preference service
func ProvidePreferenceService(
	preferences ports.PreferenceRepository,
	suggestions ports.SuggestionRepository,
	logger *zap.Logger,
) *services.PreferenceService {
	return services.NewPreferenceService(preferences, suggestions, logger)
}

// ProvideGraphService creates the graph query service
func ProvideGraphService(
	edges ports.EdgeRepository,
	cacheStore ports.Cache,
	domainCfg *domainconfig.DomainConfig,
	logger *zap.Logger,
) *services.GraphService {
	return services.NewGraphService(edges, cacheStore, domainCfg, logger)
}

// ProvideSuggestionService creates the suggestion service
func ProvideSuggestionService(
	suggestions ports.SuggestionRepository,
	insights ports.InsightRepository,
	patterns ports.PatternRepository,
	preferences *services.PreferenceService,
	completion ports.CompletionService,
	publisher ports.EventPublisher,
	metrics *observability.Metrics,
	domainCfg *domainconfig.DomainConfig,
	clock utils.Clock,
	logger *zap.Logger,
) *services.SuggestionService {
	return services.NewSuggestionService(suggestions, insights, patterns, preferences, completion, publisher, metrics, domainCfg, clock, logger)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	intake *services.IntakeService,
	suggestions *services.SuggestionService,
	graph *services.GraphService,
	tracer *observability.Tracer,
	cfg *config.Config,
	logger *zap.Logger,
) *bus.CommandBus {
	middleware := []bus.Middleware{bus.LoggingMiddleware(logger)}
	if cfg.EnableTracing {
		middleware = append(middleware, bus.TracingMiddleware(tracer))
	}
	commandBus := bus.NewCommandBus(middleware...)

	commandBus.Register(commands.IngestEvidenceCommand{}, commandhandlers.NewIngestEvidenceHandler(intake))
	commandBus.Register(commands.RecordFeedbackCommand{}, commandhandlers.NewRecordFeedbackHandler(suggestions))
	commandBus.Register(commands.GenerateSuggestionsCommand{}, commandhandlers.NewGenerateSuggestionsHandler(suggestions))
	commandBus.Register(commands.DeactivateEdgeCommand{}, commandhandlers.NewDeactivateEdgeHandler(graph))

	return commandBus
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	graph *services.GraphService,
	suggestions *services.SuggestionService,
	logger *zap.Logger,
) *querybus.QueryBus {
	queryBus := querybus.NewQueryBus()

	queryBus.Register(queries.GetPendingSuggestionsQuery{}, querybus.LoggingMiddlewareFor(logger, queryhandlers.NewGetPendingSuggestionsHandler(suggestions)))
	queryBus.Register(queries.FindPathQuery{}, querybus.LoggingMiddlewareFor(logger, queryhandlers.NewFindPathHandler(graph)))
	queryBus.Register(queries.GetClustersQuery{}, querybus.LoggingMiddlewareFor(logger, queryhandlers.NewGetClustersHandler(graph)))
	queryBus.Register(queries.GetGraphStatsQuery{}, querybus.LoggingMiddlewareFor(logger, queryhandlers.NewGetGraphStatsHandler(graph)))
	queryBus.Register(queries.GetEdgesQuery{}, querybus.LoggingMiddlewareFor(logger, queryhandlers.NewGetEdgesHandler(graph)))

	return queryBus
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *pkgerrors.ErrorHandler,
	cfg *config.Config,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(commandBus, queryBus, errorHandler, cfg.EnableCORS, logger)
}
