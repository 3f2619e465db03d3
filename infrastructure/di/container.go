package di

import (
	"go.uber.org/zap"

	"github.com/TPCMinistries/insight-engine/application/commands/bus"
	"github.com/TPCMinistries/insight-engine/application/ports"
	querybus "github.com/TPCMinistries/insight-engine/application/queries/bus"
	"github.com/TPCMinistries/insight-engine/application/services"
	"github.com/TPCMinistries/insight-engine/infrastructure/config"
	"github.com/TPCMinistries/insight-engine/interfaces/http/rest"
	pkgerrors "github.com/TPCMinistries/insight-engine/pkg/errors"
	"github.com/TPCMinistries/insight-engine/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config            *config.Config
	Logger            *zap.Logger
	ErrorHandler      *pkgerrors.ErrorHandler
	EdgeRepo          ports.EdgeRepository
	PreferenceRepo    ports.PreferenceRepository
	InsightRepo       ports.InsightRepository
	PatternRepo       ports.PatternRepository
	SuggestionRepo    ports.SuggestionRepository
	EventPublisher    ports.EventPublisher
	Cache             ports.Cache
	CompletionService ports.CompletionService
	IntakeService     *services.IntakeService
	PreferenceService *services.PreferenceService
	GraphService      *services.GraphService
	SuggestionService *services.SuggestionService
	CommandBus        *bus.CommandBus
	QueryBus          *querybus.QueryBus
	Metrics           *observability.Metrics
	Tracer            *observability.Tracer
	Router            *rest.Router
}
