package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/TPCMinistries/insight-engine/application/commands/bus"
	querybus "github.com/TPCMinistries/insight-engine/application/queries/bus"
	"github.com/TPCMinistries/insight-engine/interfaces/http/rest/handlers"
	"github.com/TPCMinistries/insight-engine/interfaces/http/rest/middleware"
	pkgerrors "github.com/TPCMinistries/insight-engine/pkg/errors"
)

// Router creates and configures the HTTP router
type Router struct {
	commandBus   *bus.CommandBus
	queryBus     *querybus.QueryBus
	errorHandler *pkgerrors.ErrorHandler
	enableCORS   bool
	logger       *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *pkgerrors.ErrorHandler,
	enableCORS bool,
	logger *zap.Logger,
) *Router {
	return &Router{
		commandBus:   commandBus,
		queryBus:     queryBus,
		errorHandler: errorHandler,
		enableCORS:   enableCORS,
		logger:       logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "https://*.tpcministries.com"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "X-User-ID", "X-Org-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health checks
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	// API routes
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity())

		evidenceHandler := handlers.NewEvidenceHandler(rt.commandBus, rt.errorHandler, rt.logger)
		r.Post("/evidence", evidenceHandler.IngestEvidence)

		suggestionHandler := handlers.NewSuggestionHandler(rt.commandBus, rt.queryBus, rt.errorHandler, rt.logger)
		r.Route("/suggestions", func(r chi.Router) {
			r.Get("/", suggestionHandler.ListSuggestions)
			r.Post("/generate", suggestionHandler.GenerateSuggestions)
			r.Post("/{suggestionID}/feedback", suggestionHandler.RecordFeedback)
		})

		graphHandler := handlers.NewGraphHandler(rt.commandBus, rt.queryBus, rt.errorHandler, rt.logger)
		r.Route("/graph", func(r chi.Router) {
			r.Get("/path", graphHandler.FindPath)
			r.Get("/clusters", graphHandler.GetClusters)
			r.Get("/stats", graphHandler.GetStats)
			r.Get("/edges", graphHandler.ListEdges)
			r.Delete("/edges/{edgeID}", graphHandler.DeactivateEdge)
		})
	})

	return router
}

// healthCheck handles GET /health
func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles GET /ready
func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
