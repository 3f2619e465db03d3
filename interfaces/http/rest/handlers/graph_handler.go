package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/TPCMinistries/insight-engine/application/commands"
	"github.com/TPCMinistries/insight-engine/application/commands/bus"
	"github.com/TPCMinistries/insight-engine/application/queries"
	querybus "github.com/TPCMinistries/insight-engine/application/queries/bus"
	"github.com/TPCMinistries/insight-engine/pkg/common"
	pkgerrors "github.com/TPCMinistries/insight-engine/pkg/errors"
)

// GraphHandler handles graph query requests
type GraphHandler struct {
	commandBus   *bus.CommandBus
	queryBus     *querybus.QueryBus
	errorHandler *pkgerrors.ErrorHandler
	logger       *zap.Logger
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{
		commandBus:   commandBus,
		queryBus:     queryBus,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// FindPath handles GET /graph/path?source=...&target=...&max_depth=N
func (h *GraphHandler) FindPath(w http.ResponseWriter, r *http.Request) {
	organizationID, _ := common.GetOrganizationID(r.Context())

	source := r.URL.Query().Get("source")
	target := r.URL.Query().Get("target")
	if source == "" || target == "" {
		common.RespondError(w, http.StatusBadRequest, "MISSING_CONCEPTS", "source and target query parameters are required")
		return
	}

	maxDepth := 0
	if raw := r.URL.Query().Get("max_depth"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			common.RespondError(w, http.StatusBadRequest, "INVALID_DEPTH", "max_depth must be an integer")
			return
		}
		maxDepth = parsed
	}

	result, err := h.queryBus.Ask(r.Context(), queries.FindPathQuery{
		OrganizationID: organizationID,
		SourceConcept:  source,
		TargetConcept:  target,
		MaxDepth:       maxDepth,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// GetClusters handles GET /graph/clusters?min_size=N
func (h *GraphHandler) GetClusters(w http.ResponseWriter, r *http.Request) {
	organizationID, _ := common.GetOrganizationID(r.Context())

	minSize := 0
	if raw := r.URL.Query().Get("min_size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			common.RespondError(w, http.StatusBadRequest, "INVALID_MIN_SIZE", "min_size must be an integer")
			return
		}
		minSize = parsed
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetClustersQuery{
		OrganizationID: organizationID,
		MinSize:        minSize,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// GetStats handles GET /graph/stats
func (h *GraphHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	organizationID, _ := common.GetOrganizationID(r.Context())

	result, err := h.queryBus.Ask(r.Context(), queries.GetGraphStatsQuery{
		OrganizationID: organizationID,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// ListEdges handles GET /graph/edges
func (h *GraphHandler) ListEdges(w http.ResponseWriter, r *http.Request) {
	organizationID, _ := common.GetOrganizationID(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			common.RespondError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be an integer")
			return
		}
		limit = parsed
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetEdgesQuery{
		OrganizationID: organizationID,
		Concept:        r.URL.Query().Get("concept"),
		RelationType:   r.URL.Query().Get("relation_type"),
		Limit:          limit,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	edges := result.([]queries.EdgeDTO)
	common.RespondWithMeta(w, http.StatusOK, edges, &common.MetaInfo{
		RequestID: common.ExtractRequestID(r),
		Count:     len(edges),
	})
}

// DeactivateEdge handles DELETE /graph/edges/{edgeID}
func (h *GraphHandler) DeactivateEdge(w http.ResponseWriter, r *http.Request) {
	edgeID := chi.URLParam(r, "edgeID")
	if edgeID == "" {
		common.RespondError(w, http.StatusBadRequest, "MISSING_ID", "Edge ID is required")
		return
	}

	organizationID, _ := common.GetOrganizationID(r.Context())

	cmd := commands.DeactivateEdgeCommand{
		OrganizationID: organizationID,
		EdgeID:         edgeID,
	}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"edge_id": edgeID,
		"status":  "deactivated",
	})
}
