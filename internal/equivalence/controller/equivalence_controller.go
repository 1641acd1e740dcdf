package controller

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"repuestos/internal/commons"
	"repuestos/internal/domain"
	"repuestos/internal/dto"
	"repuestos/internal/equivalence/service"
)

type GraphService interface {
	Link(ctx context.Context, productID string, equivalentIDs []string) (*service.LinkResult, error)
	Equivalents(ctx context.Context, productID string) ([]domain.Product, error)
}

type EquivalenceController struct {
	graph     GraphService
	validator *commons.Validator
	logger    *zap.Logger
}

func NewEquivalenceController(graph GraphService, validator *commons.Validator, logger *zap.Logger) *EquivalenceController {
	return &EquivalenceController{
		graph:     graph,
		validator: validator,
		logger:    logger,
	}
}

// Link handles POST /products/{productId}/equivalents.
func (c *EquivalenceController) Link(w http.ResponseWriter, r *http.Request) {
	traceID := commons.NewTraceID(r)
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.LinkEquivalentsRequest
	if err := commons.DecodeJSON(r, &req); err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}
	if err := c.validator.Struct(req); err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	result, err := c.graph.Link(r.Context(), chi.URLParam(r, "productId"), req.EquivalentIDs)
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.LinkEquivalentsResponse{
		ProductID: result.ProductID,
		Created:   result.Created,
		Existing:  result.Existing,
	}, logger)
}

// List handles GET /products/{productId}/equivalents.
func (c *EquivalenceController) List(w http.ResponseWriter, r *http.Request) {
	traceID := commons.NewTraceID(r)
	productID := chi.URLParam(r, "productId")

	products, err := c.graph.Equivalents(r.Context(), productID)
	if err != nil {
		commons.WriteError(w, traceID, err, c.logger)
		return
	}

	if id, ok := domain.NormalizeID(productID); ok {
		productID = id
	}

	commons.WriteJSON(w, http.StatusOK, dto.EquivalentsResponse{
		ProductID:   productID,
		Equivalents: dto.NewProductResponses(products),
	}, c.logger)
}
