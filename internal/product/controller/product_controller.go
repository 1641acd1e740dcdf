package controller

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"repuestos/internal/commons"
	"repuestos/internal/domain"
	"repuestos/internal/dto"
	apperrors "repuestos/internal/errors"
	"repuestos/internal/product/service"
)

type SearchUseCase interface {
	List(ctx context.Context, params domain.ProductListParams) (*domain.Page[domain.Product], error)
}

type CatalogService interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, in service.CreateProductInput) (*domain.Product, error)
	Update(ctx context.Context, id string, in service.UpdateProductInput) (*service.UpdateResult, error)
	Delete(ctx context.Context, id string) (*domain.DeletedProduct, error)
}

type ProductController struct {
	search    SearchUseCase
	catalog   CatalogService
	validator *commons.Validator
	logger    *zap.Logger
}

func NewProductController(search SearchUseCase, catalog CatalogService, validator *commons.Validator, logger *zap.Logger) *ProductController {
	return &ProductController{
		search:    search,
		catalog:   catalog,
		validator: validator,
		logger:    logger,
	}
}

// List handles GET /products?page=&pageSize=&sortBy=&sortOrder=&search=
func (c *ProductController) List(w http.ResponseWriter, r *http.Request) {
	traceID := commons.NewTraceID(r)

	params, err := parseListParams(r)
	if err != nil {
		commons.WriteError(w, traceID, err, c.logger)
		return
	}

	page, err := c.search.List(r.Context(), params)
	if err != nil {
		commons.WriteError(w, traceID, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.NewProductPageResponse(*page), c.logger)
}

func (c *ProductController) Get(w http.ResponseWriter, r *http.Request) {
	traceID := commons.NewTraceID(r)

	product, err := c.catalog.Get(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		commons.WriteError(w, traceID, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.NewProductResponse(*product), c.logger)
}

func (c *ProductController) Create(w http.ResponseWriter, r *http.Request) {
	traceID := commons.NewTraceID(r)
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.CreateProductRequest
	if err := commons.DecodeJSON(r, &req); err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}
	if err := c.validator.Struct(req); err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	product, err := c.catalog.Create(r.Context(), service.CreateProductInput{
		ProductFields: service.ProductFields{
			Name:           req.Name,
			Code:           req.Code,
			BrandID:        req.BrandID,
			CategoryID:     req.CategoryID,
			Dimensions:     req.Dimensions,
			Notes:          req.Notes,
			ListPrice:      req.ListPrice,
			InstalledPrice: req.InstalledPrice,
		},
		InitialStock: req.StockQuantity,
		UserID:       req.UserID,
	})
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusCreated, dto.NewProductResponse(*product), logger)
}

func (c *ProductController) Update(w http.ResponseWriter, r *http.Request) {
	traceID := commons.NewTraceID(r)
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.UpdateProductRequest
	if err := commons.DecodeJSON(r, &req); err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}
	if err := c.validator.Struct(req); err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	result, err := c.catalog.Update(r.Context(), chi.URLParam(r, "productId"), service.UpdateProductInput{
		ProductFields: service.ProductFields{
			Name:           req.Name,
			Code:           req.Code,
			BrandID:        req.BrandID,
			CategoryID:     req.CategoryID,
			Dimensions:     req.Dimensions,
			Notes:          req.Notes,
			ListPrice:      req.ListPrice,
			InstalledPrice: req.InstalledPrice,
		},
		StockQuantity:    req.StockQuantity,
		AdjustmentReason: req.AdjustmentReason,
		UserID:           req.UserID,
	})
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	resp := dto.UpdateProductResponse{Product: dto.NewProductResponse(*result.Product)}
	if result.Adjustment != nil {
		adj := dto.NewRecordMovementResponse(*result.Adjustment)
		resp.Adjustment = &adj
	}

	commons.WriteJSON(w, http.StatusOK, resp, logger)
}

func (c *ProductController) Delete(w http.ResponseWriter, r *http.Request) {
	traceID := commons.NewTraceID(r)

	deleted, err := c.catalog.Delete(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		commons.WriteError(w, traceID, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.DeleteProductResponse{ID: deleted.ID, Name: deleted.Name}, c.logger)
}

func parseListParams(r *http.Request) (domain.ProductListParams, error) {
	params := domain.DefaultProductListParams()
	q := r.URL.Query()
	var details []apperrors.ValidationDetail

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			details = append(details, apperrors.ValidationDetail{Field: "page", Message: "page must be an integer"})
		}
		params.Page = n
	}
	if v := q.Get("pageSize"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			details = append(details, apperrors.ValidationDetail{Field: "pageSize", Message: "pageSize must be an integer"})
		}
		params.PageSize = n
	}
	if v := q.Get("sortBy"); v != "" {
		params.SortBy = domain.SortField(v)
	}
	if v := q.Get("sortOrder"); v != "" {
		params.SortOrder = domain.SortOrder(v)
	}
	params.Search = q.Get("search")

	if len(details) > 0 {
		return params, apperrors.NewValidationError("invalid query parameters", details...)
	}
	return params, nil
}
