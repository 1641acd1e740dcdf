package controller

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"repuestos/internal/commons"
	"repuestos/internal/domain"
	"repuestos/internal/dto"
	apperrors "repuestos/internal/errors"
	"repuestos/internal/movement/usecase"
)

const dateOnly = "2006-01-02"

type LedgerService interface {
	RecordMovement(ctx context.Context, req domain.MovementRequest) (*domain.MovementResult, error)
}

type QueryUseCase interface {
	ListMovements(ctx context.Context, params domain.MovementListParams) (*usecase.MovementHistory, error)
	Reconcile(ctx context.Context, productID string) (*domain.LedgerReport, error)
	MovementTypes() []domain.MovementTypeInfo
}

type MovementController struct {
	ledger    LedgerService
	query     QueryUseCase
	validator *commons.Validator
	logger    *zap.Logger
}

func NewMovementController(ledger LedgerService, query QueryUseCase, validator *commons.Validator, logger *zap.Logger) *MovementController {
	return &MovementController{
		ledger:    ledger,
		query:     query,
		validator: validator,
		logger:    logger,
	}
}

// Record handles POST /products/{productId}/movements.
func (c *MovementController) Record(w http.ResponseWriter, r *http.Request) {
	traceID := commons.NewTraceID(r)
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.RecordMovementRequest
	if err := commons.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		commons.WriteError(w, traceID, err, logger)
		return
	}
	if err := c.validator.Struct(req); err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	result, err := c.ledger.RecordMovement(r.Context(), domain.MovementRequest{
		ProductID:    chi.URLParam(r, "productId"),
		Quantity:     req.Quantity,
		MovementType: domain.MovementType(req.MovementType),
		Reason:       req.Reason,
		Date:         req.Date,
		UserID:       req.UserID,
	})
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusCreated, dto.NewRecordMovementResponse(*result), logger)
}

// List handles GET /products/{productId}/movements.
func (c *MovementController) List(w http.ResponseWriter, r *http.Request) {
	traceID := commons.NewTraceID(r)

	params, err := parseMovementParams(r, chi.URLParam(r, "productId"))
	if err != nil {
		commons.WriteError(w, traceID, err, c.logger)
		return
	}

	history, err := c.query.ListMovements(r.Context(), params)
	if err != nil {
		commons.WriteError(w, traceID, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.NewMovementHistoryResponse(history.Product, history.Page), c.logger)
}

func (c *MovementController) Reconcile(w http.ResponseWriter, r *http.Request) {
	traceID := commons.NewTraceID(r)

	report, err := c.query.Reconcile(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		commons.WriteError(w, traceID, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.NewReconciliationResponse(*report), c.logger)
}

func (c *MovementController) MovementTypes(w http.ResponseWriter, r *http.Request) {
	commons.WriteJSON(w, http.StatusOK, dto.NewMovementTypeResponses(c.query.MovementTypes()), c.logger)
}

func parseMovementParams(r *http.Request, productID string) (domain.MovementListParams, error) {
	params := domain.DefaultMovementListParams(productID)
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
	if v := q.Get("startDate"); v != "" {
		t, err := parseDate(v, false)
		if err != nil {
			details = append(details, apperrors.ValidationDetail{Field: "startDate", Message: "startDate must be RFC3339 or YYYY-MM-DD"})
		}
		params.StartDate = &t
	}
	if v := q.Get("endDate"); v != "" {
		t, err := parseDate(v, true)
		if err != nil {
			details = append(details, apperrors.ValidationDetail{Field: "endDate", Message: "endDate must be RFC3339 or YYYY-MM-DD"})
		}
		params.EndDate = &t
	}
	if v := q.Get("movementType"); v != "" {
		mt := domain.MovementType(v)
		params.MovementType = &mt
	}

	if len(details) > 0 {
		return params, apperrors.NewValidationError("invalid query parameters", details...)
	}
	return params, nil
}

// parseDate accepts RFC3339 or a bare date. A bare end date covers the whole
// day so the bound stays inclusive.
func parseDate(v string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateOnly, v)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Microsecond)
	}
	return t, nil
}
