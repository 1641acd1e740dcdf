package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"repuestos/internal/commons"
	"repuestos/internal/domain"
	"repuestos/internal/dto"
	apperrors "repuestos/internal/errors"
	"repuestos/internal/movement/usecase"
)

const boschID = "6f1c2a3b-4d5e-4f60-8a7b-9c0d1e2f3a4b"

// Mock implementations
type mockLedger struct {
	RecordMovementFunc func(ctx context.Context, req domain.MovementRequest) (*domain.MovementResult, error)
}

func (m *mockLedger) RecordMovement(ctx context.Context, req domain.MovementRequest) (*domain.MovementResult, error) {
	return m.RecordMovementFunc(ctx, req)
}

type mockQuery struct {
	ListMovementsFunc func(ctx context.Context, params domain.MovementListParams) (*usecase.MovementHistory, error)
	ReconcileFunc     func(ctx context.Context, productID string) (*domain.LedgerReport, error)
}

func (m *mockQuery) ListMovements(ctx context.Context, params domain.MovementListParams) (*usecase.MovementHistory, error) {
	return m.ListMovementsFunc(ctx, params)
}

func (m *mockQuery) Reconcile(ctx context.Context, productID string) (*domain.LedgerReport, error) {
	return m.ReconcileFunc(ctx, productID)
}

func (m *mockQuery) MovementTypes() []domain.MovementTypeInfo {
	return domain.MovementTypes()
}

func newTestRouter(ledger LedgerService, query QueryUseCase) http.Handler {
	c := NewMovementController(ledger, query, commons.NewValidator(), zap.NewNop())
	r := chi.NewRouter()
	r.Post("/products/{productId}/movements", c.Record)
	r.Get("/products/{productId}/movements", c.List)
	r.Get("/products/{productId}/reconciliation", c.Reconcile)
	r.Get("/movement-types", c.MovementTypes)
	return r
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// Unit Tests

func TestRecord_Created(t *testing.T) {
	var got domain.MovementRequest
	ledger := &mockLedger{
		RecordMovementFunc: func(ctx context.Context, req domain.MovementRequest) (*domain.MovementResult, error) {
			got = req
			return &domain.MovementResult{
				Movement:              domain.StockMovement{ID: "m1", ProductID: boschID, Quantity: -10, MovementType: domain.MovementSale, Reason: "venta"},
				PreviousStockQuantity: 50,
				NewStockQuantity:      40,
			}, nil
		},
	}
	router := newTestRouter(ledger, &mockQuery{})

	body := `{"quantity":-10,"movementType":"sale","reason":"venta"}`
	req := httptest.NewRequest(http.MethodPost, "/products/"+boschID+"/movements", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, boschID, got.ProductID)
	assert.Equal(t, domain.MovementSale, got.MovementType)

	var resp dto.RecordMovementResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 50, resp.PreviousStockQuantity)
	assert.Equal(t, 40, resp.NewStockQuantity)
	assert.Equal(t, -10, resp.Movement.Quantity)
}

func TestRecord_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invariant", apperrors.NewInvariantViolationError("stock cannot go below zero"), http.StatusUnprocessableEntity, "INVARIANT_VIOLATION"},
		{"not found", apperrors.NewNotFoundError("product not found"), http.StatusNotFound, "NOT_FOUND"},
		{"deadlock", apperrors.NewDeadlockError("transaction aborted by lock contention", nil), http.StatusConflict, "DEADLOCK"},
		{"canceled", apperrors.NewCanceledError("request canceled before the transaction finished", context.Canceled), commons.StatusClientClosedRequest, "CANCELED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &mockLedger{
				RecordMovementFunc: func(ctx context.Context, req domain.MovementRequest) (*domain.MovementResult, error) {
					return nil, tt.err
				},
			}
			router := newTestRouter(ledger, &mockQuery{})

			body := `{"quantity":-50,"movementType":"sale","reason":"venta"}`
			req := httptest.NewRequest(http.MethodPost, "/products/"+boschID+"/movements", strings.NewReader(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Error)
		})
	}
}

func TestRecord_RejectsBadBodyBeforeLedger(t *testing.T) {
	ledger := &mockLedger{
		RecordMovementFunc: func(ctx context.Context, req domain.MovementRequest) (*domain.MovementResult, error) {
			t.Fatal("ledger must not be called")
			return nil, nil
		},
	}
	router := newTestRouter(ledger, &mockQuery{})

	for _, body := range []string{
		`{"quantity":0,"movementType":"sale","reason":"venta"}`,
		`{"quantity":5,"movementType":"gift","reason":"venta"}`,
		`{"quantity":5,"movementType":"sale"}`,
		`{"quantity":"five","movementType":"sale","reason":"x"}`,
		`{"quantity":5,"movementType":"sale","reason":"x","extra":true}`,
		`{"quantity":3000000000,"movementType":"purchase","reason":"compra"}`,
		`{"quantity":-2147483648,"movementType":"sale","reason":"venta"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/products/"+boschID+"/movements", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rec).Error, body)
	}
}

func TestList_ParsesFilters(t *testing.T) {
	var got domain.MovementListParams
	query := &mockQuery{
		ListMovementsFunc: func(ctx context.Context, params domain.MovementListParams) (*usecase.MovementHistory, error) {
			got = params
			return &usecase.MovementHistory{
				Product: domain.ProductSummary{ID: boschID, Name: "Filtro de aceite Bosch"},
				Page:    domain.NewPage([]domain.StockMovement{}, params.Page, params.PageSize, 0),
			}, nil
		},
	}
	router := newTestRouter(&mockLedger{}, query)

	req := httptest.NewRequest(http.MethodGet, "/products/"+boschID+"/movements?page=1&pageSize=5&startDate=2024-01-01&endDate=2024-01-31&movementType=sale", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, got.Page)
	assert.Equal(t, 5, got.PageSize)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *got.StartDate)
	assert.Equal(t, time.Date(2024, 1, 31, 23, 59, 59, 999999000, time.UTC), *got.EndDate)
	assert.Equal(t, domain.MovementSale, *got.MovementType)

	var resp dto.MovementHistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Filtro de aceite Bosch", resp.Product.Name)
	assert.NotNil(t, resp.Data)
}

func TestList_BadQuery(t *testing.T) {
	router := newTestRouter(&mockLedger{}, &mockQuery{})

	req := httptest.NewRequest(http.MethodGet, "/products/"+boschID+"/movements?page=abc&startDate=yesterday", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, decodeError(t, rec).Details, 2)
}

func TestReconcile(t *testing.T) {
	query := &mockQuery{
		ReconcileFunc: func(ctx context.Context, productID string) (*domain.LedgerReport, error) {
			return &domain.LedgerReport{ProductID: productID, StockQuantity: 40, LedgerSum: 40, MovementCount: 2}, nil
		},
	}
	router := newTestRouter(&mockLedger{}, query)

	req := httptest.NewRequest(http.MethodGet, "/products/"+boschID+"/reconciliation", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.ReconciliationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Consistent)
	assert.Equal(t, 2, resp.MovementCount)
}

func TestMovementTypes(t *testing.T) {
	router := newTestRouter(&mockLedger{}, &mockQuery{})

	req := httptest.NewRequest(http.MethodGet, "/movement-types", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []dto.MovementTypeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 7)
	assert.Equal(t, "adjustment", resp[2].Value)
	assert.Nil(t, resp[2].IsPositive)
	require.NotNil(t, resp[1].IsPositive)
	assert.False(t, *resp[1].IsPositive)
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("2024-03-01T10:00:00-03:00", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 13, 0, 0, 0, time.UTC), got)

	_, err = parseDate("01/03/2024", false)
	assert.Error(t, err)
}
