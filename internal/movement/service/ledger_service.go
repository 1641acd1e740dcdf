package service

import (
	"context"
	"database/sql"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"repuestos/internal/domain"
	apperrors "repuestos/internal/errors"
)

const maxReasonLength = 500

var tracer = otel.Tracer("repuestos/movement")

type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error
}

type ProductRepository interface {
	FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id string) (*domain.Product, error)
	UpdateStockQuantity(ctx context.Context, tx *sql.Tx, id string, quantity int) error
}

type MovementRepository interface {
	Insert(ctx context.Context, tx *sql.Tx, m domain.StockMovement) error
}

type MetricsRecorder interface {
	ObserveMovement(movementType, outcome string, quantity int)
}

// LedgerService is the only writer of products.stock_quantity. Every change is
// paired with exactly one stock_movements row in the same transaction.
type LedgerService struct {
	txRunner     TxRunner
	productRepo  ProductRepository
	movementRepo MovementRepository
	metrics      MetricsRecorder
	logger       *zap.Logger
	now          func() time.Time
}

func NewLedgerService(
	txRunner TxRunner,
	productRepo ProductRepository,
	movementRepo MovementRepository,
	metrics MetricsRecorder,
	logger *zap.Logger,
) *LedgerService {
	return &LedgerService{
		txRunner:     txRunner,
		productRepo:  productRepo,
		movementRepo: movementRepo,
		metrics:      metrics,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *LedgerService) RecordMovement(ctx context.Context, in domain.MovementRequest) (*domain.MovementResult, error) {
	ctx, span := tracer.Start(ctx, "ledger.RecordMovement",
		trace.WithAttributes(
			attribute.String("product.id", in.ProductID),
			attribute.Int("movement.quantity", in.Quantity),
			attribute.String("movement.type", string(in.MovementType)),
		),
	)
	defer span.End()

	// Bloque 1: Validar antes de abrir la transacción
	movement, err := s.Prepare(in)
	if err != nil {
		s.metrics.ObserveMovement(string(in.MovementType), Outcome(err), in.Quantity)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// Bloque 2: Aplicar dentro de la transacción
	var result *domain.MovementResult
	err = s.txRunner.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		r, err := s.ApplyInTx(ctx, tx, movement)
		if err != nil {
			return err
		}
		result = r
		return nil
	})

	// Bloque 3: Registrar resultado
	outcome := Outcome(err)
	s.metrics.ObserveMovement(string(movement.MovementType), outcome, movement.Quantity)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		fields := []zap.Field{
			zap.String("productId", movement.ProductID),
			zap.Int("quantity", movement.Quantity),
			zap.String("movementType", string(movement.MovementType)),
			zap.String("outcome", outcome),
			zap.Error(err),
		}
		if outcome == "internal" {
			s.logger.Error("stock movement rolled back", fields...)
		} else {
			s.logger.Warn("stock movement rejected", fields...)
		}
		return nil, err
	}

	span.SetAttributes(
		attribute.String("movement.id", result.Movement.ID),
		attribute.Int("stock.previous", result.PreviousStockQuantity),
		attribute.Int("stock.new", result.NewStockQuantity),
	)
	s.logger.Info("stock movement committed",
		zap.String("movementId", result.Movement.ID),
		zap.String("productId", movement.ProductID),
		zap.Int("quantity", movement.Quantity),
		zap.Int("previousStock", result.PreviousStockQuantity),
		zap.Int("newStock", result.NewStockQuantity),
	)

	return result, nil
}

// Prepare validates the input and builds the movement to be written. It never
// touches the store.
func (s *LedgerService) Prepare(in domain.MovementRequest) (domain.StockMovement, error) {
	var details []apperrors.ValidationDetail

	productID, ok := domain.NormalizeID(in.ProductID)
	if !ok {
		details = append(details, apperrors.ValidationDetail{Field: "productId", Message: "productId must be a valid UUID"})
	}

	switch {
	case in.Quantity == 0:
		details = append(details, apperrors.ValidationDetail{Field: "quantity", Message: "quantity must not be zero"})
	case !domain.IsQuantityInRange(in.Quantity):
		details = append(details, apperrors.ValidationDetail{Field: "quantity", Message: "quantity must be between -2147483647 and 2147483647"})
	}

	if !in.MovementType.IsValid() {
		details = append(details, apperrors.ValidationDetail{Field: "movementType", Message: "movementType is not a known movement type"})
	}

	reason := strings.TrimSpace(in.Reason)
	switch {
	case reason == "":
		details = append(details, apperrors.ValidationDetail{Field: "reason", Message: "reason is required"})
	case utf8.RuneCountInString(reason) > maxReasonLength:
		details = append(details, apperrors.ValidationDetail{Field: "reason", Message: "reason must be at most 500 characters"})
	}

	var userID *string
	if in.UserID != nil {
		id, ok := domain.NormalizeID(*in.UserID)
		if !ok {
			details = append(details, apperrors.ValidationDetail{Field: "userId", Message: "userId must be a valid UUID"})
		}
		userID = &id
	}

	date := s.now()
	if in.Date != nil {
		date = *in.Date
		if !domain.IsStorableDate(date) {
			details = append(details, apperrors.ValidationDetail{Field: "date", Message: "date must be between years 1000 and 9999"})
		}
	}

	if len(details) > 0 {
		return domain.StockMovement{}, apperrors.NewValidationError("invalid stock movement", details...)
	}

	return domain.StockMovement{
		ID:           domain.NewID(),
		ProductID:    productID,
		Quantity:     in.Quantity,
		MovementType: in.MovementType,
		Reason:       reason,
		Date:         date.UTC().Truncate(time.Microsecond),
		UserID:       userID,
	}, nil
}

// ApplyInTx locks the product, checks the resulting quantity and writes the
// movement together with the new quantity. Callers own tx.
func (s *LedgerService) ApplyInTx(ctx context.Context, tx *sql.Tx, m domain.StockMovement) (*domain.MovementResult, error) {
	product, err := s.productRepo.FindByIDForUpdate(ctx, tx, m.ProductID)
	if err != nil {
		return nil, err
	}

	next, err := domain.NextStockQuantity(product.StockQuantity, m.Quantity)
	if err != nil {
		return nil, err
	}

	if err := s.movementRepo.Insert(ctx, tx, m); err != nil {
		return nil, err
	}

	if err := s.productRepo.UpdateStockQuantity(ctx, tx, m.ProductID, next); err != nil {
		return nil, err
	}

	return &domain.MovementResult{
		Movement:              m,
		PreviousStockQuantity: product.StockQuantity,
		NewStockQuantity:      next,
	}, nil
}

// Outcome labels an error for metrics and logs.
func Outcome(err error) string {
	if err == nil {
		return "committed"
	}
	if _, ok := apperrors.IsValidationError(err); ok {
		return "invalid_argument"
	}
	if _, ok := apperrors.IsNotFoundError(err); ok {
		return "not_found"
	}
	if _, ok := apperrors.IsInvariantViolationError(err); ok {
		return "invariant_violation"
	}
	if _, ok := apperrors.IsDeadlockError(err); ok {
		return "conflict"
	}
	if _, ok := apperrors.IsCanceledError(err); ok {
		return "canceled"
	}
	if _, ok := apperrors.IsConflictError(err); ok {
		return "conflict"
	}
	return "internal"
}
