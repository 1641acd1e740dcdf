package usecase

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"repuestos/internal/domain"
	apperrors "repuestos/internal/errors"
)

var tracer = otel.Tracer("repuestos/movement")

type ProductReader interface {
	FindByID(ctx context.Context, id string) (*domain.Product, error)
}

type MovementReader interface {
	ListByProduct(ctx context.Context, params domain.MovementListParams) ([]domain.StockMovement, int, error)
	Reconcile(ctx context.Context, productID string) (*domain.LedgerReport, error)
}

type MovementHistory struct {
	Product domain.ProductSummary
	Page    domain.Page[domain.StockMovement]
}

type MovementQueryUseCase struct {
	productRepo  ProductReader
	movementRepo MovementReader
	logger       *zap.Logger
}

func NewMovementQueryUseCase(productRepo ProductReader, movementRepo MovementReader, logger *zap.Logger) *MovementQueryUseCase {
	return &MovementQueryUseCase{
		productRepo:  productRepo,
		movementRepo: movementRepo,
		logger:       logger,
	}
}

func (uc *MovementQueryUseCase) ListMovements(ctx context.Context, params domain.MovementListParams) (*MovementHistory, error) {
	ctx, span := tracer.Start(ctx, "movements.List",
		trace.WithAttributes(
			attribute.String("product.id", params.ProductID),
			attribute.Int("page", params.Page),
			attribute.Int("page_size", params.PageSize),
		),
	)
	defer span.End()

	if err := params.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	params.ProductID, _ = domain.NormalizeID(params.ProductID)

	product, err := uc.productRepo.FindByID(ctx, params.ProductID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	movements, total, err := uc.movementRepo.ListByProduct(ctx, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	uc.logger.Debug("movements listed",
		zap.String("productId", params.ProductID),
		zap.Int("page", params.Page),
		zap.Int("returned", len(movements)),
		zap.Int("total", total),
	)

	return &MovementHistory{
		Product: product.Summary(),
		Page:    domain.NewPage(movements, params.Page, params.PageSize, total),
	}, nil
}

// Reconcile replays the ledger of one product against its stored quantity.
func (uc *MovementQueryUseCase) Reconcile(ctx context.Context, productID string) (*domain.LedgerReport, error) {
	id, ok := domain.NormalizeID(productID)
	if !ok {
		return nil, apperrors.NewValidationError("invalid product id", apperrors.ValidationDetail{
			Field:   "productId",
			Message: "productId must be a valid UUID",
		})
	}

	report, err := uc.movementRepo.Reconcile(ctx, id)
	if err != nil {
		return nil, err
	}

	if !report.Consistent() {
		uc.logger.Warn("ledger out of balance",
			zap.String("productId", id),
			zap.Int("stockQuantity", report.StockQuantity),
			zap.Int("ledgerSum", report.LedgerSum),
			zap.Int("drift", report.StockQuantity-report.LedgerSum),
		)
	}

	return report, nil
}

func (uc *MovementQueryUseCase) MovementTypes() []domain.MovementTypeInfo {
	return domain.MovementTypes()
}
