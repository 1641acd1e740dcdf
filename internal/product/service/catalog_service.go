package service

import (
	"context"
	"database/sql"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"repuestos/internal/domain"
	apperrors "repuestos/internal/errors"
)

const (
	initialStockReason      = "stock inicial"
	defaultAdjustmentReason = "ajuste manual"
	maxNameLength           = 255
)

type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error
}

type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id string) (*domain.Product, error)
	Insert(ctx context.Context, tx *sql.Tx, p domain.Product) error
	Update(ctx context.Context, tx *sql.Tx, p domain.Product) error
	DeleteWithDependents(ctx context.Context, tx *sql.Tx, id string) error
}

// Ledger applies stock changes inside a transaction owned by the caller.
type Ledger interface {
	Prepare(req domain.MovementRequest) (domain.StockMovement, error)
	ApplyInTx(ctx context.Context, tx *sql.Tx, m domain.StockMovement) (*domain.MovementResult, error)
}

type ProductFields struct {
	Name           string
	Code           *string
	BrandID        *string
	CategoryID     *string
	Dimensions     *string
	Notes          *string
	ListPrice      decimal.Decimal
	InstalledPrice decimal.Decimal
}

type CreateProductInput struct {
	ProductFields
	InitialStock int
	UserID       *string
}

// UpdateProductInput replaces the descriptive fields. A non-nil StockQuantity
// is a target value reached through an adjustment movement.
type UpdateProductInput struct {
	ProductFields
	StockQuantity    *int
	AdjustmentReason string
	UserID           *string
}

type UpdateResult struct {
	Product    *domain.Product
	Adjustment *domain.MovementResult
}

type CatalogService struct {
	txRunner    TxRunner
	productRepo ProductRepository
	ledger      Ledger
	logger      *zap.Logger
}

func NewCatalogService(txRunner TxRunner, productRepo ProductRepository, ledger Ledger, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		txRunner:    txRunner,
		productRepo: productRepo,
		ledger:      ledger,
		logger:      logger,
	}
}

func (s *CatalogService) Get(ctx context.Context, id string) (*domain.Product, error) {
	productID, ok := domain.NormalizeID(id)
	if !ok {
		return nil, invalidProductID()
	}
	return s.productRepo.FindByID(ctx, productID)
}

// Create inserts the product with zero stock and records any initial stock
// as an "initial" movement in the same transaction.
func (s *CatalogService) Create(ctx context.Context, in CreateProductInput) (*domain.Product, error) {
	// Bloque 1: Validación
	details := validateFields(in.ProductFields)
	details = append(details, validateStock(in.InitialStock)...)
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid product", details...)
	}

	product := newProduct(domain.NewID(), in.ProductFields)

	var initial *domain.StockMovement
	if in.InitialStock > 0 {
		m, err := s.ledger.Prepare(domain.MovementRequest{
			ProductID:    product.ID,
			Quantity:     in.InitialStock,
			MovementType: domain.MovementInitial,
			Reason:       initialStockReason,
			UserID:       in.UserID,
		})
		if err != nil {
			return nil, err
		}
		initial = &m
	}

	// Bloque 2: Transacción
	err := s.txRunner.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.productRepo.Insert(ctx, tx, product); err != nil {
			return err
		}
		if initial == nil {
			return nil
		}
		_, err := s.ledger.ApplyInTx(ctx, tx, *initial)
		return err
	})
	if err != nil {
		s.logger.Warn("product creation failed", zap.String("name", product.Name), zap.Error(err))
		return nil, err
	}

	s.logger.Info("product created",
		zap.String("productId", product.ID),
		zap.String("name", product.Name),
		zap.Int("initialStock", in.InitialStock),
	)

	return s.productRepo.FindByID(ctx, product.ID)
}

func (s *CatalogService) Update(ctx context.Context, id string, in UpdateProductInput) (*UpdateResult, error) {
	productID, ok := domain.NormalizeID(id)
	if !ok {
		return nil, invalidProductID()
	}

	details := validateFields(in.ProductFields)
	if in.StockQuantity != nil {
		details = append(details, validateStock(*in.StockQuantity)...)
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid product", details...)
	}

	reason := strings.TrimSpace(in.AdjustmentReason)
	if reason == "" {
		reason = defaultAdjustmentReason
	}

	result := &UpdateResult{}
	err := s.txRunner.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		current, err := s.productRepo.FindByIDForUpdate(ctx, tx, productID)
		if err != nil {
			return err
		}

		if err := s.productRepo.Update(ctx, tx, newProduct(productID, in.ProductFields)); err != nil {
			return err
		}

		if in.StockQuantity == nil || *in.StockQuantity == current.StockQuantity {
			return nil
		}

		m, err := s.ledger.Prepare(domain.MovementRequest{
			ProductID:    productID,
			Quantity:     *in.StockQuantity - current.StockQuantity,
			MovementType: domain.MovementAdjustment,
			Reason:       reason,
			UserID:       in.UserID,
		})
		if err != nil {
			return err
		}

		result.Adjustment, err = s.ledger.ApplyInTx(ctx, tx, m)
		return err
	})
	if err != nil {
		s.logger.Warn("product update failed", zap.String("productId", productID), zap.Error(err))
		return nil, err
	}

	fields := []zap.Field{zap.String("productId", productID)}
	if result.Adjustment != nil {
		fields = append(fields,
			zap.Int("previousStock", result.Adjustment.PreviousStockQuantity),
			zap.Int("newStock", result.Adjustment.NewStockQuantity),
		)
	}
	s.logger.Info("product updated", fields...)

	result.Product, err = s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes the product and everything that references it.
func (s *CatalogService) Delete(ctx context.Context, id string) (*domain.DeletedProduct, error) {
	productID, ok := domain.NormalizeID(id)
	if !ok {
		return nil, invalidProductID()
	}

	var deleted domain.DeletedProduct
	err := s.txRunner.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		product, err := s.productRepo.FindByIDForUpdate(ctx, tx, productID)
		if err != nil {
			return err
		}
		deleted = domain.DeletedProduct{ID: product.ID, Name: product.Name}
		return s.productRepo.DeleteWithDependents(ctx, tx, productID)
	})
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); !ok {
			s.logger.Error("product deletion rolled back", zap.String("productId", productID), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("product deleted", zap.String("productId", deleted.ID), zap.String("name", deleted.Name))
	return &deleted, nil
}

func newProduct(id string, f ProductFields) domain.Product {
	return domain.Product{
		ID:             id,
		Name:           strings.TrimSpace(f.Name),
		Code:           trimmed(f.Code),
		BrandID:        f.BrandID,
		CategoryID:     f.CategoryID,
		Dimensions:     trimmed(f.Dimensions),
		Notes:          trimmed(f.Notes),
		ListPrice:      f.ListPrice,
		InstalledPrice: f.InstalledPrice,
	}
}

func validateFields(f ProductFields) []apperrors.ValidationDetail {
	var details []apperrors.ValidationDetail

	name := strings.TrimSpace(f.Name)
	switch {
	case name == "":
		details = append(details, apperrors.ValidationDetail{Field: "name", Message: "name is required"})
	case utf8.RuneCountInString(name) > maxNameLength:
		details = append(details, apperrors.ValidationDetail{Field: "name", Message: "name must be at most 255 characters"})
	}

	if f.ListPrice.IsNegative() {
		details = append(details, apperrors.ValidationDetail{Field: "listPrice", Message: "listPrice must be non-negative"})
	}
	if f.InstalledPrice.IsNegative() {
		details = append(details, apperrors.ValidationDetail{Field: "installedPrice", Message: "installedPrice must be non-negative"})
	}

	if f.BrandID != nil && !domain.IsValidID(*f.BrandID) {
		details = append(details, apperrors.ValidationDetail{Field: "brandId", Message: "brandId must be a valid UUID"})
	}
	if f.CategoryID != nil && !domain.IsValidID(*f.CategoryID) {
		details = append(details, apperrors.ValidationDetail{Field: "categoryId", Message: "categoryId must be a valid UUID"})
	}

	return details
}

func validateStock(q int) []apperrors.ValidationDetail {
	switch {
	case q < 0:
		return []apperrors.ValidationDetail{{Field: "stockQuantity", Message: "stockQuantity must be zero or greater"}}
	case q > domain.MaxStockQuantity:
		return []apperrors.ValidationDetail{{Field: "stockQuantity", Message: "stockQuantity must be at most 2147483647"}}
	}
	return nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func invalidProductID() error {
	return apperrors.NewValidationError("invalid product id", apperrors.ValidationDetail{
		Field:   "productId",
		Message: "productId must be a valid UUID",
	})
}
