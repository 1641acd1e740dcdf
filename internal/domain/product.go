package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "repuestos/internal/errors"
)

type Product struct {
	ID             string
	Name           string
	Code           *string
	BrandID        *string
	BrandName      *string
	CategoryID     *string
	CategoryName   *string
	Dimensions     *string
	Notes          *string
	ListPrice      decimal.Decimal
	InstalledPrice decimal.Decimal
	StockQuantity  int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ProductSummary is the slice of a product shown next to its movement history.
type ProductSummary struct {
	ID   string
	Name string
	Code *string
}

func (p Product) Summary() ProductSummary {
	return ProductSummary{ID: p.ID, Name: p.Name, Code: p.Code}
}

// DeletedProduct identifies a product that no longer exists.
type DeletedProduct struct {
	ID   string
	Name string
}

// MaxStockQuantity is the largest value the stock and movement quantity
// columns hold (signed 32-bit INT).
const MaxStockQuantity = math.MaxInt32

// NextStockQuantity applies a signed delta to the current quantity. The delta
// is used literally; the nominal sign of a movement type is never applied.
// current is expected within [0, MaxStockQuantity].
func NextStockQuantity(current, delta int) (int, error) {
	if delta > MaxStockQuantity-current {
		return current, apperrors.NewInvariantViolationError(
			fmt.Sprintf("stock cannot exceed %d", MaxStockQuantity),
		)
	}
	if current+delta < 0 {
		return current, apperrors.NewInvariantViolationError("stock cannot go below zero")
	}
	return current + delta, nil
}

// IsQuantityInRange reports whether q fits the movement quantity column.
func IsQuantityInRange(q int) bool {
	return q >= -MaxStockQuantity && q <= MaxStockQuantity
}

func IsValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// NormalizeID returns the canonical lowercase form of a UUID string.
func NormalizeID(id string) (string, bool) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

func NewID() string {
	return uuid.New().String()
}
