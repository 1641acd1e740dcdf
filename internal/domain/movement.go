package domain

import "time"

type MovementType string

const (
	MovementPurchase   MovementType = "purchase"
	MovementSale       MovementType = "sale"
	MovementAdjustment MovementType = "adjustment"
	MovementReturn     MovementType = "return"
	MovementTransfer   MovementType = "transfer"
	MovementLoss       MovementType = "loss"
	MovementInitial    MovementType = "initial"
)

// NominalSign is advisory metadata for clients. It never changes the delta
// stored in a movement.
type NominalSign string

const (
	SignPositive NominalSign = "positive"
	SignNegative NominalSign = "negative"
	SignEither   NominalSign = "either"
)

type MovementTypeInfo struct {
	Value       MovementType
	Label       string
	Description string
	Sign        NominalSign
}

var movementTypeCatalog = []MovementTypeInfo{
	{Value: MovementPurchase, Label: "Compra", Description: "Compra de stock a proveedor", Sign: SignPositive},
	{Value: MovementSale, Label: "Venta", Description: "Venta de producto", Sign: SignNegative},
	{Value: MovementAdjustment, Label: "Ajuste", Description: "Ajuste manual de inventario", Sign: SignEither},
	{Value: MovementReturn, Label: "Devolución", Description: "Devolución de cliente", Sign: SignPositive},
	{Value: MovementTransfer, Label: "Transferencia", Description: "Transferencia entre ubicaciones", Sign: SignEither},
	{Value: MovementLoss, Label: "Pérdida", Description: "Pérdida o daño de stock", Sign: SignNegative},
	{Value: MovementInitial, Label: "Stock Inicial", Description: "Stock inicial del producto", Sign: SignPositive},
}

// MovementTypes returns the catalog in display order.
func MovementTypes() []MovementTypeInfo {
	out := make([]MovementTypeInfo, len(movementTypeCatalog))
	copy(out, movementTypeCatalog)
	return out
}

func (t MovementType) IsValid() bool {
	for _, info := range movementTypeCatalog {
		if info.Value == t {
			return true
		}
	}
	return false
}

func (t MovementType) Info() (MovementTypeInfo, bool) {
	for _, info := range movementTypeCatalog {
		if info.Value == t {
			return info, true
		}
	}
	return MovementTypeInfo{}, false
}

// Movement dates are stored as DATETIME(6); anything outside this range is
// rejected or silently mangled by the server.
var (
	MinMovementDate = time.Date(1000, 1, 1, 0, 0, 0, 0, time.UTC)
	MaxMovementDate = time.Date(9999, 12, 31, 23, 59, 59, 999999000, time.UTC)
)

// IsStorableDate reports whether t, once converted to UTC and truncated to
// microseconds, fits the movement date column.
func IsStorableDate(t time.Time) bool {
	u := t.UTC().Truncate(time.Microsecond)
	return !u.Before(MinMovementDate) && !u.After(MaxMovementDate)
}

// StockMovement is an immutable ledger entry. Quantity is the signed delta
// that was applied to the product.
type StockMovement struct {
	ID           string
	ProductID    string
	Quantity     int
	MovementType MovementType
	Reason       string
	Date         time.Time
	UserID       *string
	CreatedAt    time.Time
}

// MovementRequest is a caller's request to change stock. Date defaults to now
// when nil.
type MovementRequest struct {
	ProductID    string
	Quantity     int
	MovementType MovementType
	Reason       string
	Date         *time.Time
	UserID       *string
}

type MovementResult struct {
	Movement              StockMovement
	PreviousStockQuantity int
	NewStockQuantity      int
}

// LedgerReport compares a product's stored quantity against the sum of its
// ledger entries.
type LedgerReport struct {
	ProductID     string
	StockQuantity int
	LedgerSum     int
	MovementCount int
}

func (r LedgerReport) Consistent() bool {
	return r.StockQuantity == r.LedgerSum
}
