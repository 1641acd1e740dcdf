package dto

import (
	"time"

	"repuestos/internal/domain"
)

type RecordMovementRequest struct {
	Quantity     int        `json:"quantity" validate:"required,min=-2147483647,max=2147483647"`
	MovementType string     `json:"movementType" validate:"required,oneof=purchase sale adjustment return transfer loss initial"`
	Reason       string     `json:"reason" validate:"required,max=500"`
	Date         *time.Time `json:"date,omitempty"`
	UserID       *string    `json:"userId,omitempty" validate:"omitempty,uuid"`
}

type MovementResponse struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"productId"`
	Quantity     int       `json:"quantity"`
	MovementType string    `json:"movementType"`
	Reason       string    `json:"reason"`
	Date         time.Time `json:"date"`
	UserID       *string   `json:"userId"`
}

type RecordMovementResponse struct {
	Movement              MovementResponse `json:"movement"`
	PreviousStockQuantity int              `json:"previousStockQuantity"`
	NewStockQuantity      int              `json:"newStockQuantity"`
}

type ProductSummaryResponse struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Code *string `json:"code"`
}

type MovementHistoryResponse struct {
	Product    ProductSummaryResponse `json:"product"`
	Data       []MovementResponse     `json:"data"`
	Pagination PaginationResponse     `json:"pagination"`
}

type MovementTypeResponse struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description"`
	NominalSign string `json:"nominalSign"`
	IsPositive  *bool  `json:"isPositive"`
}

type ReconciliationResponse struct {
	ProductID     string `json:"productId"`
	StockQuantity int    `json:"stockQuantity"`
	LedgerSum     int    `json:"ledgerSum"`
	MovementCount int    `json:"movementCount"`
	Consistent    bool   `json:"consistent"`
}

func NewMovementResponse(m domain.StockMovement) MovementResponse {
	return MovementResponse{
		ID:           m.ID,
		ProductID:    m.ProductID,
		Quantity:     m.Quantity,
		MovementType: string(m.MovementType),
		Reason:       m.Reason,
		Date:         m.Date,
		UserID:       m.UserID,
	}
}

func NewRecordMovementResponse(r domain.MovementResult) RecordMovementResponse {
	return RecordMovementResponse{
		Movement:              NewMovementResponse(r.Movement),
		PreviousStockQuantity: r.PreviousStockQuantity,
		NewStockQuantity:      r.NewStockQuantity,
	}
}

func NewMovementHistoryResponse(product domain.ProductSummary, page domain.Page[domain.StockMovement]) MovementHistoryResponse {
	data := make([]MovementResponse, len(page.Data))
	for i, m := range page.Data {
		data[i] = NewMovementResponse(m)
	}
	return MovementHistoryResponse{
		Product: ProductSummaryResponse{
			ID:   product.ID,
			Name: product.Name,
			Code: product.Code,
		},
		Data:       data,
		Pagination: NewPaginationResponse(page.Pagination),
	}
}

func NewMovementTypeResponses(types []domain.MovementTypeInfo) []MovementTypeResponse {
	out := make([]MovementTypeResponse, len(types))
	for i, t := range types {
		var positive *bool
		switch t.Sign {
		case domain.SignPositive:
			v := true
			positive = &v
		case domain.SignNegative:
			v := false
			positive = &v
		}
		out[i] = MovementTypeResponse{
			Value:       string(t.Value),
			Label:       t.Label,
			Description: t.Description,
			NominalSign: string(t.Sign),
			IsPositive:  positive,
		}
	}
	return out
}

func NewReconciliationResponse(r domain.LedgerReport) ReconciliationResponse {
	return ReconciliationResponse{
		ProductID:     r.ProductID,
		StockQuantity: r.StockQuantity,
		LedgerSum:     r.LedgerSum,
		MovementCount: r.MovementCount,
		Consistent:    r.Consistent(),
	}
}
