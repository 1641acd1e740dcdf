package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"repuestos/internal/domain"
)

type CreateProductRequest struct {
	Name           string          `json:"name" validate:"required,max=255"`
	Code           *string         `json:"code,omitempty" validate:"omitempty,max=100"`
	BrandID        *string         `json:"brandId,omitempty" validate:"omitempty,uuid"`
	CategoryID     *string         `json:"categoryId,omitempty" validate:"omitempty,uuid"`
	Dimensions     *string         `json:"dimensions,omitempty" validate:"omitempty,max=255"`
	Notes          *string         `json:"notes,omitempty"`
	ListPrice      decimal.Decimal `json:"listPrice"`
	InstalledPrice decimal.Decimal `json:"installedPrice"`
	StockQuantity  int             `json:"stockQuantity" validate:"gte=0,max=2147483647"`
	UserID         *string         `json:"userId,omitempty" validate:"omitempty,uuid"`
}

type UpdateProductRequest struct {
	Name             string          `json:"name" validate:"required,max=255"`
	Code             *string         `json:"code,omitempty" validate:"omitempty,max=100"`
	BrandID          *string         `json:"brandId,omitempty" validate:"omitempty,uuid"`
	CategoryID       *string         `json:"categoryId,omitempty" validate:"omitempty,uuid"`
	Dimensions       *string         `json:"dimensions,omitempty" validate:"omitempty,max=255"`
	Notes            *string         `json:"notes,omitempty"`
	ListPrice        decimal.Decimal `json:"listPrice"`
	InstalledPrice   decimal.Decimal `json:"installedPrice"`
	StockQuantity    *int            `json:"stockQuantity,omitempty" validate:"omitempty,gte=0,max=2147483647"`
	AdjustmentReason string          `json:"adjustmentReason,omitempty" validate:"max=500"`
	UserID           *string         `json:"userId,omitempty" validate:"omitempty,uuid"`
}

type ProductResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Code           *string         `json:"code"`
	BrandID        *string         `json:"brandId"`
	BrandName      *string         `json:"brandName"`
	CategoryID     *string         `json:"categoryId"`
	CategoryName   *string         `json:"categoryName"`
	Dimensions     *string         `json:"dimensions"`
	Notes          *string         `json:"notes"`
	ListPrice      decimal.Decimal `json:"listPrice"`
	InstalledPrice decimal.Decimal `json:"installedPrice"`
	StockQuantity  int             `json:"stockQuantity"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

type PaginationResponse struct {
	Page            int  `json:"page"`
	PageSize        int  `json:"pageSize"`
	Total           int  `json:"total"`
	TotalPages      int  `json:"totalPages"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

type ProductPageResponse struct {
	Data       []ProductResponse  `json:"data"`
	Pagination PaginationResponse `json:"pagination"`
}

type UpdateProductResponse struct {
	Product    ProductResponse         `json:"product"`
	Adjustment *RecordMovementResponse `json:"adjustment,omitempty"`
}

type DeleteProductResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func NewProductResponse(p domain.Product) ProductResponse {
	return ProductResponse{
		ID:             p.ID,
		Name:           p.Name,
		Code:           p.Code,
		BrandID:        p.BrandID,
		BrandName:      p.BrandName,
		CategoryID:     p.CategoryID,
		CategoryName:   p.CategoryName,
		Dimensions:     p.Dimensions,
		Notes:          p.Notes,
		ListPrice:      p.ListPrice,
		InstalledPrice: p.InstalledPrice,
		StockQuantity:  p.StockQuantity,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func NewProductResponses(products []domain.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = NewProductResponse(p)
	}
	return out
}

func NewPaginationResponse(p domain.Pagination) PaginationResponse {
	return PaginationResponse{
		Page:            p.Page,
		PageSize:        p.PageSize,
		Total:           p.Total,
		TotalPages:      p.TotalPages,
		HasNextPage:     p.HasNextPage,
		HasPreviousPage: p.HasPreviousPage,
	}
}

func NewProductPageResponse(page domain.Page[domain.Product]) ProductPageResponse {
	return ProductPageResponse{
		Data:       NewProductResponses(page.Data),
		Pagination: NewPaginationResponse(page.Pagination),
	}
}
