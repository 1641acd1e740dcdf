package domain

import (
	"strings"
	"time"

	apperrors "repuestos/internal/errors"
)

const (
	DefaultProductPageSize  = 10
	DefaultMovementPageSize = 20
	MaxPageSize             = 100
)

type SortField string

const (
	SortByName           SortField = "name"
	SortByCode           SortField = "code"
	SortByStockQuantity  SortField = "stockQuantity"
	SortByListPrice      SortField = "listPrice"
	SortByInstalledPrice SortField = "installedPrice"
)

func (f SortField) IsValid() bool {
	switch f {
	case SortByName, SortByCode, SortByStockQuantity, SortByListPrice, SortByInstalledPrice:
		return true
	}
	return false
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

func (o SortOrder) IsValid() bool {
	return o == SortAsc || o == SortDesc
}

// ProductListParams drives catalog search. Page is zero-based.
type ProductListParams struct {
	Page      int
	PageSize  int
	SortBy    SortField
	SortOrder SortOrder
	Search    string
}

func DefaultProductListParams() ProductListParams {
	return ProductListParams{
		Page:      0,
		PageSize:  DefaultProductPageSize,
		SortBy:    SortByName,
		SortOrder: SortAsc,
	}
}

// SearchTerm returns the trimmed search text, empty when no search applies.
func (p ProductListParams) SearchTerm() string {
	return strings.TrimSpace(p.Search)
}

func (p ProductListParams) Offset() int {
	return p.Page * p.PageSize
}

func (p ProductListParams) Validate() error {
	details := validatePaging(p.Page, p.PageSize)

	if !p.SortBy.IsValid() {
		details = append(details, apperrors.ValidationDetail{
			Field:   "sortBy",
			Message: "sortBy must be one of name, code, stockQuantity, listPrice, installedPrice",
		})
	}

	if !p.SortOrder.IsValid() {
		details = append(details, apperrors.ValidationDetail{
			Field:   "sortOrder",
			Message: "sortOrder must be asc or desc",
		})
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("invalid list parameters", details...)
	}
	return nil
}

// MovementListParams drives ledger history queries. Date bounds are inclusive.
type MovementListParams struct {
	ProductID    string
	Page         int
	PageSize     int
	StartDate    *time.Time
	EndDate      *time.Time
	MovementType *MovementType
}

func DefaultMovementListParams(productID string) MovementListParams {
	return MovementListParams{
		ProductID: productID,
		Page:      0,
		PageSize:  DefaultMovementPageSize,
	}
}

func (p MovementListParams) Offset() int {
	return p.Page * p.PageSize
}

func (p MovementListParams) Validate() error {
	var details []apperrors.ValidationDetail

	if !IsValidID(p.ProductID) {
		details = append(details, apperrors.ValidationDetail{
			Field:   "productId",
			Message: "productId must be a valid UUID",
		})
	}

	details = append(details, validatePaging(p.Page, p.PageSize)...)

	if p.StartDate != nil && !IsStorableDate(*p.StartDate) {
		details = append(details, apperrors.ValidationDetail{
			Field:   "startDate",
			Message: "startDate must be between years 1000 and 9999",
		})
	}
	if p.EndDate != nil && !IsStorableDate(*p.EndDate) {
		details = append(details, apperrors.ValidationDetail{
			Field:   "endDate",
			Message: "endDate must be between years 1000 and 9999",
		})
	}

	if p.StartDate != nil && p.EndDate != nil && p.StartDate.After(*p.EndDate) {
		details = append(details, apperrors.ValidationDetail{
			Field:   "startDate",
			Message: "startDate must not be after endDate",
		})
	}

	if p.MovementType != nil && !p.MovementType.IsValid() {
		details = append(details, apperrors.ValidationDetail{
			Field:   "movementType",
			Message: "movementType is not a known movement type",
		})
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("invalid movement query", details...)
	}
	return nil
}

func validatePaging(page, pageSize int) []apperrors.ValidationDetail {
	var details []apperrors.ValidationDetail
	if page < 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "page",
			Message: "page must be zero or greater",
		})
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		details = append(details, apperrors.ValidationDetail{
			Field:   "pageSize",
			Message: "pageSize must be between 1 and 100",
		})
	}
	return details
}
