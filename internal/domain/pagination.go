package domain

type Pagination struct {
	Page            int
	PageSize        int
	Total           int
	TotalPages      int
	HasNextPage     bool
	HasPreviousPage bool
}

// NewPagination builds page metadata for a zero-based page index.
func NewPagination(page, pageSize, total int) Pagination {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return Pagination{
		Page:            page,
		PageSize:        pageSize,
		Total:           total,
		TotalPages:      totalPages,
		HasNextPage:     page+1 < totalPages,
		HasPreviousPage: page > 0,
	}
}

type Page[T any] struct {
	Data       []T
	Pagination Pagination
}

func NewPage[T any](data []T, page, pageSize, total int) Page[T] {
	if data == nil {
		data = []T{}
	}
	return Page[T]{
		Data:       data,
		Pagination: NewPagination(page, pageSize, total),
	}
}
