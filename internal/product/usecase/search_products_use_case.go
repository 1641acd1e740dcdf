package usecase

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"repuestos/internal/domain"
)

var tracer = otel.Tracer("repuestos/product")

type ProductRepository interface {
	List(ctx context.Context, params domain.ProductListParams) ([]domain.Product, int, error)
	Search(ctx context.Context, term string, params domain.ProductListParams) ([]domain.Product, int, error)
}

type MetricsRecorder interface {
	ObserveSearch(expanded bool, d time.Duration, total int)
}

type SearchUseCase struct {
	productRepo ProductRepository
	metrics     MetricsRecorder
	logger      *zap.Logger
}

func NewSearchUseCase(productRepo ProductRepository, metrics MetricsRecorder, logger *zap.Logger) *SearchUseCase {
	return &SearchUseCase{
		productRepo: productRepo,
		metrics:     metrics,
		logger:      logger,
	}
}

// List pages the catalog. With a search term the direct matches are widened by
// one equivalence hop before paging; total counts the widened set.
func (uc *SearchUseCase) List(ctx context.Context, params domain.ProductListParams) (*domain.Page[domain.Product], error) {
	term := params.SearchTerm()
	ctx, span := tracer.Start(ctx, "catalog.List",
		trace.WithAttributes(
			attribute.String("search", term),
			attribute.String("sort_by", string(params.SortBy)),
			attribute.Int("page", params.Page),
			attribute.Int("page_size", params.PageSize),
		),
	)
	defer span.End()

	if err := params.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	start := time.Now()
	var (
		page *domain.Page[domain.Product]
		err  error
	)
	if term == "" {
		page, err = uc.listAll(ctx, params)
	} else {
		page, err = uc.search(ctx, term, params)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		uc.logger.Error("catalog listing failed", zap.String("search", term), zap.Error(err))
		return nil, err
	}

	uc.metrics.ObserveSearch(term != "", time.Since(start), page.Pagination.Total)
	span.SetAttributes(attribute.Int("total", page.Pagination.Total))

	return page, nil
}

func (uc *SearchUseCase) listAll(ctx context.Context, params domain.ProductListParams) (*domain.Page[domain.Product], error) {
	products, total, err := uc.productRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	page := domain.NewPage(products, params.Page, params.PageSize, total)
	return &page, nil
}

// search leaves matching and the one hop expansion to the store so the
// statement size does not depend on how many products match.
func (uc *SearchUseCase) search(ctx context.Context, term string, params domain.ProductListParams) (*domain.Page[domain.Product], error) {
	products, total, err := uc.productRepo.Search(ctx, term, params)
	if err != nil {
		return nil, err
	}

	uc.logger.Debug("search expanded", zap.String("search", term), zap.Int("expanded", total))

	page := domain.NewPage(products, params.Page, params.PageSize, total)
	return &page, nil
}
