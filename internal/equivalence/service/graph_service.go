package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"repuestos/internal/domain"
	apperrors "repuestos/internal/errors"
)

const maxLinkBatch = 100

var tracer = otel.Tracer("repuestos/equivalence")

type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error
}

type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	FindEquivalents(ctx context.Context, id string) ([]domain.Product, error)
	LockExisting(ctx context.Context, tx *sql.Tx, ids []string) ([]string, error)
}

type EquivalenceRepository interface {
	Insert(ctx context.Context, tx *sql.Tx, pair domain.EquivalencePair) (bool, error)
	NeighborsOf(ctx context.Context, id string) ([]string, error)
}

type MetricsRecorder interface {
	AddEquivalenceLinks(n int)
}

type LinkResult struct {
	ProductID string
	Created   int
	Existing  int
}

type GraphService struct {
	txRunner        TxRunner
	productRepo     ProductRepository
	equivalenceRepo EquivalenceRepository
	metrics         MetricsRecorder
	logger          *zap.Logger
}

func NewGraphService(
	txRunner TxRunner,
	productRepo ProductRepository,
	equivalenceRepo EquivalenceRepository,
	metrics MetricsRecorder,
	logger *zap.Logger,
) *GraphService {
	return &GraphService{
		txRunner:        txRunner,
		productRepo:     productRepo,
		equivalenceRepo: equivalenceRepo,
		metrics:         metrics,
		logger:          logger,
	}
}

// Link connects productID with each candidate. Self references are dropped and
// pairs that already exist in either orientation are skipped.
func (s *GraphService) Link(ctx context.Context, productID string, equivalentIDs []string) (*LinkResult, error) {
	ctx, span := tracer.Start(ctx, "equivalence.Link",
		trace.WithAttributes(
			attribute.String("product.id", productID),
			attribute.Int("candidates", len(equivalentIDs)),
		),
	)
	defer span.End()

	// Bloque 1: Validar y normalizar candidatos
	id, candidates, err := normalizeLinkInput(productID, equivalentIDs)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	result := &LinkResult{ProductID: id}
	if len(candidates) == 0 {
		return result, nil
	}

	// Bloque 2: Verificar existencia e insertar aristas
	err = s.txRunner.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		all := append([]string{id}, candidates...)
		found, err := s.productRepo.LockExisting(ctx, tx, all)
		if err != nil {
			return err
		}
		if missing := difference(all, found); len(missing) > 0 {
			return apperrors.NewNotFoundError(fmt.Sprintf("products not found: %s", strings.Join(missing, ", ")))
		}

		for _, candidate := range candidates {
			pair, _ := domain.NewEquivalencePair(id, candidate)
			pair.ID = domain.NewID()

			created, err := s.equivalenceRepo.Insert(ctx, tx, pair)
			if err != nil {
				return err
			}
			if created {
				result.Created++
			} else {
				result.Existing++
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("equivalence link failed", zap.String("productId", id), zap.Error(err))
		return nil, err
	}

	s.metrics.AddEquivalenceLinks(result.Created)
	s.logger.Info("equivalences linked",
		zap.String("productId", id),
		zap.Int("created", result.Created),
		zap.Int("existing", result.Existing),
	)

	return result, nil
}

// EquivalentsOf returns the ids one edge away from productID. It is not
// transitive.
func (s *GraphService) EquivalentsOf(ctx context.Context, productID string) ([]string, error) {
	id, ok := domain.NormalizeID(productID)
	if !ok {
		return nil, invalidProductID()
	}

	if _, err := s.productRepo.FindByID(ctx, id); err != nil {
		return nil, err
	}

	neighbors, err := s.equivalenceRepo.NeighborsOf(ctx, id)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(neighbors))
	for _, n := range neighbors {
		if n != id {
			out = append(out, n)
		}
	}
	return out, nil
}

// Equivalents resolves the one hop neighbors of productID to products,
// ordered by name.
func (s *GraphService) Equivalents(ctx context.Context, productID string) ([]domain.Product, error) {
	id, ok := domain.NormalizeID(productID)
	if !ok {
		return nil, invalidProductID()
	}

	if _, err := s.productRepo.FindByID(ctx, id); err != nil {
		return nil, err
	}

	products, err := s.productRepo.FindEquivalents(ctx, id)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

func normalizeLinkInput(productID string, equivalentIDs []string) (string, []string, error) {
	var details []apperrors.ValidationDetail

	id, ok := domain.NormalizeID(productID)
	if !ok {
		details = append(details, apperrors.ValidationDetail{Field: "productId", Message: "productId must be a valid UUID"})
	}

	if len(equivalentIDs) == 0 {
		details = append(details, apperrors.ValidationDetail{Field: "equivalentIds", Message: "equivalentIds must not be empty"})
	}
	if len(equivalentIDs) > maxLinkBatch {
		details = append(details, apperrors.ValidationDetail{Field: "equivalentIds", Message: "equivalentIds exceeds maximum of 100"})
	}

	seen := make(map[string]bool, len(equivalentIDs))
	var candidates []string
	for i, raw := range equivalentIDs {
		candidate, ok := domain.NormalizeID(raw)
		if !ok {
			details = append(details, apperrors.ValidationDetail{
				Field:   fmt.Sprintf("equivalentIds[%d]", i),
				Message: "each id must be a valid UUID",
			})
			continue
		}
		if candidate == id || seen[candidate] {
			continue
		}
		seen[candidate] = true
		candidates = append(candidates, candidate)
	}

	if len(details) > 0 {
		return "", nil, apperrors.NewValidationError("invalid equivalence link", details...)
	}

	// Fixed insertion order keeps lock acquisition consistent across requests.
	sort.Strings(candidates)
	return id, candidates, nil
}

func difference(want, found []string) []string {
	have := make(map[string]bool, len(found))
	for _, id := range found {
		have[id] = true
	}
	var missing []string
	for _, id := range want {
		if !have[id] {
			missing = append(missing, id)
		}
	}
	return missing
}

func invalidProductID() error {
	return apperrors.NewValidationError("invalid product id", apperrors.ValidationDetail{
		Field:   "productId",
		Message: "productId must be a valid UUID",
	})
}
