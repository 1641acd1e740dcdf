package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"repuestos/internal/domain"
	apperrors "repuestos/internal/errors"
)

const (
	idA = "11111111-1111-4111-8111-111111111111"
	idB = "22222222-2222-4222-8222-222222222222"
	idC = "33333333-3333-4333-8333-333333333333"
)

// Mock implementations
type fakeTxRunner struct {
	calls int
}

func (f *fakeTxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	f.calls++
	return fn(ctx, nil)
}

type mockProductRepository struct {
	FindByIDFunc        func(ctx context.Context, id string) (*domain.Product, error)
	FindEquivalentsFunc func(ctx context.Context, id string) ([]domain.Product, error)
	LockExistingFunc    func(ctx context.Context, tx *sql.Tx, ids []string) ([]string, error)
}

func (m *mockProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	return m.FindByIDFunc(ctx, id)
}

func (m *mockProductRepository) FindEquivalents(ctx context.Context, id string) ([]domain.Product, error) {
	return m.FindEquivalentsFunc(ctx, id)
}

func (m *mockProductRepository) LockExisting(ctx context.Context, tx *sql.Tx, ids []string) ([]string, error) {
	return m.LockExistingFunc(ctx, tx, ids)
}

// memoryEdges stores normalized pairs so repeated links behave like the
// unique index in the store.
type memoryEdges struct {
	pairs map[[2]string]bool
}

func newMemoryEdges() *memoryEdges {
	return &memoryEdges{pairs: map[[2]string]bool{}}
}

func (m *memoryEdges) Insert(ctx context.Context, tx *sql.Tx, pair domain.EquivalencePair) (bool, error) {
	key := [2]string{pair.ProductID, pair.EquivalentProductID}
	if m.pairs[key] {
		return false, nil
	}
	m.pairs[key] = true
	return true, nil
}

func (m *memoryEdges) NeighborsOf(ctx context.Context, id string) ([]string, error) {
	var out []string
	for key := range m.pairs {
		switch id {
		case key[0]:
			out = append(out, key[1])
		case key[1]:
			out = append(out, key[0])
		}
	}
	return out, nil
}

type fakeMetrics struct {
	links int
}

func (f *fakeMetrics) AddEquivalenceLinks(n int) { f.links += n }

func allExist(ctx context.Context, tx *sql.Tx, ids []string) ([]string, error) {
	return ids, nil
}

// Unit Tests

func TestLink_CreatesNormalizedPairs(t *testing.T) {
	edges := newMemoryEdges()
	metrics := &fakeMetrics{}
	s := NewGraphService(&fakeTxRunner{}, &mockProductRepository{LockExistingFunc: allExist}, edges, metrics, zap.NewNop())

	result, err := s.Link(context.Background(), idB, []string{idA, idC})

	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 0, result.Existing)
	assert.True(t, edges.pairs[[2]string{idA, idB}])
	assert.True(t, edges.pairs[[2]string{idB, idC}])
	assert.Equal(t, 2, metrics.links)
}

func TestLink_IsIdempotentInBothDirections(t *testing.T) {
	edges := newMemoryEdges()
	s := NewGraphService(&fakeTxRunner{}, &mockProductRepository{LockExistingFunc: allExist}, edges, &fakeMetrics{}, zap.NewNop())

	_, err := s.Link(context.Background(), idA, []string{idB})
	require.NoError(t, err)

	result, err := s.Link(context.Background(), idB, []string{idA})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Existing)
	assert.Len(t, edges.pairs, 1)
}

func TestLink_DropsSelfAndDuplicates(t *testing.T) {
	edges := newMemoryEdges()
	var locked []string
	productRepo := &mockProductRepository{
		LockExistingFunc: func(ctx context.Context, tx *sql.Tx, ids []string) ([]string, error) {
			locked = ids
			return ids, nil
		},
	}
	s := NewGraphService(&fakeTxRunner{}, productRepo, edges, &fakeMetrics{}, zap.NewNop())

	result, err := s.Link(context.Background(), idA, []string{idA, idC, "33333333-3333-4333-8333-333333333333", idB})

	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, []string{idA, idB, idC}, locked)
}

func TestLink_OnlySelfSkipsTransaction(t *testing.T) {
	txRunner := &fakeTxRunner{}
	s := NewGraphService(txRunner, &mockProductRepository{}, newMemoryEdges(), &fakeMetrics{}, zap.NewNop())

	result, err := s.Link(context.Background(), idA, []string{idA})

	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 0, txRunner.calls)
}

func TestLink_MissingProductIsNotFound(t *testing.T) {
	edges := newMemoryEdges()
	productRepo := &mockProductRepository{
		LockExistingFunc: func(ctx context.Context, tx *sql.Tx, ids []string) ([]string, error) {
			return []string{idA}, nil
		},
	}
	s := NewGraphService(&fakeTxRunner{}, productRepo, edges, &fakeMetrics{}, zap.NewNop())

	_, err := s.Link(context.Background(), idA, []string{idB})

	nf, ok := apperrors.IsNotFoundError(err)
	require.True(t, ok, "expected NotFoundError, got %T", err)
	assert.Contains(t, nf.Message, idB)
	assert.Empty(t, edges.pairs)
}

func TestLink_Validation(t *testing.T) {
	s := NewGraphService(&fakeTxRunner{}, &mockProductRepository{}, newMemoryEdges(), &fakeMetrics{}, zap.NewNop())

	_, err := s.Link(context.Background(), "bad", []string{idB})
	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)

	_, err = s.Link(context.Background(), idA, nil)
	_, ok = apperrors.IsValidationError(err)
	assert.True(t, ok)

	_, err = s.Link(context.Background(), idA, []string{idB, "nope"})
	ve, ok := apperrors.IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "equivalentIds[1]", ve.Details[0].Field)
}

func TestEquivalentsOf(t *testing.T) {
	edges := newMemoryEdges()
	edges.pairs[[2]string{idA, idB}] = true
	edges.pairs[[2]string{idB, idC}] = true

	productRepo := &mockProductRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Product, error) {
			return &domain.Product{ID: id}, nil
		},
	}
	s := NewGraphService(&fakeTxRunner{}, productRepo, edges, &fakeMetrics{}, zap.NewNop())

	// Bloque 1: A solo ve a B, sin transitividad
	ids, err := s.EquivalentsOf(context.Background(), idA)
	require.NoError(t, err)
	assert.Equal(t, []string{idB}, ids)

	// Bloque 2: B ve a ambos extremos
	ids, err = s.EquivalentsOf(context.Background(), idB)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{idA, idC}, ids)
}

func TestEquivalentsOf_UnknownProduct(t *testing.T) {
	productRepo := &mockProductRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Product, error) {
			return nil, apperrors.NewNotFoundError("product not found")
		},
	}
	s := NewGraphService(&fakeTxRunner{}, productRepo, newMemoryEdges(), &fakeMetrics{}, zap.NewNop())

	_, err := s.EquivalentsOf(context.Background(), idA)
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestEquivalents_IsolatedProductReturnsEmptySlice(t *testing.T) {
	productRepo := &mockProductRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Product, error) {
			return &domain.Product{ID: id}, nil
		},
		FindEquivalentsFunc: func(ctx context.Context, id string) ([]domain.Product, error) {
			return nil, nil
		},
	}
	s := NewGraphService(&fakeTxRunner{}, productRepo, newMemoryEdges(), &fakeMetrics{}, zap.NewNop())

	products, err := s.Equivalents(context.Background(), idA)
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.NotNil(t, products)
}

func TestEquivalents_ResolvesByNormalizedID(t *testing.T) {
	var asked string
	productRepo := &mockProductRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Product, error) {
			return &domain.Product{ID: id}, nil
		},
		FindEquivalentsFunc: func(ctx context.Context, id string) ([]domain.Product, error) {
			asked = id
			return []domain.Product{{ID: idB, Name: "Filtro Mann"}}, nil
		},
	}
	s := NewGraphService(&fakeTxRunner{}, productRepo, newMemoryEdges(), &fakeMetrics{}, zap.NewNop())

	products, err := s.Equivalents(context.Background(), strings.ToUpper(idA))
	require.NoError(t, err)
	assert.Equal(t, idA, asked)
	require.Len(t, products, 1)
	assert.Equal(t, idB, products[0].ID)
}

func TestEquivalents_UnknownProduct(t *testing.T) {
	productRepo := &mockProductRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Product, error) {
			return nil, apperrors.NewNotFoundError("product not found")
		},
		FindEquivalentsFunc: func(ctx context.Context, id string) ([]domain.Product, error) {
			t.Fatal("equivalents must not be loaded for an unknown product")
			return nil, nil
		},
	}
	s := NewGraphService(&fakeTxRunner{}, productRepo, newMemoryEdges(), &fakeMetrics{}, zap.NewNop())

	_, err := s.Equivalents(context.Background(), idA)
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}
