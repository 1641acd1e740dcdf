package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"repuestos/internal/domain"
	"repuestos/internal/equivalence/repository"
	apperrors "repuestos/internal/errors"
	"repuestos/internal/infrastructure/mysql"
	productrepo "repuestos/internal/product/repository"
	"repuestos/internal/testutil"
)

// Integration Tests

func TestGraphIntegration_LinkIsSymmetricAndIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	testutil.SetupTestTables(t, db)

	ctx := context.Background()
	edges := repository.NewMySQLEquivalenceRepository(db)
	s := NewGraphService(
		mysql.NewTxRunner(db, 5*time.Second),
		productrepo.NewMySQLProductRepository(db),
		edges,
		&fakeMetrics{},
		zap.NewNop(),
	)

	a := testutil.InsertProduct(t, db, "Filtro de aceite Bosch", "0451103316", 5)
	b := testutil.InsertProduct(t, db, "Filtro de aceite Mann", "W712/75", 3)
	c := testutil.InsertProduct(t, db, "Filtro de aceite Fram", "PH5796", 1)

	// Bloque 1: A con B dos veces y luego en sentido inverso
	result, err := s.Link(ctx, a, []string{b})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)

	result, err = s.Link(ctx, a, []string{b, a})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Existing)

	result, err = s.Link(ctx, b, []string{a, c})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Existing)

	n, err := edges.CountEdges(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Bloque 2: vecinos a un salto
	ids, err := s.EquivalentsOf(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []string{b}, ids)

	products, err := s.Equivalents(ctx, b)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Filtro de aceite Bosch", products[0].Name)
	assert.Equal(t, "Filtro de aceite Fram", products[1].Name)
}

func TestGraphIntegration_MissingProductRollsBack(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	testutil.SetupTestTables(t, db)

	s := NewGraphService(
		mysql.NewTxRunner(db, 5*time.Second),
		productrepo.NewMySQLProductRepository(db),
		repository.NewMySQLEquivalenceRepository(db),
		&fakeMetrics{},
		zap.NewNop(),
	)

	a := testutil.InsertProduct(t, db, "Correa de distribución", "CT-1", 2)
	b := testutil.InsertProduct(t, db, "Correa Gates", "GT-1", 2)

	_, err := s.Link(context.Background(), a, []string{b, domain.NewID()})

	_, ok := apperrors.IsNotFoundError(err)
	require.True(t, ok, "expected NotFoundError, got %v", err)
	assert.Equal(t, 0, testutil.CountRows(t, db, "product_equivalences", "1 = 1"))
}
