package repository

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repuestos/internal/domain"
	apperrors "repuestos/internal/errors"
	"repuestos/internal/testutil"
)

// Unit Tests

func TestOrderClause(t *testing.T) {
	clause, err := orderClause(domain.SortByListPrice, domain.SortDesc)
	require.NoError(t, err)
	assert.Contains(t, clause, "p.list_price DESC")
	assert.Contains(t, clause, "p.id")

	_, err = orderClause("name; DROP TABLE products", domain.SortAsc)
	assert.Error(t, err)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "50!%", escapeLike("50%"))
	assert.Equal(t, "a!_b", escapeLike("a_b"))
	assert.Equal(t, "!!x", escapeLike("!x"))
}

func TestInClause(t *testing.T) {
	placeholders, args := inClause([]string{"a", "b", "c"})
	assert.Equal(t, "?, ?, ?", placeholders)
	assert.Len(t, args, 3)
}

func TestSearchQueries_FixedBindCount(t *testing.T) {
	params := domain.DefaultProductListParams()
	params.Page = 3

	countSQL, countArgs, pageSQL, pageArgs, err := searchQueries("Filtro_50%", params)
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(countSQL, "?"))
	assert.Len(t, countArgs, 2)
	assert.Equal(t, 4, strings.Count(pageSQL, "?"))
	require.Len(t, pageArgs, 4)

	assert.Equal(t, "%filtro!_50!%%", countArgs[0])
	assert.Equal(t, params.PageSize, pageArgs[2])
	assert.Equal(t, params.Offset(), pageArgs[3])
	assert.Contains(t, pageSQL, "ORDER BY p.name ASC, p.id ASC")

	_, _, _, _, err = searchQueries("x", domain.ProductListParams{SortBy: "stock; --", SortOrder: domain.SortAsc})
	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)
}

// Integration Tests

func linkProducts(t *testing.T, r *MySQLProductRepository, a, b string) {
	t.Helper()
	pair, _ := domain.NewEquivalencePair(a, b)
	_, err := r.db.Exec(`INSERT INTO product_equivalences (id, product_id, equivalent_product_id) VALUES (?, ?, ?)`,
		uuid.New().String(), pair.ProductID, pair.EquivalentProductID)
	require.NoError(t, err)
}

func TestSearch_MatchesNameOrCodeIgnoringCase(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	testutil.SetupTestTables(t, db)

	ctx := context.Background()
	r := NewMySQLProductRepository(db)
	bosch := testutil.InsertProduct(t, db, "Filtro de aceite BOSCH", "0451103316", 0)
	mann := testutil.InsertProduct(t, db, "Filtro de aceite Mann", "W712/75", 0)
	testutil.InsertProduct(t, db, "Descuento 50% pastillas", "PX-1", 0)
	params := domain.DefaultProductListParams()

	products, total, err := r.Search(ctx, "bosch", params)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, products, 1)
	assert.Equal(t, bosch, products[0].ID)

	products, _, err = r.Search(ctx, "w712", params)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, mann, products[0].ID)

	_, total, err = r.Search(ctx, "0%", params)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestSearch_ExpandsOneHopOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	testutil.SetupTestTables(t, db)

	r := NewMySQLProductRepository(db)
	bosch := testutil.InsertProduct(t, db, "Filtro de aceite Bosch", "0451103316", 0)
	mann := testutil.InsertProduct(t, db, "Elemento Mann", "W712/75", 0)
	fram := testutil.InsertProduct(t, db, "Elemento Fram", "PH5796", 0)
	linkProducts(t, r, bosch, mann)
	linkProducts(t, r, mann, fram)

	products, total, err := r.Search(context.Background(), "bosch", domain.DefaultProductListParams())
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, products, 2)
	assert.Equal(t, "Elemento Mann", products[0].Name)
	assert.Equal(t, "Filtro de aceite Bosch", products[1].Name)
}

func TestSearch_ManyMatchesKeepsTotalAndPage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	testutil.SetupTestTables(t, db)

	// Más coincidencias que parámetros admite una sentencia preparada
	const matches = 70000
	testutil.InsertManyProducts(t, db, "Filtro genérico", matches)

	r := NewMySQLProductRepository(db)
	params := domain.DefaultProductListParams()
	params.Page = 2
	params.PageSize = 5

	products, total, err := r.Search(context.Background(), "genérico", params)
	require.NoError(t, err)
	assert.Equal(t, matches, total)
	assert.Len(t, products, 5)
}

func TestFindEquivalents(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	testutil.SetupTestTables(t, db)

	ctx := context.Background()
	r := NewMySQLProductRepository(db)
	bosch := testutil.InsertProduct(t, db, "Filtro Bosch", "B-1", 0)
	mann := testutil.InsertProduct(t, db, "Filtro Mann", "M-1", 0)
	fram := testutil.InsertProduct(t, db, "Filtro Fram", "F-1", 0)
	linkProducts(t, r, bosch, mann)
	linkProducts(t, r, fram, bosch)

	products, err := r.FindEquivalents(ctx, bosch)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Filtro Fram", products[0].Name)
	assert.Equal(t, "Filtro Mann", products[1].Name)

	products, err = r.FindEquivalents(ctx, uuid.New().String())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestDeleteWithDependents_RemovesMovementsAndEdges(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	testutil.SetupTestTables(t, db)

	ctx := context.Background()
	r := NewMySQLProductRepository(db)
	a := testutil.InsertProduct(t, db, "Filtro Bosch", "B-1", 10)
	b := testutil.InsertProduct(t, db, "Filtro Mann", "M-1", 10)

	// Bloque 1: Preparar dependencias
	_, err := db.Exec(`INSERT INTO stock_movements (id, product_id, quantity, movement_type, reason) VALUES (?, ?, 10, 'initial', 'stock inicial')`,
		uuid.New().String(), a)
	require.NoError(t, err)
	pair, _ := domain.NewEquivalencePair(a, b)
	_, err = db.Exec(`INSERT INTO product_equivalences (id, product_id, equivalent_product_id) VALUES (?, ?, ?)`,
		uuid.New().String(), pair.ProductID, pair.EquivalentProductID)
	require.NoError(t, err)

	// Bloque 2: Borrar
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, r.DeleteWithDependents(ctx, tx, a))
	require.NoError(t, tx.Commit())

	assert.Equal(t, 0, testutil.CountRows(t, db, "products", "id = ?", a))
	assert.Equal(t, 0, testutil.CountRows(t, db, "stock_movements", "product_id = ?", a))
	assert.Equal(t, 0, testutil.CountRows(t, db, "product_equivalences", "1 = 1"))
	assert.Equal(t, 1, testutil.CountRows(t, db, "products", "id = ?", b))

	// Bloque 3: Borrar de nuevo
	tx, err = db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()
	err = r.DeleteWithDependents(ctx, tx, a)
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestList_PagesAndSorts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	testutil.SetupTestTables(t, db)

	r := NewMySQLProductRepository(db)
	testutil.InsertProduct(t, db, "Amortiguador", "A", 5)
	testutil.InsertProduct(t, db, "Bujía", "B", 1)
	testutil.InsertProduct(t, db, "Correa", "C", 9)

	params := domain.DefaultProductListParams()
	params.PageSize = 2
	params.SortBy = domain.SortByStockQuantity
	params.SortOrder = domain.SortDesc

	products, total, err := r.List(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, products, 2)
	assert.Equal(t, "Correa", products[0].Name)
	assert.Equal(t, "Amortiguador", products[1].Name)
}
