package catalog

import (
	"bytes"
	"context"
	"testing"

	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func setupCatalogTest(t *testing.T) service.ProductService {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	return service.NewProductService(
		testDB,
		repository.NewProductRepository(testDB),
		repository.NewCategoryRepository(testDB),
		repository.NewCartRepository(testDB),
	)
}

func workbook(t *testing.T, rows ...[]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return &buf
}

func TestRead(t *testing.T) {
	buf := workbook(t,
		[]interface{}{"tops", "Linen Shirt", "breathable", "200000", "150000", "10", "Red=#FF0000, Blue", "S, M, L", ""},
		[]interface{}{"", "", "", "", "", "", "", "", ""},
		[]interface{}{"bottoms", "Chino", "", "350000", "", "", "", "", ""},
	)

	rows, err := Read(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	shirt := rows[0]
	assert.Equal(t, 2, shirt.Line)
	assert.Equal(t, "tops", shirt.Category)
	assert.True(t, decimal.NewFromInt(200000).Equal(shirt.Price))
	require.NotNil(t, shirt.SalePrice)
	assert.True(t, decimal.NewFromInt(150000).Equal(*shirt.SalePrice))
	assert.Equal(t, 10, shirt.Stock)
	assert.Equal(t, []Color{{Name: "Red", Code: "#FF0000"}, {Name: "Blue"}}, shirt.Colors)
	assert.Equal(t, []string{"S", "M", "L"}, shirt.Sizes)

	chino := rows[1]
	assert.Nil(t, chino.SalePrice)
	assert.Empty(t, chino.Colors)
}

func TestRead_MalformedRow(t *testing.T) {
	buf := workbook(t,
		[]interface{}{"tops", "Linen Shirt", "", "200000", "", "10", "", "", ""},
		[]interface{}{"tops", "Broken", "", "cheap", "", "1", "", "", ""},
	)

	_, err := Read(buf)
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 3, rowErr.Line)
	assert.Contains(t, err.Error(), "invalid price")
}

func TestImportAndExport(t *testing.T) {
	products := setupCatalogTest(t)
	ctx := context.Background()

	rows, err := Read(workbook(t,
		[]interface{}{"tops", "Linen Shirt", "", "200000", "150000", "10", "Red=#FF0000, Blue", "S, L", ""},
		[]interface{}{"tops", "Oxford Shirt", "", "250000", "", "5", "White", "M", ""},
		[]interface{}{"bottoms", "Chino", "", "350000", "", "3", "Khaki", "30, 32", ""},
	))
	require.NoError(t, err)

	result, err := Import(ctx, products, rows)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Created)
	assert.Equal(t, 2, result.Categories)

	exported, err := Export(ctx, products)
	require.NoError(t, err)
	require.Len(t, exported, 3)
	assert.Equal(t, "Linen Shirt", exported[0].Name)
	require.NotNil(t, exported[0].Category)
	assert.Equal(t, "tops", exported[0].Category.Slug)
	require.Len(t, exported[0].Colors, 2)
	assert.Equal(t, "#FF0000", exported[0].Colors[0].Code)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, exported))

	reread, err := Read(&buf)
	require.NoError(t, err)
	require.Len(t, reread, 3)
	assert.Equal(t, rows[0].Colors, reread[0].Colors)
	assert.Equal(t, rows[2].Sizes, reread[2].Sizes)
	assert.True(t, rows[0].SalePrice.Equal(*reread[0].SalePrice))
}

func TestImport_StopsAtInvalidProduct(t *testing.T) {
	products := setupCatalogTest(t)
	ctx := context.Background()

	sale := decimal.NewFromInt(500)
	rows := []Row{
		{Line: 2, Category: "tops", Name: "Tee", Price: decimal.NewFromInt(100)},
		{Line: 3, Category: "tops", Name: "Bad Sale", Price: decimal.NewFromInt(100), SalePrice: &sale},
		{Line: 4, Category: "tops", Name: "Never", Price: decimal.NewFromInt(100)},
	}

	result, err := Import(ctx, products, rows)
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 3, rowErr.Line)
	assert.ErrorIs(t, err, service.ErrInvalidSalePrice)
	assert.Equal(t, 1, result.Created)
}
