package repository

import (
	"context"
	"testing"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupOrderTest(t *testing.T) (OrderRepository, catalogFixture) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	return NewOrderRepository(testDB), seedCatalog(t, testDB)
}

func TestOrderRepository_CreateWithItems(t *testing.T) {
	repo, fx := setupOrderTest(t)
	ctx := context.Background()

	order := &model.Order{
		UserID: 1,
		Status: model.OrderStatusPending,
		Total:  decimal.NewFromInt(400000),
		Items: []model.OrderItem{
			{
				ProductID:   fx.product.ID,
				ColorID:     fx.red.ID,
				SizeID:      fx.small.ID,
				ProductName: fx.product.Name,
				ColorName:   "Red",
				SizeName:    "S",
				Quantity:    2,
				Price:       decimal.NewFromInt(200000),
			},
		},
	}
	require.NoError(t, repo.Create(ctx, order))
	assert.NotZero(t, order.ID)

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, 2, found.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(400000).Equal(found.Total))
}

func TestOrderRepository_FindByUserID(t *testing.T) {
	repo, _ := setupOrderTest(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.Order{UserID: 1, Total: decimal.NewFromInt(1)}))
	require.NoError(t, repo.Create(ctx, &model.Order{UserID: 1, Total: decimal.NewFromInt(2)}))
	require.NoError(t, repo.Create(ctx, &model.Order{UserID: 2, Total: decimal.NewFromInt(3)}))

	orders, err := repo.FindByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	repo, _ := setupOrderTest(t)
	ctx := context.Background()

	order := &model.Order{UserID: 1, Status: model.OrderStatusPending, Total: decimal.NewFromInt(1)}
	require.NoError(t, repo.Create(ctx, order))

	require.NoError(t, repo.UpdateStatus(ctx, order.ID, model.OrderStatusShipping))
	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipping, found.Status)

	err = repo.UpdateStatus(ctx, 9999, model.OrderStatusShipping)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
