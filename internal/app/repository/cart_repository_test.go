package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCartTest(t *testing.T) (*gorm.DB, CartRepository, catalogFixture) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	return testDB, NewCartRepository(testDB), seedCatalog(t, testDB)
}

func TestCartRepository_GetOrCreate(t *testing.T) {
	_, repo, _ := setupCartTest(t)
	ctx := context.Background()

	first, err := repo.GetOrCreate(ctx, "anon:6f1c", nil)
	require.NoError(t, err)
	assert.NotZero(t, first.ID)
	assert.Nil(t, first.UserID)

	second, err := repo.GetOrCreate(ctx, "anon:6f1c", nil)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestCartRepository_GetOrCreate_Concurrent(t *testing.T) {
	testDB, repo, _ := setupCartTest(t)
	ctx := context.Background()
	userID := uint(42)

	var wg sync.WaitGroup
	ids := make([]uint, 8)
	errs := make([]error, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cart, err := repo.GetOrCreate(ctx, "user:42", &userID)
			errs[i] = err
			if err == nil {
				ids[i] = cart.ID
			}
		}(i)
	}
	wg.Wait()

	for i := range ids {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	var count int64
	require.NoError(t, testDB.Model(&model.Cart{}).Where("owner_key = ?", "user:42").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCartRepository_AddQuantity_SumsSameSelection(t *testing.T) {
	_, repo, fx := setupCartTest(t)
	ctx := context.Background()

	cart, err := repo.GetOrCreate(ctx, "anon:a", nil)
	require.NoError(t, err)

	for _, qty := range []int{2, 3} {
		require.NoError(t, repo.AddQuantity(ctx, &model.CartItem{
			CartID:    cart.ID,
			ProductID: fx.product.ID,
			ColorID:   fx.red.ID,
			SizeID:    fx.small.ID,
			Quantity:  qty,
		}))
	}
	require.NoError(t, repo.AddQuantity(ctx, &model.CartItem{
		CartID:    cart.ID,
		ProductID: fx.product.ID,
		ColorID:   fx.blue.ID,
		SizeID:    fx.small.ID,
		Quantity:  1,
	}))

	items, err := repo.FindItems(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, "Red", items[0].Color.Name)
	assert.Equal(t, "S", items[0].Size.Name)
	assert.Equal(t, "Linen Shirt", items[0].Product.Name)
	assert.Equal(t, 1, items[1].Quantity)
}

func TestCartRepository_FindItem_ScopedToCart(t *testing.T) {
	_, repo, fx := setupCartTest(t)
	ctx := context.Background()

	mine, err := repo.GetOrCreate(ctx, "anon:mine", nil)
	require.NoError(t, err)
	theirs, err := repo.GetOrCreate(ctx, "anon:theirs", nil)
	require.NoError(t, err)

	item := &model.CartItem{CartID: theirs.ID, ProductID: fx.product.ID, ColorID: fx.red.ID, SizeID: fx.small.ID, Quantity: 1}
	require.NoError(t, repo.AddQuantity(ctx, item))

	_, err = repo.FindItem(ctx, mine.ID, item.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	found, err := repo.FindItem(ctx, theirs.ID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, found.Quantity)
}

func TestCartRepository_UpdateAndDelete(t *testing.T) {
	_, repo, fx := setupCartTest(t)
	ctx := context.Background()

	cart, err := repo.GetOrCreate(ctx, "anon:b", nil)
	require.NoError(t, err)

	item := &model.CartItem{CartID: cart.ID, ProductID: fx.product.ID, ColorID: fx.red.ID, SizeID: fx.large.ID, Quantity: 1}
	require.NoError(t, repo.AddQuantity(ctx, item))

	require.NoError(t, repo.UpdateItemQuantity(ctx, item.ID, 4))
	found, err := repo.FindItem(ctx, cart.ID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, found.Quantity)

	require.NoError(t, repo.DeleteItem(ctx, item.ID))
	_, err = repo.FindItem(ctx, cart.ID, item.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCartRepository_IdleAnonymousCarts(t *testing.T) {
	testDB, repo, fx := setupCartTest(t)
	ctx := context.Background()
	userID := uint(7)

	stale, err := repo.GetOrCreate(ctx, "anon:stale", nil)
	require.NoError(t, err)
	fresh, err := repo.GetOrCreate(ctx, "anon:fresh", nil)
	require.NoError(t, err)
	owned, err := repo.GetOrCreate(ctx, "user:7", &userID)
	require.NoError(t, err)

	require.NoError(t, repo.AddQuantity(ctx, &model.CartItem{CartID: stale.ID, ProductID: fx.product.ID, ColorID: fx.red.ID, SizeID: fx.small.ID, Quantity: 1}))

	old := time.Now().Add(-60 * 24 * time.Hour)
	require.NoError(t, testDB.Model(&model.Cart{}).Where("id IN ?", []uint{stale.ID, owned.ID}).UpdateColumn("updated_at", old).Error)

	ids, err := repo.FindAnonymousIdleSince(ctx, time.Now().Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []uint{stale.ID}, ids)

	deleted, err := repo.DeleteCarts(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var itemCount int64
	require.NoError(t, testDB.Model(&model.CartItem{}).Where("cart_id = ?", stale.ID).Count(&itemCount).Error)
	assert.Zero(t, itemCount)

	_, err = repo.FindByOwnerKey(ctx, "anon:fresh")
	assert.NoError(t, err)
	assert.NotZero(t, fresh.ID)
}
