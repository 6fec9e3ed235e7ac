package service

import (
	"context"
	"testing"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db       *gorm.DB
	carts    CartService
	products ProductService
	orders   OrderService
	address  AddressService
	payments PaymentService
}

func setupServiceTest(t *testing.T) *testEnv {
	t.Helper()

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	cartRepo := repository.NewCartRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	categoryRepo := repository.NewCategoryRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)
	addressRepo := repository.NewAddressRepository(testDB)
	paymentRepo := repository.NewPaymentRepository(testDB)

	return &testEnv{
		db:       testDB,
		carts:    NewCartService(testDB, cartRepo, productRepo),
		products: NewProductService(testDB, productRepo, categoryRepo, cartRepo),
		orders:   NewOrderService(testDB, orderRepo, cartRepo, productRepo, addressRepo, paymentRepo),
		address:  NewAddressService(testDB, addressRepo),
		payments: NewPaymentService(testDB, paymentRepo),
	}
}

func (e *testEnv) createUser(t *testing.T, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, Name: "Test User", Role: model.RoleUser}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createCategory(t *testing.T, slug string) *model.Category {
	t.Helper()
	category := &model.Category{Name: slug, Slug: slug}
	require.NoError(t, e.db.Create(category).Error)
	return category
}

// shirtInput is a product with colors Red, Blue and sizes S, L
func shirtInput(categoryID uint) ProductInput {
	return ProductInput{
		Name:       "Linen Shirt",
		Price:      decimal.NewFromInt(200000),
		Stock:      10,
		CategoryID: categoryID,
		Colors:     []ColorInput{{Name: "Red", Code: "#FF0000"}, {Name: "Blue", Code: "#0000FF"}},
		Sizes:      []SizeInput{{Name: "S"}, {Name: "L"}},
	}
}

func (e *testEnv) createShirt(t *testing.T) *model.Product {
	t.Helper()
	category := e.createCategory(t, "tops")
	product, err := e.products.CreateProduct(context.Background(), shirtInput(category.ID))
	require.NoError(t, err)
	require.Len(t, product.Colors, 2)
	require.Len(t, product.Sizes, 2)
	return product
}

func colorNames(colors []model.Color) []string {
	names := make([]string, 0, len(colors))
	for _, c := range colors {
		names = append(names, c.Name)
	}
	return names
}

func boolPtr(b bool) *bool { return &b }

func uintPtr(u uint) *uint { return &u }
