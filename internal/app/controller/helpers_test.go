package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/identity"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type controllerEnv struct {
	db       *gorm.DB
	router   *gin.Engine
	carts    service.CartService
	products service.ProductService
	orders   service.OrderService
	address  service.AddressService
	payments service.PaymentService
}

func setupControllerTest(t *testing.T) *controllerEnv {
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

	gin.SetMode(gin.TestMode)

	return &controllerEnv{
		db:       testDB,
		router:   gin.New(),
		carts:    service.NewCartService(testDB, cartRepo, productRepo),
		products: service.NewProductService(testDB, productRepo, categoryRepo, cartRepo),
		orders:   service.NewOrderService(testDB, orderRepo, cartRepo, productRepo, addressRepo, paymentRepo),
		address:  service.NewAddressService(testDB, addressRepo),
		payments: service.NewPaymentService(testDB, paymentRepo),
	}
}

// asUser stands in for the auth middleware
func asUser(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	}
}

// asCartOwner stands in for the cart identity middleware
func asCartOwner(owner identity.OwnerKey) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.CartOwnerKey, owner)
		c.Next()
	}
}

func (e *controllerEnv) createUser(t *testing.T, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, Name: "Test User", Role: model.RoleUser}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

// createShirt creates a 200000 product with colors Red, Blue and sizes S, L
func (e *controllerEnv) createShirt(t *testing.T) *model.Product {
	t.Helper()
	category, err := e.products.CreateCategory(context.Background(), service.CategoryInput{Name: "Tops"})
	require.NoError(t, err)

	product, err := e.products.CreateProduct(context.Background(), service.ProductInput{
		Name:       "Linen Shirt",
		Price:      decimal.NewFromInt(200000),
		Stock:      10,
		CategoryID: category.ID,
		Colors:     []service.ColorInput{{Name: "Red"}, {Name: "Blue"}},
		Sizes:      []service.SizeInput{{Name: "S"}, {Name: "L"}},
	})
	require.NoError(t, err)
	return product
}

func (e *controllerEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}
