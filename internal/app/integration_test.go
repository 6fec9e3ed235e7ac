package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/controller"
	"github.com/ikkim/storefront-backend/internal/app/identity"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/internal/router"
	"github.com/ikkim/storefront-backend/pkg/util"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testJWTSecret = "integration-test-secret"

// memoryTokens is an in-process revocation store
type memoryTokens struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func (m *memoryTokens) Revoke(_ context.Context, token string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[token] = true
	return nil
}

func (m *memoryTokens) IsRevoked(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revoked[token], nil
}

type testServer struct {
	t       *testing.T
	db      *gorm.DB
	handler http.Handler
	cfg     *config.Config
}

func setupIntegrationTest(t *testing.T) *testServer {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	cfg := &config.Config{
		Server: config.ServerConfig{GinMode: "test"},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Cart: config.CartConfig{
			TokenCookieName: "cart_token",
			TokenTTL:        24 * time.Hour,
			CookiePath:      "/",
		},
	}

	cartRepo := repository.NewCartRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	categoryRepo := repository.NewCategoryRepository(testDB)

	cartService := service.NewCartService(testDB, cartRepo, productRepo)
	productService := service.NewProductService(testDB, productRepo, categoryRepo, cartRepo)
	orderService := service.NewOrderService(testDB, repository.NewOrderRepository(testDB), cartRepo, productRepo,
		repository.NewAddressRepository(testDB), repository.NewPaymentRepository(testDB))
	addressService := service.NewAddressService(testDB, repository.NewAddressRepository(testDB))
	paymentService := service.NewPaymentService(testDB, repository.NewPaymentRepository(testDB))

	tokens := &memoryTokens{revoked: map[string]bool{}}

	r := router.NewRouter(
		controller.NewAuthController(tokens),
		controller.NewProductController(productService),
		controller.NewCartController(cartService),
		controller.NewOrderController(orderService),
		controller.NewAddressController(addressService),
		controller.NewPaymentController(paymentService),
		middleware.NewAuthMiddleware(testJWTSecret, tokens),
		middleware.NewCartIdentityMiddleware(identity.NewResolver(), cartService, cfg.Cart),
		cfg,
	)

	return &testServer{t: t, db: testDB, handler: r.Setup(), cfg: cfg}
}

func (s *testServer) createUser(email string, role model.UserRole) (*model.User, string) {
	user := &model.User{Email: email, Name: "Shopper", Role: role}
	require.NoError(s.t, s.db.Create(user).Error)

	tokens, err := util.GenerateTokenPair(user.ID, user.Email, string(role), testJWTSecret, 15*time.Minute, time.Hour)
	require.NoError(s.t, err)
	return user, tokens.AccessToken
}

type call struct {
	method string
	path   string
	body   interface{}
	token  string
	cookie *http.Cookie
}

func (s *testServer) do(c call) *httptest.ResponseRecorder {
	s.t.Helper()

	var buf bytes.Buffer
	if c.body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &buf)
	if c.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func cartCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == "cart_token" {
			return cookie
		}
	}
	return nil
}

func body(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestIntegration_Health(t *testing.T) {
	s := setupIntegrationTest(t)

	w := s.do(call{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestIntegration_CORSPreflight(t *testing.T) {
	s := setupIntegrationTest(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/cart", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestIntegration_AccessControl(t *testing.T) {
	s := setupIntegrationTest(t)
	_, userToken := s.createUser("user@example.com", model.RoleUser)
	_, adminToken := s.createUser("admin@example.com", model.RoleAdmin)

	tests := []struct {
		name       string
		call       call
		wantStatus int
	}{
		{"orders need a token", call{method: http.MethodGet, path: "/api/v1/orders"}, http.StatusUnauthorized},
		{"addresses need a token", call{method: http.MethodGet, path: "/api/v1/addresses"}, http.StatusUnauthorized},
		{"admin needs admin role", call{method: http.MethodPost, path: "/api/v1/admin/categories", body: service.CategoryInput{Name: "Hats"}, token: userToken}, http.StatusForbidden},
		{"admin allowed", call{method: http.MethodPost, path: "/api/v1/admin/categories", body: service.CategoryInput{Name: "Hats"}, token: adminToken}, http.StatusCreated},
		{"catalog is public", call{method: http.MethodGet, path: "/api/v1/products"}, http.StatusOK},
		{"cart is public", call{method: http.MethodGet, path: "/api/v1/cart"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(tt.call)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}

// TestIntegration_ShoppingJourney walks an anonymous shopper through sign-in,
// checkout, reorder and logout.
func TestIntegration_ShoppingJourney(t *testing.T) {
	s := setupIntegrationTest(t)
	_, adminToken := s.createUser("admin@example.com", model.RoleAdmin)
	_, userToken := s.createUser("shopper@example.com", model.RoleUser)

	// Admin builds the catalog.
	w := s.do(call{method: http.MethodPost, path: "/api/v1/admin/categories", body: service.CategoryInput{Name: "Tops"}, token: adminToken})
	require.Equal(t, http.StatusCreated, w.Code)
	categoryID := uint(body(t, w)["category"].(map[string]interface{})["id"].(float64))

	w = s.do(call{method: http.MethodPost, path: "/api/v1/admin/products", token: adminToken, body: service.ProductInput{
		Name:       "Linen Shirt",
		Price:      decimal.NewFromInt(200000),
		Stock:      5,
		CategoryID: categoryID,
		Colors:     []service.ColorInput{{Name: "Red"}},
		Sizes:      []service.SizeInput{{Name: "M"}},
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Product model.Product `json:"product"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	product := created.Product

	// Anonymous shopper fills a cart and gets a cookie.
	add := controller.AddToCartRequest{ProductID: product.ID, ColorID: product.Colors[0].ID, SizeID: product.Sizes[0].ID, Quantity: 2}
	w = s.do(call{method: http.MethodPost, path: "/api/v1/cart/items", body: add})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookie := cartCookie(w)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, int((24 * time.Hour).Seconds()), cookie.MaxAge)

	w = s.do(call{method: http.MethodGet, path: "/api/v1/cart", cookie: cookie})
	assert.Equal(t, float64(2), body(t, w)["total_quantity"])

	// Signing in merges the anonymous cart and expires the cookie.
	w = s.do(call{method: http.MethodGet, path: "/api/v1/cart", token: userToken, cookie: cookie})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), body(t, w)["total_quantity"])
	expired := cartCookie(w)
	require.NotNil(t, expired)
	assert.Negative(t, expired.MaxAge)

	// Address and card for checkout.
	w = s.do(call{method: http.MethodPost, path: "/api/v1/addresses", token: userToken, body: service.AddressInput{
		FullName: "Shopper", Phone: "010-1111-2222", Address: "1 Main St", City: "Seoul", District: "Jung", Ward: "Myeong",
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = s.do(call{method: http.MethodPost, path: "/api/v1/payments", token: userToken, body: service.PaymentInput{
		Type: "bank_transfer", BankName: "Test Bank", AccountNumber: "123-456", AccountHolder: "Shopper",
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Checkout snapshots and empties the cart.
	w = s.do(call{method: http.MethodPost, path: "/api/v1/orders", token: userToken})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := body(t, w)["order"].(map[string]interface{})
	assert.Equal(t, "400000", order["total"])
	assert.Contains(t, order["shipping_address"], "1 Main St")

	w = s.do(call{method: http.MethodGet, path: "/api/v1/cart", token: userToken})
	assert.Equal(t, float64(0), body(t, w)["count"])

	w = s.do(call{method: http.MethodGet, path: fmt.Sprintf("/api/v1/products/%d", product.ID)})
	assert.Equal(t, float64(3), body(t, w)["product"].(map[string]interface{})["stock"])

	// Reorder puts the lines back into the cart.
	w = s.do(call{method: http.MethodPost, path: fmt.Sprintf("/api/v1/orders/%.0f/reorder", order["id"]), token: userToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, body(t, w)["added"], 1)

	w = s.do(call{method: http.MethodGet, path: "/api/v1/cart", token: userToken})
	assert.Equal(t, float64(2), body(t, w)["total_quantity"])

	// Logout revokes the token.
	w = s.do(call{method: http.MethodPost, path: "/api/v1/auth/logout", token: userToken})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body(t, w)["revoked"])

	w = s.do(call{method: http.MethodGet, path: "/api/v1/orders", token: userToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_TOKEN_REVOKED", body(t, w)["error"])
}
