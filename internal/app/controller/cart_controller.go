package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/identity"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	ColorID   uint `json:"color_id" binding:"required"`
	SizeID    uint `json:"size_id" binding:"required"`
	Quantity  int  `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// requireCartOwner reads the owner set by the cart identity middleware
func requireCartOwner(c *gin.Context) (identity.OwnerKey, bool) {
	owner, ok := middleware.GetCartOwner(c)
	if !ok {
		middleware.GetLoggerFromContext(c).Error("Cart owner missing from context", nil)
		apperrors.InternalError(c, "")
	}
	return owner, ok
}

// GetCart returns the current cart with line totals
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	owner, ok := requireCartOwner(c)
	if !ok {
		return
	}

	summary, err := ctrl.cartService.ListWithTotals(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err, "get cart")
		return
	}

	c.JSON(http.StatusOK, summary)
}

// AddToCart adds a product selection to the cart
// POST /api/v1/cart/items
func (ctrl *CartController) AddToCart(c *gin.Context) {
	owner, ok := requireCartOwner(c)
	if !ok {
		return
	}

	var req AddToCartRequest
	if !bindJSON(c, &req) {
		return
	}

	err := ctrl.cartService.AddItem(c.Request.Context(), owner, req.ProductID, req.ColorID, req.SizeID, req.Quantity)
	if err != nil {
		respondError(c, err, "add cart item")
		return
	}

	respondSuccess(c)
}

// UpdateCartItem sets a line's quantity; zero or less removes it
// PUT /api/v1/cart/items/:id
func (ctrl *CartController) UpdateCartItem(c *gin.Context) {
	owner, ok := requireCartOwner(c)
	if !ok {
		return
	}
	itemID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := ctrl.cartService.UpdateQuantity(c.Request.Context(), owner, itemID, *req.Quantity); err != nil {
		respondError(c, err, "update cart item")
		return
	}

	respondSuccess(c)
}

// RemoveCartItem removes a line from the cart
// DELETE /api/v1/cart/items/:id
func (ctrl *CartController) RemoveCartItem(c *gin.Context) {
	owner, ok := requireCartOwner(c)
	if !ok {
		return
	}
	itemID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.cartService.RemoveItem(c.Request.Context(), owner, itemID); err != nil {
		respondError(c, err, "delete cart item")
		return
	}

	respondSuccess(c)
}

// ClearCart empties the cart
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	owner, ok := requireCartOwner(c)
	if !ok {
		return
	}

	if err := ctrl.cartService.Clear(c.Request.Context(), owner); err != nil {
		respondError(c, err, "delete cart")
		return
	}

	respondSuccess(c)
}
