package controller

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/catalog"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/pkg/logger"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

// GetProducts lists products
// GET /api/v1/products?category_id=&limit=&offset=
func (ctrl *ProductController) GetProducts(c *gin.Context) {
	filter := repository.ProductFilter{Limit: defaultPageSize}

	if raw := c.Query("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid category_id")
			return
		}
		categoryID := uint(id)
		filter.CategoryID = &categoryID
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "limit must be a positive integer")
			return
		}
		filter.Limit = min(limit, maxPageSize)
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "offset must not be negative")
			return
		}
		filter.Offset = offset
	}

	products, total, err := ctrl.productService.ListProducts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "list products")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
		"total":    total,
		"limit":    filter.Limit,
		"offset":   filter.Offset,
	})
}

// GetProductByID returns one product with its variants
// GET /api/v1/products/:id
func (ctrl *ProductController) GetProductByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	product, err := ctrl.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "get product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product": product,
	})
}

// CreateProduct creates a product with its variants
// POST /api/v1/admin/products
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	var req service.ProductInput
	if !bindJSON(c, &req) {
		return
	}

	product, err := ctrl.productService.CreateProduct(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "create product")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"product": product,
	})
}

// UpdateProduct replaces a product and its whole variant set
// PUT /api/v1/admin/products/:id
func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req service.ProductInput
	if !bindJSON(c, &req) {
		return
	}

	product, err := ctrl.productService.ReplaceProduct(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err, "replace product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product": product,
	})
}

// DeleteProduct deletes a product
// DELETE /api/v1/admin/products/:id
func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err, "delete product")
		return
	}

	respondSuccess(c)
}

// ExportProducts downloads the catalog as an xlsx workbook
// GET /api/v1/admin/products/export
func (ctrl *ProductController) ExportProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	products, err := catalog.Export(c.Request.Context(), ctrl.productService)
	if err != nil {
		respondError(c, err, "export products")
		return
	}

	var buf bytes.Buffer
	if err := catalog.Write(&buf, products); err != nil {
		log.Error("Failed to render catalog workbook", err)
		apperrors.InternalError(c, "")
		return
	}

	log.Info("Catalog exported", logger.Fields{
		"products": len(products),
	})

	filename := fmt.Sprintf("catalog-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// GetCategories lists categories
// GET /api/v1/categories
func (ctrl *ProductController) GetCategories(c *gin.Context) {
	categories, err := ctrl.productService.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err, "list categories")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
	})
}

// CreateCategory creates a category
// POST /api/v1/admin/categories
func (ctrl *ProductController) CreateCategory(c *gin.Context) {
	var req service.CategoryInput
	if !bindJSON(c, &req) {
		return
	}

	category, err := ctrl.productService.CreateCategory(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "create category")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"category": category,
	})
}

// GetAttributes lists attributes
// GET /api/v1/attributes
func (ctrl *ProductController) GetAttributes(c *gin.Context) {
	attributes, err := ctrl.productService.ListAttributes(c.Request.Context())
	if err != nil {
		respondError(c, err, "list attributes")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"attributes": attributes,
	})
}

// CreateAttribute creates an attribute
// POST /api/v1/admin/attributes
func (ctrl *ProductController) CreateAttribute(c *gin.Context) {
	var req service.AttributeInput
	if !bindJSON(c, &req) {
		return
	}

	attribute, err := ctrl.productService.CreateAttribute(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "create attribute")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"attribute": attribute,
	})
}
