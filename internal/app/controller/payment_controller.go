package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/service"
)

type PaymentController struct {
	paymentService service.PaymentService
}

func NewPaymentController(paymentService service.PaymentService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
	}
}

// ListPayments returns user's saved payment methods
// GET /api/v1/payments
func (ctrl *PaymentController) ListPayments(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	payments, err := ctrl.paymentService.ListPayments(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "list payments")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payments": payments,
		"count":    len(payments),
	})
}

// POST /api/v1/payments
func (ctrl *PaymentController) CreatePayment(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req service.PaymentInput
	if !bindJSON(c, &req) {
		return
	}

	payment, err := ctrl.paymentService.CreatePayment(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err, "create payment")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"payment": payment,
	})
}

// PUT /api/v1/payments/:id
func (ctrl *PaymentController) UpdatePayment(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	paymentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req service.PaymentInput
	if !bindJSON(c, &req) {
		return
	}

	payment, err := ctrl.paymentService.UpdatePayment(c.Request.Context(), userID, paymentID, req)
	if err != nil {
		respondError(c, err, "update payment")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payment": payment,
	})
}

// DELETE /api/v1/payments/:id
func (ctrl *PaymentController) DeletePayment(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	paymentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.paymentService.DeletePayment(c.Request.Context(), userID, paymentID); err != nil {
		respondError(c, err, "delete payment")
		return
	}

	respondSuccess(c)
}

// PUT /api/v1/payments/:id/default
func (ctrl *PaymentController) SetDefaultPayment(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	paymentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.paymentService.SetDefaultPayment(c.Request.Context(), userID, paymentID); err != nil {
		respondError(c, err, "update default payment")
		return
	}

	respondSuccess(c)
}
