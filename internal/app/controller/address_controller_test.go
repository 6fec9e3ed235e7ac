package controller

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupOwnedControllerTest(t *testing.T) *controllerEnv {
	env := setupControllerTest(t)
	user := env.createUser(t, "owner@example.com")

	addresses := NewAddressController(env.address)
	a := env.router.Group("/addresses", asUser(user.ID))
	a.GET("", addresses.ListAddresses)
	a.POST("", addresses.CreateAddress)
	a.PUT("/:id", addresses.UpdateAddress)
	a.DELETE("/:id", addresses.DeleteAddress)
	a.PUT("/:id/default", addresses.SetDefaultAddress)

	payments := NewPaymentController(env.payments)
	p := env.router.Group("/payments", asUser(user.ID))
	p.GET("", payments.ListPayments)
	p.POST("", payments.CreatePayment)
	p.PUT("/:id", payments.UpdatePayment)
	p.DELETE("/:id", payments.DeletePayment)
	p.PUT("/:id/default", payments.SetDefaultPayment)
	return env
}

func testAddress(name string) service.AddressInput {
	return service.AddressInput{
		FullName: name,
		Phone:    "010-0000-0000",
		Address:  "1 Test Street",
		City:     "Seoul",
		District: "Mapo",
		Ward:     "Hapjeong",
	}
}

func defaultIDs(t *testing.T, list []interface{}) []float64 {
	t.Helper()
	var ids []float64
	for _, entry := range list {
		row := entry.(map[string]interface{})
		if row["is_default"] == true {
			ids = append(ids, row["id"].(float64))
		}
	}
	return ids
}

func TestAddressController_DefaultFlag(t *testing.T) {
	env := setupOwnedControllerTest(t)

	w := env.do(t, http.MethodPost, "/addresses", testAddress("Home"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	home := decode(t, w)["address"].(map[string]interface{})
	assert.Equal(t, true, home["is_default"])

	w = env.do(t, http.MethodPost, "/addresses", testAddress("Office"))
	require.Equal(t, http.StatusCreated, w.Code)
	office := decode(t, w)["address"].(map[string]interface{})
	assert.Equal(t, false, office["is_default"])

	w = env.do(t, http.MethodPut, fmt.Sprintf("/addresses/%.0f/default", office["id"]), nil)
	require.Equal(t, http.StatusOK, w.Code)

	list := decode(t, env.do(t, http.MethodGet, "/addresses", nil))
	assert.Equal(t, float64(2), list["count"])
	assert.Equal(t, []float64{office["id"].(float64)}, defaultIDs(t, list["addresses"].([]interface{})))

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/addresses/%.0f", office["id"]), nil)
	require.Equal(t, http.StatusOK, w.Code)

	list = decode(t, env.do(t, http.MethodGet, "/addresses", nil))
	assert.Equal(t, []float64{home["id"].(float64)}, defaultIDs(t, list["addresses"].([]interface{})))
}

func TestAddressController_Validation(t *testing.T) {
	env := setupOwnedControllerTest(t)

	input := testAddress("  ")
	input.City = ""
	w := env.do(t, http.MethodPost, "/addresses", input)
	require.Equal(t, http.StatusBadRequest, w.Code)

	response := decode(t, w)
	assert.Equal(t, "VALIDATION_INVALID_INPUT", response["error"])
	fields := response["fields"].(map[string]interface{})
	assert.Contains(t, fields, "full_name")
	assert.Contains(t, fields, "city")
}

func TestAddressController_NotFound(t *testing.T) {
	env := setupOwnedControllerTest(t)

	w := env.do(t, http.MethodPut, "/addresses/9999", testAddress("Nowhere"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ADDRESS_NOT_FOUND", decode(t, w)["error"])
}

func TestPaymentController_CardNumberIsMasked(t *testing.T) {
	env := setupOwnedControllerTest(t)

	w := env.do(t, http.MethodPost, "/payments", service.PaymentInput{
		Type:       "credit_card",
		CardHolder: "KIM",
		CardNumber: "4111-1111-1111-1234",
		CardExpiry: "01/29",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	payment := decode(t, w)["payment"].(map[string]interface{})
	assert.Equal(t, "1234", payment["card_last4"])
	assert.Equal(t, true, payment["is_default"])
	assert.NotContains(t, payment, "card_number")
}

func TestPaymentController_Rejected(t *testing.T) {
	env := setupOwnedControllerTest(t)

	tests := []struct {
		name     string
		input    service.PaymentInput
		wantCode string
	}{
		{
			name:     "unknown type",
			input:    service.PaymentInput{Type: "cash"},
			wantCode: "PAYMENT_INVALID_TYPE",
		},
		{
			name:     "bank transfer without bank",
			input:    service.PaymentInput{Type: "bank_transfer", AccountNumber: "123", AccountHolder: "KIM"},
			wantCode: "VALIDATION_INVALID_INPUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/payments", tt.input)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantCode, decode(t, w)["error"])
		})
	}
}
