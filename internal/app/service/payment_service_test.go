package service

import (
	"context"
	"testing"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cardInput(number string) PaymentInput {
	return PaymentInput{
		Type:       string(model.PaymentTypeCreditCard),
		CardHolder: "NGUYEN VAN A",
		CardNumber: number,
		CardExpiry: "12/29",
	}
}

func TestPaymentInput_Validate(t *testing.T) {
	tests := []struct {
		name      string
		input     PaymentInput
		wantErr   error
		wantField string
	}{
		{"valid card", cardInput("4111 1111 1111 1111"), nil, ""},
		{"valid bank transfer", PaymentInput{Type: "bank_transfer", BankName: "VCB", AccountNumber: "0011", AccountHolder: "A"}, nil, ""},
		{"missing type", PaymentInput{}, nil, "type"},
		{"unknown type", PaymentInput{Type: "cash"}, ErrInvalidPaymentType, ""},
		{"short card number", cardInput("4111"), nil, "card_number"},
		{"non-ascii digits", cardInput("\u0660\u0661\u0662\u0663\u0664\u0665\u0666"), nil, "card_number"},
		{"ascii digits mixed with arabic-indic", cardInput("4111 1111 \u0661\u0662\u0663\u0664"), nil, "card_number"},
		{"bank without account", PaymentInput{Type: "bank_transfer", BankName: "VCB", AccountHolder: "A"}, nil, "account_number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantField != "":
				var fields FieldErrors
				require.ErrorAs(t, err, &fields)
				assert.Contains(t, fields, tt.wantField)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestPaymentService_CreateStoresLast4(t *testing.T) {
	env := setupServiceTest(t)
	user := env.createUser(t, "pay@example.com")

	payment, err := env.payments.CreatePayment(context.Background(), user.ID, cardInput("4111-1111-1111-1234"))
	require.NoError(t, err)
	assert.Equal(t, "1234", payment.CardLast4)
	assert.Equal(t, "4111111111111234", payment.CardNumber)
	assert.True(t, payment.IsDefault)
	assert.Equal(t, "credit_card **** 1234", payment.Summary())
}

func TestDigitsOnly(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"4111-1111-1111-1234", "4111111111111234"},
		{" 4111 1111 ", "41111111"},
		{"\u0660\u0661\u0662", ""},
		{"12\uff1334", "1234"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, digitsOnly(tt.in))
		})
	}
}

func TestPaymentService_DefaultInvariant(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	user := env.createUser(t, "pay@example.com")

	card, err := env.payments.CreatePayment(ctx, user.ID, cardInput("4111111111111111"))
	require.NoError(t, err)

	bankInput := PaymentInput{Type: "bank_transfer", BankName: "VCB", AccountNumber: "0011", AccountHolder: "A", IsDefault: boolPtr(true)}
	bank, err := env.payments.CreatePayment(ctx, user.ID, bankInput)
	require.NoError(t, err)
	assert.True(t, bank.IsDefault)

	payments, err := env.payments.ListPayments(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, bank.ID, payments[0].ID)
	assert.True(t, payments[0].IsDefault)
	assert.False(t, payments[1].IsDefault)

	require.NoError(t, env.payments.DeletePayment(ctx, user.ID, bank.ID))
	def, err := env.payments.GetDefaultPayment(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, card.ID, def.ID)

	_, err = env.payments.UpdatePayment(ctx, user.ID, 9999, cardInput("4111111111111111"))
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}
