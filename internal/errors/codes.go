package errors

// Error codes returned to clients in the "error" field.
// Format: CATEGORY_SPECIFIC_DETAIL. Codes are stable; messages are not.

const (
	// Authentication
	AuthUnauthorized = "AUTH_UNAUTHORIZED"
	AuthTokenExpired = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked = "AUTH_TOKEN_REVOKED"

	// Authorization
	AuthzForbidden    = "AUTHZ_FORBIDDEN"
	AuthzRoleNotFound = "AUTHZ_ROLE_NOT_FOUND"

	// Validation
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationRequired     = "VALIDATION_REQUIRED"

	// Generic resources
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// Cart
	CartItemNotFound      = "CART_ITEM_NOT_FOUND"
	CartInvalidSelection  = "CART_INVALID_SELECTION"
	CartInvalidQuantity   = "CART_INVALID_QUANTITY"
	CartEmpty             = "CART_EMPTY"
	CartInsufficientStock = "CART_INSUFFICIENT_STOCK"

	// Addresses and payment methods
	AddressNotFound        = "ADDRESS_NOT_FOUND"
	PaymentNotFound        = "PAYMENT_NOT_FOUND"
	PaymentInvalidType     = "PAYMENT_INVALID_TYPE"
	DefaultFlagInvariant   = "DEFAULT_FLAG_INVARIANT"
	OwnerNotFound          = "OWNER_NOT_FOUND"
	CheckoutAddressMissing = "CHECKOUT_ADDRESS_MISSING"
	CheckoutPaymentMissing = "CHECKOUT_PAYMENT_MISSING"

	// Catalog
	ProductNotFound          = "PRODUCT_NOT_FOUND"
	ProductInvalidSalePrice  = "PRODUCT_INVALID_SALE_PRICE"
	ProductDuplicateVariant  = "PRODUCT_DUPLICATE_VARIANT"
	CategoryNotFound         = "CATEGORY_NOT_FOUND"
	AttributeNotFound        = "ATTRIBUTE_NOT_FOUND"
	CategorySlugAlreadyTaken = "CATEGORY_SLUG_TAKEN"

	// Orders
	OrderNotFound      = "ORDER_NOT_FOUND"
	OrderNotOwner      = "ORDER_NOT_OWNER"
	OrderInvalidStatus = "ORDER_INVALID_STATUS"

	// Internal
	InternalServerError       = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError     = "INTERNAL_DATABASE_ERROR"
	InternalTransactionFailed = "INTERNAL_TRANSACTION_FAILED"
)
