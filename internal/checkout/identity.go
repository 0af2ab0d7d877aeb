package checkout

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by collaborators when an order, cart or payment
// record does not exist (or no longer accepts writes).
var ErrNotFound = errors.New("checkout: not found")

// Order is the subset of a placed order the arbitration layer needs.
type Order struct {
	ID        int64
	Reference string
	CartID    int64
}

// Cart is a pre-order aggregate. ReservedReference is set when the order
// reference is reserved, before the order itself exists.
type Cart struct {
	ID                int64
	Active            bool
	ReservedReference string
}

// Identity is the consistent order triple derived by resolution.
type Identity struct {
	OrderID        int64  `json:"order_id"`
	OrderReference string `json:"order_reference"`
	CartID         int64  `json:"cart_id"`
}

// OrderFinder looks orders and carts up. Misses are reported as ErrNotFound.
type OrderFinder interface {
	FindOrderByReference(ctx context.Context, reference string) (*Order, error)
	FindLatestOrderByCart(ctx context.Context, cartID int64) (*Order, error)
	FindOrderByID(ctx context.Context, orderID int64) (*Order, error)
	GetCart(ctx context.Context, cartID int64) (*Cart, error)
}

// ReferenceRecorder stores a resolved order reference on the cart's
// payment record. Writes must be idempotent.
type ReferenceRecorder interface {
	RecordOrderReference(ctx context.Context, cartID int64, reference string) error
}

// Payment is the payment method submitted by the checkout UI.
type Payment struct {
	Method string `json:"method"`
}

// InFamily reports whether the method belongs to the gateway whose
// callbacks race each other, e.g. "klarna_pay_later" for prefix "klarna_".
func (p Payment) InFamily(prefix string) bool {
	if prefix == "" || p.Method == "" {
		return false
	}
	return strings.HasPrefix(strings.ToLower(p.Method), strings.ToLower(prefix))
}

type PaymentMethod struct {
	Code  string `json:"code"`
	Title string `json:"title"`
}

type Totals struct {
	GrandTotal string `json:"grand_total"`
	Currency   string `json:"base_currency_code"`
}

// PaymentDetails is the payment-information read model. The zero value
// with a non-nil empty method list is the well-formed "nothing to pay" answer.
type PaymentDetails struct {
	PaymentMethods []PaymentMethod `json:"payment_methods"`
	Totals         *Totals         `json:"totals"`
}

// EmptyPaymentDetails returns details that serialize as
// {"payment_methods": [], "totals": null}.
func EmptyPaymentDetails() *PaymentDetails {
	return &PaymentDetails{PaymentMethods: []PaymentMethod{}}
}

// CartStatus is what the status-poll endpoint reports.
type CartStatus struct {
	CartID  int64 `json:"cart_id"`
	Active  bool  `json:"active"`
	OrderID int64 `json:"order_id,omitempty"`
}

// PaymentService is the real checkout backend the guards wrap.
type PaymentService interface {
	PaymentInformation(ctx context.Context, cartID int64) (*PaymentDetails, error)
	SavePaymentInformation(ctx context.Context, cartID int64, p Payment) (bool, error)
	PlaceOrder(ctx context.Context, cartID int64, p Payment) (int64, error)
	CartStatus(ctx context.Context, cartID int64) (*CartStatus, error)
	AddCartItem(ctx context.Context, cartID int64, sku string, qty int) error
}
