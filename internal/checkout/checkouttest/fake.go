// Package checkouttest provides in-memory collaborators for tests.
package checkouttest

import (
	"context"
	"sync"

	"checkout-arbiter/internal/checkout"
)

// Orders is an in-memory OrderFinder and ReferenceRecorder.
type Orders struct {
	mu       sync.Mutex
	orders   map[int64]checkout.Order
	carts    map[int64]checkout.Cart
	recorded map[int64]string

	// Err, when set, is returned by every lookup.
	Err error

	Calls int
}

func NewOrders() *Orders {
	return &Orders{
		orders:   make(map[int64]checkout.Order),
		carts:    make(map[int64]checkout.Cart),
		recorded: make(map[int64]string),
	}
}

func (o *Orders) AddOrder(order checkout.Order) *Orders {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.orders[order.ID] = order
	return o
}

func (o *Orders) AddCart(cart checkout.Cart) *Orders {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.carts[cart.ID] = cart
	return o
}

// Recorded returns the reference written back for cartID.
func (o *Orders) Recorded(cartID int64) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.recorded[cartID]
}

func (o *Orders) FindOrderByReference(_ context.Context, reference string) (*checkout.Order, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Calls++
	if o.Err != nil {
		return nil, o.Err
	}
	for _, order := range o.orders {
		if order.Reference == reference {
			found := order
			return &found, nil
		}
	}
	return nil, checkout.ErrNotFound
}

func (o *Orders) FindLatestOrderByCart(_ context.Context, cartID int64) (*checkout.Order, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Calls++
	if o.Err != nil {
		return nil, o.Err
	}
	var latest *checkout.Order
	for _, order := range o.orders {
		if order.CartID != cartID {
			continue
		}
		if latest == nil || order.ID > latest.ID {
			found := order
			latest = &found
		}
	}
	if latest == nil {
		return nil, checkout.ErrNotFound
	}
	return latest, nil
}

func (o *Orders) FindOrderByID(_ context.Context, orderID int64) (*checkout.Order, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Calls++
	if o.Err != nil {
		return nil, o.Err
	}
	order, ok := o.orders[orderID]
	if !ok {
		return nil, checkout.ErrNotFound
	}
	return &order, nil
}

func (o *Orders) GetCart(_ context.Context, cartID int64) (*checkout.Cart, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Calls++
	if o.Err != nil {
		return nil, o.Err
	}
	cart, ok := o.carts[cartID]
	if !ok {
		return nil, checkout.ErrNotFound
	}
	return &cart, nil
}

func (o *Orders) RecordOrderReference(_ context.Context, cartID int64, reference string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.recorded[cartID] = reference
	return nil
}

// Payments is a PaymentService double that counts invocations.
type Payments struct {
	mu sync.Mutex

	Details    *checkout.PaymentDetails
	Status     *checkout.CartStatus
	PlacedID   int64
	Err        error
	Invocation map[string]int
}

func NewPayments() *Payments {
	return &Payments{
		Details: &checkout.PaymentDetails{
			PaymentMethods: []checkout.PaymentMethod{{Code: "klarna_pay_later", Title: "Pay later"}},
			Totals:         &checkout.Totals{GrandTotal: "49.90", Currency: "EUR"},
		},
		Invocation: make(map[string]int),
	}
}

// Calls returns how often op was invoked.
func (p *Payments) Calls(op string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Invocation[op]
}

func (p *Payments) hit(op string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Invocation[op]++
	return p.Err
}

func (p *Payments) PaymentInformation(_ context.Context, _ int64) (*checkout.PaymentDetails, error) {
	if err := p.hit("payment_information"); err != nil {
		return nil, err
	}
	return p.Details, nil
}

func (p *Payments) SavePaymentInformation(_ context.Context, _ int64, _ checkout.Payment) (bool, error) {
	if err := p.hit("save_payment"); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Payments) PlaceOrder(_ context.Context, _ int64, _ checkout.Payment) (int64, error) {
	if err := p.hit("place_order"); err != nil {
		return 0, err
	}
	return p.PlacedID, nil
}

func (p *Payments) CartStatus(_ context.Context, cartID int64) (*checkout.CartStatus, error) {
	if err := p.hit("cart_status"); err != nil {
		return nil, err
	}
	if p.Status != nil {
		return p.Status, nil
	}
	return &checkout.CartStatus{CartID: cartID, Active: true}, nil
}

func (p *Payments) AddCartItem(_ context.Context, _ int64, _ string, _ int) error {
	return p.hit("add_cart_item")
}
