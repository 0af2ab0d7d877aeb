package orders

import (
	"context"
	"strconv"
	"time"

	"checkout-arbiter/internal/checkout"

	"golang.org/x/sync/singleflight"
)

const defaultLookupTimeout = 5 * time.Second

// Coalescing wraps an OrderFinder so that identical lookups issued at the
// same moment, as racing gateway callbacks do, share one query.
//
// The shared query runs detached from any single caller's context and is
// bounded by its own timeout. A caller whose context ends stops waiting
// without failing the others.
type Coalescing struct {
	next    checkout.OrderFinder
	group   singleflight.Group
	timeout time.Duration
}

type CoalescingOption func(*Coalescing)

// WithLookupTimeout bounds each shared lookup.
func WithLookupTimeout(d time.Duration) CoalescingOption {
	return func(c *Coalescing) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func NewCoalescing(next checkout.OrderFinder, opts ...CoalescingOption) *Coalescing {
	c := &Coalescing{next: next, timeout: defaultLookupTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coalescing) FindOrderByReference(ctx context.Context, reference string) (*checkout.Order, error) {
	return c.order(ctx, "ref:"+reference, func(ctx context.Context) (*checkout.Order, error) {
		return c.next.FindOrderByReference(ctx, reference)
	})
}

func (c *Coalescing) FindLatestOrderByCart(ctx context.Context, cartID int64) (*checkout.Order, error) {
	return c.order(ctx, "latest:"+strconv.FormatInt(cartID, 10), func(ctx context.Context) (*checkout.Order, error) {
		return c.next.FindLatestOrderByCart(ctx, cartID)
	})
}

func (c *Coalescing) FindOrderByID(ctx context.Context, orderID int64) (*checkout.Order, error) {
	return c.order(ctx, "id:"+strconv.FormatInt(orderID, 10), func(ctx context.Context) (*checkout.Order, error) {
		return c.next.FindOrderByID(ctx, orderID)
	})
}

func (c *Coalescing) GetCart(ctx context.Context, cartID int64) (*checkout.Cart, error) {
	v, err := c.do(ctx, "cart:"+strconv.FormatInt(cartID, 10), func(ctx context.Context) (any, error) {
		return c.next.GetCart(ctx, cartID)
	})
	if err != nil {
		return nil, err
	}
	found, _ := v.(*checkout.Cart)
	if found == nil {
		return nil, checkout.ErrNotFound
	}
	cart := *found
	return &cart, nil
}

// order runs fn once per key among concurrent callers. Every caller gets
// its own copy of the result.
func (c *Coalescing) order(ctx context.Context, key string, fn func(context.Context) (*checkout.Order, error)) (*checkout.Order, error) {
	v, err := c.do(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return nil, err
	}
	found, _ := v.(*checkout.Order)
	if found == nil {
		return nil, checkout.ErrNotFound
	}
	order := *found
	return &order, nil
}

func (c *Coalescing) do(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	ch := c.group.DoChan(key, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return fn(shared)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
