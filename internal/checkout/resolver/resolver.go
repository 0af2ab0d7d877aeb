package resolver

import (
	"context"

	"checkout-arbiter/internal/checkout"
	"checkout-arbiter/internal/session"
)

// Resolver derives the canonical order identity of a checkout session.
// It is the ONLY place where order/cart identity fill-in logic lives.
//
// Resolve writes whatever it could establish into sc and reports whether
// an order was resolved. It never returns an error: lookup failures fall
// through to the next rule.
type Resolver interface {
	Resolve(
		ctx context.Context,
		sc *session.Context,
		fragments ...Fragment,
	) (identity checkout.Identity, resolved bool)
}
