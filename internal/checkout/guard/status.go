package guard

import (
	"context"

	"checkout-arbiter/internal/checkout"
	"checkout-arbiter/internal/checkout/resolver"
	"checkout-arbiter/internal/session"
)

// StatusPoll never short-circuits. It resolves before the real poll so
// that the poll observes the same identity every other surface sees, and
// reports the resolved order id when the backend does not.
func (g *Guards) StatusPoll(
	ctx context.Context,
	sc *session.Context,
	frags []resolver.Fragment,
	next func(context.Context, checkout.Identity) (*checkout.CartStatus, error),
) (*checkout.CartStatus, error) {
	id, ok := g.resolver.Resolve(ctx, sc, frags...)
	g.decide(SurfaceStatusPoll, OutcomePass, map[string]any{
		"resolved": ok,
		"order_id": id.OrderID,
	})

	status, err := next(ctx, id)
	if err != nil {
		return nil, err
	}
	if status != nil && status.OrderID == 0 && id.OrderID > 0 {
		status.OrderID = id.OrderID
	}
	return status, nil
}
