package guard

import (
	"context"
	"errors"

	"checkout-arbiter/internal/checkout"
	"checkout-arbiter/internal/checkout/resolver"
	"checkout-arbiter/internal/session"
)

// SavePayment runs the real save and swallows a not-found failure when
// the gateway already placed the order behind the shopper's back.
func (g *Guards) SavePayment(
	ctx context.Context,
	sc *session.Context,
	payment checkout.Payment,
	frags []resolver.Fragment,
	next func(context.Context) (bool, error),
) (bool, error) {
	g.resolver.Resolve(ctx, sc, frags...)

	saved, err := next(ctx)
	if err == nil {
		g.decide(SurfaceSavePayment, OutcomePass, nil)
		return saved, nil
	}
	if g.absorbs(ctx, sc, payment, frags, err) {
		g.decide(SurfaceSavePayment, OutcomeShortCircuit, map[string]any{
			"method":   payment.Method,
			"order_id": sc.OrderID,
		})
		return true, nil
	}
	g.decide(SurfaceSavePayment, OutcomePass, map[string]any{"error": err.Error()})
	return false, err
}

// PlaceOrder is SavePayment for the combined save-and-place call. A
// swallowed failure returns the already known order id; a placed order
// becomes the session's identity.
func (g *Guards) PlaceOrder(
	ctx context.Context,
	sc *session.Context,
	payment checkout.Payment,
	frags []resolver.Fragment,
	next func(context.Context) (int64, error),
) (int64, error) {
	g.resolver.Resolve(ctx, sc, frags...)

	orderID, err := next(ctx)
	if err == nil {
		if orderID > 0 {
			g.resolver.Resolve(ctx, sc, append(frags[:len(frags):len(frags)], resolver.OrderIDFragment(orderID))...)
		}
		g.decide(SurfacePlaceOrder, OutcomePass, map[string]any{"order_id": orderID})
		return orderID, nil
	}
	if g.absorbs(ctx, sc, payment, frags, err) {
		g.decide(SurfacePlaceOrder, OutcomeShortCircuit, map[string]any{
			"method":   payment.Method,
			"order_id": sc.OrderID,
		})
		return sc.OrderID, nil
	}
	g.decide(SurfacePlaceOrder, OutcomePass, map[string]any{"error": err.Error()})
	return 0, err
}

// absorbs reports whether err is the "cart already converted" failure of
// a gateway-family payment whose order is known. The order may have been
// placed by a concurrent callback while next ran, so resolution is
// retried once before giving up.
func (g *Guards) absorbs(
	ctx context.Context,
	sc *session.Context,
	payment checkout.Payment,
	frags []resolver.Fragment,
	err error,
) bool {
	if !errors.Is(err, checkout.ErrNotFound) {
		return false
	}
	if !payment.InFamily(g.cfg.GatewayMethodPrefix) {
		return false
	}
	if !sc.HasOrder() {
		g.resolver.Resolve(ctx, sc, frags...)
	}
	return sc.HasOrder()
}
