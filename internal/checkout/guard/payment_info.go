package guard

import (
	"context"

	"checkout-arbiter/internal/checkout"
	"checkout-arbiter/internal/checkout/resolver"
	"checkout-arbiter/internal/session"
)

// PaymentInformation answers with empty payment details once the order
// is success-ready, so a late read cannot reopen a checkout that already
// completed. Errors from the real read propagate unchanged.
func (g *Guards) PaymentInformation(
	ctx context.Context,
	sc *session.Context,
	cartID int64,
	frags []resolver.Fragment,
	next func(context.Context, int64) (*checkout.PaymentDetails, error),
) (*checkout.PaymentDetails, error) {
	if cartID > 0 {
		frags = append(frags[:len(frags):len(frags)], resolver.CartIDFragment(cartID))
	}
	g.resolver.Resolve(ctx, sc, frags...)

	fields := map[string]any{
		"cart_id":  cartID,
		"order_id": sc.OrderID,
	}
	if g.freshness.SuccessReady(*sc, g.now()) {
		g.decide(SurfacePaymentInfo, OutcomeShortCircuit, fields)
		return checkout.EmptyPaymentDetails(), nil
	}

	g.decide(SurfacePaymentInfo, OutcomePass, fields)
	return next(ctx, cartID)
}
