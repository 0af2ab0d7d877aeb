package guard

import (
	"context"

	"checkout-arbiter/internal/checkout"
	"checkout-arbiter/internal/checkout/gate"
	"checkout-arbiter/internal/checkout/resolver"
	"checkout-arbiter/internal/session"
)

type SuccessDecision struct {
	// Render is false when the caller must redirect to Location.
	Render   bool
	Location string
	Identity checkout.Identity
}

// SuccessView lets the success page render only for a resolved order
// and schedules the post-render cleanup. Without an order it redirects
// to the cart and leaves the context untouched.
func (g *Guards) SuccessView(ctx context.Context, sc *session.Context, frags []resolver.Fragment) SuccessDecision {
	before := *sc
	id, _ := g.resolver.Resolve(ctx, sc, frags...)

	if !sc.HasOrder() {
		// a redirect never leaves request fragments behind
		*sc = before
		g.decide(SurfaceSuccessView, OutcomeShortCircuit, map[string]any{"reason": "no_order"})
		return SuccessDecision{Location: g.cfg.CartURL}
	}

	sc.PendingCleanup = true
	g.decide(SurfaceSuccessView, OutcomePass, map[string]any{
		"order_id":        id.OrderID,
		"order_reference": id.OrderReference,
	})
	return SuccessDecision{Render: true, Identity: id}
}

// AfterRender runs after the response of action was produced with
// status. It clears the context of a rendered success page, leaving only
// a fresh success stamp behind, and reports whether cleanup ran.
func (g *Guards) AfterRender(sc *session.Context, action string, status int) bool {
	if !sc.PendingCleanup || action != ActionSuccessView || status >= 400 {
		return false
	}

	orderID := sc.OrderID
	gate.Reset(sc)
	sc.SuccessAt = g.now()
	sc.PendingCleanup = false

	g.decide(SurfacePostRender, OutcomeShortCircuit, map[string]any{"order_id": orderID})
	return true
}
