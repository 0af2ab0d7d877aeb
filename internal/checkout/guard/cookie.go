package guard

import (
	"context"

	"checkout-arbiter/internal/checkout"
	"checkout-arbiter/internal/checkout/resolver"
	"checkout-arbiter/internal/session"
)

// CookieRequest is a gateway "cookie" callback ping.
type CookieRequest struct {
	AJAX      bool
	Referer   string
	Fragments []resolver.Fragment
}

type CookieAction int

const (
	// CookiePass hands the ping to the gateway's own handler.
	CookiePass CookieAction = iota
	// CookieNoOp answers "already handled" without touching the lock.
	CookieNoOp
	// CookieRedirectPayload tells an AJAX caller to go to Location.
	CookieRedirectPayload
	// CookieNavigate redirects a top-level navigation to Location.
	CookieNavigate
)

type CookieDecision struct {
	Action   CookieAction
	Location string
	Identity checkout.Identity
}

// ShortCircuited reports whether the gateway handler must not run.
func (d CookieDecision) ShortCircuited() bool {
	return d.Action != CookiePass
}

// CookiePing arbitrates the post-redirect cookie callback.
//
// A top-level navigation from a loop origin is a duplicate and gets a
// no-op while the lock is held or the success stamp is fresh. The stamp
// outlives the post-render reset, so the success page bouncing back
// through the cookie hop stays put. A success-ready context arms the lock,
// refreshes the success stamp and sends the caller to the success view.
func (g *Guards) CookiePing(ctx context.Context, sc *session.Context, req CookieRequest) CookieDecision {
	now := g.now()
	id, _ := g.resolver.Resolve(ctx, sc, req.Fragments...)

	fields := map[string]any{
		"ajax":     req.AJAX,
		"order_id": sc.OrderID,
		"cart_id":  sc.CartID,
	}

	if !req.AJAX && g.lifecycle.FromLoopOrigin(req.Referer) &&
		(g.lock.Held(*sc, now) || g.freshness.IsFresh(*sc, now)) {
		fields["reason"] = "duplicate_navigation"
		g.decide(SurfaceGatewayCookie, OutcomeShortCircuit, fields)
		return CookieDecision{Action: CookieNoOp, Identity: id}
	}

	if g.freshness.SuccessReady(*sc, now) {
		g.lock.TryAcquire(sc, now)
		g.freshness.Refresh(sc, now)

		action := CookieNavigate
		if req.AJAX {
			action = CookieRedirectPayload
		}
		fields["reason"] = "success_ready"
		g.decide(SurfaceGatewayCookie, OutcomeShortCircuit, fields)
		return CookieDecision{Action: action, Location: g.cfg.SuccessURL, Identity: id}
	}

	g.decide(SurfaceGatewayCookie, OutcomePass, fields)
	return CookieDecision{Action: CookiePass, Identity: id}
}
