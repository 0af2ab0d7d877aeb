package gate

import (
	"strings"
	"time"

	"checkout-arbiter/internal/logger"
	"checkout-arbiter/internal/session"
)

// Reset clears every checkout field of sc.
func Reset(sc *session.Context) {
	*sc = session.Context{}
}

// Start describes a request entering the checkout.
type Start struct {
	Referer string
	// GatewayReturn is set when the gateway hands the shopper back
	// mid-flow, e.g. on its secondary redirect hop.
	GatewayReturn bool
}

// Lifecycle decides when checkout state must be torn down.
type Lifecycle struct {
	Freshness   Freshness
	LoopOrigins []string
}

// StartCheckout resets sc for a fresh checkout start and reports whether
// it did. Mid-flow revisits keep the context: gateway returns, loop-origin
// referers and a success context that is still inside its freshness window.
func (l Lifecycle) StartCheckout(sc *session.Context, s Start, now time.Time) bool {
	switch {
	case s.GatewayReturn:
		return false
	case l.FromLoopOrigin(s.Referer):
		return false
	case l.Freshness.SuccessReady(*sc, now) && l.Freshness.IsFresh(*sc, now):
		return false
	}

	if !sc.Empty() {
		logger.Info("checkout restarted, clearing success context", map[string]any{
			"order_id": sc.OrderID,
			"cart_id":  sc.CartID,
		})
	}
	Reset(sc)
	return true
}

// CartChanged resets sc after the cart contents changed. Nothing is
// retained; the next request names its cart again.
func (l Lifecycle) CartChanged(sc *session.Context) {
	Reset(sc)
}

// FromLoopOrigin reports whether referer points at one of the pages that
// bounce the shopper back through the gateway callback.
func (l Lifecycle) FromLoopOrigin(referer string) bool {
	if referer == "" {
		return false
	}
	for _, origin := range l.LoopOrigins {
		if origin != "" && strings.Contains(referer, origin) {
			return true
		}
	}
	return false
}
