package gate

import (
	"time"

	"checkout-arbiter/internal/session"
)

// Freshness decides whether a success marker is recent enough that
// follow-up calls belong to the same completed transaction.
type Freshness struct {
	TTL time.Duration
}

// IsFresh reports whether SuccessAt is set and younger than TTL.
func (f Freshness) IsFresh(sc session.Context, now time.Time) bool {
	if sc.SuccessAt.IsZero() {
		return false
	}
	return now.Sub(sc.SuccessAt) < f.TTL
}

// MatchesActiveCart reports whether the active cart is the one the
// resolved order came from. A new checkout on another cart never matches.
func (f Freshness) MatchesActiveCart(sc session.Context) bool {
	return sc.CartID > 0 && sc.CartID == sc.SuccessCartID
}

// SuccessReady is the guard predicate: an order is known and the context
// is either fresh or bound to the active cart.
func (f Freshness) SuccessReady(sc session.Context, now time.Time) bool {
	return sc.HasOrder() && (f.IsFresh(sc, now) || f.MatchesActiveCart(sc))
}

// Refresh moves SuccessAt forward to now. It never moves it back.
func (f Freshness) Refresh(sc *session.Context, now time.Time) {
	if sc.SuccessAt.Before(now) {
		sc.SuccessAt = now
	}
}
