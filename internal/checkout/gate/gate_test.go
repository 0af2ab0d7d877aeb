package gate

import (
	"testing"
	"time"

	"checkout-arbiter/internal/session"

	"github.com/stretchr/testify/assert"
)

const (
	freshTTL = 15 * time.Second
	lockTTL  = 12 * time.Second
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestFreshness_Decay(t *testing.T) {
	f := Freshness{TTL: freshTTL}
	now := t0

	// no matching cart, so freshness alone decides
	stale := session.Context{OrderID: 501, CartID: 10, SuccessCartID: 9, SuccessAt: now.Add(-(freshTTL + time.Second))}
	fresh := stale
	fresh.SuccessAt = now.Add(-(freshTTL - time.Second))

	assert.False(t, f.IsFresh(stale, now))
	assert.False(t, f.SuccessReady(stale, now))
	assert.True(t, f.IsFresh(fresh, now))
	assert.True(t, f.SuccessReady(fresh, now))
}

func TestFreshness_ExactTTLIsNotFresh(t *testing.T) {
	f := Freshness{TTL: freshTTL}
	sc := session.Context{SuccessAt: t0}

	assert.False(t, f.IsFresh(sc, t0.Add(freshTTL)))
	assert.False(t, f.IsFresh(session.Context{}, t0))
}

func TestFreshness_MatchingCartOutlivesWindow(t *testing.T) {
	f := Freshness{TTL: freshTTL}
	sc := session.Context{OrderID: 501, CartID: 9, SuccessCartID: 9}

	assert.True(t, f.MatchesActiveCart(sc))
	assert.True(t, f.SuccessReady(sc, t0.Add(time.Hour)))
}

func TestFreshness_RequiresOrder(t *testing.T) {
	f := Freshness{TTL: freshTTL}
	sc := session.Context{CartID: 9, SuccessCartID: 9, SuccessAt: t0}

	assert.False(t, f.SuccessReady(sc, t0))
	assert.False(t, f.MatchesActiveCart(session.Context{}))
}

func TestFreshness_RefreshIsMonotonic(t *testing.T) {
	f := Freshness{TTL: freshTTL}
	sc := session.Context{SuccessAt: t0}

	f.Refresh(&sc, t0.Add(-time.Minute))
	assert.Equal(t, t0, sc.SuccessAt)

	f.Refresh(&sc, t0.Add(time.Second))
	assert.Equal(t, t0.Add(time.Second), sc.SuccessAt)
}

func TestRedirectLock_Window(t *testing.T) {
	l := RedirectLock{TTL: lockTTL}
	var sc session.Context

	assert.True(t, l.TryAcquire(&sc, t0))
	assert.Equal(t, t0.Add(lockTTL), sc.LockUntil)

	assert.True(t, l.Held(sc, t0.Add(5*time.Second)))
	assert.False(t, l.TryAcquire(&sc, t0.Add(5*time.Second)))
	assert.Equal(t, t0.Add(lockTTL), sc.LockUntil, "failed acquire must not extend the lock")

	assert.False(t, l.Held(sc, t0.Add(13*time.Second)))
	assert.True(t, l.TryAcquire(&sc, t0.Add(13*time.Second)))
}

func TestReset_ClearsEverything(t *testing.T) {
	sc := session.Context{
		OrderID: 1, OrderReference: "INC-1", CartID: 2, SuccessCartID: 2,
		SuccessAt: t0, LockUntil: t0, PendingCleanup: true,
	}
	Reset(&sc)
	assert.True(t, sc.Empty())
}

func TestLifecycle_StartCheckout(t *testing.T) {
	l := Lifecycle{
		Freshness:   Freshness{TTL: freshTTL},
		LoopOrigins: []string{"/checkout/onepage/success", "/checkout/gateway/cookie"},
	}
	placed := session.Context{OrderID: 501, OrderReference: "INC-501", CartID: 9, SuccessCartID: 9}

	cases := map[string]struct {
		sc        session.Context
		start     Start
		wantReset bool
	}{
		"fresh start clears old success": {
			sc:        placed,
			wantReset: true,
		},
		"gateway return keeps context": {
			sc:    placed,
			start: Start{GatewayReturn: true},
		},
		"loop origin referer keeps context": {
			sc:    placed,
			start: Start{Referer: "https://shop.example.com/checkout/gateway/cookie?x=1"},
		},
		"fresh success keeps context": {
			sc: func() session.Context {
				sc := placed
				sc.SuccessAt = t0.Add(-3 * time.Second)
				return sc
			}(),
		},
		"unrelated referer resets": {
			sc:        placed,
			start:     Start{Referer: "https://shop.example.com/catalog/shoes"},
			wantReset: true,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			sc := tc.sc
			got := l.StartCheckout(&sc, tc.start, t0)

			assert.Equal(t, tc.wantReset, got)
			assert.Equal(t, tc.wantReset, sc.Empty())
		})
	}
}

func TestLifecycle_CartChanged(t *testing.T) {
	l := Lifecycle{}
	sc := session.Context{OrderID: 501, CartID: 9, SuccessCartID: 9, SuccessAt: t0}

	l.CartChanged(&sc)

	assert.True(t, sc.Empty())
}
