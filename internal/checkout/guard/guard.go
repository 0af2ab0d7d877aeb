package guard

import (
	"time"

	"checkout-arbiter/internal/checkout/gate"
	"checkout-arbiter/internal/checkout/resolver"
	"checkout-arbiter/internal/logger"
	"checkout-arbiter/internal/metrics"
)

// Surfaces, one per externally observable operation.
const (
	SurfaceGatewayCookie = "gateway_cookie"
	SurfaceStatusPoll    = "status_poll"
	SurfacePaymentInfo   = "payment_information"
	SurfaceSavePayment   = "save_payment"
	SurfacePlaceOrder    = "place_order"
	SurfaceSuccessView   = "success_view"
	SurfacePostRender    = "post_render"
)

const (
	OutcomePass         = "pass"
	OutcomeShortCircuit = "short_circuit"
)

// ActionSuccessView names the success page action for the post-render hook.
const ActionSuccessView = "checkout_onepage_success"

type Config struct {
	// GatewayMethodPrefix selects the payment methods of the gateway
	// family, e.g. "klarna_".
	GatewayMethodPrefix string
	SuccessURL          string
	CartURL             string
}

// Guards decides, per surface, whether a request proceeds to the real
// operation or is answered with a synthesized result. Every guard runs
// the resolver before it evaluates its predicate.
type Guards struct {
	resolver  resolver.Resolver
	freshness gate.Freshness
	lock      gate.RedirectLock
	lifecycle gate.Lifecycle
	cfg       Config
	metrics   *metrics.Metrics
	now       func() time.Time
}

type Option func(*Guards)

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Guards) {
		g.metrics = m
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Guards) {
		g.now = now
	}
}

func New(
	r resolver.Resolver,
	freshness gate.Freshness,
	lock gate.RedirectLock,
	lifecycle gate.Lifecycle,
	cfg Config,
	opts ...Option,
) *Guards {
	g := &Guards{
		resolver:  r,
		freshness: freshness,
		lock:      lock,
		lifecycle: lifecycle,
		cfg:       cfg,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Lifecycle exposes the reset policy to the handlers that start checkouts.
func (g *Guards) Lifecycle() gate.Lifecycle {
	return g.lifecycle
}

// Now returns the guard clock.
func (g *Guards) Now() time.Time {
	return g.now()
}

func (g *Guards) decide(surface, outcome string, fields map[string]any) {
	g.metrics.GuardDecision(surface, outcome)
	if fields == nil {
		fields = map[string]any{}
	}
	fields["surface"] = surface
	fields["outcome"] = outcome
	logger.Info("checkout guard decision", fields)
}
