package resolver

import (
	"context"
	"errors"

	"checkout-arbiter/internal/checkout"
	"checkout-arbiter/internal/logger"
	"checkout-arbiter/internal/metrics"
	"checkout-arbiter/internal/session"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Rule names, used for metrics and log lines.
const (
	RuleOrderID           = "order_id"
	RuleReference         = "reference"
	RuleCart              = "cart"
	RuleReservedReference = "reserved_reference"
	RuleUnresolved        = "unresolved"
)

// RepoResolver resolves identities against an order repository.
type RepoResolver struct {
	orders   checkout.OrderFinder
	recorder checkout.ReferenceRecorder
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

type Option func(*RepoResolver)

// WithRecorder writes newly resolved references back to the cart.
func WithRecorder(rec checkout.ReferenceRecorder) Option {
	return func(r *RepoResolver) {
		r.recorder = rec
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *RepoResolver) {
		r.metrics = m
	}
}

func NewRepoResolver(orders checkout.OrderFinder, opts ...Option) *RepoResolver {
	r := &RepoResolver{
		orders: orders,
		tracer: otel.Tracer("checkout-arbiter/resolver"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// observed is the union of the request fragments. Later fragments of the
// same kind override earlier ones.
type observed struct {
	orderID   int64
	reference string
	cartID    int64
}

func collect(fragments []Fragment) observed {
	var o observed
	for _, f := range fragments {
		switch v := f.(type) {
		case OrderIDFragment:
			if v > 0 {
				o.orderID = int64(v)
			}
		case OrderReferenceFragment:
			if v != "" {
				o.reference = string(v)
			}
		case CartIDFragment:
			if v > 0 {
				o.cartID = int64(v)
			}
		}
	}
	return o
}

func (r *RepoResolver) Resolve(
	ctx context.Context,
	sc *session.Context,
	fragments ...Fragment,
) (checkout.Identity, bool) {

	ctx, span := r.tracer.Start(ctx, "checkout.resolve")
	defer span.End()

	in := collect(fragments)

	// All work happens on a copy; sc is written once at the end.
	work := *sc
	if in.cartID > 0 {
		work.CartID = in.cartID
	}

	cand, rule := r.derive(ctx, &work, in)

	span.SetAttributes(
		attribute.String("checkout.rule", rule),
		attribute.Int64("checkout.cart_id", work.CartID),
	)
	r.metrics.Resolution(rule)

	if rule == RuleUnresolved {
		*sc = work
		logger.Debug("checkout identity unresolved", map[string]any{
			"cart_id": work.CartID,
		})
		return checkout.Identity{}, false
	}

	r.backfill(ctx, &cand)

	changed := cand.OrderID != sc.OrderID || cand.OrderReference != sc.OrderReference

	work.OrderID = cand.OrderID
	if cand.OrderReference != "" || changed {
		work.OrderReference = cand.OrderReference
	}
	if cand.CartID > 0 || changed {
		work.SuccessCartID = cand.CartID
	}
	if work.CartID == 0 {
		work.CartID = cand.CartID
	}
	*sc = work

	if changed {
		r.record(ctx, cand)
		logger.Info("checkout identity resolved", map[string]any{
			"rule":      rule,
			"order_id":  cand.OrderID,
			"reference": cand.OrderReference,
			"cart_id":   cand.CartID,
		})
	}

	return checkout.Identity{
		OrderID:        work.OrderID,
		OrderReference: work.OrderReference,
		CartID:         work.SuccessCartID,
	}, true
}

// derive applies the resolution rules in order. It may clear stale fields
// of work; it never sets identity fields on it.
func (r *RepoResolver) derive(
	ctx context.Context,
	work *session.Context,
	in observed,
) (checkout.Identity, string) {

	// 1. an order id is canonical
	if in.orderID > 0 {
		cand := checkout.Identity{OrderID: in.orderID, OrderReference: in.reference}
		if in.orderID == work.OrderID {
			if cand.OrderReference == "" {
				cand.OrderReference = work.OrderReference
			}
			cand.CartID = work.SuccessCartID
		}
		return cand, RuleOrderID
	}
	if work.OrderID > 0 {
		return checkout.Identity{
			OrderID:        work.OrderID,
			OrderReference: work.OrderReference,
			CartID:         work.SuccessCartID,
		}, RuleOrderID
	}

	// 2. a reference, unless it belongs to another cart
	if ref := firstNonEmpty(in.reference, work.OrderReference); ref != "" {
		order, ok := r.lookup(ctx, "order_by_reference", func() (*checkout.Order, error) {
			return r.orders.FindOrderByReference(ctx, ref)
		})
		switch {
		case ok && work.CartID > 0 && order.CartID != work.CartID:
			logger.Warn("discarding stale order reference", map[string]any{
				"reference":   ref,
				"order_cart":  order.CartID,
				"active_cart": work.CartID,
			})
			r.metrics.StaleReference()
			if work.OrderReference == ref {
				work.OrderReference = ""
				work.SuccessCartID = 0
			}
		case ok:
			return identityOf(order), RuleReference
		}
	}

	// 3. the latest order placed from the cart
	cartID := work.CartID
	if cartID == 0 {
		cartID = work.SuccessCartID
	}
	if cartID == 0 {
		return checkout.Identity{}, RuleUnresolved
	}

	order, ok := r.lookup(ctx, "latest_order_by_cart", func() (*checkout.Order, error) {
		return r.orders.FindLatestOrderByCart(ctx, cartID)
	})
	if ok {
		return identityOf(order), RuleCart
	}

	// 4. the reference reserved on the cart before the order existed
	cart, err := r.orders.GetCart(ctx, cartID)
	if err != nil {
		r.lookupFailed("cart", err)
		return checkout.Identity{}, RuleUnresolved
	}
	if cart.ReservedReference == "" {
		return checkout.Identity{}, RuleUnresolved
	}
	order, ok = r.lookup(ctx, "order_by_reference", func() (*checkout.Order, error) {
		return r.orders.FindOrderByReference(ctx, cart.ReservedReference)
	})
	if ok && order.CartID == cartID {
		return identityOf(order), RuleReservedReference
	}

	// 5. callers must not guess
	return checkout.Identity{}, RuleUnresolved
}

// backfill completes the triple by id when a companion field is missing.
func (r *RepoResolver) backfill(ctx context.Context, cand *checkout.Identity) {
	if cand.OrderReference != "" && cand.CartID > 0 {
		return
	}
	order, ok := r.lookup(ctx, "order_by_id", func() (*checkout.Order, error) {
		return r.orders.FindOrderByID(ctx, cand.OrderID)
	})
	if !ok {
		return
	}
	if cand.OrderReference == "" {
		cand.OrderReference = order.Reference
	}
	if cand.CartID == 0 {
		cand.CartID = order.CartID
	}
}

func (r *RepoResolver) record(ctx context.Context, id checkout.Identity) {
	if r.recorder == nil || id.CartID == 0 || id.OrderReference == "" {
		return
	}
	if err := r.recorder.RecordOrderReference(ctx, id.CartID, id.OrderReference); err != nil {
		logger.Error("failed to record order reference on cart", map[string]any{
			"cart_id":   id.CartID,
			"reference": id.OrderReference,
			"error":     err.Error(),
		})
	}
}

// lookup runs fn and folds every failure into a miss.
func (r *RepoResolver) lookup(
	ctx context.Context,
	name string,
	fn func() (*checkout.Order, error),
) (*checkout.Order, bool) {
	if ctx.Err() != nil {
		return nil, false
	}
	order, err := fn()
	if err != nil {
		r.lookupFailed(name, err)
		return nil, false
	}
	if order == nil || order.ID <= 0 {
		return nil, false
	}
	return order, true
}

func (r *RepoResolver) lookupFailed(name string, err error) {
	if errors.Is(err, checkout.ErrNotFound) {
		return
	}
	r.metrics.LookupFailure(name)
	logger.Error("checkout lookup failed", map[string]any{
		"lookup": name,
		"error":  err.Error(),
	})
}

func identityOf(o *checkout.Order) checkout.Identity {
	return checkout.Identity{
		OrderID:        o.ID,
		OrderReference: o.Reference,
		CartID:         o.CartID,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
