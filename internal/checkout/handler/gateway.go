package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"checkout-arbiter/internal/checkout"
	"checkout-arbiter/internal/checkout/gate"
	"checkout-arbiter/internal/checkout/guard"
	"checkout-arbiter/internal/checkout/resolver"
	"checkout-arbiter/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func (h *Handler) startCheckout(c *gin.Context) {
	s := middleware.CurrentSession(c)

	reset := h.guards.Lifecycle().StartCheckout(&s.Context, gate.Start{
		Referer:       c.Request.Referer(),
		GatewayReturn: c.Query("gateway_return") != "",
	}, h.guards.Now())

	if cartID := resolver.ParseID(c.Query("cart_id")); reset && cartID > 0 {
		s.Context.CartID = cartID
	}

	c.JSON(http.StatusOK, gin.H{
		"checkout_url": h.cfg.CheckoutURL,
		"reset":        reset,
	})
}

func (h *Handler) gatewayCookie(c *gin.Context) {
	s := middleware.CurrentSession(c)
	ajax := IsAJAX(c.Request)

	d := h.guards.CookiePing(c.Request.Context(), &s.Context, guard.CookieRequest{
		AJAX:      ajax,
		Referer:   c.Request.Referer(),
		Fragments: resolver.FromQuery(c.Request.URL.Query()),
	})

	switch d.Action {
	case guard.CookieNoOp:
		c.Status(http.StatusNoContent)
	case guard.CookieRedirectPayload:
		c.JSON(http.StatusOK, gin.H{"redirect": d.Location})
	case guard.CookieNavigate:
		c.Redirect(http.StatusFound, d.Location)
	default:
		// the gateway's own cookie hop: hand the shopper back to checkout
		if ajax {
			c.JSON(http.StatusOK, gin.H{"redirect": h.cfg.CheckoutURL})
			return
		}
		c.Redirect(http.StatusFound, h.cfg.CheckoutURL)
	}
}

// gatewayConfig points the gateway's post-payment redirect straight at
// the success view so the cookie hop is skipped where possible.
func (h *Handler) gatewayConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"redirect_url": h.cfg.SuccessURL,
	})
}

func (h *Handler) quoteStatus(c *gin.Context) {
	s := middleware.CurrentSession(c)

	var body map[string]any
	if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	frags := append(resolver.FromQuery(c.Request.URL.Query()), resolver.FromJSON(body)...)

	status, err := h.guards.StatusPoll(c.Request.Context(), &s.Context, frags,
		func(ctx context.Context, id checkout.Identity) (*checkout.CartStatus, error) {
			cartID := s.Context.CartID
			if cartID == 0 {
				cartID = id.CartID
			}
			if cartID == 0 {
				return nil, checkout.ErrNotFound
			}
			return h.payments.CartStatus(ctx, cartID)
		})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
