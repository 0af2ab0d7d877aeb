package handler

import (
	"context"
	"net/http"

	"checkout-arbiter/internal/checkout"
	"checkout-arbiter/internal/checkout/resolver"
	"checkout-arbiter/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// cartOf returns the cart a REST call targets: the path id for guest
// carts, the session's active cart for carts/mine.
func cartOf(c *gin.Context, s *middleware.CheckoutSession) (int64, []resolver.Fragment) {
	param := c.Param("cartId")
	if cartID := resolver.ParseID(param); cartID > 0 {
		return cartID, resolver.FromCartParam(param)
	}
	return s.Context.CartID, nil
}

func (h *Handler) paymentInformation(c *gin.Context) {
	s := middleware.CurrentSession(c)
	cartID, _ := cartOf(c, s)

	details, err := h.guards.PaymentInformation(
		c.Request.Context(),
		&s.Context,
		cartID,
		resolver.FromQuery(c.Request.URL.Query()),
		h.payments.PaymentInformation,
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// bindPayment reads the payment method and the identity fragments the
// same body may carry.
func bindPayment(c *gin.Context) (checkout.Payment, []resolver.Fragment, bool) {
	var raw map[string]any
	if err := c.ShouldBindBodyWith(&raw, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return checkout.Payment{}, nil, false
	}
	pm, _ := raw["paymentMethod"].(map[string]any)
	method, _ := pm["method"].(string)
	if method == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return checkout.Payment{}, nil, false
	}
	return checkout.Payment{Method: method}, resolver.FromJSON(raw), true
}

func (h *Handler) savePayment(c *gin.Context) {
	s := middleware.CurrentSession(c)
	cartID, cartFrags := cartOf(c, s)

	payment, frags, ok := bindPayment(c)
	if !ok {
		return
	}

	saved, err := h.guards.SavePayment(c.Request.Context(), &s.Context, payment,
		append(cartFrags, frags...),
		func(ctx context.Context) (bool, error) {
			return h.payments.SavePaymentInformation(ctx, cartID, payment)
		})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *Handler) placeOrder(c *gin.Context) {
	s := middleware.CurrentSession(c)
	cartID, cartFrags := cartOf(c, s)

	payment, frags, ok := bindPayment(c)
	if !ok {
		return
	}

	orderID, err := h.guards.PlaceOrder(c.Request.Context(), &s.Context, payment,
		append(cartFrags, frags...),
		func(ctx context.Context) (int64, error) {
			return h.payments.PlaceOrder(ctx, cartID, payment)
		})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderID)
}
