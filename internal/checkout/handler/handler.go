package handler

import (
	"errors"
	"net/http"
	"strings"

	"checkout-arbiter/internal/checkout"
	"checkout-arbiter/internal/checkout/guard"
	"checkout-arbiter/internal/logger"
	"checkout-arbiter/internal/middleware"
	"checkout-arbiter/internal/session"

	"github.com/gin-gonic/gin"
)

// actionKey carries the action name of the handled route to PostRender.
const actionKey = "checkout.action"

type Config struct {
	SuccessURL  string
	CheckoutURL string
}

type Handler struct {
	guards   *guard.Guards
	payments checkout.PaymentService
	sessions session.Store
	cfg      Config
}

func NewHandler(
	guards *guard.Guards,
	payments checkout.PaymentService,
	sessions session.Store,
	cfg Config,
) *Handler {
	return &Handler{
		guards:   guards,
		payments: payments,
		sessions: sessions,
		cfg:      cfg,
	}
}

// RegisterRoutes mounts the shopper-facing surfaces. r must run the
// checkout session middleware.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.Use(PostRender(h.guards))

	r.GET("/checkout", h.startCheckout)
	r.GET("/checkout/gateway/cookie", h.gatewayCookie)
	r.GET("/checkout/gateway/config", h.gatewayConfig)
	r.POST("/checkout/gateway/quote-status", h.quoteStatus)
	r.GET("/checkout/onepage/success", h.successView)

	for _, prefix := range []string{"/rest/V1/guest-carts/:cartId", "/rest/V1/carts/mine"} {
		r.GET(prefix+"/payment-information", h.paymentInformation)
		r.GET(prefix+"/payment-details", h.paymentInformation)
		r.POST(prefix+"/set-payment-information", h.savePayment)
		r.POST(prefix+"/payment-information", h.placeOrder)
		r.POST(prefix+"/items", h.addItem)
	}
}

// PostRender runs the post-render cleanup once the handler chain has
// produced its response status.
func PostRender(g *guard.Guards) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		action := c.GetString(actionKey)
		if action == "" {
			return
		}
		s := middleware.CurrentSession(c)
		g.AfterRender(&s.Context, action, c.Writer.Status())
	}
}

// IsAJAX reports whether r was issued by script rather than by a
// top-level navigation.
func IsAJAX(r *http.Request) bool {
	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// writeError maps a real-operation failure to a JSON error response.
func writeError(c *gin.Context, err error) {
	if errors.Is(err, checkout.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	logger.Error("checkout operation failed", map[string]any{
		"path":  c.FullPath(),
		"error": err.Error(),
	})
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
