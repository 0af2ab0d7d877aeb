package handler

import (
	"net/http"

	"checkout-arbiter/internal/middleware"

	"github.com/gin-gonic/gin"
)

type addItemRequest struct {
	CartItem struct {
		SKU string `json:"sku" binding:"required"`
		Qty int    `json:"qty" binding:"required,min=1"`
	} `json:"cartItem"`
}

// addItem changes the cart contents, which starts a new checkout for the
// session: every success artifact of an earlier order is dropped.
func (h *Handler) addItem(c *gin.Context) {
	s := middleware.CurrentSession(c)
	cartID, _ := cartOf(c, s)
	if cartID == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.payments.AddCartItem(c.Request.Context(), cartID, req.CartItem.SKU, req.CartItem.Qty); err != nil {
		writeError(c, err)
		return
	}

	h.guards.Lifecycle().CartChanged(&s.Context)
	s.Context.CartID = cartID

	c.JSON(http.StatusOK, gin.H{
		"cart_id": cartID,
		"sku":     req.CartItem.SKU,
		"qty":     req.CartItem.Qty,
	})
}
