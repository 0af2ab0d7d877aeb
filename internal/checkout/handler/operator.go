package handler

import (
	"net/http"
	"time"

	"checkout-arbiter/internal/session"

	"github.com/gin-gonic/gin"
)

type sessionView struct {
	OrderID        int64      `json:"order_id,omitempty"`
	OrderReference string     `json:"order_reference,omitempty"`
	CartID         int64      `json:"cart_id,omitempty"`
	SuccessCartID  int64      `json:"success_cart_id,omitempty"`
	SuccessAt      *time.Time `json:"success_at,omitempty"`
	LockUntil      *time.Time `json:"lock_until,omitempty"`
	PendingCleanup bool       `json:"pending_cleanup"`
}

func viewOf(sc session.Context) sessionView {
	v := sessionView{
		OrderID:        sc.OrderID,
		OrderReference: sc.OrderReference,
		CartID:         sc.CartID,
		SuccessCartID:  sc.SuccessCartID,
		PendingCleanup: sc.PendingCleanup,
	}
	if !sc.SuccessAt.IsZero() {
		t := sc.SuccessAt.UTC()
		v.SuccessAt = &t
	}
	if !sc.LockUntil.IsZero() {
		t := sc.LockUntil.UTC()
		v.LockUntil = &t
	}
	return v
}

// RegisterOperatorRoutes mounts the support surfaces. r must
// authenticate its callers.
func (h *Handler) RegisterOperatorRoutes(r gin.IRoutes) {
	r.GET("/ops/sessions/:id", h.inspectSession)
	r.DELETE("/ops/sessions/:id", h.resetSession)
}

func (h *Handler) inspectSession(c *gin.Context) {
	id := c.Param("id")
	if !session.ValidID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	sc, err := h.sessions.Load(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if sc.Empty() {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, viewOf(sc))
}

func (h *Handler) resetSession(c *gin.Context) {
	id := c.Param("id")
	if !session.ValidID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	if err := h.sessions.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
