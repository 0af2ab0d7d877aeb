package handler

import (
	"html/template"
	"net/http"

	"checkout-arbiter/internal/checkout/guard"
	"checkout-arbiter/internal/checkout/resolver"
	"checkout-arbiter/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
)

var successTemplate = template.Must(template.New("success").Parse(`<!doctype html>
<html>
<head><title>Thank you for your order</title></head>
<body>
<h1>Thank you for your order</h1>
<p>Your order number is <strong>{{.OrderReference}}</strong>.</p>
</body>
</html>
`))

func (h *Handler) successView(c *gin.Context) {
	s := middleware.CurrentSession(c)

	d := h.guards.SuccessView(c.Request.Context(), &s.Context, resolver.FromQuery(c.Request.URL.Query()))
	if !d.Render {
		c.Redirect(http.StatusFound, d.Location)
		return
	}

	c.Set(actionKey, guard.ActionSuccessView)
	c.Render(http.StatusOK, render.HTML{
		Template: successTemplate,
		Data:     d.Identity,
	})
}
