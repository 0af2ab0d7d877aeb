package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GinSession adapts the net/http SessionMiddleware to Gin.
func GinSession(m *SessionMiddleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Bridge handler to allow net/http middleware execution
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Request = r
			c.Next()
		})

		m.Attach(next).ServeHTTP(c.Writer, c.Request)

		// If the middleware already handled the response, stop Gin chain
		if c.Writer.Written() {
			c.Abort()
			return
		}
	}
}

// CurrentSession returns the checkout session of c. Outside GinSession it
// returns a detached empty session, so handlers never need a nil check.
func CurrentSession(c *gin.Context) *CheckoutSession {
	if s, ok := SessionFromContext(c.Request.Context()); ok {
		return s
	}
	return &CheckoutSession{IsNew: true}
}
