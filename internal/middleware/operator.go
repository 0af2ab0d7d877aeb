package middleware

import (
	"context"
	"net/http"
	"strings"

	"checkout-arbiter/internal/auth/operator"
	"checkout-arbiter/internal/logger"

	"github.com/gin-gonic/gin"
)

type operatorContextKeyType struct{}

var operatorKey = operatorContextKeyType{}

// OperatorFromContext extracts the verified operator from ctx.
func OperatorFromContext(ctx context.Context) (*operator.Operator, bool) {
	op, ok := ctx.Value(operatorKey).(*operator.Operator)
	return op, ok
}

type OperatorMiddleware struct {
	Verifier operator.TokenVerifier
}

func NewOperatorMiddleware(v operator.TokenVerifier) *OperatorMiddleware {
	return &OperatorMiddleware{Verifier: v}
}

// RequireOperator rejects requests without a valid bearer ID token.
func (o *OperatorMiddleware) RequireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		op, err := o.Verifier.Verify(r.Context(), strings.TrimSpace(raw))
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		logger.Info("operator request", map[string]any{
			"sub":    op.Subject,
			"method": r.Method,
			"path":   r.URL.Path,
		})

		ctx := context.WithValue(r.Context(), operatorKey, op)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GinRequireOperator adapts RequireOperator to Gin.
func GinRequireOperator(o *OperatorMiddleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Request = r
			c.Next()
		})

		o.RequireOperator(next).ServeHTTP(c.Writer, c.Request)

		if c.Writer.Written() {
			c.Abort()
			return
		}
	}
}
