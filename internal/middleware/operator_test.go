package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"checkout-arbiter/internal/auth/operator"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeVerifier struct {
	token string
}

func (f fakeVerifier) Verify(_ context.Context, raw string) (*operator.Operator, error) {
	if raw != f.token {
		return nil, errors.New("oidc: invalid token")
	}
	return &operator.Operator{Subject: "ops-1", Email: "ops@example.com"}, nil
}

func TestRequireOperator(t *testing.T) {
	r := gin.New()
	r.Use(GinRequireOperator(NewOperatorMiddleware(fakeVerifier{token: "good"})))
	r.GET("/ops", func(c *gin.Context) {
		op, ok := OperatorFromContext(c.Request.Context())
		if assert.True(t, ok) {
			c.String(http.StatusOK, op.Subject)
		}
	})

	cases := map[string]struct {
		header string
		want   int
	}{
		"missing":    {header: "", want: http.StatusUnauthorized},
		"not bearer": {header: "Basic Zm9vOmJhcg==", want: http.StatusUnauthorized},
		"empty":      {header: "Bearer  ", want: http.StatusUnauthorized},
		"invalid":    {header: "Bearer bad", want: http.StatusUnauthorized},
		"valid":      {header: "Bearer good", want: http.StatusOK},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ops", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
			if tc.want == http.StatusOK {
				assert.Equal(t, "ops-1", rec.Body.String())
			}
		})
	}
}
