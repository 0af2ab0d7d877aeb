package middleware

import (
	"context"
	"net/http"
	"time"

	"checkout-arbiter/internal/logger"
	"checkout-arbiter/internal/session"
)

// unexported, collision-proof context key
type checkoutSessionKeyType struct{}

var checkoutSessionKey = checkoutSessionKeyType{}

// CheckoutSession is the per-request handle on a shopper's checkout state.
// Handlers mutate Context in place; the middleware persists what changed.
type CheckoutSession struct {
	ID      string
	Context session.Context
	// IsNew is set when the request carried no usable session cookie.
	IsNew bool

	loaded session.Context
}

// Changed lists the fields modified since the session was loaded.
func (s *CheckoutSession) Changed() []session.Field {
	return session.Diff(s.loaded, s.Context)
}

// SessionFromContext extracts the checkout session attached by Attach.
func SessionFromContext(ctx context.Context) (*CheckoutSession, bool) {
	s, ok := ctx.Value(checkoutSessionKey).(*CheckoutSession)
	return s, ok
}

// WithSession attaches s to ctx.
func WithSession(ctx context.Context, s *CheckoutSession) context.Context {
	return context.WithValue(ctx, checkoutSessionKey, s)
}

type SessionMiddleware struct {
	Store  session.Store
	TTL    time.Duration
	Cookie session.CookieOptions
}

func NewSessionMiddleware(store session.Store, ttl time.Duration, cookie session.CookieOptions) *SessionMiddleware {
	return &SessionMiddleware{Store: store, TTL: ttl, Cookie: cookie}
}

// Attach loads the checkout session before next runs and saves the fields
// next changed after it returns. Store failures never fail the request:
// the request proceeds on an empty context and nothing is written back.
func (m *SessionMiddleware) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. Read session cookie, or start a new session
		sessionID := session.ReadCookie(r)
		isNew := sessionID == ""
		if isNew {
			id, err := session.GenerateID()
			if err != nil {
				logger.Error("failed to generate checkout session id", map[string]any{
					"error": err.Error(),
				})
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			sessionID = id
		}
		session.SetCookie(w, sessionID, time.Now().Add(m.TTL), m.Cookie)

		// 2. Load context
		s := &CheckoutSession{ID: sessionID, IsNew: isNew}
		loadFailed := false
		if !isNew {
			sc, err := m.Store.Load(r.Context(), sessionID)
			if err != nil {
				loadFailed = true
				logger.Warn("checkout session unavailable, continuing without state", map[string]any{
					"error": err.Error(),
				})
			} else {
				s.Context = sc
				s.loaded = sc
			}
		}

		// 3. Run the request
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))

		// 4. Persist only what this request changed
		if loadFailed {
			return
		}
		fields := s.Changed()
		if len(fields) == 0 {
			return
		}
		if err := m.Store.Save(context.WithoutCancel(r.Context()), sessionID, s.Context, fields...); err != nil {
			logger.Error("failed to save checkout session", map[string]any{
				"error":  err.Error(),
				"fields": fields,
			})
		}
	})
}
