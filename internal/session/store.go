package session

import "context"

// Store persists checkout session contexts.
//
// Implementations are fail-soft: a missing session or a field that cannot
// be parsed loads as the zero value. Errors are reserved for transport
// failures.
type Store interface {
	// Load returns the context for sessionID, or an empty one.
	Load(ctx context.Context, sessionID string) (Context, error)

	// Save writes only the listed fields of c. Fields holding zero values
	// are removed. The session lifetime is refreshed on every save.
	Save(ctx context.Context, sessionID string, c Context, fields ...Field) error

	// Delete drops the whole session.
	Delete(ctx context.Context, sessionID string) error
}
