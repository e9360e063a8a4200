package session

import "context"

// Store is durable key-value persistence for the bearer token, surviving a
// full process restart. The token is opaque: implementations never inspect
// it. No cross-process locking is required; one portal process owns the
// stored credential at a time.
//
// Implementations never swallow errors. Deciding what a failed load means is
// the session manager's call.
type Store interface {
	// Save persists the token, replacing any previous one.
	Save(ctx context.Context, token string) error

	// Load returns the persisted token. The second return is false when no
	// token is stored; that is not an error.
	Load(ctx context.Context) (string, bool, error)

	// Clear removes the persisted token. Clearing an empty store is a no-op.
	Clear(ctx context.Context) error
}
