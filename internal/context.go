package internal

import (
	"context"
	"time"

	coreuser "github.com/frahmantamala/helpdesk/internal/core/user"
)

type ctxKey string

const ContextIdentityKey ctxKey = "identity"

// IdentityFromContext returns the identity resolved for the current request.
func IdentityFromContext(ctx context.Context) (*coreuser.Identity, bool) {
	if ctx == nil {
		return nil, false
	}
	identity, ok := ctx.Value(ContextIdentityKey).(*coreuser.Identity)
	return identity, ok && identity != nil
}

func ContextWithIdentity(ctx context.Context, identity *coreuser.Identity) context.Context {
	return context.WithValue(ctx, ContextIdentityKey, identity)
}

// DefaultStoreTimeout bounds a store round trip when the caller gives no limit.
const DefaultStoreTimeout = 5 * time.Second

// WithTimeout bounds ctx by limit, or by DefaultStoreTimeout when limit is not positive.
func WithTimeout(ctx context.Context, limit time.Duration) (context.Context, context.CancelFunc) {
	if limit <= 0 {
		limit = DefaultStoreTimeout
	}
	return context.WithTimeout(ctx, limit)
}
