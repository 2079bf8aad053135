package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// withTimeout wraps the context with a timeout if not already in a transaction.
// When inside a transaction (SessionContext), returns the original context unchanged
// with a no-op cancel function, as we cannot wrap SessionContext without breaking
// transaction semantics.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		// Inside transaction - cannot wrap SessionContext, return no-op cancel
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining > timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

// isDuplicateKey reports whether an insert hit one of the unique indexes.
func isDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
