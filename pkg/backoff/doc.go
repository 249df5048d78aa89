// Package backoff provides retry delay strategies and a context-aware Retry
// helper for transient network failures against the identity provider.
//
//	err := backoff.Retry(ctx, 2, backoff.Exponential{Initial: 100 * time.Millisecond}, func(ctx context.Context) error {
//		return adapter.Refresh(ctx)
//	})
package backoff
