package contracts

import "context"

// RateInfo carries the values rendered into X-RateLimit-* response headers.
type RateInfo struct {
	Limit     int
	Remaining int
	ResetAt   int64
}

// Limiter decides whether a request identified by key is allowed under the
// configured window. Implementations fail open: an infrastructure error
// returns allowed=true with zero-value info.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, RateInfo, error)
}
