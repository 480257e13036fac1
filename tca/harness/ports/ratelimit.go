package harnessports

import "context"

// RateLimiter throttles outbound gateway traffic.
type RateLimiter interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}
