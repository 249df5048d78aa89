// Package ratelimit tracks failed authentication attempts per identifier
// (client IP, optionally email) in a sliding window and blocks further
// attempts once the threshold is exceeded.
//
// Unlike a request throttle, only failures consume budget: a successful
// attempt resets the identifier's counter. The check itself never records
// anything, so a blocked caller cannot extend its own block by retrying.
//
//	limiter, _ := ratelimit.New(ratelimit.NewMemoryStore(), 5, 15*time.Minute)
//	res, _ := limiter.Check(ctx, clientIP)
//	if !res.Allowed { ... }
//	// on failed login:
//	_ = limiter.RecordFailure(ctx, clientIP)
//	// on success:
//	_ = limiter.Reset(ctx, clientIP)
package ratelimit
