package backoff

import (
	"math"
	"math/rand"
	"time"
)

// Strategy calculates the delay before a retry attempt.
// Attempt numbering starts at 1 for the first retry.
type Strategy interface {
	NextInterval(attempt int) time.Duration
}

// Exponential implements exponential backoff with optional jitter.
// Jitter spreads retry times so concurrent clients do not retry in lockstep.
type Exponential struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64
}

// NextInterval returns min(Initial * Multiplier^(attempt-1) * (1 ± Jitter), Max).
func (e Exponential) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	initial := e.Initial
	if initial == 0 {
		initial = 100 * time.Millisecond
	}
	maxDelay := e.Max
	if maxDelay == 0 {
		maxDelay = time.Second
	}
	multiplier := e.Multiplier
	if multiplier == 0 {
		multiplier = 2
	}

	interval := float64(initial) * math.Pow(multiplier, float64(attempt-1))
	if e.Jitter > 0 {
		interval *= 1 + (rand.Float64()*2-1)*e.Jitter
	}
	if interval > float64(maxDelay) {
		interval = float64(maxDelay)
	}
	return time.Duration(interval)
}

// Fixed returns a constant delay between retries.
type Fixed struct {
	Interval time.Duration
}

func (f Fixed) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return f.Interval
}

// Default returns the strategy used for login/signup/refresh network retries:
// short initial delay, capped at one second.
func Default() Strategy {
	return Exponential{
		Initial:    100 * time.Millisecond,
		Max:        time.Second,
		Multiplier: 2,
		Jitter:     0.1,
	}
}
