package cache

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// linearBackOff waits attempt × step between tries, capped at max
type linearBackOff struct {
	step    time.Duration
	max     time.Duration
	attempt int
}

var _ backoff.BackOff = (*linearBackOff)(nil)

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	d := time.Duration(b.attempt) * b.step
	if d > b.max {
		return b.max
	}
	return d
}

func (b *linearBackOff) Reset() {
	b.attempt = 0
}

// connectBackOff allows attempts tries in total
func connectBackOff(attempts int, step, max time.Duration) backoff.BackOff {
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithMaxRetries(&linearBackOff{step: step, max: max}, uint64(attempts-1))
}
