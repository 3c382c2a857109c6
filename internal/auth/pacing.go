package auth

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"
)

// FailurePacer stretches failed authentication attempts to a minimum
// duration so that unknown accounts, wrong passwords and locked accounts are
// indistinguishable by response time.
type FailurePacer struct {
	min    time.Duration
	jitter time.Duration
}

func NewFailurePacer(min, jitter time.Duration) *FailurePacer {
	return &FailurePacer{min: min, jitter: jitter}
}

func (p *FailurePacer) target() time.Duration {
	if p.jitter <= 0 {
		return p.min
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(p.jitter)))
	if err != nil {
		return p.min
	}
	return p.min + time.Duration(n.Int64())
}

// Pad blocks until at least the target duration has passed since start, or
// ctx is done.
func (p *FailurePacer) Pad(ctx context.Context, start time.Time) {
	if p == nil {
		return
	}

	remaining := p.target() - time.Since(start)
	if remaining <= 0 {
		return
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
