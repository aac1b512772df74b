package dashboard

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ReloadPolicy bounds automatic reloads after failed fetches. Each failure
// waits a fixed delay; after the allowed number of consecutive failures it gives up until a
// fetch succeeds again.
type ReloadPolicy struct {
	b backoff.BackOff
}

// NewReloadPolicy returns a policy allowing maxReloads reloads spaced by delay.
func NewReloadPolicy(delay time.Duration, maxReloads int) *ReloadPolicy {
	if maxReloads < 0 {
		maxReloads = 0
	}
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), uint64(maxReloads))
	b.Reset()
	return &ReloadPolicy{b: b}
}

// OnFailure returns the delay before the next reload, or false when the
// policy has given up.
func (p *ReloadPolicy) OnFailure() (time.Duration, bool) {
	d := p.b.NextBackOff()
	if d == backoff.Stop {
		return 0, false
	}
	return d, true
}

// OnSuccess resets the failure count.
func (p *ReloadPolicy) OnSuccess() {
	p.b.Reset()
}
