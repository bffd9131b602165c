package ledger

import "time"

// RetryPolicy controls automatic re-attempts of transiently failed changes.
type RetryPolicy struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	MaxRetries int
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		BaseDelay:  2 * time.Second,
		MaxDelay:   5 * time.Minute,
		MaxRetries: 8,
	}
}

// Delay is the wait after the retryCount-th failure: BaseDelay doubled per
// previous failure, capped at MaxDelay.
func (p RetryPolicy) Delay(retryCount int) time.Duration {
	if retryCount < 1 {
		return 0
	}
	d := p.BaseDelay
	for i := 1; i < retryCount; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Exhausted reports whether retryCount failures use up the retry budget.
func (p RetryPolicy) Exhausted(retryCount int) bool {
	return p.MaxRetries > 0 && retryCount >= p.MaxRetries
}
