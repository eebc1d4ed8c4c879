package query

import (
	"context"
	"errors"
	"time"
)

// transient is implemented by errors that know whether a retry could succeed.
type transient interface {
	Transient() bool
}

// IsTransient reports whether err is worth retrying: transport failures and the
// 408/429/5xx responses mark themselves transient. Cancellation and unknown errors are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var t transient
	if errors.As(err, &t) {
		return t.Transient()
	}
	return false
}

// RetryPolicy is a capped exponential backoff applied to transient failures.
type RetryPolicy struct {
	Retries   int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// Retryable decides which errors are retried; nil means IsTransient.
	Retryable func(error) bool
}

func (p RetryPolicy) retryable(err error) bool {
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return IsTransient(err)
}

// Do runs fn, retrying up to Retries times while the error is retryable.
func (p RetryPolicy) Do(ctx context.Context, fn func(context.Context) error) error {
	retries := p.Retries
	if retries < 0 {
		retries = 0
	}
	delay := p.BaseDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= retries || !p.retryable(err) {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
}
