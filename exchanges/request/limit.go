package request

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// NewBasicRateLimit returns a rate limiter permitting actions per interval with
// the given burst. A zero interval or actions value yields an unlimited
// limiter.
func NewBasicRateLimit(interval time.Duration, actions, burst int) *rate.Limiter {
	if interval <= 0 || actions <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(float64(actions)/interval.Seconds()), burst)
}

// WithLimiter sets the rate limiter for a Requester
func WithLimiter(l *rate.Limiter) RequesterOption {
	return func(r *Requester) {
		r.limiter = l
	}
}

// WithSequencer shares seq between Requesters that sign with the same
// credentials
func WithSequencer(seq *Sequencer) RequesterOption {
	return func(r *Requester) {
		if seq != nil {
			r.seq = seq
		}
	}
}

// WithUserAgent sets the user agent sent with every request
func WithUserAgent(ua string) RequesterOption {
	return func(r *Requester) {
		if ua != "" {
			r.userAgent = ua
		}
	}
}

// initiateRateLimit blocks until the limiter allows the request or ctx is
// done
func (r *Requester) initiateRateLimit(ctx context.Context) error {
	if r.limiter == nil {
		return nil
	}
	return r.limiter.Wait(ctx)
}
