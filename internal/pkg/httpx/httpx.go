package httpx

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type HTTPStatusCoder interface {
	HTTPStatusCode() int
}

func IsRetryableHTTPStatus(code int) bool {
	if code == 408 || code == 429 {
		return true
	}
	return code >= 500 && code <= 599
}

func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var sc HTTPStatusCoder
	if errors.As(err, &sc) {
		return IsRetryableHTTPStatus(sc.HTTPStatusCode())
	}
	return false
}

func RetryAfterDuration(resp *http.Response, fallback, max time.Duration) time.Duration {
	sleepFor := fallback
	if resp != nil {
		if ra := strings.TrimSpace(resp.Header.Get("Retry-After")); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
				sleepFor = time.Duration(secs) * time.Second
			}
		}
	}
	if max > 0 && sleepFor > max {
		sleepFor = max
	}
	return sleepFor
}

func Jitter(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	j := 0.2
	delta := base.Seconds() * j
	low := base.Seconds() - delta
	high := base.Seconds() + delta
	if low < 0 {
		low = 0
	}
	v := low + rand.Float64()*(high-low)
	return time.Duration(v * float64(time.Second))
}

// Backoff tracks attempts against a bounded, exponentially growing delay.
// The caller owns the loop; Backoff owns the bookkeeping so cancellation
// interrupts the wait without losing the attempt count.
type Backoff struct {
	Base    time.Duration
	Max     time.Duration
	Retries int

	attempt int
}

// Next reports whether another attempt is allowed after a failure.
func (b *Backoff) Next() bool {
	if b.attempt >= b.Retries {
		return false
	}
	b.attempt++
	return true
}

func (b *Backoff) Attempt() int { return b.attempt }

// Delay returns the jittered delay for the current attempt.
func (b *Backoff) Delay(resp *http.Response) time.Duration {
	base := b.Base
	if base <= 0 {
		base = time.Second
	}
	for i := 1; i < b.attempt; i++ {
		base *= 2
		if b.Max > 0 && base > b.Max {
			base = b.Max
			break
		}
	}
	return Jitter(RetryAfterDuration(resp, base, b.Max))
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
