package harvest

import (
	"context"
	"errors"
	"time"

	"github.com/fwojciec/cardgap"
)

// FetchFunc is the signature for a card fetch function.
type FetchFunc func(ctx context.Context, modelID string) (*cardgap.Card, error)

// LogFunc is the signature for a logging function.
type LogFunc func(format string, args ...any)

// DefaultRetryDelays returns the backoff delays for card fetch retries: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// FetchWithRetry fetches a card, retrying failed attempts after each of the
// given delays. Application errors such as ENOTFOUND are returned at once;
// only transport and server failures are retried.
func FetchWithRetry(ctx context.Context, modelID string, fetch FetchFunc, logger LogFunc, delays []time.Duration) (*cardgap.Card, error) {
	maxAttempts := len(delays) + 1

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		card, err := fetch(ctx, modelID)
		if err == nil {
			return card, nil
		}
		if !retryable(err) {
			return nil, err
		}
		lastErr = err

		if attempt >= maxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if logger != nil {
			logger("retry card %s (attempt %d): %v", modelID, attempt+2, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}

	return nil, lastErr
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	switch cardgap.ErrorCode(err) {
	case cardgap.ENOTFOUND, cardgap.EINVALID:
		return false
	}
	return true
}
