// SPDX-License-Identifier: MPL-2.0

package github

import (
	"context"
	"fmt"
	"time"
)

// retryFixed retries op up to maxAttempts times with a fixed delay between
// attempts. It checks ctx between retries so a cancelled run stops waiting
// immediately instead of sleeping through the remaining attempts.
//
// op returns (shouldRetry bool, err error). If shouldRetry is false, err is
// returned immediately (nil on success, non-nil on permanent failure).
// On retry exhaustion, the last error is returned.
func retryFixed(
	ctx context.Context,
	maxAttempts int,
	delay time.Duration,
	op func(attempt int) (retry bool, err error),
) error {
	var lastErr error
	for attempt := range maxAttempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("retry aborted: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		retry, err := op(attempt)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}
	return lastErr
}
