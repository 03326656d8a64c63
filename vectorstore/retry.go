// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package vectorstore

import (
	"context"
	"log/slog"
	"time"
)

// Retrying retries failed Add calls on the wrapped store.
type Retrying struct {
	next        Store
	maxAttempts int
	baseDelay   time.Duration
}

var _ Store = (*Retrying)(nil)

// NewRetrying wraps next so each Add is attempted up to maxAttempts times,
// waiting baseDelay and doubling it between attempts.
func NewRetrying(next Store, maxAttempts int, baseDelay time.Duration) (*Retrying, error) {
	if next == nil {
		return nil, ErrStoreRequired
	}
	if maxAttempts <= 0 {
		return nil, ErrInvalidMaxAttempts
	}
	return &Retrying{next: next, maxAttempts: maxAttempts, baseDelay: baseDelay}, nil
}

// Add forwards docs to the wrapped store, retrying on error.
func (r *Retrying) Add(ctx context.Context, docs []Document) error {
	return RetryWithBackoff(ctx, func() error {
		return r.next.Add(ctx, docs)
	}, r.maxAttempts, r.baseDelay)
}

// RetryWithBackoff retries an operation with exponential backoff.
// maxAttempts: maximum number of attempts (must be > 0)
// baseDelay: base delay between retries (doubles on each retry)
// Returns the error from the last attempt if all attempts fail.
func RetryWithBackoff(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var lastErr error
	delay := baseDelay
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		slog.Debug("operation failed, will retry", "attempt", attempt, "maxAttempts", maxAttempts, "err", lastErr)

		// Don't sleep after the last attempt
		if attempt == maxAttempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}

	return lastErr
}
