// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"
)

// BackoffUnit scales all retry delays. Tests override this to avoid real
// sleeps.
var BackoffUnit = time.Second

const (
	defaultMaxAttempts = 6

	statusBackoffBase    = 1.8
	statusBackoffCapSec  = 45.0
	networkBackoffBase   = 1.5
	networkBackoffCapSec = 30.0
)

// retryableStatus marks responses worth retrying: throttling and transient
// server-side failures.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// DoWithRetry executes requests produced by build, retrying transport errors
// and retryable HTTP statuses (429, 500, 502, 503, 504) with capped
// exponential backoff. A Retry-After header with an integer value overrides
// the computed delay. build is called once per attempt so request bodies are
// replayable.
//
// When maxAttempts is 0 the default (6) is used. The final retryable
// response is returned as-is so the caller can inspect it; persistent
// transport errors surface after the attempt budget is spent. A context
// cancellation during a backoff wait returns ctx.Err().
func DoWithRetry(ctx context.Context, client *http.Client, build func() (*http.Request, error), maxAttempts int) (*http.Response, error) {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := build()
		if err != nil {
			return nil, err
		}

		resp, err := client.Do(req.WithContext(ctx))
		if err != nil {
			lastErr = err
			if attempt == maxAttempts {
				break
			}
			if err := sleep(ctx, backoff(attempt, networkBackoffBase, networkBackoffCapSec)); err != nil {
				return nil, err
			}
			continue
		}

		if !retryableStatus(resp.StatusCode) || attempt == maxAttempts {
			return resp, nil
		}

		delay := backoff(attempt, statusBackoffBase, statusBackoffCapSec)
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil {
				delay = time.Duration(secs) * BackoffUnit
			}
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", maxAttempts, lastErr)
}

func backoff(attempt int, base, capSec float64) time.Duration {
	secs := math.Min(capSec, math.Pow(base, float64(attempt)))
	return time.Duration(secs * float64(BackoffUnit))
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
