// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the model backends.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/pdfmd/internal/retry"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// HTTP 429 responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 10 * time.Second

const defaultMaxRetries = 5

// errRateLimited marks a 429 response inside the retry loop.
var errRateLimited = errors.New("rate limited")

// DoWithRetry executes an HTTP request and retries on HTTP 429 (Too Many
// Requests) with exponential backoff starting at RetryBaseDelay.
//
// When maxRetries is 0 the default (5) is used. On each 429 the response
// body is drained and closed before sleeping, and the request body is
// rewound through req.GetBody. If the context is cancelled
// during a backoff wait the function returns ctx.Err(). After exhausting
// retries the last 429 response is returned so the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	var last *http.Response
	policy := retry.Policy[*http.Response]{
		MaxAttempts: maxRetries + 1,
		Backoff:     retry.Exponential(RetryBaseDelay),
		Retryable:   func(err error) bool { return errors.Is(err, errRateLimited) },
	}

	resp, err := policy.Run(ctx, func(ctx context.Context) (*http.Response, error) {
		attemptReq := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			attemptReq.Body = body
		}
		resp, err := client.Do(attemptReq)
		if err != nil {
			return nil, err
		}
		if last != nil {
			io.Copy(io.Discard, last.Body)
			last.Body.Close()
			last = nil
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		last = resp
		return nil, fmt.Errorf("%w: %s", errRateLimited, resp.Status)
	})
	if err == nil {
		return resp, nil
	}

	// Exhausted retries on 429: hand the last response back as-is.
	if errors.Is(err, errRateLimited) && last != nil && ctx.Err() == nil {
		return last, nil
	}
	if last != nil {
		io.Copy(io.Discard, last.Body)
		last.Body.Close()
	}
	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		return nil, exhausted.Err
	}
	return nil, err
}
