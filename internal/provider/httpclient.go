package provider

import (
	"context"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// newHTTPClient builds the shared provider HTTP client: bounded retries on
// transient transport errors and 5xx responses, no retry on 4xx. 429s are
// deliberately not retried here — they surface as KindRateLimited so the
// caller can distinguish throttling from flakiness.
func newHTTPClient(timeout time.Duration) *http.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 1 * time.Second
	rc.Logger = nil
	rc.HTTPClient.Timeout = timeout
	rc.CheckRetry = checkRetry

	client := rc.StandardClient()
	client.Timeout = timeout
	return client
}

// checkRetry mirrors retryablehttp's default policy minus the 429 retry.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return false, nil
	}
	if resp.StatusCode == 0 || resp.StatusCode >= 500 {
		return true, nil
	}
	return false, nil
}
