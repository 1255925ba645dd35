package oauthfed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// providerCallDeadline bounds every outbound provider call per spec §5
// ("every outbound call to a provider token endpoint carries a bounded
// deadline (≤ 10 s) and is cancellable").
const providerCallDeadline = 10 * time.Second

// doWithRetry issues req with a bounded deadline and retries transient
// (5xx, connection-level) failures with capped exponential backoff, mirror
// of the bounded-retry idiom the pack uses around external calls.
func doWithRetry(ctx context.Context, client *http.Client, req *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, providerCallDeadline)
	defer cancel()
	req = req.Clone(ctx)

	return backoff.Retry(ctx, func() (*http.Response, error) {
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			return nil, fmt.Errorf("provider endpoint returned status %d", resp.StatusCode)
		}
		return resp, nil
	}, backoff.WithMaxTries(3), backoff.WithBackOff(backoff.NewExponentialBackOff()))
}
