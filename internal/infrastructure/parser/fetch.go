package parser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const maxBodyBytes = 8 << 20

// RetryPolicy bounds how often a failed page or feed fetch is repeated. The zero value makes a single attempt.
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
}

// fetcher performs GET requests, retrying network errors, 5xx and 429 responses with a constant delay.
type fetcher struct {
	client *http.Client
	retry  RetryPolicy
}

func newFetcher(client *http.Client, retry RetryPolicy) fetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return fetcher{client: client, retry: retry}
}

func (f fetcher) get(ctx context.Context, target string) ([]byte, error) {
	var body []byte
	attempt := func() error {
		var err error
		body, err = f.once(ctx, target)
		return err
	}

	var policy backoff.BackOff = backoff.NewConstantBackOff(f.retry.Delay)
	policy = backoff.WithMaxRetries(policy, uint64(max(f.retry.MaxRetries, 0)))
	if err := backoff.Retry(attempt, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}
	return body, nil
}

func (f fetcher) once(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("User-Agent", "LeadScout/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("%s returned %s", target, resp.Status)
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			return nil, statusErr
		}
		return nil, backoff.Permanent(statusErr)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", target, err)
	}
	return body, nil
}
