package querier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/initia-labs/transfervolume/metrics"
	"github.com/initia-labs/transfervolume/types"
)

const (
	baseBackoffDelay  = 1 * time.Second
	maxBackoffDelay   = 30 * time.Second
	backoffMultiplier = 2.0
	jitterFactor      = 0.1

	futureHeightMessage = "invalid height: cannot query with height in the future"
)

// backoffDelay is swapped in tests
var backoffDelay = calculateBackoffDelay

// calculateBackoffDelay calculates exponential backoff delay with jitter
func calculateBackoffDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return baseBackoffDelay
	}

	baseSeconds := baseBackoffDelay.Seconds()
	delaySeconds := math.Min(baseSeconds*math.Pow(backoffMultiplier, float64(attempt-1)), maxBackoffDelay.Seconds())

	// +/- jitterFactor
	delaySeconds += delaySeconds * jitterFactor * (2*rand.Float64() - 1)
	if delaySeconds < baseSeconds {
		delaySeconds = baseSeconds
	}

	return time.Duration(delaySeconds*1000+0.5) * time.Millisecond
}

type ErrorResponse struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

// Get performs a GET request against baseUrl+path, bounded by the querier's concurrency limit
func (q *Querier) Get(ctx context.Context, baseUrl, path string, params map[string]string, headers map[string]string) ([]byte, error) {
	parsedUrl, err := url.Parse(baseUrl + path)
	if err != nil {
		return nil, err
	}
	if params != nil {
		query := parsedUrl.Query()
		for key, value := range params {
			query.Set(key, value)
		}
		parsedUrl.RawQuery = query.Encode()
	}

	return q.do(ctx, baseUrl+path, headers, func() *fiber.Agent {
		return q.client.Get(parsedUrl.String())
	})
}

// Post performs a POST request with a JSON payload against baseUrl+path
func (q *Querier) Post(ctx context.Context, baseUrl, path string, payload any, headers map[string]string) ([]byte, error) {
	return q.do(ctx, baseUrl+path, headers, func() *fiber.Agent {
		req := q.client.Post(baseUrl + path)
		if payload != nil {
			req = req.JSON(payload)
		}
		return req
	})
}

func (q *Querier) do(ctx context.Context, endpoint string, headers map[string]string, newAgent func() *fiber.Agent) ([]byte, error) {
	apiMetrics := metrics.GetMetrics().ExternalAPIMetrics()

	semaphoreStart := time.Now()
	if err := q.limiter.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("failed to acquire semaphore: %w", err)
	}
	defer q.limiter.Release(1)
	apiMetrics.SemaphoreWaitDuration.Observe(time.Since(semaphoreStart).Seconds())

	start := time.Now()
	apiMetrics.ConcurrentActive.Inc()
	defer func() {
		apiMetrics.ConcurrentActive.Dec()
		apiMetrics.Latency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	timeout := q.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	req := newAgent()
	for key, value := range headers {
		req.Set(key, value)
	}

	code, body, errs := req.Timeout(timeout).Bytes()
	if err := errors.Join(errs...); err != nil {
		apiMetrics.RequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, types.NewNetworkError(endpoint, err)
	}
	apiMetrics.RequestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", code)).Inc()

	switch code {
	case fiber.StatusOK:
		return body, nil
	case fiber.StatusTooManyRequests:
		apiMetrics.RateLimitHitsTotal.WithLabelValues(endpoint).Inc()
		return nil, errors.Join(types.NewRateLimitError(endpoint), fmt.Errorf("body: %s", string(body)))
	case fiber.StatusInternalServerError:
		var res ErrorResponse
		if err := json.Unmarshal(body, &res); err == nil && strings.Contains(res.Message, futureHeightMessage) {
			return nil, types.NewInvalidHeightError()
		}
	}

	return nil, types.NewNetworkError(endpoint, fmt.Errorf("http response: %d, body: %s", code, string(body)))
}
