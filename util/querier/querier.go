package querier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/semaphore"

	"github.com/initia-labs/transfervolume/config"
	"github.com/initia-labs/transfervolume/sentry_integration"
)

const (
	defaultQueryTimeout = 5 * time.Second
	maxRetriesPerURL    = 5
)

// callSenderBytes is the placeholder sender of read-only evm calls
var callSenderBytes = []byte{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 1,
}

type Querier struct {
	ChainId              string
	RestUrls             []string
	JsonRpcUrls          []string
	AccountAddressPrefix string
	Environment          string

	client  *fiber.Client
	limiter *semaphore.Weighted
	timeout time.Duration
	sender  string
}

// QueryCallResponse represents the response from EVM call endpoint
type QueryCallResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

func extractResponse[T any](response []byte) (T, error) {
	var t T
	if err := json.Unmarshal(response, &t); err != nil {
		return t, err
	}
	return t, nil
}

// finalError is an answer the endpoint gave successfully; asking again or
// asking another endpoint yields the same result
type finalError struct {
	err error
}

func (e *finalError) Error() string { return e.err.Error() }
func (e *finalError) Unwrap() error { return e.err }

// requestFunc is a function type that performs an HTTP request with a given endpoint URL
type requestFunc[T any] func(ctx context.Context, endpointURL string) (*T, error)

func NewQuerier(cfg *config.Config) *Querier {
	return newQuerier(cfg.GetChainConfig(), cfg.GetQueryTimeout(), cfg.GetMaxConcurrentRequests())
}

func newQuerier(cc *config.ChainConfig, timeout time.Duration, maxConcurrentRequests int) *Querier {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	if maxConcurrentRequests <= 0 {
		maxConcurrentRequests = config.DefaultMaxConcurrentRequests
	}

	sender, err := sdk.Bech32ifyAddressBytes(cc.AccountAddressPrefix, callSenderBytes)
	if err != nil {
		sender = sdk.AccAddress(callSenderBytes).String()
	}

	return &Querier{
		ChainId:              cc.ChainId,
		RestUrls:             cc.RestUrls,
		JsonRpcUrls:          cc.JsonRpcUrls,
		AccountAddressPrefix: cc.AccountAddressPrefix,
		Environment:          cc.Environment,
		client:               fiber.AcquireClient(),
		limiter:              semaphore.NewWeighted(int64(maxConcurrentRequests)),
		timeout:              timeout,
		sender:               sender,
	}
}

// executeWithEndpointRotation executes a request function with endpoint rotation and backoff.
// It starts from the first healthy endpoint and rotates when maxRetriesPerURL is exceeded
// for the current one.
func executeWithEndpointRotation[T any](ctx context.Context, endpoints []string, requestFn requestFunc[T]) (*T, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no endpoints configured")
	}

	startEndpointIndex := findHealthyEndpoint(endpoints)
	currentEndpointIndex := startEndpointIndex
	retriesPerEndpoint := 0
	totalRetries := 0
	loopSize := len(endpoints) * maxRetriesPerURL
	var lastErr error

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if retriesPerEndpoint >= maxRetriesPerURL {
			currentEndpointIndex = (currentEndpointIndex + 1) % len(endpoints)
			retriesPerEndpoint = 0

			// looped through all endpoints
			if currentEndpointIndex == startEndpointIndex {
				return nil, fmt.Errorf("exhausted all endpoints: %w", lastErr)
			}
		}

		endpoint := endpoints[currentEndpointIndex]
		res, err := requestFn(ctx, endpoint)
		if err == nil {
			recordEndpointSuccess(endpoint)
			return res, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var final *finalError
		if errors.As(err, &final) {
			recordEndpointSuccess(endpoint)
			return nil, final.err
		}

		lastErr = err
		recordEndpointFailure(endpoint)
		retriesPerEndpoint++
		totalRetries++

		if totalRetries == loopSize {
			sentry_integration.CaptureCurrentHubException(lastErr, sentry.LevelError)
			return nil, fmt.Errorf("exhausted all retries: %w", lastErr)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoffDelay(retriesPerEndpoint)):
		}
	}
}
