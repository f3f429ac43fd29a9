package querier

import (
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
)

const (
	// Circuit breaker thresholds
	failureThreshold = 3               // consecutive failures before marking unhealthy
	recoveryTimeout  = 5 * time.Minute // time before retrying an unhealthy endpoint
)

// endpointHealth tracks health status of an endpoint
type endpointHealth struct {
	consecutiveFailures atomic.Int32
	lastFailureTime     atomic.Int64 // unix nanos
}

// healthTracker is keyed by endpoint URL
var healthTracker = xsync.NewMap[string, *endpointHealth]()

func getEndpointHealth(endpoint string) *endpointHealth {
	if h, ok := healthTracker.Load(endpoint); ok {
		return h
	}
	h, _ := healthTracker.LoadOrStore(endpoint, &endpointHealth{})
	return h
}

func recordEndpointSuccess(endpoint string) {
	getEndpointHealth(endpoint).consecutiveFailures.Store(0)
}

func recordEndpointFailure(endpoint string) {
	h := getEndpointHealth(endpoint)
	h.lastFailureTime.Store(time.Now().UnixNano())
	h.consecutiveFailures.Add(1)
}

// isEndpointHealthy reports whether an endpoint is below the failure threshold
// or has been quiet for recoveryTimeout
func isEndpointHealthy(endpoint string) bool {
	h := getEndpointHealth(endpoint)
	if h.consecutiveFailures.Load() < failureThreshold {
		return true
	}

	lastFailure := h.lastFailureTime.Load()
	if lastFailure == 0 {
		return false
	}
	return time.Since(time.Unix(0, lastFailure)) >= recoveryTimeout
}

// findHealthyEndpoint returns the index of the first healthy endpoint, or 0 if none are healthy
func findHealthyEndpoint(endpoints []string) int {
	for i, endpoint := range endpoints {
		if isEndpointHealthy(endpoint) {
			return i
		}
	}
	return 0
}
