package httpclient

import (
	"context"
	"errors"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"
	gobreakerredis "github.com/sony/gobreaker/v2/redis"
)

// NewRedisStore creates a SharedDataStore backed by Redis, letting every
// process that uses the same breaker name share one circuit state.
//
// Usage:
//
//	rdb := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{"localhost:6379"}})
//	cfg := httpclient.DefaultBreakerConfig()
//	cfg.Store = httpclient.NewRedisStore(rdb)
//	client := httpclient.New(httpclient.WithCircuitBreaker(cfg))
func NewRedisStore(client redis.UniversalClient) gobreaker.SharedDataStore {
	return gobreakerredis.NewStoreFromClient(client)
}

// CircuitBreaker is the part of gobreaker used by the breaker transport.
type CircuitBreaker interface {
	Execute(req func() (interface{}, error)) (interface{}, error)
}

// BreakerClassifier decides whether an outcome counts as a failure toward
// tripping the breaker.
type BreakerClassifier func(resp *http.Response, err error) bool

// BreakerConfig holds the configuration for the circuit breaker.
//
// The breaker is shared by every request of a Client. While it is open,
// Execute fails at PhaseSend with gobreaker.ErrOpenState as the cause and
// no connection is attempted.
type BreakerConfig struct {
	// MaxRequests is the number of requests let through while half-open.
	// If 0, one request is allowed.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state after which the
	// failure counts are cleared. If 0, counts are never cleared while closed.
	Interval time.Duration

	// Timeout is how long the breaker stays open before going half-open.
	// If 0, gobreaker uses 60s.
	Timeout time.Duration

	// FailureThreshold is the minimum number of requests in the current
	// interval before the breaker may trip.
	FailureThreshold uint32

	// FailureRatio trips the breaker once this share of requests failed.
	FailureRatio float64

	// ConsecutiveFailures trips the breaker after this many failures in a
	// row. If 0, this rule is disabled.
	ConsecutiveFailures uint32

	// Store shares breaker state across processes. If nil, the breaker is
	// local to the Client.
	Store gobreaker.SharedDataStore

	// Classifier determines which outcomes count as failures.
	// Default: DefaultBreakerClassifier
	Classifier BreakerClassifier

	// OnStateChange is invoked when the breaker changes state.
	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultBreakerConfig returns a configuration for a local breaker.
//
//   - Interval: 10s
//   - Timeout: 10s
//   - FailureThreshold: 20 requests
//   - FailureRatio: 0.5
//   - ConsecutiveFailures: 5
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         1,
		Interval:            10 * time.Second,
		Timeout:             10 * time.Second,
		FailureThreshold:    20,
		FailureRatio:        0.5,
		ConsecutiveFailures: 5,
		Classifier:          DefaultBreakerClassifier,
	}
}

// DistributedBreakerConfig returns DefaultBreakerConfig with state kept in
// store.
func DistributedBreakerConfig(store gobreaker.SharedDataStore) BreakerConfig {
	cfg := DefaultBreakerConfig()
	cfg.Store = store
	return cfg
}

// DefaultBreakerClassifier counts network errors and 5xx responses as
// failures.
func DefaultBreakerClassifier(resp *http.Response, err error) bool {
	if err != nil {
		return isNetworkError(err)
	}
	return resp != nil && resp.StatusCode >= 500
}

// isNetworkError checks for common network errors.
func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT)
}

// breakerName is the identifier of the breaker of cfg. Distributed breakers
// with the same name share their state.
func breakerName(cfg *internalConfig) string {
	if cfg.ServiceName != "" {
		return cfg.ServiceName
	}
	return "httpfacade"
}

// newCircuitBreaker builds the breaker shared by all requests of a Client.
// It returns nil when cfg has no breaker configured.
func newCircuitBreaker(cfg *internalConfig) CircuitBreaker {
	bc := cfg.BreakerConfig
	if bc == nil {
		return nil
	}

	st := gobreaker.Settings{
		Name:        breakerName(cfg),
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return readyToTrip(bc, counts)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			cfg.Logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
			cfg.Metrics.recordBreakerState(context.Background(), name, int64(to))
			if bc.OnStateChange != nil {
				bc.OnStateChange(name, from, to)
			}
		},
	}

	if bc.Store != nil {
		dcb, err := gobreaker.NewDistributedCircuitBreaker[interface{}](bc.Store, st)
		if err == nil {
			return dcb
		}
		// A local breaker still protects this process.
		cfg.Logger.Warn().Err(err).Msg("distributed circuit breaker unavailable, using local state")
	}

	return gobreaker.NewCircuitBreaker[interface{}](st)
}

func readyToTrip(bc *BreakerConfig, counts gobreaker.Counts) bool {
	if bc.ConsecutiveFailures > 0 && counts.ConsecutiveFailures >= bc.ConsecutiveFailures {
		return true
	}
	if bc.FailureThreshold > 0 && counts.Requests < bc.FailureThreshold {
		return false
	}
	if bc.FailureRatio > 0 && counts.Requests > 0 {
		ratio := float64(counts.TotalFailures) / float64(counts.Requests)
		return ratio >= bc.FailureRatio
	}
	return false
}
