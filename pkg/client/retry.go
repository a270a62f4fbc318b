package client

import (
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Defaults for the Client retry behavior, see DefaultRetry.
const (
	// RetriesCount is the default number of retries of one request.
	RetriesCount = 5
	// RequestTimeout is the default total timeout of one request, including all retries.
	RequestTimeout = 30 * time.Second
	// RetryWaitTimeStart is the default delay before the first retry.
	RetryWaitTimeStart = 100 * time.Millisecond
	// RetryWaitTimeMax is the default maximum delay between retries.
	RetryWaitTimeMax = 3 * time.Second
)

// RetryConfig configures the Client retries.
type RetryConfig struct {
	// Condition decides whether a failed attempt is retried.
	Condition RetryCondition
	// Count is the maximum number of retries of one request.
	Count int
	// TotalRequestTimeout limits one request including all retries, 0 means no limit.
	TotalRequestTimeout time.Duration
	// WaitTimeStart is the delay before the first retry, it doubles with each attempt.
	WaitTimeStart time.Duration
	// WaitTimeMax caps the delay between retries.
	WaitTimeMax time.Duration
}

// RetryCondition decides whether a failed attempt is retried.
type RetryCondition func(*http.Response, error) bool

// DefaultRetry returns the retry configuration used by client.New.
func DefaultRetry() RetryConfig {
	return RetryConfig{
		Condition:           DefaultRetryCondition(),
		Count:               RetriesCount,
		TotalRequestTimeout: RequestTimeout,
		WaitTimeStart:       RetryWaitTimeStart,
		WaitTimeMax:         RetryWaitTimeMax,
	}
}

// TestingRetry returns the default retry configuration with short delays, for tests.
func TestingRetry() RetryConfig {
	v := DefaultRetry()
	v.WaitTimeStart = 1 * time.Millisecond
	v.WaitTimeMax = 1 * time.Millisecond
	return v
}

// DefaultRetryCondition retries network failures and the status codes
// a later attempt can realistically resolve.
func DefaultRetryCondition() RetryCondition {
	return func(response *http.Response, err error) bool {
		// Network error, retry unless the hostname cannot be resolved at all
		if response == nil || response.StatusCode == 0 {
			msg := err.Error()
			return !strings.Contains(msg, "no such host") &&
				!strings.Contains(msg, "No address associated with hostname")
		}

		switch response.StatusCode {
		case
			http.StatusRequestTimeout,
			http.StatusConflict,
			http.StatusLocked,
			http.StatusTooManyRequests:
			return true
		case
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}
}

// NewBackoff returns the exponential backoff driving the retry delays.
// It stops when a next delay would exceed the TotalRequestTimeout.
func (c RetryConfig) NewBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.WaitTimeStart
	b.MaxInterval = c.WaitTimeMax
	b.MaxElapsedTime = c.TotalRequestTimeout
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.Reset()
	return b
}
