package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/pebble-dev/rebble-weather/internal/telemetry"
)

var (
	errServerError  = errors.New("server error")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// breakerOpenTimeout is how long a tripped breaker fails calls before
// letting a trial request through. A brief upstream outage must only fail
// the requests made during it.
var breakerOpenTimeout = 10 * time.Second

// newCircuitBreaker returns the breaker settings shared by every upstream.
func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     breakerOpenTimeout,
	})
}

// doRequest executes a single upstream request through the circuit breaker.
// Only transport failures and 5xx responses count against the breaker; any
// other response is handed back to the caller to interpret. There are no
// retries: a failed upstream call fails the legacy request.
func doRequest(
	ctx context.Context,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	upstream string,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if client == nil {
		return nil, errNoHTTPClient
	}

	req, err := buildRequest()
	if err != nil {
		return nil, err
	}
	// Ensure the request obeys context cancellation.
	req = req.WithContext(ctx)

	start := time.Now()
	status := "error"
	defer func() {
		telemetry.UpstreamCallsTotal.WithLabelValues(upstream, status).Inc()
		telemetry.UpstreamLatency.WithLabelValues(upstream).Observe(time.Since(start).Seconds())
	}()

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		status = strconv.Itoa(resp.StatusCode)
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			status = "circuit_open"
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return resp, nil
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
