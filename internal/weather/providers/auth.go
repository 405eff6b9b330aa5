package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/pebble-dev/rebble-weather/internal/weather"
)

// AuthClient implements weather.Authorizer against the Rebble auth service.
type AuthClient struct {
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewAuthClient(client *http.Client, baseURL string) *AuthClient {
	return &AuthClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		circuit: newCircuitBreaker("auth"),
	}
}

// CurrentUser looks up the account owning accessToken.
func (a *AuthClient) CurrentUser(ctx context.Context, accessToken string) (weather.Account, error) {
	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, a.baseURL+"/api/v1/me", nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+accessToken)
		return req, nil
	}

	resp, err := doRequest(ctx, a.client, a.circuit, "auth", buildRequest)
	if err != nil {
		return weather.Account{}, fmt.Errorf("%w: %w", weather.ErrUpstreamAuth, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return weather.Account{}, weather.ErrInvalidCredential
	}
	if !isSuccess(resp.StatusCode) {
		return weather.Account{}, fmt.Errorf("%w: status %d", weather.ErrUpstreamAuth, resp.StatusCode)
	}

	var account weather.Account
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		return weather.Account{}, fmt.Errorf("%w: decode: %v", weather.ErrUpstreamAuth, err)
	}
	return account, nil
}
