package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/pebble-dev/rebble-weather/internal/weather"
)

const DefaultForecastDays = 15

// WeatherCompanyProvider implements weather.Provider for The Weather Company
// (api.weather.com). The forecast always comes from the v3 daily endpoint;
// current conditions come from whichever integration schema selects.
type WeatherCompanyProvider struct {
	name         string
	apiKey       string
	baseURL      string
	schema       weather.Schema
	forecastDays int
	client       *http.Client
	forecastCB   *gobreaker.CircuitBreaker
	conditionsCB *gobreaker.CircuitBreaker
}

func NewWeatherCompanyProvider(client *http.Client, baseURL, apiKey string, schema weather.Schema, forecastDays int) *WeatherCompanyProvider {
	if forecastDays <= 0 {
		forecastDays = DefaultForecastDays
	}
	return &WeatherCompanyProvider{
		name:         "weathercompany",
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		schema:       schema,
		forecastDays: forecastDays,
		client:       client,
		forecastCB:   newCircuitBreaker("forecast"),
		conditionsCB: newCircuitBreaker("conditions"),
	}
}

func (p *WeatherCompanyProvider) Name() string {
	return p.name
}

func (p *WeatherCompanyProvider) Schema() weather.Schema {
	return p.schema
}

// ForecastURL returns the daily forecast endpoint for q.
func (p *WeatherCompanyProvider) ForecastURL(q weather.GeoQuery) string {
	values := url.Values{}
	values.Set("geocode", q.Geocode())
	values.Set("format", "json")
	values.Set("units", string(q.Units))
	values.Set("language", q.Language)
	values.Set("apiKey", p.apiKey)

	return fmt.Sprintf("%s/v3/wx/forecast/daily/%dday?%s", p.baseURL, p.forecastDays, values.Encode())
}

// ConditionsURL returns the current observations endpoint for q under the
// configured schema.
func (p *WeatherCompanyProvider) ConditionsURL(q weather.GeoQuery) (string, error) {
	values := url.Values{}
	values.Set("units", string(q.Units))
	values.Set("language", q.Language)
	values.Set("apiKey", p.apiKey)

	switch p.schema {
	case weather.SchemaV1, weather.SchemaV2:
		return fmt.Sprintf("%s/%s/geocode/%s/%s/observations/current.json?%s",
			p.baseURL, p.schema,
			weather.FormatCoordinate(q.Latitude), weather.FormatCoordinate(q.Longitude),
			values.Encode()), nil
	case weather.SchemaV3:
		values.Set("geocode", q.Geocode())
		values.Set("format", "json")
		return fmt.Sprintf("%s/v3/wx/observations/current?%s", p.baseURL, values.Encode()), nil
	default:
		return "", fmt.Errorf("%w: %q", weather.ErrUnknownSchema, p.schema)
	}
}

func (p *WeatherCompanyProvider) Forecast(ctx context.Context, q weather.GeoQuery) (weather.Record, error) {
	payload, err := p.fetch(ctx, p.forecastCB, "forecast", p.ForecastURL(q))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", weather.ErrUpstreamForecast, err)
	}
	return payload, nil
}

func (p *WeatherCompanyProvider) CurrentConditions(ctx context.Context, q weather.GeoQuery) (weather.Record, error) {
	u, err := p.ConditionsURL(q)
	if err != nil {
		return nil, err
	}
	payload, err := p.fetch(ctx, p.conditionsCB, "conditions", u)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", weather.ErrUpstreamConditions, err)
	}
	return payload, nil
}

func (p *WeatherCompanyProvider) fetch(ctx context.Context, cb *gobreaker.CircuitBreaker, upstream, u string) (weather.Record, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("weather company api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	resp, err := doRequest(ctx, p.client, cb, upstream, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return weather.DecodePayload(resp.Body)
}
