package weather

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/pebble-dev/rebble-weather/internal/telemetry"
)

// Service runs the legacy translation pipeline: auth check, forecast fetch
// and inversion, conditions fetch and remap, envelope assembly. Upstream
// calls are made one after another and any failure aborts the request.
type Service struct {
	auth     Authorizer
	provider Provider
	now      func() time.Time
}

// NewService creates a new Service.
func NewService(auth Authorizer, provider Provider) *Service {
	return &Service{
		auth:     auth,
		provider: provider,
		now:      time.Now,
	}
}

// Geocode answers a single legacy geocode request.
func (s *Service) Geocode(ctx context.Context, q GeoQuery) (Envelope, error) {
	if q.AccessToken == "" {
		return Envelope{}, ErrMissingCredential
	}
	if q.Units == "" {
		q.Units = DefaultUnits
	}
	if q.Language == "" {
		q.Language = DefaultLanguage
	}

	account, err := s.auth.CurrentUser(ctx, q.AccessToken)
	if err != nil {
		return Envelope{}, err
	}
	if !account.IsSubscribed {
		return Envelope{}, ErrSubscriptionRequired
	}

	telemetry.AddField(ctx, "user", account.UID)
	telemetry.AddField(ctx, "weather.language", q.Language)
	telemetry.AddField(ctx, "weather.units", string(q.Units))
	telemetry.AddField(ctx, "weather.api_version", "v2")
	telemetry.AddField(ctx, "weather.provider", s.provider.Name())

	rawForecast, err := s.provider.Forecast(ctx, q)
	if err != nil {
		return Envelope{}, err
	}
	forecasts, err := TranslateForecast(q, rawForecast)
	if err != nil {
		log.Printf("ERROR: forecast for %s from %s: %v", q.Geocode(), s.provider.Name(), err)
		return Envelope{}, err
	}

	rawCurrent, err := s.provider.CurrentConditions(ctx, q)
	if err != nil {
		return Envelope{}, err
	}
	conditions, err := RemapConditions(s.provider.Schema(), q, rawCurrent, uuid.NewString())
	if err != nil {
		return Envelope{}, fmt.Errorf("remap conditions: %w", err)
	}

	return BuildEnvelope(forecasts, conditions, s.now()), nil
}

// BuildEnvelope assembles the response body. The errors flags are always
// false: a failed section never reaches this point.
func BuildEnvelope(forecasts []Record, conditions Conditions, now time.Time) Envelope {
	if forecasts == nil {
		forecasts = []Record{}
	}
	return Envelope{
		Forecast: ForecastSection{
			Data: ForecastData{Forecasts: forecasts},
		},
		Conditions: ConditionsSection{
			Data: conditions,
		},
		Metadata: EnvelopeMetadata{
			Version:       2,
			TransactionID: strconv.FormatInt(now.Unix(), 10),
		},
	}
}
