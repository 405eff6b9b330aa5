package weather

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/pebble-dev/rebble-weather/internal/telemetry"
)

type fakeAuth struct {
	account Account
	err     error
	calls   int
}

func (f *fakeAuth) CurrentUser(ctx context.Context, token string) (Account, error) {
	f.calls++
	return f.account, f.err
}

type fakeProvider struct {
	forecast        Record
	current         Record
	forecastErr     error
	currentErr      error
	forecastCalls   int
	conditionsCalls int
}

func (f *fakeProvider) Name() string   { return "fake" }
func (f *fakeProvider) Schema() Schema { return SchemaV3 }

func (f *fakeProvider) Forecast(ctx context.Context, q GeoQuery) (Record, error) {
	f.forecastCalls++
	return f.forecast, f.forecastErr
}

func (f *fakeProvider) CurrentConditions(ctx context.Context, q GeoQuery) (Record, error) {
	f.conditionsCalls++
	return f.current, f.currentErr
}

func newFakeProvider(t *testing.T) *fakeProvider {
	return &fakeProvider{
		forecast: mustDecode(t, twoDayForecast),
		current:  mustDecode(t, v3Current),
	}
}

func TestServiceGeocode(t *testing.T) {
	auth := &fakeAuth{account: Account{UID: "42", IsSubscribed: true}}
	provider := newFakeProvider(t)
	svc := NewService(auth, provider)
	svc.now = func() time.Time { return time.Unix(1700000123, 0) }

	ev := telemetry.NewEvent()
	ctx := telemetry.WithEvent(context.Background(), ev)

	env, err := svc.Geocode(ctx, GeoQuery{Latitude: 40.7, Longitude: -74, AccessToken: "tok"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := len(env.Forecast.Data.Forecasts); n != 2 {
		t.Errorf("expected 2 forecasts, got %d", n)
	}
	if env.Forecast.Errors || env.Conditions.Errors {
		t.Error("expected errors flags to be false")
	}
	if env.Metadata.Version != 2 {
		t.Errorf("expected version 2, got %d", env.Metadata.Version)
	}
	if env.Metadata.TransactionID != "1700000123" {
		t.Errorf("unexpected transaction id %q", env.Metadata.TransactionID)
	}
	if _, ok := env.Conditions.Data.Observation["uk_hybrid"]; !ok {
		t.Error("expected default units to select the uk_hybrid block")
	}

	fields := ev.Fields()
	if fields["user"] != "42" || fields["weather.units"] != "h" || fields["weather.language"] != "en-US" {
		t.Errorf("unexpected telemetry fields: %v", fields)
	}
}

func TestServiceGeocodeAuthFailures(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		auth    *fakeAuth
		wantErr error
	}{
		{
			name:    "missing token",
			token:   "",
			auth:    &fakeAuth{account: Account{IsSubscribed: true}},
			wantErr: ErrMissingCredential,
		},
		{
			name:    "rejected token",
			token:   "bad",
			auth:    &fakeAuth{err: ErrInvalidCredential},
			wantErr: ErrInvalidCredential,
		},
		{
			name:    "not subscribed",
			token:   "tok",
			auth:    &fakeAuth{account: Account{UID: "7", IsSubscribed: false}},
			wantErr: ErrSubscriptionRequired,
		},
		{
			name:    "auth service down",
			token:   "tok",
			auth:    &fakeAuth{err: ErrUpstreamAuth},
			wantErr: ErrUpstreamAuth,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newFakeProvider(t)
			svc := NewService(tt.auth, provider)

			_, err := svc.Geocode(context.Background(), GeoQuery{AccessToken: tt.token})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if provider.forecastCalls != 0 || provider.conditionsCalls != 0 {
				t.Errorf("expected no weather calls, got forecast=%d conditions=%d",
					provider.forecastCalls, provider.conditionsCalls)
			}
		})
	}
}

func TestServiceGeocodeMissingTokenSkipsAuth(t *testing.T) {
	auth := &fakeAuth{}
	svc := NewService(auth, newFakeProvider(t))

	if _, err := svc.Geocode(context.Background(), GeoQuery{}); !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if auth.calls != 0 {
		t.Errorf("expected no auth calls, got %d", auth.calls)
	}
}

func TestServiceGeocodeUpstreamFailures(t *testing.T) {
	auth := &fakeAuth{account: Account{UID: "1", IsSubscribed: true}}

	t.Run("forecast failure", func(t *testing.T) {
		provider := newFakeProvider(t)
		provider.forecastErr = ErrUpstreamForecast
		_, err := NewService(auth, provider).Geocode(context.Background(), GeoQuery{AccessToken: "tok"})
		if !errors.Is(err, ErrUpstreamForecast) {
			t.Fatalf("expected ErrUpstreamForecast, got %v", err)
		}
		if provider.conditionsCalls != 0 {
			t.Error("conditions should not be fetched after a forecast failure")
		}
	})

	t.Run("malformed forecast", func(t *testing.T) {
		provider := newFakeProvider(t)
		provider.forecast = mustDecode(t, `{"dayOfWeek": ["Monday"], "daypart": [{}, {}]}`)
		_, err := NewService(auth, provider).Geocode(context.Background(), GeoQuery{AccessToken: "tok"})
		if !errors.Is(err, ErrMalformedUpstreamData) {
			t.Fatalf("expected ErrMalformedUpstreamData, got %v", err)
		}
		if provider.conditionsCalls != 0 {
			t.Error("conditions should not be fetched after a malformed forecast")
		}
	})

	t.Run("conditions failure", func(t *testing.T) {
		provider := newFakeProvider(t)
		provider.currentErr = ErrUpstreamConditions
		_, err := NewService(auth, provider).Geocode(context.Background(), GeoQuery{AccessToken: "tok"})
		if !errors.Is(err, ErrUpstreamConditions) {
			t.Fatalf("expected ErrUpstreamConditions, got %v", err)
		}
	})

	t.Run("invalid units", func(t *testing.T) {
		provider := newFakeProvider(t)
		_, err := NewService(auth, provider).Geocode(context.Background(), GeoQuery{AccessToken: "tok", Units: "q"})
		if !errors.Is(err, ErrInvalidUnits) {
			t.Fatalf("expected ErrInvalidUnits, got %v", err)
		}
	})
}

func TestBuildEnvelope(t *testing.T) {
	now := time.Now()
	env := BuildEnvelope(nil, Conditions{}, now)

	if env.Forecast.Data.Forecasts == nil {
		t.Error("expected an empty, non-nil forecasts slice")
	}
	if _, err := strconv.ParseInt(env.Metadata.TransactionID, 10, 64); err != nil {
		t.Errorf("expected numeric transaction id, got %q", env.Metadata.TransactionID)
	}
}
