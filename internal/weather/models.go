package weather

import (
	"strconv"
)

// Units is the unit system requested by the client and forwarded to the provider.
type Units string

const (
	UnitsEnglish Units = "e"
	UnitsMetric  Units = "m"
	UnitsHybrid  Units = "h"
)

const (
	DefaultUnits    = UnitsHybrid
	DefaultLanguage = "en-US"
)

// Schema selects which provider integration serves current conditions.
type Schema string

const (
	SchemaV1 Schema = "v1"
	SchemaV2 Schema = "v2"
	SchemaV3 Schema = "v3"
)

// GeoQuery is a single legacy weather request.
type GeoQuery struct {
	Latitude    float64
	Longitude   float64
	Units       Units
	Language    string
	AccessToken string
}

// FormatCoordinate renders a coordinate without trailing zeros.
func FormatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Geocode returns the "lat,lon" pair used by provider queries.
func (q GeoQuery) Geocode() string {
	return FormatCoordinate(q.Latitude) + "," + FormatCoordinate(q.Longitude)
}

// Account is the subset of the auth service's user record we care about.
type Account struct {
	UID          string `json:"uid"`
	IsSubscribed bool   `json:"is_subscribed"`
}

// Record is a loosely-typed JSON object, used for both provider payloads
// and the legacy records built from them.
type Record = map[string]any

// Envelope is the response body returned to legacy clients.
type Envelope struct {
	Forecast   ForecastSection   `json:"fcstdaily7"`
	Conditions ConditionsSection `json:"conditions"`
	Metadata   EnvelopeMetadata  `json:"metadata"`
}

type ForecastSection struct {
	Errors bool         `json:"errors"`
	Data   ForecastData `json:"data"`
}

type ForecastData struct {
	Forecasts []Record `json:"forecasts"`
}

type ConditionsSection struct {
	Errors bool       `json:"errors"`
	Data   Conditions `json:"data"`
}

// Conditions is the legacy current-observation document.
type Conditions struct {
	Metadata    Record `json:"metadata"`
	Observation Record `json:"observation"`
}

type EnvelopeMetadata struct {
	Version       int    `json:"version"`
	TransactionID string `json:"transaction_id"`
}
