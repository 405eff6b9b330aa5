package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// Authorizer verifies an access token against the account service.
type Authorizer interface {
	CurrentUser(ctx context.Context, accessToken string) (Account, error)
}

// Provider abstracts the upstream weather data source. Payloads are returned
// as generic records; the field tables decide what to pull out of them.
type Provider interface {
	Name() string
	// Schema reports which conditions integration this provider talks to.
	Schema() Schema
	Forecast(ctx context.Context, q GeoQuery) (Record, error)
	CurrentConditions(ctx context.Context, q GeoQuery) (Record, error)
}

// DecodePayload reads a JSON object keeping numbers as json.Number, so values
// pass through to legacy clients exactly as the provider sent them.
func DecodePayload(r io.Reader) (Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var payload Record
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, fmt.Errorf("payload is not a JSON object")
	}
	return payload, nil
}

// ParseSchema validates a configured schema name.
func ParseSchema(s string) (Schema, error) {
	switch Schema(s) {
	case SchemaV1, SchemaV2, SchemaV3:
		return Schema(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSchema, s)
	}
}
