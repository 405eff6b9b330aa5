package weather

import "errors"

var (
	ErrMissingCredential     = errors.New("missing access token")
	ErrInvalidCredential     = errors.New("access token rejected")
	ErrUpstreamAuth          = errors.New("auth service error")
	ErrSubscriptionRequired  = errors.New("subscription required")
	ErrUpstreamForecast      = errors.New("forecast provider error")
	ErrUpstreamConditions    = errors.New("conditions provider error")
	ErrMalformedUpstreamData = errors.New("malformed upstream data")
	ErrInvalidUnits          = errors.New("invalid units")
	ErrUnknownSchema         = errors.New("unknown provider schema")
)
