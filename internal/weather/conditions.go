package weather

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const localTimeLayout = "2006-01-02T15:04:05-0700"

// conditionsTable describes how one provider integration's current
// observation payload maps onto the legacy conditions schema.
type conditionsTable struct {
	// wrapped payloads carry {metadata, observation}; unwrapped ones are a
	// flat observation and need a synthesized metadata block.
	wrapped bool

	observation []field
	units       []field

	// Provider keys used to work out the day of week when the provider
	// doesn't send one.
	validTime      string
	validTimeLocal string
}

// The v1 and v2 integrations are the retired API itself, so their field
// names already match the legacy schema.
var snakeObservationFields = []field{
	{"expire_time_gmt", "expire_time_gmt"},
	{"obs_time", "obs_time"},
	{"obs_time_local", "obs_time_local"},
	{"wdir", "wdir"},
	{"icon_code", "icon_code"},
	{"icon_extd", "icon_extd"},
	{"sunrise", "sunrise"},
	{"sunset", "sunset"},
	{"day_ind", "day_ind"},
	{"uv_index", "uv_index"},
	{"uv_warning", "uv_warning"},
	{"wxman", "wxman"},
	{"obs_qualifier_code", "obs_qualifier_code"},
	{"ptend_code", "ptend_code"},
	{"dow", "dow"},
	{"wdir_cardinal", "wdir_cardinal"},
	{"uv_desc", "uv_desc"},
	{"phrase_12char", "phrase_12char"},
	{"phrase_22char", "phrase_22char"},
	{"phrase_32char", "phrase_32char"},
	{"ptend_desc", "ptend_desc"},
	{"sky_cover", "sky_cover"},
	{"clds", "clds"},
	{"obs_qualifier_severity", "obs_qualifier_severity"},
	{"vocal_key", "vocal_key"},
}

var snakeUnitsFields = []field{
	{"wspd", "wspd"},
	{"gust", "gust"},
	{"vis", "vis"},
	{"mslp", "mslp"},
	{"altimeter", "altimeter"},
	{"temp", "temp"},
	{"dewpt", "dewpt"},
	{"rh", "rh"},
	{"wc", "wc"},
	{"hi", "hi"},
	{"feels_like", "feels_like"},
	{"temp_change_24hour", "temp_change_24hour"},
	{"temp_max_24hour", "temp_max_24hour"},
	{"temp_min_24hour", "temp_min_24hour"},
	{"pchange", "pchange"},
	{"snow_1hour", "snow_1hour"},
	{"snow_6hour", "snow_6hour"},
	{"snow_24hour", "snow_24hour"},
	{"snow_mtd", "snow_mtd"},
	{"snow_season", "snow_season"},
	{"snow_2day", "snow_2day"},
	{"snow_3day", "snow_3day"},
	{"snow_7day", "snow_7day"},
	{"precip_1hour", "precip_1hour"},
	{"precip_6hour", "precip_6hour"},
	{"precip_24hour", "precip_24hour"},
	{"precip_mtd", "precip_mtd"},
	{"precip_2day", "precip_2day"},
	{"precip_3day", "precip_3day"},
	{"precip_7day", "precip_7day"},
	{"ceiling", "ceiling"},
}

var v3ObservationFields = []field{
	{"expire_time_gmt", "expirationTimeUtc"},
	{"obs_time", "validTimeUtc"},
	{"wdir", "windDirection"},
	{"icon_code", "iconCode"},
	{"icon_extd", "iconCodeExtend"},
	{"day_ind", "dayOrNight"},
	{"uv_index", "uvIndex"},
	{"obs_qualifier_code", "obsQualifierCode"},
	{"ptend_code", "pressureTendencyCode"},
	{"dow", "dayOfWeek"},
	// Sometimes "CALM".
	{"wdir_cardinal", "windDirectionCardinal"},
	{"uv_desc", "uvDescription"},
	// Best guess at how the three phrase lengths line up.
	{"phrase_12char", "wxPhraseShort"},
	{"phrase_22char", "wxPhraseMedium"},
	{"phrase_32char", "wxPhraseLong"},
	{"ptend_desc", "pressureTendencyTrend"},
	// Legacy sent codes like "CLR"; this is a phrase like "Partly Cloudy".
	{"clds", "cloudCoverPhrase"},
	{"obs_qualifier_severity", "obsQualifierSeverity"},
}

var v3UnitsFields = []field{
	{"wspd", "windSpeed"},
	{"gust", "windGust"},
	{"vis", "visibility"},
	{"mslp", "pressureMeanSeaLevel"},
	{"altimeter", "pressureAltimeter"},
	{"temp", "temperature"},
	{"dewpt", "temperatureDewPoint"},
	{"rh", "relativeHumidity"},
	{"wc", "temperatureWindChill"},
	{"hi", "temperatureHeatIndex"},
	{"feels_like", "temperatureFeelsLike"},
	{"temp_change_24hour", "temperatureChange24Hour"},
	{"temp_max_24hour", "temperatureMax24Hour"},
	{"temp_min_24hour", "temperatureMin24Hour"},
	{"pchange", "pressureChange"},
	{"snow_1hour", "snow1Hour"},
	{"snow_6hour", "snow6Hour"},
	{"snow_24hour", "snow24Hour"},
	{"precip_1hour", "precip1Hour"},
	{"precip_6hour", "precip6Hour"},
	{"precip_24hour", "precip24Hour"},
	{"ceiling", "cloudCeiling"},
}

var conditionsTables = map[Schema]conditionsTable{
	SchemaV1: {
		wrapped:        true,
		observation:    snakeObservationFields,
		units:          snakeUnitsFields,
		validTime:      "obs_time",
		validTimeLocal: "obs_time_local",
	},
	SchemaV2: {
		wrapped:        true,
		observation:    snakeObservationFields,
		units:          snakeUnitsFields,
		validTime:      "obs_time",
		validTimeLocal: "obs_time_local",
	},
	SchemaV3: {
		observation:    v3ObservationFields,
		units:          v3UnitsFields,
		validTime:      "validTimeUtc",
		validTimeLocal: "validTimeLocal",
	},
}

var unitsBlocks = map[Units]string{
	UnitsEnglish: "imperial",
	UnitsMetric:  "metric",
	UnitsHybrid:  "uk_hybrid",
}

// UnitsBlock returns the legacy key holding measurements for units.
func UnitsBlock(units Units) (string, error) {
	block, ok := unitsBlocks[units]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidUnits, units)
	}
	return block, nil
}

// RemapConditions renders a provider current-observation payload in the
// legacy conditions schema. transactionID is only used when the metadata
// block has to be synthesized.
func RemapConditions(schema Schema, q GeoQuery, payload Record, transactionID string) (Conditions, error) {
	table, ok := conditionsTables[schema]
	if !ok {
		return Conditions{}, fmt.Errorf("%w: %q", ErrUnknownSchema, schema)
	}
	block, err := UnitsBlock(q.Units)
	if err != nil {
		return Conditions{}, err
	}

	src := payload
	var metadata Record
	if table.wrapped {
		obs, ok := payload["observation"].(map[string]any)
		if !ok {
			return Conditions{}, fmt.Errorf("%w: no observation object", ErrMalformedUpstreamData)
		}
		src = obs
		metadata, _ = payload["metadata"].(map[string]any)
		if metadata == nil {
			metadata = Record{}
		}
	} else {
		// v3 has no metadata block of its own. The retired API sent a fixed
		// placeholder transaction_id here; a per-request id is used instead.
		metadata = Record{
			"language":        q.Language,
			"transaction_id":  transactionID,
			"version":         "1",
			"latitude":        q.Latitude,
			"longitude":       q.Longitude,
			"units":           string(q.Units),
			"expire_time_gmt": payload["expirationTimeUtc"],
			"status_code":     200,
		}
	}

	obs := Record{"class": "observation"}
	for _, f := range table.observation {
		obs[f.legacy] = src[f.provider]
	}
	if obs["dow"] == nil {
		if dow, ok := dayOfWeek(src[table.validTimeLocal], src[table.validTime]); ok {
			obs["dow"] = dow
		}
	}

	measurements := Record{}
	for _, f := range table.units {
		measurements[f.legacy] = src[f.provider]
	}
	obs[block] = measurements

	return Conditions{Metadata: metadata, Observation: obs}, nil
}

// dayOfWeek prefers the local timestamp so the weekday matches the
// observation site, falling back to the UTC epoch.
func dayOfWeek(local, epoch any) (string, bool) {
	if s, ok := local.(string); ok {
		if t, err := time.Parse(localTimeLayout, s); err == nil {
			return t.Weekday().String(), true
		}
	}

	var secs int64
	switch v := epoch.(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return "", false
		}
		secs = n
	case float64:
		secs = int64(v)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return "", false
		}
		secs = n
	default:
		return "", false
	}
	return time.Unix(secs, 0).UTC().Weekday().String(), true
}
