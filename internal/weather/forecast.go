package weather

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	daypartField    = "daypart"
	dayOrNightField = "dayOrNight"

	halfDay   = "day"
	halfNight = "night"

	dayMarker   = "D"
	nightMarker = "N"
	// German clients expect "T" (Tag) for daytime parts.
	transitionalMarker = "T"

	forecastClass = "fod_long_range_daily"
)

// field maps a legacy key to the provider key it is copied from.
type field struct {
	legacy   string
	provider string
}

var forecastDayFields = []field{
	{"expire_time_gmt", "expirationTimeUtc"},
	{"fcst_valid", "validTimeUtc"},
	{"fcst_valid_local", "validTimeLocal"},
	{"max_temp", "temperatureMax"},
	{"min_temp", "temperatureMin"},
	{"lunar_phase_day", "moonPhaseDay"},
	{"dow", "dayOfWeek"},
	{"lunar_phase", "moonPhase"},
	{"lunar_phase_code", "moonPhaseCode"},
	{"sunrise", "sunriseTimeLocal"},
	{"sunset", "sunsetTimeLocal"},
	{"moonrise", "moonriseTimeLocal"},
	{"moonset", "moonsetTimeLocal"},
	{"qpf", "qpf"},
	{"snow_qpf", "qpfSnow"},
}

// daypartFields excludes day_ind, temp_phrase and the fcst_valid pair,
// which mapDaypart fills in itself.
var daypartFields = []field{
	{"thunder_enum", "thunderIndex"},
	{"daypart_name", "daypartName"},
	// TODO: long_daypart_name should read "Thursday night"; the provider has no such field.
	{"long_daypart_name", "daypartName"},
	{"alt_daypart_name", "daypartName"},
	{"thunder_enum_phrase", "thunderCategory"},
	{"temp", "temperature"},
	{"hi", "temperatureHeatIndex"},
	{"wc", "temperatureWindChill"},
	{"pop", "precipChance"},
	{"icon_extd", "iconCodeExtend"},
	{"icon_code", "iconCode"},
	{"phrase_12char", "wxPhraseShort"},
	{"phrase_22char", "wxPhraseLong"},
	{"phrase_32char", "wxPhraseLong"},
	{"precip_type", "precipType"},
	{"rh", "relativeHumidity"},
	{"wspd", "windSpeed"},
	{"wdir", "windDirection"},
	{"wdir_cardinal", "windDirectionCardinal"},
	{"clds", "cloudCover"},
	{"wind_phrase", "windPhrase"},
	{"shortcast", "wxPhraseLong"},
	{"narrative", "narrative"},
	{"qpf", "qpf"},
	{"snow_qpf", "qpfSnow"},
	{"snow_range", "snowRange"},
	{"qualifier_code", "qualifierCode"},
	{"qualifier", "qualifierPhrase"},
	// Provider rounds differently (9.7 vs 10); both legacy fields get the same value.
	{"uv_index_raw", "uvIndex"},
	{"uv_index", "uvIndex"},
	{"uv_desc", "uvDescription"},
}

// ForecastDay is one row of the inverted provider forecast.
type ForecastDay struct {
	Fields Record
	Day    Record
	Night  Record
}

func (d *ForecastDay) half(name string) Record {
	if name == halfDay {
		return d.Day
	}
	return d.Night
}

func (d *ForecastDay) setHalf(name string, r Record) {
	if name == halfDay {
		d.Day = r
	} else {
		d.Night = r
	}
}

// InvertForecast pivots the provider's column-oriented forecast into one
// record per day. Daypart columns are indexed by half-day (day, night, day,
// ...) and are attached to the day they belong to.
func InvertForecast(payload Record) ([]*ForecastDay, error) {
	var days []*ForecastDay

	for k, column := range payload {
		if k == daypartField {
			continue
		}
		values, ok := column.([]any)
		if !ok {
			continue
		}
		for i, v := range values {
			for i >= len(days) {
				days = append(days, &ForecastDay{Fields: Record{}})
			}
			days[i].Fields[k] = v
		}
	}

	wrappers, _ := payload[daypartField].([]any)
	if len(wrappers) != 1 {
		return nil, fmt.Errorf("%w: daypart had %d groups, want 1", ErrMalformedUpstreamData, len(wrappers))
	}
	daypart, ok := wrappers[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: daypart group is not an object", ErrMalformedUpstreamData)
	}

	for k, column := range daypart {
		values, ok := column.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: daypart field %q is not an array", ErrMalformedUpstreamData, k)
		}
		for h, v := range values {
			day := h / 2
			half, want := halfDay, dayMarker
			if h%2 == 1 {
				half, want = halfNight, nightMarker
			}

			if k == dayOrNightField && v != nil && v != want {
				return nil, fmt.Errorf("%w: half-day %d should be %s, but dayOrNight is %v",
					ErrMalformedUpstreamData, h, half, v)
			}
			if day >= len(days) {
				continue
			}

			rec := days[day].half(half)
			if rec == nil {
				if v == nil {
					continue
				}
				rec = Record{}
				days[day].setHalf(half, rec)
			}
			rec[k] = v
		}
	}

	return days, nil
}

// TranslateForecast inverts a provider forecast and renders it in the legacy
// fcstdaily7 day schema.
func TranslateForecast(q GeoQuery, payload Record) ([]Record, error) {
	days, err := InvertForecast(payload)
	if err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(days))
	for _, d := range days {
		out = append(out, mapForecastDay(q, d))
	}
	return out, nil
}

func mapForecastDay(q GeoQuery, d *ForecastDay) Record {
	rec := Record{"class": forecastClass}
	for _, f := range forecastDayFields {
		rec[f.legacy] = d.Fields[f.provider]
	}
	if len(d.Day) > 0 {
		rec[halfDay] = mapDaypart(q, halfDay, d.Fields, d.Day)
	}
	if len(d.Night) > 0 {
		rec[halfNight] = mapDaypart(q, halfNight, d.Fields, d.Night)
	}
	return rec
}

func mapDaypart(q GeoQuery, half string, day, part Record) Record {
	rec := Record{
		"fcst_valid":       day["validTimeUtc"],
		"fcst_valid_local": day["validTimeLocal"],
		"day_ind":          DayIndicator(half, part[dayOrNightField], q.Language),
		"temp_phrase":      TempPhrase(half, part["temperature"], q.Units),
		"golf_category":    "boring sports",
	}
	for _, f := range daypartFields {
		rec[f.legacy] = part[f.provider]
	}
	return rec
}

// DayIndicator applies the German day marker substitution. Night parts and
// every other language pass through unchanged.
func DayIndicator(half string, v any, language string) any {
	if half == halfDay && v == dayMarker && strings.HasPrefix(language, "de") {
		return transitionalMarker
	}
	return v
}

// TempPhrase synthesizes the legacy temp_phrase text. It is always English.
func TempPhrase(half string, temp any, units Units) any {
	if temp == nil {
		return nil
	}
	label := "Low"
	if half == halfDay {
		label = "High"
	}
	suffix := "C"
	if units == UnitsEnglish {
		suffix = "F"
	}
	return fmt.Sprintf("%s %s%s.", label, formatValue(temp), suffix)
}

func formatValue(v any) string {
	switch t := v.(type) {
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
