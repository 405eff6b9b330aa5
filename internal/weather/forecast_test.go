package weather

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func mustDecode(t *testing.T, s string) Record {
	t.Helper()
	payload, err := DecodePayload(strings.NewReader(s))
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return payload
}

const twoDayForecast = `{
	"dayOfWeek": ["Monday", "Tuesday"],
	"validTimeUtc": [1700000000, 1700086400],
	"validTimeLocal": ["2023-11-14T07:00:00-0500", "2023-11-15T07:00:00-0500"],
	"expirationTimeUtc": [1700003600, 1700003600],
	"temperatureMax": [null, 61],
	"temperatureMin": [44, 40],
	"moonPhase": ["Waxing Crescent", "Waxing Crescent"],
	"qpf": [0.1, 0],
	"daypart": [{
		"dayOrNight": [null, "N", "D", "N"],
		"temperature": [null, 44, 61, 40],
		"daypartName": [null, "Tonight", "Tomorrow", "Tomorrow night"],
		"precipChance": [null, 20, 10, 5],
		"wxPhraseLong": [null, "Cloudy", "Sunny", "Clear"]
	}]
}`

func TestInvertForecast(t *testing.T) {
	days, err := InvertForecast(mustDecode(t, twoDayForecast))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(days))
	}

	// The first day's daytime part is entirely null, so it must not exist.
	if days[0].Day != nil {
		t.Errorf("expected no day part for day 0, got %v", days[0].Day)
	}
	if days[0].Night["daypartName"] != "Tonight" {
		t.Errorf("expected day 0 night to be Tonight, got %v", days[0].Night["daypartName"])
	}
	if days[1].Day["dayOrNight"] != "D" || days[1].Night["dayOrNight"] != "N" {
		t.Errorf("unexpected day 1 halves: %v / %v", days[1].Day, days[1].Night)
	}
	if days[1].Fields["dayOfWeek"] != "Tuesday" {
		t.Errorf("expected day 1 to be Tuesday, got %v", days[1].Fields["dayOfWeek"])
	}
}

func TestInvertForecastFullDays(t *testing.T) {
	payload := mustDecode(t, `{
		"dayOfWeek": ["Monday", "Tuesday", "Wednesday"],
		"daypart": [{
			"dayOrNight": ["D", "N", "D", "N", "D", "N"],
			"temperature": [1, 2, 3, 4, 5, 6]
		}]
	}`)

	days, err := InvertForecast(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(days))
	}
	wantDay := []json.Number{"1", "3", "5"}
	for i, d := range days {
		if d.Day == nil || d.Night == nil {
			t.Fatalf("day %d: expected both halves, got day=%v night=%v", i, d.Day, d.Night)
		}
		if d.Day["temperature"] != wantDay[i] {
			t.Errorf("day %d: expected day temperature %v, got %v", i, wantDay[i], d.Day["temperature"])
		}
	}
}

func TestInvertForecastDiscardsExtraHalfDays(t *testing.T) {
	payload := mustDecode(t, `{
		"dayOfWeek": ["Monday"],
		"daypart": [{
			"dayOrNight": ["D", "N", "D", "N"],
			"temperature": [1, 2, 3, 4]
		}]
	}`)

	days, err := InvertForecast(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("expected half-days without a day to be dropped, got %d days", len(days))
	}
}

func TestInvertForecastMalformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{
			name:    "missing daypart",
			payload: `{"dayOfWeek": ["Monday"]}`,
		},
		{
			name:    "two daypart groups",
			payload: `{"dayOfWeek": ["Monday"], "daypart": [{"dayOrNight": ["D", "N"]}, {"dayOrNight": ["D", "N"]}]}`,
		},
		{
			name:    "night marker on even half-day",
			payload: `{"dayOfWeek": ["Monday"], "daypart": [{"dayOrNight": ["N", "N"]}]}`,
		},
		{
			name:    "day marker on odd half-day",
			payload: `{"dayOfWeek": ["Monday"], "daypart": [{"dayOrNight": ["D", "D"]}]}`,
		},
		{
			name:    "parity checked beyond known days",
			payload: `{"dayOfWeek": ["Monday"], "daypart": [{"dayOrNight": ["D", "N", "N", "N"]}]}`,
		},
		{
			name:    "daypart column is not an array",
			payload: `{"dayOfWeek": ["Monday"], "daypart": [{"dayOrNight": "D"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InvertForecast(mustDecode(t, tt.payload))
			if !errors.Is(err, ErrMalformedUpstreamData) {
				t.Fatalf("expected ErrMalformedUpstreamData, got %v", err)
			}
		})
	}
}

func TestTranslateForecast(t *testing.T) {
	q := GeoQuery{Units: UnitsEnglish, Language: "en-US"}
	out, err := TranslateForecast(q, mustDecode(t, twoDayForecast))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 forecasts, got %d", len(out))
	}

	first := out[0]
	if first["class"] != "fod_long_range_daily" {
		t.Errorf("unexpected class %v", first["class"])
	}
	if first["dow"] != "Monday" {
		t.Errorf("expected dow Monday, got %v", first["dow"])
	}
	if first["min_temp"] != json.Number("44") {
		t.Errorf("expected min_temp 44, got %v", first["min_temp"])
	}
	if v, ok := first["max_temp"]; !ok || v != nil {
		t.Errorf("expected max_temp present and null, got %v (present=%v)", v, ok)
	}
	if _, ok := first["day"]; ok {
		t.Error("expected no day part on first forecast")
	}

	night, ok := first["night"].(Record)
	if !ok {
		t.Fatalf("expected night part, got %T", first["night"])
	}
	checks := map[string]any{
		"day_ind":       "N",
		"temp":          json.Number("44"),
		"pop":           json.Number("20"),
		"temp_phrase":   "Low 44F.",
		"shortcast":     "Cloudy",
		"phrase_32char": "Cloudy",
		"fcst_valid":    json.Number("1700000000"),
		"golf_category": "boring sports",
	}
	for k, want := range checks {
		if night[k] != want {
			t.Errorf("night[%q] = %v, want %v", k, night[k], want)
		}
	}

	day, ok := out[1]["day"].(Record)
	if !ok {
		t.Fatalf("expected day part on second forecast, got %T", out[1]["day"])
	}
	if day["temp_phrase"] != "High 61F." {
		t.Errorf("expected High 61F., got %v", day["temp_phrase"])
	}
}

func TestTranslateForecastDaypartCountAborts(t *testing.T) {
	payload := mustDecode(t, `{"dayOfWeek": ["Monday"], "daypart": [{}, {}]}`)
	out, err := TranslateForecast(GeoQuery{Units: UnitsHybrid, Language: "en-US"}, payload)
	if !errors.Is(err, ErrMalformedUpstreamData) {
		t.Fatalf("expected ErrMalformedUpstreamData, got %v", err)
	}
	if out != nil {
		t.Fatalf("expected no output, got %v", out)
	}
}

func TestDayIndicator(t *testing.T) {
	tests := []struct {
		name     string
		half     string
		value    any
		language string
		want     any
	}{
		{"german day", halfDay, "D", "de-DE", "T"},
		{"german austria day", halfDay, "D", "de-AT", "T"},
		{"english day", halfDay, "D", "en-US", "D"},
		{"german night", halfNight, "N", "de-DE", "N"},
		{"english night", halfNight, "N", "en-GB", "N"},
		{"null passes through", halfDay, nil, "de-DE", nil},
		{"short language", halfDay, "D", "d", "D"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DayIndicator(tt.half, tt.value, tt.language); got != tt.want {
				t.Errorf("DayIndicator(%q, %v, %q) = %v, want %v", tt.half, tt.value, tt.language, got, tt.want)
			}
		})
	}
}

func TestTempPhrase(t *testing.T) {
	tests := []struct {
		half  string
		temp  any
		units Units
		want  any
	}{
		{halfDay, json.Number("72"), UnitsEnglish, "High 72F."},
		{halfNight, json.Number("10"), UnitsMetric, "Low 10C."},
		{halfNight, json.Number("-3"), UnitsHybrid, "Low -3C."},
		{halfDay, 21.5, UnitsMetric, "High 21.5C."},
		{halfDay, nil, UnitsEnglish, nil},
	}

	for _, tt := range tests {
		if got := TempPhrase(tt.half, tt.temp, tt.units); got != tt.want {
			t.Errorf("TempPhrase(%q, %v, %q) = %v, want %v", tt.half, tt.temp, tt.units, got, tt.want)
		}
	}
}
