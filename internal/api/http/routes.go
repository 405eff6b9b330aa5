package httpapi

import (
	"errors"
	"log"
	"regexp"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/pebble-dev/rebble-weather/internal/weather"
)

// Legacy clients send negative and integer-only coordinates, so a plain
// positive float pattern isn't enough.
var signedDecimal = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("signed_decimal", func(fl validator.FieldLevel) bool {
		return signedDecimal.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	app.Get("/heartbeat", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"alive": true})
	})

	v1 := app.Group("/api/v1")

	v1.Get("/geocode/:latitude/:longitude", func(c *fiber.Ctx) error {
		var req geocodeRequest
		if err := req.bind(c); err != nil {
			return err
		}

		envelope, err := service.Geocode(c.UserContext(), req.toQuery())
		if err != nil {
			return errorFor(err)
		}
		return c.JSON(envelope)
	})
}

// coordinates holds the raw path segments of a geocode request.
type coordinates struct {
	Latitude  string `validate:"required,signed_decimal"`
	Longitude string `validate:"required,signed_decimal"`
}

// geocodeRequest holds the parsed parameters of a geocode request.
type geocodeRequest struct {
	Latitude    float64
	Longitude   float64
	AccessToken string `validate:"required"`
	Units       string
	Language    string
}

func (r *geocodeRequest) bind(c *fiber.Ctx) error {
	lat, lon, err := ParseCoordinates(c.Params("latitude"), c.Params("longitude"))
	if err != nil {
		// Unparseable coordinates never matched a route on the legacy API.
		return fiber.ErrNotFound
	}
	r.Latitude = lat
	r.Longitude = lon

	// Query values point into fasthttp's request buffer; the language and
	// units end up on telemetry events that are flushed later.
	r.AccessToken = utils.CopyString(c.Query("access_token"))
	r.Units = utils.CopyString(c.Query("units", string(weather.DefaultUnits)))
	r.Language = utils.CopyString(c.Query("language", weather.DefaultLanguage))

	if err := validate.Struct(r); err != nil {
		return fiber.ErrUnauthorized
	}
	return nil
}

func (r geocodeRequest) toQuery() weather.GeoQuery {
	return weather.GeoQuery{
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		Units:       weather.Units(r.Units),
		Language:    r.Language,
		AccessToken: r.AccessToken,
	}
}

// ParseCoordinates validates and parses latitude/longitude path segments.
func ParseCoordinates(latitude, longitude string) (float64, float64, error) {
	coords := coordinates{Latitude: latitude, Longitude: longitude}
	if err := validate.Struct(coords); err != nil {
		return 0, 0, err
	}
	lat, err := strconv.ParseFloat(coords.Latitude, 64)
	if err != nil {
		return 0, 0, err
	}
	lon, err := strconv.ParseFloat(coords.Longitude, 64)
	if err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

// errorFor maps pipeline errors onto HTTP errors.
func errorFor(err error) error {
	switch {
	case errors.Is(err, weather.ErrMissingCredential), errors.Is(err, weather.ErrInvalidCredential):
		return fiber.ErrUnauthorized
	case errors.Is(err, weather.ErrSubscriptionRequired):
		return fiber.ErrPaymentRequired
	default:
		log.Printf("ERROR: geocode request failed: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
	}
}
