package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"

	"github.com/pebble-dev/rebble-weather/internal/telemetry"
)

// Telemetry starts a request event, exposes it to handlers through the
// user context and hands it to rec once the request is done. Events outlive
// the request, so every string taken from the fiber context is copied.
func Telemetry(rec telemetry.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ev := telemetry.NewEvent()
		traceID := uuid.NewString()
		ev.AddField("trace.trace_id", traceID)
		ev.AddField("request.method", c.Method())
		ev.AddField("request.path", utils.CopyString(c.Path()))
		c.Set("X-Request-Id", traceID)
		c.SetUserContext(telemetry.WithEvent(c.UserContext(), ev))

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
			ev.AddField("error", err.Error())
		}
		ev.AddField("response.status_code", status)
		ev.AddField("duration_ms", float64(time.Since(ev.Start()).Microseconds())/1000)

		route := "unmatched"
		if r := c.Route(); r != nil {
			route = r.Path
		}
		telemetry.RequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()

		rec.Record(ev)
		return err
	}
}
