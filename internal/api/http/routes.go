package httpapi

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skycast/skycast/internal/locate"
	"github.com/skycast/skycast/internal/observability"
	"github.com/skycast/skycast/internal/store"
	"github.com/skycast/skycast/internal/weather"
)

var validate = validator.New()

// Handlers bundles the collaborators the HTTP surface needs.
type Handlers struct {
	Resolver *locate.Resolver
	Weather  *weather.Service
	Sessions store.SessionStore
	Geocoder locate.Geocoder
	Metrics  *observability.Metrics
	Clock    clockwork.Clock

	TileBaseURL string
	TileAPIKey  string
}

// RegisterRoutes wires the API handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, h Handlers) {
	app.Use(h.timing)

	api := app.Group("/api")

	api.Get("/weather", h.handleWeather)
	api.Get("/forecast", h.handleForecast)
	api.Get("/search", h.handleSearch)
	api.Get("/city", h.handleSearch) // legacy alias
	api.Get("/history", h.handleHistory)
	api.Get("/recent", h.handleRecent)
	api.Delete("/session", h.handleClearSession)
	api.Get("/precipitation-tile", h.handleTile)
	api.Get("/health", h.handleHealth)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}

// timing records request duration per route and status.
func (h Handlers) timing(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	route := c.Route().Path
	status := strconv.Itoa(c.Response().StatusCode())
	h.Metrics.RequestDuration.WithLabelValues(route, status).Observe(time.Since(start).Seconds())
	return err
}

func (h Handlers) handleWeather(c *fiber.Ctx) error {
	req, err := parseLocationQuery(c)
	if err != nil {
		return err
	}

	loc, err := h.Resolver.Resolve(c.Context(), req)
	if err != nil {
		return err
	}

	cond, err := h.Weather.Current(c.Context(), loc)
	if err != nil {
		return err
	}
	return c.JSON(cond)
}

func (h Handlers) handleForecast(c *fiber.Ctx) error {
	req, err := parseLocationQuery(c)
	if err != nil {
		return err
	}

	loc, err := h.Resolver.Resolve(c.Context(), req)
	if err != nil {
		return err
	}

	forecast, err := h.Weather.Forecast(c.Context(), loc)
	if err != nil {
		return err
	}
	return c.JSON(forecast)
}

func (h Handlers) handleSearch(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		query = c.Query("city")
	}
	if query == "" {
		return &weather.ConfigurationError{Message: "q or city query parameter is required"}
	}

	matches, err := h.Geocoder.Search(c.Context(), query)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return &weather.NotFoundError{Query: query}
	}
	return c.JSON(matches)
}

// historyQuery holds the validated history parameters.
type historyQuery struct {
	Days int `validate:"min=1,max=10"`
}

func (h Handlers) handleHistory(c *fiber.Ctx) error {
	req, err := parseLocationQuery(c)
	if err != nil {
		return err
	}

	hq := historyQuery{Days: c.QueryInt("days", 7)}
	if err := validate.Struct(hq); err != nil {
		return &weather.ConfigurationError{Message: "days must be between 1 and 10"}
	}

	loc, err := h.Resolver.Resolve(c.Context(), req)
	if err != nil {
		return err
	}

	cond, err := h.Weather.Current(c.Context(), loc)
	if err != nil {
		return err
	}

	// Seeded per location so refreshes do not reshuffle the simulated past.
	seed := fnv.New64a()
	seed.Write([]byte(loc.Key()))

	days := weather.SyntheticHistory(cond, h.Clock.Now(), hq.Days, int64(seed.Sum64()))
	return c.JSON(fiber.Map{
		"simulated": true,
		"location":  cond.Location,
		"days":      days,
	})
}

func (h Handlers) handleRecent(c *fiber.Ctx) error {
	searches, err := h.Sessions.RecentSearches(c.Context(), 10)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to read recent searches")
	}
	if searches == nil {
		searches = []string{}
	}
	return c.JSON(fiber.Map{"searches": searches})
}

func (h Handlers) handleClearSession(c *fiber.Ctx) error {
	if err := h.Sessions.Clear(c.Context()); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to clear session")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// tileQuery holds the validated slippy-map tile coordinates.
type tileQuery struct {
	Z string `validate:"required"`
	X string `validate:"required"`
	Y string `validate:"required"`
}

func (h Handlers) handleTile(c *fiber.Ctx) error {
	tq := tileQuery{Z: c.Query("z"), X: c.Query("x"), Y: c.Query("y")}
	if err := validate.Struct(tq); err != nil {
		return &weather.ConfigurationError{Message: "z, x and y query parameters are required"}
	}

	tileURL := fmt.Sprintf("%s/%s/%s/%s.png?appid=%s", h.TileBaseURL, tq.Z, tq.X, tq.Y, h.TileAPIKey)
	return c.Redirect(tileURL, fiber.StatusFound)
}

func (h Handlers) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": h.Clock.Now().UTC().Format(time.RFC3339),
	})
}

// parseLocationQuery reads the location hints from the query string. A city
// name wins over coordinates; a lone lat or lon is a request error.
func parseLocationQuery(c *fiber.Ctx) (locate.Request, error) {
	req := locate.Request{City: c.Query("city")}

	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr != "" || lonStr != "" {
		if latStr == "" || lonStr == "" {
			return locate.Request{}, &weather.ConfigurationError{Message: "lat and lon must be provided together"}
		}
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return locate.Request{}, &weather.ConfigurationError{Message: "invalid lat"}
		}
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			return locate.Request{}, &weather.ConfigurationError{Message: "invalid lon"}
		}
		req.Lat, req.Lon = &lat, &lon
	}

	return req, nil
}

// ErrorHandler translates the error taxonomy into HTTP statuses. Wired as the
// Fiber app's central error handler so handlers just return errors.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var (
		notFound    *weather.NotFoundError
		configErr   *weather.ConfigurationError
		upstream    *weather.UpstreamError
		malformed   *weather.MalformedResponseError
		unavailable *weather.LocationUnavailableError
		fiberErr    *fiber.Error
	)

	switch {
	case errors.As(err, &notFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "City not found"})
	case errors.As(err, &configErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": configErr.Message})
	case errors.As(err, &upstream), errors.As(err, &malformed):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream weather provider error"})
	case errors.As(err, &unavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "location unavailable"})
	case errors.As(err, &fiberErr):
		return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}
