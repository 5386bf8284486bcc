package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/skycast/skycast/internal/weather"
)

// OpenWeather is the primary provider. Its one-call endpoint returns hourly
// and daily data in a single response, which the orchestrator prefers over the
// piecemeal feeds of the secondary providers.
type OpenWeather struct {
	name    string
	apiKey  string
	baseURL string
	cfg     ClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewOpenWeather creates the adapter. baseURL is "https://api.openweathermap.org"
// in production and an httptest server in tests.
func NewOpenWeather(client *http.Client, apiKey, baseURL string) *OpenWeather {
	return &OpenWeather{
		name:    "openweather",
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		cfg: ClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      0,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: newBreaker("openweather"),
	}
}

func (p *OpenWeather) Name() string { return p.name }

type owCurrentPayload struct {
	Main *struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
		Pressure  float64 `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"` // m/s
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Visibility float64 `json:"visibility"` // meters
	Weather    []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
}

func (p *OpenWeather) FetchCurrent(ctx context.Context, loc weather.Location) (weather.CurrentConditions, error) {
	if p.apiKey == "" {
		return weather.CurrentConditions{}, fmt.Errorf("openweather api key is not configured")
	}

	resp, err := doProviderRequest(ctx, p.cfg, p.circuit, p.name, func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", fmt.Sprintf("%f", loc.Lat))
		values.Set("lon", fmt.Sprintf("%f", loc.Lon))
		values.Set("appid", p.apiKey)
		values.Set("units", "metric")
		return http.NewRequest(http.MethodGet, p.baseURL+"/data/2.5/weather?"+values.Encode(), nil)
	})
	if err != nil {
		return weather.CurrentConditions{}, err
	}
	defer resp.Body.Close()

	var payload owCurrentPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.CurrentConditions{}, &weather.MalformedResponseError{Provider: p.name, Detail: err.Error()}
	}

	return normalizeOpenWeatherCurrent(p.name, payload, loc)
}

func normalizeOpenWeatherCurrent(provider string, payload owCurrentPayload, loc weather.Location) (weather.CurrentConditions, error) {
	if payload.Main == nil {
		return weather.CurrentConditions{}, &weather.MalformedResponseError{Provider: provider, Detail: "missing main block"}
	}
	if len(payload.Weather) == 0 {
		return weather.CurrentConditions{}, &weather.MalformedResponseError{Provider: provider, Detail: "missing weather block"}
	}

	// The response carries the canonical place name for the coordinates; use
	// it when the caller resolved by raw lat/lon.
	resolved := loc
	if resolved.Name == "" && payload.Name != "" {
		resolved.Name = payload.Name
		resolved.Country = payload.Sys.Country
	}

	w := payload.Weather[0]
	return weather.CurrentConditions{
		TemperatureC:      payload.Main.Temp,
		FeelsLikeC:        payload.Main.FeelsLike,
		HumidityPct:       payload.Main.Humidity,
		WindSpeedKph:      payload.Wind.Speed * 3.6,
		WindDirectionDeg:  payload.Wind.Deg,
		UVIndex:           0, // not present on the current-weather endpoint
		VisibilityM:       payload.Visibility,
		PressureMb:        payload.Main.Pressure,
		ConditionText:     w.Description,
		ConditionIcon:     w.Icon,
		ConditionCategory: strings.ToLower(w.Main),
		Location:          resolved,
	}, nil
}

type owOneCallPayload struct {
	TimezoneOffset int `json:"timezone_offset"` // seconds east of UTC
	Hourly         []struct {
		Dt        int64   `json:"dt"`
		Temp      float64 `json:"temp"`
		Humidity  float64 `json:"humidity"`
		WindSpeed float64 `json:"wind_speed"` // m/s
		Weather   []struct {
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
	} `json:"hourly"`
	Daily []struct {
		Dt   int64 `json:"dt"`
		Temp struct {
			Min float64 `json:"min"`
			Max float64 `json:"max"`
		} `json:"temp"`
		Humidity  float64 `json:"humidity"`
		WindSpeed float64 `json:"wind_speed"`
		Weather   []struct {
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
	} `json:"daily"`
}

func (p *OpenWeather) FetchForecast(ctx context.Context, loc weather.Location) (weather.Forecast, error) {
	if p.apiKey == "" {
		return weather.Forecast{}, fmt.Errorf("openweather api key is not configured")
	}

	resp, err := doProviderRequest(ctx, p.cfg, p.circuit, p.name, func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", fmt.Sprintf("%f", loc.Lat))
		values.Set("lon", fmt.Sprintf("%f", loc.Lon))
		values.Set("appid", p.apiKey)
		values.Set("units", "metric")
		values.Set("exclude", "minutely,alerts")
		return http.NewRequest(http.MethodGet, p.baseURL+"/data/2.5/onecall?"+values.Encode(), nil)
	})
	if err != nil {
		return weather.Forecast{}, err
	}
	defer resp.Body.Close()

	var payload owOneCallPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Forecast{}, &weather.MalformedResponseError{Provider: p.name, Detail: err.Error()}
	}

	return normalizeOpenWeatherForecast(p.name, payload)
}

func normalizeOpenWeatherForecast(provider string, payload owOneCallPayload) (weather.Forecast, error) {
	if len(payload.Hourly) == 0 || len(payload.Daily) == 0 {
		return weather.Forecast{}, &weather.MalformedResponseError{Provider: provider, Detail: "missing hourly or daily block"}
	}

	zone := time.FixedZone("local", payload.TimezoneOffset)

	hourly := make([]weather.HourlyPoint, 0, len(payload.Hourly))
	for _, h := range payload.Hourly {
		point := weather.HourlyPoint{
			Timestamp:    time.Unix(h.Dt, 0).In(zone),
			TemperatureC: h.Temp,
			HumidityPct:  h.Humidity,
			WindSpeedKph: h.WindSpeed * 3.6,
		}
		if len(h.Weather) > 0 {
			point.ConditionIcon = h.Weather[0].Icon
			point.ConditionText = h.Weather[0].Description
		}
		hourly = append(hourly, point)
	}

	daily := make([]weather.DailyPoint, 0, len(payload.Daily))
	for _, d := range payload.Daily {
		point := weather.DailyPoint{
			Date:            time.Unix(d.Dt, 0).In(zone).Format("2006-01-02"),
			MinTemperatureC: d.Temp.Min,
			MaxTemperatureC: d.Temp.Max,
			HumidityPct:     d.Humidity,
			WindSpeedKph:    d.WindSpeed * 3.6,
		}
		if len(d.Weather) > 0 {
			point.ConditionIcon = d.Weather[0].Icon
			point.ConditionText = d.Weather[0].Description
		}
		daily = append(daily, point)
	}

	return weather.Forecast{Hourly: hourly, Daily: daily}, nil
}
