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

// OpenMeteo is the tertiary, keyless provider. Its feed is the last resort
// when both keyed providers are down; retries stay enabled here since the
// endpoint is free.
type OpenMeteo struct {
	name    string
	baseURL string
	days    int
	cfg     ClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteo(client *http.Client, baseURL string, days int) *OpenMeteo {
	if days <= 0 {
		days = 7
	}
	return &OpenMeteo{
		name:    "openmeteo",
		baseURL: strings.TrimSuffix(baseURL, "/"),
		days:    days,
		cfg: ClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      2,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: newBreaker("openmeteo"),
	}
}

func (p *OpenMeteo) Name() string { return p.name }

type omCurrentPayload struct {
	UTCOffsetSeconds int `json:"utc_offset_seconds"`
	Current          *struct {
		Temperature2m       float64 `json:"temperature_2m"`
		RelativeHumidity2m  float64 `json:"relative_humidity_2m"`
		ApparentTemperature float64 `json:"apparent_temperature"`
		WeatherCode         int     `json:"weather_code"`
		WindSpeed10m        float64 `json:"wind_speed_10m"` // already km/h
		WindDirection10m    float64 `json:"wind_direction_10m"`
		SurfacePressure     float64 `json:"surface_pressure"`
	} `json:"current"`
}

func (p *OpenMeteo) FetchCurrent(ctx context.Context, loc weather.Location) (weather.CurrentConditions, error) {
	resp, err := doProviderRequest(ctx, p.cfg, p.circuit, p.name, func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", loc.Lat))
		values.Set("longitude", fmt.Sprintf("%f", loc.Lon))
		values.Set("current", "temperature_2m,relative_humidity_2m,apparent_temperature,weather_code,wind_speed_10m,wind_direction_10m,surface_pressure")
		values.Set("wind_speed_unit", "kmh")
		values.Set("timezone", "auto")
		return http.NewRequest(http.MethodGet, p.baseURL+"/v1/forecast?"+values.Encode(), nil)
	})
	if err != nil {
		return weather.CurrentConditions{}, err
	}
	defer resp.Body.Close()

	var payload omCurrentPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.CurrentConditions{}, &weather.MalformedResponseError{Provider: p.name, Detail: err.Error()}
	}
	if payload.Current == nil {
		return weather.CurrentConditions{}, &weather.MalformedResponseError{Provider: p.name, Detail: "missing current block"}
	}

	c := payload.Current
	text, icon, category := describeWeatherCode(c.WeatherCode)
	return weather.CurrentConditions{
		TemperatureC:      c.Temperature2m,
		FeelsLikeC:        c.ApparentTemperature,
		HumidityPct:       c.RelativeHumidity2m,
		WindSpeedKph:      c.WindSpeed10m,
		WindDirectionDeg:  c.WindDirection10m,
		UVIndex:           0, // not requested from this feed
		VisibilityM:       0,
		PressureMb:        c.SurfacePressure,
		ConditionText:     text,
		ConditionIcon:     icon,
		ConditionCategory: category,
		Location:          loc,
	}, nil
}

type omForecastPayload struct {
	UTCOffsetSeconds int `json:"utc_offset_seconds"`
	Hourly           struct {
		Time               []int64   `json:"time"`
		Temperature2m      []float64 `json:"temperature_2m"`
		RelativeHumidity2m []float64 `json:"relative_humidity_2m"`
		WeatherCode        []int     `json:"weather_code"`
		WindSpeed10m       []float64 `json:"wind_speed_10m"`
	} `json:"hourly"`
	Daily struct {
		Time             []int64   `json:"time"`
		Temperature2mMax []float64 `json:"temperature_2m_max"`
		Temperature2mMin []float64 `json:"temperature_2m_min"`
		WeatherCode      []int     `json:"weather_code"`
	} `json:"daily"`
}

func (p *OpenMeteo) FetchForecast(ctx context.Context, loc weather.Location) (weather.Forecast, error) {
	resp, err := doProviderRequest(ctx, p.cfg, p.circuit, p.name, func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", loc.Lat))
		values.Set("longitude", fmt.Sprintf("%f", loc.Lon))
		values.Set("hourly", "temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m")
		values.Set("daily", "temperature_2m_max,temperature_2m_min,weather_code")
		values.Set("forecast_days", fmt.Sprintf("%d", p.days))
		values.Set("wind_speed_unit", "kmh")
		values.Set("timeformat", "unixtime")
		values.Set("timezone", "auto")
		return http.NewRequest(http.MethodGet, p.baseURL+"/v1/forecast?"+values.Encode(), nil)
	})
	if err != nil {
		return weather.Forecast{}, err
	}
	defer resp.Body.Close()

	var payload omForecastPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Forecast{}, &weather.MalformedResponseError{Provider: p.name, Detail: err.Error()}
	}

	return normalizeOpenMeteoForecast(p.name, payload)
}

func normalizeOpenMeteoForecast(provider string, payload omForecastPayload) (weather.Forecast, error) {
	h := payload.Hourly
	if len(h.Time) == 0 || len(h.Time) != len(h.Temperature2m) {
		return weather.Forecast{}, &weather.MalformedResponseError{Provider: provider, Detail: "inconsistent hourly arrays"}
	}
	d := payload.Daily
	if len(d.Time) == 0 || len(d.Time) != len(d.Temperature2mMax) || len(d.Time) != len(d.Temperature2mMin) {
		return weather.Forecast{}, &weather.MalformedResponseError{Provider: provider, Detail: "inconsistent daily arrays"}
	}

	zone := time.FixedZone("local", payload.UTCOffsetSeconds)

	hourly := make([]weather.HourlyPoint, 0, len(h.Time))
	for i, ts := range h.Time {
		point := weather.HourlyPoint{
			Timestamp:    time.Unix(ts, 0).In(zone),
			TemperatureC: h.Temperature2m[i],
		}
		if i < len(h.RelativeHumidity2m) {
			point.HumidityPct = h.RelativeHumidity2m[i]
		}
		if i < len(h.WindSpeed10m) {
			point.WindSpeedKph = h.WindSpeed10m[i]
		}
		if i < len(h.WeatherCode) {
			point.ConditionText, point.ConditionIcon, _ = describeWeatherCode(h.WeatherCode[i])
		}
		hourly = append(hourly, point)
	}

	daily := make([]weather.DailyPoint, 0, len(d.Time))
	for i, ts := range d.Time {
		point := weather.DailyPoint{
			Date:            time.Unix(ts, 0).In(zone).Format("2006-01-02"),
			MinTemperatureC: d.Temperature2mMin[i],
			MaxTemperatureC: d.Temperature2mMax[i],
		}
		if i < len(d.WeatherCode) {
			point.ConditionText, point.ConditionIcon, _ = describeWeatherCode(d.WeatherCode[i])
		}
		daily = append(daily, point)
	}

	return weather.Forecast{Hourly: hourly, Daily: daily}, nil
}

// describeWeatherCode maps WMO weather codes (simplified) to canonical
// condition text, an OpenWeather-style icon id, and the theming category.
func describeWeatherCode(code int) (text, icon, category string) {
	switch {
	case code == 0:
		return "clear sky", "01d", "clear"
	case code >= 1 && code <= 3:
		return "partly cloudy", "03d", "clouds"
	case code == 45 || code == 48:
		return "fog", "50d", "mist"
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82):
		return "rain", "09d", "rain"
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return "snow", "13d", "snow"
	case code >= 95:
		return "thunderstorm", "11d", "storm"
	default:
		return "unknown", "", ""
	}
}
