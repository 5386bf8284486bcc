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

	"github.com/skycast/skycast/internal/common"
	"github.com/skycast/skycast/internal/weather"
)

// WeatherAPI is the secondary provider: a shorter-horizon but widely available
// forecast feed. Its forecast endpoint returns whole local days of hourly
// samples, which the orchestrator concatenates into the fixed window.
type WeatherAPI struct {
	name    string
	apiKey  string
	baseURL string
	days    int
	cfg     ClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewWeatherAPI creates the adapter. days controls how many local days of
// hourly data are requested; two is enough to fill a 24-hour window starting
// mid-day.
func NewWeatherAPI(client *http.Client, apiKey, baseURL string, days int) *WeatherAPI {
	if days <= 0 {
		days = 3
	}
	return &WeatherAPI{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		days:    days,
		cfg: ClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      0,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: newBreaker("weatherapi"),
	}
}

func (p *WeatherAPI) Name() string { return p.name }

type waLocation struct {
	Name           string `json:"name"`
	Country        string `json:"country"`
	LocaltimeEpoch int64  `json:"localtime_epoch"`
	Localtime      string `json:"localtime"` // "2006-01-02 15:04"
}

type waCondition struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
}

type waCurrentPayload struct {
	Location waLocation `json:"location"`
	Current  *struct {
		TempC      float64     `json:"temp_c"`
		FeelslikeC float64     `json:"feelslike_c"`
		Humidity   float64     `json:"humidity"`
		WindKph    float64     `json:"wind_kph"`
		WindDegree float64     `json:"wind_degree"`
		UV         float64     `json:"uv"`
		VisKm      float64     `json:"vis_km"`
		PressureMb float64     `json:"pressure_mb"`
		Condition  waCondition `json:"condition"`
	} `json:"current"`
}

func (p *WeatherAPI) FetchCurrent(ctx context.Context, loc weather.Location) (weather.CurrentConditions, error) {
	if p.apiKey == "" {
		return weather.CurrentConditions{}, fmt.Errorf("weatherapi api key is not configured")
	}

	resp, err := doProviderRequest(ctx, p.cfg, p.circuit, p.name, func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		values.Set("q", fmt.Sprintf("%f,%f", loc.Lat, loc.Lon))
		return http.NewRequest(http.MethodGet, p.baseURL+"/v1/current.json?"+values.Encode(), nil)
	})
	if err != nil {
		return weather.CurrentConditions{}, err
	}
	defer resp.Body.Close()

	var payload waCurrentPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.CurrentConditions{}, &weather.MalformedResponseError{Provider: p.name, Detail: err.Error()}
	}

	return normalizeWeatherAPICurrent(p.name, payload, loc)
}

func normalizeWeatherAPICurrent(provider string, payload waCurrentPayload, loc weather.Location) (weather.CurrentConditions, error) {
	if payload.Current == nil {
		return weather.CurrentConditions{}, &weather.MalformedResponseError{Provider: provider, Detail: "missing current block"}
	}

	resolved := loc
	if resolved.Name == "" && payload.Location.Name != "" {
		resolved.Name = payload.Location.Name
		resolved.Country = payload.Location.Country
	}

	c := payload.Current
	return weather.CurrentConditions{
		TemperatureC:      c.TempC,
		FeelsLikeC:        c.FeelslikeC,
		HumidityPct:       c.Humidity,
		WindSpeedKph:      c.WindKph,
		WindDirectionDeg:  c.WindDegree,
		UVIndex:           c.UV,
		VisibilityM:       c.VisKm * 1000,
		PressureMb:        c.PressureMb,
		ConditionText:     c.Condition.Text,
		ConditionIcon:     c.Condition.Icon,
		ConditionCategory: categoryFromText(c.Condition.Text),
		Location:          resolved,
	}, nil
}

type waForecastPayload struct {
	Location waLocation `json:"location"`
	Forecast struct {
		Forecastday []struct {
			Date string `json:"date"`
			Day  struct {
				MintempC    float64     `json:"mintemp_c"`
				MaxtempC    float64     `json:"maxtemp_c"`
				AvgHumidity float64     `json:"avghumidity"`
				MaxwindKph  float64     `json:"maxwind_kph"`
				Condition   waCondition `json:"condition"`
			} `json:"day"`
			Hour []struct {
				TimeEpoch int64       `json:"time_epoch"`
				TempC     float64     `json:"temp_c"`
				Humidity  float64     `json:"humidity"`
				WindKph   float64     `json:"wind_kph"`
				Condition waCondition `json:"condition"`
			} `json:"hour"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

func (p *WeatherAPI) FetchForecast(ctx context.Context, loc weather.Location) (weather.Forecast, error) {
	if p.apiKey == "" {
		return weather.Forecast{}, fmt.Errorf("weatherapi api key is not configured")
	}

	resp, err := doProviderRequest(ctx, p.cfg, p.circuit, p.name, func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		values.Set("q", fmt.Sprintf("%f,%f", loc.Lat, loc.Lon))
		values.Set("days", fmt.Sprintf("%d", p.days))
		return http.NewRequest(http.MethodGet, p.baseURL+"/v1/forecast.json?"+values.Encode(), nil)
	})
	if err != nil {
		return weather.Forecast{}, err
	}
	defer resp.Body.Close()

	var payload waForecastPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Forecast{}, &weather.MalformedResponseError{Provider: p.name, Detail: err.Error()}
	}

	return normalizeWeatherAPIForecast(p.name, payload)
}

func normalizeWeatherAPIForecast(provider string, payload waForecastPayload) (weather.Forecast, error) {
	if len(payload.Forecast.Forecastday) == 0 {
		return weather.Forecast{}, &weather.MalformedResponseError{Provider: provider, Detail: "missing forecastday block"}
	}

	zone := localZone(payload.Location)

	var hourly []weather.HourlyPoint
	daily := make([]weather.DailyPoint, 0, len(payload.Forecast.Forecastday))

	for _, fd := range payload.Forecast.Forecastday {
		daily = append(daily, weather.DailyPoint{
			Date:            fd.Date,
			MinTemperatureC: fd.Day.MintempC,
			MaxTemperatureC: fd.Day.MaxtempC,
			ConditionIcon:   fd.Day.Condition.Icon,
			ConditionText:   fd.Day.Condition.Text,
			HumidityPct:     fd.Day.AvgHumidity,
			WindSpeedKph:    fd.Day.MaxwindKph,
		})

		for _, h := range fd.Hour {
			hourly = append(hourly, weather.HourlyPoint{
				Timestamp:     time.Unix(h.TimeEpoch, 0).In(zone),
				TemperatureC:  h.TempC,
				ConditionIcon: h.Condition.Icon,
				ConditionText: h.Condition.Text,
				HumidityPct:   h.Humidity,
				WindSpeedKph:  h.WindKph,
			})
		}
	}

	if len(hourly) == 0 {
		return weather.Forecast{}, &weather.MalformedResponseError{Provider: provider, Detail: "no hourly samples"}
	}

	return weather.Forecast{Hourly: hourly, Daily: daily}, nil
}

// localZone derives the location's UTC offset from the localtime string and
// epoch pair, so timestamps group on local calendar days.
func localZone(loc waLocation) *time.Location {
	if loc.Localtime == "" || loc.LocaltimeEpoch == 0 {
		return time.UTC
	}
	naive, err := time.Parse("2006-01-02 15:04", loc.Localtime)
	if err != nil {
		return time.UTC
	}
	offset := naive.Sub(time.Unix(loc.LocaltimeEpoch, 0).UTC()).Round(time.Minute)
	return time.FixedZone("local", int(offset.Seconds()))
}

// categoryFromText lowers a free-form condition description to the canonical
// theming keyword.
func categoryFromText(text string) string {
	switch {
	case text == "":
		return ""
	case common.ContainsAny(text, "thunder", "storm"):
		return "storm"
	case common.ContainsAny(text, "snow", "sleet", "blizzard", "ice"):
		return "snow"
	case common.ContainsAny(text, "rain", "shower", "drizzle"):
		return "rain"
	case common.ContainsAny(text, "mist", "fog", "haze"):
		return "mist"
	case common.ContainsAny(text, "cloud", "overcast"):
		return "clouds"
	case common.ContainsAny(text, "sunny", "clear"):
		return "clear"
	default:
		return strings.ToLower(strings.Fields(text)[0])
	}
}
