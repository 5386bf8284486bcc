package weather

import (
	"context"
)

// Provider abstracts one upstream weather source (e.g. OpenWeather,
// WeatherAPI, Open-Meteo). Adapters validate the raw payload and return
// canonical shapes; a structurally incomplete payload fails with
// MalformedResponseError, never a partially filled struct.
//
// Adding a provider means implementing this pair, not branching in shared
// logic.
type Provider interface {
	Name() string
	FetchCurrent(ctx context.Context, loc Location) (CurrentConditions, error)
	FetchForecast(ctx context.Context, loc Location) (Forecast, error)
}

// Cache is the optional read-through cache consulted by the Service.
// Implementations are advisory: a miss or a stale entry just means another
// upstream round trip.
type Cache interface {
	GetCurrent(key string) (CurrentConditions, bool)
	PutCurrent(key string, c CurrentConditions)
	GetForecast(key string) (Forecast, bool)
	PutForecast(key string, f Forecast)
}
