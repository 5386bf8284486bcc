package locate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/skycast/skycast/internal/weather"
)

// Fix is a raw device position with the time it was observed.
type Fix struct {
	Lat        float64
	Lon        float64
	ObservedAt time.Time
}

// DeviceLocator supplies raw device coordinates. Implementations may refuse
// or time out; the resolver treats any error as "move to the next tier".
type DeviceLocator interface {
	CurrentFix(ctx context.Context) (Fix, error)
}

// IPLocator approximates device geolocation from the service's egress IP
// using an ip-api.com style endpoint. A fix younger than maxFixAge is served
// from memory without a network call, mirroring the position-staleness
// tolerance of browser geolocation.
type IPLocator struct {
	baseURL    string
	httpClient *http.Client
	clock      clockwork.Clock
	maxFixAge  time.Duration

	mu      sync.Mutex
	lastFix *Fix
}

func NewIPLocator(baseURL string, timeout, maxFixAge time.Duration, clock clockwork.Clock) *IPLocator {
	return &IPLocator{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		clock:      clock,
		maxFixAge:  maxFixAge,
	}
}

func (l *IPLocator) CurrentFix(ctx context.Context) (Fix, error) {
	l.mu.Lock()
	if l.lastFix != nil && l.clock.Now().Sub(l.lastFix.ObservedAt) < l.maxFixAge {
		fix := *l.lastFix
		l.mu.Unlock()
		return fix, nil
	}
	l.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/json", nil)
	if err != nil {
		return Fix{}, &weather.LocationUnavailableError{Reason: err.Error()}
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return Fix{}, &weather.LocationUnavailableError{Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Fix{}, &weather.LocationUnavailableError{Reason: fmt.Sprintf("geolocation status %d", resp.StatusCode)}
	}

	var payload struct {
		Status string  `json:"status"`
		Lat    float64 `json:"lat"`
		Lon    float64 `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Fix{}, &weather.LocationUnavailableError{Reason: err.Error()}
	}
	if payload.Status != "success" {
		return Fix{}, &weather.LocationUnavailableError{Reason: "geolocation refused: " + payload.Status}
	}

	fix := Fix{Lat: payload.Lat, Lon: payload.Lon, ObservedAt: l.clock.Now()}

	l.mu.Lock()
	l.lastFix = &fix
	l.mu.Unlock()

	return fix, nil
}
