package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/skycast/skycast/internal/store"
	"github.com/skycast/skycast/internal/weather"
)

// Scheduler periodically refreshes cached weather for the locations users
// actually look at: the durable session location plus the configured default.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	service    *weather.Service
	sessions   store.SessionStore
	defaultLoc weather.Location
	interval   time.Duration
	logger     *slog.Logger
}

// New creates a new Scheduler.
func New(service *weather.Service, sessions store.SessionStore, defaultLoc weather.Location, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler:  gocron.NewScheduler(time.UTC),
		service:    service,
		sessions:   sessions,
		defaultLoc: defaultLoc,
		interval:   interval,
		logger:     logger,
	}
}

// Start schedules the prewarm job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(s.prewarm)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) prewarm() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	locations := []weather.Location{s.defaultLoc}
	if rec, err := s.sessions.Get(ctx); err == nil && rec.LastLocation != nil {
		locations = append(locations, *rec.LastLocation)
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.logger.Warn("prewarm: session read failed", "error", err)
	}

	s.logger.Debug("prewarm: refreshing cache", "locations", len(locations))

	var wg sync.WaitGroup
	for _, loc := range locations {
		loc := loc
		wg.Add(1)
		go func() {
			defer wg.Done()

			if _, err := s.service.Current(ctx, loc); err != nil {
				s.logger.Warn("prewarm: current fetch failed", "location", loc.Key(), "error", err)
				return
			}
			if _, err := s.service.Forecast(ctx, loc); err != nil {
				s.logger.Warn("prewarm: forecast fetch failed", "location", loc.Key(), "error", err)
			}
		}()
	}
	wg.Wait()
}
