package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/repo"
)

// Forecaster returns daily forecasts for a point. *weather.Client satisfies it.
type Forecaster interface {
	Forecast(ctx context.Context, lat, lon float64) ([]domain.DailyForecast, error)
}

// ReverseGeocoder names a point. *geocode.Client satisfies it.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (domain.Place, error)
}

// forecastParallelism caps concurrent provider calls for one trip.
const forecastParallelism = 4

// WeatherService serves forecasts and place lookups for the map and the
// trip weather tab.
type WeatherService struct {
	trips      repo.TripStore
	forecaster Forecaster
	geocoder   ReverseGeocoder
}

// NewWeatherService constructs a WeatherService.
func NewWeatherService(trips repo.TripStore, forecaster Forecaster, geocoder ReverseGeocoder) *WeatherService {
	return &WeatherService{trips: trips, forecaster: forecaster, geocoder: geocoder}
}

// Forecast returns the daily forecast at lat/lon.
func (s *WeatherService) Forecast(ctx context.Context, lat, lon float64) ([]domain.DailyForecast, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return nil, fmt.Errorf("service.WeatherService.Forecast: %w", err)
	}
	days, err := s.forecaster.Forecast(ctx, lat, lon)
	if err != nil {
		return nil, fmt.Errorf("service.WeatherService.Forecast: %w", err)
	}
	return days, nil
}

// Reverse names the place at lat/lon.
func (s *WeatherService) Reverse(ctx context.Context, lat, lon float64) (domain.Place, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return domain.Place{}, fmt.Errorf("service.WeatherService.Reverse: %w", err)
	}
	p, err := s.geocoder.Reverse(ctx, lat, lon)
	if err != nil {
		return domain.Place{}, fmt.Errorf("service.WeatherService.Reverse: %w", err)
	}
	return p, nil
}

// TripForecast returns a forecast for every distinct item location on the
// trip, in the order the locations first appear. Locations are distinct by
// exact latitude and longitude.
func (s *WeatherService) TripForecast(ctx context.Context, tripID uuid.UUID) ([]domain.LocationForecast, error) {
	t, _, err := loadForCaller(ctx, s.trips, "WeatherService.TripForecast", tripID)
	if err != nil {
		return nil, err
	}

	type point struct{ lat, lon float64 }
	seen := map[point]bool{}
	out := []domain.LocationForecast{}
	for _, it := range t.Items {
		if it.Location == nil {
			continue
		}
		p := point{it.Location.Latitude, it.Location.Longitude}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, domain.LocationForecast{Location: *it.Location})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(forecastParallelism)
	for i := range out {
		g.Go(func() error {
			loc := out[i].Location
			days, err := s.forecaster.Forecast(gctx, loc.Latitude, loc.Longitude)
			if err != nil {
				return err
			}
			out[i].Forecasts = days
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("service.WeatherService.TripForecast: %w", err)
	}
	return out, nil
}
