package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/handler"
)

type mockWeatherServicer struct {
	forecast     func(ctx context.Context, lat, lon float64) ([]domain.DailyForecast, error)
	reverse      func(ctx context.Context, lat, lon float64) (domain.Place, error)
	tripForecast func(ctx context.Context, tripID uuid.UUID) ([]domain.LocationForecast, error)
}

func (m *mockWeatherServicer) Forecast(ctx context.Context, lat, lon float64) ([]domain.DailyForecast, error) {
	return m.forecast(ctx, lat, lon)
}
func (m *mockWeatherServicer) Reverse(ctx context.Context, lat, lon float64) (domain.Place, error) {
	return m.reverse(ctx, lat, lon)
}
func (m *mockWeatherServicer) TripForecast(ctx context.Context, tripID uuid.UUID) ([]domain.LocationForecast, error) {
	return m.tripForecast(ctx, tripID)
}

var _ handler.WeatherServicer = (*mockWeatherServicer)(nil)

func TestGetForecast_200(t *testing.T) {
	svc := &mockWeatherServicer{
		forecast: func(_ context.Context, lat, lon float64) ([]domain.DailyForecast, error) {
			assert.Equal(t, 48.85, lat)
			assert.Equal(t, 2.35, lon)
			return []domain.DailyForecast{{Date: "2026-07-01", Temp: 24, Description: "clear sky"}}, nil
		},
	}

	rec := serve(newHTTPHandler(handler.Services{Weather: svc}), http.MethodGet, "/weather?lat=48.85&lon=2.35", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"date":"2026-07-01","temp":24,"description":"clear sky"}]`, rec.Body.String())
}

func TestGetForecast_422_MissingCoordinates(t *testing.T) {
	h := newHTTPHandler(handler.Services{Weather: &mockWeatherServicer{}})

	for _, target := range []string{"/weather", "/weather?lat=1", "/weather?lat=north&lon=2", "/geocode/reverse?lon=2"} {
		rec := serve(h, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, target)
	}
}

func TestGetForecast_502_Upstream(t *testing.T) {
	svc := &mockWeatherServicer{
		forecast: func(context.Context, float64, float64) ([]domain.DailyForecast, error) {
			return nil, fmt.Errorf("service.WeatherService.Forecast: %w: weather: status 503", domain.ErrUpstream)
		},
	}

	rec := serve(newHTTPHandler(handler.Services{Weather: svc}), http.MethodGet, "/weather?lat=1&lon=2", nil)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "503")
}

func TestReverseGeocode_200(t *testing.T) {
	svc := &mockWeatherServicer{
		reverse: func(context.Context, float64, float64) (domain.Place, error) {
			return domain.Place{Name: "Louvre", Address: "Rue de Rivoli, Paris"}, nil
		},
	}

	rec := serve(newHTTPHandler(handler.Services{Weather: svc}), http.MethodGet, "/geocode/reverse?lat=48.86&lon=2.33", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"name":"Louvre","address":"Rue de Rivoli, Paris"}`, rec.Body.String())
}

func TestGetTripWeather(t *testing.T) {
	tripID := uuid.New()
	svc := &mockWeatherServicer{
		tripForecast: func(_ context.Context, id uuid.UUID) ([]domain.LocationForecast, error) {
			if id != tripID {
				return nil, fmt.Errorf("service.WeatherService.TripForecast: %w", domain.ErrNotFound)
			}
			return []domain.LocationForecast{{Forecasts: []domain.DailyForecast{{Date: "2026-07-01", Temp: 20}}}}, nil
		},
	}
	h := newHTTPHandler(handler.Services{Weather: svc})

	rec := serve(h, http.MethodGet, "/trips/"+tripID.String()+"/weather", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"temp":20`)

	rec = serve(h, http.MethodGet, "/trips/"+uuid.New().String()+"/weather", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
