// Package weather fetches daily forecasts from the OpenWeather 5-day/3-hour
// forecast API and folds them into one entry per calendar day.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/metrics"
)

// DefaultBaseURL is the public OpenWeather API root.
const DefaultBaseURL = "https://api.openweathermap.org"

const (
	cacheSize = 512
	cacheTTL  = 10 * time.Minute
)

// Client calls OpenWeather. Forecasts are cached per coordinate pair.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cache   *expirable.LRU[string, []domain.DailyForecast]
}

// NewClient returns a Client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    httpClient,
		cache:   expirable.NewLRU[string, []domain.DailyForecast](cacheSize, nil, cacheTTL),
	}
}

type forecastResponse struct {
	List []struct {
		DtTxt string `json:"dt_txt"`
		Main  struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	} `json:"list"`
}

// Forecast returns one entry per calendar day, in the order the provider
// lists them. Failures wrap domain.ErrUpstream.
func (c *Client) Forecast(ctx context.Context, lat, lon float64) ([]domain.DailyForecast, error) {
	key := strconv.FormatFloat(lat, 'f', 4, 64) + "," + strconv.FormatFloat(lon, 'f', 4, 64)
	if cached, ok := c.cache.Get(key); ok {
		return cached, nil
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("units", "metric")
	q.Set("appid", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/data/2.5/forecast?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("weather.Client.Forecast: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("weather", metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("weather.Client.Forecast: %w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.UpstreamRequests.WithLabelValues("weather", metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("weather.Client.Forecast: %w: status %d", domain.ErrUpstream, resp.StatusCode)
	}

	var body forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		metrics.UpstreamRequests.WithLabelValues("weather", metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("weather.Client.Forecast: %w: decode: %v", domain.ErrUpstream, err)
	}
	metrics.UpstreamRequests.WithLabelValues("weather", metrics.OutcomeOK).Inc()

	days := daily(body)
	c.cache.Add(key, days)
	return days, nil
}

// daily groups samples by the date part of dt_txt. Temp is the mean rounded
// half up; Description is the first sample's.
func daily(body forecastResponse) []domain.DailyForecast {
	type acc struct {
		sum  float64
		n    int
		desc string
	}
	byDate := map[string]*acc{}
	order := []string{}
	for _, e := range body.List {
		if len(e.DtTxt) < 10 {
			continue
		}
		date := e.DtTxt[:10]
		a, ok := byDate[date]
		if !ok {
			a = &acc{}
			if len(e.Weather) > 0 {
				a.desc = e.Weather[0].Description
			}
			byDate[date] = a
			order = append(order, date)
		}
		a.sum += e.Main.Temp
		a.n++
	}

	out := make([]domain.DailyForecast, len(order))
	for i, date := range order {
		a := byDate[date]
		out[i] = domain.DailyForecast{
			Date:        date,
			Temp:        int(math.Floor(a.sum/float64(a.n) + 0.5)),
			Description: a.desc,
		}
	}
	return out
}
