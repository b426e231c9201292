// Package geocode resolves map points to place names with Nominatim.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/metrics"
)

// DefaultBaseURL is the public Nominatim instance.
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// UnknownPlace names a point the geocoder returned nothing for.
const UnknownPlace = "Unknown place"

// Client calls the Nominatim reverse endpoint. The public instance allows one
// request per second per application, so outbound calls share a limiter.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	cache     *expirable.LRU[string, domain.Place]
}

// NewClient returns a Client sending userAgent on every request, limited to
// rps requests per second.
func NewClient(baseURL, userAgent string, rps float64, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if rps <= 0 {
		rps = 1
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		http:      httpClient,
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		cache:     expirable.NewLRU[string, domain.Place](1024, nil, time.Hour),
	}
}

type reverseResponse struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// Reverse returns the place at lat/lon. Failures wrap domain.ErrUpstream.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (domain.Place, error) {
	key := strconv.FormatFloat(lat, 'f', 5, 64) + "," + strconv.FormatFloat(lon, 'f', 5, 64)
	if p, ok := c.cache.Get(key); ok {
		return p, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Place{}, fmt.Errorf("geocode.Client.Reverse: %w", err)
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return domain.Place{}, fmt.Errorf("geocode.Client.Reverse: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("geocode", metrics.OutcomeError).Inc()
		return domain.Place{}, fmt.Errorf("geocode.Client.Reverse: %w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.UpstreamRequests.WithLabelValues("geocode", metrics.OutcomeError).Inc()
		return domain.Place{}, fmt.Errorf("geocode.Client.Reverse: %w: status %d", domain.ErrUpstream, resp.StatusCode)
	}
	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		metrics.UpstreamRequests.WithLabelValues("geocode", metrics.OutcomeError).Inc()
		return domain.Place{}, fmt.Errorf("geocode.Client.Reverse: %w: decode: %v", domain.ErrUpstream, err)
	}
	metrics.UpstreamRequests.WithLabelValues("geocode", metrics.OutcomeOK).Inc()

	p := toPlace(body)
	c.cache.Add(key, p)
	return p, nil
}

func toPlace(r reverseResponse) domain.Place {
	name := r.Name
	if name == "" {
		name = r.DisplayName
	}
	if name == "" {
		name = UnknownPlace
	}
	return domain.Place{Name: name, Address: r.DisplayName}
}
