package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"route-navigation-service/internal/domain"
	"route-navigation-service/internal/platform/obs"
	"route-navigation-service/internal/ports"
	"strings"

	"go.uber.org/zap"
)

// ORSGeocoder resolves destination text with OpenRouteService (/geocode/search),
// consulting a persistent cache first when one is configured.
type ORSGeocoder struct {
	client
	baseURL string
	country string
	cache   ports.GeocodeCache
}

func NewORSGeocoder(apiKey string, opts ORSOptions, country string, cache ports.GeocodeCache) (*ORSGeocoder, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.openrouteservice.org"
	}
	return &ORSGeocoder{
		client:  newClient(apiKey, opts.Timeout),
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		country: country,
		cache:   cache,
	}, nil
}

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// normalize ensures consistent cache keys by collapsing whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (o *ORSGeocoder) Geocode(ctx context.Context, text string) (_ domain.Coordinate, err error) {
	defer obs.Time(ctx, "ors.Geocode")(&err)

	norm := normalize(text)
	if norm == "" {
		return domain.Coordinate{}, errors.New("geocode: text must be non-empty")
	}

	if o.cache != nil {
		hits, err := o.cache.GetMany(ctx, []string{norm})
		if err != nil {
			obs.L().Warn("geocode cache read failed", zap.Error(err))
		} else if c, ok := hits[norm]; ok {
			return c, nil
		}
	}

	endpoint := o.baseURL + "/geocode/search"
	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := o.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", norm)
		if o.country != "" {
			q.Set("boundary.country", o.country)
		}
		q.Set("size", "1")
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("geocode %q: %w", norm, err)
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinate{}, fmt.Errorf("decode geocode response: %w", err)
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinate{}, fmt.Errorf("no geocode results for %q: %w", norm, domain.ErrPlaceNotFound)
	}

	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return domain.Coordinate{}, fmt.Errorf("invalid coordinate format for %q", norm)
	}
	c := domain.Coordinate{Lon: coords[0], Lat: coords[1]}

	if o.cache != nil {
		if err := o.cache.PutMany(ctx, map[string]domain.Coordinate{norm: c}); err != nil {
			obs.L().Warn("geocode cache write failed", zap.Error(err))
		}
	}

	return c, nil
}
