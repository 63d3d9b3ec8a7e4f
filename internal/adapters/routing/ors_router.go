package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"route-navigation-service/internal/domain"
	"route-navigation-service/internal/geo"
	"route-navigation-service/internal/platform/obs"
	"route-navigation-service/internal/ports"
	"strings"
	"time"
)

// ORSRouter implements ports.Router using the OpenRouteService directions API.
// The router is safe for concurrent use.
type ORSRouter struct {
	client
	baseURL string
	profile string
}

type ORSOptions struct {
	BaseURL string
	Profile string
	Timeout time.Duration
}

func NewORSRouter(apiKey string, opts ORSOptions) (*ORSRouter, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.openrouteservice.org"
	}
	if opts.Profile == "" {
		opts.Profile = "driving-car"
	}

	return &ORSRouter{
		client:  newClient(apiKey, opts.Timeout),
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		profile: opts.Profile,
	}, nil
}

type orsDirectionsRequest struct {
	Coordinates  [][]float64        `json:"coordinates"`
	Instructions bool               `json:"instructions"`
	Options      *orsRequestOptions `json:"options,omitempty"`
}

type orsRequestOptions struct {
	AvoidFeatures []string `json:"avoid_features,omitempty"`
}

type orsDirectionsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
		Geometry string `json:"geometry"`
		Segments []struct {
			Steps []struct {
				Distance    float64 `json:"distance"`
				Duration    float64 `json:"duration"`
				Type        int     `json:"type"`
				Instruction string  `json:"instruction"`
				WayPoints   []int   `json:"way_points"`
			} `json:"steps"`
		} `json:"segments"`
	} `json:"routes"`
}

type orsErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ORS error codes meaning the points cannot be connected.
var orsNoRouteCodes = map[int]bool{
	2004: true, // route exceeds the configured distance limit
	2009: true, // route could not be found
	2010: true, // point not found near the road network
}

func (o *ORSRouter) Route(
	ctx context.Context,
	from domain.Coordinate,
	to domain.Coordinate,
	opts ports.RouteOptions,
) (_ domain.Directions, err error) {
	defer obs.Time(ctx, "ors.Route")(&err)

	body := orsDirectionsRequest{
		Coordinates:  [][]float64{from.CoordsToList(), to.CoordsToList()},
		Instructions: true,
	}
	if !opts.AllowHighways {
		body.Options = &orsRequestOptions{AvoidFeatures: []string{"highways"}}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return domain.Directions{}, fmt.Errorf("ors route: marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/directions/%s", o.baseURL, o.profile)
	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		return o.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return domain.Directions{}, fmt.Errorf("ors route: %w", mapORSError(err))
	}
	defer resp.Body.Close()

	var decoded orsDirectionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Directions{}, fmt.Errorf("ors route: decode response: %w", err)
	}

	if len(decoded.Routes) == 0 {
		return domain.Directions{}, fmt.Errorf("ors route: empty routes: %w", domain.ErrNoRoute)
	}
	r := decoded.Routes[0]

	line, err := geo.DecodePolyline(geo.StandardPolyline, r.Geometry)
	if err != nil {
		return domain.Directions{}, fmt.Errorf("ors route: %w", err)
	}

	d := domain.Directions{
		Polyline:        line,
		DistanceMeters:  r.Summary.Distance,
		DurationSeconds: r.Summary.Duration,
	}

	// Step geometry is the slice of the route geometry between its way points.
	for _, seg := range r.Segments {
		for _, s := range seg.Steps {
			step := domain.Step{
				Instruction:     s.Instruction,
				DistanceMeters:  s.Distance,
				DurationSeconds: s.Duration,
			}
			if len(s.WayPoints) == 2 && s.WayPoints[0] >= 0 && s.WayPoints[1] < len(line) && s.WayPoints[0] <= s.WayPoints[1] {
				step.Polyline = line[s.WayPoints[0] : s.WayPoints[1]+1]
			}
			step.IconHint = orsIconHint(s.Type)
			d.Steps = append(d.Steps, step)
		}
	}

	return d, nil
}

// orsIconHint maps ORS instruction types to icons.
func orsIconHint(t int) string {
	switch t {
	case 0, 2, 4, 12: // left, sharp left, slight left, keep left
		return "arrow.turn.left"
	case 1, 3, 5, 13: // right, sharp right, slight right, keep right
		return "arrow.turn.right"
	default:
		return "arrow.up"
	}
}

// mapORSError turns ORS "no route" answers into domain.ErrNoRoute.
func mapORSError(err error) error {
	var he *httpStatusError
	if !errors.As(err, &he) {
		return err
	}

	var body orsErrorResponse
	if json.Unmarshal([]byte(he.Body), &body) == nil && orsNoRouteCodes[body.Error.Code] {
		return fmt.Errorf("%s: %w", body.Error.Message, domain.ErrNoRoute)
	}
	return err
}
