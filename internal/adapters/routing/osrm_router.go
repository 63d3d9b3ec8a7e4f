package routing

import (
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

// OSRMRouter implements ports.Router against an OSRM /route/v1 server.
type OSRMRouter struct {
	client
	baseURL string
	profile string
}

func NewOSRMRouter(baseURL, profile string, timeout time.Duration) (*OSRMRouter, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("OSRM base url is empty")
	}
	if profile == "" {
		profile = "driving"
	}
	return &OSRMRouter{
		client:  newClient("", timeout),
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: profile,
	}, nil
}

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Geometry string  `json:"geometry"`
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Legs     []struct {
			Steps []osrmStep `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

type osrmStep struct {
	Geometry string  `json:"geometry"`
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Name     string  `json:"name"`
	Maneuver struct {
		Type     string `json:"type"`
		Modifier string `json:"modifier"`
	} `json:"maneuver"`
}

func (o *OSRMRouter) Route(
	ctx context.Context,
	from domain.Coordinate,
	to domain.Coordinate,
	opts ports.RouteOptions,
) (_ domain.Directions, err error) {
	defer obs.Time(ctx, "osrm.Route")(&err)

	endpoint := fmt.Sprintf("%s/route/v1/%s/%.6f,%.6f;%.6f,%.6f",
		o.baseURL, o.profile, from.Lon, from.Lat, to.Lon, to.Lat)

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := o.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("overview", "full")
		q.Set("geometries", "polyline")
		q.Set("steps", "true")
		if !opts.AllowHighways {
			q.Set("exclude", "motorway")
		}
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.Directions{}, fmt.Errorf("osrm route: %w", mapOSRMError(err))
	}
	defer resp.Body.Close()

	var decoded osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Directions{}, fmt.Errorf("osrm route: decode response: %w", err)
	}
	if decoded.Code != "Ok" || len(decoded.Routes) == 0 {
		return domain.Directions{}, fmt.Errorf("osrm route: code %q: %w", decoded.Code, domain.ErrNoRoute)
	}
	r := decoded.Routes[0]

	line, err := geo.DecodePolyline(geo.StandardPolyline, r.Geometry)
	if err != nil {
		return domain.Directions{}, fmt.Errorf("osrm route: %w", err)
	}

	d := domain.Directions{
		Polyline:        line,
		DistanceMeters:  r.Distance,
		DurationSeconds: r.Duration,
	}
	for _, leg := range r.Legs {
		for _, s := range leg.Steps {
			stepLine, err := geo.DecodePolyline(geo.StandardPolyline, s.Geometry)
			if err != nil {
				return domain.Directions{}, fmt.Errorf("osrm route: step geometry: %w", err)
			}
			d.Steps = append(d.Steps, domain.Step{
				Instruction:     osrmInstruction(s),
				DistanceMeters:  s.Distance,
				DurationSeconds: s.Duration,
				Polyline:        stepLine,
			})
		}
	}

	return d, nil
}

// osrmInstruction builds readable text from a maneuver, e.g. "Turn left onto Main St".
func osrmInstruction(s osrmStep) string {
	m := s.Maneuver
	onto := ""
	if s.Name != "" {
		onto = " onto " + s.Name
	}

	switch m.Type {
	case "depart":
		if s.Name != "" {
			return "Head out on " + s.Name
		}
		return "Depart"
	case "arrive":
		return "Arrive at destination"
	case "roundabout", "rotary":
		return "Enter the roundabout" + onto
	case "continue", "new name":
		if m.Modifier == "" || m.Modifier == "straight" {
			return "Continue straight" + onto
		}
	}

	switch m.Modifier {
	case "left", "sharp left", "slight left":
		return "Turn " + m.Modifier + onto
	case "right", "sharp right", "slight right":
		return "Turn " + m.Modifier + onto
	case "uturn":
		return "Make a U-turn" + onto
	}
	return "Continue straight" + onto
}

// mapOSRMError turns OSRM NoRoute/NoSegment answers into domain.ErrNoRoute.
func mapOSRMError(err error) error {
	var he *httpStatusError
	if !errors.As(err, &he) {
		return err
	}

	var body osrmResponse
	if json.Unmarshal([]byte(he.Body), &body) == nil {
		switch body.Code {
		case "NoRoute", "NoSegment":
			return fmt.Errorf("%s: %w", body.Message, domain.ErrNoRoute)
		}
	}
	return err
}
