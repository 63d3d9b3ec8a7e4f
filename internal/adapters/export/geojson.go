package export

import (
	"fmt"
	"route-navigation-service/internal/domain"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSON returns a FeatureCollection with one Point per waypoint and one
// LineString per leg.
func GeoJSON(r Route) ([]byte, error) {
	fc := geojson.NewFeatureCollection()

	for i, c := range r.Waypoints {
		f := geojson.NewFeature(c.Point())
		f.Properties["kind"] = "waypoint"
		f.Properties["index"] = i
		fc.Append(f)
	}

	for _, leg := range r.Legs {
		f := geojson.NewFeature(domain.LineString(leg.Line))
		f.Properties["kind"] = "leg"
		f.Properties["from"] = leg.From
		f.Properties["to"] = leg.To
		f.Properties["routed"] = leg.Routed
		if leg.Routed {
			f.Properties["distance_meters"] = leg.DistanceMeters
			f.Properties["duration_seconds"] = leg.DurationSeconds
		}
		fc.Append(f)
	}

	if r.Name != "" {
		fc.ExtraMembers = geojson.Properties{"name": r.Name}
	}
	if len(r.Waypoints) > 0 {
		fc.BBox = geojson.NewBBox(bound(r))
	}

	b, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("export geojson: %w", err)
	}
	return b, nil
}

func bound(r Route) orb.Bound {
	b := r.Waypoints[0].Point().Bound()
	for _, c := range r.Waypoints {
		b = b.Extend(c.Point())
	}
	for _, leg := range r.Legs {
		for _, c := range leg.Line {
			b = b.Extend(c.Point())
		}
	}
	return b
}
