package export

import (
	"bytes"
	"fmt"
	"route-navigation-service/internal/domain"

	"github.com/twpayne/go-kml"
)

// KML writes a Document with a Placemark per waypoint and per leg.
func KML(r Route) ([]byte, error) {
	name := r.Name
	if name == "" {
		name = "Route"
	}

	children := []kml.Element{kml.Name(name)}
	for i, c := range r.Waypoints {
		children = append(children, kml.Placemark(
			kml.Name(fmt.Sprintf("Waypoint %d", i+1)),
			kml.Point(kml.Coordinates(kmlCoordinate(c))),
		))
	}
	for _, leg := range r.Legs {
		coords := make([]kml.Coordinate, len(leg.Line))
		for i, c := range leg.Line {
			coords[i] = kmlCoordinate(c)
		}
		desc := "gap"
		if leg.Routed {
			desc = fmt.Sprintf("%.0f m, %.0f s", leg.DistanceMeters, leg.DurationSeconds)
		}
		children = append(children, kml.Placemark(
			kml.Name(fmt.Sprintf("Leg %d-%d", leg.From+1, leg.To+1)),
			kml.Description(desc),
			kml.LineString(
				kml.Tessellate(true),
				kml.Coordinates(coords...),
			),
		))
	}

	var buf bytes.Buffer
	if err := kml.KML(kml.Document(children...)).WriteIndent(&buf, "", "  "); err != nil {
		return nil, fmt.Errorf("export kml: %w", err)
	}
	return buf.Bytes(), nil
}

func kmlCoordinate(c domain.Coordinate) kml.Coordinate {
	return kml.Coordinate{Lon: c.Lon, Lat: c.Lat}
}
