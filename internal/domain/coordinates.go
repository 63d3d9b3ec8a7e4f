package domain

import "github.com/paulmach/orb"

// Geographic coordinates in degrees (WGS84).
// Equality is not used for identity; waypoints carry their own ids.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Return coordinates as [lon, lat] for external API compatibility.
func (c Coordinate) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }

// Return the coordinate as an orb point (x=lon, y=lat).
func (c Coordinate) Point() orb.Point { return orb.Point{c.Lon, c.Lat} }

// Valid reports whether latitude and longitude are within their ranges.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

func CoordinateFromPoint(p orb.Point) Coordinate {
	return Coordinate{Lat: p.Lat(), Lon: p.Lon()}
}

// LineString converts a coordinate sequence into an orb line string in degrees.
func LineString(coords []Coordinate) orb.LineString {
	ls := make(orb.LineString, 0, len(coords))
	for _, c := range coords {
		ls = append(ls, c.Point())
	}
	return ls
}
