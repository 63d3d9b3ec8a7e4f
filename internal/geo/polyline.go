package geo

import (
	"fmt"
	"route-navigation-service/internal/domain"

	"github.com/twpayne/go-polyline"
)

var (
	// Google encoded polyline precision, as returned by ORS and OSRM.
	StandardPolyline = polyline.Codec{Dim: 2, Scale: 1e5}
	// Precision used for stored geometry.
	PrecisePolyline = polyline.Codec{Dim: 2, Scale: 1e6}
)

// DecodePolyline decodes an encoded polyline into coordinates.
func DecodePolyline(codec polyline.Codec, encoded string) ([]domain.Coordinate, error) {
	if encoded == "" {
		return nil, nil
	}

	coords, rest, err := codec.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode polyline: %w", err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("decode polyline: %d trailing bytes", len(rest))
	}

	out := make([]domain.Coordinate, 0, len(coords))
	for _, c := range coords {
		out = append(out, domain.Coordinate{Lat: c[0], Lon: c[1]})
	}
	return out, nil
}

func EncodePolyline(codec polyline.Codec, coords []domain.Coordinate) string {
	raw := make([][]float64, 0, len(coords))
	for _, c := range coords {
		raw = append(raw, []float64{c.Lat, c.Lon})
	}
	return string(codec.EncodeCoords(nil, raw))
}
