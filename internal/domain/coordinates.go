package domain

import (
	"fmt"
	"math"
	"strconv"
)

const earthRadiusMeters = 6371000

// Immutable geographic coordinate (latitude, longitude).
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Return coordinates as [lon, lat] for external API compatibility.
func (c Coordinate) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }

// Valid reports whether the coordinate lies within WGS84 bounds.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%s,%s)", formatDegrees(c.Lat), formatDegrees(c.Lon))
}

// Build a coordinate from a provider [lon, lat] pair.
func CoordinateFromList(pair []float64) (Coordinate, error) {
	if len(pair) < 2 {
		return Coordinate{}, fmt.Errorf("coordinate pair: want [lon, lat], got %d values", len(pair))
	}
	c := Coordinate{Lon: pair[0], Lat: pair[1]}
	if !c.Valid() {
		return Coordinate{}, fmt.Errorf("coordinate pair: %v out of range", pair)
	}
	return c, nil
}

// DistanceMeters returns the great-circle distance between two coordinates.
func DistanceMeters(a, b Coordinate) float64 {
	phi1 := a.Lat * math.Pi / 180
	phi2 := b.Lat * math.Pi / 180
	deltaPhi := (b.Lat - a.Lat) * math.Pi / 180
	deltaLambda := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)

	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Bearing returns the initial bearing from a to b in degrees (0-360).
func Bearing(a, b Coordinate) float64 {
	phi1 := a.Lat * math.Pi / 180
	phi2 := b.Lat * math.Pi / 180
	deltaLambda := (b.Lon - a.Lon) * math.Pi / 180

	x := math.Sin(deltaLambda) * math.Cos(phi2)
	y := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(deltaLambda)

	return math.Mod(math.Atan2(x, y)*180/math.Pi+360, 360)
}

// Interpolate linearly between two coordinates. Segments are short enough
// that planar interpolation is indistinguishable from the geodesic.
func Interpolate(a, b Coordinate, fraction float64) Coordinate {
	return Coordinate{
		Lat: a.Lat + (b.Lat-a.Lat)*fraction,
		Lon: a.Lon + (b.Lon-a.Lon)*fraction,
	}
}

func formatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
