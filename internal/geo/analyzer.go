// Package geo measures survey polygons: ring shape and closure, a planar
// area estimate, and great-circle distance.
package geo

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/parcel-verify/internal/parcel"
)

// EarthRadiusMeters is the mean Earth radius used by the haversine formula.
const EarthRadiusMeters = 6_371_000.0

// squareDegreesPerHectare converts shoelace output over degree coordinates
// into the approximate hectare figure recorded on survey sheets.
const squareDegreesPerHectare = 10_000.0

// MinRingCoords is the smallest closed ring: a triangle plus its repeated
// first vertex.
const MinRingCoords = 4

var (
	// ErrMissingGeometry is returned when no geometry was supplied.
	ErrMissingGeometry = eris.New("geo: geometry is missing")
	// ErrUnsupportedGeometry is returned for any GeoJSON type other than Polygon.
	ErrUnsupportedGeometry = eris.New("geo: only Polygon geometries are supported")
	// ErrMalformedCoordinates is returned when Polygon coordinates do not decode.
	ErrMalformedCoordinates = eris.New("geo: malformed polygon coordinates")
)

// ComputationError is the failure arm of an area computation.
type ComputationError struct {
	GeometryType string
	Err          error
}

func (e *ComputationError) Error() string {
	if e.GeometryType == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s (got %s)", e.Err.Error(), e.GeometryType)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}

// Polygon decodes a GeoJSON Polygon into a go-geom polygon with XY layout.
// Positions carrying altitude keep only their first two ordinates.
func Polygon(g *geojson.Geometry) (*geom.Polygon, error) {
	if g == nil {
		return nil, &ComputationError{Err: ErrMissingGeometry}
	}
	if g.Type != parcel.GeometryPolygon {
		return nil, &ComputationError{GeometryType: g.Type, Err: ErrUnsupportedGeometry}
	}
	if g.Coordinates == nil {
		return nil, &ComputationError{GeometryType: g.Type, Err: ErrMalformedCoordinates}
	}

	var rings [][][]float64
	if err := json.Unmarshal(*g.Coordinates, &rings); err != nil {
		return nil, &ComputationError{GeometryType: g.Type, Err: ErrMalformedCoordinates}
	}

	coords := make([][]geom.Coord, len(rings))
	for i, ring := range rings {
		coords[i] = make([]geom.Coord, len(ring))
		for j, pos := range ring {
			if len(pos) < 2 {
				return nil, &ComputationError{GeometryType: g.Type, Err: ErrMalformedCoordinates}
			}
			coords[i][j] = geom.Coord{pos[0], pos[1]}
		}
	}

	poly, err := geom.NewPolygon(geom.XY).SetCoords(coords)
	if err != nil {
		return nil, &ComputationError{GeometryType: g.Type, Err: eris.Wrap(err, "geo: build polygon")}
	}
	return poly, nil
}

// PolygonGeometry encodes rings as a GeoJSON Polygon geometry.
func PolygonGeometry(rings [][]geom.Coord) (*geojson.Geometry, error) {
	poly, err := geom.NewPolygon(geom.XY).SetCoords(rings)
	if err != nil {
		return nil, eris.Wrap(err, "geo: build polygon")
	}
	g, err := geojson.Encode(poly)
	if err != nil {
		return nil, eris.Wrap(err, "geo: encode polygon")
	}
	return g, nil
}

// OuterRing returns the exterior ring, or nil for a polygon with no rings.
// Inner rings are never interpreted.
func OuterRing(poly *geom.Polygon) *geom.LinearRing {
	if poly == nil || poly.NumLinearRings() == 0 {
		return nil
	}
	return poly.LinearRing(0)
}

// RingLength returns the number of positions in the ring.
func RingLength(ring *geom.LinearRing) int {
	if ring == nil {
		return 0
	}
	return ring.NumCoords()
}

// IsClosed reports whether the first and last positions are exactly equal.
// No epsilon is applied.
func IsClosed(ring *geom.LinearRing) bool {
	n := RingLength(ring)
	if n == 0 {
		return false
	}
	first, last := ring.Coord(0), ring.Coord(n-1)
	return first.X() == last.X() && first.Y() == last.Y()
}

// ClosureGapMeters is the great-circle distance between the first and last
// positions of a ring in [lon, lat] order.
func ClosureGapMeters(ring *geom.LinearRing) float64 {
	n := RingLength(ring)
	if n == 0 {
		return 0
	}
	first, last := ring.Coord(0), ring.Coord(n-1)
	return GreatCircleDistanceMeters(first.Y(), first.X(), last.Y(), last.X())
}

// PlanarAreaHectares applies the shoelace formula to the outer ring and
// scales the result by 1/10000. A polygon without an outer ring has no area. Coordinates are treated as planar degrees,
// so the figure is a rough estimate and must not be used as a survey-grade area.
func PlanarAreaHectares(g *geojson.Geometry) (float64, error) {
	poly, err := Polygon(g)
	if err != nil {
		return 0, err
	}
	ring := OuterRing(poly)
	if RingLength(ring) == 0 {
		return 0, &ComputationError{GeometryType: g.Type, Err: ErrMalformedCoordinates}
	}

	coords := ring.Coords()
	var sum float64
	for i := 0; i < len(coords)-1; i++ {
		x1, y1 := coords[i].X(), coords[i].Y()
		x2, y2 := coords[i+1].X(), coords[i+1].Y()
		sum += x1*y2 - x2*y1
	}
	return math.Abs(sum) / 2 / squareDegreesPerHectare, nil
}

// GreatCircleDistanceMeters is the haversine distance between two points
// given in degrees.
func GreatCircleDistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
