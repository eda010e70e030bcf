package domain

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
)

// MaxMercatorLat is the latitude bound of the Web Mercator projection.
// Points beyond it cannot be placed on a slippy-map tile.
const MaxMercatorLat = 85.0511

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the point is a legal WGS 84 coordinate.
func (p GeoPoint) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Polygon is an ordered ring of geographic vertices. The ring closes
// implicitly: the last vertex connects back to the first.
type Polygon []GeoPoint

// Validate rejects rings that cannot be captured: fewer than three
// vertices, coordinates outside WGS 84 range, identical consecutive
// vertices, zero area, and self-intersection.
func (pg Polygon) Validate() error {
	if len(pg) < 3 {
		return &ValidationError{Reason: fmt.Sprintf("polygon needs at least 3 vertices, got %d", len(pg))}
	}
	for i, p := range pg {
		if !p.Valid() {
			return &ValidationError{Reason: fmt.Sprintf("vertex %d outside WGS 84 range: lat=%g lon=%g", i, p.Lat, p.Lon)}
		}
	}
	for i := range pg {
		j := (i + 1) % len(pg)
		if pg[i] == pg[j] {
			return &ValidationError{Reason: fmt.Sprintf("vertices %d and %d are identical", i, j)}
		}
	}
	if pg.area() == 0 {
		return &ValidationError{Reason: "polygon has zero area"}
	}
	if err := pg.loop().Validate(); err != nil {
		return &ValidationError{Reason: "polygon is not simple: " + err.Error()}
	}
	return nil
}

// Center returns the vertex mean, the point the map UI zooms to when an
// annotation is selected.
func (pg Polygon) Center() GeoPoint {
	if len(pg) == 0 {
		return GeoPoint{}
	}
	var lat, lon float64
	for _, p := range pg {
		lat += p.Lat
		lon += p.Lon
	}
	n := float64(len(pg))
	return GeoPoint{Lat: lat / n, Lon: lon / n}
}

// Bounds returns the geographic bounding box of the ring.
func (pg Polygon) Bounds() Bounds {
	b := Bounds{MinLat: math.Inf(1), MinLon: math.Inf(1), MaxLat: math.Inf(-1), MaxLon: math.Inf(-1)}
	for _, p := range pg {
		b.MinLat = math.Min(b.MinLat, p.Lat)
		b.MinLon = math.Min(b.MinLon, p.Lon)
		b.MaxLat = math.Max(b.MaxLat, p.Lat)
		b.MaxLon = math.Max(b.MaxLon, p.Lon)
	}
	return b
}

// area is the planar shoelace area in squared degrees. It is only used to
// reject degenerate rings, so the distortion of treating lat/lon as planar
// does not matter.
func (pg Polygon) area() float64 {
	var sum float64
	for i := range pg {
		j := (i + 1) % len(pg)
		sum += pg[i].Lon*pg[j].Lat - pg[j].Lon*pg[i].Lat
	}
	return math.Abs(sum) / 2
}

// loop lifts the ring onto the sphere. s2's loop validation detects edge
// crossings without assuming convexity, which is exactly the simplicity
// check needed here; orientation does not matter for that purpose.
func (pg Polygon) loop() *s2.Loop {
	pts := make([]s2.Point, len(pg))
	for i, p := range pg {
		pts[i] = s2.PointFromLatLng(s2.LatLngFromDegrees(p.Lat, p.Lon))
	}
	return s2.LoopFromPoints(pts)
}
