// Package geodesy holds the pure coordinate conversions behind every
// capture: WGS 84 to fractional slippy-map tiles, tiles to the global
// pixel space at a zoom level, and global pixels to stitched-image pixels.
package geodesy

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"

	"github.com/samirrijal/annotile/internal/core/domain"
)

// TileFraction projects a point to fractional tile coordinates at the given
// zoom. The integer parts index the containing tile; the fractional parts
// locate the point inside it.
func TileFraction(p domain.GeoPoint, zoom int) (fx, fy float64, err error) {
	if p.Lat < -domain.MaxMercatorLat || p.Lat > domain.MaxMercatorLat {
		return 0, 0, fmt.Errorf("lat %g: %w", p.Lat, domain.ErrOutOfProjectionRange)
	}
	f := maptile.Fraction(orb.Point{p.Lon, p.Lat}, maptile.Zoom(zoom))
	fx, fy = f[0], f[1]
	if p.Lon == 180 && fx == 0 {
		// keep the antimeridian on the east edge instead of wrapped to
		// column 0
		fx = float64(int(1) << zoom)
	}
	return fx, fy, nil
}

// GlobalPixel projects a point into the global tile-pixel space at a zoom,
// where tile (x, y) has its top-left corner at (x*tileSize, y*tileSize).
func GlobalPixel(p domain.GeoPoint, zoom, tileSize int) (px, py float64, err error) {
	fx, fy, err := TileFraction(p, zoom)
	if err != nil {
		return 0, 0, err
	}
	return fx * float64(tileSize), fy * float64(tileSize), nil
}

// BoundingGrid returns the minimal tile rectangle covering every vertex of
// the polygon, clamped to the 2^zoom grid. maxTiles caps the rectangle
// size; a cap of 0 disables the check.
func BoundingGrid(pg domain.Polygon, zoom, maxTiles int) (domain.TileGrid, error) {
	if len(pg) == 0 {
		return domain.TileGrid{}, &domain.ValidationError{Reason: "polygon is empty"}
	}

	minFX, minFY := math.Inf(1), math.Inf(1)
	maxFX, maxFY := math.Inf(-1), math.Inf(-1)
	for _, v := range pg {
		fx, fy, err := TileFraction(v, zoom)
		if err != nil {
			return domain.TileGrid{}, err
		}
		minFX = math.Min(minFX, fx)
		minFY = math.Min(minFY, fy)
		maxFX = math.Max(maxFX, fx)
		maxFY = math.Max(maxFY, fy)
	}

	n := 1 << zoom
	grid := domain.TileGrid{
		Zoom: zoom,
		MinX: clampTile(int(math.Floor(minFX)), n),
		MinY: clampTile(int(math.Floor(minFY)), n),
		MaxX: clampTile(int(math.Floor(maxFX)), n),
		MaxY: clampTile(int(math.Floor(maxFY)), n),
	}
	if maxTiles > 0 && grid.Count() > maxTiles {
		return domain.TileGrid{}, &domain.TileGridTooLargeError{Count: grid.Count(), Cap: maxTiles}
	}
	return grid, nil
}

func clampTile(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// ChooseZoom scans from maxZoom down to minZoom and returns the first zoom
// whose bounding grid fits the tile budget.
func ChooseZoom(pg domain.Polygon, maxZoom, minZoom, maxTiles int) (int, error) {
	var last error
	for z := maxZoom; z >= minZoom; z-- {
		_, err := BoundingGrid(pg, z, maxTiles)
		if err == nil {
			return z, nil
		}
		var tooLarge *domain.TileGridTooLargeError
		if !errors.As(err, &tooLarge) {
			return 0, err
		}
		last = err
	}
	if last == nil {
		last = fmt.Errorf("no zoom between %d and %d", minZoom, maxZoom)
	}
	return 0, last
}

// GridBounds returns the geographic bounding box the grid's tiles cover.
func GridBounds(g domain.TileGrid) domain.Bounds {
	nw := maptile.New(uint32(g.MinX), uint32(g.MinY), maptile.Zoom(g.Zoom)).Bound()
	se := maptile.New(uint32(g.MaxX), uint32(g.MaxY), maptile.Zoom(g.Zoom)).Bound()
	return domain.Bounds{
		MinLat: se.Min.Lat(),
		MinLon: nw.Min.Lon(),
		MaxLat: nw.Max.Lat(),
		MaxLon: se.Max.Lon(),
	}
}
