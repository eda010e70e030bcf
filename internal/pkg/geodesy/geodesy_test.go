package geodesy_test

import (
	"errors"
	"math"
	"testing"

	"github.com/samirrijal/annotile/internal/core/domain"
	"github.com/samirrijal/annotile/internal/pkg/geodesy"
)

func triangle() domain.Polygon {
	return domain.Polygon{
		{Lat: 40.0000, Lon: -74.0000},
		{Lat: 40.0010, Lon: -74.0000},
		{Lat: 40.0005, Lon: -73.9990},
	}
}

func TestTileFraction_Origin(t *testing.T) {
	fx, fy, err := geodesy.TileFraction(domain.GeoPoint{Lat: 0, Lon: 0}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fx != 1 || fy != 1 {
		t.Errorf("expected (1, 1) at zoom 1, got (%g, %g)", fx, fy)
	}
}

func TestTileFraction_Antimeridian(t *testing.T) {
	fx, _, err := geodesy.TileFraction(domain.GeoPoint{Lat: 0, Lon: 180}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fx != 4 {
		t.Errorf("expected lon 180 on the east edge (fx 4), got %g", fx)
	}
}

func TestTileFraction_OutOfProjectionRange(t *testing.T) {
	_, _, err := geodesy.TileFraction(domain.GeoPoint{Lat: 85.2, Lon: 0}, 10)
	if !errors.Is(err, domain.ErrOutOfProjectionRange) {
		t.Fatalf("expected ErrOutOfProjectionRange, got %v", err)
	}
	_, _, err = geodesy.TileFraction(domain.GeoPoint{Lat: -86, Lon: 0}, 10)
	if !errors.Is(err, domain.ErrOutOfProjectionRange) {
		t.Fatalf("expected ErrOutOfProjectionRange, got %v", err)
	}
}

func TestTileFraction_MercatorEdge(t *testing.T) {
	_, fy, err := geodesy.TileFraction(domain.GeoPoint{Lat: domain.MaxMercatorLat, Lon: 0}, 0)
	if err != nil {
		t.Fatalf("unexpected error at the projection edge: %v", err)
	}
	if fy < 0 || fy > 0.001 {
		t.Errorf("expected fy at the top of the world, got %g", fy)
	}
}

func TestGlobalPixel(t *testing.T) {
	px, py, err := geodesy.GlobalPixel(domain.GeoPoint{Lat: 0, Lon: 0}, 1, 256)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if px != 256 || py != 256 {
		t.Errorf("expected (256, 256), got (%g, %g)", px, py)
	}
}

func TestBoundingGrid_CoversVertices(t *testing.T) {
	pg := triangle()
	grid, err := geodesy.BoundingGrid(pg, 18, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if grid.Zoom != 18 {
		t.Errorf("expected zoom 18, got %d", grid.Zoom)
	}
	for i, v := range pg {
		fx, fy, err := geodesy.TileFraction(v, 18)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		id := domain.TileID{Zoom: 18, X: int(fx), Y: int(fy)}
		if !grid.Contains(id) {
			t.Errorf("vertex %d in tile %s not covered by grid %+v", i, id, grid)
		}
	}
	// A block of a few streets never spans more than a couple of tiles at
	// zoom 18.
	if grid.Count() > 4 {
		t.Errorf("expected at most 4 tiles, got %d", grid.Count())
	}
}

func TestBoundingGrid_TooManyTiles(t *testing.T) {
	pg := domain.Polygon{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 0.1},
		{Lat: 0.1, Lon: 0.1},
		{Lat: 0.1, Lon: 0},
	}
	_, err := geodesy.BoundingGrid(pg, 18, 4)
	var tooLarge *domain.TileGridTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("expected TileGridTooLargeError, got %v", err)
	}
	if tooLarge.Count <= tooLarge.Cap {
		t.Errorf("expected count above cap, got %d <= %d", tooLarge.Count, tooLarge.Cap)
	}

	// cap 0 disables the budget
	if _, err := geodesy.BoundingGrid(pg, 18, 0); err != nil {
		t.Fatalf("unexpected error with the cap disabled: %v", err)
	}
}

func TestBoundingGrid_AntimeridianClamp(t *testing.T) {
	pg := domain.Polygon{
		{Lat: 0, Lon: 179.9},
		{Lat: 0.1, Lon: 180},
		{Lat: 0.1, Lon: 179.9},
	}
	grid, err := geodesy.BoundingGrid(pg, 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if grid.MinX != 3 || grid.MaxX != 3 {
		t.Errorf("expected grid clamped to column 3, got x %d..%d", grid.MinX, grid.MaxX)
	}
}

func TestChooseZoom(t *testing.T) {
	pg := domain.Polygon{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 0.1},
		{Lat: 0.1, Lon: 0.1},
		{Lat: 0.1, Lon: 0},
	}
	zoom, err := geodesy.ChooseZoom(pg, 19, 3, 16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if zoom < 3 || zoom > 19 {
		t.Fatalf("expected zoom within 3..19, got %d", zoom)
	}
	grid, err := geodesy.BoundingGrid(pg, zoom, 16)
	if err != nil {
		t.Fatalf("chosen zoom does not fit the budget: %v", err)
	}
	if grid.Count() > 16 {
		t.Errorf("expected at most 16 tiles at zoom %d, got %d", zoom, grid.Count())
	}
	// The scan returns the first zoom that fits, so one level up must bust
	// the budget.
	if zoom < 19 {
		if _, err := geodesy.BoundingGrid(pg, zoom+1, 16); err == nil {
			t.Errorf("expected zoom %d to bust the budget", zoom+1)
		}
	}
}

func TestChooseZoom_NothingFits(t *testing.T) {
	pg := domain.Polygon{
		{Lat: -80, Lon: -179},
		{Lat: -80, Lon: 179},
		{Lat: 80, Lon: 0},
	}
	_, err := geodesy.ChooseZoom(pg, 6, 3, 1)
	var tooLarge *domain.TileGridTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("expected TileGridTooLargeError, got %v", err)
	}
}

func TestChooseZoom_OutOfProjectionRange(t *testing.T) {
	pg := domain.Polygon{
		{Lat: 86, Lon: 0},
		{Lat: 0, Lon: 1},
		{Lat: 1, Lon: 0},
	}
	_, err := geodesy.ChooseZoom(pg, 19, 3, 16)
	if !errors.Is(err, domain.ErrOutOfProjectionRange) {
		t.Fatalf("expected ErrOutOfProjectionRange, got %v", err)
	}
}

func TestGridBounds(t *testing.T) {
	b := geodesy.GridBounds(domain.TileGrid{Zoom: 1, MinX: 0, MinY: 0, MaxX: 0, MaxY: 0})
	if b.MinLon != -180 || b.MaxLon != 0 {
		t.Errorf("unexpected lon bounds: %+v", b)
	}
	if b.MinLat != 0 {
		t.Errorf("expected min lat 0, got %g", b.MinLat)
	}
	if math.Abs(b.MaxLat-domain.MaxMercatorLat) > 0.001 {
		t.Errorf("expected max lat near the projection edge, got %g", b.MaxLat)
	}
}

func TestLocalPixel(t *testing.T) {
	lx, ly := geodesy.LocalPixel(600, 500, 512, 256, 0, false)
	if lx != 88 || ly != 244 {
		t.Errorf("expected (88, 244), got (%g, %g)", lx, ly)
	}
	_, by := geodesy.LocalPixel(600, 500, 512, 256, 512, true)
	if by != 268 {
		t.Errorf("expected mirrored y 268, got %g", by)
	}
}

func TestProjectVertices(t *testing.T) {
	pg := triangle()
	grid, err := geodesy.BoundingGrid(pg, 18, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	top, bottom, err := geodesy.ProjectVertices(pg, grid, 256)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(top) != len(pg) || len(bottom) != len(pg) {
		t.Fatalf("expected %d vertices in both rings, got %d and %d", len(pg), len(top), len(bottom))
	}

	width := float64(grid.Width() * 256)
	height := float64(grid.Height() * 256)
	for i := range top {
		if top[i].X < 0 || top[i].X > width || top[i].Y < 0 || top[i].Y > height {
			t.Errorf("vertex %d outside the image: %+v", i, top[i])
		}
		if bottom[i].X != top[i].X {
			t.Errorf("vertex %d: x differs between origins: %g vs %g", i, top[i].X, bottom[i].X)
		}
		if bottom[i].Y != height-top[i].Y {
			t.Errorf("vertex %d: expected bottom y %g, got %g", i, height-top[i].Y, bottom[i].Y)
		}
	}
}

func TestProjectVertices_OutOfBounds(t *testing.T) {
	pg := domain.Polygon{
		{Lat: 0, Lon: 100},
		{Lat: 1, Lon: 101},
		{Lat: 1, Lon: 100},
	}
	grid := domain.TileGrid{Zoom: 2, MinX: 0, MinY: 0, MaxX: 0, MaxY: 0}
	_, _, err := geodesy.ProjectVertices(pg, grid, 256)
	if !errors.Is(err, domain.ErrProjectionOutOfBounds) {
		t.Fatalf("expected ErrProjectionOutOfBounds, got %v", err)
	}
}
