package geodesy

import (
	"fmt"

	"github.com/samirrijal/annotile/internal/core/domain"
)

// LocalPixel converts a global pixel coordinate into stitched-image pixel
// space. With bottomOrigin the y axis flips so row 0 is the bottom edge of
// the image.
func LocalPixel(px, py, offsetX, offsetY float64, imageHeight int, bottomOrigin bool) (lx, ly float64) {
	lx = px - offsetX
	ly = py - offsetY
	if bottomOrigin {
		ly = float64(imageHeight) - ly
	}
	return lx, ly
}

// ProjectVertices maps every polygon vertex into the pixel space of the
// image stitched from grid, under both origin conventions. Vertex order and
// count are preserved. A vertex landing outside the image means the grid
// does not actually cover the polygon; that is an internal inconsistency,
// reported as ErrProjectionOutOfBounds rather than papered over.
func ProjectVertices(pg domain.Polygon, grid domain.TileGrid, tileSize int) (topLeft, bottomLeft []domain.PixelPoint, err error) {
	offsetX := float64(grid.MinX * tileSize)
	offsetY := float64(grid.MinY * tileSize)
	width := float64(grid.Width() * tileSize)
	height := grid.Height() * tileSize

	topLeft = make([]domain.PixelPoint, 0, len(pg))
	bottomLeft = make([]domain.PixelPoint, 0, len(pg))
	for i, v := range pg {
		px, py, err := GlobalPixel(v, grid.Zoom, tileSize)
		if err != nil {
			return nil, nil, err
		}
		lx, ly := LocalPixel(px, py, offsetX, offsetY, 0, false)
		if lx < 0 || ly < 0 || lx > width || ly > float64(height) {
			return nil, nil, fmt.Errorf("vertex %d lands at (%.2f, %.2f) in a %.0fx%d image: %w",
				i, lx, ly, width, height, domain.ErrProjectionOutOfBounds)
		}
		_, by := LocalPixel(px, py, offsetX, offsetY, height, true)
		topLeft = append(topLeft, domain.PixelPoint{X: lx, Y: ly})
		bottomLeft = append(bottomLeft, domain.PixelPoint{X: lx, Y: by})
	}
	return topLeft, bottomLeft, nil
}
