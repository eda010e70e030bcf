// Package stitch assembles fetched tiles into one contiguous raster.
package stitch

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"

	// Tile servers answer with PNG, JPEG, or WebP depending on provider.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/samirrijal/annotile/internal/core/domain"
)

// Compose decodes every tile of the grid and places it on a single canvas
// at ((x-minX)*tileSize, (y-minY)*tileSize). Each tile must decode to
// exactly tileSize x tileSize pixels: a silently resized tile would shift
// the pixel coordinates of every projected vertex, so mismatches fail the
// whole capture instead.
func Compose(grid domain.TileGrid, tiles map[domain.TileID][]byte, tileSize int) (*domain.StitchedImage, error) {
	width := grid.Width() * tileSize
	height := grid.Height() * tileSize
	canvas := image.NewNRGBA(image.Rect(0, 0, width, height))

	for _, id := range grid.Tiles() {
		raw, ok := tiles[id]
		if !ok {
			return nil, &domain.TileDecodeError{Tile: id, Err: fmt.Errorf("tile missing from fetch result")}
		}
		img, _, err := image.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, &domain.TileDecodeError{Tile: id, Err: err}
		}
		b := img.Bounds()
		if b.Dx() != tileSize || b.Dy() != tileSize {
			return nil, &domain.TileDecodeError{
				Tile: id,
				Err:  fmt.Errorf("tile is %dx%d, want %dx%d", b.Dx(), b.Dy(), tileSize, tileSize),
			}
		}

		dp := image.Pt((id.X-grid.MinX)*tileSize, (id.Y-grid.MinY)*tileSize)
		rect := image.Rectangle{Min: dp, Max: dp.Add(image.Pt(tileSize, tileSize))}
		draw.Draw(canvas, rect, img, b.Min, draw.Src)
	}

	return &domain.StitchedImage{
		Image:   canvas,
		Width:   width,
		Height:  height,
		OffsetX: float64(grid.MinX * tileSize),
		OffsetY: float64(grid.MinY * tileSize),
	}, nil
}
