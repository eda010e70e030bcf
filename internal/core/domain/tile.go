package domain

import (
	"fmt"
	"image"
)

// TileID identifies one raster tile in the slippy-map scheme.
type TileID struct {
	Zoom int `json:"zoom"`
	X    int `json:"x"`
	Y    int `json:"y"`
}

func (t TileID) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Zoom, t.X, t.Y)
}

// Valid reports whether x and y lie inside the 2^zoom grid.
func (t TileID) Valid() bool {
	if t.Zoom < 0 || t.Zoom > 30 {
		return false
	}
	n := 1 << t.Zoom
	return t.X >= 0 && t.X < n && t.Y >= 0 && t.Y < n
}

// TileGrid is a contiguous axis-aligned rectangle of tiles at one zoom
// level. Min and Max are inclusive.
type TileGrid struct {
	Zoom int `json:"zoom"`
	MinX int `json:"min_x"`
	MinY int `json:"min_y"`
	MaxX int `json:"max_x"`
	MaxY int `json:"max_y"`
}

func (g TileGrid) Width() int  { return g.MaxX - g.MinX + 1 }
func (g TileGrid) Height() int { return g.MaxY - g.MinY + 1 }
func (g TileGrid) Count() int  { return g.Width() * g.Height() }

// Contains reports whether the tile belongs to the grid.
func (g TileGrid) Contains(t TileID) bool {
	return t.Zoom == g.Zoom &&
		t.X >= g.MinX && t.X <= g.MaxX &&
		t.Y >= g.MinY && t.Y <= g.MaxY
}

// Tiles enumerates the grid row by row, top-left to bottom-right.
func (g TileGrid) Tiles() []TileID {
	out := make([]TileID, 0, g.Count())
	for y := g.MinY; y <= g.MaxY; y++ {
		for x := g.MinX; x <= g.MaxX; x++ {
			out = append(out, TileID{Zoom: g.Zoom, X: x, Y: y})
		}
	}
	return out
}

// StitchedImage is the composite raster assembled from one tile grid,
// together with the grid's top-left corner position in the global
// tile-pixel space at that zoom. The offset is what lets vertices be
// re-projected from global pixels into image-local pixels.
type StitchedImage struct {
	Image   *image.NRGBA
	Width   int
	Height  int
	OffsetX float64
	OffsetY float64
}
