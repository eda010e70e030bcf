package stitch_test

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/samirrijal/annotile/internal/core/domain"
	"github.com/samirrijal/annotile/internal/pkg/stitch"
)

func solidPNG(t *testing.T, size int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode tile: %v", err)
	}
	return buf.Bytes()
}

func TestCompose(t *testing.T) {
	grid := domain.TileGrid{Zoom: 18, MinX: 10, MinY: 20, MaxX: 11, MaxY: 21}
	red := color.NRGBA{R: 255, A: 255}
	green := color.NRGBA{G: 255, A: 255}
	blue := color.NRGBA{B: 255, A: 255}
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}

	tiles := map[domain.TileID][]byte{
		{Zoom: 18, X: 10, Y: 20}: solidPNG(t, 8, red),
		{Zoom: 18, X: 11, Y: 20}: solidPNG(t, 8, green),
		{Zoom: 18, X: 10, Y: 21}: solidPNG(t, 8, blue),
		{Zoom: 18, X: 11, Y: 21}: solidPNG(t, 8, white),
	}

	out, err := stitch.Compose(grid, tiles, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Width != 16 || out.Height != 16 {
		t.Fatalf("expected 16x16 canvas, got %dx%d", out.Width, out.Height)
	}
	if out.OffsetX != 80 || out.OffsetY != 160 {
		t.Errorf("expected offset (80, 160), got (%g, %g)", out.OffsetX, out.OffsetY)
	}

	// one pixel inside each quadrant
	if got := out.Image.NRGBAAt(2, 2); got != red {
		t.Errorf("expected red at (2,2), got %+v", got)
	}
	if got := out.Image.NRGBAAt(12, 2); got != green {
		t.Errorf("expected green at (12,2), got %+v", got)
	}
	if got := out.Image.NRGBAAt(2, 12); got != blue {
		t.Errorf("expected blue at (2,12), got %+v", got)
	}
	if got := out.Image.NRGBAAt(12, 12); got != white {
		t.Errorf("expected white at (12,12), got %+v", got)
	}
}

func TestCompose_MissingTile(t *testing.T) {
	grid := domain.TileGrid{Zoom: 18, MinX: 0, MinY: 0, MaxX: 1, MaxY: 0}
	tiles := map[domain.TileID][]byte{
		{Zoom: 18, X: 0, Y: 0}: solidPNG(t, 8, color.NRGBA{A: 255}),
	}
	_, err := stitch.Compose(grid, tiles, 8)
	var derr *domain.TileDecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("expected TileDecodeError, got %v", err)
	}
	if derr.Tile != (domain.TileID{Zoom: 18, X: 1, Y: 0}) {
		t.Errorf("expected the missing tile in the error, got %s", derr.Tile)
	}
}

func TestCompose_GarbageBytes(t *testing.T) {
	grid := domain.TileGrid{Zoom: 18, MinX: 0, MinY: 0, MaxX: 0, MaxY: 0}
	tiles := map[domain.TileID][]byte{
		{Zoom: 18, X: 0, Y: 0}: []byte("not an image"),
	}
	_, err := stitch.Compose(grid, tiles, 8)
	var derr *domain.TileDecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("expected TileDecodeError, got %v", err)
	}
}

func TestCompose_WrongTileSize(t *testing.T) {
	grid := domain.TileGrid{Zoom: 18, MinX: 0, MinY: 0, MaxX: 0, MaxY: 0}
	tiles := map[domain.TileID][]byte{
		{Zoom: 18, X: 0, Y: 0}: solidPNG(t, 4, color.NRGBA{A: 255}),
	}
	_, err := stitch.Compose(grid, tiles, 8)
	var derr *domain.TileDecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("expected TileDecodeError, got %v", err)
	}
}
