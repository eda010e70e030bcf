package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfProjectionRange marks latitudes beyond the Web Mercator
	// domain (|lat| > MaxMercatorLat).
	ErrOutOfProjectionRange = errors.New("latitude outside Web Mercator projection range")

	// ErrProjectionOutOfBounds marks a vertex that projected outside the
	// stitched image. It signals an inconsistency between the tile grid and
	// the polygon, not bad user input.
	ErrProjectionOutOfBounds = errors.New("vertex projected outside the stitched image")

	// ErrCaptureTimedOut marks a capture aborted by the fetch-phase deadline.
	ErrCaptureTimedOut = errors.New("capture timed out")

	// ErrRecordNotFound marks a registry lookup for an unknown identifier.
	ErrRecordNotFound = errors.New("annotation record not found")
)

// ValidationError rejects malformed input before any network work happens.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "validation: " + e.Reason }

// TileGridTooLargeError rejects grids beyond the configured tile budget,
// which guards against a mis-drawn polygon triggering a huge fetch.
type TileGridTooLargeError struct {
	Count int
	Cap   int
}

func (e *TileGridTooLargeError) Error() string {
	return fmt.Sprintf("tile grid needs %d tiles, cap is %d", e.Count, e.Cap)
}

// TileFetchError reports the first tile that could not be retrieved after
// the retry budget was spent.
type TileFetchError struct {
	Tile   TileID
	Status int // last HTTP status, 0 for transport errors
	Err    error
}

func (e *TileFetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch tile %s: HTTP %d", e.Tile, e.Status)
	}
	return fmt.Sprintf("fetch tile %s: %v", e.Tile, e.Err)
}

func (e *TileFetchError) Unwrap() error { return e.Err }

// TileDecodeError reports a tile whose bytes are not a usable raster of the
// expected dimensions.
type TileDecodeError struct {
	Tile TileID
	Err  error
}

func (e *TileDecodeError) Error() string {
	return fmt.Sprintf("decode tile %s: %v", e.Tile, e.Err)
}

func (e *TileDecodeError) Unwrap() error { return e.Err }

// RegistryError wraps a durability failure in the registry store.
type RegistryError struct {
	Op  string
	Err error
}

func (e *RegistryError) Error() string { return fmt.Sprintf("registry %s: %v", e.Op, e.Err) }

func (e *RegistryError) Unwrap() error { return e.Err }
