package domain

import (
	"time"
)

// PixelPoint is a vertex position in stitched-image pixel space.
type PixelPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// AnnotationRecord is the persisted result of one capture. The polygon is
// carried in three coordinate systems so downstream export tooling can pick
// its convention without recomputation.
type AnnotationRecord struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Category         string       `json:"category"`
	Polygon          Polygon      `json:"polygon"`
	PixelsTopLeft    []PixelPoint `json:"pixels_top_left"`
	PixelsBottomLeft []PixelPoint `json:"pixels_bottom_left"`
	TileServer       string       `json:"tile_server"`
	Zoom             int          `json:"zoom"`
	ImageWidth       int          `json:"image_width"`
	ImageHeight      int          `json:"image_height"`
	ImagePath        string       `json:"image_path"`
	SidecarPath      string       `json:"sidecar_path,omitempty"`
	Center           GeoPoint     `json:"center"`
	Visible          bool         `json:"visible"`
	CreatedAt        time.Time    `json:"created_at"`
}

// Validate checks the record schema before it crosses the registry
// boundary. Both pixel rings must mirror the geographic ring vertex for
// vertex.
func (r *AnnotationRecord) Validate() error {
	switch {
	case r.ID == "":
		return &ValidationError{Reason: "record id is empty"}
	case len(r.Polygon) < 3:
		return &ValidationError{Reason: "record polygon needs at least 3 vertices"}
	case len(r.PixelsTopLeft) != len(r.Polygon):
		return &ValidationError{Reason: "top-left pixel ring does not match polygon vertex count"}
	case len(r.PixelsBottomLeft) != len(r.Polygon):
		return &ValidationError{Reason: "bottom-left pixel ring does not match polygon vertex count"}
	case r.Zoom < 0:
		return &ValidationError{Reason: "record zoom is negative"}
	case r.ImageWidth <= 0 || r.ImageHeight <= 0:
		return &ValidationError{Reason: "record image dimensions are empty"}
	case r.ImagePath == "":
		return &ValidationError{Reason: "record image path is empty"}
	case r.CreatedAt.IsZero():
		return &ValidationError{Reason: "record creation time is unset"}
	}
	return nil
}

// Sidecar is the per-capture export document written next to the raster.
type Sidecar struct {
	Coordinates      Polygon      `json:"coordinates_latlon"`
	PixelsTopLeft    []PixelPoint `json:"coordinates_pixels"`
	PixelsBottomLeft []PixelPoint `json:"coordinates_pixels_bottom_left"`
	Category         string       `json:"category"`
	Image            SidecarImage `json:"image_metadata"`
}

// SidecarImage describes the raster the pixel coordinates refer to.
type SidecarImage struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Zoom       int     `json:"zoom"`
	TileServer string  `json:"tile_server"`
	MinLon     float64 `json:"min_lon"`
	MinLat     float64 `json:"min_lat"`
	MaxLon     float64 `json:"max_lon"`
	MaxLat     float64 `json:"max_lat"`
}
