package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/annotile/internal/core/domain"
	"github.com/samirrijal/annotile/internal/core/ports"
	"github.com/samirrijal/annotile/internal/pkg/geodesy"
	"github.com/samirrijal/annotile/internal/pkg/stitch"
)

// MaxZoom is the highest tile zoom level a capture may request.
const MaxZoom = 22

// Phase names the capture pipeline stage an error occurred in.
type Phase string

const (
	PhaseValidating Phase = "validating"
	PhaseGrid       Phase = "computing_grid"
	PhaseFetching   Phase = "fetching"
	PhaseStitching  Phase = "stitching"
	PhaseProjecting Phase = "projecting"
	PhasePersisting Phase = "persisting"
)

// CaptureError wraps a pipeline failure with the phase it happened in.
type CaptureError struct {
	Phase Phase
	Err   error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture %s: %v", e.Phase, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// CaptureRequest describes one polygon capture.
type CaptureRequest struct {
	// Name labels the annotation and becomes part of its ID.
	Name string
	// Category is an optional label.
	Category string
	// Polygon is the area of interest in WGS84 coordinates.
	Polygon domain.Polygon
	// Zoom is the tile zoom level. Zero selects the highest zoom whose
	// grid fits the tile budget.
	Zoom int
	// TileServer is the friendly server name recorded with the
	// annotation.
	TileServer string
	// URLTemplate is the XYZ template tiles are fetched from.
	URLTemplate string
	// TileSize is the tile edge length in pixels. Zero uses the service
	// default.
	TileSize int
}

// CaptureOptions tunes the capture pipeline.
type CaptureOptions struct {
	TileSize     int
	MaxTiles     int
	FetchTimeout time.Duration
	AutoZoomMax  int
	AutoZoomMin  int
}

// CaptureService runs the capture pipeline: validate the request, compute
// the tile grid, fetch every tile, stitch them into one raster, project the
// polygon into pixel space and persist the artifacts plus the registry
// record. The raster always reaches disk before the registry references it,
// so a crash can orphan an image but never dangle a record.
type CaptureService struct {
	fetcher     ports.TileFetcher
	annotations ports.AnnotationRepository
	artifacts   ports.ArtifactStore
	opts        CaptureOptions
}

// NewCaptureService creates a new CaptureService.
func NewCaptureService(
	fetcher ports.TileFetcher,
	annotations ports.AnnotationRepository,
	artifacts ports.ArtifactStore,
	opts CaptureOptions,
) *CaptureService {
	if opts.TileSize <= 0 {
		opts.TileSize = 256
	}
	if opts.MaxTiles < 0 {
		opts.MaxTiles = 0
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 60 * time.Second
	}
	if opts.AutoZoomMax <= 0 {
		opts.AutoZoomMax = 19
	}
	if opts.AutoZoomMin <= 0 {
		opts.AutoZoomMin = 12
	}
	return &CaptureService{
		fetcher:     fetcher,
		annotations: annotations,
		artifacts:   artifacts,
		opts:        opts,
	}
}

// Capture executes the pipeline and returns the stored record. Failures
// carry their pipeline phase in a *CaptureError.
func (s *CaptureService) Capture(ctx context.Context, req CaptureRequest) (*domain.AnnotationRecord, error) {
	if err := s.validate(req); err != nil {
		return nil, &CaptureError{Phase: PhaseValidating, Err: err}
	}

	zoom := req.Zoom
	if zoom == 0 {
		z, err := geodesy.ChooseZoom(req.Polygon, s.opts.AutoZoomMax, s.opts.AutoZoomMin, s.opts.MaxTiles)
		if err != nil {
			return nil, &CaptureError{Phase: PhaseGrid, Err: err}
		}
		zoom = z
	}

	tileSize := s.opts.TileSize
	if req.TileSize > 0 {
		tileSize = req.TileSize
	}

	grid, err := geodesy.BoundingGrid(req.Polygon, zoom, s.opts.MaxTiles)
	if err != nil {
		return nil, &CaptureError{Phase: PhaseGrid, Err: err}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()
	tiles, err := s.fetcher.FetchAll(fetchCtx, grid, req.URLTemplate)
	if err != nil {
		return nil, &CaptureError{Phase: PhaseFetching, Err: err}
	}

	stitched, err := stitch.Compose(grid, tiles, tileSize)
	if err != nil {
		return nil, &CaptureError{Phase: PhaseStitching, Err: err}
	}

	topLeft, bottomLeft, err := geodesy.ProjectVertices(req.Polygon, grid, tileSize)
	if err != nil {
		return nil, &CaptureError{Phase: PhaseProjecting, Err: err}
	}

	now := time.Now().UTC()
	id := newAnnotationID(req.Name, now)

	imagePath, err := s.artifacts.WriteImage(ctx, id, zoom, stitched.Image)
	if err != nil {
		return nil, &CaptureError{Phase: PhasePersisting, Err: err}
	}

	bounds := geodesy.GridBounds(grid)
	sidecar := &domain.Sidecar{
		Coordinates:      req.Polygon,
		PixelsTopLeft:    topLeft,
		PixelsBottomLeft: bottomLeft,
		Category:         req.Category,
		Image: domain.SidecarImage{
			Width:      stitched.Width,
			Height:     stitched.Height,
			Zoom:       zoom,
			TileServer: req.TileServer,
			MinLon:     bounds.MinLon,
			MinLat:     bounds.MinLat,
			MaxLon:     bounds.MaxLon,
			MaxLat:     bounds.MaxLat,
		},
	}
	sidecarPath, err := s.artifacts.WriteSidecar(ctx, id, sidecar)
	if err != nil {
		return nil, &CaptureError{Phase: PhasePersisting, Err: err}
	}

	record := &domain.AnnotationRecord{
		ID:               id,
		Name:             req.Name,
		Category:         req.Category,
		Polygon:          req.Polygon,
		PixelsTopLeft:    topLeft,
		PixelsBottomLeft: bottomLeft,
		TileServer:       req.TileServer,
		Zoom:             zoom,
		ImageWidth:       stitched.Width,
		ImageHeight:      stitched.Height,
		ImagePath:        imagePath,
		SidecarPath:      sidecarPath,
		Center:           req.Polygon.Center(),
		Visible:          true,
		CreatedAt:        now,
	}

	// The image is already on disk. If this write fails the image stays
	// behind as an orphan for gc to collect; the registry never points at
	// an artifact that does not exist.
	if err := s.annotations.Upsert(ctx, record); err != nil {
		return nil, &CaptureError{Phase: PhasePersisting, Err: err}
	}

	return record, nil
}

func (s *CaptureService) validate(req CaptureRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return &domain.ValidationError{Reason: "name must not be empty"}
	}
	if req.Zoom < 0 || req.Zoom > MaxZoom {
		return &domain.ValidationError{Reason: fmt.Sprintf("zoom %d outside 0-%d", req.Zoom, MaxZoom)}
	}
	for _, ph := range []string{"{z}", "{x}", "{y}"} {
		if !strings.Contains(req.URLTemplate, ph) {
			return &domain.ValidationError{Reason: fmt.Sprintf("url template missing %s placeholder", ph)}
		}
	}
	return req.Polygon.Validate()
}

// newAnnotationID builds a sortable, human-readable, collision-safe ID:
// timestamp, sanitized name, then a short random suffix.
func newAnnotationID(name string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%s",
		at.Format("20060102_150405"),
		sanitizeName(name),
		uuid.NewString()[:8],
	)
}

// sanitizeName makes a name safe for use in file names on any platform.
func sanitizeName(name string) string {
	const unsafe = `\/:*?"<>| `
	out := strings.Map(func(r rune) rune {
		if strings.ContainsRune(unsafe, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if runes := []rune(out); len(runes) > 60 {
		out = string(runes[:60])
	}
	return out
}
