package ports

import (
	"context"
	"image"

	"github.com/samirrijal/annotile/internal/core/domain"
)

// AnnotationRepository persists annotation records durably. Implementations
// must serialize mutations and never expose a partially written registry to
// any reader.
type AnnotationRepository interface {
	Upsert(ctx context.Context, record *domain.AnnotationRecord) error
	Get(ctx context.Context, id string) (*domain.AnnotationRecord, error)
	List(ctx context.Context) ([]domain.AnnotationRecord, error)
	UpdateFields(ctx context.Context, id string, category *string, visible *bool) error
	Delete(ctx context.Context, id string) error
}

// ArtifactStore persists capture artifacts (stitched raster plus sidecar
// document) under per-annotation identifiers.
type ArtifactStore interface {
	WriteImage(ctx context.Context, id string, zoom int, img image.Image) (path string, err error)
	WriteSidecar(ctx context.Context, id string, doc *domain.Sidecar) (path string, err error)
	UpdateSidecarCategory(ctx context.Context, id, category string) error
	Remove(ctx context.Context, id string) error
	ListIDs(ctx context.Context) ([]string, error)
}
