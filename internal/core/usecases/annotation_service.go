package usecases

import (
	"context"
	"fmt"

	"github.com/samirrijal/annotile/internal/core/domain"
	"github.com/samirrijal/annotile/internal/core/ports"
)

// AnnotationService handles queries and lifecycle of stored annotations.
type AnnotationService struct {
	annotations ports.AnnotationRepository
	artifacts   ports.ArtifactStore
}

// NewAnnotationService creates a new AnnotationService.
func NewAnnotationService(annotations ports.AnnotationRepository, artifacts ports.ArtifactStore) *AnnotationService {
	return &AnnotationService{annotations: annotations, artifacts: artifacts}
}

// List returns every annotation, optionally filtered by category.
func (s *AnnotationService) List(ctx context.Context, category string) ([]domain.AnnotationRecord, error) {
	records, err := s.annotations.List(ctx)
	if err != nil {
		return nil, err
	}
	if category == "" {
		return records, nil
	}

	filtered := records[:0]
	for _, r := range records {
		if r.Category == category {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// Get returns a single annotation.
func (s *AnnotationService) Get(ctx context.Context, id string) (*domain.AnnotationRecord, error) {
	return s.annotations.Get(ctx, id)
}

// UpdateFields patches the category and/or visible flag of an annotation and
// returns the updated record. When the category changes, the sidecar on disk
// is rewritten to match.
func (s *AnnotationService) UpdateFields(ctx context.Context, id string, category *string, visible *bool) (*domain.AnnotationRecord, error) {
	if category == nil && visible == nil {
		return nil, &domain.ValidationError{Reason: "nothing to update"}
	}

	if err := s.annotations.UpdateFields(ctx, id, category, visible); err != nil {
		return nil, err
	}

	if category != nil {
		// Best-effort; the registry is the source of truth
		_ = s.artifacts.UpdateSidecarCategory(ctx, id, *category)
	}

	return s.annotations.Get(ctx, id)
}

// Delete removes the annotation record and its artifacts. The record goes
// first: a failure while removing files leaves orphans for gc, never a
// registry entry pointing at nothing.
func (s *AnnotationService) Delete(ctx context.Context, id string) error {
	if err := s.annotations.Delete(ctx, id); err != nil {
		return err
	}
	// Best-effort; orphaned files are collected by gc
	_ = s.artifacts.Remove(ctx, id)
	return nil
}

// Orphans returns the IDs of artifacts on disk that no registry record
// references.
func (s *AnnotationService) Orphans(ctx context.Context) ([]string, error) {
	ids, err := s.artifacts.ListIDs(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.annotations.List(ctx)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(records))
	for _, r := range records {
		known[r.ID] = struct{}{}
	}

	var orphans []string
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			orphans = append(orphans, id)
		}
	}
	return orphans, nil
}

// CollectOrphans deletes orphaned artifacts and returns the IDs it removed.
func (s *AnnotationService) CollectOrphans(ctx context.Context) ([]string, error) {
	orphans, err := s.Orphans(ctx)
	if err != nil {
		return nil, err
	}

	removed := make([]string, 0, len(orphans))
	for _, id := range orphans {
		if err := s.artifacts.Remove(ctx, id); err != nil {
			return removed, fmt.Errorf("removing orphan %s: %w", id, err)
		}
		removed = append(removed, id)
	}
	return removed, nil
}
