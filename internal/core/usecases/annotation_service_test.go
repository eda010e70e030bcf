package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/samirrijal/annotile/internal/core/domain"
	"github.com/samirrijal/annotile/internal/core/usecases"
)

func TestAnnotationService_List(t *testing.T) {
	repo := &mockAnnotationRepo{
		listFn: func(ctx context.Context) ([]domain.AnnotationRecord, error) {
			return []domain.AnnotationRecord{
				{ID: "a1", Category: "rooftop"},
				{ID: "a2", Category: "street"},
				{ID: "a3", Category: "rooftop"},
			}, nil
		},
	}

	svc := usecases.NewAnnotationService(repo, &mockArtifactStore{})
	records, err := svc.List(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	records, err = svc.List(context.Background(), "rooftop")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 rooftop records, got %d", len(records))
	}
	if records[0].ID != "a1" || records[1].ID != "a3" {
		t.Errorf("expected a1 and a3, got %s and %s", records[0].ID, records[1].ID)
	}
}

func TestAnnotationService_List_RepoError(t *testing.T) {
	repo := &mockAnnotationRepo{
		listFn: func(ctx context.Context) ([]domain.AnnotationRecord, error) {
			return nil, &domain.RegistryError{Op: "list", Err: errors.New("io error")}
		},
	}

	svc := usecases.NewAnnotationService(repo, &mockArtifactStore{})
	var rerr *domain.RegistryError
	if _, err := svc.List(context.Background(), ""); !errors.As(err, &rerr) {
		t.Fatalf("expected RegistryError, got %v", err)
	}
}

func TestAnnotationService_UpdateFields(t *testing.T) {
	var gotCategory *string
	var gotVisible *bool
	repo := &mockAnnotationRepo{
		updateFn: func(ctx context.Context, id string, category *string, visible *bool) error {
			gotCategory, gotVisible = category, visible
			return nil
		},
		getFn: func(ctx context.Context, id string) (*domain.AnnotationRecord, error) {
			return &domain.AnnotationRecord{ID: id, Category: "street"}, nil
		},
	}
	sidecarCategory := ""
	store := &mockArtifactStore{
		updateCategoryFn: func(ctx context.Context, id, category string) error {
			sidecarCategory = category
			return nil
		},
	}

	svc := usecases.NewAnnotationService(repo, store)
	category := "street"
	rec, err := svc.UpdateFields(context.Background(), "a1", &category, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Category != "street" {
		t.Errorf("expected the updated record, got %+v", rec)
	}
	if gotCategory == nil || *gotCategory != "street" {
		t.Error("expected the category forwarded to the repository")
	}
	if gotVisible != nil {
		t.Error("expected visible untouched")
	}
	if sidecarCategory != "street" {
		t.Error("expected the sidecar rewritten with the new category")
	}
}

func TestAnnotationService_UpdateFields_VisibleOnly(t *testing.T) {
	sidecarTouched := false
	store := &mockArtifactStore{
		updateCategoryFn: func(ctx context.Context, id, category string) error {
			sidecarTouched = true
			return nil
		},
	}
	repo := &mockAnnotationRepo{
		getFn: func(ctx context.Context, id string) (*domain.AnnotationRecord, error) {
			return &domain.AnnotationRecord{ID: id}, nil
		},
	}

	svc := usecases.NewAnnotationService(repo, store)
	visible := false
	if _, err := svc.UpdateFields(context.Background(), "a1", nil, &visible); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sidecarTouched {
		t.Error("expected the sidecar untouched for a visibility change")
	}
}

func TestAnnotationService_UpdateFields_Nothing(t *testing.T) {
	repoCalled := false
	repo := &mockAnnotationRepo{
		updateFn: func(ctx context.Context, id string, category *string, visible *bool) error {
			repoCalled = true
			return nil
		},
	}

	svc := usecases.NewAnnotationService(repo, &mockArtifactStore{})
	_, err := svc.UpdateFields(context.Background(), "a1", nil, nil)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if repoCalled {
		t.Error("expected no repository call for an empty patch")
	}
}

func TestAnnotationService_UpdateFields_NotFound(t *testing.T) {
	repo := &mockAnnotationRepo{
		updateFn: func(ctx context.Context, id string, category *string, visible *bool) error {
			return fmt.Errorf("annotation %s: %w", id, domain.ErrRecordNotFound)
		},
	}
	sidecarTouched := false
	store := &mockArtifactStore{
		updateCategoryFn: func(ctx context.Context, id, category string) error {
			sidecarTouched = true
			return nil
		},
	}

	svc := usecases.NewAnnotationService(repo, store)
	category := "street"
	_, err := svc.UpdateFields(context.Background(), "nope", &category, nil)
	if !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	if sidecarTouched {
		t.Error("expected the sidecar untouched for an unknown annotation")
	}
}

func TestAnnotationService_UpdateFields_SidecarFailureIgnored(t *testing.T) {
	repo := &mockAnnotationRepo{
		getFn: func(ctx context.Context, id string) (*domain.AnnotationRecord, error) {
			return &domain.AnnotationRecord{ID: id, Category: "street"}, nil
		},
	}
	store := &mockArtifactStore{
		updateCategoryFn: func(ctx context.Context, id, category string) error {
			return errors.New("sidecar missing")
		},
	}

	svc := usecases.NewAnnotationService(repo, store)
	category := "street"
	if _, err := svc.UpdateFields(context.Background(), "a1", &category, nil); err != nil {
		t.Fatalf("expected the sidecar failure swallowed, got %v", err)
	}
}

func TestAnnotationService_Delete(t *testing.T) {
	deleted := ""
	repo := &mockAnnotationRepo{
		deleteFn: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	removed := ""
	store := &mockArtifactStore{
		removeFn: func(ctx context.Context, id string) error {
			removed = id
			return nil
		},
	}

	svc := usecases.NewAnnotationService(repo, store)
	if err := svc.Delete(context.Background(), "a1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != "a1" {
		t.Errorf("expected the record deleted, got %q", deleted)
	}
	if removed != "a1" {
		t.Errorf("expected the artifacts removed, got %q", removed)
	}
}

func TestAnnotationService_Delete_NotFound(t *testing.T) {
	repo := &mockAnnotationRepo{
		deleteFn: func(ctx context.Context, id string) error {
			return fmt.Errorf("annotation %s: %w", id, domain.ErrRecordNotFound)
		},
	}
	removeCalled := false
	store := &mockArtifactStore{
		removeFn: func(ctx context.Context, id string) error {
			removeCalled = true
			return nil
		},
	}

	svc := usecases.NewAnnotationService(repo, store)
	if err := svc.Delete(context.Background(), "nope"); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	if removeCalled {
		t.Error("expected no artifact removal for an unknown annotation")
	}
}

func TestAnnotationService_Delete_ArtifactFailureIgnored(t *testing.T) {
	store := &mockArtifactStore{
		removeFn: func(ctx context.Context, id string) error {
			return errors.New("permission denied")
		},
	}

	svc := usecases.NewAnnotationService(&mockAnnotationRepo{}, store)
	if err := svc.Delete(context.Background(), "a1"); err != nil {
		t.Fatalf("expected the artifact failure swallowed, got %v", err)
	}
}

func TestAnnotationService_Orphans(t *testing.T) {
	store := &mockArtifactStore{
		listIDsFn: func(ctx context.Context) ([]string, error) {
			return []string{"a1", "a2", "a3"}, nil
		},
	}
	repo := &mockAnnotationRepo{
		listFn: func(ctx context.Context) ([]domain.AnnotationRecord, error) {
			return []domain.AnnotationRecord{{ID: "a2"}}, nil
		},
	}

	svc := usecases.NewAnnotationService(repo, store)
	orphans, err := svc.Orphans(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orphans) != 2 {
		t.Fatalf("expected 2 orphans, got %v", orphans)
	}
	if orphans[0] != "a1" || orphans[1] != "a3" {
		t.Errorf("expected a1 and a3, got %v", orphans)
	}
}

func TestAnnotationService_CollectOrphans(t *testing.T) {
	var removed []string
	store := &mockArtifactStore{
		listIDsFn: func(ctx context.Context) ([]string, error) {
			return []string{"a1", "a2"}, nil
		},
		removeFn: func(ctx context.Context, id string) error {
			removed = append(removed, id)
			return nil
		},
	}

	svc := usecases.NewAnnotationService(&mockAnnotationRepo{}, store)
	collected, err := svc.CollectOrphans(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(collected) != 2 || len(removed) != 2 {
		t.Fatalf("expected both orphans collected, got %v", collected)
	}
}

func TestAnnotationService_CollectOrphans_PartialFailure(t *testing.T) {
	store := &mockArtifactStore{
		listIDsFn: func(ctx context.Context) ([]string, error) {
			return []string{"a1", "a2"}, nil
		},
		removeFn: func(ctx context.Context, id string) error {
			if id == "a2" {
				return errors.New("permission denied")
			}
			return nil
		},
	}

	svc := usecases.NewAnnotationService(&mockAnnotationRepo{}, store)
	collected, err := svc.CollectOrphans(context.Background())
	if err == nil {
		t.Fatal("expected an error for the failed removal")
	}
	if len(collected) != 1 || collected[0] != "a1" {
		t.Errorf("expected the successful removals reported, got %v", collected)
	}
}
